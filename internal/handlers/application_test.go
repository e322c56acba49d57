// internal/handlers/application_test.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/models"
	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/services"
	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/utils"
)

type applicationKey struct {
	postID  uuid.UUID
	tutorID uuid.UUID
}

type memApplicationStore struct {
	mu        sync.Mutex
	byKey     map[applicationKey]*models.Application
	byID      map[uuid.UUID]*models.Application
	orphaned  map[applicationKey]bool
	insertErr error
	updateErr error
}

func newMemApplicationStore() *memApplicationStore {
	return &memApplicationStore{
		byKey:    make(map[applicationKey]*models.Application),
		byID:     make(map[uuid.UUID]*models.Application),
		orphaned: make(map[applicationKey]bool),
	}
}

func (s *memApplicationStore) InsertIfAbsent(_ context.Context, app *models.Application) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.insertErr != nil {
		return false, s.insertErr
	}

	key := applicationKey{app.PostID, app.TutorID}
	if s.orphaned[key] {
		return false, nil
	}
	if _, exists := s.byKey[key]; exists {
		return false, nil
	}

	app.ID = uuid.New()
	s.byKey[key] = app
	s.byID[app.ID] = app
	return true, nil
}

func (s *memApplicationStore) FindByPostAndTutor(_ context.Context, postID, tutorID uuid.UUID) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if app, ok := s.byKey[applicationKey{postID, tutorID}]; ok {
		return app, nil
	}
	return nil, services.ErrApplicationNotFound
}

func (s *memApplicationStore) FindByID(_ context.Context, id uuid.UUID) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if app, ok := s.byID[id]; ok {
		return app, nil
	}
	return nil, services.ErrApplicationNotFound
}

func (s *memApplicationStore) Update(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	s.byID[app.ID] = app
	s.byKey[applicationKey{app.PostID, app.TutorID}] = app
	return nil
}

func (s *memApplicationStore) ListByTutor(_ context.Context, tutorID uuid.UUID, _ utils.PaginationParams) ([]models.Application, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Application
	for _, app := range s.byID {
		if app.TutorID == tutorID {
			out = append(out, *app)
		}
	}
	return out, int64(len(out)), nil
}

func (s *memApplicationStore) ListByPost(_ context.Context, postID uuid.UUID, _ utils.PaginationParams) ([]models.Application, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Application
	for _, app := range s.byID {
		if app.PostID == postID {
			out = append(out, *app)
		}
	}
	return out, int64(len(out)), nil
}

type memPostDirectory struct {
	posts map[uuid.UUID]*models.TuitionPost
}

func (d *memPostDirectory) GetPost(_ context.Context, id uuid.UUID) (*models.TuitionPost, error) {
	if post, ok := d.posts[id]; ok {
		return post, nil
	}
	return nil, services.ErrPostNotFound
}

type memTutorDirectory struct {
	users map[uuid.UUID]*models.User
}

func (d *memTutorDirectory) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := d.users[id]; ok {
		return user, nil
	}
	return nil, services.ErrUserNotFound
}

// applicationAPI wires the application handler into a test router with a
// stub auth middleware that injects the acting user.
type applicationAPI struct {
	router *gin.Engine
	store  *memApplicationStore
	posts  *memPostDirectory
	tutors *memTutorDirectory
}

func newApplicationAPI(t *testing.T) *applicationAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	api := &applicationAPI{
		store:  newMemApplicationStore(),
		posts:  &memPostDirectory{posts: make(map[uuid.UUID]*models.TuitionPost)},
		tutors: &memTutorDirectory{users: make(map[uuid.UUID]*models.User)},
	}

	service := services.NewApplicationService(api.store, api.posts, api.tutors, nil)
	handler := NewApplicationHandler(service)

	actAs := func(c *gin.Context) {
		c.Set("user_id", c.GetHeader("X-Test-User"))
		c.Next()
	}

	api.router = gin.New()
	api.router.POST("/v1/tutor/jobs/:postId/apply", actAs, handler.Apply)
	api.router.PUT("/v1/student/applications/:id/:action", actAs, handler.Decide)
	api.router.GET("/v1/student/posts/:id/applications", actAs, handler.ListForPost)
	return api
}

func (api *applicationAPI) addOpenPost(studentID uuid.UUID) uuid.UUID {
	id := uuid.New()
	api.posts.posts[id] = &models.TuitionPost{
		BaseModel: models.BaseModel{ID: id},
		StudentID: studentID,
		Status:    models.PostStatusOpen,
	}
	return id
}

func (api *applicationAPI) addVerifiedTutor() uuid.UUID {
	id := uuid.New()
	api.tutors.users[id] = &models.User{
		BaseModel:         models.BaseModel{ID: id},
		UserType:          models.UserTypeTutor,
		Status:            models.UserStatusActive,
		VerificationLevel: models.VerificationLevelVerified,
	}
	return id
}

func (api *applicationAPI) do(t *testing.T, method, path string, userID uuid.UUID, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", userID.String())

	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) utils.APIResponse {
	t.Helper()
	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func applyBody() map[string]interface{} {
	return map[string]interface{}{
		"pitch":         "Covered this syllabus for three years.",
		"proposed_rate": 500,
		"availability":  []string{"sat-10:00", "sun-10:00"},
	}
}

func TestApplyEndpointCreates(t *testing.T) {
	api := newApplicationAPI(t)
	postID := api.addOpenPost(uuid.New())
	tutorID := api.addVerifiedTutor()

	w := api.do(t, http.MethodPost, fmt.Sprintf("/v1/tutor/jobs/%s/apply", postID), tutorID, applyBody())

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decodeEnvelope(t, w)
	assert.True(t, resp.Success)
}

func TestApplyEndpointDuplicateReturnsConflict(t *testing.T) {
	api := newApplicationAPI(t)
	postID := api.addOpenPost(uuid.New())
	tutorID := api.addVerifiedTutor()

	first := api.do(t, http.MethodPost, fmt.Sprintf("/v1/tutor/jobs/%s/apply", postID), tutorID, applyBody())
	require.Equal(t, http.StatusCreated, first.Code)

	second := api.do(t, http.MethodPost, fmt.Sprintf("/v1/tutor/jobs/%s/apply", postID), tutorID, applyBody())

	assert.Equal(t, http.StatusConflict, second.Code)
	resp := decodeEnvelope(t, second)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ALREADY_APPLIED", resp.Error.Code)

	// The existing application's id rides along so the client can show it.
	details, ok := resp.Error.Details.(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, details["application_id"])
}

func TestApplyEndpointClosedPost(t *testing.T) {
	api := newApplicationAPI(t)
	studentID := uuid.New()
	postID := api.addOpenPost(studentID)
	api.posts.posts[postID].Status = models.PostStatusClosed
	tutorID := api.addVerifiedTutor()

	w := api.do(t, http.MethodPost, fmt.Sprintf("/v1/tutor/jobs/%s/apply", postID), tutorID, applyBody())

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decodeEnvelope(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "POST_NOT_OPEN", resp.Error.Code)
}

func TestApplyEndpointUnverifiedTutorForbidden(t *testing.T) {
	api := newApplicationAPI(t)
	postID := api.addOpenPost(uuid.New())
	tutorID := api.addVerifiedTutor()
	api.tutors.users[tutorID].VerificationLevel = models.VerificationLevelUnverified

	w := api.do(t, http.MethodPost, fmt.Sprintf("/v1/tutor/jobs/%s/apply", postID), tutorID, applyBody())

	assert.Equal(t, http.StatusForbidden, w.Code)
	resp := decodeEnvelope(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "FORBIDDEN", resp.Error.Code)
}

func TestApplyEndpointUnresolvedConflict(t *testing.T) {
	api := newApplicationAPI(t)
	postID := api.addOpenPost(uuid.New())
	tutorID := api.addVerifiedTutor()
	api.store.orphaned[applicationKey{postID, tutorID}] = true

	w := api.do(t, http.MethodPost, fmt.Sprintf("/v1/tutor/jobs/%s/apply", postID), tutorID, applyBody())

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeEnvelope(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "APPLICATION_CONFLICT_UNRESOLVED", resp.Error.Code)
}

func TestApplyEndpointStorageFailureStaysOpaque(t *testing.T) {
	api := newApplicationAPI(t)
	postID := api.addOpenPost(uuid.New())
	tutorID := api.addVerifiedTutor()
	api.store.insertErr = errors.New("pq: connection refused (SQLSTATE 08006)")

	w := api.do(t, http.MethodPost, fmt.Sprintf("/v1/tutor/jobs/%s/apply", postID), tutorID, applyBody())

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeEnvelope(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INTERNAL_ERROR", resp.Error.Code)
	assert.Equal(t, "Internal server error", resp.Error.Message)
	// The driver text must never surface to the client.
	assert.NotContains(t, w.Body.String(), "SQLSTATE")
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestApplyEndpointInvalidInputFieldEnvelope(t *testing.T) {
	api := newApplicationAPI(t)
	postID := api.addOpenPost(uuid.New())
	tutorID := api.addVerifiedTutor()

	body := map[string]interface{}{
		"pitch":         "rate missing and no slots",
		"proposed_rate": 0,
		"availability":  []string{},
	}
	w := api.do(t, http.MethodPost, fmt.Sprintf("/v1/tutor/jobs/%s/apply", postID), tutorID, body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeEnvelope(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)

	fields, ok := resp.Error.Details.([]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, fields)
}

func TestDecideEndpointStorageFailureStaysOpaque(t *testing.T) {
	api := newApplicationAPI(t)
	studentID := uuid.New()
	postID := api.addOpenPost(studentID)
	tutorID := api.addVerifiedTutor()

	created := api.do(t, http.MethodPost, fmt.Sprintf("/v1/tutor/jobs/%s/apply", postID), tutorID, applyBody())
	require.Equal(t, http.StatusCreated, created.Code)

	app, err := api.store.FindByPostAndTutor(context.Background(), postID, tutorID)
	require.NoError(t, err)
	api.store.updateErr = errors.New("pq: deadlock detected (SQLSTATE 40P01)")

	w := api.do(t, http.MethodPut, fmt.Sprintf("/v1/student/applications/%s/shortlist", app.ID), studentID, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeEnvelope(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INTERNAL_ERROR", resp.Error.Code)
	assert.NotContains(t, w.Body.String(), "SQLSTATE")
}

func TestDecideEndpointLifecycle(t *testing.T) {
	api := newApplicationAPI(t)
	studentID := uuid.New()
	postID := api.addOpenPost(studentID)
	tutorID := api.addVerifiedTutor()

	created := api.do(t, http.MethodPost, fmt.Sprintf("/v1/tutor/jobs/%s/apply", postID), tutorID, applyBody())
	require.Equal(t, http.StatusCreated, created.Code)

	app, err := api.store.FindByPostAndTutor(context.Background(), postID, tutorID)
	require.NoError(t, err)

	shortlist := api.do(t, http.MethodPut, fmt.Sprintf("/v1/student/applications/%s/shortlist", app.ID), studentID, nil)
	assert.Equal(t, http.StatusOK, shortlist.Code)

	accept := api.do(t, http.MethodPut, fmt.Sprintf("/v1/student/applications/%s/accept", app.ID), studentID, nil)
	assert.Equal(t, http.StatusOK, accept.Code)
	assert.Equal(t, models.ApplicationStatusAccepted, app.Status)
}

func TestDecideEndpointIllegalTransition(t *testing.T) {
	api := newApplicationAPI(t)
	studentID := uuid.New()
	postID := api.addOpenPost(studentID)
	tutorID := api.addVerifiedTutor()

	created := api.do(t, http.MethodPost, fmt.Sprintf("/v1/tutor/jobs/%s/apply", postID), tutorID, applyBody())
	require.Equal(t, http.StatusCreated, created.Code)

	app, err := api.store.FindByPostAndTutor(context.Background(), postID, tutorID)
	require.NoError(t, err)

	// accept straight from submitted skips the shortlist step
	w := api.do(t, http.MethodPut, fmt.Sprintf("/v1/student/applications/%s/accept", app.ID), studentID, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeEnvelope(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_TRANSITION", resp.Error.Code)
}

func TestDecideEndpointStrangerForbidden(t *testing.T) {
	api := newApplicationAPI(t)
	studentID := uuid.New()
	postID := api.addOpenPost(studentID)
	tutorID := api.addVerifiedTutor()

	created := api.do(t, http.MethodPost, fmt.Sprintf("/v1/tutor/jobs/%s/apply", postID), tutorID, applyBody())
	require.Equal(t, http.StatusCreated, created.Code)

	app, err := api.store.FindByPostAndTutor(context.Background(), postID, tutorID)
	require.NoError(t, err)

	w := api.do(t, http.MethodPut, fmt.Sprintf("/v1/student/applications/%s/shortlist", app.ID), uuid.New(), nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
	resp := decodeEnvelope(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "FORBIDDEN", resp.Error.Code)
}

func TestListForPostEndpointOwnerOnly(t *testing.T) {
	api := newApplicationAPI(t)
	studentID := uuid.New()
	postID := api.addOpenPost(studentID)
	tutorID := api.addVerifiedTutor()

	created := api.do(t, http.MethodPost, fmt.Sprintf("/v1/tutor/jobs/%s/apply", postID), tutorID, applyBody())
	require.Equal(t, http.StatusCreated, created.Code)

	owner := api.do(t, http.MethodGet, fmt.Sprintf("/v1/student/posts/%s/applications", postID), studentID, nil)
	assert.Equal(t, http.StatusOK, owner.Code)

	stranger := api.do(t, http.MethodGet, fmt.Sprintf("/v1/student/posts/%s/applications", postID), uuid.New(), nil)
	assert.Equal(t, http.StatusForbidden, stranger.Code)
}
