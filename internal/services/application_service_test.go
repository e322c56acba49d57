// internal/services/application_service_test.go
package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/models"
	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/utils"
)

type pairKey struct {
	postID  uuid.UUID
	tutorID uuid.UUID
}

// fakeApplicationStore keeps applications in memory behind a mutex and
// enforces the (post_id, tutor_id) uniqueness the way the database index
// does: inside a single critical section, never check-then-insert from the
// caller's point of view.
type fakeApplicationStore struct {
	mu           sync.Mutex
	byKey        map[pairKey]*models.Application
	byID         map[uuid.UUID]*models.Application
	insertCalls  int
	orphanedKeys map[pairKey]bool // index says present, row unreadable
}

func newFakeApplicationStore() *fakeApplicationStore {
	return &fakeApplicationStore{
		byKey:        make(map[pairKey]*models.Application),
		byID:         make(map[uuid.UUID]*models.Application),
		orphanedKeys: make(map[pairKey]bool),
	}
}

func (f *fakeApplicationStore) InsertIfAbsent(_ context.Context, app *models.Application) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.insertCalls++
	key := pairKey{postID: app.PostID, tutorID: app.TutorID}
	if f.orphanedKeys[key] {
		return false, nil
	}
	if _, exists := f.byKey[key]; exists {
		return false, nil
	}

	app.ID = uuid.New()
	stored := *app
	f.byKey[key] = &stored
	f.byID[stored.ID] = &stored
	return true, nil
}

func (f *fakeApplicationStore) FindByPostAndTutor(_ context.Context, postID, tutorID uuid.UUID) (*models.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	app, ok := f.byKey[pairKey{postID: postID, tutorID: tutorID}]
	if !ok {
		return nil, ErrApplicationNotFound
	}
	copied := *app
	return &copied, nil
}

func (f *fakeApplicationStore) FindByID(_ context.Context, id uuid.UUID) (*models.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	app, ok := f.byID[id]
	if !ok {
		return nil, ErrApplicationNotFound
	}
	copied := *app
	return &copied, nil
}

func (f *fakeApplicationStore) Update(_ context.Context, app *models.Application) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored, ok := f.byID[app.ID]
	if !ok {
		return ErrApplicationNotFound
	}
	*stored = *app
	return nil
}

func (f *fakeApplicationStore) ListByTutor(_ context.Context, tutorID uuid.UUID, _ utils.PaginationParams) ([]models.Application, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.Application
	for _, app := range f.byID {
		if app.TutorID == tutorID {
			out = append(out, *app)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeApplicationStore) ListByPost(_ context.Context, postID uuid.UUID, _ utils.PaginationParams) ([]models.Application, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.Application
	for _, app := range f.byID {
		if app.PostID == postID {
			out = append(out, *app)
		}
	}
	return out, int64(len(out)), nil
}

type fakePostDirectory struct {
	posts map[uuid.UUID]*models.TuitionPost
}

func (f *fakePostDirectory) GetPost(_ context.Context, id uuid.UUID) (*models.TuitionPost, error) {
	post, ok := f.posts[id]
	if !ok {
		return nil, ErrPostNotFound
	}
	return post, nil
}

type fakeTutorDirectory struct {
	users map[uuid.UUID]*models.User
}

func (f *fakeTutorDirectory) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user, nil
}

type recordedEvents struct {
	mu            sync.Mutex
	submitted     []uuid.UUID
	statusChanged []models.ApplicationStatus
	accepted      []uuid.UUID
}

func (r *recordedEvents) ApplicationSubmitted(app *models.Application) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.submitted = append(r.submitted, app.ID)
}

func (r *recordedEvents) ApplicationStatusChanged(app *models.Application) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statusChanged = append(r.statusChanged, app.Status)
}

func (r *recordedEvents) ApplicationAccepted(app *models.Application) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accepted = append(r.accepted, app.ID)
}

type registryFixture struct {
	service *ApplicationService
	store   *fakeApplicationStore
	posts   *fakePostDirectory
	tutors  *fakeTutorDirectory
	events  *recordedEvents

	studentID uuid.UUID
	tutorID   uuid.UUID
	postID    uuid.UUID
}

func newRegistryFixture(t *testing.T) *registryFixture {
	t.Helper()

	f := &registryFixture{
		store:     newFakeApplicationStore(),
		posts:     &fakePostDirectory{posts: make(map[uuid.UUID]*models.TuitionPost)},
		tutors:    &fakeTutorDirectory{users: make(map[uuid.UUID]*models.User)},
		events:    &recordedEvents{},
		studentID: uuid.New(),
		tutorID:   uuid.New(),
		postID:    uuid.New(),
	}

	f.posts.posts[f.postID] = &models.TuitionPost{
		StudentID: f.studentID,
		Status:    models.PostStatusOpen,
	}
	f.tutors.users[f.tutorID] = &models.User{
		UserType:          models.UserTypeTutor,
		Status:            models.UserStatusActive,
		VerificationLevel: models.VerificationLevelVerified,
	}

	f.service = NewApplicationService(f.store, f.posts, f.tutors, f.events)
	return f
}

func (f *registryFixture) addOpenPost() uuid.UUID {
	id := uuid.New()
	f.posts.posts[id] = &models.TuitionPost{
		StudentID: f.studentID,
		Status:    models.PostStatusOpen,
	}
	return id
}

func (f *registryFixture) addVerifiedTutor() uuid.UUID {
	id := uuid.New()
	f.tutors.users[id] = &models.User{
		UserType:          models.UserTypeTutor,
		Status:            models.UserStatusActive,
		VerificationLevel: models.VerificationLevelVerified,
	}
	return id
}

func validSubmitRequest() *SubmitApplicationRequest {
	return &SubmitApplicationRequest{
		Pitch:        "Experienced with O-level physics.",
		ProposedRate: 450,
		Availability: []string{"Mon 18:00-20:00", "Wed 18:00-20:00"},
	}
}

func TestSubmitApplicationCreates(t *testing.T) {
	f := newRegistryFixture(t)

	result, err := f.service.SubmitApplication(context.Background(), f.postID, f.tutorID, validSubmitRequest())
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.False(t, result.AlreadyExists)
	assert.Equal(t, models.ApplicationStatusSubmitted, result.Application.Status)
	assert.Equal(t, f.postID, result.Application.PostID)
	assert.Equal(t, f.tutorID, result.Application.TutorID)
	assert.Len(t, f.events.submitted, 1)
}

func TestSubmitApplicationNormalizesAvailability(t *testing.T) {
	f := newRegistryFixture(t)

	req := validSubmitRequest()
	req.Availability = []string{" Mon 18:00-20:00 ", "Mon 18:00-20:00", "Wed 18:00-20:00"}

	result, err := f.service.SubmitApplication(context.Background(), f.postID, f.tutorID, req)
	require.NoError(t, err)

	assert.Equal(t, []string{"Mon 18:00-20:00", "Wed 18:00-20:00"}, []string(result.Application.Availability))
}

func TestSubmitApplicationIdempotent(t *testing.T) {
	f := newRegistryFixture(t)
	ctx := context.Background()

	first, err := f.service.SubmitApplication(ctx, f.postID, f.tutorID, validSubmitRequest())
	require.NoError(t, err)
	require.False(t, first.AlreadyExists)

	// A repeat submission, even with a different pitch, reports the
	// existing application instead of creating or mutating anything.
	repeat := validSubmitRequest()
	repeat.Pitch = "Completely different pitch"
	second, err := f.service.SubmitApplication(ctx, f.postID, f.tutorID, repeat)
	require.NoError(t, err)

	assert.True(t, second.AlreadyExists)
	assert.Equal(t, first.Application.ID, second.Application.ID)
	assert.Equal(t, first.Application.Pitch, second.Application.Pitch)
	assert.Len(t, f.events.submitted, 1)
}

func TestSubmitApplicationConcurrentDuplicates(t *testing.T) {
	f := newRegistryFixture(t)
	ctx := context.Background()

	const workers = 16
	results := make([]*SubmitResult, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.service.SubmitApplication(ctx, f.postID, f.tutorID, validSubmitRequest())
		}(i)
	}
	wg.Wait()

	var created int
	var firstID uuid.UUID
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
		if !results[i].AlreadyExists {
			created++
			firstID = results[i].Application.ID
		}
	}

	assert.Equal(t, 1, created, "exactly one submission must win")
	for i := 0; i < workers; i++ {
		assert.Equal(t, firstID, results[i].Application.ID)
	}
	assert.Len(t, f.events.submitted, 1)
}

func TestSubmitApplicationIndependentPairs(t *testing.T) {
	f := newRegistryFixture(t)
	ctx := context.Background()

	otherPost := f.addOpenPost()
	otherTutor := f.addVerifiedTutor()

	first, err := f.service.SubmitApplication(ctx, f.postID, f.tutorID, validSubmitRequest())
	require.NoError(t, err)
	assert.False(t, first.AlreadyExists)

	// Same tutor, different post.
	second, err := f.service.SubmitApplication(ctx, otherPost, f.tutorID, validSubmitRequest())
	require.NoError(t, err)
	assert.False(t, second.AlreadyExists)

	// Same post, different tutor.
	third, err := f.service.SubmitApplication(ctx, f.postID, otherTutor, validSubmitRequest())
	require.NoError(t, err)
	assert.False(t, third.AlreadyExists)
}

func TestSubmitApplicationPostChecks(t *testing.T) {
	f := newRegistryFixture(t)
	ctx := context.Background()

	_, err := f.service.SubmitApplication(ctx, uuid.New(), f.tutorID, validSubmitRequest())
	assert.ErrorIs(t, err, ErrPostNotFound)

	closedPost := uuid.New()
	f.posts.posts[closedPost] = &models.TuitionPost{
		StudentID: f.studentID,
		Status:    models.PostStatusClosed,
	}
	_, err = f.service.SubmitApplication(ctx, closedPost, f.tutorID, validSubmitRequest())
	assert.ErrorIs(t, err, ErrPostNotOpen)

	fulfilledPost := uuid.New()
	f.posts.posts[fulfilledPost] = &models.TuitionPost{
		StudentID: f.studentID,
		Status:    models.PostStatusFulfilled,
	}
	_, err = f.service.SubmitApplication(ctx, fulfilledPost, f.tutorID, validSubmitRequest())
	assert.ErrorIs(t, err, ErrPostNotOpen)
}

func TestSubmitApplicationEligibilityChecks(t *testing.T) {
	f := newRegistryFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		user *models.User
	}{
		{"unknown user", nil},
		{"unverified tutor", &models.User{
			UserType: models.UserTypeTutor,
			Status:   models.UserStatusActive,
		}},
		{"suspended tutor", &models.User{
			UserType:          models.UserTypeTutor,
			Status:            models.UserStatusSuspended,
			VerificationLevel: models.VerificationLevelVerified,
		}},
		{"student account", &models.User{
			UserType:          models.UserTypeStudent,
			Status:            models.UserStatusActive,
			VerificationLevel: models.VerificationLevelVerified,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := uuid.New()
			if tt.user != nil {
				f.tutors.users[id] = tt.user
			}
			_, err := f.service.SubmitApplication(ctx, f.postID, id, validSubmitRequest())
			assert.ErrorIs(t, err, ErrTutorNotEligible)
		})
	}
}

func TestSubmitApplicationValidation(t *testing.T) {
	f := newRegistryFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*SubmitApplicationRequest)
	}{
		{"zero rate", func(r *SubmitApplicationRequest) { r.ProposedRate = 0 }},
		{"negative rate", func(r *SubmitApplicationRequest) { r.ProposedRate = -50 }},
		{"no availability", func(r *SubmitApplicationRequest) { r.Availability = nil }},
		{"blank slot", func(r *SubmitApplicationRequest) { r.Availability = []string{"   "} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validSubmitRequest()
			tt.mutate(req)
			_, err := f.service.SubmitApplication(ctx, f.postID, f.tutorID, req)
			assert.Error(t, err)
		})
	}

	assert.Zero(t, f.store.insertCalls, "invalid input must never reach storage")
}

func TestSubmitApplicationOrphanedIndexConflict(t *testing.T) {
	f := newRegistryFixture(t)

	// The index claims the key exists but no row can be read back. The
	// service must retry the bounded number of times then surface the
	// unresolved conflict rather than loop or guess.
	f.store.orphanedKeys[pairKey{postID: f.postID, tutorID: f.tutorID}] = true

	_, err := f.service.SubmitApplication(context.Background(), f.postID, f.tutorID, validSubmitRequest())
	assert.ErrorIs(t, err, ErrApplicationConflict)
	assert.Equal(t, submitAttempts, f.store.insertCalls)
	assert.Empty(t, f.events.submitted)
}

func TestTransitionStatusLifecycle(t *testing.T) {
	f := newRegistryFixture(t)
	ctx := context.Background()

	result, err := f.service.SubmitApplication(ctx, f.postID, f.tutorID, validSubmitRequest())
	require.NoError(t, err)
	appID := result.Application.ID

	shortlisted, err := f.service.TransitionStatus(ctx, appID, models.ApplicationStatusShortlisted, f.studentID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusShortlisted, shortlisted.Status)
	assert.Nil(t, shortlisted.DecidedAt)

	accepted, err := f.service.TransitionStatus(ctx, appID, models.ApplicationStatusAccepted, f.studentID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusAccepted, accepted.Status)
	require.NotNil(t, accepted.DecidedAt)

	assert.Equal(t, []models.ApplicationStatus{
		models.ApplicationStatusShortlisted,
		models.ApplicationStatusAccepted,
	}, f.events.statusChanged)
	assert.Equal(t, []uuid.UUID{appID}, f.events.accepted)
}

func TestTransitionStatusRejectFromSubmitted(t *testing.T) {
	f := newRegistryFixture(t)
	ctx := context.Background()

	result, err := f.service.SubmitApplication(ctx, f.postID, f.tutorID, validSubmitRequest())
	require.NoError(t, err)

	rejected, err := f.service.TransitionStatus(ctx, result.Application.ID, models.ApplicationStatusRejected, f.studentID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusRejected, rejected.Status)
	require.NotNil(t, rejected.DecidedAt)
	assert.Empty(t, f.events.accepted)
}

func TestTransitionStatusIllegal(t *testing.T) {
	f := newRegistryFixture(t)
	ctx := context.Background()

	result, err := f.service.SubmitApplication(ctx, f.postID, f.tutorID, validSubmitRequest())
	require.NoError(t, err)
	appID := result.Application.ID

	// submitted cannot jump straight to accepted.
	_, err = f.service.TransitionStatus(ctx, appID, models.ApplicationStatusAccepted, f.studentID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// submitted is not a decision target.
	_, err = f.service.TransitionStatus(ctx, appID, models.ApplicationStatusSubmitted, f.studentID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Terminal states accept no further transitions.
	_, err = f.service.TransitionStatus(ctx, appID, models.ApplicationStatusRejected, f.studentID)
	require.NoError(t, err)
	for _, next := range []models.ApplicationStatus{
		models.ApplicationStatusShortlisted,
		models.ApplicationStatusAccepted,
		models.ApplicationStatusRejected,
	} {
		_, err = f.service.TransitionStatus(ctx, appID, next, f.studentID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	}
}

func TestTransitionStatusOwnerOnly(t *testing.T) {
	f := newRegistryFixture(t)
	ctx := context.Background()

	result, err := f.service.SubmitApplication(ctx, f.postID, f.tutorID, validSubmitRequest())
	require.NoError(t, err)

	stranger := uuid.New()
	_, err = f.service.TransitionStatus(ctx, result.Application.ID, models.ApplicationStatusShortlisted, stranger)
	assert.ErrorIs(t, err, ErrNotPostOwner)

	// The tutor who applied is not the owner either.
	_, err = f.service.TransitionStatus(ctx, result.Application.ID, models.ApplicationStatusShortlisted, f.tutorID)
	assert.ErrorIs(t, err, ErrNotPostOwner)
}

func TestTransitionStatusUnknownApplication(t *testing.T) {
	f := newRegistryFixture(t)

	_, err := f.service.TransitionStatus(context.Background(), uuid.New(), models.ApplicationStatusShortlisted, f.studentID)
	assert.ErrorIs(t, err, ErrApplicationNotFound)
}

func TestListForPostOwnerOnly(t *testing.T) {
	f := newRegistryFixture(t)
	ctx := context.Background()

	_, err := f.service.SubmitApplication(ctx, f.postID, f.tutorID, validSubmitRequest())
	require.NoError(t, err)

	apps, total, err := f.service.ListForPost(ctx, f.postID, f.studentID, utils.PaginationParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, apps, 1)

	_, _, err = f.service.ListForPost(ctx, f.postID, uuid.New(), utils.PaginationParams{})
	assert.ErrorIs(t, err, ErrNotPostOwner)
}

func TestListForTutor(t *testing.T) {
	f := newRegistryFixture(t)
	ctx := context.Background()

	otherPost := f.addOpenPost()
	_, err := f.service.SubmitApplication(ctx, f.postID, f.tutorID, validSubmitRequest())
	require.NoError(t, err)
	_, err = f.service.SubmitApplication(ctx, otherPost, f.tutorID, validSubmitRequest())
	require.NoError(t, err)

	apps, total, err := f.service.ListForTutor(ctx, f.tutorID, utils.PaginationParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, apps, 2)
}
