// internal/services/application_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/models"
	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/utils"
)

// Business outcomes of application operations. Handlers map these to HTTP
// responses; no raw storage error ever reaches a caller.
var (
	ErrPostNotFound        = errors.New("tuition post not found")
	ErrPostNotOpen         = errors.New("tuition post is not open for applications")
	ErrTutorNotEligible    = errors.New("tutor account is not eligible to apply")
	ErrApplicationNotFound = errors.New("application not found")
	ErrInvalidTransition   = errors.New("invalid application status transition")
	ErrNotPostOwner        = errors.New("only the post owner may manage its applications")

	// ErrApplicationConflict is the unresolved-duplicate condition: the
	// uniqueness index rejected the insert but no matching row could be
	// read back. It signals a data-integrity problem needing operator
	// attention and is never retried beyond submitAttempts.
	ErrApplicationConflict = errors.New("application uniqueness conflict could not be resolved")
)

// submitAttempts bounds the insert/re-read loop. The conflict it guards
// against is an integrity bug, not transient load, so the cap is small and
// there is no backoff.
const submitAttempts = 2

// ApplicationStore is the storage contract for the application registry.
// InsertIfAbsent must be a single atomic storage-level operation on the
// (post_id, tutor_id) key, never a check-then-insert pair.
type ApplicationStore interface {
	InsertIfAbsent(ctx context.Context, app *models.Application) (bool, error)
	FindByPostAndTutor(ctx context.Context, postID, tutorID uuid.UUID) (*models.Application, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Application, error)
	Update(ctx context.Context, app *models.Application) error
	ListByTutor(ctx context.Context, tutorID uuid.UUID, params utils.PaginationParams) ([]models.Application, int64, error)
	ListByPost(ctx context.Context, postID uuid.UUID, params utils.PaginationParams) ([]models.Application, int64, error)
}

type PostDirectory interface {
	GetPost(ctx context.Context, id uuid.UUID) (*models.TuitionPost, error)
}

type TutorDirectory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// ApplicationEvents receives lifecycle notifications. Closing the parent
// post after an acceptance is the post collaborator's job, triggered
// through this sink rather than performed by the registry itself.
type ApplicationEvents interface {
	ApplicationSubmitted(app *models.Application)
	ApplicationStatusChanged(app *models.Application)
	ApplicationAccepted(app *models.Application)
}

type ApplicationService struct {
	store  ApplicationStore
	posts  PostDirectory
	tutors TutorDirectory
	events ApplicationEvents
}

type SubmitApplicationRequest struct {
	Pitch        string   `json:"pitch,omitempty" validate:"omitempty,max=2000"`
	ProposedRate float64  `json:"proposed_rate" validate:"required,gt=0"`
	Availability []string `json:"availability" validate:"required,min=1,max=20,dive,time_slot"`
}

// SubmitResult distinguishes a fresh insert from an idempotent replay of an
// earlier submission for the same (post, tutor) pair.
type SubmitResult struct {
	Application   *models.Application
	AlreadyExists bool
}

func NewApplicationService(store ApplicationStore, posts PostDirectory, tutors TutorDirectory, events ApplicationEvents) *ApplicationService {
	return &ApplicationService{
		store:  store,
		posts:  posts,
		tutors: tutors,
		events: events,
	}
}

// SubmitApplication creates at most one application per (post, tutor) pair,
// safely under concurrent duplicate submissions. The synchronization point
// is the storage-level unique index; duplicates are classified by a
// re-read, and an index hit with no readable row is surfaced as
// ErrApplicationConflict after a bounded number of retries.
func (s *ApplicationService) SubmitApplication(ctx context.Context, postID, tutorID uuid.UUID, req *SubmitApplicationRequest) (*SubmitResult, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	post, err := s.posts.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !post.IsOpen() {
		return nil, ErrPostNotOpen
	}

	tutor, err := s.tutors.GetUser(ctx, tutorID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrTutorNotEligible
		}
		return nil, err
	}
	if !tutor.IsEligibleTutor() {
		return nil, ErrTutorNotEligible
	}

	availability := normalizeSlots(req.Availability)

	for attempt := 0; attempt < submitAttempts; attempt++ {
		app := &models.Application{
			PostID:       postID,
			TutorID:      tutorID,
			Status:       models.ApplicationStatusSubmitted,
			Pitch:        req.Pitch,
			ProposedRate: req.ProposedRate,
			Availability: pq.StringArray(availability),
		}

		inserted, err := s.store.InsertIfAbsent(ctx, app)
		if err != nil {
			return nil, fmt.Errorf("failed to record application: %w", err)
		}
		if inserted {
			if s.events != nil {
				s.events.ApplicationSubmitted(app)
			}
			return &SubmitResult{Application: app}, nil
		}

		// The key was reported present; the existing row is the result of
		// an earlier (possibly concurrent) submission by this same tutor.
		existing, err := s.store.FindByPostAndTutor(ctx, postID, tutorID)
		if err == nil {
			return &SubmitResult{Application: existing, AlreadyExists: true}, nil
		}
		if !errors.Is(err, ErrApplicationNotFound) {
			return nil, fmt.Errorf("failed to read existing application: %w", err)
		}

		// The index rejected the insert but no row matches the key: an
		// orphaned or corrupted index entry. Retry the atomic insert once
		// before giving up.
	}

	logrus.WithFields(logrus.Fields{
		"post_id":  postID,
		"tutor_id": tutorID,
		"time":     time.Now().UTC(),
	}).Error("Application insert rejected by uniqueness index but no matching row exists")

	return nil, ErrApplicationConflict
}

// TransitionStatus moves an application along its lifecycle. Only the
// post-owning student may transition; accepted and rejected are terminal.
func (s *ApplicationService) TransitionStatus(ctx context.Context, applicationID uuid.UUID, next models.ApplicationStatus, actorID uuid.UUID) (*models.Application, error) {
	app, err := s.store.FindByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	post, err := s.posts.GetPost(ctx, app.PostID)
	if err != nil {
		return nil, err
	}
	if post.StudentID != actorID {
		return nil, ErrNotPostOwner
	}

	if !isDecisionStatus(next) || !app.CanTransitionTo(next) {
		return nil, ErrInvalidTransition
	}

	app.Status = next
	if app.IsTerminal() {
		now := time.Now()
		app.DecidedAt = &now
	}

	if err := s.store.Update(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to update application: %w", err)
	}

	if s.events != nil {
		s.events.ApplicationStatusChanged(app)
		if next == models.ApplicationStatusAccepted {
			s.events.ApplicationAccepted(app)
		}
	}

	return app, nil
}

func (s *ApplicationService) GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	return s.store.FindByID(ctx, id)
}

// ListForTutor returns the tutor's own applications, newest first.
func (s *ApplicationService) ListForTutor(ctx context.Context, tutorID uuid.UUID, params utils.PaginationParams) ([]models.Application, int64, error) {
	return s.store.ListByTutor(ctx, tutorID, params)
}

// ListForPost returns a post's applications to its owning student.
func (s *ApplicationService) ListForPost(ctx context.Context, postID, actorID uuid.UUID, params utils.PaginationParams) ([]models.Application, int64, error) {
	post, err := s.posts.GetPost(ctx, postID)
	if err != nil {
		return nil, 0, err
	}
	if post.StudentID != actorID {
		return nil, 0, ErrNotPostOwner
	}
	return s.store.ListByPost(ctx, postID, params)
}

func isDecisionStatus(status models.ApplicationStatus) bool {
	switch status {
	case models.ApplicationStatusShortlisted, models.ApplicationStatusAccepted, models.ApplicationStatusRejected:
		return true
	default:
		return false
	}
}

func normalizeSlots(slots []string) []string {
	out := make([]string, 0, len(slots))
	seen := make(map[string]struct{}, len(slots))
	for _, slot := range slots {
		slot = strings.TrimSpace(slot)
		if slot == "" {
			continue
		}
		if _, ok := seen[slot]; ok {
			continue
		}
		seen[slot] = struct{}{}
		out = append(out, slot)
	}
	return out
}
