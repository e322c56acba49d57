// internal/services/application_store.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/models"
	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/utils"
)

// gormApplicationStore persists applications in PostgreSQL. The atomic
// insert-if-absent rides on the ux_applications_post_tutor unique index
// via INSERT ... ON CONFLICT DO NOTHING.
type gormApplicationStore struct {
	db *gorm.DB
}

func NewApplicationStore(db *gorm.DB) ApplicationStore {
	return &gormApplicationStore{db: db}
}

func (s *gormApplicationStore) InsertIfAbsent(ctx context.Context, app *models.Application) (bool, error) {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}, {Name: "tutor_id"}},
		DoNothing: true,
	}).Create(app)
	if res.Error != nil {
		// Some drivers surface the conflict instead of swallowing it.
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, fmt.Errorf("insert application: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *gormApplicationStore) FindByPostAndTutor(ctx context.Context, postID, tutorID uuid.UUID) (*models.Application, error) {
	var app models.Application
	err := s.db.WithContext(ctx).
		Where("post_id = ? AND tutor_id = ?", postID, tutorID).
		First(&app).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("find application by key: %w", err)
	}
	return &app, nil
}

func (s *gormApplicationStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	var app models.Application
	err := s.db.WithContext(ctx).Preload("Post").First(&app, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("find application: %w", err)
	}
	return &app, nil
}

func (s *gormApplicationStore) Update(ctx context.Context, app *models.Application) error {
	if err := s.db.WithContext(ctx).Save(app).Error; err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	return nil
}

func (s *gormApplicationStore) ListByTutor(ctx context.Context, tutorID uuid.UUID, params utils.PaginationParams) ([]models.Application, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Application{}).
		Where("tutor_id = ?", tutorID).
		Preload("Post").Preload("Post.Student")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count tutor applications: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "updated_at", "status", "proposed_rate"})
	query = utils.ApplyPagination(query, params)

	var applications []models.Application
	if err := query.Find(&applications).Error; err != nil {
		return nil, 0, fmt.Errorf("list tutor applications: %w", err)
	}
	return applications, total, nil
}

func (s *gormApplicationStore) ListByPost(ctx context.Context, postID uuid.UUID, params utils.PaginationParams) ([]models.Application, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Application{}).
		Where("post_id = ?", postID).
		Preload("Tutor")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count post applications: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "updated_at", "status", "proposed_rate"})
	query = utils.ApplyPagination(query, params)

	var applications []models.Application
	if err := query.Find(&applications).Error; err != nil {
		return nil, 0, fmt.Errorf("list post applications: %w", err)
	}
	return applications, total, nil
}

// gormPostDirectory and gormTutorDirectory give the registry read access to
// its collaborators without coupling it to their services.
type gormPostDirectory struct {
	db *gorm.DB
}

func NewPostDirectory(db *gorm.DB) PostDirectory {
	return &gormPostDirectory{db: db}
}

func (d *gormPostDirectory) GetPost(ctx context.Context, id uuid.UUID) (*models.TuitionPost, error) {
	var post models.TuitionPost
	err := d.db.WithContext(ctx).First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("find post: %w", err)
	}
	return &post, nil
}

type gormTutorDirectory struct {
	db *gorm.DB
}

func NewTutorDirectory(db *gorm.DB) TutorDirectory {
	return &gormTutorDirectory{db: db}
}

func (d *gormTutorDirectory) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := d.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}
