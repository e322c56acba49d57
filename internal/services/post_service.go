// internal/services/post_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/models"
	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/utils"
)

var ErrPostNotEditable = errors.New("only open posts can be edited")

type PostService struct {
	db *gorm.DB
}

type CreatePostRequest struct {
	Title         string   `json:"title" validate:"required,max=255"`
	Description   string   `json:"description" validate:"omitempty,max=5000"`
	Subjects      []string `json:"subjects" validate:"required,min=1,max=10,dive,max=100"`
	GradeLevel    string   `json:"grade_level" validate:"required,max=50"`
	Mode          string   `json:"mode" validate:"required,oneof=online home hybrid"`
	Area          string   `json:"area" validate:"omitempty,max=100"`
	BudgetMin     float64  `json:"budget_min" validate:"omitempty,gte=0"`
	BudgetMax     float64  `json:"budget_max" validate:"omitempty,gtefield=BudgetMin"`
	ScheduleNotes string   `json:"schedule_notes" validate:"omitempty,max=2000"`
}

type UpdatePostRequest struct {
	Title         *string  `json:"title,omitempty" validate:"omitempty,max=255"`
	Description   *string  `json:"description,omitempty" validate:"omitempty,max=5000"`
	Subjects      []string `json:"subjects,omitempty" validate:"omitempty,min=1,max=10,dive,max=100"`
	GradeLevel    *string  `json:"grade_level,omitempty" validate:"omitempty,max=50"`
	Mode          *string  `json:"mode,omitempty" validate:"omitempty,oneof=online home hybrid"`
	Area          *string  `json:"area,omitempty" validate:"omitempty,max=100"`
	BudgetMin     *float64 `json:"budget_min,omitempty" validate:"omitempty,gte=0"`
	BudgetMax     *float64 `json:"budget_max,omitempty" validate:"omitempty,gte=0"`
	ScheduleNotes *string  `json:"schedule_notes,omitempty" validate:"omitempty,max=2000"`
}

type PostSearchParams struct {
	utils.PaginationParams
	Mode       *models.TuitionMode
	GradeLevel string
	BudgetMax  *float64
}

func NewPostService(db *gorm.DB) *PostService {
	return &PostService{db: db}
}

func (s *PostService) CreatePost(studentID uuid.UUID, req *CreatePostRequest) (*models.TuitionPost, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var student models.User
	if err := s.db.First(&student, studentID).Error; err != nil {
		return nil, ErrUserNotFound
	}
	if student.UserType != models.UserTypeStudent || student.Status != models.UserStatusActive {
		return nil, errors.New("only active student accounts can create tuition posts")
	}

	post := &models.TuitionPost{
		StudentID:     studentID,
		Title:         req.Title,
		Description:   req.Description,
		Subjects:      pq.StringArray(req.Subjects),
		GradeLevel:    req.GradeLevel,
		Mode:          models.TuitionMode(req.Mode),
		Area:          req.Area,
		BudgetMin:     req.BudgetMin,
		BudgetMax:     req.BudgetMax,
		ScheduleNotes: req.ScheduleNotes,
		Status:        models.PostStatusOpen,
	}

	if err := s.db.Create(post).Error; err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	return post, nil
}

func (s *PostService) GetPostByID(id uuid.UUID) (*models.TuitionPost, error) {
	var post models.TuitionPost
	err := s.db.Preload("Student").First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	s.db.Model(&models.TuitionPost{}).Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1"))

	return &post, nil
}

func (s *PostService) UpdatePost(postID, studentID uuid.UUID, req *UpdatePostRequest) (*models.TuitionPost, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	post, err := s.ownedPost(postID, studentID)
	if err != nil {
		return nil, err
	}
	if !post.IsOpen() {
		return nil, ErrPostNotEditable
	}

	if req.Title != nil {
		post.Title = *req.Title
	}
	if req.Description != nil {
		post.Description = *req.Description
	}
	if len(req.Subjects) > 0 {
		post.Subjects = pq.StringArray(req.Subjects)
	}
	if req.GradeLevel != nil {
		post.GradeLevel = *req.GradeLevel
	}
	if req.Mode != nil {
		post.Mode = models.TuitionMode(*req.Mode)
	}
	if req.Area != nil {
		post.Area = *req.Area
	}
	if req.BudgetMin != nil {
		post.BudgetMin = *req.BudgetMin
	}
	if req.BudgetMax != nil {
		post.BudgetMax = *req.BudgetMax
	}
	if req.ScheduleNotes != nil {
		post.ScheduleNotes = *req.ScheduleNotes
	}

	if err := s.db.Save(post).Error; err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}
	return post, nil
}

// ClosePost stops a post from accepting applications without a match.
func (s *PostService) ClosePost(postID, studentID uuid.UUID) (*models.TuitionPost, error) {
	post, err := s.ownedPost(postID, studentID)
	if err != nil {
		return nil, err
	}
	if !post.IsOpen() {
		return nil, errors.New("post is already closed")
	}

	post.Status = models.PostStatusClosed
	if err := s.db.Save(post).Error; err != nil {
		return nil, fmt.Errorf("failed to close post: %w", err)
	}
	return post, nil
}

func (s *PostService) DeletePost(postID, studentID uuid.UUID) error {
	post, err := s.ownedPost(postID, studentID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(post).Error; err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return nil
}

// SearchPosts is the public browse surface: open posts only, featured
// posts first, with subject/area/mode/budget filters.
func (s *PostService) SearchPosts(params PostSearchParams) ([]models.TuitionPost, int64, error) {
	query := s.db.Model(&models.TuitionPost{}).
		Where("status = ?", models.PostStatusOpen).
		Preload("Student")

	if params.Search != "" {
		query = query.Where(
			"to_tsvector('english', title || ' ' || description) @@ plainto_tsquery('english', ?)",
			params.Search,
		)
	}
	if params.Subject != "" {
		query = query.Where("? = ANY(subjects)", params.Subject)
	}
	if params.Area != "" {
		query = query.Where("area = ?", params.Area)
	}
	if params.Mode != nil {
		query = query.Where("mode = ?", *params.Mode)
	}
	if params.GradeLevel != "" {
		query = query.Where("grade_level = ?", params.GradeLevel)
	}
	if params.BudgetMax != nil {
		query = query.Where("budget_min <= ?", *params.BudgetMax)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	query = query.Order("featured DESC")
	query = utils.ApplySort(query, params.PaginationParams, []string{"created_at", "budget_max", "view_count"})
	query = utils.ApplyPagination(query, params.PaginationParams)

	var posts []models.TuitionPost
	if err := query.Find(&posts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch posts: %w", err)
	}
	return posts, total, nil
}

func (s *PostService) ListForStudent(studentID uuid.UUID, params utils.PaginationParams) ([]models.TuitionPost, int64, error) {
	query := s.db.Model(&models.TuitionPost{}).Where("student_id = ?", studentID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "status"})
	query = utils.ApplyPagination(query, params)

	var posts []models.TuitionPost
	if err := query.Find(&posts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch posts: %w", err)
	}
	return posts, total, nil
}

// FeaturePost promotes a post after a completed promotion payment.
func (s *PostService) FeaturePost(postID uuid.UUID, days int) error {
	until := time.Now().AddDate(0, 0, days)
	res := s.db.Model(&models.TuitionPost{}).
		Where("id = ?", postID).
		Updates(map[string]interface{}{
			"featured":       true,
			"featured_until": &until,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to feature post: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (s *PostService) ownedPost(postID, studentID uuid.UUID) (*models.TuitionPost, error) {
	var post models.TuitionPost
	err := s.db.First(&post, postID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if post.StudentID != studentID {
		return nil, ErrNotPostOwner
	}
	return &post, nil
}
