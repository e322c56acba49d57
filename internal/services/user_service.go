// internal/services/user_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/models"
	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/utils"
)

var ErrUserNotFound = errors.New("user not found")

type UserService struct {
	db             *gorm.DB
	storageService *StorageService
}

type UpdateUserProfileRequest struct {
	Username    string                 `json:"username,omitempty" validate:"omitempty,username"`
	ProfileData map[string]interface{} `json:"profile_data,omitempty"`
}

type TutorSearchParams struct {
	utils.PaginationParams
	VerifiedOnly bool
}

func NewUserService(db *gorm.DB, storageService *StorageService) *UserService {
	return &UserService{
		db:             db,
		storageService: storageService,
	}
}

func (s *UserService) GetUserByID(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

func (s *UserService) GetPublicProfile(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.Select("id, username, user_type, verification_level, profile_data, avatar_url, created_at").
		First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

// SearchTutors lists active tutor profiles for students browsing the
// other direction of the marketplace.
func (s *UserService) SearchTutors(params TutorSearchParams) ([]models.User, int64, error) {
	query := s.db.Model(&models.User{}).
		Select("id, username, user_type, verification_level, profile_data, avatar_url, created_at").
		Where("user_type = ? AND status = ?", models.UserTypeTutor, models.UserStatusActive)

	if params.VerifiedOnly {
		query = query.Where("verification_level = ?", models.VerificationLevelVerified)
	}
	if params.Search != "" {
		query = query.Where("username ILIKE ?", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count tutors: %w", err)
	}

	query = utils.ApplySort(query, params.PaginationParams, []string{"created_at", "username"})
	query = utils.ApplyPagination(query, params.PaginationParams)

	var tutors []models.User
	if err := query.Find(&tutors).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch tutors: %w", err)
	}
	return tutors, total, nil
}

func (s *UserService) UpdateProfile(userID uuid.UUID, req *UpdateUserProfileRequest) (*models.User, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, ErrUserNotFound
	}

	if req.Username != "" && req.Username != user.Username {
		var existingUser models.User
		if err := s.db.Where("username = ? AND id != ?", req.Username, userID).First(&existingUser).Error; err == nil {
			return nil, errors.New("username already taken")
		}
	}

	if req.Username != "" {
		user.Username = req.Username
	}

	if req.ProfileData != nil {
		if user.ProfileData == nil {
			user.ProfileData = make(models.JSONB)
		}
		for key, value := range req.ProfileData {
			user.ProfileData[key] = value
		}
	}

	if err := s.db.Save(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return &user, nil
}

// UploadAvatar stores the image and records its public URL on the profile.
func (s *UserService) UploadAvatar(userID uuid.UUID, fileData []byte, filename, contentType string) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, ErrUserNotFound
	}

	result, err := s.storageService.UploadFile(fileData, filename, contentType, &UploadOptions{
		Folder:       fmt.Sprintf("avatars/%s", userID),
		MaxSize:      5 * 1024 * 1024,
		AllowedTypes: []string{"image/jpeg", "image/png", "image/webp"},
		PublicRead:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	user.AvatarURL = result.URL
	if err := s.db.Save(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return &user, nil
}

// SubmitVerificationDocuments uploads tutor identity documents and opens
// a verification request for admin review.
func (s *UserService) SubmitVerificationDocuments(userID uuid.UUID, files []VerificationUpload) (*models.VerificationRequest, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, ErrUserNotFound
	}
	if user.UserType != models.UserTypeTutor {
		return nil, errors.New("only tutor accounts can request verification")
	}
	if user.VerificationLevel == models.VerificationLevelVerified {
		return nil, errors.New("account is already verified")
	}

	var pending int64
	s.db.Model(&models.VerificationRequest{}).
		Where("tutor_id = ? AND status = ?", userID, models.VerificationStatusPending).
		Count(&pending)
	if pending > 0 {
		return nil, errors.New("a verification request is already pending review")
	}

	if len(files) == 0 {
		return nil, errors.New("at least one document is required")
	}

	urls := make([]string, 0, len(files))
	for _, f := range files {
		result, err := s.storageService.UploadFile(f.Data, f.Filename, f.ContentType, &UploadOptions{
			Folder:       fmt.Sprintf("verification/%s", userID),
			MaxSize:      10 * 1024 * 1024,
			AllowedTypes: []string{"image/jpeg", "image/png", "application/pdf"},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to upload document: %w", err)
		}
		urls = append(urls, result.URL)
	}

	request := &models.VerificationRequest{
		TutorID:      userID,
		DocumentURLs: pq.StringArray(urls),
		Status:       models.VerificationStatusPending,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(request).Error; err != nil {
			return err
		}
		return tx.Model(&user).Update("document_urls", pq.StringArray(urls)).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create verification request: %w", err)
	}
	return request, nil
}

type VerificationUpload struct {
	Data        []byte
	Filename    string
	ContentType string
}

func (s *UserService) DeleteAccount(userID uuid.UUID, password string) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return ErrUserNotFound
	}

	if err := user.CheckPassword(password); err != nil {
		return errors.New("invalid password")
	}

	// A student with open posts or a tutor with undecided applications
	// keeps their account until those are resolved.
	var openPosts, liveApplications int64
	s.db.Model(&models.TuitionPost{}).
		Where("student_id = ? AND status = ?", userID, models.PostStatusOpen).
		Count(&openPosts)

	s.db.Model(&models.Application{}).
		Where("tutor_id = ? AND status IN ?", userID,
			[]models.ApplicationStatus{models.ApplicationStatusSubmitted, models.ApplicationStatusShortlisted}).
		Count(&liveApplications)

	if openPosts > 0 || liveApplications > 0 {
		return errors.New("cannot delete account with open posts or pending applications")
	}

	if err := s.db.Delete(&user).Error; err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	return nil
}
