// internal/services/admin_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/models"
	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/utils"
)

type AdminService struct {
	db                  *gorm.DB
	notificationService *NotificationService
}

type AdminDashboardStats struct {
	TotalUsers           int64   `json:"total_users"`
	ActiveUsers          int64   `json:"active_users"`
	NewUsersThisMonth    int64   `json:"new_users_this_month"`
	TotalTutors          int64   `json:"total_tutors"`
	VerifiedTutors       int64   `json:"verified_tutors"`
	PendingVerifications int64   `json:"pending_verifications"`
	TotalPosts           int64   `json:"total_posts"`
	OpenPosts            int64   `json:"open_posts"`
	FulfilledPosts       int64   `json:"fulfilled_posts"`
	TotalApplications    int64   `json:"total_applications"`
	AcceptedApplications int64   `json:"accepted_applications"`
	TotalRevenue         float64 `json:"total_revenue"`
	MonthlyRevenue       float64 `json:"monthly_revenue"`
	UserGrowth           float64 `json:"user_growth"`
}

type AdminUserFilter struct {
	utils.PaginationParams
	UserType          *models.UserType          `json:"user_type,omitempty"`
	Status            *models.UserStatus        `json:"status,omitempty"`
	VerificationLevel *models.VerificationLevel `json:"verification_level,omitempty"`
	CreatedAfter      *time.Time                `json:"created_after,omitempty"`
	CreatedBefore     *time.Time                `json:"created_before,omitempty"`
}

type AdminPostFilter struct {
	utils.PaginationParams
	StudentID     *uuid.UUID         `json:"student_id,omitempty"`
	Status        *models.PostStatus `json:"status,omitempty"`
	CreatedAfter  *time.Time         `json:"created_after,omitempty"`
	CreatedBefore *time.Time         `json:"created_before,omitempty"`
}

type AdminApplicationFilter struct {
	utils.PaginationParams
	TutorID       *uuid.UUID                `json:"tutor_id,omitempty"`
	PostID        *uuid.UUID                `json:"post_id,omitempty"`
	Status        *models.ApplicationStatus `json:"status,omitempty"`
	CreatedAfter  *time.Time                `json:"created_after,omitempty"`
	CreatedBefore *time.Time                `json:"created_before,omitempty"`
}

func NewAdminService(db *gorm.DB, notificationService *NotificationService) *AdminService {
	return &AdminService{
		db:                  db,
		notificationService: notificationService,
	}
}

// Dashboard Statistics
func (s *AdminService) GetDashboardStats() (*AdminDashboardStats, error) {
	stats := &AdminDashboardStats{}
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastMonthStart := monthStart.AddDate(0, -1, 0)

	s.db.Model(&models.User{}).Count(&stats.TotalUsers)
	s.db.Model(&models.User{}).Where("status = ?", models.UserStatusActive).Count(&stats.ActiveUsers)
	s.db.Model(&models.User{}).Where("created_at >= ?", monthStart).Count(&stats.NewUsersThisMonth)

	s.db.Model(&models.User{}).Where("user_type = ?", models.UserTypeTutor).Count(&stats.TotalTutors)
	s.db.Model(&models.User{}).
		Where("user_type = ? AND verification_level = ?", models.UserTypeTutor, models.VerificationLevelVerified).
		Count(&stats.VerifiedTutors)
	s.db.Model(&models.VerificationRequest{}).
		Where("status = ?", models.VerificationStatusPending).
		Count(&stats.PendingVerifications)

	s.db.Model(&models.TuitionPost{}).Count(&stats.TotalPosts)
	s.db.Model(&models.TuitionPost{}).Where("status = ?", models.PostStatusOpen).Count(&stats.OpenPosts)
	s.db.Model(&models.TuitionPost{}).Where("status = ?", models.PostStatusFulfilled).Count(&stats.FulfilledPosts)

	s.db.Model(&models.Application{}).Count(&stats.TotalApplications)
	s.db.Model(&models.Application{}).
		Where("status = ?", models.ApplicationStatusAccepted).
		Count(&stats.AcceptedApplications)

	s.db.Model(&models.Transaction{}).
		Where("status = ?", models.TransactionStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").Scan(&stats.TotalRevenue)

	s.db.Model(&models.Transaction{}).
		Where("status = ? AND created_at >= ?", models.TransactionStatusCompleted, monthStart).
		Select("COALESCE(SUM(amount), 0)").Scan(&stats.MonthlyRevenue)

	var lastMonthUsers int64
	s.db.Model(&models.User{}).
		Where("created_at >= ? AND created_at < ?", lastMonthStart, monthStart).
		Count(&lastMonthUsers)

	if lastMonthUsers > 0 {
		stats.UserGrowth = float64(stats.NewUsersThisMonth-lastMonthUsers) / float64(lastMonthUsers) * 100
	}

	return stats, nil
}

// User Management
func (s *AdminService) GetUsers(filter AdminUserFilter) ([]models.User, int64, error) {
	query := s.db.Model(&models.User{})

	if filter.UserType != nil {
		query = query.Where("user_type = ?", *filter.UserType)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.VerificationLevel != nil {
		query = query.Where("verification_level = ?", *filter.VerificationLevel)
	}
	if filter.Search != "" {
		searchTerm := "%" + filter.Search + "%"
		query = query.Where("username ILIKE ? OR email ILIKE ?", searchTerm, searchTerm)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "username", "email", "user_type", "status"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch users: %w", err)
	}

	return users, total, nil
}

func (s *AdminService) UpdateUserStatus(userID uuid.UUID, status models.UserStatus, adminID uuid.UUID, reason string) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}

	// Admin accounts are off limits to other admins.
	if user.UserType == models.UserTypeAdmin && user.ID != adminID {
		return errors.New("cannot modify admin user status")
	}

	oldStatus := user.Status
	user.Status = status

	if err := s.db.Save(&user).Error; err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}

	go s.createAuditLog(adminID, "UPDATE_USER_STATUS", "user", &userID,
		map[string]interface{}{"status": oldStatus},
		map[string]interface{}{"status": status, "reason": reason})

	go s.notificationService.CreateNotification(user.ID, "account_status",
		"Account status updated",
		fmt.Sprintf("Your account status changed to %s. %s", status, reason),
		"user", user.ID)

	return nil
}

// Tutor Verification
func (s *AdminService) GetVerificationRequests(params utils.PaginationParams, status *models.VerificationStatus) ([]models.VerificationRequest, int64, error) {
	query := s.db.Model(&models.VerificationRequest{}).Preload("Tutor").Preload("Reviewer")

	if status != nil {
		query = query.Where("status = ?", *status)
	} else {
		query = query.Where("status = ?", models.VerificationStatusPending)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count verification requests: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "status", "reviewed_at"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var requests []models.VerificationRequest
	if err := query.Find(&requests).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch verification requests: %w", err)
	}

	return requests, total, nil
}

// ApproveVerification marks the request approved and upgrades the tutor's
// verification level, which is what gates their ability to apply to posts.
func (s *AdminService) ApproveVerification(requestID, adminID uuid.UUID, notes string) error {
	var request models.VerificationRequest
	if err := s.db.Preload("Tutor").First(&request, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("verification request not found")
		}
		return fmt.Errorf("database error: %w", err)
	}

	if request.Status != models.VerificationStatusPending {
		return errors.New("verification request is not pending review")
	}

	now := time.Now()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		request.Status = models.VerificationStatusApproved
		request.Notes = notes
		request.ReviewedBy = &adminID
		request.ReviewedAt = &now
		if err := tx.Save(&request).Error; err != nil {
			return err
		}

		return tx.Model(&models.User{}).
			Where("id = ?", request.TutorID).
			Update("verification_level", models.VerificationLevelVerified).Error
	})
	if err != nil {
		return fmt.Errorf("failed to approve verification: %w", err)
	}

	go s.createAuditLog(adminID, "APPROVE_VERIFICATION", "verification_request", &requestID, nil,
		map[string]interface{}{"status": models.VerificationStatusApproved, "notes": notes})

	go s.notificationService.CreateNotification(request.TutorID, "verification",
		"Verification approved",
		"Your tutor account has been verified. You can now apply to tuition posts.",
		"verification_request", request.ID)

	return nil
}

func (s *AdminService) RejectVerification(requestID, adminID uuid.UUID, reason string) error {
	var request models.VerificationRequest
	if err := s.db.Preload("Tutor").First(&request, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("verification request not found")
		}
		return fmt.Errorf("database error: %w", err)
	}

	if request.Status != models.VerificationStatusPending {
		return errors.New("verification request is not pending review")
	}

	now := time.Now()
	request.Status = models.VerificationStatusRejected
	request.RejectNotes = reason
	request.ReviewedBy = &adminID
	request.ReviewedAt = &now

	if err := s.db.Save(&request).Error; err != nil {
		return fmt.Errorf("failed to reject verification: %w", err)
	}

	go s.createAuditLog(adminID, "REJECT_VERIFICATION", "verification_request", &requestID, nil,
		map[string]interface{}{"status": models.VerificationStatusRejected, "reason": reason})

	go s.notificationService.CreateNotification(request.TutorID, "verification",
		"Verification rejected",
		fmt.Sprintf("Your verification request was rejected: %s", reason),
		"verification_request", request.ID)

	return nil
}

// Post Moderation
func (s *AdminService) GetPosts(filter AdminPostFilter) ([]models.TuitionPost, int64, error) {
	query := s.db.Model(&models.TuitionPost{}).Preload("Student")

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Search != "" {
		searchTerm := "%" + filter.Search + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ?", searchTerm, searchTerm)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "status", "view_count"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var posts []models.TuitionPost
	if err := query.Find(&posts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch posts: %w", err)
	}

	return posts, total, nil
}

// RemovePost closes and soft-deletes a post that violates platform rules.
func (s *AdminService) RemovePost(postID, adminID uuid.UUID, reason string) error {
	var post models.TuitionPost
	if err := s.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&post).Update("status", models.PostStatusClosed).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		return fmt.Errorf("failed to remove post: %w", err)
	}

	go s.createAuditLog(adminID, "REMOVE_POST", "tuition_post", &postID, nil,
		map[string]interface{}{"reason": reason})

	go s.notificationService.CreateNotification(post.StudentID, "moderation",
		"Post removed",
		fmt.Sprintf("Your post %q was removed: %s", post.Title, reason),
		"tuition_post", post.ID)

	return nil
}

// Application Oversight
func (s *AdminService) GetApplications(filter AdminApplicationFilter) ([]models.Application, int64, error) {
	query := s.db.Model(&models.Application{}).Preload("Tutor").Preload("Post")

	if filter.TutorID != nil {
		query = query.Where("tutor_id = ?", *filter.TutorID)
	}
	if filter.PostID != nil {
		query = query.Where("post_id = ?", *filter.PostID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count applications: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "status", "decided_at"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var applications []models.Application
	if err := query.Find(&applications).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch applications: %w", err)
	}

	return applications, total, nil
}

// Content Moderation
func (s *AdminService) GetContentReports(params utils.PaginationParams) ([]models.ContentReport, int64, error) {
	query := s.db.Model(&models.ContentReport{}).Preload("Reporter").Preload("Resolver")

	if params.Search != "" {
		query = query.Where("reason ILIKE ? OR description ILIKE ?", "%"+params.Search+"%", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count content reports: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "status", "resolved_at"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var reports []models.ContentReport
	if err := query.Find(&reports).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch content reports: %w", err)
	}

	return reports, total, nil
}

func (s *AdminService) ResolveContentReport(reportID uuid.UUID, adminID uuid.UUID, action, notes string) error {
	var report models.ContentReport
	if err := s.db.First(&report, reportID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("content report not found")
		}
		return fmt.Errorf("database error: %w", err)
	}

	if report.Status != models.ReportStatusPending {
		return errors.New("report is already resolved")
	}

	now := time.Now()
	report.Status = models.ReportStatusResolved
	report.AdminNotes = notes
	report.ResolvedBy = &adminID
	report.ResolvedAt = &now

	if err := s.db.Save(&report).Error; err != nil {
		return fmt.Errorf("failed to resolve report: %w", err)
	}

	go s.createAuditLog(adminID, "RESOLVE_CONTENT_REPORT", "content_report", &reportID, nil,
		map[string]interface{}{"action": action, "notes": notes})

	return nil
}

// CreateContentReport is the user-facing entry point for flagging content.
func (s *AdminService) CreateContentReport(reporterID uuid.UUID, contentType string, contentID uuid.UUID, reason, description string) (*models.ContentReport, error) {
	if contentType != "tuition_post" && contentType != "user" && contentType != "chat_message" {
		return nil, errors.New("invalid content type")
	}

	report := &models.ContentReport{
		ReporterID:          reporterID,
		ReportedContentType: contentType,
		ReportedContentID:   contentID,
		Reason:              reason,
		Description:         description,
		Status:              models.ReportStatusPending,
	}

	if err := s.db.Create(report).Error; err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	return report, nil
}

// Audit
func (s *AdminService) GetAuditLogs(params utils.PaginationParams) ([]models.AuditLog, int64, error) {
	query := s.db.Model(&models.AuditLog{}).Preload("User")

	if params.Search != "" {
		query = query.Where("action ILIKE ? OR resource_type ILIKE ?", "%"+params.Search+"%", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	allowedSortFields := []string{"created_at", "action", "resource_type"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var logs []models.AuditLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch audit logs: %w", err)
	}

	return logs, total, nil
}

func (s *AdminService) createAuditLog(userID uuid.UUID, action, resourceType string, resourceID *uuid.UUID, oldValues, newValues map[string]interface{}) {
	auditLog := &models.AuditLog{
		UserID:       &userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		OldValues:    models.JSONB(oldValues),
		NewValues:    models.JSONB(newValues),
	}

	s.db.Create(auditLog)
}
