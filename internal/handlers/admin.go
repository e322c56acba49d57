// internal/handlers/admin.go
package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/i18n"
	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/models"
	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/services"
	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/utils"
)

type AdminHandler struct {
	adminService *services.AdminService
}

func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

// GET /admin/dashboard
func (h *AdminHandler) GetDashboard(c *gin.Context) {
	stats, err := h.adminService.GetDashboardStats()
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"stats": stats,
	})
}

// GET /admin/users
func (h *AdminHandler) GetUsers(c *gin.Context) {
	filter := services.AdminUserFilter{
		PaginationParams: utils.GetPaginationParams(c),
	}

	if userType := c.Query("user_type"); userType != "" {
		t := models.UserType(userType)
		filter.UserType = &t
	}
	if status := c.Query("status"); status != "" {
		s := models.UserStatus(status)
		filter.Status = &s
	}
	if level := c.Query("verification_level"); level != "" {
		l := models.VerificationLevel(level)
		filter.VerificationLevel = &l
	}
	if after := c.Query("created_after"); after != "" {
		if t, err := time.Parse(time.RFC3339, after); err == nil {
			filter.CreatedAfter = &t
		}
	}
	if before := c.Query("created_before"); before != "" {
		if t, err := time.Parse(time.RFC3339, before); err == nil {
			filter.CreatedBefore = &t
		}
	}

	users, total, err := h.adminService.GetUsers(filter)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(users, total, filter.PaginationParams)
	utils.PaginatedResponse(c, result)
}

// PUT /admin/users/:id/status
func (h *AdminHandler) UpdateUserStatus(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	adminID, ok := currentUserID(c)
	if !ok {
		return
	}

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "user ID"), nil)
		return
	}

	var req struct {
		Status models.UserStatus `json:"status" validate:"required,oneof=active suspended banned"`
		Reason string            `json:"reason" validate:"omitempty,max=500"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	if err := h.adminService.UpdateUserStatus(userID, req.Status, adminID, req.Reason); err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeySuccess),
	})
}

// GET /admin/verifications
func (h *AdminHandler) GetVerificationRequests(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	var status *models.VerificationStatus
	if statusStr := c.Query("status"); statusStr != "" {
		s := models.VerificationStatus(statusStr)
		status = &s
	}

	requests, total, err := h.adminService.GetVerificationRequests(params, status)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(requests, total, params)
	utils.PaginatedResponse(c, result)
}

// PUT /admin/verifications/:id/approve
func (h *AdminHandler) ApproveVerification(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	adminID, ok := currentUserID(c)
	if !ok {
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "request ID"), nil)
		return
	}

	var req struct {
		Notes string `json:"notes,omitempty"`
	}
	c.ShouldBindJSON(&req)

	if err := h.adminService.ApproveVerification(requestID, adminID, req.Notes); err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyUserVerified),
	})
}

// PUT /admin/verifications/:id/reject
func (h *AdminHandler) RejectVerification(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	adminID, ok := currentUserID(c)
	if !ok {
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "request ID"), nil)
		return
	}

	var req struct {
		Reason string `json:"reason" validate:"required,max=500"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationRequired, "reason"), nil)
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	if err := h.adminService.RejectVerification(requestID, adminID, req.Reason); err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeySuccess),
	})
}

// GET /admin/posts
func (h *AdminHandler) GetPosts(c *gin.Context) {
	filter := services.AdminPostFilter{
		PaginationParams: utils.GetPaginationParams(c),
	}

	if status := c.Query("status"); status != "" {
		s := models.PostStatus(status)
		filter.Status = &s
	}
	if studentIDStr := c.Query("student_id"); studentIDStr != "" {
		if id, err := uuid.Parse(studentIDStr); err == nil {
			filter.StudentID = &id
		}
	}

	posts, total, err := h.adminService.GetPosts(filter)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(posts, total, filter.PaginationParams)
	utils.PaginatedResponse(c, result)
}

// DELETE /admin/posts/:id
func (h *AdminHandler) RemovePost(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	adminID, ok := currentUserID(c)
	if !ok {
		return
	}

	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "post ID"), nil)
		return
	}

	var req struct {
		Reason string `json:"reason" validate:"required,max=500"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationRequired, "reason"), nil)
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	if err := h.adminService.RemovePost(postID, adminID, req.Reason); err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPostDeleted),
	})
}

// GET /admin/applications
func (h *AdminHandler) GetApplications(c *gin.Context) {
	filter := services.AdminApplicationFilter{
		PaginationParams: utils.GetPaginationParams(c),
	}

	if status := c.Query("status"); status != "" {
		s := models.ApplicationStatus(status)
		filter.Status = &s
	}
	if tutorIDStr := c.Query("tutor_id"); tutorIDStr != "" {
		if id, err := uuid.Parse(tutorIDStr); err == nil {
			filter.TutorID = &id
		}
	}
	if postIDStr := c.Query("post_id"); postIDStr != "" {
		if id, err := uuid.Parse(postIDStr); err == nil {
			filter.PostID = &id
		}
	}

	applications, total, err := h.adminService.GetApplications(filter)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(applications, total, filter.PaginationParams)
	utils.PaginatedResponse(c, result)
}

// GET /admin/reports
func (h *AdminHandler) GetContentReports(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	reports, total, err := h.adminService.GetContentReports(params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(reports, total, params)
	utils.PaginatedResponse(c, result)
}

// PUT /admin/reports/:id/resolve
func (h *AdminHandler) ResolveContentReport(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	adminID, ok := currentUserID(c)
	if !ok {
		return
	}

	reportID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "report ID"), nil)
		return
	}

	var req struct {
		Action string `json:"action" validate:"required,max=100"`
		Notes  string `json:"notes" validate:"omitempty,max=2000"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	if err := h.adminService.ResolveContentReport(reportID, adminID, req.Action, req.Notes); err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyReportResolved),
	})
}

// GET /admin/audit-logs
func (h *AdminHandler) GetAuditLogs(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	logs, total, err := h.adminService.GetAuditLogs(params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(logs, total, params)
	utils.PaginatedResponse(c, result)
}
