// internal/handlers/user.go
package handlers

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/i18n"
	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/services"
	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/utils"
)

type UserHandler struct {
	userService  *services.UserService
	adminService *services.AdminService
}

func NewUserHandler(userService *services.UserService, adminService *services.AdminService) *UserHandler {
	return &UserHandler{
		userService:  userService,
		adminService: adminService,
	}
}

// GET /users/:id
func (h *UserHandler) GetPublicProfile(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "user ID"), nil)
		return
	}

	user, err := h.userService.GetPublicProfile(userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.NotFoundResponse(c, i18n.T(lang, i18n.KeyUserNotFound))
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"user": user,
	})
}

// GET /tutors
func (h *UserHandler) SearchTutors(c *gin.Context) {
	params := services.TutorSearchParams{
		PaginationParams: utils.GetPaginationParams(c),
		VerifiedOnly:     c.Query("verified") == "true",
	}

	tutors, total, err := h.userService.SearchTutors(params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(tutors, total, params.PaginationParams)
	utils.PaginatedResponse(c, result)
}

// PUT /users/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.UpdateUserProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	user, err := h.userService.UpdateProfile(userID, &req)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyUserProfileUpdated),
		"user":    user,
	})
}

// POST /users/avatar
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("avatar")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationRequired, "avatar file"), nil)
		return
	}
	defer file.Close()

	fileData, err := io.ReadAll(file)
	if err != nil {
		utils.BadRequestResponse(c, "Failed to read uploaded file", nil)
		return
	}

	user, err := h.userService.UploadAvatar(userID, fileData, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyUserProfileUpdated),
		"user":    user,
	})
}

// POST /tutor/verification
func (h *UserHandler) SubmitVerification(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationRequired, "documents"), nil)
		return
	}

	var uploads []services.VerificationUpload
	for _, header := range form.File["documents"] {
		file, err := header.Open()
		if err != nil {
			utils.BadRequestResponse(c, "Failed to read uploaded file", nil)
			return
		}
		fileData, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			utils.BadRequestResponse(c, "Failed to read uploaded file", nil)
			return
		}
		uploads = append(uploads, services.VerificationUpload{
			Data:        fileData,
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
		})
	}

	request, err := h.userService.SubmitVerificationDocuments(userID, uploads)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"verification_request": request,
	})
}

// POST /reports
func (h *UserHandler) ReportContent(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		ContentType string    `json:"content_type" validate:"required"`
		ContentID   uuid.UUID `json:"content_id" validate:"required"`
		Reason      string    `json:"reason" validate:"required,max=100"`
		Description string    `json:"description" validate:"omitempty,max=2000"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	report, err := h.adminService.CreateContentReport(userID, req.ContentType, req.ContentID, req.Reason, req.Description)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyReportSubmitted),
		"report":  report,
	})
}

// DELETE /users/account
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		Password string `json:"password" validate:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationRequired, "password"), nil)
		return
	}

	if err := h.userService.DeleteAccount(userID, req.Password); err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeySuccess),
	})
}
