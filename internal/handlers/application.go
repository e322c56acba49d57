// internal/handlers/application.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/i18n"
	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/models"
	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/services"
	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/utils"
)

type ApplicationHandler struct {
	applicationService *services.ApplicationService
}

func NewApplicationHandler(applicationService *services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{
		applicationService: applicationService,
	}
}

// POST /tutor/jobs/:postId/apply
func (h *ApplicationHandler) Apply(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	tutorID, ok := currentUserID(c)
	if !ok {
		return
	}

	postID, err := uuid.Parse(c.Param("postId"))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "post ID"), nil)
		return
	}

	var req services.SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	result, err := h.applicationService.SubmitApplication(c.Request.Context(), postID, tutorID, &req)
	if err != nil {
		h.writeSubmitError(c, lang, err)
		return
	}

	if result.AlreadyExists {
		utils.ConflictResponse(c, "ALREADY_APPLIED",
			i18n.T(lang, i18n.KeyApplicationAlreadyExists),
			gin.H{"application_id": result.Application.ID})
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":     i18n.T(lang, i18n.KeyApplicationSubmitted),
		"application": result.Application,
	})
}

// PUT /student/applications/:id/:action where action is shortlist, accept or reject
func (h *ApplicationHandler) Decide(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	studentID, ok := currentUserID(c)
	if !ok {
		return
	}

	applicationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "application ID"), nil)
		return
	}

	var next models.ApplicationStatus
	switch c.Param("action") {
	case "shortlist":
		next = models.ApplicationStatusShortlisted
	case "accept":
		next = models.ApplicationStatusAccepted
	case "reject":
		next = models.ApplicationStatusRejected
	default:
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "action"), nil)
		return
	}

	application, err := h.applicationService.TransitionStatus(c.Request.Context(), applicationID, next, studentID)
	if err != nil {
		h.writeDecisionError(c, lang, err)
		return
	}

	var message string
	switch application.Status {
	case models.ApplicationStatusShortlisted:
		message = i18n.T(lang, i18n.KeyApplicationShortlisted)
	case models.ApplicationStatusAccepted:
		message = i18n.T(lang, i18n.KeyApplicationAccepted)
	case models.ApplicationStatusRejected:
		message = i18n.T(lang, i18n.KeyApplicationRejected)
	}

	utils.SuccessResponse(c, gin.H{
		"message":     message,
		"application": application,
	})
}

// GET /tutor/applications
func (h *ApplicationHandler) ListMine(c *gin.Context) {
	tutorID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	applications, total, err := h.applicationService.ListForTutor(c.Request.Context(), tutorID, params)
	if err != nil {
		logrus.WithError(err).Error("Failed to list tutor applications")
		utils.InternalErrorResponse(c, "")
		return
	}

	result := utils.CreatePaginationResult(applications, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /student/posts/:id/applications
func (h *ApplicationHandler) ListForPost(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	studentID, ok := currentUserID(c)
	if !ok {
		return
	}

	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "post ID"), nil)
		return
	}

	params := utils.GetPaginationParams(c)
	applications, total, err := h.applicationService.ListForPost(c.Request.Context(), postID, studentID, params)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPostNotFound):
			utils.NotFoundResponse(c, i18n.T(lang, i18n.KeyPostNotFound))
		case errors.Is(err, services.ErrNotPostOwner):
			utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyAccessDenied))
		default:
			logrus.WithError(err).Error("Failed to list post applications")
			utils.InternalErrorResponse(c, "")
		}
		return
	}

	result := utils.CreatePaginationResult(applications, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /tutor/applications/:id
func (h *ApplicationHandler) Get(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	applicationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "application ID"), nil)
		return
	}

	application, err := h.applicationService.GetApplication(c.Request.Context(), applicationID)
	if err != nil {
		utils.NotFoundResponse(c, i18n.T(lang, i18n.KeyApplicationNotFound))
		return
	}

	// Visible to the applicant and the post owner only.
	if application.TutorID != userID && application.Post.StudentID != userID {
		utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyAccessDenied))
		return
	}

	utils.SuccessResponse(c, gin.H{
		"application": application,
	})
}

// writeSubmitError maps the submit outcome taxonomy onto HTTP. Validation
// failures carry field details; anything outside the taxonomy is a storage
// fault that must never reach the client verbatim.
func (h *ApplicationHandler) writeSubmitError(c *gin.Context, lang string, err error) {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs):
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(validationErrs))
	case errors.Is(err, services.ErrPostNotFound):
		utils.NotFoundResponse(c, i18n.T(lang, i18n.KeyPostNotFound))
	case errors.Is(err, services.ErrPostNotOpen):
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, "POST_NOT_OPEN",
			i18n.T(lang, i18n.KeyPostNotOpen), nil)
	case errors.Is(err, services.ErrTutorNotEligible):
		utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyApplicationNotEligible))
	case errors.Is(err, services.ErrApplicationConflict):
		utils.ErrorResponse(c, http.StatusInternalServerError, "APPLICATION_CONFLICT_UNRESOLVED",
			i18n.T(lang, i18n.KeyApplicationConflict), nil)
	default:
		logrus.WithError(err).Error("Application submission failed")
		utils.InternalErrorResponse(c, "")
	}
}

func (h *ApplicationHandler) writeDecisionError(c *gin.Context, lang string, err error) {
	switch {
	case errors.Is(err, services.ErrApplicationNotFound):
		utils.NotFoundResponse(c, i18n.T(lang, i18n.KeyApplicationNotFound))
	case errors.Is(err, services.ErrNotPostOwner):
		utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyAccessDenied))
	case errors.Is(err, services.ErrInvalidTransition):
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_TRANSITION",
			i18n.T(lang, i18n.KeyInvalidTransition), nil)
	default:
		logrus.WithError(err).Error("Application status transition failed")
		utils.InternalErrorResponse(c, "")
	}
}
