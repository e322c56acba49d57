// internal/handlers/post.go
package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/i18n"
	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/models"
	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/services"
	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/utils"
)

type PostHandler struct {
	postService *services.PostService
}

func NewPostHandler(postService *services.PostService) *PostHandler {
	return &PostHandler{
		postService: postService,
	}
}

// GET /jobs
func (h *PostHandler) Browse(c *gin.Context) {
	params := services.PostSearchParams{
		PaginationParams: utils.GetPaginationParams(c),
		GradeLevel:       c.Query("grade_level"),
	}

	if modeStr := c.Query("mode"); modeStr != "" {
		mode := models.TuitionMode(modeStr)
		params.Mode = &mode
	}
	if budgetStr := c.Query("budget_max"); budgetStr != "" {
		if budget, err := strconv.ParseFloat(budgetStr, 64); err == nil && budget > 0 {
			params.BudgetMax = &budget
		}
	}

	posts, total, err := h.postService.SearchPosts(params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(posts, total, params.PaginationParams)
	utils.PaginatedResponse(c, result)
}

// GET /jobs/:id
func (h *PostHandler) Get(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "post ID"), nil)
		return
	}

	post, err := h.postService.GetPostByID(postID)
	if err != nil {
		if errors.Is(err, services.ErrPostNotFound) {
			utils.NotFoundResponse(c, i18n.T(lang, i18n.KeyPostNotFound))
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"post": post,
	})
}

// POST /student/posts
func (h *PostHandler) Create(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	studentID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	post, err := h.postService.CreatePost(studentID, &req)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPostCreated),
		"post":    post,
	})
}

// GET /student/posts
func (h *PostHandler) ListMine(c *gin.Context) {
	studentID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	posts, total, err := h.postService.ListForStudent(studentID, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(posts, total, params)
	utils.PaginatedResponse(c, result)
}

// PUT /student/posts/:id
func (h *PostHandler) Update(c *gin.Context) {
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

	var req services.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	post, err := h.postService.UpdatePost(postID, studentID, &req)
	if err != nil {
		h.writeOwnedPostError(c, lang, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPostUpdated),
		"post":    post,
	})
}

// PUT /student/posts/:id/close
func (h *PostHandler) Close(c *gin.Context) {
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

	post, err := h.postService.ClosePost(postID, studentID)
	if err != nil {
		h.writeOwnedPostError(c, lang, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPostClosed),
		"post":    post,
	})
}

// DELETE /student/posts/:id
func (h *PostHandler) Delete(c *gin.Context) {
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

	if err := h.postService.DeletePost(postID, studentID); err != nil {
		h.writeOwnedPostError(c, lang, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPostDeleted),
	})
}

func (h *PostHandler) writeOwnedPostError(c *gin.Context, lang string, err error) {
	switch {
	case errors.Is(err, services.ErrPostNotFound):
		utils.NotFoundResponse(c, i18n.T(lang, i18n.KeyPostNotFound))
	case errors.Is(err, services.ErrNotPostOwner):
		utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyAccessDenied))
	case errors.Is(err, services.ErrPostNotEditable):
		utils.BadRequestResponse(c, err.Error(), nil)
	default:
		utils.BadRequestResponse(c, err.Error(), nil)
	}
}
