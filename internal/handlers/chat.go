// internal/handlers/chat.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/i18n"
	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/services"
	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/utils"
)

type ChatHandler struct {
	chatService *services.ChatService
}

func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// GET /chat/conversations
func (h *ChatHandler) ListConversations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	conversations, total, err := h.chatService.ListConversations(userID, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(conversations, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /chat/conversations/:id
func (h *ChatHandler) GetConversation(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "conversation ID"), nil)
		return
	}

	conversation, err := h.chatService.GetConversation(conversationID, userID)
	if err != nil {
		h.writeChatError(c, lang, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"conversation": conversation,
	})
}

// GET /chat/conversations/:id/messages
func (h *ChatHandler) ListMessages(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "conversation ID"), nil)
		return
	}

	params := utils.GetPaginationParams(c)
	messages, total, err := h.chatService.ListMessages(conversationID, userID, params)
	if err != nil {
		h.writeChatError(c, lang, err)
		return
	}

	result := utils.CreatePaginationResult(messages, total, params)
	utils.PaginatedResponse(c, result)
}

// POST /chat/conversations/:id/messages
func (h *ChatHandler) SendMessage(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "conversation ID"), nil)
		return
	}

	var req services.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	message, err := h.chatService.SendMessage(conversationID, userID, &req)
	if err != nil {
		h.writeChatError(c, lang, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyMessageSent),
		"data":    message,
	})
}

func (h *ChatHandler) writeChatError(c *gin.Context, lang string, err error) {
	switch {
	case errors.Is(err, services.ErrConversationNotFound):
		utils.NotFoundResponse(c, i18n.T(lang, i18n.KeyConversationNotFound))
	case errors.Is(err, services.ErrNotParticipant):
		utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyAccessDenied))
	default:
		utils.InternalErrorResponse(c, err.Error())
	}
}
