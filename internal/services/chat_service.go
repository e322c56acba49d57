// internal/services/chat_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/models"
	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/utils"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotParticipant       = errors.New("user is not a participant of this conversation")
)

// ChatService manages conversations between matched students and tutors.
// A conversation exists only for an accepted application.
type ChatService struct {
	db *gorm.DB
}

type SendMessageRequest struct {
	Body string `json:"body" validate:"required,max=4000"`
}

func NewChatService(db *gorm.DB) *ChatService {
	return &ChatService{db: db}
}

// EnsureConversation opens the conversation for an accepted application.
// Idempotent: the unique index on application_id makes repeated calls safe.
func (s *ChatService) EnsureConversation(app *models.Application) (*models.Conversation, error) {
	var post models.TuitionPost
	if err := s.db.First(&post, app.PostID).Error; err != nil {
		return nil, fmt.Errorf("failed to load post for conversation: %w", err)
	}

	conversation := &models.Conversation{
		ApplicationID: app.ID,
		StudentID:     post.StudentID,
		TutorID:       app.TutorID,
	}

	res := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "application_id"}},
		DoNothing: true,
	}).Create(conversation)
	if res.Error != nil && !errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return nil, fmt.Errorf("failed to create conversation: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		var existing models.Conversation
		if err := s.db.Where("application_id = ?", app.ID).First(&existing).Error; err != nil {
			return nil, fmt.Errorf("failed to load existing conversation: %w", err)
		}
		return &existing, nil
	}

	return conversation, nil
}

func (s *ChatService) GetConversation(conversationID, userID uuid.UUID) (*models.Conversation, error) {
	var conversation models.Conversation
	err := s.db.Preload("Student").Preload("Tutor").First(&conversation, conversationID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	if conversation.StudentID != userID && conversation.TutorID != userID {
		return nil, ErrNotParticipant
	}
	return &conversation, nil
}

func (s *ChatService) ListConversations(userID uuid.UUID, params utils.PaginationParams) ([]models.Conversation, int64, error) {
	query := s.db.Model(&models.Conversation{}).
		Where("student_id = ? OR tutor_id = ?", userID, userID).
		Preload("Student").Preload("Tutor")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count conversations: %w", err)
	}

	query = query.Order("last_message_at DESC NULLS LAST, created_at DESC")
	query = utils.ApplyPagination(query, params)

	var conversations []models.Conversation
	if err := query.Find(&conversations).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch conversations: %w", err)
	}
	return conversations, total, nil
}

func (s *ChatService) SendMessage(conversationID, senderID uuid.UUID, req *SendMessageRequest) (*models.ChatMessage, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	conversation, err := s.GetConversation(conversationID, senderID)
	if err != nil {
		return nil, err
	}

	message := &models.ChatMessage{
		ConversationID: conversation.ID,
		SenderID:       senderID,
		Body:           req.Body,
	}

	if err := s.db.Create(message).Error; err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	now := time.Now()
	s.db.Model(&models.Conversation{}).
		Where("id = ?", conversation.ID).
		Update("last_message_at", &now)

	return message, nil
}

func (s *ChatService) ListMessages(conversationID, userID uuid.UUID, params utils.PaginationParams) ([]models.ChatMessage, int64, error) {
	if _, err := s.GetConversation(conversationID, userID); err != nil {
		return nil, 0, err
	}

	query := s.db.Model(&models.ChatMessage{}).Where("conversation_id = ?", conversationID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	query = query.Order("created_at ASC")
	query = utils.ApplyPagination(query, params)

	var messages []models.ChatMessage
	if err := query.Find(&messages).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch messages: %w", err)
	}
	return messages, total, nil
}
