// internal/models/chat.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation links the two matched parties of an accepted application.
type Conversation struct {
	BaseModel
	ApplicationID uuid.UUID  `json:"application_id" gorm:"type:uuid;not null;uniqueIndex"`
	StudentID     uuid.UUID  `json:"student_id" gorm:"type:uuid;not null;index"`
	TutorID       uuid.UUID  `json:"tutor_id" gorm:"type:uuid;not null;index"`
	LastMessageAt *time.Time `json:"last_message_at"`

	// Relationships
	Application Application   `json:"application,omitempty" gorm:"foreignKey:ApplicationID"`
	Student     User          `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	Tutor       User          `json:"tutor,omitempty" gorm:"foreignKey:TutorID"`
	Messages    []ChatMessage `json:"messages,omitempty" gorm:"foreignKey:ConversationID"`
}

type ChatMessage struct {
	BaseModel
	ConversationID uuid.UUID  `json:"conversation_id" gorm:"type:uuid;not null;index"`
	SenderID       uuid.UUID  `json:"sender_id" gorm:"type:uuid;not null;index"`
	Body           string     `json:"body" gorm:"type:text;not null"`
	ReadAt         *time.Time `json:"read_at"`

	// Relationships
	Conversation Conversation `json:"conversation,omitempty" gorm:"foreignKey:ConversationID"`
	Sender       User         `json:"sender,omitempty" gorm:"foreignKey:SenderID"`
}
