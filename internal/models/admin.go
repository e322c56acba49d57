// internal/models/admin.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type AuditLog struct {
	BaseModel
	UserID       *uuid.UUID `json:"user_id" gorm:"type:uuid;index"`
	Action       string     `json:"action" gorm:"size:100;not null;index"`
	ResourceType string     `json:"resource_type" gorm:"size:50;not null;index"`
	ResourceID   *uuid.UUID `json:"resource_id" gorm:"type:uuid;index"`
	OldValues    JSONB      `json:"old_values" gorm:"type:jsonb"`
	NewValues    JSONB      `json:"new_values" gorm:"type:jsonb"`
	IPAddress    string     `json:"ip_address" gorm:"size:45"`
	UserAgent    string     `json:"user_agent" gorm:"type:text"`

	// Relationships
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

type ContentReport struct {
	BaseModel
	ReporterID          uuid.UUID    `json:"reporter_id" gorm:"type:uuid;not null;index"`
	ReportedContentType string       `json:"reported_content_type" gorm:"type:varchar(20);not null;index"`
	ReportedContentID   uuid.UUID    `json:"reported_content_id" gorm:"type:uuid;not null;index"`
	Reason              string       `json:"reason" gorm:"size:100;not null"`
	Description         string       `json:"description" gorm:"type:text"`
	Status              ReportStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	AdminNotes          string       `json:"admin_notes,omitempty" gorm:"type:text"`
	ResolvedBy          *uuid.UUID   `json:"resolved_by" gorm:"type:uuid"`
	ResolvedAt          *time.Time   `json:"resolved_at"`

	// Relationships
	Reporter User  `json:"reporter,omitempty" gorm:"foreignKey:ReporterID"`
	Resolver *User `json:"resolver,omitempty" gorm:"foreignKey:ResolvedBy"`
}

// VerificationRequest tracks a tutor's pending account verification.
type VerificationRequest struct {
	BaseModel
	TutorID      uuid.UUID          `json:"tutor_id" gorm:"type:uuid;not null;index"`
	DocumentURLs pq.StringArray     `json:"document_urls" gorm:"type:text[]"`
	Status       VerificationStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	Notes        string             `json:"notes,omitempty" gorm:"type:text"`
	ReviewedBy   *uuid.UUID         `json:"reviewed_by" gorm:"type:uuid"`
	ReviewedAt   *time.Time         `json:"reviewed_at"`
	RejectNotes  string             `json:"reject_notes,omitempty" gorm:"type:text"`

	// Relationships
	Tutor    User  `json:"tutor,omitempty" gorm:"foreignKey:TutorID"`
	Reviewer *User `json:"reviewer,omitempty" gorm:"foreignKey:ReviewedBy"`
}
