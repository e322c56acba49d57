// internal/models/application.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Application is a tutor's bid on a tuition post, uniquely keyed by
// (post_id, tutor_id). The composite unique index ux_applications_post_tutor
// carries the one-application-per-pair invariant and must never be dropped
// without a migration that re-validates no duplicates exist.
type Application struct {
	BaseModel
	PostID       uuid.UUID         `json:"post_id" gorm:"type:uuid;not null;uniqueIndex:ux_applications_post_tutor,priority:1;index"`
	TutorID      uuid.UUID         `json:"tutor_id" gorm:"type:uuid;not null;uniqueIndex:ux_applications_post_tutor,priority:2;index"`
	Status       ApplicationStatus `json:"status" gorm:"type:varchar(20);default:'submitted';index"`
	Pitch        string            `json:"pitch,omitempty" gorm:"type:text"`
	ProposedRate float64           `json:"proposed_rate" gorm:"type:decimal(10,2);not null"`
	Availability pq.StringArray    `json:"availability" gorm:"type:text[]"`
	DecidedAt    *time.Time        `json:"decided_at,omitempty"`

	// Relationships
	Post  TuitionPost `json:"post,omitempty" gorm:"foreignKey:PostID"`
	Tutor User        `json:"tutor,omitempty" gorm:"foreignKey:TutorID"`
}

// IsTerminal reports whether the application can no longer change state.
func (a *Application) IsTerminal() bool {
	return a.Status == ApplicationStatusAccepted || a.Status == ApplicationStatusRejected
}

// CanTransitionTo encodes the legal status transitions:
// submitted -> shortlisted | rejected, shortlisted -> accepted | rejected.
func (a *Application) CanTransitionTo(next ApplicationStatus) bool {
	switch a.Status {
	case ApplicationStatusSubmitted:
		return next == ApplicationStatusShortlisted || next == ApplicationStatusRejected
	case ApplicationStatusShortlisted:
		return next == ApplicationStatusAccepted || next == ApplicationStatusRejected
	default:
		return false
	}
}
