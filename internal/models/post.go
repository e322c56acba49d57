// internal/models/post.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type TuitionPost struct {
	BaseModel
	StudentID     uuid.UUID      `json:"student_id" gorm:"type:uuid;not null;index"`
	Title         string         `json:"title" gorm:"size:255;not null"`
	Description   string         `json:"description" gorm:"type:text"`
	Subjects      pq.StringArray `json:"subjects" gorm:"type:text[]"`
	GradeLevel    string         `json:"grade_level" gorm:"size:50;index"`
	Mode          TuitionMode    `json:"mode" gorm:"type:varchar(20);default:'online';index"`
	Area          string         `json:"area" gorm:"size:100;index"`
	BudgetMin     float64        `json:"budget_min" gorm:"type:decimal(10,2);default:0"`
	BudgetMax     float64        `json:"budget_max" gorm:"type:decimal(10,2);default:0"`
	ScheduleNotes string         `json:"schedule_notes" gorm:"type:text"`
	Status        PostStatus     `json:"status" gorm:"type:varchar(20);default:'open';index"`
	Featured      bool           `json:"featured" gorm:"default:false;index"`
	FeaturedUntil *time.Time     `json:"featured_until,omitempty"`
	ViewCount     int64          `json:"view_count" gorm:"default:0"`

	// Relationships
	Student      User          `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	Applications []Application `json:"applications,omitempty" gorm:"foreignKey:PostID"`
}

func (p *TuitionPost) IsOpen() bool {
	return p.Status == PostStatusOpen
}
