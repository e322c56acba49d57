// internal/models/transaction.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Transaction struct {
	BaseModel
	TransactionType  TransactionType   `json:"transaction_type" gorm:"type:varchar(20);not null;index"`
	PayerID          uuid.UUID         `json:"payer_id" gorm:"type:uuid;not null;index"`
	PostID           *uuid.UUID        `json:"post_id" gorm:"type:uuid;index"`
	Amount           float64           `json:"amount" gorm:"type:decimal(10,2);not null"`
	Currency         string            `json:"currency" gorm:"size:10;default:'usd'"`
	PaymentReference string            `json:"payment_reference" gorm:"size:255"`
	Status           TransactionStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	ProcessedAt      *time.Time        `json:"processed_at"`

	// Relationships
	Payer User         `json:"payer,omitempty" gorm:"foreignKey:PayerID"`
	Post  *TuitionPost `json:"post,omitempty" gorm:"foreignKey:PostID"`
}
