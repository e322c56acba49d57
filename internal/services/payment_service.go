// internal/services/payment_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"gorm.io/gorm"

	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/config"
	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/models"
	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/utils"
)

var ErrTransactionNotFound = errors.New("transaction not found")

// PaymentService handles the single paid product on the platform:
// promoting a tuition post to featured placement in search results.
type PaymentService struct {
	db          *gorm.DB
	config      *config.Config
	postService *PostService
}

type PromotePostResponse struct {
	ClientSecret  string    `json:"client_secret"`
	PaymentID     string    `json:"payment_id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
}

type ConfirmPaymentRequest struct {
	PaymentIntentID string    `json:"payment_intent_id" validate:"required"`
	TransactionID   uuid.UUID `json:"transaction_id" validate:"required"`
}

func NewPaymentService(db *gorm.DB, config *config.Config, postService *PostService) *PaymentService {
	stripe.Key = config.Payment.StripeSecretKey

	return &PaymentService{
		db:          db,
		config:      config,
		postService: postService,
	}
}

// PromotePost creates a Stripe payment intent for the promotion fee and a
// pending transaction record. The post is only featured once the payment
// is confirmed.
func (s *PaymentService) PromotePost(studentID, postID uuid.UUID) (*PromotePostResponse, error) {
	var post models.TuitionPost
	if err := s.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if post.StudentID != studentID {
		return nil, ErrNotPostOwner
	}
	if !post.IsOpen() {
		return nil, ErrPostNotOpen
	}
	if post.Featured && post.FeaturedUntil != nil && post.FeaturedUntil.After(time.Now()) {
		return nil, errors.New("post is already featured")
	}

	amount := s.config.Payment.PromotionFee
	currency := "usd"
	amountInCents := int64(amount * 100)

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountInCents),
		Currency: stripe.String(currency),
	}
	params.AddMetadata("user_id", studentID.String())
	params.AddMetadata("post_id", postID.String())
	params.AddMetadata("purpose", "post_promotion")

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	transaction := &models.Transaction{
		TransactionType:  models.TransactionTypePostPromotion,
		PayerID:          studentID,
		PostID:           &postID,
		Amount:           amount,
		Currency:         currency,
		PaymentReference: pi.ID,
		Status:           models.TransactionStatusPending,
	}
	if err := s.db.Create(transaction).Error; err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	return &PromotePostResponse{
		ClientSecret:  pi.ClientSecret,
		PaymentID:     pi.ID,
		TransactionID: transaction.ID,
		Amount:        amount,
		Currency:      currency,
		Status:        string(pi.Status),
	}, nil
}

// ConfirmPayment re-checks the intent with Stripe, settles the transaction
// record, and features the post when the charge succeeded.
func (s *PaymentService) ConfirmPayment(userID uuid.UUID, req *ConfirmPaymentRequest) (*models.Transaction, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var transaction models.Transaction
	if err := s.db.First(&transaction, req.TransactionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if transaction.PayerID != userID {
		return nil, errors.New("transaction belongs to another user")
	}
	if transaction.PaymentReference != req.PaymentIntentID {
		return nil, errors.New("payment intent does not match transaction")
	}
	if transaction.Status == models.TransactionStatusCompleted {
		return &transaction, nil
	}

	pi, err := paymentintent.Get(req.PaymentIntentID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment intent: %w", err)
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		now := time.Now()
		transaction.Status = models.TransactionStatusCompleted
		transaction.ProcessedAt = &now

		if transaction.PostID != nil {
			if err := s.postService.FeaturePost(*transaction.PostID, s.config.Payment.PromotionDays); err != nil {
				return nil, fmt.Errorf("payment succeeded but promotion failed: %w", err)
			}
		}

	case stripe.PaymentIntentStatusRequiresAction, stripe.PaymentIntentStatusRequiresConfirmation:
		transaction.Status = models.TransactionStatusPending

	default:
		transaction.Status = models.TransactionStatusFailed
	}

	if err := s.db.Save(&transaction).Error; err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}

	return &transaction, nil
}

func (s *PaymentService) GetPaymentHistory(userID uuid.UUID, params utils.PaginationParams) ([]models.Transaction, int64, error) {
	query := s.db.Model(&models.Transaction{}).
		Where("payer_id = ?", userID).
		Preload("Post")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	allowedSortFields := []string{"created_at", "amount", "status"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var transactions []models.Transaction
	if err := query.Find(&transactions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	return transactions, total, nil
}
