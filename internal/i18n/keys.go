// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserNotFound       = "auth.user_not_found"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthLogoutSuccess      = "auth.logout_success"
	KeyAuthRegisterSuccess    = "auth.register_success"
	KeyAuthPasswordReset      = "auth.password_reset"

	// User Management
	KeyUserProfileUpdated = "user.profile_updated"
	KeyUserNotFound       = "user.not_found"
	KeyUserSuspended      = "user.suspended"
	KeyUserVerified       = "user.verified"
	KeyAccessDenied       = "user.access_denied"

	// Tuition Posts
	KeyPostCreated  = "post.created"
	KeyPostUpdated  = "post.updated"
	KeyPostDeleted  = "post.deleted"
	KeyPostNotFound = "post.not_found"
	KeyPostClosed   = "post.closed"
	KeyPostNotOpen  = "post.not_open"
	KeyPostPromoted = "post.promoted"

	// Applications
	KeyApplicationSubmitted     = "application.submitted"
	KeyApplicationAlreadyExists = "application.already_exists"
	KeyApplicationNotFound      = "application.not_found"
	KeyApplicationShortlisted   = "application.shortlisted"
	KeyApplicationAccepted      = "application.accepted"
	KeyApplicationRejected      = "application.rejected"
	KeyApplicationConflict      = "application.conflict_unresolved"
	KeyApplicationNotEligible   = "application.tutor_not_eligible"
	KeyInvalidTransition        = "application.invalid_transition"

	// Chat
	KeyConversationNotFound = "conversation.not_found"
	KeyMessageSent          = "conversation.message_sent"

	// Notifications
	KeyNotificationNotFound = "notification.not_found"

	// Reports
	KeyReportSubmitted = "report.submitted"
	KeyReportResolved  = "report.resolved"
	KeyReportNotFound  = "report.not_found"

	// Payments
	KeyPaymentSuccess = "payment.success"
	KeyPaymentFailed  = "payment.failed"

	// Validation
	KeyValidationInvalid  = "validation.invalid"
	KeyValidationRequired = "validation.required"
)
