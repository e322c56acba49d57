// internal/services/application_events.go
package services

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/models"
)

// applicationEventSink reacts to registry lifecycle events: it closes the
// parent post on acceptance, opens the matched-parties conversation, and
// fans out notifications. The registry itself stays single-purpose.
type applicationEventSink struct {
	db            *gorm.DB
	notifications *NotificationService
	chat          *ChatService
}

func NewApplicationEventSink(db *gorm.DB, notifications *NotificationService, chat *ChatService) ApplicationEvents {
	return &applicationEventSink{
		db:            db,
		notifications: notifications,
		chat:          chat,
	}
}

func (e *applicationEventSink) ApplicationSubmitted(app *models.Application) {
	go e.notifyPostOwner(app, "application_submitted",
		"New application received",
		"A tutor has applied to your tuition post.")
}

func (e *applicationEventSink) ApplicationStatusChanged(app *models.Application) {
	if e.notifications == nil {
		return
	}

	var title, message string
	switch app.Status {
	case models.ApplicationStatusShortlisted:
		title, message = "Application shortlisted", "Your application has been shortlisted."
	case models.ApplicationStatusAccepted:
		title, message = "Application accepted", "Congratulations! Your application has been accepted."
	case models.ApplicationStatusRejected:
		title, message = "Application rejected", "Your application was not selected this time."
	default:
		return
	}

	go func() {
		if err := e.notifications.CreateNotification(app.TutorID, "application_"+string(app.Status), title, message, "application", app.ID); err != nil {
			logrus.WithError(err).Error("Failed to create application status notification")
		}
	}()
}

func (e *applicationEventSink) ApplicationAccepted(app *models.Application) {
	// The post must stop accepting applications as soon as the match is
	// made, so the fulfillment update is synchronous.
	err := e.db.Model(&models.TuitionPost{}).
		Where("id = ? AND status = ?", app.PostID, models.PostStatusOpen).
		Update("status", models.PostStatusFulfilled).Error
	if err != nil {
		logrus.WithError(err).WithField("post_id", app.PostID).
			Error("Failed to mark post fulfilled after acceptance")
	}

	if e.chat != nil {
		if _, err := e.chat.EnsureConversation(app); err != nil {
			logrus.WithError(err).WithField("application_id", app.ID).
				Error("Failed to open conversation for accepted application")
		}
	}
}

func (e *applicationEventSink) notifyPostOwner(app *models.Application, notifType, title, message string) {
	if e.notifications == nil {
		return
	}

	var post models.TuitionPost
	if err := e.db.First(&post, app.PostID).Error; err != nil {
		logrus.WithError(err).WithField("post_id", app.PostID).
			Error("Failed to load post for notification")
		return
	}

	if err := e.notifications.CreateNotification(post.StudentID, notifType, title, message, "application", app.ID); err != nil {
		logrus.WithError(err).Error("Failed to create post owner notification")
	}
}
