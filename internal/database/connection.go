// internal/database/connection.go
package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/config"
	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/models"
)

var DB *gorm.DB

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error
	var gormConfig *gorm.Config

	// Configure GORM logger
	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		}
	} else {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		}
	}

	// Connect to database
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection established successfully")
	return DB, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting underlying sql.DB: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	} else {
		log.Println("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	// Enable UUID extension
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		return fmt.Errorf("failed to create UUID extension: %w", err)
	}

	// Run auto-migrations
	err := db.AutoMigrate(
		&models.User{},
		&models.TuitionPost{},
		&models.Application{},
		&models.Conversation{},
		&models.ChatMessage{},
		&models.Notification{},
		&models.VerificationRequest{},
		&models.ContentReport{},
		&models.AuditLog{},
		&models.Transaction{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	// ux_applications_post_tutor carries the one-application-per-(post,tutor)
	// invariant. It must exist before the server accepts traffic, so it is
	// created here explicitly rather than left to the model tag alone.
	if err := db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_applications_post_tutor ON applications(post_id, tutor_id)",
	).Error; err != nil {
		return fmt.Errorf("failed to create applications uniqueness index: %w", err)
	}

	indexes := []string{
		// User indexes
		"CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)",
		"CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)",
		"CREATE INDEX IF NOT EXISTS idx_users_type_status ON users(user_type, status)",
		"CREATE INDEX IF NOT EXISTS idx_users_verification_level ON users(verification_level)",

		// Tuition post indexes
		"CREATE INDEX IF NOT EXISTS idx_tuition_posts_student ON tuition_posts(student_id)",
		"CREATE INDEX IF NOT EXISTS idx_tuition_posts_status ON tuition_posts(status)",
		"CREATE INDEX IF NOT EXISTS idx_tuition_posts_area_mode ON tuition_posts(area, mode)",
		"CREATE INDEX IF NOT EXISTS idx_tuition_posts_created_at ON tuition_posts(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_tuition_posts_featured ON tuition_posts(featured, featured_until)",

		// Application indexes
		"CREATE INDEX IF NOT EXISTS idx_applications_tutor ON applications(tutor_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_applications_post ON applications(post_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_applications_status ON applications(status)",

		// Chat indexes
		"CREATE INDEX IF NOT EXISTS idx_conversations_student ON conversations(student_id)",
		"CREATE INDEX IF NOT EXISTS idx_conversations_tutor ON conversations(tutor_id)",
		"CREATE INDEX IF NOT EXISTS idx_chat_messages_conversation ON chat_messages(conversation_id, created_at)",

		// Notification indexes
		"CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_notifications_unread ON notifications(user_id) WHERE read_at IS NULL",

		// Admin indexes
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_user_action ON audit_logs(user_id, action)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_resource ON audit_logs(resource_type, resource_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_content_reports_status ON content_reports(status, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_content_reports_type ON content_reports(reported_content_type, reported_content_id)",
		"CREATE INDEX IF NOT EXISTS idx_verification_requests_status ON verification_requests(status, created_at DESC)",

		// Transaction indexes
		"CREATE INDEX IF NOT EXISTS idx_transactions_payer ON transactions(payer_id)",
		"CREATE INDEX IF NOT EXISTS idx_transactions_type_status ON transactions(transaction_type, status)",

		// Full-text search index
		"CREATE INDEX IF NOT EXISTS idx_tuition_posts_search ON tuition_posts USING GIN(to_tsvector('english', title || ' ' || description))",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			log.Printf("Warning: Failed to create index: %s, Error: %v", index, err)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// Seed initial data
func SeedInitialData(db *gorm.DB) error {
	log.Println("Seeding initial data...")

	// Create default admin user
	var adminCount int64
	db.Model(&models.User{}).Where("user_type = ?", models.UserTypeAdmin).Count(&adminCount)

	if adminCount == 0 {
		admin := &models.User{
			Username:          "admin",
			Email:             "admin@tuitionhub.app",
			UserType:          models.UserTypeAdmin,
			VerificationLevel: models.VerificationLevelVerified,
			Status:            models.UserStatusActive,
			ProfileData: models.JSONB{
				"first_name": "System",
				"last_name":  "Administrator",
				"role":       "super_admin",
			},
		}

		if err := admin.SetPassword("admin123!@#"); err != nil {
			return fmt.Errorf("failed to set admin password: %w", err)
		}

		if err := db.Create(admin).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		log.Println("Default admin user created successfully")
	}

	log.Println("Initial data seeding completed")
	return nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
