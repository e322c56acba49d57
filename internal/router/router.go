// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/config"
	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/handlers"
	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/middleware"
	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/services"
	"github.com/omarsharyr/tuition-matching-platform-sub001/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	notificationService := services.NewNotificationService(db, cfg)
	storageService, _ := services.NewStorageService(cfg)
	chatService := services.NewChatService(db)

	authService := services.NewAuthService(db, cfg, notificationService)
	userService := services.NewUserService(db, storageService)
	postService := services.NewPostService(db)
	paymentService := services.NewPaymentService(db, cfg, postService)
	adminService := services.NewAdminService(db, notificationService)

	applicationService := services.NewApplicationService(
		services.NewApplicationStore(db),
		services.NewPostDirectory(db),
		services.NewTutorDirectory(db),
		services.NewApplicationEventSink(db, notificationService, chatService),
	)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService, adminService)
	postHandler := handlers.NewPostHandler(postService)
	applicationHandler := handlers.NewApplicationHandler(applicationService)
	chatHandler := handlers.NewChatHandler(chatService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	adminHandler := handlers.NewAdminHandler(adminService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", middleware.AuthRequired(), authHandler.Logout)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/forgot-password", authHandler.ForgotPassword)
			auth.POST("/reset-password", authHandler.ResetPassword)
			auth.GET("/verify-email/:token", authHandler.VerifyEmail)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// Public job browsing
		jobs := v1.Group("/jobs")
		{
			jobs.GET("", middleware.OptionalAuth(), postHandler.Browse)
			jobs.GET("/:id", middleware.OptionalAuth(), postHandler.Get)
		}

		// Public tutor directory and profiles
		v1.GET("/tutors", userHandler.SearchTutors)

		users := v1.Group("/users")
		{
			users.GET("/:id", userHandler.GetPublicProfile)

			protected := users.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.PUT("/profile", userHandler.UpdateProfile)
				protected.POST("/upload-avatar", middleware.UploadRateLimit(), userHandler.UploadAvatar)
				protected.DELETE("/account", userHandler.DeleteAccount)
			}
		}

		// Student routes
		student := v1.Group("/student")
		student.Use(middleware.AuthRequired(), middleware.StudentRequired())
		{
			student.POST("/posts", postHandler.Create)
			student.GET("/posts", postHandler.ListMine)
			student.PUT("/posts/:id", postHandler.Update)
			student.PUT("/posts/:id/close", postHandler.Close)
			student.DELETE("/posts/:id", postHandler.Delete)
			student.GET("/posts/:id/applications", applicationHandler.ListForPost)
			student.POST("/posts/:id/promote", paymentHandler.PromotePost)
			student.PUT("/applications/:id/:action", applicationHandler.Decide)
		}

		// Tutor routes
		tutor := v1.Group("/tutor")
		tutor.Use(middleware.AuthRequired(), middleware.TutorRequired())
		{
			tutor.POST("/jobs/:postId/apply", applicationHandler.Apply)
			tutor.GET("/applications", applicationHandler.ListMine)
			tutor.GET("/applications/:id", applicationHandler.Get)
			tutor.POST("/verification", middleware.UploadRateLimit(), userHandler.SubmitVerification)
		}

		// Chat routes
		chat := v1.Group("/chat")
		chat.Use(middleware.AuthRequired())
		{
			chat.GET("/conversations", chatHandler.ListConversations)
			chat.GET("/conversations/:id", chatHandler.GetConversation)
			chat.GET("/conversations/:id/messages", chatHandler.ListMessages)
			chat.POST("/conversations/:id/messages", chatHandler.SendMessage)
		}

		// Notification routes
		notifications := v1.Group("/notifications")
		notifications.Use(middleware.AuthRequired())
		{
			notifications.GET("", notificationHandler.List)
			notifications.GET("/unread-count", notificationHandler.UnreadCount)
			notifications.PUT("/:id/read", notificationHandler.MarkRead)
			notifications.PUT("/read-all", notificationHandler.MarkAllRead)
		}

		// Payment routes
		payments := v1.Group("/payments")
		payments.Use(middleware.AuthRequired())
		{
			payments.POST("/confirm", paymentHandler.ConfirmPayment)
			payments.GET("/history", paymentHandler.GetHistory)
		}

		// Content reports
		v1.POST("/reports", middleware.AuthRequired(), userHandler.ReportContent)

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/dashboard", adminHandler.GetDashboard)

			adminUsers := admin.Group("/users")
			{
				adminUsers.GET("", adminHandler.GetUsers)
				adminUsers.PUT("/:id/status", adminHandler.UpdateUserStatus)
			}

			adminVerifications := admin.Group("/verifications")
			{
				adminVerifications.GET("", adminHandler.GetVerificationRequests)
				adminVerifications.PUT("/:id/approve", adminHandler.ApproveVerification)
				adminVerifications.PUT("/:id/reject", adminHandler.RejectVerification)
			}

			adminPosts := admin.Group("/posts")
			{
				adminPosts.GET("", adminHandler.GetPosts)
				adminPosts.DELETE("/:id", adminHandler.RemovePost)
			}

			adminApplications := admin.Group("/applications")
			{
				adminApplications.GET("", adminHandler.GetApplications)
			}

			adminReports := admin.Group("/reports")
			{
				adminReports.GET("", adminHandler.GetContentReports)
				adminReports.PUT("/:id/resolve", adminHandler.ResolveContentReport)
			}

			admin.GET("/audit-logs", adminHandler.GetAuditLogs)
		}
	}

	// Static file serving (for development)
	if cfg.Environment == "development" {
		r.Static("/uploads", "./uploads")
	}

	return r
}
