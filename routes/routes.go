package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/swachhsetu/training-backend/config"
	"github.com/swachhsetu/training-backend/database"
	"github.com/swachhsetu/training-backend/internal/attendance"
	"github.com/swachhsetu/training-backend/internal/auditlog"
	"github.com/swachhsetu/training-backend/internal/compliance"
	"github.com/swachhsetu/training-backend/internal/directory"
	"github.com/swachhsetu/training-backend/internal/event"
	"github.com/swachhsetu/training-backend/internal/learning"
	"github.com/swachhsetu/training-backend/internal/registration"
	"github.com/swachhsetu/training-backend/internal/reminder"
	"github.com/swachhsetu/training-backend/internal/reports"
	"github.com/swachhsetu/training-backend/middleware"
	"github.com/swachhsetu/training-backend/utils"
)

// Setup wires repositories, services and handlers onto the router.
func Setup(r *gin.Engine, cfg *config.Config) {
	db := database.DB

	// Repositories
	auditRepo := auditlog.NewRepository(db)
	dirRepo := directory.NewRepository(db)
	eventRepo := event.NewRepository(db)
	regRepo := registration.NewRepository(db)
	attRepo := attendance.NewRepository(db)
	learningRepo := learning.NewRepository(db)
	complianceRepo := compliance.NewRepository(db)

	// Services
	auditSvc := auditlog.NewService(auditRepo)
	complianceCache := compliance.NewCache(utils.GetRedisClient(), time.Duration(cfg.ComplianceCacheTTL)*time.Second)
	eventSvc := event.NewService(eventRepo, dirRepo, auditSvc)
	regSvc := registration.NewService(regRepo, eventRepo, dirRepo, auditSvc)
	attSvc := attendance.NewService(attRepo, regRepo, eventRepo, dirRepo, auditSvc, complianceCache)
	complianceSvc := compliance.NewService(complianceRepo, dirRepo, eventRepo, learningRepo, complianceCache)
	reminderSvc := reminder.NewService(dirRepo, complianceSvc, auditSvc)
	reportSvc := reports.NewService(complianceSvc, attSvc, reminderSvc, reports.NewExporter())

	// Handlers
	auditHandler := auditlog.NewHandler(auditSvc)
	eventHandler := event.NewHandler(eventSvc)
	regHandler := registration.NewHandler(regSvc)
	attHandler := attendance.NewHandler(attSvc)
	complianceHandler := compliance.NewHandler(complianceSvc)
	reminderHandler := reminder.NewHandler(reminderSvc)
	reportHandler := reports.NewHandler(reportSvc)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimiter())
	api.Use(middleware.AuditMiddleware())

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(cfg))

	// 📅 Event catalog
	eventRoutes := protected.Group("/events")
	{
		eventRoutes.GET("", eventHandler.ListEvents)
		eventRoutes.GET("/:id", eventHandler.GetEvent)
		eventRoutes.POST("", middleware.RequireAdmin(), eventHandler.CreateEvent)
		eventRoutes.PUT("/:id", middleware.RequireAdmin(), eventHandler.UpdateEvent)
		eventRoutes.DELETE("/:id", middleware.RequireAdmin(), eventHandler.DeleteEvent)

		// 🎟 Registration on an event
		eventRoutes.POST("/:id/registrations", regHandler.Register)
		eventRoutes.DELETE("/:id/registrations", regHandler.Cancel)
		eventRoutes.GET("/:id/registrations", middleware.RequireAdmin(), regHandler.ListForEvent)

		// ✅ Attendance on an event
		eventRoutes.POST("/:id/attendance", middleware.RequireAdmin(), attHandler.MarkAttendance)
		eventRoutes.GET("/:id/attendance", middleware.RequireAdmin(), attHandler.GetEventAttendance)
		eventRoutes.GET("/:id/attendance/missed", middleware.RequireAdmin(), attHandler.MissedUsers)
		eventRoutes.POST("/:id/certificates", middleware.RequireAdmin(), attHandler.IssueCertificate)
	}

	// 🎟 Registrations by user
	protected.GET("/registrations", regHandler.ListForUser)

	// 📊 Compliance
	complianceRoutes := protected.Group("/compliance")
	{
		complianceRoutes.GET("/users/:kind/:id", complianceHandler.UserCompliance)
		complianceRoutes.GET("/localities/:id", middleware.RequireAdmin(), complianceHandler.LocalityCompliance)
		complianceRoutes.GET("/localities/:id/attendance", middleware.RequireAdmin(), complianceHandler.LocalityAttendanceReport)
		complianceRoutes.GET("/analytics", middleware.RequireAdmin(), complianceHandler.TrainingAnalytics)
		complianceRoutes.GET("/districts/:id", middleware.RequireAdmin(), complianceHandler.DistrictCompliance)
		complianceRoutes.GET("/trends/monthly", middleware.RequireAdmin(), complianceHandler.MonthlyTrend)
		complianceRoutes.GET("/alerts", middleware.RequireAdmin(), complianceHandler.ComplianceAlerts)
	}

	// 📨 Reminders
	reminderRoutes := protected.Group("/reminders")
	reminderRoutes.Use(middleware.RequireAdmin())
	{
		reminderRoutes.GET("/targets", reminderHandler.SelectTargets)
		reminderRoutes.POST("/send", reminderHandler.SendReminders)
	}

	// 📥 Reports
	protected.GET("/reports/:type", middleware.RequireAdmin(), reportHandler.Download)

	// 📜 Audit logs
	protected.GET("/audit-logs", middleware.RequireAdmin(), auditHandler.GetAuditLogs)
}
