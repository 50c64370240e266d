package main

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/swachhsetu/training-backend/config"
	"github.com/swachhsetu/training-backend/database"
	"github.com/swachhsetu/training-backend/internal/attendance"
	"github.com/swachhsetu/training-backend/internal/auditlog"
	"github.com/swachhsetu/training-backend/internal/directory"
	"github.com/swachhsetu/training-backend/internal/event"
	"github.com/swachhsetu/training-backend/internal/learning"
	"github.com/swachhsetu/training-backend/internal/registration"
	"github.com/swachhsetu/training-backend/routes"
	"github.com/swachhsetu/training-backend/utils"
)

func main() {
	cfg := config.Load()
	db := database.Connect(cfg)

	// Init Redis (optional — compliance caching degrades to direct reads)
	if cfg.RedisAddr != "" {
		if err := utils.InitRedis(cfg); err != nil {
			log.Printf("⚠️ Redis init failed, compliance caching disabled: %v", err)
		}
	} else {
		log.Println("ℹ️ REDIS_ADDR not set, compliance caching disabled")
	}

	// Init Kafka producer for the reminder topic
	utils.InitializeKafka(cfg)
	defer utils.CloseKafka()

	// Auto-migrate models
	log.Println("🔄 Running database migrations...")
	if err := db.AutoMigrate(
		&auditlog.AuditLog{},
		&directory.District{},
		&directory.Locality{},
		&directory.Citizen{},
		&directory.Worker{},
		&directory.DistrictAdmin{},
		&directory.LocalityAdmin{},
		&learning.LearningProgress{},
		&event.Event{},
		&registration.Registration{},
		&attendance.Attendance{},
	); err != nil {
		log.Fatalf("❌ DB AutoMigrate failed: %v", err)
	}

	// Setup Gin router
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	routes.Setup(router, cfg)

	log.Printf("🚀 Server listening on :%s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Server failed: %v", err)
	}
}
