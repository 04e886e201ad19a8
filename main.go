package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/marlonyi/senas-web/handlers"
	"github.com/marlonyi/senas-web/middleware"
	"github.com/marlonyi/senas-web/models"
	"github.com/marlonyi/senas-web/services"
	"github.com/marlonyi/senas-web/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // 10MB — JSON payloads only, media lives elsewhere
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	// Load allowed origins from environment variable
	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-Service-Token, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Course{},
		&models.CourseCategory{},
		&models.CourseModule{},
		&models.Lesson{},
		&models.Activity{},
		&models.ActivityProgress{},
		&models.LessonProgress{},
		&models.ModuleProgress{},
		&models.CourseProgress{},
		&models.Level{},
		&models.PointsAccount{},
		&models.Badge{},
		&models.UserBadge{},
		&models.LeaderboardEntry{},
		&models.Forum{},
		&models.Comment{},
		&models.CommentLike{},
		&models.SignCategory{},
		&models.Sign{},
		&models.User{},
		&models.UserProfile{},
		&models.AccessibilityPreference{},
		&models.LessonAccessibility{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if err := seedCatalogs(db); err != nil {
		log.Fatal("failed to seed gamification catalogs:", err)
	}

	badgeService := services.NewBadgeService(db)
	pointsService := services.NewPointsService(db, badgeService)
	progressService := services.NewProgressService(db, pointsService, badgeService)
	gamificationService := services.NewGamificationService(db, pointsService, badgeService)
	courseService := services.NewCourseService(db)
	communityService := services.NewCommunityService(db)
	translationService := services.NewTranslationService(db)
	userService := services.NewUserService(db, pointsService)

	// --- CONFIGURE profile service sync details ---
	profileServiceURL := os.Getenv("PROFILE_SERVICE_URL")
	if profileServiceURL == "" {
		log.Fatal("PROFILE_SERVICE_URL environment variable not set")
	}
	serviceToken := os.Getenv("LEARNING_SERVICE_TOKEN")
	if serviceToken == "" {
		log.Fatal("LEARNING_SERVICE_TOKEN environment variable not set")
	}
	// --- END CONFIG ---

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	syncWorker := workers.NewProfileSyncWorker(db, userService, profileServiceURL, "/api/v1/public/profiles", serviceToken)
	syncWorker.Start(ctx)

	leaderboardWorker := workers.NewLeaderboardWorker(gamificationService, 5*time.Minute)
	leaderboardWorker.Start(ctx)

	courseService.StartPublishScheduler()

	// ✅ Setup routes — enforced Gateway auth + consistent /s/ prefix
	handlers.SetupCourseRoutes(app, courseService)
	handlers.SetupProgressRoutes(app, progressService)
	handlers.SetupGamificationRoutes(app, gamificationService)
	handlers.SetupCommunityRoutes(app, communityService)
	handlers.SetupTranslationRoutes(app, translationService)
	handlers.SetupUserRoutes(app, userService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ Profile Sync Worker running")
	log.Println("✅ Leaderboard Snapshot Worker running (every 5m)")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

// seedCatalogs inserts the default levels and badges on first boot. Existing
// rows (matched by name) are left untouched so admin edits survive restarts.
func seedCatalogs(db *gorm.DB) error {
	for _, lvl := range models.DefaultLevels {
		row := lvl
		if err := db.Where("name = ?", row.Name).
			Attrs(models.Level{ID: uuid.NewString()}).
			FirstOrCreate(&row).Error; err != nil {
			return err
		}
	}
	for _, b := range models.DefaultBadges {
		row := b
		if err := db.Where("name = ?", row.Name).
			Attrs(models.Badge{ID: uuid.NewString()}).
			FirstOrCreate(&row).Error; err != nil {
			return err
		}
	}
	return nil
}
