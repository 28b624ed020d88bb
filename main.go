package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/theletterjeff/gin-rummy-scoresheet/handlers"
	"github.com/theletterjeff/gin-rummy-scoresheet/middleware"
	"github.com/theletterjeff/gin-rummy-scoresheet/models"
	"github.com/theletterjeff/gin-rummy-scoresheet/scoring"
	"github.com/theletterjeff/gin-rummy-scoresheet/services"
	"github.com/theletterjeff/gin-rummy-scoresheet/workers"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{})

	// only gateway requests allowed, no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

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
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles, X-Service-Token",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
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
		&models.Player{},
		&models.Match{},
		&models.Score{},
		&models.Outcome{},
		&models.Game{},
		&models.PlayerStanding{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	engine := scoring.NewEngine(db)
	playerService := services.NewPlayerService(db)
	matchService := services.NewMatchService(db, engine)
	gameService := services.NewGameService(db, engine)
	standingsService := services.NewStandingsService(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// optional: mirror players from the profile service when one is configured
	if profileSyncURL := os.Getenv("PROFILE_SYNC_URL"); profileSyncURL != "" {
		serviceToken := os.Getenv("SCORESHEET_SERVICE_TOKEN")
		syncWorker := workers.NewPlayerSyncWorker(db, profileSyncURL, "/api/v1/public/profiles", serviceToken)
		syncWorker.Start(ctx)
	}

	refreshInterval := 15 * time.Minute
	if v := os.Getenv("STANDINGS_REFRESH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			refreshInterval = d
		} else {
			log.Printf("⚠️  Invalid STANDINGS_REFRESH_INTERVAL %q, using default %s", v, refreshInterval)
		}
	}
	standingsService.StartScheduler(refreshInterval)

	handlers.SetupPlayerRoutes(app, playerService)
	handlers.SetupMatchRoutes(app, matchService, gameService)
	handlers.SetupStandingsRoutes(app, standingsService)

	listenAddr := os.Getenv("LISTEN_ADDR")
	if listenAddr == "" {
		listenAddr = ":5300"
	}

	go func() {
		if err := app.Listen(listenAddr); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Scoresheet service running on %s", listenAddr)
	log.Printf("✅ Standings refresh running (every %s)", refreshInterval)
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
