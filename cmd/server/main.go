package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/personal-finance-api/internal/auth"
	"github.com/iliyamo/personal-finance-api/internal/config"
	"github.com/iliyamo/personal-finance-api/internal/database"
	"github.com/iliyamo/personal-finance-api/internal/handler"
	"github.com/iliyamo/personal-finance-api/internal/middleware"
	"github.com/iliyamo/personal-finance-api/internal/queue"
	"github.com/iliyamo/personal-finance-api/internal/repository"
	"github.com/iliyamo/personal-finance-api/internal/router"
	"github.com/iliyamo/personal-finance-api/internal/service"
)

func main() {
	_ = godotenv.Load() // optional .env for local development

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	schemaCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureSchema(schemaCtx, db); err != nil {
		log.Fatalf("schema: %v", err)
	}
	cancel()

	// nil disables rate limiting and response caching, nothing else.
	rdb := config.NewRedisClient()

	users := repository.NewUserRepo(db)
	categories := repository.NewCategoryRepo(db)
	transactions := repository.NewTransactionRepo(db)

	codec := auth.NewCodec(cfg.AccessSecret, cfg.RefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)
	hasher := auth.NewHasher(cfg.BcryptCost)

	authHandler := handler.NewAuthHandler(cfg, codec, hasher, users, categories)
	categoryHandler := handler.NewCategoryHandler(categories)
	transactionHandler := handler.NewTransactionHandler(transactions, categories, service.PublishTransactionEvent)
	reportHandler := handler.NewReportHandler(transactions)

	go queue.StartAuditConsumer()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger(), echomw.Recover())

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, codec, users, limiter)
	router.RegisterLedger(e, categoryHandler, transactionHandler, reportHandler, codec, users, cache)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
