package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/avetisk/fullstack-auth/internal/config"
	"github.com/avetisk/fullstack-auth/internal/database"
	"github.com/avetisk/fullstack-auth/internal/handler"
	"github.com/avetisk/fullstack-auth/internal/middleware"
	"github.com/avetisk/fullstack-auth/internal/queue"
	"github.com/avetisk/fullstack-auth/internal/repository"
	"github.com/avetisk/fullstack-auth/internal/router"
	"github.com/avetisk/fullstack-auth/internal/service"
	"github.com/avetisk/fullstack-auth/internal/token"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewRefreshTokenRepo(db)

	signer := token.NewSigner(cfg.JWTSecret, time.Duration(cfg.AccessTTLMin)*time.Minute)
	refreshTTL := time.Duration(cfg.RefreshTTLDays) * 24 * time.Hour

	sessions := service.NewSessionService(users, tokens, signer, queue.NewPublisher(), cfg.BcryptCost, refreshTTL)

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, rate limiting disabled")
	}
	limiter := middleware.RateLimit(config.LoadRateLimitConfig(), rdb)
	gate := middleware.ResolveIdentity(signer, users, service.AccessCookieName)

	e := echo.New()
	router.Register(e, handler.NewAuthHandler(sessions), gate, limiter)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
