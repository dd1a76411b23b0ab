package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/OhMinsSup/solid-server-go/internal/auth"
	"github.com/OhMinsSup/solid-server-go/internal/config"
	"github.com/OhMinsSup/solid-server-go/internal/database"
	"github.com/OhMinsSup/solid-server-go/internal/handler"
	"github.com/OhMinsSup/solid-server-go/internal/queue"
	"github.com/OhMinsSup/solid-server-go/internal/repository"
	"github.com/OhMinsSup/solid-server-go/internal/router"
)

func main() {
	// Best-effort .env load; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; cache and rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	auths := repository.NewAuthRepo(db)
	tags := repository.NewTagRepo(db)
	posts := repository.NewPostRepo(db, tags)

	issuer := auth.NewIssuer(auths, []byte(cfg.JWTSecret), cfg.SessionTTL())
	sessions := auth.NewService(users, issuer, cfg.BcryptCost)

	authHandler := handler.NewAuthHandler(cfg, sessions, auths)
	postHandler := handler.NewPostHandler(posts)
	draftHandler := handler.NewDraftHandler(posts)

	// Consume post.published events in the background; the consumer
	// reconnects on its own and never stops the server.
	go func() {
		if err := queue.StartPostConsumer(); err != nil {
			log.Printf("post-consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.Register(e, cfg, rdb, authHandler, postHandler, draftHandler, auths, users)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
