package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/idan5353/Chat-App/internal/api/handler"
	"github.com/idan5353/Chat-App/internal/config"
	"github.com/idan5353/Chat-App/internal/hub"
	"github.com/idan5353/Chat-App/internal/models"
	"github.com/idan5353/Chat-App/internal/storage"
)

func setupDependencies(cfg config.Config, log zerolog.Logger) (*gorm.DB, *redis.Client) {
	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN()), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect PostgreSQL")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect Redis")
	}

	if err := db.AutoMigrate(&models.Message{}); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	log.Info().Msg("database and Redis connections established, migrations complete")
	return db, rdb
}

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("no .env file loaded")
	}
	cfg := config.FromEnv()

	db, rdb := setupDependencies(cfg, log)
	store := storage.NewService(db, rdb)

	sessions := handler.NewSessionTable(log)
	engine := hub.NewEngine(store, sessions, log)
	h := handler.NewHandler(engine, sessions, store, log)

	r := gin.Default()
	r.GET("/ws", h.ServeWebSocket)
	r.GET("/healthz", h.Health)

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	log.Info().Str("addr", cfg.ListenAddr).Msg("chat backend listening")
	if err := server.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
