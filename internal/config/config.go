package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	// DefaultRoom is used when a client connects or sends without naming a room.
	DefaultRoom = "lobby"
	// DefaultUser is used when a client never identifies itself.
	DefaultUser = "anonymous"

	// MaxMessageLength is the cap applied to message text before it is
	// stored or broadcast.
	MaxMessageLength = 2000

	// ConnectionTTL is the horizon after which a registered connection may be
	// garbage-collected without an explicit disconnect.
	ConnectionTTL = 24 * time.Hour

	// DeliveryTimeout bounds a single push attempt so one unresponsive
	// recipient cannot stall a fan-out.
	DeliveryTimeout = 10 * time.Second
)

// Config holds the runtime settings read from the environment.
type Config struct {
	ListenAddr string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// FromEnv builds a Config from environment variables, falling back to local
// development defaults.
func FromEnv() Config {
	return Config{
		ListenAddr:    getenv("LISTEN_ADDR", ":8080"),
		DBHost:        getenv("DB_HOST", "localhost"),
		DBUser:        getenv("DB_USER", "user"),
		DBPassword:    getenv("DB_PASSWORD", "password"),
		DBName:        getenv("DB_NAME", "chatdb"),
		DBPort:        getenv("DB_PORT", "5432"),
		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getenvInt("REDIS_DB", 0),
	}
}

// PostgresDSN renders the GORM/pgx connection string.
func (c Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
