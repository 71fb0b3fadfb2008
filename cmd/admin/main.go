// Command admin is an ops CLI for inspecting and repairing the chat backend's
// state: listing room members, force-removing a connection, and tailing a
// room's message history.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/idan5353/Chat-App/internal/config"
	"github.com/idan5353/Chat-App/internal/storage"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	_ = godotenv.Load()
	cfg := config.FromEnv()

	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN()), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	store := storage.NewService(db, rdb)
	ctx := context.Background()

	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "members":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin members <roomId>")
			os.Exit(1)
		}
		members, err := store.ListByRoom(ctx, os.Args[2])
		if err != nil {
			log.Fatal().Err(err).Msg("failed to list room")
		}
		for _, m := range members {
			fmt.Printf("%s\tuser=%s\tconnected=%s\texpires=%s\n",
				m.ConnectionID, m.UserID, m.ConnectedAt.Format("2006-01-02 15:04:05"), m.ExpiresAt.Format("2006-01-02 15:04:05"))
		}
		fmt.Printf("%d member(s)\n", len(members))

	case "purge":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin purge <connectionId>")
			os.Exit(1)
		}
		removed, err := store.RemoveByConnection(ctx, os.Args[2])
		if err != nil {
			log.Fatal().Err(err).Msg("failed to purge connection")
		}
		if removed {
			fmt.Printf("Connection %s removed.\n", os.Args[2])
		} else {
			fmt.Printf("Connection %s not found.\n", os.Args[2])
		}

	case "history":
		if len(os.Args) < 3 {
			fmt.Println("Usage: admin history <roomId> [n]")
			os.Exit(1)
		}
		limit := 20
		if len(os.Args) > 3 {
			limit, err = strconv.Atoi(os.Args[3])
			if err != nil {
				fmt.Println("Invalid count. Please provide an integer.")
				os.Exit(1)
			}
		}
		msgs, err := store.RecentMessages(ctx, os.Args[2], limit)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to read history")
		}
		for _, m := range msgs {
			fmt.Printf("[%s] %s: %s\n", m.Timestamp.Format("2006-01-02 15:04:05"), m.UserID, m.Text)
		}

	default:
		usage()
	}
}

func usage() {
	fmt.Println("Usage: admin <members|purge|history> [args]")
	os.Exit(1)
}
