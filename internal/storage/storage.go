package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/idan5353/Chat-App/internal/models"
)

// ErrStorageUnavailable marks a failure of one of the storage backends. It is
// terminal for the operation that hit it; callers check it with errors.Is.
var ErrStorageUnavailable = errors.New("storage unavailable")

// Store is the persistence surface the messaging core depends on: the
// connection registry plus the append-only message log.
type Store interface {
	Register(ctx context.Context, roomID, connectionID, userID string) (models.Connection, error)
	Remove(ctx context.Context, roomID, connectionID string) (bool, error)
	RemoveByConnection(ctx context.Context, connectionID string) (bool, error)
	ListByRoom(ctx context.Context, roomID string) ([]models.Connection, error)

	AppendMessage(ctx context.Context, roomID, userID, text, originConnectionID string) (time.Time, error)
}

// Service implements Store over Redis (registry) and PostgreSQL (message log).
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client

	// lastTS serializes timestamp assignment per room so (roomID, ts) stays
	// unique even when appends land within the same clock tick.
	mu     sync.Mutex
	lastTS map[string]time.Time
	now    func() time.Time
}

// NewService wires the shared backend handles into a storage service.
func NewService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:     db,
		Redis:  rdb,
		lastTS: make(map[string]time.Time),
		now:    time.Now,
	}
}

// Ping verifies both backends are reachable.
func (s *Service) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return unavailable("postgres handle", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return unavailable("postgres ping", err)
	}
	if err := s.Redis.Ping(ctx).Err(); err != nil {
		return unavailable("redis ping", err)
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}
