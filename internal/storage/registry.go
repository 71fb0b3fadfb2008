package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/idan5353/Chat-App/internal/config"
	"github.com/idan5353/Chat-App/internal/models"
)

// Registry layout in Redis:
//
//	conn:room:<roomID>          hash  connectionID -> JSON Connection
//	conn:index:<connectionID>   string roomID, TTL = ConnectionTTL
//
// The index key makes disconnect-by-connectionID a single lookup instead of a
// scan across rooms. Hash fields cannot carry their own TTL, so expiry is also
// recorded inside the Connection record and enforced on every read.

const (
	roomKeyPrefix  = "conn:room:"
	indexKeyPrefix = "conn:index:"
)

func roomKey(roomID string) string        { return roomKeyPrefix + roomID }
func indexKey(connectionID string) string { return indexKeyPrefix + connectionID }

// Register inserts (or overwrites) the membership record for
// (roomID, connectionID). Re-registering the same key is an upsert, never an
// error.
func (s *Service) Register(ctx context.Context, roomID, connectionID, userID string) (models.Connection, error) {
	now := s.now().UTC()
	conn := models.Connection{
		RoomID:       roomID,
		ConnectionID: connectionID,
		UserID:       userID,
		ConnectedAt:  now,
		ExpiresAt:    now.Add(config.ConnectionTTL),
	}

	data, err := json.Marshal(conn)
	if err != nil {
		return models.Connection{}, unavailable("encode connection", err)
	}
	if err := s.Redis.HSet(ctx, roomKey(roomID), connectionID, data).Err(); err != nil {
		return models.Connection{}, unavailable("register connection", err)
	}
	if err := s.Redis.Set(ctx, indexKey(connectionID), roomID, config.ConnectionTTL).Err(); err != nil {
		return models.Connection{}, unavailable("register connection index", err)
	}
	return conn, nil
}

// Remove deletes the record for the full (roomID, connectionID) key. Removing
// an absent record is a no-op and reports false.
func (s *Service) Remove(ctx context.Context, roomID, connectionID string) (bool, error) {
	n, err := s.Redis.HDel(ctx, roomKey(roomID), connectionID).Result()
	if err != nil {
		return false, unavailable("remove connection", err)
	}
	if err := s.Redis.Del(ctx, indexKey(connectionID)).Err(); err != nil {
		return n > 0, unavailable("remove connection index", err)
	}
	return n > 0, nil
}

// RemoveByConnection locates the room owning connectionID and deletes the
// record. The index key answers the lookup in O(1); if it is missing (expired
// or lost) the rooms are scanned as a fallback. Not-found is false, not an
// error.
func (s *Service) RemoveByConnection(ctx context.Context, connectionID string) (bool, error) {
	roomID, err := s.Redis.Get(ctx, indexKey(connectionID)).Result()
	if errors.Is(err, redis.Nil) {
		return s.removeByScan(ctx, connectionID)
	}
	if err != nil {
		return false, unavailable("lookup connection index", err)
	}
	return s.Remove(ctx, roomID, connectionID)
}

func (s *Service) removeByScan(ctx context.Context, connectionID string) (bool, error) {
	var cursor uint64
	for {
		keys, next, err := s.Redis.Scan(ctx, cursor, roomKeyPrefix+"*", 100).Result()
		if err != nil {
			return false, unavailable("scan rooms", err)
		}
		for _, key := range keys {
			n, err := s.Redis.HDel(ctx, key, connectionID).Result()
			if err != nil {
				return false, unavailable("remove connection", err)
			}
			if n > 0 {
				return true, nil
			}
		}
		cursor = next
		if cursor == 0 {
			return false, nil
		}
	}
}

// ListByRoom returns the current non-expired members of a room. An empty room
// yields an empty slice, not an error. Expired entries encountered on the way
// are reaped lazily.
func (s *Service) ListByRoom(ctx context.Context, roomID string) ([]models.Connection, error) {
	raw, err := s.Redis.HGetAll(ctx, roomKey(roomID)).Result()
	if err != nil {
		return nil, unavailable("list room", err)
	}

	members, expired := decodeMembers(raw, s.now().UTC())
	if len(expired) > 0 {
		if err := s.Redis.HDel(ctx, roomKey(roomID), expired...).Err(); err != nil {
			// Expired entries will be retried on the next read.
			return members, nil
		}
	}
	return members, nil
}

// decodeMembers splits a raw room hash into live members and the field names
// of entries that are expired or undecodable.
func decodeMembers(raw map[string]string, now time.Time) ([]models.Connection, []string) {
	members := make([]models.Connection, 0, len(raw))
	var expired []string
	for field, data := range raw {
		var conn models.Connection
		if err := json.Unmarshal([]byte(data), &conn); err != nil {
			expired = append(expired, field)
			continue
		}
		if conn.Expired(now) {
			expired = append(expired, field)
			continue
		}
		members = append(members, conn)
	}
	return members, expired
}
