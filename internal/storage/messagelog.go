package storage

import (
	"context"
	"time"

	"github.com/idan5353/Chat-App/internal/models"
)

// AppendMessage persists one message and returns the timestamp assigned to
// it. Timestamps are strictly increasing within a room, so (roomID, ts) is a
// valid composite key even under concurrent appends.
func (s *Service) AppendMessage(ctx context.Context, roomID, userID, text, originConnectionID string) (time.Time, error) {
	ts := s.nextTimestamp(roomID)

	msg := models.Message{
		RoomID:             roomID,
		Timestamp:          ts,
		UserID:             userID,
		Text:               text,
		OriginConnectionID: originConnectionID,
	}
	if err := s.DB.WithContext(ctx).Create(&msg).Error; err != nil {
		return time.Time{}, unavailable("append message", err)
	}
	return ts, nil
}

func (s *Service) nextTimestamp(roomID string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now().UTC()
	if last, ok := s.lastTS[roomID]; ok && !ts.After(last) {
		ts = last.Add(time.Microsecond)
	}
	s.lastTS[roomID] = ts
	return ts
}

// RecentMessages returns up to limit most recent messages of a room, oldest
// first. Ops-side read used by the admin CLI; clients have no history API.
func (s *Service) RecentMessages(ctx context.Context, roomID string, limit int) ([]models.Message, error) {
	var msgs []models.Message
	err := s.DB.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("ts desc").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, unavailable("read messages", err)
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}
