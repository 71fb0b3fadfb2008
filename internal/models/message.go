package models

import "time"

// Message is one persisted chat message. The log is append-only: rows are
// never updated or deleted by the messaging core.
type Message struct {
	ID uint `gorm:"primaryKey"`

	// RoomID is the room the message was sent to.
	RoomID string `gorm:"type:text;not null;uniqueIndex:idx_room_ts"`
	// Timestamp is assigned at append time and is unique within a room.
	Timestamp time.Time `gorm:"column:ts;not null;uniqueIndex:idx_room_ts"`
	// UserID is the sender's descriptive label.
	UserID string `gorm:"type:text;not null"`
	// Text is the message body, already trimmed-checked and truncated by the
	// engine before it reaches storage.
	Text string `gorm:"type:text;not null"`
	// OriginConnectionID is the session the message arrived on.
	OriginConnectionID string `gorm:"type:text;not null"`
}
