package models

import "time"

// Connection is one live client session's membership record in a room.
// (RoomID, ConnectionID) is the primary key; a connection belongs to at most
// one room at a time. Records are immutable after registration and disappear
// on explicit disconnect, on a gone delivery, or once ExpiresAt passes.
type Connection struct {
	// RoomID is the identifier of the room this connection is a member of.
	RoomID string `json:"roomId"`
	// ConnectionID is the opaque identity of the transport session. It is
	// the primary handle for delivery and removal.
	ConnectionID string `json:"connectionId"`
	// UserID is a descriptive, non-unique label for the user behind the
	// session.
	UserID string `json:"userId"`
	// ConnectedAt is the registration time.
	ConnectedAt time.Time `json:"connectedAt"`
	// ExpiresAt is the point after which the registry may drop the record
	// without an explicit disconnect.
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the record has passed its expiry horizon.
func (c Connection) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
