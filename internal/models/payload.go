package models

import "time"

// Payload actions understood by clients.
const (
	ActionMessage             = "message"
	ActionMessageConfirmation = "messageConfirmation"
	ActionError               = "error"
)

// BroadcastPayload is the frame pushed to every member of a room when a
// message is sent. Field names are part of the client protocol.
type BroadcastPayload struct {
	Action    string    `json:"action"`
	RoomID    string    `json:"roomId"`
	UserID    string    `json:"userId"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ConfirmationPayload is pushed once to the originating connection after a
// broadcast settles, carrying how many deliveries succeeded.
type ConfirmationPayload struct {
	Action         string    `json:"action"`
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	BroadcastCount int       `json:"broadcastCount"`
}

// ErrorPayload is pushed to a connection whose own request was rejected.
type ErrorPayload struct {
	Action  string `json:"action"`
	Message string `json:"message"`
}

// InboundFrame is what a connected client sends over the socket.
type InboundFrame struct {
	Action  string `json:"action"`
	RoomID  string `json:"roomId"`
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

// BroadcastResult reports the outcome of one send: how many members were
// delivered to and how many the room had at fan-out time.
type BroadcastResult struct {
	BroadcastCount   int `json:"broadcastCount"`
	TotalConnections int `json:"totalConnections"`
}
