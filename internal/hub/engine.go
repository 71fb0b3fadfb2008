// Package hub implements the room-scoped broadcast engine: it validates
// inbound messages, persists them, fans them out to every registered member
// of the room, reaps connections whose transport session is gone, and
// confirms the delivery outcome back to the sender.
package hub

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/idan5353/Chat-App/internal/config"
	"github.com/idan5353/Chat-App/internal/models"
	"github.com/idan5353/Chat-App/internal/storage"
)

// Engine orchestrates connect, disconnect, and message events. It owns no
// state of its own: connection records live in the store's registry, messages
// in the store's log.
type Engine struct {
	store    storage.Store
	delivery DeliveryChannel
	log      zerolog.Logger
}

// NewEngine wires the engine's dependencies.
func NewEngine(store storage.Store, delivery DeliveryChannel, log zerolog.Logger) *Engine {
	return &Engine{
		store:    store,
		delivery: delivery,
		log:      log.With().Str("component", "hub").Logger(),
	}
}

// Connect registers a connection as a member of a room. Absent roomID and
// userID fall back to the well-known defaults.
func (e *Engine) Connect(ctx context.Context, roomID, userID, connectionID string) (models.Connection, error) {
	if roomID == "" {
		roomID = config.DefaultRoom
	}
	if userID == "" {
		userID = config.DefaultUser
	}

	conn, err := e.store.Register(ctx, roomID, connectionID, userID)
	if err != nil {
		return models.Connection{}, err
	}
	e.log.Info().
		Str("connection", connectionID).
		Str("room", roomID).
		Str("user", userID).
		Msg("connection registered")
	return conn, nil
}

// Disconnect removes a connection from whichever room it belongs to.
// Disconnecting an unknown connection is a no-op and reports false.
func (e *Engine) Disconnect(ctx context.Context, connectionID string) (bool, error) {
	removed, err := e.store.RemoveByConnection(ctx, connectionID)
	if err != nil {
		return false, err
	}
	if removed {
		e.log.Info().Str("connection", connectionID).Msg("connection removed")
	}
	return removed, nil
}

// SendRequest carries one inbound message event.
type SendRequest struct {
	RoomID             string
	UserID             string
	Text               string
	OriginConnectionID string
	// ReplyDomain identifies the transport endpoint to push replies through;
	// it is handed to the delivery channel untouched.
	ReplyDomain string
}

// SendMessage persists a message and broadcasts it to every member of the
// room. Delivery is best-effort and all-settled: each recipient is attempted
// independently, a failure to one never affects the others. Members whose
// session is gone are reaped from the registry. The sender receives exactly
// one confirmation attempt carrying the number of successful deliveries.
func (e *Engine) SendMessage(ctx context.Context, req SendRequest) (models.BroadcastResult, error) {
	roomID := req.RoomID
	if roomID == "" {
		roomID = config.DefaultRoom
	}
	userID := req.UserID
	if userID == "" {
		userID = config.DefaultUser
	}
	text := truncate(req.Text, config.MaxMessageLength)
	if strings.TrimSpace(text) == "" {
		return models.BroadcastResult{}, ErrEmptyMessage
	}

	ts, err := e.store.AppendMessage(ctx, roomID, userID, text, req.OriginConnectionID)
	if err != nil {
		return models.BroadcastResult{}, err
	}

	members, err := e.store.ListByRoom(ctx, roomID)
	if err != nil {
		// The message is durably appended at this point; without the member
		// list there is nothing to push. Accepted weak-consistency tradeoff.
		return models.BroadcastResult{}, err
	}
	if len(members) == 0 {
		e.log.Debug().Str("room", roomID).Msg("message stored, room has no members")
		return models.BroadcastResult{}, nil
	}

	payload, err := json.Marshal(models.BroadcastPayload{
		Action:    models.ActionMessage,
		RoomID:    roomID,
		UserID:    userID,
		Message:   text,
		Timestamp: ts,
	})
	if err != nil {
		return models.BroadcastResult{}, err
	}

	outcomes := e.fanOut(ctx, req.ReplyDomain, members, payload)
	successCount := e.settle(ctx, roomID, outcomes)

	e.confirm(ctx, req.ReplyDomain, req.OriginConnectionID, ts, successCount)

	e.log.Info().
		Str("room", roomID).
		Int("delivered", successCount).
		Int("members", len(members)).
		Msg("message broadcast")

	return models.BroadcastResult{
		BroadcastCount:   successCount,
		TotalConnections: len(members),
	}, nil
}

// confirm makes the single confirmation attempt to the originating
// connection. A failure here is logged only; the broadcast outcome stands.
func (e *Engine) confirm(ctx context.Context, domain, connectionID string, ts time.Time, successCount int) {
	payload, err := json.Marshal(models.ConfirmationPayload{
		Action:         models.ActionMessageConfirmation,
		Status:         "sent",
		Timestamp:      ts,
		BroadcastCount: successCount,
	})
	if err != nil {
		e.log.Error().Err(err).Msg("encode confirmation")
		return
	}

	sctx, cancel := context.WithTimeout(ctx, config.DeliveryTimeout)
	defer cancel()
	if err := e.delivery.Send(sctx, domain, connectionID, payload); err != nil {
		e.log.Warn().Err(err).Str("connection", connectionID).Msg("confirmation delivery failed")
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
