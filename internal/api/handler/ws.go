package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/idan5353/Chat-App/internal/hub"
	"github.com/idan5353/Chat-App/internal/models"
	"github.com/idan5353/Chat-App/internal/storage"
)

const maxFrameSize = 4096

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allows connections from any origin. Tighten for production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the HTTP connection, assigns a connectionID, and
// registers the session with the room named in the query string.
//
//	GET /ws?roomId=<room>&userId=<user>
func (h *Handler) ServeWebSocket(c *gin.Context) {
	roomID := c.Query("roomId")
	userID := c.Query("userId")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to upgrade connection"})
		return
	}

	connectionID := uuid.NewString()
	h.Sessions.Add(connectionID, conn)

	if _, err := h.Engine.Connect(c.Request.Context(), roomID, userID, connectionID); err != nil {
		h.log.Error().Err(err).Str("connection", connectionID).Msg("failed to register connection")
		h.Sessions.Drop(connectionID)
		return
	}

	go h.readLoop(conn, connectionID, c.Request.Host)
}

// readLoop consumes frames from one socket until it closes, feeding message
// events into the engine. The socket's close always produces a disconnect
// event, so registry state follows session state.
func (h *Handler) readLoop(conn *websocket.Conn, connectionID, domain string) {
	defer func() {
		h.Sessions.Drop(connectionID)
		if _, err := h.Engine.Disconnect(context.Background(), connectionID); err != nil {
			h.log.Warn().Err(err).Str("connection", connectionID).Msg("disconnect cleanup failed")
		}
	}()

	conn.SetReadLimit(maxFrameSize)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn().Err(err).Str("connection", connectionID).Msg("read failed")
			}
			return
		}

		var frame models.InboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			h.pushError(domain, connectionID, "Invalid JSON")
			continue
		}

		switch frame.Action {
		case models.ActionMessage, "":
			h.handleMessage(domain, connectionID, frame)
		default:
			h.pushError(domain, connectionID, "Unknown action")
		}
	}
}

func (h *Handler) handleMessage(domain, connectionID string, frame models.InboundFrame) {
	_, err := h.Engine.SendMessage(context.Background(), hub.SendRequest{
		RoomID:             frame.RoomID,
		UserID:             frame.UserID,
		Text:               frame.Message,
		OriginConnectionID: connectionID,
		ReplyDomain:        domain,
	})
	switch {
	case err == nil:
	case errors.Is(err, hub.ErrEmptyMessage):
		h.pushError(domain, connectionID, "Message cannot be empty")
	case errors.Is(err, storage.ErrStorageUnavailable):
		h.pushError(domain, connectionID, "Failed to send message")
	default:
		h.log.Error().Err(err).Str("connection", connectionID).Msg("send failed")
		h.pushError(domain, connectionID, "Failed to send message")
	}
}

func (h *Handler) pushError(domain, connectionID, msg string) {
	payload, err := json.Marshal(models.ErrorPayload{Action: models.ActionError, Message: msg})
	if err != nil {
		return
	}
	if err := h.Sessions.Send(context.Background(), domain, connectionID, payload); err != nil {
		h.log.Debug().Err(err).Str("connection", connectionID).Msg("error push failed")
	}
}
