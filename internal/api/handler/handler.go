// Package handler is the HTTP/WebSocket boundary of the chat backend. It
// upgrades client sockets, feeds connect/disconnect/message events into the
// hub engine, and exposes a health endpoint.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/idan5353/Chat-App/internal/hub"
	"github.com/idan5353/Chat-App/internal/storage"
)

// Handler holds the boundary's dependencies.
type Handler struct {
	Engine   *hub.Engine
	Sessions *SessionTable
	Store    *storage.Service

	log zerolog.Logger
}

// NewHandler wires a handler.
func NewHandler(engine *hub.Engine, sessions *SessionTable, store *storage.Service, log zerolog.Logger) *Handler {
	return &Handler{
		Engine:   engine,
		Sessions: sessions,
		Store:    store,
		log:      log.With().Str("component", "handler").Logger(),
	}
}

// Health reports whether the storage backends are reachable.
func (h *Handler) Health(c *gin.Context) {
	if err := h.Store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": h.Sessions.Len()})
}
