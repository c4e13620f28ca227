package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/selimd/campuschat-server/internal/chat"
)

// ChatHandlers provides HTTP handlers for chat history.
type ChatHandlers struct {
	hub *chat.Hub
	log *zerolog.Logger
}

// NewChatHandlers creates a new chat handlers instance.
func NewChatHandlers(hub *chat.Hub, logger *zerolog.Logger) *ChatHandlers {
	return &ChatHandlers{hub: hub, log: logger}
}

// History returns the last N messages of a room in chronological order.
// Unknown rooms yield an empty list rather than 404.
// GET /api/chat/:room/history?limit=
func (h *ChatHandlers) History(c *gin.Context) {
	roomKey := c.Param("room")

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	msgs, err := h.hub.History(c.Request.Context(), roomKey, limit)
	if err != nil {
		h.log.Error().Err(err).Str("room", roomKey).Msg("failed to fetch history")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if msgs == nil {
		msgs = []chat.Message{}
	}

	c.JSON(http.StatusOK, gin.H{
		"room_id":  roomKey,
		"messages": msgs,
		"count":    len(msgs),
	})
}
