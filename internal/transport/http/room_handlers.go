package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/selimd/campuschat-server/internal/chat"
	"github.com/selimd/campuschat-server/internal/store"
	"github.com/selimd/campuschat-server/internal/utils"
)

// RoomHandlers provides HTTP handlers for room management endpoints.
type RoomHandlers struct {
	store store.Store
	hub   *chat.Hub
	log   *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(st store.Store, hub *chat.Hub, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{store: st, hub: hub, log: logger}
}

// CreateRoomRequest represents the create room request body.
type CreateRoomRequest struct {
	RoomName string `json:"room_name" binding:"required,min=3,max=100"`
}

// CreateRoomResponse represents the create room response body.
type CreateRoomResponse struct {
	Success   bool   `json:"success"`
	Code      string `json:"code"`
	RoomName  string `json:"room_name"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

// CheckRoomResponse represents the room check response body.
type CheckRoomResponse struct {
	Exists   bool   `json:"exists"`
	Code     string `json:"code"`
	RoomName string `json:"room_name,omitempty"`
}

// RoomListEntry represents one room in the listing response.
type RoomListEntry struct {
	Code         string   `json:"room_id"`
	RoomName     string   `json:"room_name"`
	LastActivity string   `json:"last_activity,omitempty"`
	ActiveUsers  []string `json:"active_users"`
	UserCount    int      `json:"user_count"`
}

// CreateRoom handles room creation with a generated unique code.
// POST /api/rooms
func (h *RoomHandlers) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create room request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	code, err := utils.UniqueRoomCode(ctx, func(ctx context.Context, code string) (bool, error) {
		_, err := h.store.RoomByCode(ctx, code)
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		if errors.Is(err, utils.ErrCodeExhausted) {
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "could not generate a unique room code, please retry"})
			return
		}
		h.log.Error().Err(err).Msg("generate room code")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	room, err := h.store.CreateRoom(ctx, code, strings.TrimSpace(req.RoomName))
	if err != nil {
		h.log.Error().Err(err).Str("room_name", req.RoomName).Msg("failed to create room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("code", room.Code).Str("room_name", room.Name).Msg("room created")
	c.JSON(http.StatusCreated, CreateRoomResponse{
		Success:   true,
		Code:      room.Code,
		RoomName:  room.Name,
		Message:   "room created",
		CreatedAt: room.CreatedAt.Format(time.RFC3339),
	})
}

// CheckRoom reports whether a room code exists.
// GET /api/rooms/:code
func (h *RoomHandlers) CheckRoom(c *gin.Context) {
	code := c.Param("code")

	room, err := h.store.RoomByCode(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusOK, CheckRoomResponse{Exists: false, Code: code})
			return
		}
		h.log.Error().Err(err).Str("code", code).Msg("failed to check room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, CheckRoomResponse{Exists: true, Code: room.Code, RoomName: room.Name})
}

// ListRooms lists persisted rooms merged with live member info.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	rooms, err := h.store.ListActiveRooms(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list rooms")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	entries := make([]RoomListEntry, 0, len(rooms))
	seen := make(map[string]bool, len(rooms))
	for _, room := range rooms {
		users := h.hub.RoomUsers(room.Code)
		seen[room.Code] = true
		entries = append(entries, RoomListEntry{
			Code:         room.Code,
			RoomName:     room.Name,
			LastActivity: room.LastActivity.Format(time.RFC3339),
			ActiveUsers:  users,
			UserCount:    len(users),
		})
	}

	// Rooms that only exist in the live registry (joined over WebSocket but
	// with no durable messages yet) are still part of the listing.
	for _, status := range h.hub.ActiveRooms() {
		if seen[status.Key] {
			continue
		}
		entries = append(entries, RoomListEntry{
			Code:        status.Key,
			RoomName:    status.Key,
			ActiveUsers: status.Users,
			UserCount:   status.Count,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"total_rooms": len(entries),
		"rooms":       entries,
	})
}
