package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/selimd/campuschat-server/internal/chat"
)

const wsWriteTimeout = 5 * time.Second

// WSHandler upgrades HTTP connections and bridges them to the chat hub.
type WSHandler struct {
	hub *chat.Hub
	log *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *chat.Hub, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{hub: hub, log: logger}
}

// Handle serves GET /ws/:room?username=. The connection stays registered in
// the room until the transport closes or a broadcast write to it fails.
func (h *WSHandler) Handle(c *gin.Context) {
	roomKey := c.Param("room")
	username := strings.TrimSpace(c.Query("username"))
	if username == "" {
		c.JSON(stdhttp.StatusBadRequest, ErrorResponse{Error: "username is required"})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	connID := uuid.NewString()
	logger := h.log.With().Str("conn_id", connID).Str("room", roomKey).Str("user", username).Logger()
	logger.Debug().Msg("ws connected")

	ctx := c.Request.Context()
	wc := &wsConn{conn: conn}

	h.hub.Connect(ctx, roomKey, wc, username)
	// Deregister with a fresh context: the request context is already
	// canceled by the time the transport closes.
	defer h.hub.Disconnect(context.Background(), roomKey, wc)

	err = h.readLoop(ctx, conn, wc, roomKey, username)

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			status = websocket.StatusInternalError
			reason = "read error"
			logger.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, wc *wsConn, roomKey, username string) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		h.hub.HandleInbound(ctx, roomKey, wc, username, data)
	}
}

// wsConn adapts a websocket connection to chat.Conn. Writes are serialized
// and bounded so one slow peer cannot stall a broadcast indefinitely.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (w *wsConn) Send(ctx context.Context, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return w.conn.Write(ctx, websocket.MessageText, data)
}
