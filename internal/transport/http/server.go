package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/selimd/campuschat-server/internal/chat"
	"github.com/selimd/campuschat-server/internal/config"
	"github.com/selimd/campuschat-server/internal/store"
)

// ErrorResponse is the uniform error body for REST endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewServer builds the HTTP server hosting the REST API and the WebSocket
// endpoint.
func NewServer(hub *chat.Hub, st store.Store, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(hub, st, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter wires all routes into a gin engine.
func NewRouter(hub *chat.Hub, st store.Store, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})

	ws := NewWSHandler(hub, logger)
	router.GET("/ws/:room", ws.Handle)

	rooms := NewRoomHandlers(st, hub, logger)
	chats := NewChatHandlers(hub, logger)

	api := router.Group("/api")
	api.POST("/rooms", rooms.CreateRoom)
	api.GET("/rooms", rooms.ListRooms)
	api.GET("/rooms/:code", rooms.CheckRoom)
	api.GET("/chat/:room/history", chats.History)

	return router
}
