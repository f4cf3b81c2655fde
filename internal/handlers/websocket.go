package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/menjil-org/menjil-backend/internal/logger"
	"github.com/menjil-org/menjil-backend/internal/socket"
)

// NewUpgrader accepts same-origin requests and requests from allowedOrigins;
// "*" allows any origin.
func NewUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowAll := false
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		o = strings.TrimSpace(o)
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if allowAll || origin == "" {
				return true
			}
			_, ok := allowed[origin]
			return ok
		},
	}
}

// WsHandler upgrades the connection and optionally subscribes it to the room
// given in the roomId query parameter. Further rooms are joined by sending
// {"action":"subscribe","channel":"room:<id>"}.
func WsHandler(hub *socket.Hub, upgrader websocket.Upgrader, log *logger.Logger) gin.HandlerFunc {
	log = log.With("handler", "WsHandler")
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn("failed to upgrade to websocket", "error", err)
			return
		}
		ctx, cancel := context.WithCancel(context.Background())
		client := socket.NewClient(conn, hub, uuid.New(), cancel, log)

		if roomID := strings.TrimSpace(c.Query("roomId")); roomID != "" {
			hub.Subscribe(client, []string{socket.RoomChannel(roomID)})
		}

		go client.WriteLoop(ctx)
		go client.ReadLoop(ctx)
	}
}
