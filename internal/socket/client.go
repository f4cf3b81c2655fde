package socket

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/menjil-org/menjil-backend/internal/logger"
)

type InboundMessage struct {
	Action  string `json:"action,omitempty"`  // "subscribe" | "unsubscribe"
	Channel string `json:"channel,omitempty"` // "room:<roomId>"
}

const (
	OutboundChanBuffer = 256

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

const roomChannelPrefix = "room:"

// RoomChannel is the fan-out channel for a room's messages.
func RoomChannel(roomID string) string {
	return roomChannelPrefix + roomID
}

// Client is one websocket connection. Only room channels can be subscribed.
type Client struct {
	ID       uuid.UUID
	Conn     *websocket.Conn
	Hub      *Hub
	Log      *logger.Logger
	Outbound chan Message

	cancelFn  context.CancelFunc
	closeOnce sync.Once
}

// NewClient constructs a Client. The cancel function comes from the handler
// so the HTTP context can finish while the websocket lives on.
func NewClient(conn *websocket.Conn, hub *Hub, uid uuid.UUID, cancel context.CancelFunc, log *logger.Logger) *Client {
	return &Client{
		ID:       uid,
		Conn:     conn,
		Hub:      hub,
		Log:      log.With("client", uid.String()),
		cancelFn: cancel,
		Outbound: make(chan Message, OutboundChanBuffer),
	}
}

func (c *Client) ReadLoop(ctx context.Context)  { c.readLoop(ctx) }
func (c *Client) WriteLoop(ctx context.Context) { c.writeLoop(ctx) }

func (c *Client) readLoop(ctx context.Context) {
	defer c.close()

	c.Conn.SetReadLimit(1 << 20)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if ctx.Err() != nil {
			return
		}
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			c.Log.Debug("websocket read error, closing client", "error", err)
			return
		}
		var inbound InboundMessage
		if err := json.Unmarshal(data, &inbound); err != nil {
			c.Log.Debug("failed to unmarshal inbound message", "error", err, "raw", string(data))
			continue
		}
		c.handleInbound(inbound)
	}
}

func (c *Client) handleInbound(inbound InboundMessage) {
	if !strings.HasPrefix(inbound.Channel, roomChannelPrefix) || len(inbound.Channel) == len(roomChannelPrefix) {
		c.Log.Debug("ignoring inbound message for non-room channel", "action", inbound.Action, "channel", inbound.Channel)
		return
	}
	switch inbound.Action {
	case "subscribe":
		c.Hub.Subscribe(c, []string{inbound.Channel})
	case "unsubscribe":
		c.Hub.UnsubscribeFromChannel(c, inbound.Channel)
	default:
		c.Log.Debug("inbound websocket message unhandled", "action", inbound.Action)
	}
}

func (c *Client) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-c.Outbound:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteJSON(msg); err != nil {
				c.Log.Warn("failed writing JSON", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Log.Debug("ping error, shutting down", "error", err)
				return
			}
		}
	}
}

// close runs once per client, whichever pump exits first. The client leaves
// the hub before Outbound is closed so no broadcast can send on it afterwards.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.Log.Debug("closing client connection")
		if c.cancelFn != nil {
			c.cancelFn()
		}
		c.Hub.Unsubscribe(c)
		close(c.Outbound)
		_ = c.Conn.Close()
	})
}
