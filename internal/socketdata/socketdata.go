package socketdata

import (
	"context"
	"sync"

	"github.com/menjil-org/menjil-backend/internal/socket"
)

type key struct{}

var socketDataKey key

// SocketData collects the socket messages a request wants fanned out. They
// are only published once the request has succeeded.
type SocketData struct {
	mu       sync.Mutex
	messages []socket.Message
}

func WithSocketData(ctx context.Context) context.Context {
	return context.WithValue(ctx, socketDataKey, &SocketData{})
}

func GetSocketData(ctx context.Context) *SocketData {
	sd, ok := ctx.Value(socketDataKey).(*SocketData)
	if !ok {
		return nil
	}
	return sd
}

func (d *SocketData) AppendMessage(msg socket.Message) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.messages = append(d.messages, msg)
}

// Drain returns the queued messages and empties the outbox.
func (d *SocketData) Drain() []socket.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.messages
	d.messages = nil
	return out
}
