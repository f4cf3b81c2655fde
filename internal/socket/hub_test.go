package socket

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menjil-org/menjil-backend/internal/logger"
)

func newTestClient(hub *Hub, buffer int) *Client {
	return &Client{
		ID:       uuid.New(),
		Hub:      hub,
		Log:      logger.NewNop(),
		Outbound: make(chan Message, buffer),
	}
}

func TestHub_BroadcastReachesOnlySubscribers(t *testing.T) {
	hub := NewHub(logger.NewNop())
	inRoom := newTestClient(hub, 4)
	elsewhere := newTestClient(hub, 4)
	hub.Subscribe(inRoom, []string{RoomChannel("r1")})
	hub.Subscribe(elsewhere, []string{RoomChannel("r2")})

	hub.BroadcastGlobal(context.Background(), Message{Channel: RoomChannel("r1"), Data: "hello"})

	require.Len(t, inRoom.Outbound, 1)
	got := <-inRoom.Outbound
	assert.Equal(t, "room:r1", got.Channel)
	assert.Equal(t, "hello", got.Data)
	assert.Empty(t, elsewhere.Outbound)
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub(logger.NewNop())
	c := newTestClient(hub, 4)
	hub.Subscribe(c, []string{RoomChannel("r1"), RoomChannel("r2")})
	assert.Equal(t, 1, hub.Subscribers(RoomChannel("r1")))

	hub.UnsubscribeFromChannel(c, RoomChannel("r1"))
	assert.Zero(t, hub.Subscribers(RoomChannel("r1")))
	assert.Equal(t, 1, hub.Subscribers(RoomChannel("r2")))

	hub.Unsubscribe(c)
	assert.Zero(t, hub.Subscribers(RoomChannel("r2")))
}

func TestHub_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub(logger.NewNop())
	c := newTestClient(hub, 1)
	hub.Subscribe(c, []string{RoomChannel("r1")})

	hub.BroadcastGlobal(context.Background(), Message{Channel: RoomChannel("r1"), Data: 1})
	hub.BroadcastGlobal(context.Background(), Message{Channel: RoomChannel("r1"), Data: 2})

	require.Len(t, c.Outbound, 1)
	assert.Equal(t, 1, (<-c.Outbound).Data)
}

func TestClient_HandleInboundOnlyJoinsRoomChannels(t *testing.T) {
	hub := NewHub(logger.NewNop())
	c := newTestClient(hub, 1)

	c.handleInbound(InboundMessage{Action: "subscribe", Channel: "room:r1"})
	c.handleInbound(InboundMessage{Action: "subscribe", Channel: "user:someone"})
	c.handleInbound(InboundMessage{Action: "subscribe", Channel: "room:"})
	assert.Equal(t, 1, hub.Subscribers("room:r1"))
	assert.Zero(t, hub.Subscribers("user:someone"))
	assert.Zero(t, hub.Subscribers("room:"))

	c.handleInbound(InboundMessage{Action: "unsubscribe", Channel: "room:r1"})
	assert.Zero(t, hub.Subscribers("room:r1"))
}

func TestPubSubEnvelopeRoundTrip(t *testing.T) {
	payload, err := encodePubSubMessage(envelope{Origin: "node-a", Message: Message{Channel: "room:r1", Data: "x"}})
	require.NoError(t, err)
	env, err := decodePubSubMessage(payload)
	require.NoError(t, err)
	assert.Equal(t, "node-a", env.Origin)
	assert.Equal(t, "room:r1", env.Message.Channel)

	_, err = decodePubSubMessage("{")
	assert.Error(t, err)
}
