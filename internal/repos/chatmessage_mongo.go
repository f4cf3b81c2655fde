package repos

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/menjil-org/menjil-backend/internal/logger"
	"github.com/menjil-org/menjil-backend/internal/types"
)

const ChatMessageCollection = "chat_message"

type mongoChatMessageRepo struct {
	coll *mongo.Collection
	log  *logger.Logger
}

func NewMongoChatMessageRepo(database *mongo.Database, baseLog *logger.Logger) ChatMessageRepo {
	return &mongoChatMessageRepo{
		coll: database.Collection(ChatMessageCollection),
		log:  baseLog.With("repo", "MongoChatMessageRepo"),
	}
}

// ChatMessageIndexes backs the (room_id, time DESC, _id DESC) page query.
func ChatMessageIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "room_id", Value: 1},
				{Key: "time", Value: -1},
				{Key: "_id", Value: -1},
			},
			Options: options.Index().SetName("idx_chat_message_room_time"),
		},
	}
}

func (r *mongoChatMessageRepo) Create(ctx context.Context, msg *types.ChatMessage) (*types.ChatMessage, error) {
	prepareMessage(msg)
	if _, err := r.coll.InsertOne(ctx, msg); err != nil {
		r.log.Error("failed to insert chat message", "roomID", msg.RoomID, "type", msg.MessageType, "error", err)
		return nil, fmt.Errorf("insert chat message: %w", err)
	}
	return msg, nil
}

func (r *mongoChatMessageRepo) GetLatestByRoomID(ctx context.Context, roomID string, limit int) ([]*types.ChatMessage, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "time", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := r.coll.Find(ctx, bson.M{"room_id": roomID}, opts)
	if err != nil {
		r.log.Error("failed to query chat messages", "roomID", roomID, "error", err)
		return nil, fmt.Errorf("find chat messages by room: %w", err)
	}
	var msgs []*types.ChatMessage
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, fmt.Errorf("decode chat messages: %w", err)
	}
	return msgs, nil
}
