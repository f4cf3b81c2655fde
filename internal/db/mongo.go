package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/menjil-org/menjil-backend/internal/logger"
	"github.com/menjil-org/menjil-backend/internal/repos"
)

type MongoService struct {
	client   *mongo.Client
	database *mongo.Database
	log      *logger.Logger
}

func NewMongoService(ctx context.Context, uri, database string, timeout time.Duration, log *logger.Logger) (*MongoService, error) {
	serviceLog := log.With("service", "MongoService")

	serviceLog.Info("Attempting to connect to MongoDB now...")
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout).
		SetMaxPoolSize(20)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		serviceLog.Error("MongoDB ping failed", "error", err)
		return nil, fmt.Errorf("mongo ping failed: %w", err)
	}
	serviceLog.Info("Successfully Connected to MongoDB :)")

	return &MongoService{client: client, database: client.Database(database), log: serviceLog}, nil
}

// EnsureIndexes creates the message page index if it does not exist yet.
func (s *MongoService) EnsureIndexes(ctx context.Context) error {
	coll := s.database.Collection(repos.ChatMessageCollection)
	names, err := coll.Indexes().CreateMany(ctx, repos.ChatMessageIndexes())
	if err != nil {
		s.log.Error("failed to create chat message indexes", "error", err)
		return fmt.Errorf("create chat message indexes: %w", err)
	}
	s.log.Info("chat message indexes ensured", "indexes", names)
	return nil
}

func (s *MongoService) Database() *mongo.Database {
	return s.database
}

func (s *MongoService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
