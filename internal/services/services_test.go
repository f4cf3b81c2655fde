package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/menjil-org/menjil-backend/internal/logger"
	"github.com/menjil-org/menjil-backend/internal/repos"
	"github.com/menjil-org/menjil-backend/internal/types"
)

var kst = time.FixedZone("KST", 9*60*60)

type testStores struct {
	db       *gorm.DB
	rooms    repos.RoomRepo
	messages repos.ChatMessageRepo
}

func newTestStores(t *testing.T) *testStores {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&types.Room{}, &types.ChatMessage{}))
	return &testStores{
		db:       db,
		rooms:    repos.NewRoomRepo(db, logger.NewNop()),
		messages: repos.NewChatMessageRepo(db, logger.NewNop()),
	}
}

func (s *testStores) allMessages(t *testing.T, roomID string) []*types.ChatMessage {
	t.Helper()
	msgs, err := s.messages.GetLatestByRoomID(context.Background(), roomID, 1000)
	require.NoError(t, err)
	return msgs
}

func (s *testStores) countMessages(t *testing.T, kind types.MessageType) int {
	t.Helper()
	var n int64
	require.NoError(t, s.db.Model(&types.ChatMessage{}).Where("message_type = ?", kind).Count(&n).Error)
	return int(n)
}

var errStoreDown = errors.New("store unavailable")

// flakyMessageRepo fails Create for the listed kinds and every read when
// failReads is set.
type flakyMessageRepo struct {
	repos.ChatMessageRepo
	failCreate map[types.MessageType]bool
	failReads  bool
}

func (f *flakyMessageRepo) Create(ctx context.Context, msg *types.ChatMessage) (*types.ChatMessage, error) {
	if f.failCreate[msg.MessageType] {
		return nil, errStoreDown
	}
	return f.ChatMessageRepo.Create(ctx, msg)
}

func (f *flakyMessageRepo) GetLatestByRoomID(ctx context.Context, roomID string, limit int) ([]*types.ChatMessage, error) {
	if f.failReads {
		return nil, errStoreDown
	}
	return f.ChatMessageRepo.GetLatestByRoomID(ctx, roomID, limit)
}

type fakeSummarizer struct {
	mu      sync.Mutex
	summary string
	err     error
	block   bool
	calls   []string
}

func (f *fakeSummarizer) Summarize(ctx context.Context, question string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, question)
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.err != nil {
		return "", f.err
	}
	if f.summary == "" {
		return "summary of " + question, nil
	}
	return f.summary, nil
}

func (f *fakeSummarizer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeSimilarity struct {
	mu       sync.Mutex
	records  []types.SummaryRecord
	err      error
	requests []SimilarityRequest
}

func (f *fakeSimilarity) FindSimilar(ctx context.Context, req SimilarityRequest) ([]types.SummaryRecord, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func (f *fakeSimilarity) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}
