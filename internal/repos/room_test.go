package repos

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menjil-org/menjil-backend/internal/logger"
	"github.com/menjil-org/menjil-backend/internal/types"
)

func TestRoomRepo_FindOrCreate(t *testing.T) {
	ctx := context.Background()
	rr := NewRoomRepo(newTestDB(t), logger.NewNop())

	first, created, err := rr.FindOrCreate(ctx, nil, "m1", "t1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, first.ID)

	again, created, err := rr.FindOrCreate(ctx, nil, "m1", "t1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	other, created, err := rr.FindOrCreate(ctx, nil, "m1", "t2")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestRoomRepo_FindOrCreateConcurrent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	rr := NewRoomRepo(db, logger.NewNop())

	const callers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ids     = map[string]struct{}{}
		creates int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			room, created, err := rr.FindOrCreate(ctx, nil, "m1", "t1")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			ids[room.ID] = struct{}{}
			if created {
				creates++
			}
		}()
	}
	wg.Wait()

	assert.Len(t, ids, 1)
	assert.Equal(t, 1, creates)
	var count int64
	require.NoError(t, db.Model(&types.Room{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRoomRepo_FindMentorNickname(t *testing.T) {
	ctx := context.Background()
	rr := NewRoomRepo(newTestDB(t), logger.NewNop())
	room, _, err := rr.FindOrCreate(ctx, nil, "m1", "t1")
	require.NoError(t, err)

	mentor, err := rr.FindMentorNickname(ctx, nil, room.ID, "m1")
	require.NoError(t, err)
	assert.Equal(t, "t1", mentor)

	_, err = rr.FindMentorNickname(ctx, nil, room.ID, "someone-else")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	_, err = rr.FindMentorNickname(ctx, nil, "missing", "m1")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRoomRepo_GetByParticipant(t *testing.T) {
	ctx := context.Background()
	rr := NewRoomRepo(newTestDB(t), logger.NewNop())
	for _, pair := range [][2]string{{"m1", "t1"}, {"m1", "t2"}, {"m2", "t1"}} {
		_, _, err := rr.FindOrCreate(ctx, nil, pair[0], pair[1])
		require.NoError(t, err)
	}

	byMentee, err := rr.GetByMentee(ctx, nil, "m1")
	require.NoError(t, err)
	assert.Len(t, byMentee, 2)

	byMentor, err := rr.GetByMentor(ctx, nil, "t1")
	require.NoError(t, err)
	assert.Len(t, byMentor, 2)

	none, err := rr.GetByMentor(ctx, nil, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)

	room, err := rr.GetByID(ctx, nil, byMentee[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "m1", room.MenteeNickname)

	_, err = rr.GetByID(ctx, nil, "missing")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}
