package memory

import (
	"context"
	"encoding/json"
	gosync "sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studysync/internal/domain/sync"
)

func note(id string, updatedAt int64, text string) sync.Record {
	return sync.Record{
		ID:        id,
		OwnerID:   "owner-1",
		Type:      sync.RecTypeNote,
		CreatedAt: updatedAt,
		UpdatedAt: updatedAt,
		Payload:   json.RawMessage(`{"text":"` + text + `"}`),
	}
}

func TestSyncRepository_UpsertAndGet(t *testing.T) {
	repo := NewSyncRepository()
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, note("n1", 100, "a")))

	rec, err := repo.Get(ctx, "owner-1", sync.RecTypeNote, "n1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), rec.UpdatedAt)

	_, err = repo.Get(ctx, "owner-1", sync.RecTypeNote, "missing")
	assert.ErrorIs(t, err, sync.ErrNotFound)
}

func TestSyncRepository_StaleRejected(t *testing.T) {
	repo := NewSyncRepository()
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, note("n1", 200, "new")))

	err := repo.Upsert(ctx, note("n1", 200, "same"))
	assert.ErrorIs(t, err, sync.ErrStale)

	err = repo.Upsert(ctx, note("n1", 100, "old"))
	assert.ErrorIs(t, err, sync.ErrStale)

	rec, err := repo.Get(ctx, "owner-1", sync.RecTypeNote, "n1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"new"}`, string(rec.Payload))
}

func TestSyncRepository_ChangedSinceOrdering(t *testing.T) {
	repo := NewSyncRepository()
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, note("b", 200, "")))
	require.NoError(t, repo.Upsert(ctx, note("a", 200, "")))
	require.NoError(t, repo.Upsert(ctx, note("c", 100, "")))

	records, err := repo.ChangedSince(ctx, "owner-1", sync.RecTypeNote, 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "c", records[0].ID)
	assert.Equal(t, "a", records[1].ID)
	assert.Equal(t, "b", records[2].ID)

	records, err = repo.ChangedSince(ctx, "owner-1", sync.RecTypeNote, 100)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestSyncRepository_CursorRegressionRejected(t *testing.T) {
	repo := NewSyncRepository()
	ctx := context.Background()

	require.NoError(t, repo.SetCursor(ctx, "owner-1", sync.RecTypeTask, 300))

	err := repo.SetCursor(ctx, "owner-1", sync.RecTypeTask, 200)
	assert.ErrorIs(t, err, sync.ErrCursorRegression)

	cursor, err := repo.GetCursor(ctx, "owner-1", sync.RecTypeTask)
	require.NoError(t, err)
	assert.Equal(t, int64(300), cursor)
}

// Two devices race on the same record with T1 < T2. Whatever the
// interleaving, the surviving copy is the T2 one and exactly one of
// the writers gets a stale rejection.
func TestSyncRepository_ConcurrentUpsertNoLostUpdate(t *testing.T) {
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		repo := NewSyncRepository()

		var wg gosync.WaitGroup
		errs := make([]error, 2)

		wg.Add(2)
		go func() {
			defer wg.Done()
			errs[0] = repo.Upsert(ctx, note("n1", 100, "t1"))
		}()
		go func() {
			defer wg.Done()
			errs[1] = repo.Upsert(ctx, note("n1", 200, "t2"))
		}()
		wg.Wait()

		rec, err := repo.Get(ctx, "owner-1", sync.RecTypeNote, "n1")
		require.NoError(t, err)
		assert.Equal(t, int64(200), rec.UpdatedAt)
		assert.JSONEq(t, `{"text":"t2"}`, string(rec.Payload))

		// T2 always lands; T1 either landed first or was rejected as stale
		assert.NoError(t, errs[1])
		if errs[0] != nil {
			assert.ErrorIs(t, errs[0], sync.ErrStale)
		}
	}
}

func TestSyncRepository_OwnerIsolation(t *testing.T) {
	repo := NewSyncRepository()
	ctx := context.Background()

	mine := note("n1", 100, "mine")
	theirs := note("n1", 200, "theirs")
	theirs.OwnerID = "owner-2"

	require.NoError(t, repo.Upsert(ctx, mine))
	require.NoError(t, repo.Upsert(ctx, theirs))

	records, err := repo.ChangedSince(ctx, "owner-1", sync.RecTypeNote, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.JSONEq(t, `{"text":"mine"}`, string(records[0].Payload))
}
