package history

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAppendAndRecentBuilds(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i, outcome := range []string{"success", "failed", "success"} {
		err := store.AppendBuild(ctx, BuildRecord{
			BuildID:         string(rune('a' + i)),
			Outcome:         outcome,
			DurationMS:      int64(100 * (i + 1)),
			CoveragePercent: 80 + i,
			StartedAt:       time.Now(),
			Report:          json.RawMessage(`{"outcome":"` + outcome + `"}`),
		})
		require.NoError(t, err)
	}

	records, err := store.RecentBuilds(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "c", records[0].BuildID)
	assert.Equal(t, "b", records[1].BuildID)
	assert.Equal(t, 82, records[0].CoveragePercent)
	assert.JSONEq(t, `{"outcome":"success"}`, string(records[0].Report))
}

func TestVerificationsForProject(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendVerify(ctx, VerifyRecord{
		Project: "artyz7", Outcome: "success", StartedAt: time.Now(), DurationMS: 1200,
	}))
	require.NoError(t, store.AppendVerify(ctx, VerifyRecord{
		Project: "artyz7", Outcome: "timing_failure", StartedAt: time.Now(), DurationMS: 900,
		Detail: "expected artifact missing",
	}))
	require.NoError(t, store.AppendVerify(ctx, VerifyRecord{
		Project: "other", Outcome: "success", StartedAt: time.Now(), DurationMS: 100,
	}))

	records, err := store.VerificationsForProject(ctx, "artyz7", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "timing_failure", records[0].Outcome)
	assert.Equal(t, "expected artifact missing", records[0].Detail)
	assert.Equal(t, "success", records[1].Outcome)
}

func TestOpenPersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.AppendBuild(ctx, BuildRecord{
		BuildID: "persisted", Outcome: "success", StartedAt: time.Now(),
	}))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	records, err := reopened.RecentBuilds(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "persisted", records[0].BuildID)
}
