package operations_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charmcli/internal/operations"
	"charmcli/pkg/contracts/domain"
)

func runStores(t *testing.T) map[string]operations.RunStore {
	t.Helper()
	bolt, err := operations.OpenBoltRunStore(filepath.Join(t.TempDir(), "state", "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { bolt.Close() })

	return map[string]operations.RunStore{
		"memory": operations.NewMemoryRunStore(),
		"bolt":   bolt,
	}
}

func TestRunStore(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for name, store := range runStores(t) {
		t.Run(name, func(t *testing.T) {
			first := domain.RunRecord{
				ID:           "r1",
				Step:         operations.StepAll,
				Participants: []string{"01", "02"},
				Status:       domain.RunStatusPending,
				CreatedAt:    base,
			}
			require.NoError(t, store.CreateRun(first))
			assert.Error(t, store.CreateRun(first), "duplicate run")

			got, err := store.GetRun("r1")
			require.NoError(t, err)
			assert.Equal(t, []string{"01", "02"}, got.Participants)
			assert.True(t, base.Equal(got.CreatedAt))

			done := base.Add(time.Minute)
			first.Status = domain.RunStatusCompleted
			first.CompletedAt = &done
			first.Steps = []domain.StepRecord{{ID: operations.StepIDCosinor, Status: "completed", Participants: 2}}
			require.NoError(t, store.UpdateRun(first))

			got, err = store.GetRun("r1")
			require.NoError(t, err)
			assert.Equal(t, domain.RunStatusCompleted, got.Status)
			require.NotNil(t, got.CompletedAt)
			require.Len(t, got.Steps, 1)
			assert.Equal(t, 2, got.Steps[0].Participants)

			require.NoError(t, store.CreateRun(domain.RunRecord{
				ID:        "r2",
				Step:      operations.StepIDCosinor,
				Status:    domain.RunStatusFailed,
				CreatedAt: base.Add(time.Hour),
			}))

			all, err := store.ListRuns(operations.RunFilter{})
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, "r2", all[0].ID, "newest first")

			failed, err := store.ListRuns(operations.RunFilter{Status: domain.RunStatusFailed})
			require.NoError(t, err)
			require.Len(t, failed, 1)
			assert.Equal(t, "r2", failed[0].ID)

			limited, err := store.ListRuns(operations.RunFilter{Limit: 1})
			require.NoError(t, err)
			assert.Len(t, limited, 1)

			since, err := store.ListRuns(operations.RunFilter{Since: base.Add(30 * time.Minute)})
			require.NoError(t, err)
			require.Len(t, since, 1)
			assert.Equal(t, "r2", since[0].ID)

			_, err = store.GetRun("missing")
			assert.True(t, errors.Is(err, operations.ErrRunNotFound))
			err = store.UpdateRun(domain.RunRecord{ID: "missing"})
			assert.True(t, errors.Is(err, operations.ErrRunNotFound))
		})
	}
}

func TestBoltRunStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	store, err := operations.OpenBoltRunStore(path)
	require.NoError(t, err)
	require.NoError(t, store.CreateRun(domain.RunRecord{ID: "kept", Status: domain.RunStatusCompleted, CreatedAt: time.Now()}))
	require.NoError(t, store.Close())

	store, err = operations.OpenBoltRunStore(path)
	require.NoError(t, err)
	defer store.Close()

	rec, err := store.GetRun("kept")
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusCompleted, rec.Status)
}

func TestMemoryRunStore_ReturnsCopies(t *testing.T) {
	store := operations.NewMemoryRunStore()
	rec := domain.RunRecord{ID: "r", Participants: []string{"01"}}
	require.NoError(t, store.CreateRun(rec))

	rec.Participants[0] = "99"
	got, err := store.GetRun("r")
	require.NoError(t, err)
	assert.Equal(t, "01", got.Participants[0])
}
