package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/hectorgimenez/beltkeeper/internal/consumable"
	"github.com/hectorgimenez/beltkeeper/internal/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "data", "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	return j
}

func TestRecordAndRecent(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	first := event.ScanCompleted(event.Text("default", ""), event.SourceBelt, map[consumable.Kind]int{consumable.KindHealth: 4})
	second := event.ScanCompleted(event.Text("default", ""), event.SourceRefresh, map[consumable.Kind]int{
		consumable.KindHealth: 4,
		consumable.KindKey:    12,
	})
	require.NoError(t, j.Record(ctx, first))
	require.NoError(t, j.Record(ctx, second))

	entries, err := j.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, event.SourceRefresh, entries[0].Source)
	assert.Equal(t, "default", entries[0].Supervisor)
	assert.Equal(t, 12, entries[0].Needs[consumable.KindKey])
	assert.WithinDuration(t, second.OccurredAt(), entries[0].OccurredAt, time.Millisecond)

	entries, err = j.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Greater(t, entries[0].ID, entries[1].ID)
}

func TestHandlerOnlyRecordsScans(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	h := j.Handler()

	require.NoError(t, h(ctx, event.RestockNeeded(event.Text("default", ""), consumable.KindKey, 12)))
	require.NoError(t, h(ctx, event.ScanCompleted(event.Text("default", ""), event.SourceInventory, nil)))

	entries, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, event.SourceInventory, entries[0].Source)
}

func TestOpenWithoutPath(t *testing.T) {
	_, err := Open("")
	assert.ErrorIs(t, err, consumable.ErrMissingParameter)
}
