package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hectorgimenez/beltkeeper/internal/consumable"
	"github.com/hectorgimenez/beltkeeper/internal/town"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScanner struct {
	ledger *consumable.Ledger
	needs  map[consumable.Kind]int
	err    error
	calls  int
}

func (f *fakeScanner) Scan(context.Context) (map[consumable.Kind]int, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	f.ledger.Publish(f.needs)

	return f.needs, nil
}

type fakeInventory struct {
	ledger *consumable.Ledger
	needs  map[consumable.Kind]int
	err    error
	calls  int
}

func (f *fakeInventory) Refresh(context.Context) (map[consumable.Kind]int, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	f.ledger.Publish(f.needs)

	return f.needs, nil
}

func newTestBot() (*Bot, *fakeScanner, *fakeInventory, *consumable.Ledger) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ledger := consumable.NewLedger(logger)
	scanner := &fakeScanner{ledger: ledger, needs: map[consumable.Kind]int{
		consumable.KindRejuv:  0,
		consumable.KindHealth: 3,
		consumable.KindMana:   1,
	}}
	inv := &fakeInventory{ledger: ledger, needs: map[consumable.Kind]int{
		consumable.KindTownPortal: 5,
		consumable.KindIdentify:   0,
		consumable.KindKey:        21,
	}}
	b := NewBot("test", scanner, inv, town.NewEvaluator(ledger, logger), ledger, logger)

	return b, scanner, inv, ledger
}

func TestRefreshNeeds(t *testing.T) {
	b, scanner, inv, _ := newTestBot()

	needs, err := b.RefreshNeeds(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[consumable.Kind]int{
		consumable.KindRejuv:      0,
		consumable.KindHealth:     3,
		consumable.KindMana:       1,
		consumable.KindTownPortal: 5,
		consumable.KindIdentify:   0,
		consumable.KindKey:        21,
	}, needs)
	assert.Equal(t, 1, scanner.calls)
	assert.Equal(t, 1, inv.calls)
	assert.True(t, b.NeedsRestock())

	st := b.Status()
	assert.Equal(t, "test", st.Name)
	assert.Empty(t, st.LastError)
	assert.False(t, st.LastRefresh.IsZero())
	assert.Equal(t, []town.Purchase{
		{Kind: consumable.KindHealth, Quantity: 3},
		{Kind: consumable.KindTownPortal, Quantity: 5},
		{Kind: consumable.KindKey, Quantity: 21},
	}, st.Restock)
}

func TestRefreshNeedsInventoryFailureIsNotFatal(t *testing.T) {
	b, _, inv, _ := newTestBot()
	inv.err = errors.New("inventory did not open")

	needs, err := b.RefreshNeeds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, needs[consumable.KindHealth])
	assert.Zero(t, needs[consumable.KindKey])
}

func TestRefreshNeedsBeltFailure(t *testing.T) {
	b, scanner, inv, ledger := newTestBot()
	scanner.err = fmt.Errorf("error reading belt slot [column: 1, row: 0]: %w", consumable.ErrInvalidRegion)

	_, err := b.RefreshNeeds(context.Background())
	require.ErrorIs(t, err, consumable.ErrInvalidRegion)
	assert.Zero(t, inv.calls)
	assert.Zero(t, ledger.Snapshot()[consumable.KindHealth])
	assert.Contains(t, b.Status().LastError, "belt scan failed")
	assert.False(t, b.NeedsRestock())
}

func TestRunStopsOnSetupErrors(t *testing.T) {
	b, scanner, _, _ := newTestBot()
	scanner.err = consumable.ErrInvalidRegion

	triggers := make(chan struct{}, 1)
	triggers <- struct{}{}

	err := b.Run(context.Background(), triggers)
	require.ErrorIs(t, err, consumable.ErrInvalidRegion)
}

func TestRunKeepsGoingOnCaptureErrors(t *testing.T) {
	b, scanner, _, _ := newTestBot()
	scanner.err = errors.New("window not found")

	triggers := make(chan struct{}, 2)
	triggers <- struct{}{}
	triggers <- struct{}{}
	close(triggers)

	done := make(chan error)
	go func() { done <- b.Run(context.Background(), triggers) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("run did not stop after triggers were closed")
	}
	assert.Equal(t, 2, scanner.calls)
}

func TestResetNeeds(t *testing.T) {
	b, _, _, ledger := newTestBot()
	_, err := b.RefreshNeeds(context.Background())
	require.NoError(t, err)

	b.ResetNeeds()
	assert.Zero(t, ledger.Snapshot()[consumable.KindKey])
	assert.False(t, b.NeedsRestock())
}
