package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hectorgimenez/beltkeeper/internal/consumable"
	"github.com/hectorgimenez/beltkeeper/internal/event"
	"github.com/hectorgimenez/beltkeeper/internal/town"
)

type BeltScanner interface {
	Scan(ctx context.Context) (map[consumable.Kind]int, error)
}

type InventoryRefresher interface {
	Refresh(ctx context.Context) (map[consumable.Kind]int, error)
}

type Bot struct {
	name      string
	scanner   BeltScanner
	inventory InventoryRefresher
	evaluator *town.Evaluator
	ledger    *consumable.Ledger
	logger    *slog.Logger

	// Only one refresh at a time, the game window is shared
	refreshMux sync.Mutex

	lastRefreshMux sync.Mutex
	lastRefresh    time.Time
	lastErr        error
}

type Status struct {
	Name        string                  `json:"name"`
	Needs       map[consumable.Kind]int `json:"needs"`
	Restock     []town.Purchase         `json:"restock"`
	LastRefresh time.Time               `json:"lastRefresh"`
	LastError   string                  `json:"lastError,omitempty"`
}

func NewBot(name string, scanner BeltScanner, inventory InventoryRefresher, evaluator *town.Evaluator, ledger *consumable.Ledger, logger *slog.Logger) *Bot {
	return &Bot{
		name:      name,
		scanner:   scanner,
		inventory: inventory,
		evaluator: evaluator,
		ledger:    ledger,
		logger:    logger,
	}
}

// RefreshNeeds scans the belt and then the inventory, returning the resulting needs. Inventory
// failures are logged and the belt needs are kept.
func (b *Bot) RefreshNeeds(ctx context.Context) (map[consumable.Kind]int, error) {
	b.refreshMux.Lock()
	defer b.refreshMux.Unlock()

	needs, err := b.refresh(ctx)

	b.lastRefreshMux.Lock()
	b.lastRefresh = time.Now()
	b.lastErr = err
	b.lastRefreshMux.Unlock()

	return needs, err
}

func (b *Bot) refresh(ctx context.Context) (map[consumable.Kind]int, error) {
	started := time.Now()

	if _, err := b.scanner.Scan(ctx); err != nil {
		return nil, fmt.Errorf("belt scan failed: %w", err)
	}

	if _, err := b.inventory.Refresh(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		b.logger.Warn("Inventory refresh failed, keeping previous stackable needs", slog.Any("error", err))
	}

	needs := b.ledger.Snapshot()
	b.logger.Info("Consumable needs refreshed", slog.String("needs", event.FormatNeeds(needs)), slog.Duration("took", time.Since(started)))

	event.Send(event.ScanCompleted(event.Text(b.name, ""), event.SourceRefresh, needs))
	for _, p := range b.evaluator.RestockList() {
		event.Send(event.RestockNeeded(event.Text(b.name, ""), p.Kind, p.Quantity))
	}

	return needs, nil
}

// NeedsRestock tells if any consumable reached the buying threshold.
func (b *Bot) NeedsRestock() bool {
	return len(b.evaluator.RestockList()) > 0
}

// ResetNeeds forgets every need until the next refresh.
func (b *Bot) ResetNeeds() {
	b.ledger.Reset()
	b.logger.Info("Consumable needs reset")
}

func (b *Bot) Status() Status {
	b.lastRefreshMux.Lock()
	defer b.lastRefreshMux.Unlock()

	st := Status{
		Name:        b.name,
		Needs:       b.ledger.Snapshot(),
		Restock:     b.evaluator.RestockList(),
		LastRefresh: b.lastRefresh,
	}
	if b.lastErr != nil {
		st.LastError = b.lastErr.Error()
	}

	return st
}

// Run refreshes the needs every time a trigger arrives, until ctx is done or triggers is closed.
// Errors caused by a bad setup stop the loop, anything else is logged and waits for the next trigger.
func (b *Bot) Run(ctx context.Context, triggers <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-triggers:
			if !ok {
				return nil
			}
			_, err := b.RefreshNeeds(ctx)
			if err == nil {
				continue
			}
			if errors.Is(err, consumable.ErrInvalidRegion) || errors.Is(err, consumable.ErrMissingParameter) {
				return err
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			b.logger.Error("Error refreshing consumable needs", slog.Any("error", err))
		}
	}
}
