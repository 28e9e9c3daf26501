package consumable

import (
	"fmt"
	"log/slog"
	"sync"
)

// Ledger keeps how many units of every consumable are missing. Values never go below zero.
type Ledger struct {
	mu     sync.RWMutex
	needs  map[Kind]int
	logger *slog.Logger
}

func NewLedger(logger *slog.Logger) *Ledger {
	l := &Ledger{
		needs:  make(map[Kind]int, len(kinds)),
		logger: logger,
	}
	for _, k := range kinds {
		l.needs[k] = 0
	}

	return l
}

// Adjust increases (positive delta) or decreases (negative delta) the need of the consumable
// identified either by a canonical kind or by an item identifier. Unknown items are ignored.
func (l *Ledger) Adjust(identifier string, delta int) error {
	if identifier == "" {
		return fmt.Errorf("adjust consumable need: identifier: %w", ErrMissingParameter)
	}

	kind, found := Resolve(identifier)
	if !found {
		l.logger.Warn(fmt.Sprintf("Need ledger does not know about item: %s", identifier))
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.needs[kind] = max(0, l.needs[kind]+delta)

	return nil
}

func (l *Ledger) Query(kind Kind) (int, error) {
	if kind == "" {
		return 0, fmt.Errorf("query consumable need: kind: %w", ErrMissingParameter)
	}
	if !kind.Valid() {
		return 0, fmt.Errorf("query consumable need %q: %w", kind, ErrUnknownKind)
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.needs[kind], nil
}

func (l *Ledger) Snapshot() map[Kind]int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[Kind]int, len(l.needs))
	for k, v := range l.needs {
		out[k] = v
	}

	return out
}

// Publish replaces the given entries in a single critical section, readers either see all of
// them or none.
func (l *Ledger) Publish(needs map[Kind]int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for k, v := range needs {
		if !k.Valid() {
			l.logger.Warn("Skipping unknown consumable kind on publish", slog.String("kind", string(k)))
			continue
		}
		l.needs[k] = max(0, v)
	}
}

func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, k := range kinds {
		l.needs[k] = 0
	}
}
