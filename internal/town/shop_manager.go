package town

import (
	"fmt"
	"log/slog"

	"github.com/hectorgimenez/beltkeeper/internal/consumable"
)

// DefaultMinimum is the need from which a consumable is worth a trip to the vendor.
const DefaultMinimum = 2

type NeedReader interface {
	Query(kind consumable.Kind) (int, error)
}

type Purchase struct {
	Kind     consumable.Kind
	Quantity int
}

// Evaluator decides what to buy from the current needs. It never modifies them.
type Evaluator struct {
	needs  NeedReader
	logger *slog.Logger
}

func NewEvaluator(needs NeedReader, logger *slog.Logger) *Evaluator {
	return &Evaluator{needs: needs, logger: logger}
}

func (e *Evaluator) ShouldBuy(kind consumable.Kind) (bool, error) {
	return e.ShouldBuyAtLeast(kind, DefaultMinimum)
}

func (e *Evaluator) ShouldBuyAtLeast(kind consumable.Kind, minimum int) (bool, error) {
	if kind == "" {
		return false, fmt.Errorf("should buy: kind: %w", consumable.ErrMissingParameter)
	}

	need, err := e.needs.Query(kind)
	if err != nil {
		return false, err
	}

	return need >= minimum, nil
}

// RestockList returns every consumable that should be bought, in canonical order.
func (e *Evaluator) RestockList() []Purchase {
	var purchases []Purchase
	for _, k := range consumable.Kinds() {
		need, err := e.needs.Query(k)
		if err != nil {
			e.logger.Error("Error reading consumable need", slog.String("kind", string(k)), slog.Any("error", err))
			continue
		}
		if need >= DefaultMinimum {
			purchases = append(purchases, Purchase{Kind: k, Quantity: need})
		}
	}

	if len(purchases) > 0 {
		e.logger.Debug(fmt.Sprintf("Restock needed: %v", purchases))
	}

	return purchases
}
