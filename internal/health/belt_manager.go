package health

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/hectorgimenez/beltkeeper/internal/belt"
	"github.com/hectorgimenez/beltkeeper/internal/config"
	"github.com/hectorgimenez/beltkeeper/internal/consumable"
	"github.com/hectorgimenez/beltkeeper/internal/event"
	"github.com/hectorgimenez/beltkeeper/internal/game"
	"github.com/hectorgimenez/d2go/pkg/data"
)

type Classifier interface {
	Classify(img image.Image) (consumable.PotionKind, error)
}

type BeltManager struct {
	slot       config.Slot
	bindings   config.KeyBindings
	classifier Classifier
	screen     game.FrameSource
	hid        game.InputInjector
	ledger     *consumable.Ledger
	logger     *slog.Logger
	supervisor string
}

func NewBeltManager(cfg *config.Config, classifier Classifier, screen game.FrameSource, hid game.InputInjector, ledger *consumable.Ledger, logger *slog.Logger) *BeltManager {
	return &BeltManager{
		slot:       cfg.Belt.Slot,
		bindings:   cfg.KeyBindings,
		classifier: classifier,
		screen:     screen,
		hid:        hid,
		ledger:     ledger,
		logger:     logger,
		supervisor: cfg.Name,
	}
}

// DrinkPotion uses the first belt column showing the potion on its top slot, giving it to the
// mercenary when merc is set. The used potion is added to the needs.
func (bm BeltManager) DrinkPotion(potionType data.PotionType, merc bool) (bool, error) {
	kind, ok := consumable.FromPotionType(potionType)
	if !ok {
		return false, fmt.Errorf("drink potion: type %q: %w", potionType, consumable.ErrMissingParameter)
	}
	potion := kind.PotionKind()

	frame, err := bm.screen.Grab()
	if err != nil {
		return false, fmt.Errorf("error capturing belt: %w", err)
	}

	for column := 0; column < config.BeltColumnCount; column++ {
		found, err := bm.classifier.Classify(belt.CutSlot(frame, bm.slot.Rect(column, 0)))
		if err != nil {
			return false, fmt.Errorf("error reading belt slot [column: %d, row: 0]: %w", column+1, err)
		}
		if found != potion {
			continue
		}

		binding := bm.bindings.Belt[column]
		if merc {
			bm.hid.PressKeyWithModifier(binding, game.ShiftKey)
			bm.logger.Debug(fmt.Sprintf("Using %s potion on Mercenary [Column: %d]", kind, column+1))
		} else {
			bm.hid.PressKey(binding)
			bm.logger.Debug(fmt.Sprintf("Using %s potion [Column: %d]", kind, column+1))
		}
		if err := bm.ledger.Adjust(string(kind), 1); err != nil {
			return true, err
		}
		event.Send(event.UsedPotion(event.Text(bm.supervisor, fmt.Sprintf("Used %s potion", kind)), kind, merc))

		return true, nil
	}

	return false, nil
}
