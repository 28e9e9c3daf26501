package belt

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/hectorgimenez/beltkeeper/internal/config"
	"github.com/hectorgimenez/beltkeeper/internal/consumable"
	"github.com/hectorgimenez/beltkeeper/internal/event"
	"github.com/hectorgimenez/beltkeeper/internal/game"
	"github.com/hectorgimenez/beltkeeper/internal/utils"
)

// Times a surplus column is used hoping the game rotates it away
const surplusUseAttempts = 5

// Scanner reads the belt and computes how many potions of each kind are missing.
type Scanner struct {
	belt       config.Belt
	bindings   config.KeyBindings
	classifier *Classifier
	screen     game.FrameSource
	hid        game.InputInjector
	ledger     *consumable.Ledger
	logger     *slog.Logger
	supervisor string

	mu    sync.Mutex
	sleep func(minMs, maxMs int)
}

func NewScanner(cfg *config.Config, classifier *Classifier, screen game.FrameSource, hid game.InputInjector, ledger *consumable.Ledger, logger *slog.Logger) *Scanner {
	return &Scanner{
		belt:       cfg.Belt,
		bindings:   cfg.KeyBindings,
		classifier: classifier,
		screen:     screen,
		hid:        hid,
		ledger:     ledger,
		logger:     logger,
		supervisor: cfg.Name,
		sleep:      utils.RandomSleep,
	}
}

// Scan opens the belt, uses potions from columns holding more of a kind than configured, counts
// the missing potions and publishes them to the ledger. Nothing is published when it fails.
func (s *Scanner) Scan(ctx context.Context) (map[consumable.Kind]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.moveCursorAwayFromBelt()

	s.hid.PressKey(s.bindings.ShowBelt)
	defer func() {
		s.sleep(200, 200)
		s.hid.PressKey(s.bindings.ShowBelt)
	}()
	s.sleep(500, 500)

	frame, err := s.screen.Grab()
	if err != nil {
		return nil, fmt.Errorf("error capturing belt: %w", err)
	}
	if err = s.useSurplusColumns(ctx, frame); err != nil {
		return nil, err
	}

	frame, err = s.screen.Grab()
	if err != nil {
		return nil, fmt.Errorf("error capturing belt: %w", err)
	}
	needs, err := s.countMissing(ctx, frame)
	if err != nil {
		return nil, err
	}

	s.ledger.Publish(needs)
	s.logger.Debug(fmt.Sprintf("Belt needs: %d rejuv, %d health, %d mana", needs[consumable.KindRejuv], needs[consumable.KindHealth], needs[consumable.KindMana]))
	event.Send(event.ScanCompleted(event.WithScreenshot(s.supervisor, "", frame), event.SourceBelt, needs))

	return needs, nil
}

// Belt slots can't be read when the cursor is hovering them
func (s *Scanner) moveCursorAwayFromBelt() {
	pos := s.screen.ConvertMonitorToScreen(s.hid.CursorPosition())
	if float64(pos.Y) <= float64(s.belt.ScreenHeight)*0.72 {
		return
	}

	center := s.screen.ConvertAbsToMonitor(image.Point{X: -200, Y: -120})
	s.hid.MovePointer(center.X, center.Y, 100, [2]float64{0.4, 0.6})
}

func (s *Scanner) useSurplusColumns(ctx context.Context, frame image.Image) error {
	rowsLeft := s.belt.Columns.Quota()
	for column := 0; column < config.BeltColumnCount; column++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		potion, err := s.classifySlot(frame, column, 0)
		if err != nil {
			return err
		}
		kind, ok := potion.Consumable()
		if !ok {
			continue
		}

		rowsLeft[kind]--
		if rowsLeft[kind] >= 0 {
			continue
		}
		rowsLeft[kind]++

		s.logger.Info(fmt.Sprintf("Belt column %d has more %s potions than configured, using them", column+1, kind))
		for i := 0; i < surplusUseAttempts; i++ {
			s.hid.PressKey(s.bindings.Belt[column])
			s.sleep(200, 300)
		}
	}

	return nil
}

func (s *Scanner) countMissing(ctx context.Context, frame image.Image) (map[consumable.Kind]int, error) {
	order := consumable.PotionKinds()
	needs := make(map[consumable.Kind]int, len(order))
	for _, k := range order {
		needs[k] = 0
	}

	tops := make([]consumable.PotionKind, config.BeltColumnCount)
	rowsLeft := s.belt.Columns.Quota()
	for column := range tops {
		potion, err := s.classifySlot(frame, column, 0)
		if err != nil {
			return nil, err
		}
		tops[column] = potion
		if kind, ok := potion.Consumable(); ok && rowsLeft[kind] > 0 {
			rowsLeft[kind]--
		}
	}

	for column, top := range tops {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		active, filled := top.Consumable()
		if !filled {
			// The whole column is gone, refill it with the first kind still missing columns
			for _, k := range order {
				if rowsLeft[k] > 0 {
					rowsLeft[k]--
					needs[k] += s.belt.Rows
					break
				}
			}
			continue
		}

		for row := 1; row < s.belt.Rows; row++ {
			potion, err := s.classifySlot(frame, column, row)
			if err != nil {
				return nil, err
			}
			if potion == consumable.Empty {
				needs[active]++
			}
		}
	}

	return needs, nil
}

func (s *Scanner) classifySlot(frame image.Image, column, row int) (consumable.PotionKind, error) {
	potion, err := s.classifier.Classify(CutSlot(frame, s.belt.Slot.Rect(column, row)))
	if err != nil {
		return consumable.Empty, fmt.Errorf("error reading belt slot [column: %d, row: %d]: %w", column+1, row, err)
	}

	return potion, nil
}

// CutSlot returns the part of frame covered by rect, nil when frame is nil.
func CutSlot(frame image.Image, rect image.Rectangle) image.Image {
	if frame == nil {
		return nil
	}
	if si, ok := frame.(interface {
		SubImage(r image.Rectangle) image.Image
	}); ok {
		return si.SubImage(rect)
	}

	return imaging.Crop(frame, rect)
}
