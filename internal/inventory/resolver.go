package inventory

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/hectorgimenez/beltkeeper/internal/config"
	"github.com/hectorgimenez/beltkeeper/internal/consumable"
	"github.com/hectorgimenez/beltkeeper/internal/event"
	"github.com/hectorgimenez/beltkeeper/internal/game"
	"github.com/hectorgimenez/beltkeeper/internal/utils"
)

// Unknown is the quantity reported when it could not be determined.
const Unknown = -1

type Status int

const (
	StatusOK Status = iota
	StatusNotFound
	StatusCaptureFailed
	StatusParseFailed
	StatusUnsupported
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotFound:
		return "not found"
	case StatusCaptureFailed:
		return "capture failed"
	case StatusParseFailed:
		return "parse failed"
	case StatusUnsupported:
		return "unsupported"
	}

	return "unknown"
}

// Result is the outcome of reading the quantity of a stackable consumable. Quantity is only
// meaningful when Status is StatusOK.
type Result struct {
	Kind     consumable.Kind
	Quantity int
	Status   Status
	Err      error
}

// Value returns the quantity, or Unknown for any failure.
func (r Result) Value() int {
	if r.Status != StatusOK {
		return Unknown
	}

	return r.Quantity
}

type templateSet struct {
	item  string
	empty string
}

var templates = map[consumable.Kind]templateSet{
	consumable.KindTownPortal: {item: "TP_TOME", empty: "TP_TOME_RED"},
	consumable.KindIdentify:   {item: "ID_TOME", empty: "ID_TOME_RED"},
	consumable.KindKey:        {item: "INV_KEY"},
}

var (
	quantityPattern = regexp.MustCompile(`Quantity:\s*(\d+)`)
	labeledNumber   = regexp.MustCompile(`([A-Za-z0-9]+)\s*[:;]\s*(\d+)`)
)

// Resolver reads how many town portals, identify scrolls and keys are left in the inventory.
type Resolver struct {
	inventory    config.Inventory
	capacities   config.Capacities
	inventoryKey string
	screen       game.FrameSource
	hid          game.InputInjector
	matcher      game.TemplateMatcher
	reader       game.ItemReader
	ledger       *consumable.Ledger
	logger       *slog.Logger
	supervisor   string
	sleep        func(minMs, maxMs int)
}

func NewResolver(cfg *config.Config, screen game.FrameSource, hid game.InputInjector, matcher game.TemplateMatcher, reader game.ItemReader, ledger *consumable.Ledger, logger *slog.Logger) *Resolver {
	return &Resolver{
		inventory:    cfg.Inventory,
		capacities:   cfg.Capacities,
		inventoryKey: cfg.KeyBindings.Inventory,
		screen:       screen,
		hid:          hid,
		matcher:      matcher,
		reader:       reader,
		ledger:       ledger,
		logger:       logger,
		supervisor:   cfg.Name,
		sleep:        utils.RandomSleep,
	}
}

// Resolve reads the quantity of kind from an image of the open inventory. It hovers the item, so
// the cursor is moved as a side effect.
func (r *Resolver) Resolve(ctx context.Context, kind consumable.Kind, img image.Image) Result {
	res := Result{Kind: kind}
	set, found := templates[kind]
	if !found {
		res.Status = StatusUnsupported
		res.Err = fmt.Errorf("quantity of %q can not be resolved: %w", kind, consumable.ErrUnknownKind)
		return res
	}
	if err := ctx.Err(); err != nil {
		res.Status = StatusCaptureFailed
		res.Err = err
		return res
	}

	roi := r.inventory.Rect()
	match := r.matcher.Search(set.item, img, roi, r.inventory.TemplateThreshold)
	if set.empty != "" {
		// A tome without scrolls is drawn red
		if emptyMatch := r.matcher.Search(set.empty, img, roi, r.inventory.TemplateThreshold); emptyMatch.Valid && (!match.Valid || emptyMatch.Score > match.Score) {
			res.Quantity = 0
			return res
		}
	}
	if !match.Valid {
		res.Status = StatusNotFound
		res.Err = fmt.Errorf("%s not found in inventory", set.item)
		return res
	}

	pos := r.screen.ConvertScreenToMonitor(match.Position)
	r.hid.MovePointer(pos.X, pos.Y, 4, [2]float64{0.5, 0.7})
	r.sleep(200, 400)

	hovered, err := r.screen.Grab()
	if err != nil {
		res.Status = StatusCaptureFailed
		res.Err = fmt.Errorf("error capturing hovered %s: %w", kind, err)
		return res
	}
	boxes, err := r.reader.CropItemDescription(hovered, r.inventory.OCRLanguage)
	if err != nil {
		res.Status = StatusCaptureFailed
		res.Err = fmt.Errorf("error reading item description of %s: %w", kind, err)
		return res
	}
	if len(boxes) == 0 {
		res.Status = StatusCaptureFailed
		res.Err = errors.New("item description box not found")
		return res
	}

	qty, found := parseQuantity(boxes[0].Text)
	if !found {
		res.Status = StatusParseFailed
		res.Err = fmt.Errorf("no quantity in item description %q", boxes[0].Text)
		return res
	}
	res.Quantity = qty

	return res
}

// ResolveQuantity opens the inventory and reads the quantity of kind, Unknown when it fails.
func (r *Resolver) ResolveQuantity(ctx context.Context, kind consumable.Kind) int {
	results, _ := r.resolveWithInventoryOpen(ctx, []consumable.Kind{kind})

	return results[0].Value()
}

// Need returns how many units of kind must be bought to reach its capacity. An unknown quantity
// counts as -1, asking for one unit more than the capacity.
func (r *Resolver) Need(ctx context.Context, kind consumable.Kind) (int, error) {
	if kind == "" {
		return 0, fmt.Errorf("inventory need: kind: %w", consumable.ErrMissingParameter)
	}
	capacity, found := r.capacities.Of(kind)
	if !found {
		return 0, fmt.Errorf("inventory need %q: %w", kind, consumable.ErrUnknownKind)
	}

	return capacity - r.ResolveQuantity(ctx, kind), nil
}

// Refresh reads every stackable consumable at once and publishes their needs to the ledger.
func (r *Resolver) Refresh(ctx context.Context) (map[consumable.Kind]int, error) {
	results, img := r.resolveWithInventoryOpen(ctx, consumable.StackableKinds())
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	needs := make(map[consumable.Kind]int, len(results))
	for _, res := range results {
		if res.Status != StatusOK {
			r.logger.Warn("Could not determine consumable quantity",
				slog.String("kind", string(res.Kind)),
				slog.String("status", res.Status.String()),
				slog.Any("error", res.Err),
			)
		}
		capacity, _ := r.capacities.Of(res.Kind)
		needs[res.Kind] = capacity - res.Value()
	}

	r.ledger.Publish(needs)
	r.logger.Debug(fmt.Sprintf("Inventory needs: %d tp, %d id, %d key", needs[consumable.KindTownPortal], needs[consumable.KindIdentify], needs[consumable.KindKey]))
	event.Send(event.ScanCompleted(event.WithScreenshot(r.supervisor, "", img), event.SourceInventory, needs))

	return needs, nil
}

// resolveWithInventoryOpen also returns the inventory capture, nil when it failed.
func (r *Resolver) resolveWithInventoryOpen(ctx context.Context, kinds []consumable.Kind) ([]Result, image.Image) {
	r.hid.PressKey(r.inventoryKey)
	defer func() {
		r.sleep(100, 200)
		r.hid.PressKey(r.inventoryKey)
	}()
	r.sleep(300, 400)

	results := make([]Result, 0, len(kinds))
	img, err := r.screen.Grab()
	if err != nil {
		for _, k := range kinds {
			results = append(results, Result{Kind: k, Status: StatusCaptureFailed, Err: fmt.Errorf("error capturing inventory: %w", err)})
		}
		return results, nil
	}

	for _, k := range kinds {
		results = append(results, r.Resolve(ctx, k, img))
	}

	return results, img
}

func parseQuantity(text string) (int, bool) {
	if m := quantityPattern.FindStringSubmatch(text); m != nil {
		if qty, err := strconv.Atoi(m[1]); err == nil {
			return qty, true
		}
	}

	// OCR often misreads a letter or two of the label
	for _, m := range labeledNumber.FindAllStringSubmatch(text, -1) {
		if levenshtein.ComputeDistance(strings.ToLower(m[1]), "quantity") > 2 {
			continue
		}
		if qty, err := strconv.Atoi(m[2]); err == nil {
			return qty, true
		}
	}

	return 0, false
}
