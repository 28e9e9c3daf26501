package inventory

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hectorgimenez/beltkeeper/internal/config"
	"github.com/hectorgimenez/beltkeeper/internal/consumable"
	"github.com/hectorgimenez/beltkeeper/internal/event"
	"github.com/hectorgimenez/beltkeeper/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScreen struct {
	grabs   int
	grabErr error
	last    image.Image
}

func (f *fakeScreen) Grab() (image.Image, error) {
	f.grabs++
	if f.grabErr != nil {
		return nil, f.grabErr
	}
	f.last = image.NewRGBA(image.Rect(0, 0, 10, 10))

	return f.last, nil
}

func (f *fakeScreen) ConvertMonitorToScreen(p image.Point) image.Point {
	return p.Sub(image.Point{X: 100, Y: 50})
}
func (f *fakeScreen) ConvertScreenToMonitor(p image.Point) image.Point {
	return p.Add(image.Point{X: 100, Y: 50})
}
func (f *fakeScreen) ConvertAbsToMonitor(p image.Point) image.Point { return p }

type fakeHID struct {
	keys  []string
	moves []image.Point
}

func (f *fakeHID) PressKey(key string)                { f.keys = append(f.keys, key) }
func (f *fakeHID) PressKeyWithModifier(key, _ string) { f.keys = append(f.keys, key) }
func (f *fakeHID) CursorPosition() image.Point        { return image.Point{} }
func (f *fakeHID) MovePointer(x, y, _ int, _ [2]float64) {
	f.moves = append(f.moves, image.Point{X: x, Y: y})
}

type fakeMatcher map[string]game.TemplateMatch

func (f fakeMatcher) Search(id string, _ image.Image, _ image.Rectangle, _ float64) game.TemplateMatch {
	return f[id]
}

// fakeReader answers with the text configured for the last hovered position.
type fakeReader struct {
	hid    *fakeHID
	texts  map[image.Point]string
	err    error
	called int
}

func (f *fakeReader) CropItemDescription(image.Image, string) ([]game.TextBox, error) {
	f.called++
	if f.err != nil {
		return nil, f.err
	}
	text, found := f.texts[f.hid.moves[len(f.hid.moves)-1]]
	if !found {
		return nil, nil
	}

	return []game.TextBox{{Text: text}}, nil
}

var (
	tpPos  = image.Point{X: 700, Y: 400}
	idPos  = image.Point{X: 730, Y: 400}
	keyPos = image.Point{X: 760, Y: 430}
)

func monitor(p image.Point) image.Point { return p.Add(image.Point{X: 100, Y: 50}) }

type fixture struct {
	resolver *Resolver
	screen   *fakeScreen
	hid      *fakeHID
	matcher  fakeMatcher
	reader   *fakeReader
	ledger   *consumable.Ledger
}

func newFixture() *fixture {
	cfg := config.Default()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{
		screen: &fakeScreen{},
		hid:    &fakeHID{},
		matcher: fakeMatcher{
			"TP_TOME": {Valid: true, Position: tpPos, Score: 0.97},
			"ID_TOME": {Valid: true, Position: idPos, Score: 0.95},
			"INV_KEY": {Valid: true, Position: keyPos, Score: 0.93},
		},
		ledger: consumable.NewLedger(logger),
	}
	f.reader = &fakeReader{hid: f.hid, texts: map[image.Point]string{
		monitor(tpPos):  "Tome of Town Portal\nQuantity: 15",
		monitor(idPos):  "Tome of Identify\nQuantity: 20",
		monitor(keyPos): "Key\nQuantity: 7",
	}}
	f.resolver = NewResolver(&cfg, f.screen, f.hid, f.matcher, f.reader, f.ledger, logger)
	f.resolver.sleep = func(int, int) {}

	return f
}

func TestResolveQuantity(t *testing.T) {
	f := newFixture()

	assert.Equal(t, 15, f.resolver.ResolveQuantity(context.Background(), consumable.KindTownPortal))
	assert.Equal(t, []string{"i", "i"}, f.hid.keys)
	assert.Equal(t, []image.Point{monitor(tpPos)}, f.hid.moves)

	assert.Equal(t, 7, f.resolver.ResolveQuantity(context.Background(), consumable.KindKey))
}

func TestNeed(t *testing.T) {
	f := newFixture()

	need, err := f.resolver.Need(context.Background(), consumable.KindTownPortal)
	require.NoError(t, err)
	assert.Equal(t, 5, need)

	need, err = f.resolver.Need(context.Background(), consumable.KindKey)
	require.NoError(t, err)
	assert.Equal(t, 5, need)
}

func TestNeedUnknownQuantityOverRequests(t *testing.T) {
	f := newFixture()
	delete(f.matcher, "TP_TOME")

	res := f.resolver.Resolve(context.Background(), consumable.KindTownPortal, image.NewRGBA(image.Rect(0, 0, 1, 1)))
	assert.Equal(t, StatusNotFound, res.Status)
	assert.Equal(t, Unknown, res.Value())

	need, err := f.resolver.Need(context.Background(), consumable.KindTownPortal)
	require.NoError(t, err)
	assert.Equal(t, 21, need)
}

func TestNeedArguments(t *testing.T) {
	f := newFixture()

	_, err := f.resolver.Need(context.Background(), "")
	assert.ErrorIs(t, err, consumable.ErrMissingParameter)

	_, err = f.resolver.Need(context.Background(), consumable.KindMana)
	assert.ErrorIs(t, err, consumable.ErrUnknownKind)
}

func TestResolveEmptyTome(t *testing.T) {
	f := newFixture()
	f.matcher["ID_TOME_RED"] = game.TemplateMatch{Valid: true, Position: idPos, Score: 0.99}

	res := f.resolver.Resolve(context.Background(), consumable.KindIdentify, image.NewRGBA(image.Rect(0, 0, 1, 1)))

	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, 0, res.Value())
	assert.Zero(t, f.reader.called)
	assert.Empty(t, f.hid.moves)
}

func TestResolveFailures(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))

	t.Run("ocr error", func(t *testing.T) {
		f := newFixture()
		f.reader.err = errors.New("tesseract not installed")

		res := f.resolver.Resolve(context.Background(), consumable.KindKey, img)
		assert.Equal(t, StatusCaptureFailed, res.Status)
		assert.Equal(t, Unknown, res.Value())
		assert.ErrorContains(t, res.Err, "tesseract")
	})

	t.Run("no description box", func(t *testing.T) {
		f := newFixture()
		f.reader.texts = map[image.Point]string{}

		res := f.resolver.Resolve(context.Background(), consumable.KindKey, img)
		assert.Equal(t, StatusCaptureFailed, res.Status)
	})

	t.Run("grab error", func(t *testing.T) {
		f := newFixture()
		f.screen.grabErr = errors.New("minimized")

		res := f.resolver.Resolve(context.Background(), consumable.KindKey, img)
		assert.Equal(t, StatusCaptureFailed, res.Status)
		assert.Equal(t, Unknown, f.resolver.ResolveQuantity(context.Background(), consumable.KindKey))
	})

	t.Run("no quantity", func(t *testing.T) {
		f := newFixture()
		f.reader.texts[monitor(keyPos)] = "Key\nDurability: 5"

		res := f.resolver.Resolve(context.Background(), consumable.KindKey, img)
		assert.Equal(t, StatusParseFailed, res.Status)
		assert.Equal(t, Unknown, res.Value())
	})

	t.Run("unsupported kind", func(t *testing.T) {
		f := newFixture()

		res := f.resolver.Resolve(context.Background(), consumable.KindHealth, img)
		assert.Equal(t, StatusUnsupported, res.Status)
		assert.ErrorIs(t, res.Err, consumable.ErrUnknownKind)
	})
}

func TestRefreshPublishesNeeds(t *testing.T) {
	f := newFixture()
	delete(f.matcher, "INV_KEY")
	f.ledger.Publish(map[consumable.Kind]int{consumable.KindHealth: 6})

	needs, err := f.resolver.Refresh(context.Background())
	require.NoError(t, err)

	want := map[consumable.Kind]int{consumable.KindTownPortal: 5, consumable.KindIdentify: 0, consumable.KindKey: 13}
	assert.Equal(t, want, needs)

	snap := f.ledger.Snapshot()
	assert.Equal(t, 5, snap[consumable.KindTownPortal])
	assert.Equal(t, 13, snap[consumable.KindKey])
	assert.Equal(t, 6, snap[consumable.KindHealth])
	// Inventory opened and closed once
	assert.Equal(t, []string{"i", "i"}, f.hid.keys)
}

func TestRefreshSendsInventoryCapture(t *testing.T) {
	f := newFixture()

	scans := make(chan event.ScanCompletedEvent, 100)
	listener := event.NewListener(slog.New(slog.NewTextHandler(io.Discard, nil)))
	listener.Register(func(_ context.Context, e event.Event) error {
		if scan, ok := e.(event.ScanCompletedEvent); ok {
			scans <- scan
		}
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go listener.Listen(ctx)

	needs, err := f.resolver.Refresh(context.Background())
	require.NoError(t, err)

	timeout := time.After(2 * time.Second)
	for {
		select {
		case scan := <-scans:
			if scan.Image() != f.screen.last {
				continue
			}
			assert.Equal(t, event.SourceInventory, scan.Source)
			assert.Equal(t, needs, scan.Needs)
			return
		case <-timeout:
			t.Fatal("inventory scan event not sent")
		}
	}
}

func TestRefreshCancelled(t *testing.T) {
	f := newFixture()
	f.ledger.Publish(map[consumable.Kind]int{consumable.KindKey: 2})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.resolver.Refresh(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, f.ledger.Snapshot()[consumable.KindKey])
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		text  string
		want  int
		found bool
	}{
		{"Quantity: 15", 15, true},
		{"Tome of Town Portal\nQuantity: 3", 3, true},
		{"Quantity:9", 9, true},
		{"Quantlty: 12", 12, true},
		{"Ouantity; 4", 4, true},
		{"Durability: 5", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, found := parseQuantity(tt.text)
		assert.Equal(t, tt.found, found, tt.text)
		assert.Equal(t, tt.want, got, tt.text)
	}
}
