package hid

import (
	"image"
	"log/slog"
	"math/rand"

	"github.com/go-vgo/robotgo"
	"github.com/hectorgimenez/beltkeeper/internal/utils"
)

// HID sends real keyboard and mouse input to the focused window. Modifier names are the ones
// defined in the game package, which robotgo understands as they are.
type HID struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *HID {
	return &HID{logger: logger}
}

func (h *HID) PressKey(key string) {
	if err := robotgo.KeyTap(key); err != nil {
		h.logger.Warn("Error pressing key", slog.String("key", key), slog.Any("error", err))
	}
}

func (h *HID) PressKeyWithModifier(key, modifier string) {
	if err := robotgo.KeyTap(key, modifier); err != nil {
		h.logger.Warn("Error pressing key", slog.String("key", key), slog.String("modifier", modifier), slog.Any("error", err))
	}
}

// MovePointer moves the cursor to a random point at most jitter pixels away from (x, y), waiting
// a random time within delay seconds first.
func (h *HID) MovePointer(x, y, jitter int, delay [2]float64) {
	if jitter > 0 {
		x += rand.Intn(jitter*2+1) - jitter
		y += rand.Intn(jitter*2+1) - jitter
	}
	if delay[1] > 0 {
		utils.RandomSleep(int(delay[0]*1000), int(delay[1]*1000))
	}

	robotgo.Move(x, y)
}

func (h *HID) CursorPosition() image.Point {
	x, y := robotgo.Location()

	return image.Point{X: x, Y: y}
}
