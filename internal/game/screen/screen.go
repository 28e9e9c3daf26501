package screen

import (
	"fmt"
	"image"

	"github.com/hectorgimenez/beltkeeper/internal/config"
	"github.com/kbinani/screenshot"
)

// Screen captures the game window area of a monitor. Frames are returned in screen coordinates,
// (0, 0) being the top left corner of the game window.
type Screen struct {
	monitor int
	window  config.Window
}

func New(cfg *config.Config) (*Screen, error) {
	if n := screenshot.NumActiveDisplays(); cfg.Monitor < 0 || cfg.Monitor >= n {
		return nil, fmt.Errorf("monitor %d not found, %d active displays", cfg.Monitor, n)
	}

	return &Screen{monitor: cfg.Monitor, window: cfg.Window}, nil
}

func (s *Screen) Grab() (image.Image, error) {
	img, err := screenshot.CaptureRect(s.windowRect())
	if err != nil {
		return nil, fmt.Errorf("error capturing game window: %w", err)
	}

	return img, nil
}

func (s *Screen) ConvertMonitorToScreen(p image.Point) image.Point {
	return p.Sub(s.windowRect().Min)
}

func (s *Screen) ConvertScreenToMonitor(p image.Point) image.Point {
	return p.Add(s.windowRect().Min)
}

// ConvertAbsToMonitor converts a point relative to the game window center.
func (s *Screen) ConvertAbsToMonitor(p image.Point) image.Point {
	return s.ConvertScreenToMonitor(p.Add(image.Point{X: s.window.Width / 2, Y: s.window.Height / 2}))
}

func (s *Screen) windowRect() image.Rectangle {
	origin := screenshot.GetDisplayBounds(s.monitor).Min.Add(image.Point{X: s.window.OffsetX, Y: s.window.OffsetY})

	return image.Rectangle{Min: origin, Max: origin.Add(image.Point{X: s.window.Width, Y: s.window.Height})}
}
