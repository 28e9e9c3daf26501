package game

import (
	"image"
)

// ShiftKey is held to give a belt potion to the mercenary.
const ShiftKey = "shift"

// FrameSource captures the game client and converts between coordinate spaces:
// monitor (absolute desktop pixels), screen (relative to the game window) and
// abs (relative to the game window center).
type FrameSource interface {
	Grab() (image.Image, error)
	ConvertMonitorToScreen(p image.Point) image.Point
	ConvertScreenToMonitor(p image.Point) image.Point
	ConvertAbsToMonitor(p image.Point) image.Point
}

// InputInjector sends keyboard and mouse input. Calls are fire-and-forget.
type InputInjector interface {
	PressKey(key string)
	PressKeyWithModifier(key, modifier string)
	// MovePointer moves the cursor to (x, y) in monitor coordinates, randomized within jitter
	// pixels, taking a delay between delay[0] and delay[1] seconds.
	MovePointer(x, y, jitter int, delay [2]float64)
	CursorPosition() image.Point
}

type TemplateMatch struct {
	Valid    bool
	Position image.Point
	Score    float64
}

// TemplateMatcher looks for a named template inside roi of img.
type TemplateMatcher interface {
	Search(templateID string, img image.Image, roi image.Rectangle, threshold float64) TemplateMatch
}

type TextBox struct {
	Bounds image.Rectangle
	Text   string
}

// ItemReader crops the hovered item description and reads it.
type ItemReader interface {
	CropItemDescription(img image.Image, language string) ([]TextBox, error)
}
