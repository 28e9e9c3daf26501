package template

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hectorgimenez/beltkeeper/internal/game"
	"gocv.io/x/gocv"
)

// Matcher finds PNG templates loaded from a directory, the file name without extension being
// the template id.
type Matcher struct {
	mu        sync.Mutex
	templates map[string]gocv.Mat
	logger    *slog.Logger
}

func NewMatcher(dir string, logger *slog.Logger) (*Matcher, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error reading templates: %w", err)
	}

	m := &Matcher{templates: make(map[string]gocv.Mat), logger: logger}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".png") {
			continue
		}
		mat := gocv.IMRead(filepath.Join(dir, e.Name()), gocv.IMReadColor)
		if mat.Empty() {
			logger.Warn("Skipping unreadable template", slog.String("file", e.Name()))
			continue
		}
		m.templates[strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))] = mat
	}
	logger.Debug(fmt.Sprintf("Loaded %d inventory templates from %s", len(m.templates), dir))

	return m, nil
}

// Search returns the best match of the template inside roi, Position being the center of the
// match. The match is only valid when its score reaches threshold.
func (m *Matcher) Search(templateID string, img image.Image, roi image.Rectangle, threshold float64) (match game.TemplateMatch) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tpl, found := m.templates[templateID]
	if !found {
		m.logger.Warn("Template not found", slog.String("template", templateID))
		return match
	}

	roi = roi.Intersect(img.Bounds())
	if roi.Dx() < tpl.Cols() || roi.Dy() < tpl.Rows() {
		return match
	}

	frame, err := gocv.ImageToMatRGB(img)
	if err != nil {
		m.logger.Warn("Error converting frame", slog.Any("error", err))
		return match
	}
	defer frame.Close()

	region := frame.Region(roi.Sub(img.Bounds().Min))
	defer region.Close()

	result := gocv.NewMat()
	defer result.Close()
	mask := gocv.NewMat()
	defer mask.Close()

	gocv.MatchTemplate(region, tpl, &result, gocv.TmCcoeffNormed, mask)
	_, maxVal, _, maxLoc := gocv.MinMaxLoc(result)

	match.Score = float64(maxVal)
	match.Valid = match.Score >= threshold
	match.Position = roi.Min.Add(maxLoc).Add(image.Point{X: tpl.Cols() / 2, Y: tpl.Rows() / 2})

	return match
}

func (m *Matcher) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, mat := range m.templates {
		mat.Close()
		delete(m.templates, id)
	}
}
