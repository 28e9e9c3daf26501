package belt

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/hectorgimenez/beltkeeper/internal/config"
	"github.com/hectorgimenez/beltkeeper/internal/consumable"
	"gocv.io/x/gocv"
)

const (
	// Mean brightness (0-255) under which a slot is considered empty, whatever its colors
	emptyBrightness = 47
	// Minimum share of matching pixels to accept a potion color
	minColorScore = 0.28
)

// scoreOrder is also the tie-break order, first wins.
var scoreOrder = [3]consumable.PotionKind{consumable.Rejuv, consumable.Health, consumable.Mana}

// Classifier tells which potion is shown in a belt slot image.
type Classifier struct {
	colors config.Colors
}

func NewClassifier(colors config.Colors) *Classifier {
	return &Classifier{colors: colors}
}

func (c *Classifier) Classify(img image.Image) (consumable.PotionKind, error) {
	scores, brightness, err := c.Scores(img)
	if err != nil {
		return consumable.Empty, err
	}
	if brightness < emptyBrightness {
		return consumable.Empty, nil
	}

	return pickKind(scores), nil
}

// Scores returns the color match score of each kind in [rejuv, health, mana] order and the mean
// brightness of the slot center.
func (c *Classifier) Scores(img image.Image) ([3]float64, float64, error) {
	crop, err := cropSlotCenter(img)
	if err != nil {
		return [3]float64{}, 0, err
	}

	src, err := gocv.ImageToMatRGB(crop)
	if err != nil {
		return [3]float64{}, 0, fmt.Errorf("error converting slot image: %w", err)
	}
	defer src.Close()

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(src, &hsv, gocv.ColorBGRToHSV)

	rejuv := inRange(hsv, c.colors.RejuvPotion)
	defer rejuv.Close()
	health0 := inRange(hsv, c.colors.HealthPotion0)
	defer health0.Close()
	health1 := inRange(hsv, c.colors.HealthPotion1)
	defer health1.Close()
	mana := inRange(hsv, c.colors.ManaPotion)
	defer mana.Close()

	health := gocv.NewMat()
	defer health.Close()
	gocv.BitwiseOr(health0, health1, &health)

	total := float64(hsv.Rows() * hsv.Cols())
	scores := [3]float64{
		float64(gocv.CountNonZero(rejuv)) / total,
		float64(gocv.CountNonZero(health)) / total,
		float64(gocv.CountNonZero(mana)) / total,
	}

	mean := src.Mean()

	return scores, (mean.Val1 + mean.Val2 + mean.Val3) / 3, nil
}

// inRange returns the mask of the pixels inside cr, both bounds included.
func inRange(hsv gocv.Mat, cr config.ColorRange) gocv.Mat {
	mask := gocv.NewMat()
	lower := gocv.NewScalar(float64(cr.Lower[0]), float64(cr.Lower[1]), float64(cr.Lower[2]), 0)
	upper := gocv.NewScalar(float64(cr.Upper[0]), float64(cr.Upper[1]), float64(cr.Upper[2]), 0)
	gocv.InRangeWithScalar(hsv, lower, upper, &mask)

	return mask
}

func pickKind(scores [3]float64) consumable.PotionKind {
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	if scores[best] > minColorScore {
		return scoreOrder[best]
	}

	return consumable.Empty
}

// cropSlotCenter keeps 40%-80% of the width and 30%-100% of the height, where the potion liquid
// is and the belt bezel is not.
func cropSlotCenter(img image.Image) (*image.NRGBA, error) {
	if img == nil {
		return nil, fmt.Errorf("slot image is nil: %w", consumable.ErrInvalidRegion)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("slot image %v has no area: %w", b, consumable.ErrInvalidRegion)
	}

	w, h := b.Dx(), b.Dy()
	x0 := b.Min.X + int(float64(w)*0.4)
	y0 := b.Min.Y + int(float64(h)*0.3)
	roi := image.Rect(x0, y0, x0+int(float64(w)*0.4), y0+int(float64(h)*0.7))
	if roi.Empty() {
		return nil, fmt.Errorf("slot image %v too small to classify: %w", b, consumable.ErrInvalidRegion)
	}

	crop := imaging.Crop(img, roi)
	if crop.Bounds().Empty() {
		return nil, fmt.Errorf("slot image %v crop is empty: %w", b, consumable.ErrInvalidRegion)
	}

	return crop, nil
}
