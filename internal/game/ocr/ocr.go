package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/hectorgimenez/beltkeeper/internal/game"
	"github.com/otiai10/gosseract/v2"
	"gocv.io/x/gocv"
)

const (
	// Item descriptions are drawn over an almost black box
	boxMaxBrightness = 25
	boxMinWidth      = 80
	boxMinHeight     = 30
)

// Reader finds the item description boxes of a frame and reads them with tesseract.
type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

// CropItemDescription returns the description boxes found in img, biggest first.
func (r *Reader) CropItemDescription(img image.Image, language string) ([]game.TextBox, error) {
	boxes, err := findDescriptionBoxes(img)
	if err != nil {
		return nil, err
	}
	if len(boxes) == 0 {
		return nil, nil
	}

	client := gosseract.NewClient()
	defer client.Close()
	if err = client.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("error setting ocr language %s: %w", language, err)
	}

	result := make([]game.TextBox, 0, len(boxes))
	for _, box := range boxes {
		// Tesseract reads dark text on light background better
		crop := imaging.Invert(imaging.Grayscale(imaging.Crop(img, box)))
		var buf bytes.Buffer
		if err = png.Encode(&buf, crop); err != nil {
			return nil, fmt.Errorf("error encoding description box: %w", err)
		}
		if err = client.SetImageFromBytes(buf.Bytes()); err != nil {
			return nil, fmt.Errorf("error loading description box: %w", err)
		}
		text, err := client.Text()
		if err != nil {
			return nil, fmt.Errorf("error reading description box: %w", err)
		}
		result = append(result, game.TextBox{Bounds: box, Text: text})
	}

	return result, nil
}

func findDescriptionBoxes(img image.Image) ([]image.Rectangle, error) {
	frame, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("error converting frame: %w", err)
	}
	defer frame.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(gray, &mask, boxMaxBrightness, 255, gocv.ThresholdBinaryInv)

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var boxes []image.Rectangle
	for i := 0; i < contours.Size(); i++ {
		rect := gocv.BoundingRect(contours.At(i))
		if rect.Dx() < boxMinWidth || rect.Dy() < boxMinHeight {
			continue
		}
		boxes = append(boxes, rect.Add(img.Bounds().Min))
	}
	sort.Slice(boxes, func(i, j int) bool {
		return boxes[i].Dx()*boxes[i].Dy() > boxes[j].Dx()*boxes[j].Dy()
	})

	return boxes, nil
}
