package detect

import (
	"fmt"
	"os"

	pigo "github.com/esimov/pigo/core"

	"github.com/kozaktomas/facegate/internal/geometry"
)

// PigoDetector runs the pure-Go pigo cascade classifier. It satisfies
// Detector and needs no cgo or native runtime.
type PigoDetector struct {
	classifier *pigo.Pigo

	// shiftFactor moves the scan window by this fraction of its size.
	shiftFactor float64
	// quality drops detections below this cascade score. MinNeighbors
	// from the pipeline is ignored, pigo has no grouping equivalent and
	// the pipeline's own suppression covers duplicates.
	quality float32
}

// NewPigoDetector loads a binary cascade file from disk.
func NewPigoDetector(cascadePath string) (*PigoDetector, error) {
	data, err := os.ReadFile(cascadePath)
	if err != nil {
		return nil, fmt.Errorf("could not read cascade file: %w", err)
	}
	return NewPigoDetectorFromBytes(data)
}

// NewPigoDetectorFromBytes builds a detector from an in-memory cascade.
func NewPigoDetectorFromBytes(cascade []byte) (*PigoDetector, error) {
	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("could not unpack cascade: %w", err)
	}
	return &PigoDetector{
		classifier:  classifier,
		shiftFactor: 0.1,
		quality:     5.0,
	}, nil
}

func (d *PigoDetector) Detect(img *WorkingImage, params DetectorParams) ([]geometry.Rect, error) {
	if img.Width <= 0 || img.Height <= 0 {
		return nil, fmt.Errorf("invalid working image %dx%d", img.Width, img.Height)
	}

	cParams := pigo.CascadeParams{
		MinSize:     params.MinSize,
		MaxSize:     params.MaxSize,
		ShiftFactor: d.shiftFactor,
		ScaleFactor: params.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: img.Pixels,
			Rows:   img.Height,
			Cols:   img.Width,
			Dim:    img.Width,
		},
	}

	dets := d.classifier.RunCascade(cParams, 0.0)

	rects := make([]geometry.Rect, 0, len(dets))
	for _, det := range dets {
		if det.Q < d.quality {
			continue
		}
		rects = append(rects, geometry.Rect{
			X: det.Col - det.Scale/2,
			Y: det.Row - det.Scale/2,
			W: det.Scale,
			H: det.Scale,
		})
	}
	return rects, nil
}
