package detect

import (
	"fmt"
	"log"

	"github.com/kozaktomas/facegate/internal/geometry"
)

// WorkingImage is the preprocessed grayscale image a detector scans.
type WorkingImage struct {
	Pixels []byte
	Width  int
	Height int
}

// DetectorParams carry the per-frame tuning resolved by the pipeline.
type DetectorParams struct {
	ScaleFactor  float64
	MinNeighbors int
	MinSize      int
	MaxSize      int
}

// Detector finds raw face candidates in a working image. Returned
// rectangles are in working-image coordinates and unfiltered.
type Detector interface {
	Detect(img *WorkingImage, params DetectorParams) ([]geometry.Rect, error)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(img *WorkingImage, params DetectorParams) ([]geometry.Rect, error)

func (f DetectorFunc) Detect(img *WorkingImage, params DetectorParams) ([]geometry.Rect, error) {
	return f(img, params)
}

// Result is the outcome of processing one frame. Exactly one of Faces
// and Err is meaningful.
type Result struct {
	Faces []geometry.Rect
	Err   error
}

// OK reports whether the frame was processed successfully.
func (r Result) OK() bool {
	return r.Err == nil
}

// Pipeline turns raw frames into clean face rectangles. It owns the
// preprocessing, confidence gate, suppression, and coordinate mapping
// back to the source frame.
type Pipeline struct {
	detector Detector
	opts     Options
}

// NewPipeline creates a pipeline around a detector. Zero-valued options
// fall back to defaults.
func NewPipeline(detector Detector, opts Options) *Pipeline {
	return &Pipeline{
		detector: detector,
		opts:     opts.normalized(),
	}
}

// Detect processes one frame. A failure anywhere yields a Result whose
// Err is set and never a panic, so a caller can keep its capture loop
// running across bad frames.
func (p *Pipeline) Detect(frame Frame) Result {
	if err := frame.validate(); err != nil {
		return Result{Err: err}
	}

	working := p.prepare(frame)

	params := DetectorParams{
		ScaleFactor:  p.opts.ScaleFactor,
		MinNeighbors: p.opts.MinNeighbors,
		MinSize:      p.opts.MinFaceSize,
		MaxSize:      p.opts.MaxFaceSize,
	}
	if p.opts.DynamicSize {
		params.MinSize, params.MaxSize = DynamicSizeBounds(working.Width, working.Height)
	}

	raw, err := p.detector.Detect(working, params)
	if err != nil {
		return Result{Err: fmt.Errorf("detector failed: %w", err)}
	}

	candidates := ScoreCandidates(raw, p.opts.ConfidenceThreshold)
	faces := Suppress(candidates, p.opts.OverlapThreshold)

	// Map from working-image coordinates back to the source frame and
	// clamp each box into the frame bounds.
	scaled := p.opts.ImageScale != 1.0
	for i, face := range faces {
		if scaled {
			face = face.Scale(1.0 / p.opts.ImageScale)
		}
		faces[i] = face.Clamp(frame.Width, frame.Height)
	}
	return Result{Faces: faces}
}

// Faces is a convenience wrapper that drops failed frames with a log
// line and returns the detections, nil on failure.
func (p *Pipeline) Faces(frame Frame) []geometry.Rect {
	result := p.Detect(frame)
	if !result.OK() {
		log.Printf("[detect] frame dropped: %v", result.Err)
		return nil
	}
	return result.Faces
}

// prepare converts the frame to grayscale, downscales it when the
// options ask for it, and equalizes the histogram.
func (p *Pipeline) prepare(frame Frame) *WorkingImage {
	img := frame.gray()

	if p.opts.ImageScale != 1.0 {
		w := int(float64(frame.Width) * p.opts.ImageScale)
		h := int(float64(frame.Height) * p.opts.ImageScale)
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
		img = resizeGray(img, w, h)
	}

	equalize(img)

	return &WorkingImage{
		Pixels: img.Pix,
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}
}
