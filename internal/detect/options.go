package detect

// Options control a detection pipeline. The zero value is not usable
// directly, call normalized() to fill in defaults.
type Options struct {
	// UseGray marks the source frames as already single-channel, which
	// skips the color-to-gray conversion step.
	UseGray bool

	// ImageScale shrinks the frame before detection. 0.5 halves both
	// dimensions. Results are mapped back to source coordinates.
	ImageScale float64

	// MinFaceSize and MaxFaceSize bound the detector's search window in
	// pixels of the working image. Ignored when DynamicSize is set.
	MinFaceSize int
	MaxFaceSize int

	// DynamicSize derives the size bounds from the working image's
	// dimensions instead of the fixed Min/MaxFaceSize.
	DynamicSize bool

	// ScaleFactor is the detector's pyramid step.
	ScaleFactor float64

	// MinNeighbors is passed through to detectors that support grouping
	// by neighbor count. Backends without the concept ignore it.
	MinNeighbors int

	// ConfidenceThreshold gates raw detections before suppression.
	ConfidenceThreshold float64

	// OverlapThreshold is the IoU at which overlapping detections are
	// suppressed.
	OverlapThreshold float64
}

func (o Options) normalized() Options {
	if o.ImageScale <= 0 {
		o.ImageScale = 1.0
	}
	if o.MinFaceSize <= 0 {
		o.MinFaceSize = 30
	}
	if o.MaxFaceSize <= 0 {
		o.MaxFaceSize = 300
	}
	if o.ScaleFactor <= 1.0 {
		o.ScaleFactor = 1.1
	}
	if o.MinNeighbors <= 0 {
		o.MinNeighbors = 3
	}
	if o.ConfidenceThreshold <= 0 {
		o.ConfidenceThreshold = 0.5
	}
	if o.OverlapThreshold <= 0 {
		o.OverlapThreshold = 0.3
	}
	return o
}

// DynamicSizeBounds derives face size bounds from the dimensions of the
// image the detector will actually scan. The bounds scale with the
// shorter side so that close-up frames do not flood the detector with
// tiny windows.
func DynamicSizeBounds(width, height int) (minSize, maxSize int) {
	short := width
	if height < short {
		short = height
	}
	minSize = short / 25
	if minSize < 15 {
		minSize = 15
	}
	maxSize = short / 4
	if maxSize > 250 {
		maxSize = 250
	}
	return minSize, maxSize
}
