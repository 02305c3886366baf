package recognizer

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"sync"

	"github.com/kozaktomas/facegate/internal/detect"
	"github.com/kozaktomas/facegate/internal/embedding"
	"github.com/kozaktomas/facegate/internal/gallery"
	"github.com/kozaktomas/facegate/internal/geometry"
)

// FaceEmbedder detects faces in an encoded image and returns their
// boxes and embeddings.
type FaceEmbedder interface {
	Faces(ctx context.Context, imageData []byte) ([]embedding.Face, error)
}

// Resolution is the answer for one frame. When no identity is resolved
// it falls back to the geometric detections so a caller can still draw
// boxes or count people.
type Resolution struct {
	Faces []geometry.Rect `json:"faces"`
	Match gallery.Match   `json:"match"`
}

// Recognizer ties the detection pipeline, the embedding sidecar, and
// the identity registry together.
type Recognizer struct {
	pipeline  *detect.Pipeline
	embedder  FaceEmbedder
	registry  *gallery.Registry
	threshold float64
}

// New creates a recognizer. Threshold <= 0 uses the gallery default.
func New(pipeline *detect.Pipeline, embedder FaceEmbedder, registry *gallery.Registry, threshold float64) *Recognizer {
	if threshold <= 0 {
		threshold = gallery.DefaultThreshold
	}
	return &Recognizer{
		pipeline:  pipeline,
		embedder:  embedder,
		registry:  registry,
		threshold: threshold,
	}
}

// Registry exposes the identity registry for enrollment swaps.
func (r *Recognizer) Registry() *gallery.Registry {
	return r.registry
}

// Resolve processes one frame. With no enrolled identities it degrades
// to plain detection, otherwise it matches embedded faces against the
// gallery. A recognized identity yields exactly its box, an unmatched
// frame yields no boxes at all, the miss is the signal.
func (r *Recognizer) Resolve(ctx context.Context, frame detect.Frame) (Resolution, error) {
	if r.registry.Current().Empty() {
		result := r.pipeline.Detect(frame)
		if !result.OK() {
			return Resolution{}, result.Err
		}
		return Resolution{
			Faces: result.Faces,
			Match: gallery.Match{Outcome: gallery.OutcomeNoGallery},
		}, nil
	}

	imageData, err := encodeFrame(frame)
	if err != nil {
		return Resolution{}, fmt.Errorf("encoding frame: %w", err)
	}

	faces, err := r.embedder.Faces(ctx, imageData)
	if err != nil {
		return Resolution{}, fmt.Errorf("embedding faces: %w", err)
	}

	candidates := make([]gallery.Candidate, 0, len(faces))
	for _, f := range faces {
		candidates = append(candidates, gallery.Candidate{
			Box:       f.Rect().Clamp(frame.Width, frame.Height),
			Embedding: f.Embedding,
		})
	}

	match := r.registry.Match(candidates, r.threshold)
	res := Resolution{Match: match}
	if match.Outcome == gallery.OutcomeMatched {
		res.Faces = []geometry.Rect{match.Box}
	}
	return res, nil
}

// ResolveImage decodes an encoded image and resolves it.
func (r *Recognizer) ResolveImage(ctx context.Context, imageData []byte) (Resolution, error) {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return Resolution{}, fmt.Errorf("decoding image: %w", err)
	}
	return r.Resolve(ctx, detect.FrameFromImage(img))
}

// BatchProgress reports batch resolution advancing.
type BatchProgress struct {
	Current int
	Total   int
}

// BatchOptions tune Batch. Concurrency defaults to 4.
type BatchOptions struct {
	Concurrency int
	OnProgress  func(BatchProgress)
}

type batchResult struct {
	index int
	res   Resolution
	err   error
}

// Batch resolves many frames concurrently, preserving input order. A
// per-frame failure lands in the errors slice at the frame's index and
// never stops the rest of the batch.
func (r *Recognizer) Batch(ctx context.Context, frames []detect.Frame, opts BatchOptions) ([]Resolution, []error) {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	resultsChan := make(chan batchResult, len(frames))
	semaphore := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	var done int
	var progressMu sync.Mutex

	reportProgress := func() {
		progressMu.Lock()
		done++
		current := done
		progressMu.Unlock()
		if opts.OnProgress != nil {
			opts.OnProgress(BatchProgress{Current: current, Total: len(frames)})
		}
	}

	for i := range frames {
		wg.Add(1)
		go func(idx int, frame detect.Frame) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if ctx.Err() != nil {
				resultsChan <- batchResult{index: idx, err: ctx.Err()}
				reportProgress()
				return
			}

			res, err := r.Resolve(ctx, frame)
			resultsChan <- batchResult{index: idx, res: res, err: err}
			reportProgress()
		}(i, frames[i])
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	resolutions := make([]Resolution, len(frames))
	errs := make([]error, len(frames))
	for r := range resultsChan {
		resolutions[r.index] = r.res
		errs[r.index] = r.err
	}
	return resolutions, errs
}

// encodeFrame turns a raw frame into a JPEG for the embedding sidecar.
func encodeFrame(frame detect.Frame) ([]byte, error) {
	var img image.Image
	switch frame.Format {
	case detect.FormatGray:
		g := image.NewGray(image.Rect(0, 0, frame.Width, frame.Height))
		copy(g.Pix, frame.Data)
		img = g
	case detect.FormatBGRA:
		rgba := image.NewRGBA(image.Rect(0, 0, frame.Width, frame.Height))
		for i := 0; i+3 < len(frame.Data); i += 4 {
			rgba.Pix[i] = frame.Data[i+2]
			rgba.Pix[i+1] = frame.Data[i+1]
			rgba.Pix[i+2] = frame.Data[i]
			rgba.Pix[i+3] = frame.Data[i+3]
		}
		img = rgba
	default:
		return nil, fmt.Errorf("unsupported frame format: %v", frame.Format)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("encoding jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
