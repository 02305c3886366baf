package recognizer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/kozaktomas/facegate/internal/detect"
	"github.com/kozaktomas/facegate/internal/embedding"
	"github.com/kozaktomas/facegate/internal/gallery"
	"github.com/kozaktomas/facegate/internal/geometry"
)

func unit(v ...float32) embedding.Embedding {
	e := embedding.Embedding(v)
	e.Normalize()
	return e
}

func grayFrame(width, height int) detect.Frame {
	return detect.Frame{
		Data:   make([]byte, width*height),
		Width:  width,
		Height: height,
		Format: detect.FormatGray,
	}
}

// fixedEmbedder answers every frame with the same faces.
type fixedEmbedder struct {
	faces []embedding.Face
	err   error
	calls atomic.Int64
}

func (f *fixedEmbedder) Faces(ctx context.Context, imageData []byte) ([]embedding.Face, error) {
	f.calls.Add(1)
	return f.faces, f.err
}

func testPipeline(boxes ...geometry.Rect) *detect.Pipeline {
	det := detect.DetectorFunc(func(img *detect.WorkingImage, params detect.DetectorParams) ([]geometry.Rect, error) {
		out := make([]geometry.Rect, len(boxes))
		copy(out, boxes)
		return out, nil
	})
	return detect.NewPipeline(det, detect.Options{UseGray: true})
}

func registryWith(identities ...gallery.Identity) *gallery.Registry {
	r := gallery.NewRegistry()
	r.Swap(gallery.New(identities))
	return r
}

func TestResolveEmptyGalleryFallsBackToDetection(t *testing.T) {
	box := geometry.Rect{X: 100, Y: 100, W: 80, H: 80}
	emb := &fixedEmbedder{}
	rec := New(testPipeline(box), emb, gallery.NewRegistry(), 0)

	res, err := rec.Resolve(context.Background(), grayFrame(640, 480))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Match.Outcome != gallery.OutcomeNoGallery {
		t.Errorf("outcome = %v, want no_gallery", res.Match.Outcome)
	}
	if len(res.Faces) != 1 || res.Faces[0] != box {
		t.Errorf("faces = %v, want the pipeline's detection", res.Faces)
	}
	if emb.calls.Load() != 0 {
		t.Error("embedder was called with an empty gallery")
	}
}

func TestResolveMatched(t *testing.T) {
	ref := unit(1, 0, 0)
	emb := &fixedEmbedder{faces: []embedding.Face{
		{BBox: []float64{50, 50, 150, 150}, Embedding: ref.Clone()},
	}}
	rec := New(testPipeline(), emb, registryWith(gallery.Identity{Name: "alice", Embedding: ref}), 0)

	res, err := rec.Resolve(context.Background(), grayFrame(640, 480))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Match.Outcome != gallery.OutcomeMatched || res.Match.Name != "alice" {
		t.Fatalf("match = %+v, want alice matched", res.Match)
	}
	if len(res.Faces) != 1 {
		t.Fatalf("faces = %v, want exactly the matched box", res.Faces)
	}
	want := geometry.Rect{X: 50, Y: 50, W: 100, H: 100}
	if res.Faces[0] != want {
		t.Errorf("box = %v, want %v", res.Faces[0], want)
	}
}

func TestResolveNoMatchReturnsNoBoxes(t *testing.T) {
	emb := &fixedEmbedder{faces: []embedding.Face{
		{BBox: []float64{50, 50, 150, 150}, Embedding: unit(0, 1, 0)},
	}}
	rec := New(testPipeline(), emb, registryWith(gallery.Identity{Name: "alice", Embedding: unit(1, 0, 0)}), 0)

	res, err := rec.Resolve(context.Background(), grayFrame(640, 480))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Match.Outcome != gallery.OutcomeNoMatch {
		t.Errorf("outcome = %v, want no_match", res.Match.Outcome)
	}
	if len(res.Faces) != 0 {
		t.Errorf("faces = %v, want none on a miss", res.Faces)
	}
}

func TestResolveClampsCandidateBoxes(t *testing.T) {
	ref := unit(1, 0, 0)
	// Box sticks out past the frame on two sides.
	emb := &fixedEmbedder{faces: []embedding.Face{
		{BBox: []float64{-20, 400, 100, 520}, Embedding: ref.Clone()},
	}}
	rec := New(testPipeline(), emb, registryWith(gallery.Identity{Name: "alice", Embedding: ref}), 0)

	res, err := rec.Resolve(context.Background(), grayFrame(640, 480))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	box := res.Match.Box
	if box.X < 0 || box.Y < 0 || box.X+box.W > 640 || box.Y+box.H > 480 {
		t.Errorf("matched box %v escapes the frame", box)
	}
}

func TestResolveEmbedderError(t *testing.T) {
	emb := &fixedEmbedder{err: errors.New("sidecar down")}
	rec := New(testPipeline(), emb, registryWith(gallery.Identity{Name: "alice", Embedding: unit(1, 0, 0)}), 0)
	if _, err := rec.Resolve(context.Background(), grayFrame(64, 64)); err == nil {
		t.Fatal("Resolve swallowed the embedder failure")
	}
}

func TestBatchPreservesOrder(t *testing.T) {
	box := geometry.Rect{X: 10, Y: 10, W: 80, H: 80}
	rec := New(testPipeline(box), &fixedEmbedder{}, gallery.NewRegistry(), 0)

	frames := make([]detect.Frame, 8)
	for i := range frames {
		frames[i] = grayFrame(320, 240)
	}
	// One malformed frame in the middle.
	frames[3] = detect.Frame{Data: []byte{1}, Width: 320, Height: 240, Format: detect.FormatGray}

	var events atomic.Int64
	resolutions, errs := rec.Batch(context.Background(), frames, BatchOptions{
		Concurrency: 3,
		OnProgress:  func(p BatchProgress) { events.Add(1) },
	})

	if len(resolutions) != len(frames) || len(errs) != len(frames) {
		t.Fatalf("got %d resolutions and %d errors, want %d each", len(resolutions), len(errs), len(frames))
	}
	for i := range frames {
		if i == 3 {
			if errs[i] == nil {
				t.Error("malformed frame did not error")
			}
			continue
		}
		if errs[i] != nil {
			t.Errorf("frame %d failed: %v", i, errs[i])
		}
		if len(resolutions[i].Faces) != 1 || resolutions[i].Faces[0] != box {
			t.Errorf("frame %d faces = %v", i, resolutions[i].Faces)
		}
	}
	if int(events.Load()) != len(frames) {
		t.Errorf("got %d progress events, want %d", events.Load(), len(frames))
	}
}

func TestBatchCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := New(testPipeline(), &fixedEmbedder{}, gallery.NewRegistry(), 0)
	_, errs := rec.Batch(ctx, []detect.Frame{grayFrame(64, 64)}, BatchOptions{})
	if len(errs) != 1 || !errors.Is(errs[0], context.Canceled) {
		t.Errorf("errs = %v, want context.Canceled", errs)
	}
}
