package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kozaktomas/facegate/internal/detect"
	"github.com/kozaktomas/facegate/internal/embedding"
	"github.com/kozaktomas/facegate/internal/gallery"
	"github.com/kozaktomas/facegate/internal/geometry"
	"github.com/kozaktomas/facegate/internal/recognizer"
)

// stubEmbedder answers every image with the same faces.
type stubEmbedder struct {
	faces []embedding.Face
}

func (s stubEmbedder) Faces(ctx context.Context, imageData []byte) ([]embedding.Face, error) {
	return s.faces, nil
}

func unitVec(v ...float32) embedding.Embedding {
	e := embedding.Embedding(v)
	e.Normalize()
	return e
}

func newTestRecognizer(faces []embedding.Face, identities ...gallery.Identity) *recognizer.Recognizer {
	pipeline := detect.NewPipeline(fixedDetector(geometry.Rect{X: 10, Y: 10, W: 80, H: 80}), detect.Options{})
	registry := gallery.NewRegistry()
	registry.Swap(gallery.New(identities))
	return recognizer.New(pipeline, stubEmbedder{faces: faces}, registry, 0)
}

func postImage(t *testing.T, h http.HandlerFunc, target string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := pngUpload(t, 320, 240)
	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestRecognizeHandlerMatched(t *testing.T) {
	ref := unitVec(1, 0, 0)
	h := NewRecognizeHandler(newTestRecognizer(
		[]embedding.Face{{BBox: []float64{10, 10, 110, 110}, Embedding: ref.Clone()}},
		gallery.Identity{Name: "alice", Embedding: ref},
	))

	rec := postImage(t, h.Recognize, "/api/v1/recognize")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Outcome string          `json:"outcome"`
		Name    string          `json:"name"`
		Score   float64         `json:"score"`
		Faces   []geometry.Rect `json:"faces"`
	}
	decodeJSON(t, rec, &resp)
	if resp.Outcome != "matched" || resp.Name != "alice" {
		t.Errorf("resp = %+v, want alice matched", resp)
	}
	if len(resp.Faces) != 1 {
		t.Errorf("faces = %v, want exactly the matched box", resp.Faces)
	}
	if resp.Score < 0.99 {
		t.Errorf("score = %v, want ~1.0", resp.Score)
	}
}

func TestRecognizeHandlerNoGallery(t *testing.T) {
	h := NewRecognizeHandler(newTestRecognizer(nil))

	rec := postImage(t, h.Recognize, "/api/v1/recognize")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Outcome string          `json:"outcome"`
		Faces   []geometry.Rect `json:"faces"`
	}
	decodeJSON(t, rec, &resp)
	if resp.Outcome != "no_gallery" {
		t.Errorf("outcome = %q, want no_gallery", resp.Outcome)
	}
	// Falls back to plain detection.
	if len(resp.Faces) != 1 {
		t.Errorf("faces = %v, want the raw detection", resp.Faces)
	}
}

func TestRecognizeHandlerNoMatch(t *testing.T) {
	h := NewRecognizeHandler(newTestRecognizer(
		[]embedding.Face{{BBox: []float64{10, 10, 110, 110}, Embedding: unitVec(0, 1, 0)}},
		gallery.Identity{Name: "alice", Embedding: unitVec(1, 0, 0)},
	))

	rec := postImage(t, h.Recognize, "/api/v1/recognize")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Outcome string          `json:"outcome"`
		Name    string          `json:"name"`
		Faces   []geometry.Rect `json:"faces"`
	}
	decodeJSON(t, rec, &resp)
	if resp.Outcome != "no_match" {
		t.Errorf("outcome = %q, want no_match", resp.Outcome)
	}
	if resp.Name != "" || len(resp.Faces) != 0 {
		t.Errorf("miss leaked data: %+v", resp)
	}
}

func TestRecognizeHandlerBadImage(t *testing.T) {
	h := NewRecognizeHandler(newTestRecognizer(nil))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recognize", strings.NewReader("junk"))
	rec := httptest.NewRecorder()

	h.Recognize(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422 for undecodable image", rec.Code)
	}
}
