package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/detect"
	"github.com/kozaktomas/facegate/internal/gallery"
	"github.com/kozaktomas/facegate/internal/geometry"
	"github.com/kozaktomas/facegate/internal/recognizer"
)

func TestServerRoutes(t *testing.T) {
	cfg := config.Load()
	registry := gallery.NewRegistry()
	det := detect.DetectorFunc(func(img *detect.WorkingImage, params detect.DetectorParams) ([]geometry.Rect, error) {
		return nil, nil
	})
	pipeline := detect.NewPipeline(det, detect.Options{})
	rec := recognizer.New(pipeline, nil, registry, 0)

	s := NewServer(cfg, Deps{
		Detector:   det,
		Recognizer: rec,
		Registry:   registry,
	})

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/api/v1/health", http.StatusOK},
		{http.MethodGet, "/api/v1/identities", http.StatusOK},
		{http.MethodGet, "/api/v1/jobs/missing", http.StatusNotFound},
		{http.MethodGet, "/api/v1/nothing", http.StatusNotFound},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		w := httptest.NewRecorder()
		s.Router().ServeHTTP(w, req)
		if w.Code != tt.status {
			t.Errorf("%s %s = %d, want %d", tt.method, tt.path, w.Code, tt.status)
		}
	}
}
