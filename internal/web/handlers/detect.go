package handlers

import (
	"bytes"
	"image"
	"log"
	"net/http"

	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/detect"
	"github.com/kozaktomas/facegate/internal/geometry"
)

// DetectHandler runs the geometric detection pipeline over uploaded
// images, without identity resolution.
type DetectHandler struct {
	cfg      *config.Config
	detector detect.Detector
}

// NewDetectHandler creates a detect handler.
func NewDetectHandler(cfg *config.Config, detector detect.Detector) *DetectHandler {
	return &DetectHandler{cfg: cfg, detector: detector}
}

type detectResponse struct {
	Faces  []geometry.Rect `json:"faces"`
	Count  int             `json:"count"`
	Preset string          `json:"preset"`
}

// Detect handles POST /api/v1/detect. The preset query parameter
// overrides the configured default.
func (h *DetectHandler) Detect(w http.ResponseWriter, r *http.Request) {
	preset := r.URL.Query().Get("preset")
	if preset == "" {
		preset = h.cfg.Detection.Preset
	}
	opts, err := h.cfg.PresetOptions(preset)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	imageData, err := readImageUpload(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		respondError(w, http.StatusBadRequest, "could not decode image")
		return
	}

	pipeline := detect.NewPipeline(h.detector, opts)
	result := pipeline.Detect(detect.FrameFromImage(img))
	if !result.OK() {
		log.Printf("detect request failed: %v", result.Err)
		respondError(w, http.StatusUnprocessableEntity, "detection failed")
		return
	}

	faces := result.Faces
	if faces == nil {
		faces = []geometry.Rect{}
	}
	respondJSON(w, http.StatusOK, detectResponse{
		Faces:  faces,
		Count:  len(faces),
		Preset: preset,
	})
}
