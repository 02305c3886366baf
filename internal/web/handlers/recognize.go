package handlers

import (
	"log"
	"net/http"

	"github.com/kozaktomas/facegate/internal/gallery"
	"github.com/kozaktomas/facegate/internal/geometry"
	"github.com/kozaktomas/facegate/internal/recognizer"
)

// RecognizeHandler resolves uploaded images to enrolled identities.
type RecognizeHandler struct {
	recognizer *recognizer.Recognizer
}

// NewRecognizeHandler creates a recognize handler.
func NewRecognizeHandler(rec *recognizer.Recognizer) *RecognizeHandler {
	return &RecognizeHandler{recognizer: rec}
}

type recognizeResponse struct {
	Outcome string          `json:"outcome"`
	Name    string          `json:"name,omitempty"`
	Score   float64         `json:"score,omitempty"`
	Faces   []geometry.Rect `json:"faces"`
}

// Recognize handles POST /api/v1/recognize.
func (h *RecognizeHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	imageData, err := readImageUpload(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	res, err := h.recognizer.ResolveImage(r.Context(), imageData)
	if err != nil {
		log.Printf("recognize request failed: %v", err)
		respondError(w, http.StatusUnprocessableEntity, "recognition failed")
		return
	}

	faces := res.Faces
	if faces == nil {
		faces = []geometry.Rect{}
	}
	resp := recognizeResponse{
		Outcome: res.Match.Outcome.String(),
		Faces:   faces,
	}
	if res.Match.Outcome == gallery.OutcomeMatched {
		resp.Name = res.Match.Name
		resp.Score = res.Match.Score
	}
	respondJSON(w, http.StatusOK, resp)
}
