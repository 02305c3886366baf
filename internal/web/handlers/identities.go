package handlers

import (
	"net/http"

	"github.com/kozaktomas/facegate/internal/gallery"
)

// IdentitiesHandler exposes the enrolled identity list.
type IdentitiesHandler struct {
	registry *gallery.Registry
}

// NewIdentitiesHandler creates an identities handler.
func NewIdentitiesHandler(registry *gallery.Registry) *IdentitiesHandler {
	return &IdentitiesHandler{registry: registry}
}

type identitiesResponse struct {
	Identities []gallery.Identity `json:"identities"`
	Count      int                `json:"count"`
}

// List handles GET /api/v1/identities.
func (h *IdentitiesHandler) List(w http.ResponseWriter, r *http.Request) {
	ids := h.registry.Current().Identities()
	if ids == nil {
		ids = []gallery.Identity{}
	}
	respondJSON(w, http.StatusOK, identitiesResponse{
		Identities: ids,
		Count:      len(ids),
	})
}
