package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/enroll"
	"github.com/kozaktomas/facegate/internal/gallery"
)

// GallerySaver persists an enrolled gallery. Nil disables persistence.
type GallerySaver interface {
	Save(ctx context.Context, g *gallery.Gallery) error
}

// EnrollHandler rebuilds the identity gallery from the faces directory
// as an async job and swaps it into the registry on success.
type EnrollHandler struct {
	cfg        *config.Config
	embedder   enroll.Embedder
	registry   *gallery.Registry
	store      GallerySaver
	jobManager *JobManager
}

// NewEnrollHandler creates an enroll handler. store may be nil.
func NewEnrollHandler(cfg *config.Config, embedder enroll.Embedder, registry *gallery.Registry, store GallerySaver, jobManager *JobManager) *EnrollHandler {
	return &EnrollHandler{
		cfg:        cfg,
		embedder:   embedder,
		registry:   registry,
		store:      store,
		jobManager: jobManager,
	}
}

// Start handles POST /api/v1/enroll. It kicks off enrollment in the
// background and returns the job ID immediately. Requests keep being
// served from the previous gallery until the swap.
func (h *EnrollHandler) Start(w http.ResponseWriter, r *http.Request) {
	jobID := uuid.New().String()
	job := h.jobManager.CreateJob(jobID)

	go h.run(job)

	respondJSON(w, http.StatusAccepted, map[string]string{
		"job_id": jobID,
		"status": string(JobStatusPending),
	})
}

func (h *EnrollHandler) run(job *EnrollJob) {
	src := enroll.DirSource{Root: h.cfg.Enroll.FacesDir}
	opts := enroll.Options{
		OutlierThreshold: h.cfg.Recognition.OutlierThreshold,
		MaxIterations:    h.cfg.Recognition.OutlierIterations,
	}

	g, err := enroll.Build(context.Background(), src, h.embedder, opts, func(p enroll.Progress) {
		job.SetProgress(p.Name, p.Done, p.Total)
	})
	if err != nil {
		log.Printf("enrollment job %s failed: %v", sanitizeForLog(job.ID), err)
		job.Fail(err)
		return
	}

	h.registry.Swap(g)
	if h.store != nil {
		if err := h.store.Save(context.Background(), g); err != nil {
			// The in-memory gallery is live, persistence failing only
			// costs a rebuild on next startup.
			log.Printf("enrollment job %s: persisting gallery failed: %v", sanitizeForLog(job.ID), err)
		}
	}
	job.Complete(g.Len())
}

// Status handles GET /api/v1/jobs/{jobId}.
func (h *EnrollHandler) Status(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	job := h.jobManager.GetJob(jobID)
	if job == nil {
		respondError(w, http.StatusNotFound, "job not found")
		return
	}
	respondJSON(w, http.StatusOK, job.Snapshot())
}
