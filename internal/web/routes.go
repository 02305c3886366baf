package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/facegate/internal/web/handlers"
)

func (s *Server) setupRoutes(deps Deps) {
	detectHandler := handlers.NewDetectHandler(s.config, deps.Detector)
	recognizeHandler := handlers.NewRecognizeHandler(deps.Recognizer)
	enrollHandler := handlers.NewEnrollHandler(s.config, deps.Embedder, deps.Registry, deps.Store, s.jobManager)
	identitiesHandler := handlers.NewIdentitiesHandler(deps.Registry)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/detect", detectHandler.Detect)
		r.Post("/recognize", recognizeHandler.Recognize)

		r.Post("/enroll", enrollHandler.Start)
		r.Get("/jobs/{jobId}", enrollHandler.Status)

		r.Get("/identities", identitiesHandler.List)
	})
}
