package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	chatHandler "github.com/lumichat/lumichat/internal/handler/chat"
	personaHandler "github.com/lumichat/lumichat/internal/handler/persona"
	middlewarePkg "github.com/lumichat/lumichat/internal/middleware"
	personaModel "github.com/lumichat/lumichat/internal/model/persona"
	"github.com/lumichat/lumichat/internal/observe"
	chatService "github.com/lumichat/lumichat/internal/service/chat"
	"github.com/lumichat/lumichat/pkg/utils"
)

// NewRouter wires HTTP routes to core services. metricsHandler may be nil
// when metrics are not initialised (tests).
func NewRouter(
	orchestrator *chatService.Orchestrator,
	personas personaModel.Store,
	metrics *observe.Metrics,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)
	r.Use(metrics.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		chatHandler.New(orchestrator).RegisterRoutes(api)
		personaHandler.New(personas).RegisterRoutes(api)
	})

	return r
}
