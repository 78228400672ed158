package riskmap

import (
	"net/http"

	"github.com/EmpoweredVote/Barangay-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes(sessions middleware.SessionFetcher, h *Handler, emergencyLimit *middleware.RateLimiter) http.Handler {
	r := chi.NewRouter()

	// Public routes
	r.With(emergencyLimit.Middleware).Post("/emergency", h.CreateEmergency)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessions))
		r.Use(middleware.BarangayScope)

		r.Get("/layers", h.Layers)
		r.Get("/live", h.hub.ServeWS)

		r.Post("/shapes", h.CreateShape)
		r.Put("/shapes/{kind}/{id}", h.UpdateShape)
		r.Delete("/shapes/{kind}/{id}", h.DeleteShape)

		r.Get("/emergency", h.ListEmergencies)
		r.Patch("/emergency/{id}", h.UpdateEmergency)
		r.Delete("/emergency/{id}", h.DeleteEmergency)
	})

	return r
}
