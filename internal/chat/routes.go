package chat

import (
	"net/http"

	"github.com/EmpoweredVote/Barangay-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes(sessions middleware.SessionFetcher, e *Endpoint, limit *middleware.RateLimiter) http.Handler {
	r := chi.NewRouter()

	// Public: residents use the assistant without a staff session.
	r.With(limit.Middleware).Post("/", e.Chat)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessions))
		r.Use(middleware.BarangayScope)

		r.Get("/faqs", ListFAQs)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminMiddleware)
			r.Post("/faqs", CreateFAQ)
			r.Put("/faqs/{id}", UpdateFAQ)
			r.Delete("/faqs/{id}", DeleteFAQ)
		})
	})

	return r
}
