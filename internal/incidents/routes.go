package incidents

import (
	"net/http"

	"github.com/EmpoweredVote/Barangay-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes(sessions middleware.SessionFetcher) http.Handler {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessions))
		r.Use(middleware.BarangayScope)

		r.Get("/", ListIncidents)
		r.Post("/", CreateIncident)
		r.Get("/flagged", ListFlagged)
		r.Get("/{id}", GetIncident)
		r.Patch("/{id}/status", UpdateStatus)
		r.Post("/{id}/parties", AddParty)
		r.Post("/{id}/flags", FlagIndividual)
	})

	return r
}
