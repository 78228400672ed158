package residents

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

		r.Get("/", ListResidents)
		r.Post("/", CreateResident)
		r.Get("/{id}", GetResident)
		r.Put("/{id}", UpdateResident)
		r.Delete("/{id}", DeleteResident)

		r.Get("/households", ListHouseholds)
		r.Post("/households", CreateHousehold)
		r.Get("/households/{id}", GetHouseholdMembers)
		r.Get("/households/{id}/members", GetHouseholdMembers)
		r.Put("/households/{id}", UpdateHousehold)
		r.Delete("/households/{id}", DeleteHousehold)
	})

	return r
}
