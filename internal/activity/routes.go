package activity

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
		r.Use(middleware.AdminMiddleware)

		r.Get("/", ListActivity)
		r.Get("/actions", ListActions)
	})

	return r
}
