package documents

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

		r.Get("/types", ListTypes)
		r.With(middleware.AdminMiddleware).Post("/types", CreateType)
		r.With(middleware.AdminMiddleware).Put("/types/{id}", UpdateType)
		r.With(middleware.AdminMiddleware).Delete("/types/{id}", DeleteType)

		r.Get("/issued", ListIssued)
		r.Post("/issued", IssueDocument)
		r.Get("/issued/{id}", GetIssued)
		r.Patch("/issued/{id}/payment", UpdatePayment)

		r.Get("/requests", ListRequests)
		r.Post("/requests", CreateRequest)
		r.Post("/requests/{id}/transition", TransitionRequest)
	})

	return r
}
