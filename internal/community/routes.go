package community

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

		r.Get("/announcements", list[Announcement]("announcements", "pinned DESC, published_at DESC", publishedOnly, byTag))
		r.Get("/events", list[Event]("events", "starts_at ASC", upcomingOnly))
		r.Get("/officials", list[Official]("officials", "sort_order ASC, name ASC", currentTerm))
		r.Get("/emergency-contacts", list[EmergencyContact]("emergency contacts", "agency ASC"))

		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminMiddleware)

			r.Post("/announcements", create[Announcement]("announcement"))
			r.Put("/announcements/{id}", update[Announcement]("announcement"))
			r.Delete("/announcements/{id}", remove[Announcement]("announcement"))

			r.Post("/events", create[Event]("event"))
			r.Put("/events/{id}", update[Event]("event"))
			r.Delete("/events/{id}", remove[Event]("event"))

			r.Post("/officials", create[Official]("official"))
			r.Put("/officials/{id}", update[Official]("official"))
			r.Delete("/officials/{id}", remove[Official]("official"))

			r.Post("/emergency-contacts", create[EmergencyContact]("emergency contact"))
			r.Put("/emergency-contacts/{id}", update[EmergencyContact]("emergency contact"))
			r.Delete("/emergency-contacts/{id}", remove[EmergencyContact]("emergency contact"))
		})
	})

	return r
}
