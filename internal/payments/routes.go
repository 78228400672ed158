package payments

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()

	// Public routes; requests are authenticated by signature.
	r.Post("/payments", PaymentWebhook)

	return r
}
