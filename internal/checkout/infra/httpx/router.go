package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post("/checkout", handler.DirectCheckout)
	r.Get("/sales", handler.ListSales)
	r.Get("/sales/user/{userID}", handler.ListUserSales)
	r.Post("/create-checkout-session", handler.CreateCheckoutSession)
	r.Get("/checkout-session/{sessionID}", handler.GetCheckoutSession)
	r.Post("/webhook", handler.Webhook)

	return otelhttp.NewHandler(r, "checkout-api")
}
