package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/kiranshivaraju/evalhunter/internal/api/middleware"
	"github.com/kiranshivaraju/evalhunter/internal/api/response"
)

// Dependencies carries everything NewRouter needs: the auth and rate
// limit middleware plus one HandlerFunc per route. Nil handlers answer
// 501 so the router can be stood up before every endpoint exists.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	HealthHandler    http.HandlerFunc
	ClusterHandler   http.HandlerFunc
	JobStatusHandler http.HandlerFunc
	ListReports      http.HandlerFunc
	GetReport        http.HandlerFunc
	CreateKeyHandler http.HandlerFunc
	ListKeysHandler  http.HandlerFunc
	RevokeKeyHandler http.HandlerFunc
}

// NewRouter assembles the chi route tree under /api/v1.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.Route("/api/v1", func(r chi.Router) {
		// Health stays outside auth so load balancers can probe it.
		r.Get("/health", orNotImplemented(deps.HealthHandler))

		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.Authenticate)
			r.Use(deps.RateLimit.Limit)

			r.Post("/cluster", orNotImplemented(deps.ClusterHandler))
			r.Get("/cluster/{jobID}", orNotImplemented(deps.JobStatusHandler))

			r.Get("/reports", orNotImplemented(deps.ListReports))
			r.Get("/reports/{reportID}", orNotImplemented(deps.GetReport))

			// Key management needs the admin scope on top of a valid key.
			r.Route("/admin/keys", func(r chi.Router) {
				r.Use(deps.Auth.RequireScope("admin"))

				r.Post("/", orNotImplemented(deps.CreateKeyHandler))
				r.Get("/", orNotImplemented(deps.ListKeysHandler))
				r.Delete("/{keyID}", orNotImplemented(deps.RevokeKeyHandler))
			})
		})
	})

	return r
}

func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
