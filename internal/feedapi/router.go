// FeedVault - NuGet-compatible package feed storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedvault

package feedapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/feedvault/internal/feedauth"
)

// RouterConfig bundles everything NewRouter needs beyond the repository
// itself: the push-auth collaborators and the CORS/rate-limit policy.
type RouterConfig struct {
	APIKeys    *feedauth.APIKeyAuthenticator
	JWTManager *feedauth.JWTManager // nil disables bearer-token push auth
	Middleware MiddlewareConfig
}

// NewRouter builds the package feed's HTTP surface: public read routes
// (list/find/search/updates), push-auth-gated write routes (push/remove),
// a Prometheus-labeled metrics middleware, and a mounted Swagger UI.
// Grounded on the teacher's Chi router construction
// (internal/api/chi_router.go SetupChi) and middleware factory
// (internal/api/chi_middleware.go), replacing its media-domain route
// tree with this feed's package operations.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsMiddleware(cfg.Middleware))
	r.Use(rateLimitMiddleware(cfg.Middleware))
	r.Use(metricsMiddleware(func(req *http.Request) string {
		rc := chi.RouteContext(req.Context())
		if rc == nil || rc.RoutePattern() == "" {
			return req.URL.Path
		}
		return rc.RoutePattern()
	}))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	r.Route("/packages", func(pr chi.Router) {
		pr.Get("/", h.ListPackages)
		pr.Get("/updates", h.GetUpdates)
		pr.Get("/{id}", h.FindPackagesById)

		pr.Group(func(wr chi.Router) {
			wr.Use(requirePushAuth(cfg.APIKeys, cfg.JWTManager))
			wr.Put("/", h.PushPackage)
			wr.Delete("/{id}/{version}", h.RemovePackage)
		})
	})

	r.Get("/search", h.Search)

	return r
}
