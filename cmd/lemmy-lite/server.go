package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lemmylite/lemmy-lite/engine/lemmy"
	"github.com/lemmylite/lemmy-lite/pkg/metrics"
	"github.com/lemmylite/lemmy-lite/pkg/mid"
	"github.com/lemmylite/lemmy-lite/pkg/resilience"
)

// server holds the handler dependencies. Everything in it is safe for
// concurrent use.
type server struct {
	client   *lemmy.Client
	breakers *resilience.Breakers
	reg      *metrics.Registry
	log      *slog.Logger
	now      func() time.Time

	corsOrigin     string
	requestTimeout time.Duration
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	// Route-aware middleware runs inside the router so the matched
	// pattern is known.
	r.Use(
		metrics.Middleware(s.reg, routePattern),
		mid.Timeout(s.requestTimeout),
	)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found", Message: "no such route"})
	})

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", s.reg.Handler())
	r.Get("/", s.handleIndex)

	r.Route("/{instance}", func(r chi.Router) {
		r.Get("/", s.handleFrontPage)
		r.Get("/communities", s.handleCommunities)
		r.Get("/c/{community}", s.handleCommunityPosts)
		r.Get("/c/{community}/info", s.handleCommunity)
		r.Get("/post/{id}", s.handlePost)
		r.Get("/post/{id}/comment/{commentID}", s.handleComment)
		r.Get("/u/{name}", s.handlePerson)
		r.Get("/search", s.handleSearch)
	})

	return mid.Chain(r,
		mid.RequestID(),
		mid.Logger(s.log),
		mid.Recover(s.log),
		mid.CORS(s.corsOrigin),
		mid.OTel("lemmy-lite"),
	)
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
