package api

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hoanghai1803/newsluhy/internal/api/handlers"
	"github.com/hoanghai1803/newsluhy/internal/pipeline"
)

//go:embed web
var webFS embed.FS

// Options configures the routes that depend on deployment settings.
type Options struct {
	Env        pipeline.Env
	BotToken   string
	Background *handlers.Background
}

// NewRouter creates and configures the HTTP router with the API routes, the
// health check and the embedded landing and Mini App pages.
func NewRouter(p *pipeline.Pipeline, opts Options) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(Recovery)
	r.Use(CORS)

	bg := opts.Background
	if bg == nil {
		bg = handlers.NewBackground()
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.NoCache)

		api.Post("/find-sources", handlers.FindSources(p, opts.Env))
		api.Post("/webhook", handlers.Webhook(p, opts.Env, opts.BotToken, bg))
	})

	r.Get("/healthz", handlers.Health())

	web, _ := fs.Sub(webFS, "web")
	r.Get("/", page(web, "index.html"))
	r.Get("/mini", page(web, "mini.html"))

	return r
}

// page serves a single embedded HTML file.
func page(fsys fs.FS, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, fsys, name)
	}
}
