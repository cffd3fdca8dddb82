package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apimw "github.com/hamed0406/alertapi/internal/httpapi/middleware"
	"github.com/hamed0406/alertapi/internal/ingest"
	"github.com/hamed0406/alertapi/internal/repo"
)

type Options struct {
	MaxBodyBytes   int64    // cap on POST /alerts bodies; <= 0 means 10 MiB
	WebhookRPM     int      // per-client limit on POST /alerts; 0 disables
	WebhookBurst   int
	AllowedOrigins []string // empty allows every origin
}

type Server struct {
	Logger   *zap.Logger
	Store    repo.AlertStore
	Ingester *ingest.Ingester
	Gatherer prometheus.Gatherer
	Opts     Options
}

func NewServer(l *zap.Logger, store repo.AlertStore, ing *ingest.Ingester, g prometheus.Gatherer, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 10 << 20
	}
	return &Server{Logger: l, Store: store, Ingester: ing, Gatherer: g, Opts: opts}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(apimw.RequestLogger(s.Logger))
	r.Use(apimw.Recover(s.Logger))
	r.Use(s.corsHandler())

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	r.With(
		apimw.RateLimit(s.Opts.WebhookRPM, s.Opts.WebhookBurst),
		chimw.RequestSize(s.Opts.MaxBodyBytes),
	).Post("/alerts", s.handleIngest)
	r.Get("/alerts", s.handleRecent)

	if s.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Not found"})
	})
	return r
}

func (s *Server) corsHandler() func(http.Handler) http.Handler {
	if len(s.Opts.AllowedOrigins) == 0 {
		return cors.AllowAll().Handler
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: s.Opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
}

type errorBody struct {
	Error    string `json:"error"`
	Message  string `json:"message,omitempty"`
	Expected string `json:"expected,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
