package handlers

import (
	"net/http"
	"time"

	"github.com/benvon/daily-journal/internal/middleware"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

// RouterConfig wires the admin HTTP server
type RouterConfig struct {
	Admin          *AdminHandler
	Health         *HealthChecker
	Version        VersionInfo
	JWTSecret      []byte
	AllowedOrigins []string
	// RateLimit guards /api/v1; nil disables it
	RateLimit func(http.Handler) http.Handler
	Tracing   bool
	Logger    *zap.Logger
}

// NewRouter builds the admin API. /healthz and /version are public; /api/v1
// requires an admin token.
func NewRouter(cfg RouterConfig) *mux.Router {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := mux.NewRouter()
	// gorilla/mux runs middleware in registration order, outermost first
	if cfg.Tracing {
		r.Use(otelmux.Middleware("daily-journal-admin"))
	}
	r.Use(middleware.Logging(log))
	r.Use(middleware.Recover(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(middleware.DefaultRequestTimeout))

	if cfg.Health != nil {
		r.HandleFunc("/healthz", cfg.Health.HealthCheck).Methods(http.MethodGet)
	}
	r.HandleFunc("/version", Version(cfg.Version)).Methods(http.MethodGet)

	if cfg.Admin != nil {
		api := r.PathPrefix("/api/v1").Subrouter()
		if cfg.RateLimit != nil {
			api.Use(cfg.RateLimit)
		}
		api.Use(middleware.AdminAuth(cfg.JWTSecret, log))
		cfg.Admin.RegisterRoutes(api)
	}

	// preflight requests are answered by the CORS middleware
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

// NewServer wraps handler in an http.Server with the admin timeouts
func NewServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}
