package devtools

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/vango-dev/vmodel/pkg/model"
)

// Config configures a devtools Server.
type Config struct {
	// Logger receives request and connection logs.
	// Default: slog.Default()
	Logger *slog.Logger

	// Gatherer backs the /metrics endpoint.
	// Default: prometheus.DefaultGatherer
	Gatherer prometheus.Gatherer

	// ReadOnly disables PUT /models/{name} and action dispatch.
	ReadOnly bool

	// CheckOrigin validates WebSocket upgrade origins.
	// Default: allow all origins.
	CheckOrigin func(r *http.Request) bool

	// WriteTimeout bounds a single WebSocket frame write.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// AccessLog enables chi's request logger.
	AccessLog bool
}

// Option configures a devtools Server.
type Option func(*Config)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithGatherer sets the Prometheus gatherer served at /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(c *Config) {
		c.Gatherer = g
	}
}

// WithReadOnly disables state writes and action dispatch.
func WithReadOnly(readOnly bool) Option {
	return func(c *Config) {
		c.ReadOnly = readOnly
	}
}

// WithCheckOrigin sets the WebSocket origin check.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(c *Config) {
		c.CheckOrigin = fn
	}
}

// WithWriteTimeout sets the WebSocket write timeout.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.WriteTimeout = d
	}
}

// WithAccessLog enables per-request logging.
func WithAccessLog(enabled bool) Option {
	return func(c *Config) {
		c.AccessLog = enabled
	}
}

func defaultConfig() Config {
	return Config{
		Logger:       slog.Default(),
		Gatherer:     prometheus.DefaultGatherer,
		CheckOrigin:  func(r *http.Request) bool { return true },
		WriteTimeout: 10 * time.Second,
	}
}

// Server serves the models of a Registry over HTTP.
type Server struct {
	registry *model.Registry
	config   Config
	router   chi.Router
	upgrader websocket.Upgrader
	clients  *xsync.MapOf[*client, string]
	logger   *slog.Logger
}

// New creates a devtools server over reg.
func New(reg *model.Registry, opts ...Option) *Server {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Server{
		registry: reg,
		config:   cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     cfg.CheckOrigin,
		},
		clients: xsync.NewMapOf[*client, string](),
		logger:  cfg.Logger.With("component", "devtools"),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	if s.config.AccessLog {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/models", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Get("/ws", s.handleWatch)
			if !s.config.ReadOnly {
				r.Put("/", s.handleRestore)
				r.Post("/actions/{action}", s.handleDispatch)
			}
		})
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the server as an http.Handler for mounting in another router.
//
//	r := chi.NewRouter()
//	r.Mount("/_models", devtools.New(reg).Handler())
func (s *Server) Handler() http.Handler {
	return s.router
}

// ClientCount returns the number of connected WebSocket clients.
func (s *Server) ClientCount() int {
	return s.clients.Size()
}

// Close disconnects every WebSocket client.
func (s *Server) Close() {
	s.clients.Range(func(c *client, _ string) bool {
		c.conn.Close()
		return true
	})
}
