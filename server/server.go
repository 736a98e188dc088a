// Package server provides the HTTP API of hakim.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/modernice/hakim"
	"github.com/modernice/hakim/internal/metrics"
)

const (
	// DefaultTimeout is the default deadline of a single chat request.
	DefaultTimeout = 3 * time.Minute

	// ShutdownTimeout is the time given to open requests on shutdown.
	ShutdownTimeout = 10 * time.Second
)

// Server serves the HTTP API.
type Server struct {
	asker        Asker
	timeout      time.Duration
	allowOrigins []string
	metrics      *metrics.Metrics
	verbose      bool
	engine       *gin.Engine
}

// Option is a Server option.
type Option func(*Server)

// Timeout sets the deadline of a single chat request. A value <= 0 disables
// the deadline.
func Timeout(d time.Duration) Option {
	return func(s *Server) {
		s.timeout = d
	}
}

// AllowOrigins restricts CORS requests to the given origins. All origins are
// allowed by default.
func AllowOrigins(origins ...string) Option {
	return func(s *Server) {
		s.allowOrigins = append(s.allowOrigins, origins...)
	}
}

// Metrics enables the /metrics endpoint and request counting.
func Metrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// Verbose enables request logging. The gin mode is left to the caller.
func Verbose(verbose bool) Option {
	return func(s *Server) {
		s.verbose = verbose
	}
}

// New returns a Server that answers chat requests with asker.
func New(asker Asker, opts ...Option) *Server {
	if asker == nil {
		panic("nil asker")
	}

	s := &Server{
		asker:   asker,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.engine = s.newEngine()

	return s
}

// Handler returns the HTTP handler of the API.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves the API on addr until ctx is canceled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		s.debug("Listening on %s", addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return fmt.Errorf("listen and serve: %w", err)
	case <-ctx.Done():
	}

	s.debug("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}

func (s *Server) newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if s.verbose {
		r.Use(gin.Logger())
	}

	cfg := cors.DefaultConfig()
	if len(s.allowOrigins) > 0 {
		cfg.AllowOrigins = s.allowOrigins
	} else {
		cfg.AllowAllOrigins = true
	}
	cfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type"}
	r.Use(cors.New(cfg))

	r.POST("/translate-chat", s.chat)
	r.GET("/health", s.health)
	r.GET("/languages", s.languages)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	return r
}

func (s *Server) chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respond(c, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	ctx := c.Request.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	code, body := Respond(ctx, s.asker, req)
	if code != http.StatusOK {
		s.debug("Chat request failed with %d: %v", code, body)
	}

	s.respond(c, code, body)
}

func (s *Server) respond(c *gin.Context, code int, body any) {
	if s.metrics != nil {
		s.metrics.Request(code)
	}
	c.JSON(code, body)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "hakim",
		"version": hakim.Version(),
	})
}

// LanguageResponse describes a supported language.
type LanguageResponse struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	FLORES string `json:"flores"`
}

func (s *Server) languages(c *gin.Context) {
	langs := hakim.Languages()
	out := make([]LanguageResponse, len(langs))
	for i, lang := range langs {
		out[i] = LanguageResponse{
			Code:   lang.Code,
			Name:   lang.Name,
			FLORES: lang.FLORES(),
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) debug(format string, vals ...interface{}) {
	if s.verbose {
		log.Printf("[Server] %s", fmt.Sprintf(format, vals...))
	}
}
