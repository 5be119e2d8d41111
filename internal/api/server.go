// Package api exposes the chat pipeline over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/globechat/internal/cache"
	"github.com/ppiankov/globechat/internal/countrydata"
	"github.com/ppiankov/globechat/internal/logging"
	"github.com/ppiankov/globechat/internal/pipeline"
	"github.com/ppiankov/globechat/internal/worker"
)

// limiterIdle is how long a client bucket survives without traffic
const limiterIdle = 10 * time.Minute

// Options configures a Server
type Options struct {
	Answerer       pipeline.Answerer
	Store          *countrydata.Store
	Limiter        *worker.Limiter // nil disables rate limiting
	Logger         *logging.Logger
	ProviderName   string
	CacheStats     func() cache.Stats // nil when answers are not cached
	AllowedOrigins []string
	MaxBodyBytes   int64
}

// Server serves the chat API
type Server struct {
	engine  *gin.Engine
	opts    Options
	logger  *logging.Logger
	limiter *worker.Limiter
}

// NewServer builds the router
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.ProviderName == "" {
		opts.ProviderName = "none"
	}

	s := &Server{
		opts:    opts,
		logger:  opts.Logger,
		limiter: opts.Limiter,
	}
	s.engine = s.newRouter()
	return s
}

func (s *Server) newRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(s.logger))
	r.Use(Metrics())
	r.Use(CORS(s.opts.AllowedOrigins))

	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.POST("/chat", RateLimit(s.limiter), MaxBody(s.opts.MaxBodyBytes), s.handleChat)
	api.GET("/countries", s.handleCountries)
	api.GET("/countries/:code", s.handleCountry)

	return r
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is canceled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Server listening", "addr", addr, "provider", s.opts.ProviderName)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("Server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if s.limiter != nil {
		g.Go(func() error {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					if n := s.limiter.Prune(limiterIdle); n > 0 {
						s.logger.Debug("Pruned idle rate limiters", "count", n)
					}
				}
			}
		})
	}

	return g.Wait()
}
