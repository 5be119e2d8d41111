package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/globechat/internal/api"
	"github.com/ppiankov/globechat/internal/countrydata"
	"github.com/ppiankov/globechat/internal/worker"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat endpoint over HTTP",
	Long: `Serve starts the HTTP API:
- POST /api/chat answers {message, countryData}
- GET  /api/countries lists the dataset
- GET  /api/countries/:code returns one statistics record
- GET  /healthz and /metrics for operations

Example:
  globechat serve
  globechat serve --addr :9090 --data ./countries.json
  GEMINI_API_KEY=... globechat serve --rps 2 --burst 10`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	serveCmd.Flags().String("data", "", "country dataset, JSON or YAML (default: embedded sample)")
	serveCmd.Flags().Float64("rps", 0, "chat requests per second per client")
	serveCmd.Flags().Int("burst", 0, "chat request burst per client")
	serveCmd.Flags().StringSlice("allowed-origins", nil, "CORS origins (empty = allow all)")
}

func runServe(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, map[string]string{
		"server.addr":                    "addr",
		"data.path":                      "data",
		"rate_limit.requests_per_second": "rps",
		"rate_limit.burst":               "burst",
		"server.allowed_origins":         "allowed-origins",
	})
	if err != nil {
		return err
	}
	defer s.log.Sync()

	store, err := countrydata.Load(s.cfg.Data.Path)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	p, err := buildPipeline(s.cfg, s.log)
	if err != nil {
		return err
	}

	limiter := worker.NewLimiter(s.cfg.RateLimit.RequestsPerSecond, s.cfg.RateLimit.Burst)

	server := api.NewServer(api.Options{
		Answerer:       p,
		Store:          store,
		Limiter:        limiter,
		Logger:         s.log,
		ProviderName:   providerName(p),
		CacheStats:     cacheStats(p),
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		MaxBodyBytes:   s.cfg.Server.MaxBodyBytes,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s.log.Info("Loaded dataset", "countries", store.Len(), "path", s.cfg.Data.Path)

	if err := server.Run(ctx, s.cfg.Server.Addr, s.cfg.Server.ShutdownTimeout); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	s.log.Info("Server stopped")
	return nil
}
