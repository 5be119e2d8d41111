package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/globechat/internal/logging"
	"github.com/ppiankov/globechat/internal/model"
	"github.com/ppiankov/globechat/internal/render"
)

// Version is overridden at build time with -ldflags
var Version = "v0.1.0"

var (
	cfgFile   string
	verbose   bool
	colorFlag string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "globechat",
	Short: "globechat - ask questions about a country's research landscape",
	Long: `globechat answers short questions about the research output of a
selected country.

Answers are grounded in a bounded digest of precomputed statistics: the
country's leading research subfields and its most distinctive
specializations. Without a selected country the assistant asks you to pick
one.

Run 'globechat serve' for the HTTP endpoint, or 'globechat chat' for a
terminal session.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "globechat %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.globechat/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&colorFlag, "color", "", "color output: auto, always, never")
	rootCmd.PersistentFlags().String("log-mode", "", "log format: dev or prod")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("client.color", rootCmd.PersistentFlags().Lookup("color"))
	_ = viper.BindPFlag("log.mode", rootCmd.PersistentFlags().Lookup("log-mode"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in .env, the config file and GLOBECHAT_* variables
func initConfig() {
	// A missing .env is the normal case
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(dir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	setDefaults(viper.GetViper(), model.DefaultConfig())

	bindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// configDir returns ~/.globechat
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".globechat"), nil
}

// bindEnv maps GLOBECHAT_LLM_PROVIDER to llm.provider and so on
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("GLOBECHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// setDefaults registers every key so environment overrides reach Unmarshal
func setDefaults(v *viper.Viper, cfg *model.Config) {
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.allowed_origins", cfg.Server.AllowedOrigins)
	v.SetDefault("server.shutdown_timeout", cfg.Server.ShutdownTimeout)
	v.SetDefault("server.max_body_bytes", cfg.Server.MaxBodyBytes)

	v.SetDefault("llm.provider", cfg.LLM.Provider)
	v.SetDefault("llm.model", cfg.LLM.Model)
	v.SetDefault("llm.api_key", cfg.LLM.APIKey)
	v.SetDefault("llm.base_url", cfg.LLM.BaseURL)
	v.SetDefault("llm.timeout", cfg.LLM.Timeout)
	v.SetDefault("llm.max_tokens", cfg.LLM.MaxTokens)
	v.SetDefault("llm.temperature", cfg.LLM.Temperature)
	v.SetDefault("llm.http_proxy", cfg.LLM.HTTPProxy)
	v.SetDefault("llm.https_proxy", cfg.LLM.HTTPSProxy)

	v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	v.SetDefault("cache.ttl", cfg.Cache.TTL)
	v.SetDefault("cache.max_entries", cfg.Cache.MaxEntries)

	v.SetDefault("data.path", cfg.Data.Path)

	v.SetDefault("rate_limit.requests_per_second", cfg.RateLimit.RequestsPerSecond)
	v.SetDefault("rate_limit.burst", cfg.RateLimit.Burst)

	v.SetDefault("concurrency.workers", cfg.Concurrency.Workers)

	v.SetDefault("client.server_url", cfg.Client.ServerURL)
	v.SetDefault("client.timeout", cfg.Client.Timeout)
	v.SetDefault("client.color", cfg.Client.Color)

	v.SetDefault("log.mode", cfg.Log.Mode)
}

// loadConfig decodes the effective configuration
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	// An empty flag value must not clobber the configured mode
	if cfg.Log.Mode == "" {
		cfg.Log.Mode = model.DefaultConfig().Log.Mode
	}
	return cfg, nil
}

// session bundles what every command needs
type session struct {
	cfg     *model.Config
	log     *logging.Logger
	printer *render.Printer
}

// newSession binds the command's flags to config keys and loads the
// configuration. Binding happens here rather than in init because viper
// keeps one flag per key and several commands share keys.
func newSession(cmd *cobra.Command, flags map[string]string) (*session, error) {
	for key, name := range flags {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := viper.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind --%s: %w", name, err)
			}
		}
	}

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}

	log, err := logging.New(cfg.Log.Mode)
	if err != nil {
		return nil, err
	}

	mode, err := render.ParseColorMode(cfg.Client.Color)
	if err != nil {
		return nil, err
	}

	return &session{
		cfg:     cfg,
		log:     log,
		printer: render.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode),
	}, nil
}
