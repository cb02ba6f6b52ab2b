package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/userdeck-cli/internal/cache"
	cfgpkg "github.com/KaramelBytes/userdeck-cli/internal/config"
	"github.com/KaramelBytes/userdeck-cli/internal/directory"
	"github.com/KaramelBytes/userdeck-cli/internal/logging"
	"github.com/KaramelBytes/userdeck-cli/internal/refresh"
	"github.com/KaramelBytes/userdeck-cli/internal/state"
	"github.com/KaramelBytes/userdeck-cli/internal/utils"
)

var (
	// Global flags (wired to config/viper in loadConfig)
	cfgFile string
	debug   bool
	// Retry/HTTP flags (override config if set)
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int
	flagRetryBaseDelayMs int
	flagRetryMaxDelayMs  int

	// Loaded configuration
	cfg    *cfgpkg.Global
	logger *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "userdeck",
	Short: "userdeck: browse, filter and analyze a cached user directory",
	Long: `userdeck downloads user profiles from a public directory service, caches them locally,
lets you search, filter and favorite them, and prints aggregate statistics (age, country, gender).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.userdeck/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max retry attempts on 429/5xx (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryBaseDelayMs, "retry-base-ms", 0, "base retry backoff in ms (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxDelayMs, "retry-max-ms", 0, "max retry backoff cap in ms (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		logger = logging.New("warn", debug)
		return
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("retry-max") && flagRetryMaxAttempts > 0 {
		cfg.RetryMaxAttempts = flagRetryMaxAttempts
	}
	if f.Changed("retry-base-ms") && flagRetryBaseDelayMs > 0 {
		cfg.RetryBaseDelayMs = flagRetryBaseDelayMs
	}
	if f.Changed("retry-max-ms") && flagRetryMaxDelayMs > 0 {
		cfg.RetryMaxDelayMs = flagRetryMaxDelayMs
	}
	logger = logging.New(cfg.LogLevel, debug)
}

// ensureConfig loads configuration for commands invoked before OnInitialize ran.
func ensureConfig() error {
	if cfg != nil {
		return nil
	}
	loadConfig()
	if cfg == nil {
		return fmt.Errorf("no configuration loaded")
	}
	return nil
}

// session bundles the stores a command works against.
type session struct {
	store *cache.Store
	state *state.State
}

func (s *session) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// openSession opens the stores and fills the state from the cache.
func openSession(ctx context.Context) (*session, error) {
	s, err := openStores()
	if err != nil {
		return nil, err
	}
	loader := &refresh.Refresher{Cache: s.store, State: s.state, Logger: logger}
	loader.LoadCached(ctx)
	return s, nil
}

// openStores opens the user cache and loads persisted favorites and filters.
// The state holds no users yet.
func openStores() (*session, error) {
	if err := ensureConfig(); err != nil {
		return nil, err
	}
	dir, err := utils.ExpandHome(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	st, err := state.Load(dir)
	if err != nil {
		return nil, err
	}
	store, err := cache.Open(filepath.Join(dir, "users.db"))
	if err != nil {
		return nil, err
	}
	return &session{store: store, state: st}, nil
}

// refresher wires the directory client, the cache and the state together.
func (s *session) refresher(opt directory.FetchOptions) *refresh.Refresher {
	pages := cfg.Pages
	if pages <= 0 {
		pages = 1
	}
	return &refresh.Refresher{
		Source:      newDirectoryClient(),
		Cache:       s.store,
		State:       s.state,
		Options:     opt,
		Pages:       pages,
		Concurrency: cfg.FetchConcurrency,
		Logger:      logger,
	}
}

func newDirectoryClient() *directory.Client {
	return directory.NewClient(directory.Settings{
		BaseURL:          cfg.APIURL,
		HTTPTimeout:      time.Duration(cfg.HTTPTimeoutSec) * time.Second,
		RetryMaxAttempts: cfg.RetryMaxAttempts,
		RetryBaseDelay:   time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond,
		RetryMaxDelay:    time.Duration(cfg.RetryMaxDelayMs) * time.Millisecond,
		RateLimit:        cfg.RateLimitRPS,
		BreakerFailures:  cfg.BreakerFailures,
		Logger:           logger,
	})
}

// fetchOptionsFromConfig builds the default query from configuration.
func fetchOptionsFromConfig() directory.FetchOptions {
	opt := directory.DefaultFetchOptions()
	if cfg.Results > 0 {
		opt.Results = cfg.Results
	}
	if cfg.Seed != "" {
		opt.Seed = cfg.Seed
	}
	if len(cfg.Nationalities) > 0 {
		opt.Nationalities = cfg.Nationalities
	}
	return opt
}
