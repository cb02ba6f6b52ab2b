package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/userdeck-cli/internal/config"
	"github.com/KaramelBytes/userdeck-cli/internal/logging"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set userdeck configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if err := ensureConfig(); err != nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		fmt.Fprintf(out, "api_url: %s\n", cfg.APIURL)
		fmt.Fprintf(out, "results: %d\n", cfg.Results)
		fmt.Fprintf(out, "seed: %s\n", cfg.Seed)
		fmt.Fprintf(out, "nationalities: %s\n", strings.Join(cfg.Nationalities, ","))
		fmt.Fprintf(out, "pages: %d\n", cfg.Pages)
		fmt.Fprintf(out, "fetch_concurrency: %d\n", cfg.FetchConcurrency)
		fmt.Fprintf(out, "rate_limit_rps: %.2f\n", cfg.RateLimitRPS)
		fmt.Fprintf(out, "breaker_failures: %d\n", cfg.BreakerFailures)
		fmt.Fprintf(out, "data_dir: %s\n", cfg.DataDir)
		fmt.Fprintf(out, "http_timeout_sec: %d\n", cfg.HTTPTimeoutSec)
		fmt.Fprintf(out, "retry_max_attempts: %d\n", cfg.RetryMaxAttempts)
		fmt.Fprintf(out, "retry_base_delay_ms: %d\n", cfg.RetryBaseDelayMs)
		fmt.Fprintf(out, "retry_max_delay_ms: %d\n", cfg.RetryMaxDelayMs)
		fmt.Fprintf(out, "log_level: %s\n", cfg.LogLevel)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if err := ensureConfig(); err != nil {
			return err
		}
		switch key {
		case "api_url":
			cfg.APIURL = val
		case "seed":
			cfg.Seed = val
		case "nationalities":
			var nat []string
			for _, n := range strings.Split(val, ",") {
				if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
					nat = append(nat, n)
				}
			}
			if len(nat) == 0 {
				return fmt.Errorf("invalid nationalities: %q", val)
			}
			cfg.Nationalities = nat
		case "data_dir":
			cfg.DataDir = val
		case "log_level":
			if !logging.ValidLevel(val) {
				return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
			}
			cfg.LogLevel = val
		case "rate_limit_rps":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f < 0 {
				return fmt.Errorf("invalid float for rate_limit_rps: %v", val)
			}
			cfg.RateLimitRPS = f
		case "results", "pages", "fetch_concurrency", "breaker_failures",
			"http_timeout_sec", "retry_max_attempts", "retry_base_delay_ms", "retry_max_delay_ms":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for %s: %v", key, val)
			}
			setIntKey(key, i)
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func setIntKey(key string, i int) {
	switch key {
	case "results":
		cfg.Results = i
	case "pages":
		cfg.Pages = i
	case "fetch_concurrency":
		cfg.FetchConcurrency = i
	case "breaker_failures":
		cfg.BreakerFailures = i
	case "http_timeout_sec":
		cfg.HTTPTimeoutSec = i
	case "retry_max_attempts":
		cfg.RetryMaxAttempts = i
	case "retry_base_delay_ms":
		cfg.RetryBaseDelayMs = i
	case "retry_max_delay_ms":
		cfg.RetryMaxDelayMs = i
	}
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
