package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/userdeck-cli/internal/analytics"
	"github.com/KaramelBytes/userdeck-cli/internal/users"
	"github.com/KaramelBytes/userdeck-cli/internal/utils"
)

var (
	anaJSON       bool
	anaOutputPath string
	anaFiltered   bool
	anaStrict     bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Summarize cached users: ages, countries and gender split",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		list := s.state.Users()
		if anaFiltered {
			list = s.state.Visible()
		}
		sum, err := summarize(ctx, list, anaStrict)
		if err != nil {
			return err
		}

		var body []byte
		if anaJSON {
			b, err := utils.PrettyJSON(sum)
			if err != nil {
				return fmt.Errorf("encode summary: %w", err)
			}
			body = append(b, '\n')
		} else {
			body = []byte(sum.Markdown() + lastUpdatedLine(ctx, s))
		}

		// Decide where to write: --output path or stdout
		if anaOutputPath != "" {
			if err := os.WriteFile(anaOutputPath, body, 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote analysis to %s\n", anaOutputPath)
			return nil
		}
		_, err = cmd.OutOrStdout().Write(body)
		return err
	},
}

func lastUpdatedLine(ctx context.Context, s *session) string {
	ts, err := s.store.LastUpdated(ctx)
	if err != nil {
		logger.WithError(err).Warn("error reading cache timestamp")
		return ""
	}
	if ts.IsZero() {
		return "\nLast updated: never\n"
	}
	return fmt.Sprintf("\nLast updated: %s\n", ts.Local().Format(time.RFC1123))
}

// summarize runs the analytics engine on its own goroutine and returns early
// when ctx is done.
func summarize(ctx context.Context, list []users.User, strict bool) (analytics.Summary, error) {
	type result struct {
		sum analytics.Summary
		err error
	}
	done := make(chan result, 1)
	go func() {
		if strict {
			sum, err := analytics.SummarizeStrict(list)
			done <- result{sum, err}
			return
		}
		done <- result{sum: analytics.Summarize(list)}
	}()
	select {
	case <-ctx.Done():
		return analytics.Summary{}, ctx.Err()
	case r := <-done:
		return r.sum, r.err
	}
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().BoolVar(&anaJSON, "json", false, "print the summary as JSON instead of Markdown")
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the summary")
	analyzeCmd.Flags().BoolVar(&anaFiltered, "filtered", false, "summarize only users matching the saved filters")
	analyzeCmd.Flags().BoolVar(&anaStrict, "strict", false, "fail on records with a missing id or negative age")
}
