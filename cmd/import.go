package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/userdeck-cli/internal/analytics"
	"github.com/KaramelBytes/userdeck-cli/internal/parser"
	"github.com/KaramelBytes/userdeck-cli/internal/refresh"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Merge users from a CSV, TSV or JSON export into the cache",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := parser.ParseFile(args[0])
		if err != nil {
			return err
		}
		if err := analytics.Validate(list); err != nil {
			return fmt.Errorf("import %s: %w", args[0], err)
		}
		ctx := cmd.Context()
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()
		r := &refresh.Refresher{Cache: s.store, State: s.state, Logger: logger}
		total, err := r.Import(ctx, list)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d users (%d total in cache)\n", len(list), total)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
