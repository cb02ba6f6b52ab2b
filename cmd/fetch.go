package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/userdeck-cli/internal/refresh"
)

var (
	fetchResults int
	fetchPages   int
	fetchSeed    string
	fetchNat     []string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download users from the directory service and merge them into the cache",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openStores()
		if err != nil {
			return err
		}
		defer s.Close()

		opt := fetchOptionsFromConfig()
		if fetchResults > 0 {
			opt.Results = fetchResults
		}
		if fetchSeed != "" {
			opt.Seed = fetchSeed
		}
		if len(fetchNat) > 0 {
			opt.Nationalities = fetchNat
		}
		r := s.refresher(opt)
		if fetchPages > 0 {
			r.Pages = fetchPages
		}

		out := cmd.OutOrStdout()
		total, err := r.Initialize(ctx)
		if err != nil {
			var fe *refresh.FetchError
			if errors.As(err, &fe) && fe.HasCached {
				fmt.Fprintf(out, "⚠ Warning: %v\n", err)
				fmt.Fprintf(out, "Showing %d cached users\n", total)
				return nil
			}
			return err
		}
		fmt.Fprintf(out, "✓ Fetched users: %d total in cache\n", total)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().IntVar(&fetchResults, "results", 0, "users per page (default from config)")
	fetchCmd.Flags().IntVar(&fetchPages, "pages", 0, "number of pages to fetch (default from config)")
	fetchCmd.Flags().StringVar(&fetchSeed, "seed", "", "dataset seed (default from config)")
	fetchCmd.Flags().StringSliceVar(&fetchNat, "nat", nil, "nationality codes, comma-separated (default from config)")
}
