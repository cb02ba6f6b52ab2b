package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/userdeck-cli/internal/users"
)

var (
	filterSearch  string
	filterCountry string
	filterGender  string
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Show or change the saved list filters",
}

var filterShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show saved filters and the countries available to filter on",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		f := s.state.Filters()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "search: %s\n", f.Search)
		fmt.Fprintf(out, "country: %s\n", f.Country)
		fmt.Fprintf(out, "gender: %s\n", f.Gender)
		if countries := users.Countries(s.state.Users()); len(countries) > 0 {
			fmt.Fprintf(out, "available countries: %s\n", strings.Join(countries, ", "))
		}
		return nil
	},
}

var filterSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update saved filters (only the flags given are changed)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		f := s.state.Filters()
		flags := cmd.Flags()
		if flags.Changed("search") {
			f.Search = filterSearch
		}
		if flags.Changed("country") {
			f.Country = strings.TrimSpace(filterCountry)
			if f.Country == "" {
				f.Country = users.All
			}
		}
		if flags.Changed("gender") {
			g, err := normalizeGender(filterGender)
			if err != nil {
				return err
			}
			f.Gender = g
		}
		s.state.SetFilters(f)
		if err := s.state.Save(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Saved filters")
		return nil
	},
}

var filterClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Reset saved filters to show everyone",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		s.state.SetFilters(users.DefaultFilters())
		if err := s.state.Save(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Cleared filters")
		return nil
	},
}

// normalizeGender accepts the filter values offered by the gender picker.
func normalizeGender(v string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", users.All:
		return users.All, nil
	case "male":
		return "male", nil
	case "female":
		return "female", nil
	default:
		return "", fmt.Errorf("invalid gender filter: %s (use male, female or all)", v)
	}
}

func init() {
	rootCmd.AddCommand(filterCmd)
	filterCmd.AddCommand(filterShowCmd)
	filterCmd.AddCommand(filterSetCmd)
	filterCmd.AddCommand(filterClearCmd)
	filterSetCmd.Flags().StringVarP(&filterSearch, "search", "s", "", "search text")
	filterSetCmd.Flags().StringVar(&filterCountry, "country", "", "country, or 'all'")
	filterSetCmd.Flags().StringVar(&filterGender, "gender", "", "male | female | all")
}
