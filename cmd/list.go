package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/userdeck-cli/internal/state"
	"github.com/KaramelBytes/userdeck-cli/internal/users"
	"github.com/KaramelBytes/userdeck-cli/internal/utils"
)

var (
	listSearch      string
	listCountry     string
	listGender      string
	listFavorites   bool
	listSaveFilters bool
	listJSON        bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached users matching the current filters",
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
			f.Search = listSearch
		}
		if flags.Changed("country") {
			f.Country = listCountry
		}
		if flags.Changed("gender") {
			g, err := normalizeGender(listGender)
			if err != nil {
				return err
			}
			f.Gender = g
		}
		s.state.SetFilters(f)
		if listSaveFilters {
			if err := s.state.Save(); err != nil {
				return err
			}
		}

		var shown []users.User
		if listFavorites {
			shown = users.Filter(s.state.FavoriteUsers(), f)
		} else {
			shown = s.state.Visible()
		}
		out := cmd.OutOrStdout()
		if listJSON {
			if shown == nil {
				shown = []users.User{}
			}
			b, err := utils.PrettyJSON(shown)
			if err != nil {
				return fmt.Errorf("encode users: %w", err)
			}
			_, err = out.Write(append(b, '\n'))
			return err
		}
		total := len(s.state.Users())
		if total == 0 {
			fmt.Fprintln(out, "(no users cached; run `userdeck fetch`)")
			return nil
		}
		printUsers(out, s.state, shown)
		fmt.Fprintf(out, "Showing %d of %d users (%d favorites)\n", len(shown), total, len(s.state.Favorites()))
		if ts, err := s.store.LastUpdated(cmd.Context()); err == nil && !ts.IsZero() {
			fmt.Fprintf(out, "Cache updated %s\n", ts.Local().Format(time.RFC1123))
		}
		return nil
	},
}

func printUsers(out io.Writer, st *state.State, list []users.User) {
	if len(list) == 0 {
		fmt.Fprintln(out, "(no matching users)")
		return
	}
	for _, u := range list {
		mark := " "
		if st.IsFavorite(u.ID) {
			mark = "★"
		}
		fmt.Fprintf(out, "%s %s  %s (%d) %s, %s <%s>\n", mark, u.ID, u.DisplayName(), u.Age, u.Gender, u.Country, u.Email)
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "case-insensitive match on name or email")
	listCmd.Flags().StringVar(&listCountry, "country", "", "country to show, or 'all'")
	listCmd.Flags().StringVar(&listGender, "gender", "", "male | female | all")
	listCmd.Flags().BoolVar(&listFavorites, "favorites", false, "show favorites only")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print matching users as a JSON array (readable by import)")
	listCmd.Flags().BoolVar(&listSaveFilters, "save-filters", false, "persist the filters used for this listing")
}
