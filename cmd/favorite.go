package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var favoriteList bool

var favoriteCmd = &cobra.Command{
	Use:   "favorite [id]",
	Short: "Toggle a user as favorite, or list favorites",
	Args: func(cmd *cobra.Command, args []string) error {
		if favoriteList {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		out := cmd.OutOrStdout()

		if favoriteList {
			favs := s.state.FavoriteUsers()
			if len(favs) == 0 {
				fmt.Fprintln(out, "(no favorites)")
				return nil
			}
			printUsers(out, s.state, favs)
			return nil
		}

		id := args[0]
		known := false
		for _, u := range s.state.Users() {
			if u.ID == id {
				known = true
				break
			}
		}
		if !known {
			fmt.Fprintf(out, "⚠ Warning: %s is not in the cached user list\n", id)
		}
		on := s.state.ToggleFavorite(id)
		if err := s.state.Save(); err != nil {
			return err
		}
		if on {
			fmt.Fprintf(out, "✓ Added %s to favorites\n", id)
		} else {
			fmt.Fprintf(out, "✓ Removed %s from favorites\n", id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(favoriteCmd)
	favoriteCmd.Flags().BoolVar(&favoriteList, "list", false, "list favorite users")
}
