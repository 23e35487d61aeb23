package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/benvon/daily-journal/internal/app"
	"github.com/spf13/cobra"
)

// NewUsersCmd creates the users command
func NewUsersCmd(load Loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Inspect journal users",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List known users",
		Long:  "List every user who has sent /start, ordered by chat id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := load(cmd.Context(), app.QueueNone)
			if err != nil {
				return err
			}
			defer closeDeps(deps)

			users, err := deps.Repos.Users.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(users) == 0 {
				fmt.Fprintln(out, "No users yet")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tNAME\tSTATE\tGRAPH")
			for _, u := range users {
				state := u.PendingState
				if state == "" {
					state = "-"
				}
				graph := "-"
				if u.GraphURL != nil {
					graph = *u.GraphURL
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.Key, u.DisplayName, state, graph)
			}
			return w.Flush()
		},
	})
	return cmd
}
