package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/benvon/daily-journal/internal/app"
	"github.com/benvon/daily-journal/internal/database"
	"github.com/benvon/daily-journal/internal/models"
	"github.com/benvon/daily-journal/internal/validation"
	"github.com/spf13/cobra"
)

// NewReportCmd creates the report command
func NewReportCmd(load Loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Preview weekly reports",
	}

	var user int64
	var end string
	show := &cobra.Command{
		Use:   "show",
		Short: "Print a user's weekly report",
		Long:  "Print the weekly report messages for the seven days ending on --end (default today)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := requireUser(user)
			if err != nil {
				return err
			}
			deps, err := load(cmd.Context(), app.QueueNone)
			if err != nil {
				return err
			}
			defer closeDeps(deps)

			day := models.DayOf(time.Now().In(deps.Config.Location))
			if end != "" {
				if day, err = validation.ValidateDay(end); err != nil {
					return err
				}
			}

			if _, err := deps.Repos.Users.Get(cmd.Context(), key); err != nil {
				if errors.Is(err, database.ErrNotFound) {
					return fmt.Errorf("user %d not found", key)
				}
				return fmt.Errorf("failed to get user: %w", err)
			}

			weekly := deps.Reports.Weekly(cmd.Context(), key, day)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Week %s to %s\n\n", weekly.Window.Start, weekly.Window.End)
			for _, msg := range weekly.Messages(day.Weekday()) {
				fmt.Fprintln(out, msg)
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	show.Flags().Int64Var(&user, "user", 0, "user key (chat id)")
	show.Flags().StringVar(&end, "end", "", "last day of the week, YYYY-MM-DD")
	cmd.AddCommand(show)
	return cmd
}
