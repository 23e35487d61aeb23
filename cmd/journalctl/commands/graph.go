package commands

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/benvon/daily-journal/internal/app"
	"github.com/benvon/daily-journal/internal/commit"
	"github.com/benvon/daily-journal/internal/models"
	"github.com/spf13/cobra"
)

type graphFlags struct {
	name  string
	user  int64
	value int
	date  string
}

// NewGraphCmd creates the graph command. Each subcommand issues exactly one
// call to the commit graph service, for repairing graphs by hand.
func NewGraphCmd(load Loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Manage commit graphs",
		Long:  "Create, delete and edit a user's satisfaction graph on the commit graph service",
	}

	cmd.AddCommand(graphCommand(load, "create", "Create a user's graph", false, false,
		func(c *commit.Client, cmd *cobra.Command, f *graphFlags) commit.Result {
			return c.CreateGraph(cmd.Context(), f.name)
		}))
	cmd.AddCommand(graphCommand(load, "delete", "Delete a user's graph", false, false,
		func(c *commit.Client, cmd *cobra.Command, f *graphFlags) commit.Result {
			return c.DeleteGraph(cmd.Context(), f.name)
		}))
	cmd.AddCommand(graphCommand(load, "insert", "Add today's point", true, false,
		func(c *commit.Client, cmd *cobra.Command, f *graphFlags) commit.Result {
			return c.InsertData(cmd.Context(), f.name, f.value)
		}))
	cmd.AddCommand(graphCommand(load, "update", "Replace the point of --date", true, true,
		func(c *commit.Client, cmd *cobra.Command, f *graphFlags) commit.Result {
			return c.UpdateData(cmd.Context(), f.name, f.value, f.date)
		}))
	cmd.AddCommand(graphCommand(load, "delete-point", "Remove the point of --date", false, true,
		func(c *commit.Client, cmd *cobra.Command, f *graphFlags) commit.Result {
			return c.DeleteData(cmd.Context(), f.name, f.date)
		}))
	return cmd
}

func graphCommand(load Loader, use, short string, needsValue, needsDate bool,
	call func(*commit.Client, *cobra.Command, *graphFlags) commit.Result) *cobra.Command {
	f := &graphFlags{}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.name == "" && f.user == 0 {
				return errors.New("--name or --user is required")
			}
			if needsDate {
				d, err := compactDate(f.date)
				if err != nil {
					return err
				}
				f.date = d
			}

			deps, err := load(cmd.Context(), app.QueueNone)
			if err != nil {
				return err
			}
			defer closeDeps(deps)

			if f.name == "" {
				profile, err := deps.Repos.Users.Get(cmd.Context(), models.UserKey(f.user))
				if err != nil {
					return fmt.Errorf("failed to get user %d: %w", f.user, err)
				}
				f.name = profile.DisplayName
			}

			return printResult(cmd.OutOrStdout(), use, call(deps.Graphs, cmd, f))
		},
	}
	cmd.Flags().StringVar(&f.name, "name", "", "display name the graph id is derived from")
	cmd.Flags().Int64Var(&f.user, "user", 0, "user key; the stored display name is used")
	if needsValue {
		cmd.Flags().IntVar(&f.value, "value", 0, "satisfaction rating, 1 to 10")
	}
	if needsDate {
		cmd.Flags().StringVar(&f.date, "date", "", "day of the point, YYYY-MM-DD or YYYYMMDD")
		_ = cmd.MarkFlagRequired("date")
	}
	return cmd
}

// compactDate accepts either date layout and returns YYYYMMDD
func compactDate(s string) (string, error) {
	for _, layout := range []string{"2006-01-02", "20060102"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("20060102"), nil
		}
	}
	return "", fmt.Errorf("invalid date: %s (must be YYYY-MM-DD or YYYYMMDD)", s)
}

func printResult(out io.Writer, op string, res commit.Result) error {
	if !res.OK() {
		return fmt.Errorf("%s failed after %d attempt(s) [%s]: %s", op, res.Attempts, res.Status, res.Reason)
	}
	fmt.Fprintf(out, "%s: %s (%d attempt(s))\n", op, res.Status, res.Attempts)
	if res.URL != "" {
		fmt.Fprintf(out, "Graph: %s\n", res.URL)
	}
	return nil
}
