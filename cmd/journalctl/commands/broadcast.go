package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/benvon/daily-journal/internal/app"
	"github.com/benvon/daily-journal/internal/models"
	"github.com/benvon/daily-journal/internal/queue"
	"github.com/benvon/daily-journal/internal/telegram"
	"github.com/benvon/daily-journal/internal/workers"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
)

// NewBroadcastCmd creates the broadcast command
func NewBroadcastCmd(load Loader) *cobra.Command {
	var user int64
	var direct bool

	kinds := make([]string, 0, len(queue.JobTypes))
	for _, t := range queue.JobTypes {
		kinds = append(kinds, string(t))
	}

	cmd := &cobra.Command{
		Use:       "broadcast <kind>",
		Short:     "Trigger a broadcast now",
		Long:      "Enqueue a broadcast for the worker, or send it from this process with --direct. Kinds: " + strings.Join(kinds, ", "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: kinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := queue.ParseJobType(args[0])
			if err != nil {
				return err
			}

			mode := app.QueueRabbitMQ
			if direct {
				mode = app.QueueNone
			}
			deps, err := load(cmd.Context(), mode)
			if err != nil {
				return err
			}
			defer closeDeps(deps)

			job := queue.NewJob(kind, time.Now())
			if user != 0 {
				job.ForUser(models.UserKey(user))
			}
			job.Metadata["triggered_by"] = "journalctl"
			out := cmd.OutOrStdout()

			if !direct {
				if err := deps.Queue.Enqueue(cmd.Context(), job); err != nil {
					return fmt.Errorf("failed to enqueue broadcast: %w", err)
				}
				fmt.Fprintf(out, "Enqueued %s job %s\n", kind, job.ID)
				return nil
			}

			if err := deps.Config.RequireTelegram(); err != nil {
				return err
			}
			bot, err := tgbotapi.NewBotAPI(deps.Config.TelegramToken)
			if err != nil {
				return fmt.Errorf("failed to connect to telegram: %w", err)
			}
			dispatcher := workers.NewDispatcher(deps.Broadcaster(telegram.NewMessenger(bot)), nil, deps.Logger)
			summary, err := dispatcher.Run(cmd.Context(), job)
			if err != nil {
				return fmt.Errorf("broadcast failed: %w", err)
			}
			fmt.Fprintf(out, "Sent %s to %d of %d user(s), %d failed\n", kind, summary.Sent, summary.Users, summary.Failed)
			return nil
		},
	}
	cmd.Flags().Int64Var(&user, "user", 0, "limit the broadcast to one user key")
	cmd.Flags().BoolVar(&direct, "direct", false, "send from this process instead of enqueueing")
	return cmd
}
