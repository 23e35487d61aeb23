package main

import (
	"fmt"
	"os"

	"github.com/benvon/daily-journal/cmd/journalctl/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:          "journalctl",
		Short:        "Administration tool for the daily journal bot",
		Long:         "CLI tool for inspecting journal users, previewing reports, repairing commit graphs and triggering broadcasts",
		SilenceUsage: true,
	}

	load := commands.DefaultLoader
	rootCmd.AddCommand(commands.NewUsersCmd(load))
	rootCmd.AddCommand(commands.NewReportCmd(load))
	rootCmd.AddCommand(commands.NewGraphCmd(load))
	rootCmd.AddCommand(commands.NewBroadcastCmd(load))
	rootCmd.AddCommand(commands.NewTokenCmd(commands.SecretFromEnv))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
