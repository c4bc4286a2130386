package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/raykavin/ticsbot"
	"github.com/raykavin/ticsbot/internal/config"
	"github.com/spf13/cobra"
)

// Command line flags
var configPath string

func main() {
	// Create root command
	rootCmd := &cobra.Command{
		Use:     "ticsbot",
		Short:   "TICS price and chain activity Telegram bot",
		Version: "1.0.0",
	}

	// Add commands
	rootCmd.AddCommand(buildRunCmd())

	// Execute
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Start the bot",
		RunE:  runBot,
	}

	runCmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path (e.g. ./ticsbot.yaml)")

	return runCmd
}

func runBot(cmd *cobra.Command, _ []string) error {
	settings, err := config.Load(configPath)
	if err != nil {
		return err
	}

	bot, err := ticsbot.NewBot(settings)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticsbot.DefaultLog.Info("[SETUP] Press Ctrl+C to stop")
	return bot.Run(ctx)
}
