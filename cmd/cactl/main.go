package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "cactl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cactl",
		Short: "Operations CLI for the exam-prep content backend",
		Long: `cactl runs the scheduled publication sweep, hosts the asynq scheduler and worker,
revokes editor sessions, and autosaves a local draft file while it is being edited.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(
		newSweepCmd(),
		newScheduleCmd(),
		newWorkerCmd(),
		newSessionsCmd(),
		newDraftCmd(),
	)
	return cmd
}
