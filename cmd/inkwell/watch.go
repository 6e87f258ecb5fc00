package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	"github.com/inkwellapp/inkwell-server/internal/scanner"
	"github.com/inkwellapp/inkwell-server/internal/session"
	"github.com/inkwellapp/inkwell-server/internal/watcher"
)

var (
	watchInterval time.Duration
	watchNudge    bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Watch a folder and print each detected change as a JSON line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sess := session.New(nil, newLogger(cmd), session.Options{
			Scanner: scanner.Options{MaxParallel: maxParallel},
			Watch: watcher.Options{
				Interval: watchInterval,
				Nudge:    watchNudge,
			},
		})
		defer sess.Close()

		out := cmd.OutOrStdout()
		changes := make(chan domain.FileChange, 64)
		sess.Subscribe(func(c domain.FileChange) {
			select {
			case changes <- c:
			case <-ctx.Done():
			}
		})

		info, err := sess.Select(ctx, args[0])
		if err != nil {
			return err
		}
		cmd.PrintErrf("Watching %s every %s (Ctrl+C to stop)\n", info.ID, watchInterval)

		return printChanges(ctx, out, changes)
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 3*time.Second, "Time between checks")
	watchCmd.Flags().BoolVar(&watchNudge, "nudge", true, "Check early when the filesystem reports changes")
	rootCmd.AddCommand(watchCmd)
}

// printChanges writes one JSON object per change until ctx is done.
func printChanges(ctx context.Context, out io.Writer, changes <-chan domain.FileChange) error {
	enc := json.NewEncoder(out)
	for {
		select {
		case <-ctx.Done():
			return nil
		case c := <-changes:
			if err := enc.Encode(c); err != nil {
				return err
			}
		}
	}
}
