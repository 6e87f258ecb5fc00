// Command inkwell inspects and watches workspaces from the terminal.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/inkwellapp/inkwell-server/internal/logger"
)

var (
	logLevel    string
	maxParallel int
)

var rootCmd = &cobra.Command{
	Use:           "inkwell",
	Short:         "Inspect, watch and convert Inkwell workspaces",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().IntVar(&maxParallel, "max-parallel", 4, "Concurrent sibling traversal limit")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newLogger returns a logger writing to the command's error stream.
func newLogger(cmd *cobra.Command) *slog.Logger {
	return logger.New(logger.Config{
		Writer:      cmd.ErrOrStderr(),
		Level:       logger.ParseLevel(logLevel),
		Environment: "development",
	}).Logger
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
