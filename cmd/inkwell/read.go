package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkwellapp/inkwell-server/internal/session"
)

var readJSON bool

var readCmd = &cobra.Command{
	Use:   "read <dir> <path>",
	Short: "Read a workspace file as the editor would",
	Long: `Read a file relative to a workspace folder. Word documents are
converted to Markdown.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess := session.New(nil, newLogger(cmd), session.Options{})
		defer sess.Close()

		if _, err := sess.Select(cmd.Context(), args[0]); err != nil {
			return err
		}
		doc, err := sess.Workspace.ReadFile(cmd.Context(), args[1])
		if err != nil {
			return err
		}

		if readJSON {
			return writeJSON(cmd.OutOrStdout(), doc)
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), doc.Content)
		return err
	},
}

func init() {
	readCmd.Flags().BoolVar(&readJSON, "json", false, "Print the whole document as JSON")
	rootCmd.AddCommand(readCmd)
}
