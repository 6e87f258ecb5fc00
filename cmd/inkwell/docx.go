package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inkwellapp/inkwell-server/pkg/docx"
)

var docxTitle string

var docxCmd = &cobra.Command{
	Use:   "docx",
	Short: "Convert between Markdown and Word documents",
}

var docxEncodeCmd = &cobra.Command{
	Use:   "encode <in.md> <out.docx>",
	Short: "Write a Markdown file as a Word document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}

		title := docxTitle
		if title == "" {
			base := filepath.Base(args[1])
			title = strings.TrimSuffix(base, filepath.Ext(base))
		}

		data, err := docx.Encode(string(text), title)
		if err != nil {
			return err
		}
		if err := os.WriteFile(args[1], data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", args[1], err)
		}
		cmd.PrintErrf("Wrote %s (%d bytes)\n", args[1], len(data))
		return nil
	},
}

var docxDecodeCmd = &cobra.Command{
	Use:   "decode <in.docx>",
	Short: "Print a Word document as Markdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}
		text, err := docx.Decode(data)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
		return err
	},
}

func init() {
	docxEncodeCmd.Flags().StringVar(&docxTitle, "title", "", "Document title, defaults to the output file name")
	docxCmd.AddCommand(docxEncodeCmd)
	docxCmd.AddCommand(docxDecodeCmd)
	rootCmd.AddCommand(docxCmd)
}
