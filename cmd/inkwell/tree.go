package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inkwellapp/inkwell-server/internal/capability"
	"github.com/inkwellapp/inkwell-server/internal/domain"
	"github.com/inkwellapp/inkwell-server/internal/scanner"
)

var treeJSON bool

var treeCmd = &cobra.Command{
	Use:   "tree <dir>",
	Short: "Print the workspace tree of a folder",
	Long: `Build the workspace tree of a folder the way the editor shows it:
folders first, then files, each group sorted by name. Only supported
document types are listed and excluded folders are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := capability.OpenDir(args[0])
		if err != nil {
			return err
		}

		sc := scanner.New(newLogger(cmd), scanner.Options{MaxParallel: maxParallel})
		nodes, err := sc.BuildTree(cmd.Context(), root.Dir)
		if err != nil {
			return err
		}

		if treeJSON {
			return writeJSON(cmd.OutOrStdout(), nodes)
		}
		printTree(cmd.OutOrStdout(), nodes, 0)
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d files\n", scanner.CountFiles(nodes))
		return nil
	},
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <dir>",
	Short: "Print the flat snapshot used for change detection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := capability.OpenDir(args[0])
		if err != nil {
			return err
		}

		sc := scanner.New(newLogger(cmd), scanner.Options{MaxParallel: maxParallel})
		snap, err := sc.Snapshot(cmd.Context(), root.Dir)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), snap)
	},
}

func init() {
	treeCmd.Flags().BoolVar(&treeJSON, "json", false, "Print the tree as JSON")
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(snapshotCmd)
}

func printTree(w io.Writer, nodes []*domain.TreeNode, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, n := range nodes {
		if n.IsFolder() {
			fmt.Fprintf(w, "%s%s/\n", indent, n.Name)
			printTree(w, n.Children, depth+1)
			continue
		}
		fmt.Fprintf(w, "%s%s (%d bytes)\n", indent, n.Name, *n.Size)
	}
}
