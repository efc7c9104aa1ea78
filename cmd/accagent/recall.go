package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var recallLimit int

var recallCmd = &cobra.Command{
	Use:   "recall <query>",
	Short: "Query the semantic artifact store",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRecall,
}

func init() {
	recallCmd.Flags().IntVarP(&recallLimit, "limit", "k", 3, "number of artifacts to return")
	rootCmd.AddCommand(recallCmd)
}

func runRecall(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	query := strings.Join(args, " ")
	results := a.memory.Recall(ctx, query, recallLimit)
	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, "No relevant memory found.")
		return nil
	}
	for i, r := range results {
		fmt.Fprintf(out, "%d. %s\n\n", i+1, r)
	}
	return nil
}
