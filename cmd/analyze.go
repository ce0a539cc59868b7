package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"mrfix/internal/fixer"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <mr-url-or-id>",
	Short: "Inspect an MR for conflicts without changing anything",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		session := fixer.New(cfg, newConsoleSink())

		mr, err := session.Analyze(context.Background(), args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error analyzing MR: %v\n", err)
			os.Exit(1)
		}

		if mr.HasMergeConflicts() {
			fmt.Println("Conflicts detected. Run 'mrfix fix' to resolve them automatically.")
			return
		}
		fmt.Println("No conflicts found. This MR is ready to merge.")
	},
}
