package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"mrfix/internal/ui"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Interactive conflict resolver",
	Long:  "Launch a terminal UI for analyzing and fixing merge requests with live log output",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		if err := ui.StartFixTUI(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error running UI: %v\n", err)
			os.Exit(1)
		}
	},
}
