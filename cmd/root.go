package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"mrfix/internal/config"
	"mrfix/internal/resolve"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "mrfix",
	Short: "Automated merge conflict resolution for GitLab MRs",
	Long:  "Rebases GitLab merge requests and resolves conflicts automatically with a whole-file strategy, tuned for Terraform/NDO infrastructure repositories",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: config_ndo.yaml or config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show debug output")

	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(uiCmd)
	rootCmd.AddCommand(shellCmd)
}

func loadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// consoleSink renders run output through the shared logger.
type consoleSink struct {
	logger *log.Logger
}

func newConsoleSink() consoleSink {
	opts := log.Options{ReportTimestamp: false}
	if verbose {
		opts.Level = log.DebugLevel
	}
	return consoleSink{logger: log.NewWithOptions(os.Stderr, opts)}
}

func (s consoleSink) Log(level resolve.Level, msg string) {
	switch level {
	case resolve.LevelDebug:
		s.logger.Debug(msg)
	case resolve.LevelWarn:
		s.logger.Warn(msg)
	case resolve.LevelError:
		s.logger.Error(msg)
	default:
		s.logger.Info(msg)
	}
}

func (s consoleSink) Progress(msg string) {
	s.logger.Info(msg)
}
