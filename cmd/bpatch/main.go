// bpatch - inspect, validate and rewrite method files from the command line
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/chazu/bytepatch/manifest"
	"github.com/chazu/bytepatch/pkg/patch"
)

var (
	// Global flags
	verbose   bool
	workspace string

	// Logger
	logger *zap.Logger

	// project is the bytepatch.toml found from the workspace, or nil.
	project *manifest.Manifest
)

var rootCmd = &cobra.Command{
	Use:   "bpatch",
	Short: "Inspect, validate and rewrite bytecode method files",
	Long: `bpatch works on method files (.cbor, .yaml or .yml) holding one method
body and its metadata.

Policy, symbol files and log level come from the nearest bytepatch.toml
found by walking up from the workspace directory.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dir := workspace
		if dir == "" {
			dir = "."
		}
		var err error
		project, err = manifest.FindAndLoad(dir)
		if err != nil {
			return err
		}

		config := zap.NewProductionConfig()
		level := zapcore.InfoLevel
		if project != nil {
			level = project.ZapLevel()
			commonlog.Configure(project.Verbosity(), nil)
		}
		if verbose {
			level = zapcore.DebugLevel
		}
		config.Level = zap.NewAtomicLevelAt(level)
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Directory to search for bytepatch.toml (default: current)")

	rootCmd.AddCommand(disasmCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(redirectCmd)
	rootCmd.AddCommand(convertCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// policy returns the project policy, or the default one outside a project.
func policy() patch.Policy {
	if project == nil {
		return patch.DefaultPolicy()
	}
	return project.Policy()
}

// caller names the patch author in escalation notices.
func caller() string {
	if project == nil || project.Project.Caller == "" {
		return "bpatch"
	}
	return project.Project.Caller
}

func sink() patch.Sink {
	if logger == nil {
		return patch.Discard
	}
	return patch.NewZapSink(logger)
}
