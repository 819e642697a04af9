package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chazu/bytepatch/pkg/bytecode"
	"github.com/chazu/bytepatch/pkg/patch"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm [file...]",
	Short: "Print a listing of each method file",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDisasm,
}

var validateCmd = &cobra.Command{
	Use:   "validate [file...]",
	Short: "Run the stack validator over each method file",
	Long: `Runs the linear stack-depth pass used by patch builds and reports
underflows, unbalanced returns and branches to undefined labels.
Exits non-zero when any file has findings.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

var convertCmd = &cobra.Command{
	Use:   "convert [in] [out]",
	Short: "Convert a method file between CBOR and YAML",
	Long: `The format of each file follows its extension:
.cbor for the binary envelope, .yaml or .yml for the text form.

Example:
  bpatch convert Player_Update.cbor Player_Update.yaml`,
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

func runDisasm(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	for i, path := range args {
		m, err := bytecode.ReadMethodFile(path)
		if err != nil {
			return err
		}
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprint(out, m.Disassemble())
	}
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	failed := 0
	for _, path := range args {
		m, err := bytecode.ReadMethodFile(path)
		if err != nil {
			return err
		}
		res := patch.ValidateMethod(m)
		logger.Debug("validated method",
			zap.String("file", path),
			zap.String("method", m.Meta.FullName()),
			zap.Int("max_depth", res.MaxDepth))
		if res.OK() {
			fmt.Fprintf(out, "%s: ok (max stack depth %d)\n", path, res.MaxDepth)
			continue
		}
		failed++
		for _, f := range res.Findings {
			fmt.Fprintf(out, "%s: %s\n", path, f)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d method(s) failed validation", failed, len(args))
	}
	return nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	m, err := bytecode.ReadMethodFile(args[0])
	if err != nil {
		return err
	}
	if err := bytecode.WriteMethodFile(args[1], m); err != nil {
		return err
	}
	logger.Info("converted method file",
		zap.String("from", args[0]),
		zap.String("to", args[1]),
		zap.Int("instructions", m.Body.Len()))
	return nil
}
