package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chazu/bytepatch/pkg/bytecode"
	"github.com/chazu/bytepatch/pkg/patch"
	"github.com/chazu/bytepatch/pkg/symbols"
)

var (
	redirectFrom      string
	redirectTo        string
	redirectInherited bool
	redirectSymbols   []string
	redirectOutDir    string
	redirectJobs      int
)

var redirectCmd = &cobra.Command{
	Use:   "redirect [file...]",
	Short: "Redirect every call to one method into a static replacement",
	Long: `Rewrites each call or callvirt of --from into a call of the static
method --to, resolving both through the symbol tables listed in
bytepatch.toml (or given with --symbols). Files are patched concurrently.

Example:
  bpatch redirect --from Game.Player::Damage --to Mods.Helper::Damage \
    --inherited -o patched/ methods/*.cbor`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRedirect,
}

func init() {
	redirectCmd.Flags().StringVar(&redirectFrom, "from", "", "Call target to replace, as Type::Name (required)")
	redirectCmd.Flags().StringVar(&redirectTo, "to", "", "Static replacement, as Type::Name (required)")
	redirectCmd.Flags().BoolVar(&redirectInherited, "inherited", false, "Also match calls to methods inherited by the --from type")
	redirectCmd.Flags().StringSliceVar(&redirectSymbols, "symbols", nil, "Symbol table files (default: from bytepatch.toml)")
	redirectCmd.Flags().StringVarP(&redirectOutDir, "out", "o", "", "Output directory (default: overwrite inputs)")
	redirectCmd.Flags().IntVarP(&redirectJobs, "jobs", "j", 4, "Files patched at once")
	_ = redirectCmd.MarkFlagRequired("from")
	_ = redirectCmd.MarkFlagRequired("to")
}

// splitMember parses "Type::Name".
func splitMember(s string) (bytecode.TypeRef, string, error) {
	i := strings.LastIndex(s, "::")
	if i <= 0 || i+2 >= len(s) {
		return bytecode.TypeRef{}, "", fmt.Errorf("invalid member %q, want Type::Name", s)
	}
	return bytecode.T(s[:i]), s[i+2:], nil
}

func loadSymbols() (*symbols.Table, error) {
	if len(redirectSymbols) > 0 {
		return symbols.LoadFiles(redirectSymbols...)
	}
	if project == nil {
		return nil, errors.New("no symbol files: pass --symbols or list them in bytepatch.toml")
	}
	return project.LoadSymbols()
}

func runRedirect(cmd *cobra.Command, args []string) error {
	fromType, fromName, err := splitMember(redirectFrom)
	if err != nil {
		return err
	}
	toType, toName, err := splitMember(redirectTo)
	if err != nil {
		return err
	}
	table, err := loadSymbols()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	query := patch.CallQuery{Type: fromType, Name: fromName, IncludeInherited: redirectInherited}
	reqs := make([]patch.Request, 0, len(args))
	for _, path := range args {
		m, err := bytecode.ReadMethodFile(path)
		if err != nil {
			return err
		}
		reqs = append(reqs, patch.Request{
			Caller: caller(),
			Method: m,
			Patch: func(c *patch.Cursor) {
				c.ReplaceAllCalls(query, toType, toName)
			},
		})
	}

	outcomes, err := patch.RunBatch(ctx, reqs, patch.BatchOptions{
		Resolver: table,
		Policy:   policy(),
		Sink:     sink(),
		Limit:    redirectJobs,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	failed := 0
	for i, o := range outcomes {
		path := args[i]
		if o.Err != nil {
			failed++
			logger.Error("patch refused", zap.String("file", path), zap.String("request", o.ID.String()), zap.Error(o.Err))
			continue
		}
		dest := path
		if redirectOutDir != "" {
			if err := os.MkdirAll(redirectOutDir, 0755); err != nil {
				return fmt.Errorf("creating output dir: %w", err)
			}
			dest = filepath.Join(redirectOutDir, filepath.Base(path))
		}
		if err := bytecode.WriteMethodFile(dest, &bytecode.Method{Meta: reqs[i].Method.Meta, Body: o.Body}); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %s, %d warning(s)\n", dest, o.Method, len(o.Warnings))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d method(s) could not be patched", failed, len(outcomes))
	}
	return nil
}
