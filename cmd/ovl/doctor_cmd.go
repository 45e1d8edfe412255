package main

import (
	"github.com/spf13/cobra"

	"github.com/raphi011/ovl/internal/output"
)

func newDoctorCmd() *cobra.Command {
	var fix bool

	cmd := &cobra.Command{
		Use:     "doctor",
		Short:   "Diagnose and repair issues",
		GroupID: GroupConfig,
		Args:    cobra.NoArgs,
		Long: `Diagnose and repair the metadata root and the shared tree.

Checks:
- git is available and the metadata root exists
- every store's core.worktree points at the shared tree
- every store has an exclude file
- every registered origin resolves to a fetch URL
- no file is tracked by more than one repository

--fix re-binds stores and writes missing exclude files.`,
		Example: `  ovl doctor          # Check for issues
  ovl doctor --fix    # Auto-fix recoverable issues`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := appFrom(ctx)
			return a.doctor().Run(ctx, output.FromContext(ctx).Writer(), fix)
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "Auto-fix recoverable issues")

	return cmd
}
