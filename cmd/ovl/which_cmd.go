package main

import (
	"fmt"
	"path/filepath"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/raphi011/ovl/internal/log"
	"github.com/raphi011/ovl/internal/output"
)

func newWhichCmd() *cobra.Command {
	var copyName bool

	cmd := &cobra.Command{
		Use:     "which <path>",
		Short:   "Show which repository tracks a file",
		GroupID: GroupCore,
		Args:    cobra.ExactArgs(1),
		Long: `Show the repository that tracks a file of the shared tree.

Relative paths are resolved against the current directory. Exits
non-zero if no repository tracks the file.`,
		Example: `  ovl which ~/.vimrc
  ovl which .config/fish/config.fish --copy`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := appFrom(ctx)

			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			name, ok, err := a.overlay().OwnerOf(ctx, path)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s is not tracked by any repository", args[0])
			}

			output.FromContext(ctx).Println(name)
			if copyName {
				if err := clipboard.WriteAll(name); err != nil {
					log.FromContext(ctx).Warnf("could not copy to clipboard: %v", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&copyName, "copy", "c", false, "Copy the repository name to the clipboard")

	return cmd
}
