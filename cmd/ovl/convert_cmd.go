package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/raphi011/ovl/internal/log"
)

func newConvertCmd() *cobra.Command {
	var gitDir string

	cmd := &cobra.Command{
		Use:     "convert <name>",
		Short:   "Turn an existing git directory into a managed repository",
		GroupID: GroupCore,
		Args:    cobra.ExactArgs(1),
		Long: `Move an existing git directory into the metadata root under <name>
and bind it to the shared tree.

By default the plain repository at the root (<root>/.git) is converted.
If binding fails the directory is moved back.`,
		Example: `  ovl convert dotfiles
  ovl convert vim --git-dir ~/src/vim/.git`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := appFrom(ctx)

			src := gitDir
			if src == "" {
				src = filepath.Join(a.layout.Root, ".git")
			}
			src, err := filepath.Abs(src)
			if err != nil {
				return err
			}

			s, err := a.adapter().Convert(ctx, args[0], src)
			if err != nil {
				return err
			}
			log.FromContext(ctx).Printf("Converted %s into %s\n", src, s.GitDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&gitDir, "git-dir", "", "Git directory to convert (default: <root>/.git)")

	return cmd
}
