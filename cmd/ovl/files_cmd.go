package main

import (
	"github.com/spf13/cobra"

	"github.com/raphi011/ovl/internal/output"
)

func newFilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "files",
		Short:   "List files in the shared tree",
		GroupID: GroupCore,
		Long: `List files of the shared tree by how the cloned repositories see them.

The plain repository at the root, if any, is included.`,
		Example: `  ovl files modified         # Changes across all repositories
  ovl files unpushed         # Files in commits not on the upstream
  ovl files untracked        # Files no repository tracks
  ovl files double-tracked   # Files tracked by more than one repository`,
	}

	cmd.AddCommand(newFilesTrackedCmd())
	cmd.AddCommand(newFilesModifiedCmd())
	cmd.AddCommand(newFilesUnpushedCmd())
	cmd.AddCommand(newFilesUntrackedCmd())
	cmd.AddCommand(newFilesDoubleTrackedCmd())

	return cmd
}

func newFilesTrackedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tracked",
		Short: "List files tracked by any repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			files, err := appFrom(ctx).overlay().TrackedFiles(ctx, false)
			if err != nil {
				return err
			}
			output.FromContext(ctx).Lines(files)
			return nil
		},
	}
}

func newFilesModifiedCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "modified",
		Short:   "List uncommitted changes to tracked files",
		Aliases: []string{"m"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			changes, err := appFrom(ctx).overlay().Modified(ctx)
			if err != nil {
				return err
			}
			rows := make([][]string, len(changes))
			for i, c := range changes {
				rows[i] = []string{c.Repo, c.Status, c.Path}
			}
			output.FromContext(ctx).Table([]string{"REPO", "STATUS", "PATH"}, rows)
			return nil
		},
	}
}

func newFilesUnpushedCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "unpushed",
		Short:   "List files changed in commits not on the upstream",
		Aliases: []string{"u"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			owners, err := appFrom(ctx).overlay().Unpushed(ctx)
			if err != nil {
				return err
			}
			rows := make([][]string, len(owners))
			for i, o := range owners {
				rows[i] = []string{o.Repo, o.Path}
			}
			output.FromContext(ctx).Table([]string{"REPO", "PATH"}, rows)
			return nil
		},
	}
}

func newFilesUntrackedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "untracked",
		Short: "List files no repository tracks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			files, err := appFrom(ctx).overlay().UntrackedFiles(ctx)
			if err != nil {
				return err
			}
			output.FromContext(ctx).Lines(files)
			return nil
		},
	}
}

func newFilesDoubleTrackedCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "double-tracked",
		Short:   "List files tracked by more than one repository",
		Aliases: []string{"dt"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			owners, err := appFrom(ctx).overlay().DoubleTracked(ctx)
			if err != nil {
				return err
			}
			rows := make([][]string, len(owners))
			for i, o := range owners {
				rows[i] = []string{o.Path, o.Repo}
			}
			output.FromContext(ctx).Table([]string{"PATH", "REPO"}, rows)
			return nil
		},
	}
}
