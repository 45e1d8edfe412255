package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphi011/ovl/internal/clone"
	"github.com/raphi011/ovl/internal/hooks"
	"github.com/raphi011/ovl/internal/log"
	"github.com/raphi011/ovl/internal/output"
	"github.com/raphi011/ovl/internal/release"
	"github.com/raphi011/ovl/internal/ui/styles"
)

func newReleaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "release",
		Short:   "Manage release snapshots",
		GroupID: GroupRelease,
		Long: `Manage release snapshots. A release is a text file pinning every
repository to a version, one "name version" per line. A version of "*"
means the repository manages itself and is left alone.

Releases live in the metadata root as <name>.release. Any path ending
in .release can be used instead of a name.`,
		Example: `  ovl release create laptop
  ovl release update laptop --tag
  ovl release clone laptop
  ovl release show laptop`,
	}

	cmd.AddCommand(newReleaseShowCmd())
	cmd.AddCommand(newReleaseListCmd())
	cmd.AddCommand(newReleaseCreateCmd())
	cmd.AddCommand(newReleaseUpdateCmd())
	cmd.AddCommand(newReleaseCloneCmd())
	cmd.AddCommand(newReleaseRemoveCmd())

	return cmd
}

// releaseArg makes a release file path absolute; plain names are kept.
func releaseArg(arg string) (string, error) {
	if !strings.HasSuffix(arg, release.Suffix) {
		return arg, nil
	}
	return filepath.Abs(arg)
}

func printChanges(ctx context.Context, changes []release.Change) {
	if len(changes) == 0 {
		log.FromContext(ctx).Println("Release is up to date")
	}
}

func newReleaseShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "show <name>",
		Short:             "Print a release",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeReleases,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name, err := releaseArg(args[0])
			if err != nil {
				return err
			}
			data, err := appFrom(ctx).releases(nil).Show(name)
			if err != nil {
				return err
			}
			output.FromContext(ctx).Print(string(data))
			return nil
		},
	}
}

func newReleaseListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "List releases in the metadata root",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			names, err := appFrom(ctx).releases(nil).List()
			if err != nil {
				return err
			}
			output.FromContext(ctx).Lines(names)
			return nil
		},
	}
}

func newReleaseCreateCmd() *cobra.Command {
	var empty, tag bool

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Record the versions of all cloned repositories",
		Args:  cobra.ExactArgs(1),
		Long: `Create a release from every cloned repository's current version.
Fails if the release already exists; use 'update' to refresh it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := appFrom(ctx)
			name, err := releaseArg(args[0])
			if err != nil {
				return err
			}
			_, err = a.releases(nil).Create(ctx, name, empty, releaseOptions(cmd, a, tag))
			return err
		},
	}

	cmd.Flags().BoolVar(&empty, "empty", false, "Create an empty release")
	cmd.Flags().BoolVarP(&tag, "tag", "t", false, "Record the nearest tag instead of the exact version")

	return cmd
}

func newReleaseUpdateCmd() *cobra.Command {
	var tag bool

	cmd := &cobra.Command{
		Use:   "update <name>",
		Short: "Refresh the versions recorded in a release",
		Args:  cobra.ExactArgs(1),
		Long: `Rewrite the version of every listed repository that is cloned.
Comments, order and "*" entries are preserved. A missing release is
created.`,
		ValidArgsFunction: completeReleases,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := appFrom(ctx)
			name, err := releaseArg(args[0])
			if err != nil {
				return err
			}
			changes, err := a.releases(nil).Update(ctx, name, releaseOptions(cmd, a, tag))
			if err != nil {
				return err
			}
			printChanges(ctx, changes)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&tag, "tag", "t", false, "Record the nearest tag instead of the exact version")

	return cmd
}

// releaseOptions applies --tag over the configured tag mode.
func releaseOptions(cmd *cobra.Command, a *app, tag bool) release.UpdateOptions {
	opts := release.UpdateOptions{TagMode: a.cfg.Release.TagMode}
	if cmd.Flags().Changed("tag") {
		opts.TagMode = tag
	}
	return opts
}

func newReleaseCloneCmd() *cobra.Command {
	var hf hookFlags

	cmd := &cobra.Command{
		Use:   "clone <name>",
		Short: "Make the cloned repositories match a release",
		Args:  cobra.ExactArgs(1),
		Long: `Reconcile the shared tree with a release: repositories cloned but not
listed are removed (even with local changes), listed repositories are
cloned or checked out at their version. Running it twice is a no-op.`,
		ValidArgsFunction: completeReleases,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := appFrom(ctx)
			l := log.FromContext(ctx)

			name, err := releaseArg(args[0])
			if err != nil {
				return err
			}
			hr, err := hf.runner(a, hooks.TriggerRelease)
			if err != nil {
				return err
			}

			o := a.orchestrator(false)
			results, err := a.releases(batchCloner{o}).Clone(ctx, name)
			for _, r := range results {
				if r.Err != nil {
					l.Println(styles.Fail(fmt.Sprintf("%s: %v", r.Spec.Name, r.Err)))
					continue
				}
				if r.Action == clone.Satisfied || r.Action == clone.UpToDate {
					continue
				}
				l.Println(styles.OK(fmt.Sprintf("%s %s", r.Spec.Name, r.Action)))
				if s, serr := a.layout.Store(r.Spec.Name); serr == nil {
					hr.run(ctx, s, r.Spec.Version)
				}
			}
			return err
		},
	}

	hf.register(cmd)

	return cmd
}

// batchCloner shows batch progress while a release is reconciled.
type batchCloner struct {
	o *clone.Orchestrator
}

func (b batchCloner) Batch(ctx context.Context, specs []string) ([]clone.Result, error) {
	return runClone(ctx, b.o, specs)
}

func newReleaseRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "remove <name>",
		Short:             "Delete a release",
		Aliases:           []string{"rm"},
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeReleases,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name, err := releaseArg(args[0])
			if err != nil {
				return err
			}
			return appFrom(ctx).releases(nil).Remove(name)
		},
	}
}
