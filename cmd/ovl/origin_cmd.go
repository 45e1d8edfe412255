package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphi011/ovl/internal/log"
	"github.com/raphi011/ovl/internal/output"
)

func newOriginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "origin",
		Short:   "Manage the origin recorded for a repository",
		GroupID: GroupRegistry,
		Long: `Manage origin records. An origin is where a repository is cloned
from: a short origin with a base URL (e.g. "acme") or a full git URL.
A repository with an origin is registered and can be cloned by name.`,
		Example: `  ovl origin set vim acme
  ovl origin get vim
  ovl origin delete vim`,
	}

	cmd.AddCommand(newOriginGetCmd())
	cmd.AddCommand(newOriginSetCmd())
	cmd.AddCommand(newOriginDeleteCmd())

	return cmd
}

func newOriginGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "get <name>",
		Short:             "Print the origin of a repository",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeKnown,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := appFrom(ctx)

			origin, ok, err := a.registry.Origin(args[0])
			if err != nil {
				return err
			}
			if !ok {
				known, _ := a.known()
				return unknownRepo(fmt.Errorf("no origin registered for %s", args[0]), args[0], known)
			}
			output.FromContext(ctx).Println(origin)
			return nil
		},
	}
}

func newOriginSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "set <name> <origin>",
		Short:             "Record the origin of a repository",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeKnown,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := appFrom(ctx).registry.SetOrigin(args[0], args[1]); err != nil {
				return err
			}
			log.FromContext(ctx).Debug("origin set", "repo", args[0], "origin", args[1])
			return nil
		},
	}
}

func newOriginDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "delete <name>",
		Short:             "Forget the origin of a repository",
		Aliases:           []string{"rm"},
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeKnown,
		RunE: func(cmd *cobra.Command, args []string) error {
			return appFrom(cmd.Context()).registry.DeleteOrigin(args[0])
		},
	}
}
