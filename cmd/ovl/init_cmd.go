package main

import (
	"github.com/spf13/cobra"

	"github.com/raphi011/ovl/internal/log"
	"github.com/raphi011/ovl/internal/metastore"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "init <name>",
		Short:   "Create an empty repository in the shared tree",
		GroupID: GroupCore,
		Args:    cobra.ExactArgs(1),
		Long: `Create an empty metadata store for a new repository bound to the
shared tree. Add files to it with 'ovl run <name> -- add <file>'.`,
		Example: `  ovl init scripts`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := appFrom(ctx)

			s, err := a.adapter().Init(ctx, args[0], metastore.InitOptions{})
			if err != nil {
				return err
			}
			log.FromContext(ctx).Printf("Initialized empty repository %s in %s\n", s.Name, s.GitDir)
			return nil
		},
	}
}
