package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphi011/ovl/internal/output"
)

func newBaseURLCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "baseurl",
		Short:   "Manage base URLs of origins",
		GroupID: GroupRegistry,
		Long: `Manage base URLs. A repository with origin "acme" and base URL
"git@example.com:acme/" is fetched from "git@example.com:acme/<name>".`,
		Example: `  ovl baseurl set acme git@example.com:acme/
  ovl baseurl get acme
  ovl baseurl list`,
	}

	cmd.AddCommand(newBaseURLGetCmd())
	cmd.AddCommand(newBaseURLSetCmd())
	cmd.AddCommand(newBaseURLDeleteCmd())
	cmd.AddCommand(newBaseURLListCmd())

	return cmd
}

func newBaseURLGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "get <origin>",
		Short:             "Print the base URL of an origin",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeOrigins,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := appFrom(ctx)

			url, ok, err := a.registry.BaseURL(args[0])
			if err != nil {
				return err
			}
			if !ok {
				origins, _ := a.registry.Origins()
				return unknownRepo(fmt.Errorf("no base URL registered for %s", args[0]), args[0], origins)
			}
			output.FromContext(ctx).Println(url)
			return nil
		},
	}
}

func newBaseURLSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "set <origin> <url>",
		Short:             "Record the base URL of an origin",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeOrigins,
		RunE: func(cmd *cobra.Command, args []string) error {
			return appFrom(cmd.Context()).registry.SetBaseURL(args[0], args[1])
		},
	}
}

func newBaseURLDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "delete <origin>",
		Short:             "Forget the base URL of an origin",
		Aliases:           []string{"rm"},
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeOrigins,
		RunE: func(cmd *cobra.Command, args []string) error {
			return appFrom(cmd.Context()).registry.DeleteBaseURL(args[0])
		},
	}
}

func newBaseURLListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "List origins with a base URL",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := appFrom(ctx)

			origins, err := a.registry.Origins()
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(origins))
			for _, o := range origins {
				url, _, err := a.registry.BaseURL(o)
				if err != nil {
					return err
				}
				rows = append(rows, []string{o, url})
			}
			output.FromContext(ctx).Table([]string{"ORIGIN", "BASE URL"}, rows)
			return nil
		},
	}
}
