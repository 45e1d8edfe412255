package main

import (
	"slices"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/raphi011/ovl/internal/config"
	"github.com/raphi011/ovl/internal/log"
	"github.com/raphi011/ovl/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   "Manage configuration",
		Aliases: []string{"cfg"},
		GroupID: GroupConfig,
		Long: `Manage ovl configuration.

Config file: ~/.config/ovl/config.toml
Environment: OVL_ROOT, OVL_METADATA_DIR, OVL_JOBS, OVL_GIT`,
		Example: `  ovl config init     # Create default config
  ovl config show     # Show effective config`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.Init(force)
			if err != nil {
				return err
			}
			log.FromContext(cmd.Context()).Printf("Created config file: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing config")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c := config.FromContext(ctx)
			if c == nil {
				d := config.Default()
				c = &d
			}
			out := output.FromContext(ctx)

			if err := toml.NewEncoder(out.Writer()).Encode(c); err != nil {
				return err
			}

			names := make([]string, 0, len(c.Hooks.Hooks))
			for name := range c.Hooks.Hooks {
				names = append(names, name)
			}
			slices.Sort(names)
			for _, name := range names {
				h := c.Hooks.Hooks[name]
				out.Printf("\n[hooks.%s]\n", name)
				if err := toml.NewEncoder(out.Writer()).Encode(h); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
