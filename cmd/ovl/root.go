package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/raphi011/ovl/internal/config"
	"github.com/raphi011/ovl/internal/log"
	"github.com/raphi011/ovl/internal/output"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	rootDir string
	jobs    int

	// Loaded once in Execute
	cfg *config.Config
)

// Command group IDs for organizing help output
const (
	GroupCore     = "core"
	GroupRegistry = "registry"
	GroupRelease  = "release"
	GroupConfig   = "config"
)

var rootCmd = &cobra.Command{
	Use:   "ovl",
	Short: "Overlay many git repositories onto one directory",
	Long: `ovl manages many git repositories that all check out into one shared
directory, usually your home directory. Each repository keeps its
metadata in a private store under ~/.local/ovl/repos.

Repositories can be cloned one by one, in batches, or reconciled against
a release snapshot that pins every repository to a version.`,
	SilenceUsage:               true,
	SilenceErrors:              true,
	SuggestionsMinimumDistance: 2,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose && quiet {
			return fmt.Errorf("--verbose and --quiet are mutually exclusive")
		}

		ctx := log.WithLogger(cmd.Context(), log.New(os.Stderr, verbose, quiet))

		switch cmd.Name() {
		case "completion", "__complete", "help", "version":
			cmd.SetContext(ctx)
			return nil
		}
		if cmd.Parent() != nil && cmd.Parent().Name() == "config" {
			cmd.SetContext(ctx)
			return nil
		}

		a, err := newApp(*cfg, rootDir, jobs)
		if err != nil {
			return err
		}
		if cmd.Name() != "doctor" {
			if err := a.git.Check(); err != nil {
				return err
			}
		}
		cmd.SetContext(withApp(ctx, a))
		return nil
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	loaded, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		loaded = config.Default()
	}
	cfg = &loaded
	ctx = config.WithConfig(ctx, cfg)
	ctx = output.WithPrinter(ctx, os.Stdout)

	rootCmd.SetContext(ctx)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Run 'ovl -h' for help")
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show external commands being executed")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all log output")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "Shared working tree (default: config root or home directory)")
	rootCmd.PersistentFlags().IntVarP(&jobs, "jobs", "j", 0, "Number of repositories processed in parallel (default: config jobs)")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	rootCmd.Version = versionString()
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.AddGroup(
		&cobra.Group{ID: GroupCore, Title: "Core Commands:"},
		&cobra.Group{ID: GroupRegistry, Title: "Registry Commands:"},
		&cobra.Group{ID: GroupRelease, Title: "Release Commands:"},
		&cobra.Group{ID: GroupConfig, Title: "Configuration Commands:"},
	)

	// Core commands
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newFilesCmd())
	rootCmd.AddCommand(newWhichCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newCloneCmd())
	rootCmd.AddCommand(newRemoveCmd())
	rootCmd.AddCommand(newConvertCmd())
	rootCmd.AddCommand(newRunCmd())

	// Registry commands
	rootCmd.AddCommand(newOriginCmd())
	rootCmd.AddCommand(newBaseURLCmd())

	// Release commands
	rootCmd.AddCommand(newReleaseCmd())

	// Config commands
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newDoctorCmd())
	rootCmd.AddCommand(newCompletionCmd())
	rootCmd.AddCommand(newVersionCmd())
}
