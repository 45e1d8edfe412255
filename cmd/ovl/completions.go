package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphi011/ovl/internal/config"
)

// completionApp builds an app for shell completion, which runs without
// the root pre-run hook.
func completionApp(cmd *cobra.Command) *app {
	c := config.Default()
	if loaded := config.FromContext(cmd.Context()); loaded != nil {
		c = *loaded
	}
	a, err := newApp(c, rootDir, jobs)
	if err != nil {
		return nil
	}
	return a
}

func filterPrefix(names []string, prefix string) []string {
	var matches []string
	for _, n := range names {
		if strings.HasPrefix(n, prefix) {
			matches = append(matches, n)
		}
	}
	return matches
}

// completeCloned completes names of cloned repositories.
func completeCloned(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	a := completionApp(cmd)
	if a == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	names, _ := a.layout.Cloned()
	return filterPrefix(names, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeKnown completes names of registered or cloned repositories.
func completeKnown(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	a := completionApp(cmd)
	if a == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	names, _ := a.known()
	return filterPrefix(names, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeOrigins completes origins that have a base URL.
func completeOrigins(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	a := completionApp(cmd)
	if a == nil || len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	origins, _ := a.registry.Origins()
	return filterPrefix(origins, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeReleases completes release snapshot names.
func completeReleases(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	a := completionApp(cmd)
	if a == nil || len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	names, _ := a.releases(nil).List()
	return filterPrefix(names, toComplete), cobra.ShellCompDirectiveDefault
}
