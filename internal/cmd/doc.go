// Package cmd provides helpers for executing external commands with proper error handling.
//
// Every invocation goes through [Exec], which captures stderr and turns a
// non-zero exit into an [*ExitError] carrying the command, its exit code and
// the trimmed stderr. Commands are traced through the context logger when
// verbose logging is enabled.
//
// # Usage
//
//	if err := cmd.RunContext(ctx, "", "git", "--version"); err != nil {
//	    return fmt.Errorf("git unavailable: %w", err)
//	}
//
//	out, err := cmd.OutputContext(ctx, root, "git", "status", "--porcelain")
//
// # Design Notes
//
// ovl shells out to the git CLI rather than using a Go git library so that
// user configuration (SSH keys, credential helpers, aliases) keeps working.
package cmd
