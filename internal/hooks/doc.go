// Package hooks runs user-defined shell commands after overlay operations.
//
// Hooks are configured per name and select the operations they follow:
//
//	[hooks.reload]
//	command = "tmux source-file ~/.tmux.conf"
//	description = "Reload tmux"
//	on = ["clone"]
//
//	[hooks.audit]
//	command = "echo {trigger} {repo} {version} >> ~/.ovl-audit"
//	on = ["all"]
//
// Triggers are clone (after a repository was cloned or updated), remove
// and release (after a release was restored). Hooks without "on" only run
// when named with --hook.
//
// # Placeholders
//
//   - {repo}: repository name
//   - {root}: shared working tree
//   - {gitdir}: metadata store of the repository
//   - {version}: requested or recorded version, empty for branch tips
//   - {trigger}: operation that triggered the hook
//
// Custom variables come from --arg key=value and are referenced as {key},
// {key:raw} or {key:-default}. All values except :raw are shell-quoted.
//
// Hooks run with the shared working tree as working directory. In batch
// operations a failing hook is reported and the batch continues.
package hooks
