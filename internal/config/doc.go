// Package config handles loading and validation of ovl configuration.
//
// Configuration is read from ~/.config/ovl/config.toml with environment
// variable overrides.
//
// # Configuration Sources (highest priority first)
//
//   - command line flags (--root, --jobs)
//   - OVL_ROOT, OVL_METADATA_DIR, OVL_JOBS, OVL_GIT env vars
//   - Config file settings
//   - Default values
//
// # Key Settings
//
//   - root: shared working tree (default: home directory)
//   - metadata_dir: metadata root (default: <root>/.local/ovl/repos)
//   - jobs: clone/update parallelism (default: 1)
//   - default_branch: branch created for empty remotes (default: "main")
//
// # Hooks Configuration
//
// Hooks are defined in [hooks.NAME] sections:
//
//	[hooks.bootstrap]
//	command = "{root}/.bootstrap/{repo}"
//	on = ["clone"]
//
// # Path Validation
//
// Directory paths must be absolute or start with ~ (no relative paths like "."
// or "..") to avoid confusion about the working directory.
package config
