// Package doctor diagnoses and repairs an overlay.
//
// Checks:
//
//   - Setup: the git binary is available and the metadata root exists.
//   - Stores: every metadata store points core.worktree at the shared
//     root and has an exclude file.
//   - Origins: every registered origin yields a fetch URL.
//   - Overlay: no file is tracked by more than one repository.
//
// Missing exclude files and broken bindings are repaired by --fix.
// Unresolvable origins and double-tracked files need an operator.
package doctor
