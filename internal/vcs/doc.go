// Package vcs is the boundary to the external version-control engine.
//
// Every request is scoped to one repository's metadata store and the shared
// working tree through a [Target]; nothing is read from ambient process
// state such as GIT_DIR. The [Git] runner shells out to the git binary via
// the cmd package; tests substitute the scripted fake from vcstest.
//
// A non-zero exit is reported as [*ExitError] carrying the arguments, exit
// code and stderr. Stdout is the only structured payload and is
// line-oriented (or NUL-separated where paths are involved).
package vcs
