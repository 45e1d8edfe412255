// Package clone turns repository specifiers into checked-out repositories.
//
// Each specifier moves through the phases Parsed, Resolved, Cloning or
// Updating, and finally CheckedOut or Failed. Resolution decides between
// a fresh clone and an update of an existing store and works out the
// origin and fetch URL without touching the filesystem. A clone that fails
// after its store was created removes the store and exclude file before
// reporting the failure, since git leaves partial state behind.
//
// [Orchestrator.Batch] runs many specifiers with bounded concurrency.
// Every specifier owns its own store, so failures and cleanup stay local
// to it.
package clone
