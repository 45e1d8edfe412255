// Package overlay answers ownership questions about the shared working
// tree: which files the cloned repositories track, which files nobody
// tracks, which files more than one repository claims and which
// repository owns a given path.
//
// Every question is answered from the tracked-file listings of the cloned
// stores plus, if the root itself is a plain repository, the root's own
// listing. Listings are fetched concurrently and merged in sorted order,
// so set differences are linear merges rather than per-file queries.
package overlay
