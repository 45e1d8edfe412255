package doctor

// Category groups issues by what they concern.
type Category string

const (
	// CategorySetup covers the metadata root and the git binary.
	CategorySetup Category = "setup"
	// CategoryStore covers the binding of metadata stores.
	CategoryStore Category = "store"
	// CategoryRegistry covers origins that cannot be resolved.
	CategoryRegistry Category = "registry"
	// CategoryOverlay covers files claimed by several repositories.
	CategoryOverlay Category = "overlay"
)

// FixAction is what --fix does about an issue.
type FixAction string

const (
	FixNone         FixAction = ""
	FixWriteExclude FixAction = "write_exclude"
	FixRebind       FixAction = "rebind"
)

// Issue is a problem found by a check.
type Issue struct {
	Category    Category
	Repo        string
	Description string
	Fix         FixAction
}

// Fixable reports whether --fix can repair the issue.
func (i Issue) Fixable() bool {
	return i.Fix != FixNone
}

// Report is the result of all checks.
type Report struct {
	Stores  int // cloned repositories checked
	Origins int // registered origins checked
	Issues  []Issue
}
