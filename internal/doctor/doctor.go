package doctor

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/raphi011/ovl/internal/metastore"
	"github.com/raphi011/ovl/internal/overlay"
	"github.com/raphi011/ovl/internal/registry"
	"github.com/raphi011/ovl/internal/vcs"
)

// Doctor checks the overlay for problems.
type Doctor struct {
	Layout   metastore.Layout
	VCS      vcs.Runner
	Adapter  *metastore.Adapter
	Registry *registry.Registry
	Overlay  *overlay.Resolver

	// CheckGit verifies the git binary; nil skips the check.
	CheckGit func() error
}

// New returns a doctor for layout.
func New(layout metastore.Layout, runner vcs.Runner, reg *registry.Registry, jobs int) *Doctor {
	return &Doctor{
		Layout:   layout,
		VCS:      runner,
		Adapter:  metastore.NewAdapter(layout, runner),
		Registry: reg,
		Overlay:  overlay.New(layout, runner, jobs),
	}
}

// Check runs every check. A missing metadata root or git binary stops
// the remaining checks.
func (d *Doctor) Check(ctx context.Context) (Report, error) {
	var r Report

	if d.CheckGit != nil {
		if err := d.CheckGit(); err != nil {
			r.Issues = append(r.Issues, Issue{Category: CategorySetup, Description: err.Error()})
			return r, nil
		}
	}
	if err := d.Layout.CheckMetaDir(); err != nil {
		if errors.Is(err, metastore.ErrNoMetaDir) {
			r.Issues = append(r.Issues, Issue{
				Category:    CategorySetup,
				Description: fmt.Sprintf("%v (clone or init a repository first)", err),
			})
			return r, nil
		}
		return r, err
	}

	names, err := d.Layout.Cloned()
	if err != nil {
		return r, err
	}
	stores, err := d.Layout.Stores(names)
	if err != nil {
		return r, err
	}
	r.Stores = len(stores)
	for _, s := range stores {
		r.Issues = append(r.Issues, d.checkStore(ctx, s)...)
	}

	n, issues, err := d.checkOrigins()
	if err != nil {
		return r, err
	}
	r.Origins = n
	r.Issues = append(r.Issues, issues...)

	issues, err = d.checkOverlay(ctx)
	if err != nil {
		return r, err
	}
	r.Issues = append(r.Issues, issues...)
	return r, nil
}

// Run checks the overlay, prints a report to w and with fix repairs what
// it can.
func (d *Doctor) Run(ctx context.Context, w io.Writer, fix bool) error {
	fmt.Fprintln(w, "Checking overlay...")
	r, err := d.Check(ctx)
	if err != nil {
		return err
	}

	printSummary(w, r)
	if len(r.Issues) == 0 {
		fmt.Fprintln(w, "\n✓ No issues found")
		return nil
	}

	fmt.Fprintf(w, "\nFound %d issues:\n", len(r.Issues))
	printIssuesByCategory(w, r.Issues)

	fixable := 0
	for _, i := range r.Issues {
		if i.Fixable() {
			fixable++
		}
	}
	if !fix {
		if fixable > 0 {
			fmt.Fprintf(w, "\nRun 'ovl doctor --fix' to repair %d of them.\n", fixable)
		}
		return nil
	}

	fixed, err := d.fix(ctx, r.Issues)
	fmt.Fprintf(w, "\nFixed %d issues.\n", fixed)
	return err
}

func printSummary(w io.Writer, r Report) {
	counts := map[Category]int{}
	for _, i := range r.Issues {
		counts[i.Category]++
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  ✓ %d repositories cloned\n", r.Stores)
	if n := counts[CategoryStore]; n > 0 {
		fmt.Fprintf(w, "  ⚠ %d store binding issues\n", n)
	}
	fmt.Fprintf(w, "  ✓ %d origins registered\n", r.Origins)
	if n := counts[CategoryRegistry]; n > 0 {
		fmt.Fprintf(w, "  ✗ %d origins without a fetch URL\n", n)
	}
	if n := counts[CategoryOverlay]; n > 0 {
		fmt.Fprintf(w, "  ⚠ %d double-tracked owners\n", n)
	}
}

func printIssuesByCategory(w io.Writer, issues []Issue) {
	byCategory := make(map[Category][]Issue)
	for _, issue := range issues {
		byCategory[issue.Category] = append(byCategory[issue.Category], issue)
	}

	names := map[Category]string{
		CategorySetup:    "Setup",
		CategoryStore:    "Metadata stores",
		CategoryRegistry: "Origins",
		CategoryOverlay:  "Double-tracked files",
	}

	for _, cat := range []Category{CategorySetup, CategoryStore, CategoryRegistry, CategoryOverlay} {
		list := byCategory[cat]
		if len(list) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s:\n", names[cat])
		for _, issue := range list {
			prefix := "  "
			if issue.Repo != "" {
				prefix += issue.Repo + ": "
			}
			fix := ""
			if issue.Fixable() {
				fix = fmt.Sprintf(" [fix: %s]", issue.Fix)
			}
			fmt.Fprintf(w, "%s%s%s\n", prefix, issue.Description, fix)
		}
	}
}
