package doctor

import (
	"context"
	"fmt"
)

// fix repairs every fixable issue and returns the number repaired.
func (d *Doctor) fix(ctx context.Context, issues []Issue) (int, error) {
	fixed := 0
	for _, issue := range issues {
		if !issue.Fixable() {
			continue
		}
		s, err := d.Layout.Store(issue.Repo)
		if err != nil {
			return fixed, err
		}

		switch issue.Fix {
		case FixRebind:
			err = d.Adapter.Bind(ctx, s)
		case FixWriteExclude:
			_, err = d.Adapter.EnsureExclude(s)
		}
		if err != nil {
			return fixed, fmt.Errorf("fix %s: %w", issue.Repo, err)
		}
		fixed++
	}
	return fixed, nil
}
