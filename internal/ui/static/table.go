// Package static renders non-interactive terminal output such as tables.
package static

import (
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/raphi011/ovl/internal/ui/styles"
)

// Empty is shown in place of missing cells and rendered muted.
const Empty = "-"

// RenderTable renders rows under bold headers, aligned and without
// borders. Missing values are shown as Empty. No rows render nothing.
func RenderTable(headers []string, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	filled := make([][]string, len(rows))
	for i, row := range rows {
		filled[i] = make([]string, len(headers))
		for j := range headers {
			v := ""
			if j < len(row) {
				v = row[j]
			}
			if v == "" {
				v = Empty
			}
			filled[i][j] = v
		}
	}

	t := table.New().
		Headers(headers...).
		Rows(filled...).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		BorderRow(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			cell := lipgloss.NewStyle().PaddingRight(2)
			switch {
			case row == table.HeaderRow:
				return cell.Bold(true)
			case filled[row][col] == Empty:
				return cell.Foreground(styles.Muted)
			}
			return cell
		})

	var b strings.Builder
	b.WriteString(t.String())
	b.WriteString("\n")
	return b.String()
}
