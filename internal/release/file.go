package release

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/raphi011/ovl/internal/registry"
)

// SelfVersion marks the repository carrying the release file itself.
// Reconciliation never removes or checks it out.
const SelfVersion = "*"

// Entry is one (repository, version) pair.
type Entry struct {
	Repo    string
	Version string
}

// Self reports whether e is the repository carrying the release file.
func (e Entry) Self() bool {
	return e.Version == SelfVersion
}

func (e Entry) String() string {
	return e.Repo + " " + e.Version
}

// line is a raw line of a release file; entry is set for pair lines.
type line struct {
	raw   string
	entry *Entry
}

// parseLines keeps every line so a rewrite only touches changed pairs.
func parseLines(data []byte) ([]line, error) {
	var lines []line
	seen := map[string]bool{}

	sc := bufio.NewScanner(bytes.NewReader(data))
	for n := 1; sc.Scan(); n++ {
		raw := sc.Text()
		text := strings.TrimSpace(raw)
		if text == "" || strings.HasPrefix(text, "#") {
			lines = append(lines, line{raw: raw})
			continue
		}

		e, err := parseEntry(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		if seen[e.Repo] {
			return nil, fmt.Errorf("line %d: %w: %s listed twice", n, registry.ErrUsage, e.Repo)
		}
		seen[e.Repo] = true
		lines = append(lines, line{raw: raw, entry: &e})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// parseEntry accepts "name version" and "name=version".
func parseEntry(text string) (Entry, error) {
	fields := strings.Fields(text)
	if len(fields) == 1 {
		fields = strings.SplitN(fields[0], "=", 2)
	}
	if len(fields) != 2 || fields[1] == "" {
		return Entry{}, fmt.Errorf("%w: expected \"<repository> <version>\", got %q", registry.ErrUsage, text)
	}
	if err := registry.ValidName(fields[0]); err != nil {
		return Entry{}, err
	}
	return Entry{Repo: fields[0], Version: fields[1]}, nil
}

func entries(lines []line) []Entry {
	var out []Entry
	for _, l := range lines {
		if l.entry != nil {
			out = append(out, *l.entry)
		}
	}
	return out
}

func render(lines []line) []byte {
	var b bytes.Buffer
	for _, l := range lines {
		b.WriteString(l.raw)
		b.WriteByte('\n')
	}
	return b.Bytes()
}

// Parse reads the pairs of a release file. Blank lines and # comments
// are skipped.
func Parse(r io.Reader) ([]Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	lines, err := parseLines(data)
	if err != nil {
		return nil, err
	}
	return entries(lines), nil
}

// Format writes entries as "name version" lines.
func Format(w io.Writer, entries []Entry) error {
	for _, e := range entries {
		if _, err := fmt.Fprintln(w, e); err != nil {
			return err
		}
	}
	return nil
}
