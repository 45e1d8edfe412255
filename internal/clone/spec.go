package clone

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/raphi011/ovl/internal/registry"
)

// Spec is a parsed repository specifier.
type Spec struct {
	Raw     string
	Name    string
	Origin  string // explicit origin; the URL itself for URL specifiers
	URL     string // explicit fetch URL
	Version string // requested revision; empty for the default branch
}

// scp-style remotes such as git@example.com:dotfiles/vim.git or
// example.com:dotfiles/vim.git
var scpLike = regexp.MustCompile(`^([A-Za-z0-9._-]+@)?[A-Za-z0-9.-]+:`)

// IsURL reports whether s is shaped like a fetch URL.
func IsURL(s string) bool {
	return strings.Contains(s, "://") || scpLike.MatchString(s)
}

// ParseSpec parses "[origin/]name[=version]" or "URL[=version]".
func ParseSpec(s string) (Spec, error) {
	if s == "" {
		return Spec{}, fmt.Errorf("%w: empty repository specifier", registry.ErrUsage)
	}
	if strings.ContainsFunc(s, unicode.IsSpace) {
		return Spec{}, fmt.Errorf("%w: repository specifier %q contains whitespace", registry.ErrUsage, s)
	}

	spec := Spec{Raw: s}
	if IsURL(s) {
		url, version, hasVersion := cutLast(s, "=")
		if hasVersion && version == "" {
			return Spec{}, fmt.Errorf("%w: empty version in %q", registry.ErrUsage, s)
		}
		spec.Version = version
		spec.URL = url
		spec.Origin = url
		trimmed := strings.TrimRight(url, "/")
		sep := max(strings.LastIndex(trimmed, "/"), strings.LastIndex(trimmed, ":"))
		spec.Name = strings.TrimSuffix(trimmed[sep+1:], ".git")
	} else {
		left, version, hasVersion := strings.Cut(s, "=")
		if hasVersion && version == "" {
			return Spec{}, fmt.Errorf("%w: empty version in %q", registry.ErrUsage, s)
		}
		spec.Version = version
		spec.Name = left
		if i := strings.LastIndex(left, "/"); i >= 0 {
			spec.Origin = left[:i]
			spec.Name = left[i+1:]
			if spec.Origin == "" {
				return Spec{}, fmt.Errorf("%w: empty origin in %q", registry.ErrUsage, s)
			}
		}
	}

	if err := registry.ValidName(spec.Name); err != nil {
		return Spec{}, fmt.Errorf("%q: %w", s, err)
	}
	return spec, nil
}

func cutLast(s, sep string) (before, after string, found bool) {
	if i := strings.LastIndex(s, sep); i >= 0 {
		return s[:i], s[i+len(sep):], true
	}
	return s, "", false
}

// String renders the specifier in its canonical form.
func (s Spec) String() string {
	var b strings.Builder
	switch {
	case s.URL != "":
		b.WriteString(s.URL)
	case s.Origin != "":
		b.WriteString(s.Origin + "/" + s.Name)
	default:
		b.WriteString(s.Name)
	}
	if s.Version != "" {
		b.WriteString("=" + s.Version)
	}
	return b.String()
}
