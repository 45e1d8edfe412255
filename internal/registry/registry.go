// Package registry persists repository origins and origin base URLs as
// flat single-line records in the metadata root:
//
//	<name>.origin   registered origin of repository <name>
//	<origin>.baseurl  URL prefix used to expand origin/name specifiers
//
// Every key is independent; writes are atomic single-key overwrites.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/afero"

	"github.com/raphi011/ovl/internal/storage"
)

// ErrUsage marks invalid names, origins or URLs.
var ErrUsage = errors.New("usage error")

const (
	originSuffix  = ".origin"
	baseURLSuffix = ".baseurl"

	// DeleteValue passed as a value removes the record instead of writing it.
	DeleteValue = "-"
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9._-]*$`)

// ValidName checks a repository name: letters, digits, '.', '-' and '_',
// not starting with '.' or '-'.
func ValidName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: invalid repository name %q", ErrUsage, name)
	}
	return nil
}

func validToken(kind, v string) error {
	if v == "" {
		return fmt.Errorf("%w: empty %s", ErrUsage, kind)
	}
	if strings.ContainsFunc(v, unicode.IsSpace) {
		return fmt.Errorf("%w: %s %q contains whitespace", ErrUsage, kind, v)
	}
	return nil
}

// Registry reads and writes origin and base URL records.
type Registry struct {
	fs  afero.Fs
	dir string
}

// New returns a registry backed by records in dir.
func New(fs afero.Fs, dir string) *Registry {
	return &Registry{fs: fs, dir: dir}
}

// Dir returns the metadata root the records live in.
func (r *Registry) Dir() string {
	return r.dir
}

func (r *Registry) path(key, suffix string) string {
	return filepath.Join(r.dir, key+suffix)
}

// Origin returns the registered origin of repository name.
func (r *Registry) Origin(name string) (string, bool, error) {
	if err := ValidName(name); err != nil {
		return "", false, err
	}
	v, ok, err := storage.ReadLine(r.fs, r.path(name, originSuffix))
	if err != nil {
		return "", false, fmt.Errorf("read origin of %s: %w", name, err)
	}
	return v, ok && v != "", nil
}

// SetOrigin registers origin for repository name. An origin of "-"
// deletes the record.
func (r *Registry) SetOrigin(name, origin string) error {
	if origin == DeleteValue {
		return r.DeleteOrigin(name)
	}
	if err := ValidName(name); err != nil {
		return err
	}
	if err := validToken("origin", origin); err != nil {
		return err
	}
	if err := storage.WriteLine(r.fs, r.path(name, originSuffix), origin); err != nil {
		return fmt.Errorf("write origin of %s: %w", name, err)
	}
	return nil
}

// DeleteOrigin removes the origin record of repository name.
func (r *Registry) DeleteOrigin(name string) error {
	if err := ValidName(name); err != nil {
		return err
	}
	if err := storage.Remove(r.fs, r.path(name, originSuffix)); err != nil {
		return fmt.Errorf("delete origin of %s: %w", name, err)
	}
	return nil
}

func validBaseURLOrigin(origin string) error {
	if err := validToken("origin", origin); err != nil {
		return err
	}
	if strings.ContainsAny(origin, `/\`) || strings.HasPrefix(origin, ".") {
		return fmt.Errorf("%w: origin %q cannot carry a base URL", ErrUsage, origin)
	}
	return nil
}

// BaseURL returns the base URL registered for origin.
func (r *Registry) BaseURL(origin string) (string, bool, error) {
	if err := validBaseURLOrigin(origin); err != nil {
		return "", false, err
	}
	v, ok, err := storage.ReadLine(r.fs, r.path(origin, baseURLSuffix))
	if err != nil {
		return "", false, fmt.Errorf("read base URL of %s: %w", origin, err)
	}
	return v, ok && v != "", nil
}

// SetBaseURL registers url as the prefix for origin. The URL must end in
// "/" since names are appended by plain concatenation. A url of "-"
// deletes the record.
func (r *Registry) SetBaseURL(origin, url string) error {
	if url == DeleteValue {
		return r.DeleteBaseURL(origin)
	}
	if err := validBaseURLOrigin(origin); err != nil {
		return err
	}
	if err := validToken("base URL", url); err != nil {
		return err
	}
	if !strings.HasSuffix(url, "/") {
		return fmt.Errorf("%w: base URL %q must end with '/'", ErrUsage, url)
	}
	if err := storage.WriteLine(r.fs, r.path(origin, baseURLSuffix), url); err != nil {
		return fmt.Errorf("write base URL of %s: %w", origin, err)
	}
	return nil
}

// DeleteBaseURL removes the base URL record of origin.
func (r *Registry) DeleteBaseURL(origin string) error {
	if err := validBaseURLOrigin(origin); err != nil {
		return err
	}
	if err := storage.Remove(r.fs, r.path(origin, baseURLSuffix)); err != nil {
		return fmt.Errorf("delete base URL of %s: %w", origin, err)
	}
	return nil
}

// Known returns every repository name with a registered origin, sorted,
// regardless of clone state.
func (r *Registry) Known() ([]string, error) {
	return r.keys(originSuffix, func(k string) bool { return ValidName(k) == nil })
}

// Origins returns every origin with a registered base URL, sorted.
func (r *Registry) Origins() ([]string, error) {
	return r.keys(baseURLSuffix, func(k string) bool { return validBaseURLOrigin(k) == nil })
}

func (r *Registry) keys(suffix string, valid func(string) bool) ([]string, error) {
	entries, err := afero.ReadDir(r.fs, r.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", r.dir, err)
	}

	var keys []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		key, ok := strings.CutSuffix(e.Name(), suffix)
		if ok && valid(key) {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

// Suggest returns the closest candidate to name, or "" if nothing is close.
func Suggest(name string, candidates []string) string {
	matches := fuzzy.Find(name, candidates)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Str
}
