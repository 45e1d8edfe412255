package hooks

import (
	"github.com/raphi011/ovl/internal/metastore"
)

// ContextFor builds the substitution context for a repository.
func ContextFor(s metastore.Store, trigger Trigger, version string, env map[string]string) Context {
	return Context{
		Repo:    s.Name,
		Root:    s.WorkTree,
		GitDir:  s.GitDir,
		Version: version,
		Trigger: trigger,
		Env:     env,
	}
}
