// Package repo implements uppm's repository abstraction (spec.md §4.E), the
// repository registry (§4.F), and reference inference (§4.G) — "the heart"
// of the resolver.
//
// Grounded on the teacher's internal/index package: CPANIndex is a
// filesystem/HTTP-backed catalog keyed by module name with a cache-freshness
// policy (github.com/frederic-klein/yacm/internal/index/cpan.go);
// BackPANIndex is a fallback lookup keyed by (module, version)
// (.../internal/index/backpan.go). Generalized here into two catalog
// backends (filesystem, Git) behind one Repository contract, per spec.md
// §4.E's "polymorphism over repository backends... via tagged variants".
package repo

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/uppm-dev/uppm/internal/engine"
	"github.com/uppm-dev/uppm/internal/ref"
	"github.com/uppm-dev/uppm/internal/ulog"
)

// CatalogEntry is one leaf of a repository's catalog: a complete reference
// resolved to the file that provides it, plus the file extension used to
// pick a script engine.
type CatalogEntry struct {
	Ref       ref.Complete
	Path      string
	Extension string
}

// Repository is the common contract every repository backend implements,
// per spec.md §4.E. Every operation returns a boolean success. Only Refresh
// logs its failures; Exists and the TryGet*/TryInfer* lookups report a miss
// through the boolean alone. Callers that need the cause of a failed refresh
// use LastRefreshError.
type Repository interface {
	URL() string
	ReferenceSyntacticallyValid() bool
	Exists(ctx context.Context) bool
	Refresh(ctx context.Context) bool
	Ready() bool
	LastRefreshError() error
	Catalog() []CatalogEntry
	TryGetPackageText(c ref.Complete) (string, bool)
	TryGetScriptEngine(c ref.Complete, engines *engine.Registry) (*engine.Engine, bool)
	TryInferReference(p ref.Partial) (ref.Complete, bool)
}

// catalogByName indexes a catalog by lower-cased package name, the shape
// InferReference (§4.G) consumes.
func catalogByName(entries []CatalogEntry, name string) []CatalogEntry {
	var out []CatalogEntry
	for _, e := range entries {
		if strings.EqualFold(e.Ref.Name(), name) {
			out = append(out, e)
		}
	}
	return out
}

// walkLeaf is shared by the filesystem backend and the Git backend's
// post-checkout scan: given a repo root and a relative path
// <author>/<name>/<file>, it produces a CatalogEntry if file's extension is
// registered with engines.
func walkLeaf(repoURL, relPath string, engines *engine.Registry) (CatalogEntry, bool) {
	parts := strings.Split(filepath.ToSlash(relPath), "/")
	if len(parts) != 3 {
		return CatalogEntry{}, false
	}
	name := parts[1]
	file := parts[2]
	ext := strings.TrimPrefix(filepath.Ext(file), ".")
	if ext == "" {
		return CatalogEntry{}, false
	}
	if _, ok := engines.Lookup(ext); !ok {
		return CatalogEntry{}, false
	}
	ver := strings.TrimSuffix(file, filepath.Ext(file))
	entry := CatalogEntry{
		Ref:       ref.NewComplete(name, ver, repoURL),
		Extension: ext,
	}
	return entry, true
}

func logRefreshFailure(url string, err error) {
	ulog.With("repository", url).Warnf("refresh failed: %v", err)
}
