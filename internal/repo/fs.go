package repo

import (
	"context"
	"os"
	"path/filepath"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/uppm-dev/uppm/internal/engine"
	"github.com/uppm-dev/uppm/internal/ref"
)

// FilesystemRepository is the local-directory Repository backend, per
// spec.md §4.E's "filesystem variant". Walking the tree and matching
// .gitignore-style excludes is grounded on
// phobologic-repoguide/internal/discover/discover.go, which walks a
// checkout with github.com/sabhiram/go-gitignore to skip vendored/ignored
// paths during source discovery; here it keeps generated caches and VCS
// metadata out of the package catalog.
type FilesystemRepository struct {
	url          string
	absolutePath string
	engines      *engine.Registry

	ready   bool
	lastErr error
	catalog []CatalogEntry
}

// NewFilesystemRepository constructs a filesystem-backed repository rooted
// at absolutePath, cataloged against engines.
func NewFilesystemRepository(url, absolutePath string, engines *engine.Registry) *FilesystemRepository {
	return &FilesystemRepository{url: url, absolutePath: absolutePath, engines: engines}
}

func (r *FilesystemRepository) URL() string { return r.url }

func (r *FilesystemRepository) ReferenceSyntacticallyValid() bool {
	return LooksLikeFilesystem(r.url)
}

func (r *FilesystemRepository) Exists(ctx context.Context) bool {
	info, err := os.Stat(r.absolutePath)
	return err == nil && info.IsDir()
}

func (r *FilesystemRepository) Ready() bool             { return r.ready }
func (r *FilesystemRepository) LastRefreshError() error { return r.lastErr }
func (r *FilesystemRepository) Catalog() []CatalogEntry { return r.catalog }

// Refresh rebuilds the catalog by walking <url>/<author>/<name>/<file>, per
// spec.md §4.E's "Filesystem catalog build".
func (r *FilesystemRepository) Refresh(ctx context.Context) bool {
	matcher := loadIgnore(r.absolutePath)

	var entries []CatalogEntry
	err := filepath.Walk(r.absolutePath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(r.absolutePath, path)
		if err != nil {
			return nil
		}
		if matcher != nil && matcher.MatchesPath(rel) {
			return nil
		}
		if entry, ok := walkLeaf(r.url, rel, r.engines); ok {
			entry.Path = path
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		r.ready = false
		r.lastErr = err
		logRefreshFailure(r.url, err)
		return false
	}
	r.catalog = entries
	r.ready = true
	r.lastErr = nil
	return true
}

func loadIgnore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".uppmignore")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	m, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return m
}

func (r *FilesystemRepository) TryGetPackageText(c ref.Complete) (string, bool) {
	for _, e := range r.catalog {
		if e.Ref.EqualComplete(c) {
			data, err := os.ReadFile(e.Path)
			if err != nil {
				return "", false
			}
			return string(data), true
		}
	}
	return "", false
}

func (r *FilesystemRepository) TryGetScriptEngine(c ref.Complete, engines *engine.Registry) (*engine.Engine, bool) {
	for _, e := range r.catalog {
		if e.Ref.EqualComplete(c) {
			return engines.Lookup(e.Extension)
		}
	}
	return nil, false
}

func (r *FilesystemRepository) TryInferReference(p ref.Partial) (ref.Complete, bool) {
	return InferReference(r.catalog, r.url, p)
}
