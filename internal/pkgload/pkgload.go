// Package pkgload implements the package loader, spec.md §4.I: given a
// repository and a partial reference, produce a fully-loaded pkg.Package.
// It also implements engine.ImportLoader, closing the loop the engine
// package left open to avoid a dependency cycle on repo.
package pkgload

import (
	"context"

	"github.com/uppm-dev/uppm/internal/engine"
	"github.com/uppm-dev/uppm/internal/pkg"
	"github.com/uppm-dev/uppm/internal/ref"
	"github.com/uppm-dev/uppm/internal/repo"
	"github.com/uppm-dev/uppm/internal/uerrors"
	"github.com/uppm-dev/uppm/internal/version"
)

// Loader implements spec.md §4.I, holding onto the engine registry and core
// version needed to validate a package's required-core-version gate.
type Loader struct {
	Engines     *engine.Registry
	CoreVersion version.Version
}

// New constructs a Loader.
func New(engines *engine.Registry, core version.Version) *Loader {
	return &Loader{Engines: engines, CoreVersion: core}
}

// Load implements spec.md §4.I's five-step algorithm.
func (l *Loader) Load(r repo.Repository, partial ref.Partial) (*pkg.Package, error) {
	const op = "pkgload.Load"

	complete, ok := r.TryInferReference(partial)
	if !ok {
		return nil, uerrors.New(uerrors.PackageNotFound, op)
	}

	eng, ok := r.TryGetScriptEngine(complete, l.Engines)
	if !ok {
		return nil, uerrors.New(uerrors.EngineUnavailable, op)
	}

	text, ok := r.TryGetPackageText(complete)
	if !ok {
		return nil, uerrors.New(uerrors.PackageTextUnavailable, op)
	}

	m, required, ok := eng.TryGetMeta(text, complete, l.CoreVersion)
	if !ok {
		return nil, uerrors.New(uerrors.MetadataUnavailable, op)
	}
	if !required.Compatible {
		return nil, uerrors.New(uerrors.CoreTooOld, op)
	}

	m.Version = complete.Version()
	m.RebuildSelf()

	return &pkg.Package{Meta: m, Engine: eng}, nil
}

// ImportLoaderFunc implements engine.ImportLoader by resolving p against the
// repository owning parentRepository, then reading its text — the same
// path Load uses for the top-level package, minus the metadata step.
type ImportLoaderFunc struct {
	Repos   *repo.Registry
	Engines *engine.Registry
}

var _ engine.ImportLoader = (*ImportLoaderFunc)(nil)

// LoadImportText looks up parentRepository in the registry (registering it
// on first use), infers p against its catalog, and returns its raw text and
// extension.
func (l *ImportLoaderFunc) LoadImportText(p ref.Partial, parentRepository string) (string, string, error) {
	const op = "pkgload.LoadImportText"

	url := p.RepositoryURL()
	if url == "" {
		url = parentRepository
	}

	r, err := l.Repos.GetOrCreate(context.Background(), url)
	if err != nil {
		return "", "", err
	}

	complete, ok := r.TryInferReference(p)
	if !ok {
		return "", "", uerrors.New(uerrors.PackageNotFound, op)
	}

	text, ok := r.TryGetPackageText(complete)
	if !ok {
		return "", "", uerrors.New(uerrors.PackageTextUnavailable, op)
	}

	for _, entry := range r.Catalog() {
		if entry.Ref.EqualComplete(complete) {
			return text, entry.Extension, nil
		}
	}
	return "", "", uerrors.New(uerrors.PackageTextUnavailable, op)
}
