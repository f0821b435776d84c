// Package targetapp implements the target-app registry, spec.md §4.H: the
// process-wide table of applications uppm can install packages for, each
// contributing a default repository and an installed-package lookup the
// dependency resolver reconciles against.
//
// Grounded on the teacher's internal/index package's process-wide,
// URL/short-name-keyed singleton shape (CPANIndex/BackPANIndex are the
// mirror-vs-local-cache analogue of a target app's remote-vs-installed
// duality).
package targetapp

import (
	"strings"
	"sync"

	"github.com/uppm-dev/uppm/internal/pkg"
	"github.com/uppm-dev/uppm/internal/ref"
	"github.com/uppm-dev/uppm/internal/repo"
	"github.com/uppm-dev/uppm/internal/uerrors"
)

// InstalledPackage is what an InstalledLookup reports for a match: enough
// for the resolver's Phase 1 reconciliation table (spec.md §4.J) to compare
// against the requested reference.
type InstalledPackage struct {
	Ref   ref.Complete
	Scope pkg.Scope
}

// InstalledLookup enumerates and queries packages already present on disk
// for a target app; implementation-defined per spec.md §4.H, injected here
// so targetapp stays free of filesystem layout assumptions.
type InstalledLookup interface {
	TryGet(partial ref.Partial, scope pkg.Scope) (InstalledPackage, bool)
	Enumerate(scope pkg.Scope) []InstalledPackage
}

// TargetApp is spec.md §3's TargetApp record.
type TargetApp struct {
	ShortName         string
	Architecture      string
	AppFolder         string
	GlobalPacksFolder string
	LocalPacksFolder  string
	Executable        string
	DefaultRepository repo.Repository

	Installed InstalledLookup
}

// TryGetInstalledPackage implements spec.md §4.H's
// try_get_installed_package.
func (t *TargetApp) TryGetInstalledPackage(p ref.Partial, scope pkg.Scope) (InstalledPackage, bool) {
	if t.Installed == nil {
		return InstalledPackage{}, false
	}
	return t.Installed.TryGet(p, scope)
}

// EnumerateInstalledPackages folds over packages present on disk in scope.
// Per spec.md §9's open question, a scope spanning both Global and Local is
// unimplemented: only single-bit scopes are accepted.
func (t *TargetApp) EnumerateInstalledPackages(scope pkg.Scope) ([]InstalledPackage, error) {
	if t.Installed == nil {
		return nil, nil
	}
	if scope != pkg.Global && scope != pkg.Local {
		return nil, uerrors.New(uerrors.InvalidReference, "targetapp.EnumerateInstalledPackages: combined Global|Local scope is unspecified")
	}
	return t.Installed.Enumerate(scope), nil
}

// Registry is the process-wide short-name-keyed table of target apps, plus
// the *default* repository set each active target app contributes to
// (spec.md §4.F/§4.H).
type Registry struct {
	mu      sync.RWMutex
	apps    map[string]*TargetApp
	current *TargetApp
	repos   *repo.Registry
}

// NewRegistry constructs an empty target-app registry backed by repos for
// default-repository bookkeeping.
func NewRegistry(repos *repo.Registry) *Registry {
	return &Registry{apps: make(map[string]*TargetApp), repos: repos}
}

// Register adds app under its short name.
func (r *Registry) Register(app *TargetApp) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.apps[strings.ToLower(app.ShortName)] = app
}

// Get returns the registered app by short name.
func (r *Registry) Get(shortName string) (*TargetApp, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	app, ok := r.apps[strings.ToLower(shortName)]
	return app, ok
}

// Current returns the currently active target app, if one was set.
func (r *Registry) Current() (*TargetApp, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return nil, false
	}
	return r.current, true
}

// SetCurrent implements spec.md §4.H's set_current: swap the active target
// app, removing the previous one's default repository from the registry's
// default set and registering the new one's.
func (r *Registry) SetCurrent(shortName string) error {
	r.mu.Lock()
	app, ok := r.apps[strings.ToLower(shortName)]
	r.mu.Unlock()
	if !ok {
		return uerrors.New(uerrors.UnknownTargetApp, "targetapp.SetCurrent")
	}

	r.mu.Lock()
	previous := r.current
	r.current = app
	r.mu.Unlock()

	if r.repos != nil {
		if previous != nil && previous.DefaultRepository != nil {
			r.repos.RemoveDefault(previous.DefaultRepository.URL())
		}
		if app.DefaultRepository != nil {
			r.repos.AddDefault(app.DefaultRepository.URL(), app.DefaultRepository)
		}
	}
	return nil
}
