// Package pkg defines Package (spec.md §3), the in-memory node the
// dependency resolver and action runner operate on — distinct from
// meta.Package (the header metadata, PackageMeta in the spec's naming).
package pkg

import (
	"strings"

	"github.com/uppm-dev/uppm/internal/engine"
	"github.com/uppm-dev/uppm/internal/meta"
)

// Scope is a package's installed scope, spec.md's InstalledScope. It is
// declared as a bitflag per the spec's data model even though every
// current caller queries one scope at a time (see spec.md §9 Open
// Questions); Global|Local is expressible but has no defined semantics
// beyond "matches either".
type Scope int

const (
	Global Scope = 1 << iota
	Local
)

func (s Scope) String() string {
	switch s {
	case Global:
		return "global"
	case Local:
		return "local"
	case Global | Local:
		return "global|local"
	default:
		return "none"
	}
}

// Has reports whether s includes scope bit o.
func (s Scope) Has(o Scope) bool { return s&o != 0 }

// EffectiveScope applies spec.md §3's rule: force_global promotes any
// inherited scope to Global.
func EffectiveScope(inherited Scope, forceGlobal bool) Scope {
	if forceGlobal {
		return Global
	}
	return inherited
}

// Package is the resolver's working node: parsed metadata plus the
// resolution-time state spec.md §3 attaches to it. The root of a
// resolution owns FlatDependencies; every descendant's Root points back to
// it and FlatDependencies is nil on descendants.
type Package struct {
	Meta   *meta.Package
	Engine *engine.Engine

	Scope Scope
	Depth int
	Root  *Package

	// FlatDependencies is populated only on the root, keyed by
	// case-insensitive package name.
	FlatDependencies map[string]*Package
}

// NewRoot constructs the root Package of a resolution.
func NewRoot(m *meta.Package, eng *engine.Engine, scope Scope) *Package {
	p := &Package{
		Meta:             m,
		Engine:           eng,
		Scope:            EffectiveScope(scope, m.ForceGlobal),
		Depth:            0,
		FlatDependencies: make(map[string]*Package),
	}
	p.Root = p
	return p
}

// NewChild constructs a descendant of root at depth parentDepth+1.
func NewChild(m *meta.Package, eng *engine.Engine, scope Scope, root *Package, parentDepth int) *Package {
	return &Package{
		Meta:   m,
		Engine: eng,
		Scope:  EffectiveScope(scope, m.ForceGlobal),
		Depth:  parentDepth + 1,
		Root:   root,
	}
}

// NameKey is the case-insensitive key FlatDependencies is indexed by.
func NameKey(name string) string { return strings.ToLower(name) }
