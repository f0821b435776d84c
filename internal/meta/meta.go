// Package meta defines PackageMeta (spec.md §3): the metadata a script's
// header comment carries, plus the identifying "self" back-reference.
package meta

import (
	"github.com/uppm-dev/uppm/internal/ref"
	"github.com/uppm-dev/uppm/internal/version"
)

// Package is the parsed metadata header of a script, spec.md's PackageMeta.
type Package struct {
	Name                 string
	Version              string
	TargetApp            string
	CompatibleAppVersion string
	RequiredCoreVersion  version.Requirement
	Author               string
	License              string
	ProjectURL           string
	Repository           string
	Description          string
	ForceGlobal          bool

	Dependencies []ref.Partial
	Imports      []ref.Partial

	// Self is a lookup key built from (Name, Version, Repository), not an
	// ownership back-pointer, per spec.md §9.
	Self ref.Complete

	RawText        string
	ScriptText     string
	MetadataObject map[string]interface{}
}

// RebuildSelf recomputes Self from the three identifying fields, restoring
// the invariant `self.name == name && self.version == version &&
// self.repository_url == repository` after Version is overwritten by the
// package loader (spec.md §4.I step 5).
func (p *Package) RebuildSelf() {
	p.Self = ref.NewComplete(p.Name, p.Version, p.Repository)
}
