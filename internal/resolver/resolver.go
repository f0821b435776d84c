// Package resolver implements the dependency resolver, spec.md §4.J — "the
// critical algorithm": reconciling a package's dependencies against what's
// already installed, loading each one, and flattening the tree into a
// single conflict-resolved mapping on the root.
//
// Grounded on the teacher's internal/resolver.Resolver, whose Resolve()
// walked a requirement list against two indices (CPAN, then BackPAN) and
// accumulated a flat *dist.Dist slice by pathname; generalized here from "one
// pass over a flat requirement list" to the spec's recursive tree build with
// its five-rule conflict table, and from a single index fallback to the
// three-phase reconcile/load/flatten pipeline spec.md §4.J describes.
package resolver

import (
	"context"
	"strings"

	"github.com/uppm-dev/uppm/internal/pkg"
	"github.com/uppm-dev/uppm/internal/pkgload"
	"github.com/uppm-dev/uppm/internal/ref"
	"github.com/uppm-dev/uppm/internal/repo"
	"github.com/uppm-dev/uppm/internal/targetapp"
	"github.com/uppm-dev/uppm/internal/ulog"
	"github.com/uppm-dev/uppm/internal/version"
)

// Confirm is the user-input collaborator spec.md §9 requires: the core
// never reads the console itself. Under Unattended, DefaultAnswer is used
// instead of invoking Confirm.
type Confirm func(prompt string) bool

// Resolver holds the collaborators needed to reconcile, load, and flatten a
// dependency tree.
type Resolver struct {
	Repos     *repo.Registry
	Loader    *pkgload.Loader
	TargetApp *targetapp.TargetApp
	Confirm   Confirm

	Unattended bool
	// DefaultAnswer is the answer used in place of Confirm under Unattended
	// mode, per spec.md §7's propagation policy.
	DefaultAnswer bool
}

func (r *Resolver) ask(prompt string) bool {
	if r.Unattended || r.Confirm == nil {
		ulog.Warnf("unattended mode: defaulting %q to %v", prompt, r.DefaultAnswer)
		return r.DefaultAnswer
	}
	return r.Confirm(prompt)
}

// decision is the Phase-1 reconciliation outcome, spec.md §4.J's table.
type decision int

const (
	decideSkip decision = iota
	decideUpdateWithExisting
	decideUpdateWithInput
)

// Resolve builds root.FlatDependencies by walking root.Meta.Dependencies,
// per spec.md §4.J. It is also the entry point used to re-run construction
// on a single candidate (the "re-run on C" steps of Phase 3).
func (r *Resolver) Resolve(root *pkg.Package) {
	for _, depRef := range root.Meta.Dependencies {
		r.resolveOne(root, depRef)
	}
}

func (r *Resolver) resolveOne(root *pkg.Package, depRef ref.Partial) {
	effective := depRef

	// Phase 1 — reconcile with already installed.
	if r.TargetApp != nil {
		if installed, ok := r.TargetApp.TryGetInstalledPackage(depRef, root.Scope); ok {
			d, rewritten := r.reconcile(depRef, installed)
			if d == decideSkip {
				return
			}
			if d == decideUpdateWithExisting {
				effective = rewritten
			}
		}
	}

	// Phase 2 — load.
	candidate, ok := r.load(root, effective)
	if !ok {
		return
	}

	// Phase 3 — flatten with conflict resolution.
	r.flatten(root, candidate)
}

// reconcile implements spec.md §4.J's Phase-1 decision table.
func (r *Resolver) reconcile(requested ref.Partial, installed targetapp.InstalledPackage) (decision, ref.Partial) {
	installedRef := installed.Ref.AsPartial()

	switch {
	case strings.EqualFold(installed.Ref.Version(), requested.Version()):
		return decideSkip, ref.Partial{}

	case ref.IsSpecial(installed.Ref.Version()) && requested.IsSpecial():
		ulog.With("package", requested.Name()).Warnf(
			"installed special version %q differs from requested %q", installed.Ref.Version(), requested.Version())
		return decideSkip, ref.Partial{}

	case ref.IsLatest(installed.Ref.Version()) && !requested.IsSpecial():
		if r.ask("adopt installed 'latest' package " + installed.Ref.String() + "?") {
			return decideUpdateWithExisting, installedRef
		}
		return decideSkip, ref.Partial{}
	}

	installedV, installedIsSem := installed.Ref.SemanticalVersion()
	requestedV, requestedIsSem := requested.SemanticalVersion()
	if installedIsSem && requestedIsSem {
		cmp := version.Compare(installedV.WithPolicy(version.PolicyZero), requestedV.WithPolicy(version.PolicyZero))
		switch {
		case cmp == 0:
			return decideSkip, ref.Partial{}
		case cmp < 0: // requested > installed
			if r.ask("update installed package to " + requested.String() + "?") {
				return decideUpdateWithInput, ref.Partial{}
			}
			return decideSkip, ref.Partial{}
		case installedV.Major > requestedV.Major:
			ulog.With("package", requested.Name()).Warnf("major/minor conflict: installed %s > requested %s", installed.Ref.Version(), requested.Version())
			return decideSkip, ref.Partial{}
		case installedV.Scope() < requestedV.Scope():
			if r.ask("adopt broader installed scope " + installed.Ref.String() + "?") {
				return decideUpdateWithExisting, installedRef
			}
			return decideSkip, ref.Partial{}
		default:
			// installed > requested but neither a major conflict nor a
			// broader-scope match (scenario 6, spec.md §8): still ask,
			// defaulting to Skip under unattended mode.
			if r.ask("replace installed package with requested " + requested.String() + "?") {
				return decideUpdateWithInput, ref.Partial{}
			}
			return decideSkip, ref.Partial{}
		}
	}

	return decideUpdateWithInput, ref.Partial{}
}

// load implements spec.md §4.J's Phase 2: resolve depRef through the
// repository registry, logging (not failing) on error — a missing
// dependency is not fatal for tree construction.
func (r *Resolver) load(root *pkg.Package, depRef ref.Partial) (*pkg.Package, bool) {
	var repository repo.Repository
	var err error

	if url := depRef.RepositoryURL(); url != "" {
		repository, err = r.Repos.GetOrCreate(context.Background(), url)
		if err != nil {
			ulog.With("dependency", depRef.String()).Warnf("load failed: %v", err)
			return nil, false
		}
	} else {
		for _, d := range r.Repos.Defaults() {
			if _, ok := d.TryInferReference(depRef); ok {
				repository = d
				break
			}
		}
		if repository == nil {
			ulog.With("dependency", depRef.String()).Warnf("load failed: no default repository resolves this reference")
			return nil, false
		}
	}

	loaded, err := r.Loader.Load(repository, depRef)
	if err != nil {
		ulog.With("dependency", depRef.String()).Warnf("load failed: %v", err)
		return nil, false
	}
	return pkg.NewChild(loaded.Meta, loaded.Engine, root.Scope, root.Root, root.Depth), true
}

// flatten implements spec.md §4.J's Phase 3, the five-rule conflict table
// applied in order; the first that fires ends the comparison. flat_deps is
// always the true resolution root's map: root itself may be a candidate
// several levels deep, whose own FlatDependencies field is nil (only the
// true root's is initialized), so every write goes through root.Root.
func (r *Resolver) flatten(root *pkg.Package, candidate *pkg.Package) {
	flatDeps := root.Root.FlatDependencies
	key := pkg.NameKey(candidate.Meta.Name)
	existing, present := flatDeps[key]
	if !present {
		flatDeps[key] = candidate
		r.Resolve(candidate)
		return
	}

	cVer, eVer := candidate.Meta.Version, existing.Meta.Version
	cSpecial, eSpecial := ref.IsSpecial(cVer), ref.IsSpecial(eVer)
	cLatest, eLatest := ref.IsLatest(cVer), ref.IsLatest(eVer)

	switch {
	// Rule 1: both special.
	case cSpecial && eSpecial:
		if !strings.EqualFold(cVer, eVer) {
			ulog.With("package", candidate.Meta.Name).Warnf("special-version conflict: keeping %q over %q", eVer, cVer)
		}
		return

	// Rule 2: exactly one special.
	case cSpecial != eSpecial:
		if eSpecial {
			flatDeps[key] = candidate
			r.Resolve(candidate)
		}
		return

	// Rule 3: exactly one latest.
	case cLatest != eLatest:
		if eLatest {
			flatDeps[key] = candidate
			r.Resolve(candidate)
		}
		return

	// Rule 4: both latest.
	case cLatest && eLatest:
		return

	// Rule 5: both semantical.
	default:
		cv, cIsSem := parseSemantical(cVer)
		ev, eIsSem := parseSemantical(eVer)
		if !cIsSem || !eIsSem {
			return
		}
		cmp := version.Compare(cv.WithPolicy(version.PolicyNewest), ev.WithPolicy(version.PolicyNewest))
		differsInMajorOrMinor := cv.Major != ev.Major || minorOf(cv) != minorOf(ev)
		if cmp <= 0 {
			if differsInMajorOrMinor {
				ulog.With("package", candidate.Meta.Name).Warnf("MajorMinorConflict: keeping %q over %q", eVer, cVer)
			}
			return
		}
		if differsInMajorOrMinor {
			ulog.With("package", candidate.Meta.Name).Warnf("MajorMinorConflict: %q replaces %q", cVer, eVer)
		}
		flatDeps[key] = candidate
		r.Resolve(candidate)
	}
}

func parseSemantical(s string) (version.Version, bool) {
	if ref.IsLatest(s) {
		return version.Version{Major: ^uint32(0)}, true
	}
	v, err := version.Parse(s)
	return v, err == nil
}

func minorOf(v version.Version) int64 {
	return v.WithPolicy(version.PolicyZero).Components()[1]
}
