package repo

import (
	"strings"

	"github.com/uppm-dev/uppm/internal/ref"
	"github.com/uppm-dev/uppm/internal/version"
)

// InferReference implements spec.md §4.G: given a partial reference and a
// repository's catalog, produce a complete reference honoring version
// semantics, or report NotFound (ok == false).
//
// Grounded on the teacher's internal/resolver satisfies()/compareVersions
// (github.com/frederic-klein/yacm/internal/resolver/resolver.go), which
// picks "the version that satisfies a Perl version-range string"; here
// generalized to the spec's scope-aware "highest candidate agreeing with the
// input up to its own specified scope" rule, since uppm references a single
// version rather than a range.
func InferReference(entries []CatalogEntry, repoURL string, p ref.Partial) (ref.Complete, bool) {
	if reqURL := p.RepositoryURL(); reqURL != "" && !strings.EqualFold(reqURL, repoURL) {
		return ref.Complete{}, false
	}

	candidates := catalogByName(entries, p.Name())
	if len(candidates) == 0 {
		return ref.Complete{}, false
	}

	if p.IsSpecial() {
		for _, c := range candidates {
			if strings.EqualFold(c.Ref.Version(), p.Version()) {
				return c.Ref, true
			}
		}
		return ref.Complete{}, false
	}

	if p.IsLatestOrEmpty() {
		if c, ok := findLiteralLatest(candidates); ok {
			return c, true
		}
		return highestSemantical(candidates, nil)
	}

	inputV, ok := p.SemanticalVersion()
	if !ok {
		// Neither special, latest/empty, nor semantical: grammar guarantees
		// this cannot happen, but fail closed rather than panic.
		return ref.Complete{}, false
	}
	scope := inputV.Scope()
	return highestSemantical(candidates, func(cv version.Version) bool {
		return agreesUpToScope(inputV, cv, scope)
	})
}

func findLiteralLatest(candidates []CatalogEntry) (ref.Complete, bool) {
	for _, c := range candidates {
		if ref.IsLatest(c.Ref.Version()) {
			return c.Ref, true
		}
	}
	return ref.Complete{}, false
}

// highestSemantical returns the candidate with the highest semantical
// version under PolicyNewest inference, among those passing filter (nil
// means no filter). Special-versioned candidates and the literal "latest"
// (already handled by the caller) are excluded.
func highestSemantical(candidates []CatalogEntry, filter func(version.Version) bool) (ref.Complete, bool) {
	var best *ref.Complete
	var bestKey version.Version
	for i := range candidates {
		c := candidates[i]
		if ref.IsSpecial(c.Ref.Version()) || ref.IsLatest(c.Ref.Version()) {
			continue
		}
		cv, ok := c.Ref.SemanticalVersion()
		if !ok {
			continue
		}
		if filter != nil && !filter(cv) {
			continue
		}
		key := cv.WithPolicy(version.PolicyNewest)
		if best == nil || version.Compare(key, bestKey) > 0 {
			r := c.Ref
			best = &r
			bestKey = key
		}
	}
	if best == nil {
		return ref.Complete{}, false
	}
	return *best, true
}

// agreesUpToScope reports whether candidate agrees with input in every
// component up to and including scope, per spec.md §4.G's tie-break note:
// "2.3" binds to the highest candidate whose first two components are 2 and
// 3 (a 2.3.0 entry qualifies but loses to any higher 2.3.x), while "2.3.0"
// does not match a bare "2.3". Zero-filling alone isn't enough to enforce
// the second half: it would also make an
// input's explicit trailing zero (2.3.0, scope=2) agree with a candidate
// that never specified a Build component at all (a bare 2.3). The
// candidate must actually specify a value at every position up to scope,
// not just compare equal to one after zero-fill.
func agreesUpToScope(input, candidate version.Version, scope int) bool {
	if candidate.Scope() < scope {
		return false
	}
	ic := input.WithPolicy(version.PolicyZero).Components()
	cc := candidate.WithPolicy(version.PolicyZero).Components()
	for i := 0; i <= scope; i++ {
		if ic[i] != cc[i] {
			return false
		}
	}
	return true
}
