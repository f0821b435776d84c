// Package version implements uppm's scope-aware Major.Minor.Build.Revision
// version model: parsing, comparison under an explicit missing-component
// inference policy, and range membership.
//
// Grounded on the teacher's internal/resolver normalizeVersion/compareVersions
// helpers (github.com/frederic-klein/yacm), generalized from Perl's two-part
// decimal/dotted scheme to the four-component scheme this spec requires and
// from a single implicit "missing means zero" rule to an explicit per-value
// Policy, per spec.md §9 ("missing-component inference is context-dependent").
package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/uppm-dev/uppm/internal/uerrors"
)

// Policy controls how an absent component is treated during comparison.
type Policy int

const (
	// PolicyZero treats an absent component as the lowest possible value.
	PolicyZero Policy = iota
	// PolicyNewest treats an absent component as the highest possible value,
	// so an under-specified version searches as "the newest matching".
	PolicyNewest
)

// maxComponent is the "treat absent as maximum" sentinel used under
// PolicyNewest. It equals math.MaxUint32, the largest value a parsed
// component can hold, so an explicit 4294967295 compares equal to an
// absent component under PolicyNewest.
const maxComponent int64 = 1<<32 - 1

var versionRe = regexp.MustCompile(`^(\d+)(?:\.(\d+))?(?:\.(\d+))?(?:\.(\d+))?$`)

// Version is a Major.Minor.Build.Revision version with each component past
// Major individually optional.
type Version struct {
	Major    uint32
	Minor    *uint32
	Build    *uint32
	Revision *uint32
	Policy   Policy
}

// Parse parses s as a Version. Only components actually present in s are
// recorded; Policy defaults to PolicyZero and can be changed with WithPolicy.
func Parse(s string) (Version, error) {
	m := versionRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Version{}, uerrors.Wrap(uerrors.InvalidVersion, "version.Parse", fmt.Errorf("%q does not match Major[.Minor[.Build[.Revision]]]", s))
	}
	major, err := strconv.ParseUint(m[1], 10, 32)
	if err != nil {
		return Version{}, uerrors.Wrap(uerrors.InvalidVersion, "version.Parse", err)
	}
	v := Version{Major: uint32(major)}
	if m[2] != "" {
		v.Minor = ptr(m[2])
	}
	if m[3] != "" {
		v.Build = ptr(m[3])
	}
	if m[4] != "" {
		v.Revision = ptr(m[4])
	}
	return v, nil
}

func ptr(s string) *uint32 {
	n, _ := strconv.ParseUint(s, 10, 32)
	u := uint32(n)
	return &u
}

// WithPolicy returns a copy of v carrying the given missing-component policy.
// The resolver uses this to ask "treat missing as Newest" while searching a
// catalog and "treat missing as Zero" while comparing against a full version,
// per spec.md §4.A.
func (v Version) WithPolicy(p Policy) Version {
	v.Policy = p
	return v
}

// Scope is the highest index (0=Major .. 3=Revision) that was explicitly
// specified.
func (v Version) Scope() int {
	switch {
	case v.Revision != nil:
		return 3
	case v.Build != nil:
		return 2
	case v.Minor != nil:
		return 1
	default:
		return 0
	}
}

// Components returns the four-component lexicographic key for v, applying
// v.Policy to any component left unspecified. Comparisons must always go
// through Components, never the raw optional fields, per the data-model
// invariant in spec.md §3.
func (v Version) Components() [4]int64 {
	fill := int64(0)
	if v.Policy == PolicyNewest {
		fill = maxComponent
	}
	c := [4]int64{int64(v.Major), fill, fill, fill}
	if v.Minor != nil {
		c[1] = int64(*v.Minor)
	}
	if v.Build != nil {
		c[2] = int64(*v.Build)
	}
	if v.Revision != nil {
		c[3] = int64(*v.Revision)
	}
	return c
}

// Compare applies each side's own inference policy, then compares
// lexicographically over [major, minor, build, revision]. Returns -1, 0, 1.
func Compare(a, b Version) int {
	ac, bc := a.Components(), b.Components()
	for i := 0; i < 4; i++ {
		switch {
		case ac[i] < bc[i]:
			return -1
		case ac[i] > bc[i]:
			return 1
		}
	}
	return 0
}

// Equal reports whether a and b compare equal under Compare.
func Equal(a, b Version) bool { return Compare(a, b) == 0 }

// String renders only the components that were explicitly specified.
func (v Version) String() string {
	s := strconv.FormatUint(uint64(v.Major), 10)
	if v.Minor == nil {
		return s
	}
	s += "." + strconv.FormatUint(uint64(*v.Minor), 10)
	if v.Build == nil {
		return s
	}
	s += "." + strconv.FormatUint(uint64(*v.Build), 10)
	if v.Revision == nil {
		return s
	}
	s += "." + strconv.FormatUint(uint64(*v.Revision), 10)
	return s
}

// Range is an inclusive/exclusive-flanked pair of version bounds, e.g.
// "[1.0,2.0)" (1.0 <= v < 2.0) or "(1.0,2.0]" (1.0 < v <= 2.0). Either bound
// may be omitted ("[,2.0)" means "anything below 2.0"). This bracket grammar
// resolves the Open Question in spec.md §9 on compatibleAppVersion's range
// format: bounds reuse Version's own parse grammar, flanked the way interval
// notation flanks mathematical ranges, since nothing in the retrieved pack
// specifies a different one.
type Range struct {
	Min          *Version
	Max          *Version
	MinInclusive bool
	MaxInclusive bool
}

var rangeRe = regexp.MustCompile(`^([\[(])\s*([^,]*)\s*,\s*([^\])]*)\s*([\])])$`)

// ParseRange parses expr into a Range.
func ParseRange(expr string) (Range, error) {
	m := rangeRe.FindStringSubmatch(strings.TrimSpace(expr))
	if m == nil {
		return Range{}, uerrors.New(uerrors.InvalidVersion, "version.ParseRange")
	}
	r := Range{
		MinInclusive: m[1] == "[",
		MaxInclusive: m[4] == "]",
	}
	if s := strings.TrimSpace(m[2]); s != "" {
		v, err := Parse(s)
		if err != nil {
			return Range{}, err
		}
		r.Min = &v
	}
	if s := strings.TrimSpace(m[3]); s != "" {
		v, err := Parse(s)
		if err != nil {
			return Range{}, err
		}
		r.Max = &v
	}
	return r, nil
}

// IsInsideRange reports whether v lies within the range described by expr.
func (v Version) IsInsideRange(expr string) (bool, error) {
	r, err := ParseRange(expr)
	if err != nil {
		return false, err
	}
	probe := v.WithPolicy(PolicyZero)
	if r.Min != nil {
		cmp := Compare(probe, r.Min.WithPolicy(PolicyZero))
		if cmp < 0 || (cmp == 0 && !r.MinInclusive) {
			return false, nil
		}
	}
	if r.Max != nil {
		cmp := Compare(probe, r.Max.WithPolicy(PolicyZero))
		if cmp > 0 || (cmp == 0 && !r.MaxInclusive) {
			return false, nil
		}
	}
	return true, nil
}

// Requirement pairs a minimum core version with whether it is satisfied by
// the running core, per spec.md §3.
type Requirement struct {
	MinVersion Version
	Compatible bool
}

// NewRequirement builds a Requirement, computing Compatible against core.
func NewRequirement(min, core Version) Requirement {
	return Requirement{
		MinVersion: min,
		Compatible: Compare(min.WithPolicy(PolicyZero), core.WithPolicy(PolicyZero)) <= 0,
	}
}
