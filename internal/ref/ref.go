// Package ref implements uppm's package reference model: the
// `name[:version][@repository]` text grammar, the `uppm-ref:` URI form, and
// the partial-vs-complete typing spec.md §3/§4.B require.
//
// Grounded on the teacher's internal/cpanfile regex-driven line parser
// (github.com/frederic-klein/yacm), generalized from cpanfile's
// `requires 'Module', 'version'` grammar to the name:version@repo grammar
// this spec defines.
package ref

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/package-url/packageurl-go"

	"github.com/uppm-dev/uppm/internal/uerrors"
	"github.com/uppm-dev/uppm/internal/version"
)

// fields is the shared shape behind Partial and Complete. Keeping it
// unexported and wrapping it in two named types means the compiler, not a
// runtime check, prevents a Partial from being passed where a Complete
// reference is required.
type fields struct {
	Name          string
	Version       *string
	RepositoryURL *string
	TargetApp     *string
}

// Partial is a user-supplied reference with some fields possibly absent.
type Partial struct{ f fields }

// Complete is a reference for which Version and RepositoryURL are known to
// resolve within RepositoryURL's catalog.
type Complete struct{ f fields }

// textGrammar matches `name ( : version )? ( @ repository )?`. Name/version
// may contain spaces but not ':' '@' or characters illegal in a filename.
var textGrammar = regexp.MustCompile(`^\s*([^:@]+?)\s*(?:\:\s*([^:@]+?)\s*)?(?:@\s*(.+?)\s*)?$`)

var illegalNameChars = regexp.MustCompile(`[/\\?%*:|"<>]`)

// ParsePartial parses the text form `name[:version][@repository]` into a
// Partial reference.
func ParsePartial(text string) (Partial, error) {
	m := textGrammar.FindStringSubmatch(text)
	if m == nil || strings.TrimSpace(m[1]) == "" {
		return Partial{}, uerrors.New(uerrors.InvalidReference, "ref.ParsePartial")
	}
	name := strings.TrimSpace(m[1])
	if illegalNameChars.MatchString(name) {
		return Partial{}, uerrors.New(uerrors.InvalidReference, "ref.ParsePartial")
	}
	p := Partial{f: fields{Name: name}}
	if m[2] != "" {
		v := strings.TrimSpace(m[2])
		p.f.Version = &v
	}
	if m[3] != "" {
		r := strings.TrimSpace(m[3])
		p.f.RepositoryURL = &r
	}
	return p, nil
}

// ParseURI parses the `uppm-ref:<target-app>/<text-form>` URI form, per
// spec.md §4.B/§6. The <target-app>/ prefix is mandatory.
func ParseURI(uri string) (Partial, error) {
	const scheme = "uppm-ref:"
	if !strings.HasPrefix(uri, scheme) {
		return Partial{}, uerrors.New(uerrors.InvalidReference, "ref.ParseURI")
	}
	decoded, err := url.QueryUnescape(strings.TrimPrefix(uri, scheme))
	if err != nil {
		return Partial{}, uerrors.Wrap(uerrors.InvalidReference, "ref.ParseURI", err)
	}
	idx := strings.Index(decoded, "/")
	if idx <= 0 {
		return Partial{}, uerrors.New(uerrors.InvalidReference, "ref.ParseURI")
	}
	targetApp := decoded[:idx]
	rest := decoded[idx+1:]
	p, err := ParsePartial(rest)
	if err != nil {
		return Partial{}, err
	}
	p.f.TargetApp = &targetApp
	return p, nil
}

// NewComplete builds a Complete reference directly, used by repository
// implementations once inference (§4.G) has resolved a partial reference,
// and by tests/installed-package reconciliation.
func NewComplete(name, ver, repositoryURL string) Complete {
	return Complete{f: fields{Name: name, Version: &ver, RepositoryURL: &repositoryURL}}
}

// Name returns the reference's package name.
func (p Partial) Name() string  { return p.f.Name }
func (c Complete) Name() string { return c.f.Name }

// Version returns the raw version string, or "" if unset.
func (p Partial) Version() string  { return derefOr(p.f.Version, "") }
func (c Complete) Version() string { return derefOr(c.f.Version, "") }

// RepositoryURL returns the raw repository URL, or "" if unset.
func (p Partial) RepositoryURL() string  { return derefOr(p.f.RepositoryURL, "") }
func (c Complete) RepositoryURL() string { return derefOr(c.f.RepositoryURL, "") }

// TargetApp returns the target application short name, or "" if unset.
func (p Partial) TargetApp() string  { return derefOr(p.f.TargetApp, "") }
func (c Complete) TargetApp() string { return derefOr(c.f.TargetApp, "") }

// AsPartial widens a Complete reference back to a Partial, e.g. to feed the
// inference algorithm again after Phase-1 reconciliation rewrites a
// dependency to an installed complete reference (spec.md §4.J).
func (c Complete) AsPartial() Partial { return Partial{f: c.f} }

func derefOr(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}

func eqFold(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return strings.EqualFold(*a, *b)
}

// EqualPartial reports case-insensitive equality of all three fields.
func (p Partial) EqualPartial(o Partial) bool {
	return strings.EqualFold(p.f.Name, o.f.Name) &&
		eqFold(p.f.Version, o.f.Version) &&
		eqFold(p.f.RepositoryURL, o.f.RepositoryURL)
}

// EqualComplete reports case-insensitive equality of all three fields.
func (c Complete) EqualComplete(o Complete) bool {
	return strings.EqualFold(c.f.Name, o.f.Name) &&
		eqFold(c.f.Version, o.f.Version) &&
		eqFold(c.f.RepositoryURL, o.f.RepositoryURL)
}

// HashKey is a case-insensitive key suitable for map lookups, consistent
// with EqualPartial/EqualComplete per spec.md §4.B ("hashing must be
// consistent with equality").
func (p Partial) HashKey() string {
	return strings.ToLower(p.f.Name) + "\x00" + strings.ToLower(p.Version()) + "\x00" + strings.ToLower(p.RepositoryURL())
}

// HashKey is a case-insensitive key suitable for map lookups.
func (c Complete) HashKey() string {
	return strings.ToLower(c.f.Name) + "\x00" + strings.ToLower(c.Version()) + "\x00" + strings.ToLower(c.RepositoryURL())
}

// VersionComparator compares two raw version strings for Matches. The
// default comparator implements spec.md §4.B's fallback rule.
type VersionComparator func(a, b string) bool

// DefaultVersionComparator implements: both semantical -> semantical
// equality; both non-semantical -> string equality; both empty -> match;
// otherwise mismatch.
func DefaultVersionComparator(a, b string) bool {
	aSem, aIsSem := classifyVersion(a)
	bSem, bIsSem := classifyVersion(b)
	switch {
	case a == "" && b == "":
		return true
	case aIsSem && bIsSem:
		return version.Equal(aSem, bSem)
	case !aIsSem && !bIsSem:
		return strings.EqualFold(a, b)
	default:
		return false
	}
}

// Matches implements spec.md §4.B: names equal case-insensitively,
// repositories both absent or both present and equal, versions equal under
// cmp (nil uses DefaultVersionComparator).
func (p Partial) Matches(o Partial, cmp VersionComparator) bool {
	if cmp == nil {
		cmp = DefaultVersionComparator
	}
	if !strings.EqualFold(p.f.Name, o.f.Name) {
		return false
	}
	if (p.f.RepositoryURL == nil) != (o.f.RepositoryURL == nil) {
		return false
	}
	if p.f.RepositoryURL != nil && !strings.EqualFold(*p.f.RepositoryURL, *o.f.RepositoryURL) {
		return false
	}
	return cmp(p.Version(), o.Version())
}

// String renders the text form.
func (p Partial) String() string  { return render(p.f) }
func (c Complete) String() string { return render(c.f) }

func render(f fields) string {
	s := f.Name
	if f.Version != nil {
		s += ":" + *f.Version
	}
	if f.RepositoryURL != nil {
		s += "@" + *f.RepositoryURL
	}
	return s
}

// PackageURL renders a `pkg:` purl string for logging/diagnostics,
// generalized from the plain text form using the ecosystem `purl` type
// (SPEC_FULL.md "DOMAIN STACK"). Repository, when present, becomes the
// `repository_url` qualifier the purl spec reserves for exactly this case.
func (c Complete) PackageURL() string {
	qualifiers := packageurl.Qualifiers{}
	if r := c.RepositoryURL(); r != "" {
		qualifiers = append(qualifiers, packageurl.Qualifier{Key: "repository_url", Value: r})
	}
	p := packageurl.NewPackageURL("generic", "", c.Name(), c.Version(), qualifiers, "")
	return p.ToString()
}

// IsLatest reports whether s is the case-insensitive literal "latest".
func IsLatest(s string) bool { return strings.EqualFold(s, "latest") }

// IsSpecial reports whether s is a non-empty, non-latest, non-semantical
// version label (e.g. "nightly").
func IsSpecial(s string) bool {
	if s == "" || IsLatest(s) {
		return false
	}
	_, err := version.Parse(s)
	return err != nil
}

// IsSemantical reports whether s parses as a Version, or is the literal
// "latest" (treated as semantical with Major = MaxUint32).
func IsSemantical(s string) bool {
	if IsLatest(s) {
		return true
	}
	_, err := version.Parse(s)
	return err == nil
}

// classifyVersion parses s as a semantical version, treating "latest" as
// Major = MaxUint32 per spec.md §3.
func classifyVersion(s string) (version.Version, bool) {
	if IsLatest(s) {
		return version.Version{Major: ^uint32(0)}, true
	}
	v, err := version.Parse(s)
	if err != nil {
		return version.Version{}, false
	}
	return v, true
}

// IsSpecial reports whether p's version classifies as special.
func (p Partial) IsSpecial() bool { return IsSpecial(p.Version()) }

// IsLatestOrEmpty reports whether p's version is empty or the literal "latest",
// which spec.md §4.G treats as the same "no version pinned" request.
func (p Partial) IsLatestOrEmpty() bool {
	v := p.Version()
	return v == "" || IsLatest(v)
}

// SemanticalVersion parses p's version as a semantical Version, treating
// "latest" as Major = MaxUint32. ok is false for special or empty versions.
func (p Partial) SemanticalVersion() (v version.Version, ok bool) {
	return classifyVersion(p.Version())
}

// SemanticalVersion parses c's version as a semantical Version.
func (c Complete) SemanticalVersion() (v version.Version, ok bool) {
	return classifyVersion(c.Version())
}
