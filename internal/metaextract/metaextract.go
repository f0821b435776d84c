// Package metaextract locates the uppm header comment embedded in a script
// and parses it into a meta.Package, per spec.md §4.C.
//
// Grounded on the teacher's internal/extractor.Extractor, which locates and
// parses META.json/META.yml payloads pulled out of a tarball; generalized
// here from "read a whole file by name" to "find a delimited comment inside
// arbitrary script text via regex", since uppm's metadata lives inline in
// the package script rather than in a sibling file.
package metaextract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/uppm-dev/uppm/internal/meta"
	"github.com/uppm-dev/uppm/internal/ref"
	"github.com/uppm-dev/uppm/internal/uerrors"
	"github.com/uppm-dev/uppm/internal/version"
)

// HjsonDecoder decodes an HJSON payload into a JSON-shaped map. uppm depends
// on HJSON parsing only through this interface: the concrete library is an
// out-of-scope external collaborator per spec.md §1.
type HjsonDecoder interface {
	Decode(payload []byte) (map[string]interface{}, error)
}

// Header holds the two comment delimiters an engine uses to bracket its
// metadata header (e.g. "/*"/"*/" for C#-like scripts, "<#"/"#>" for
// shell-like scripts).
type Header struct {
	Open  string
	Close string
}

func (h Header) regexp() *regexp.Regexp {
	pattern := fmt.Sprintf(`(?s)%s\s+uppm\s+(\S+)\s+(.*?)\s*%s`,
		regexp.QuoteMeta(h.Open), regexp.QuoteMeta(h.Close))
	return regexp.MustCompile(pattern)
}

// Extract locates the header comment in text, decodes its HJSON payload via
// decoder, and returns the resulting meta.Package plus the version
// requirement it declares. self identifies the reference this metadata was
// loaded for; RequiredCoreVersion and RawText are populated on the result as
// documented in spec.md §4.C's "side effect".
func Extract(text string, hdr Header, decoder HjsonDecoder, self ref.Complete, core version.Version) (*meta.Package, error) {
	const op = "metaextract.Extract"

	m := hdr.regexp().FindStringSubmatch(text)
	if m == nil {
		return nil, uerrors.New(uerrors.MalformedHeader, op)
	}
	minCoreStr, hjsonBlock := m[1], m[2]

	minCore, err := version.Parse(minCoreStr)
	if err != nil {
		return nil, uerrors.Wrap(uerrors.MalformedHeader, op, err)
	}
	req := version.NewRequirement(minCore, core)
	if !req.Compatible {
		return nil, uerrors.New(uerrors.CoreTooOld, op)
	}

	obj, err := decoder.Decode([]byte(hjsonBlock))
	if err != nil {
		return nil, uerrors.Wrap(uerrors.MalformedMetadata, op, err)
	}

	name, _ := obj["name"].(string)
	ver, _ := obj["version"].(string)
	if name == "" || ver == "" {
		return nil, uerrors.New(uerrors.MalformedMetadata, op)
	}

	p := &meta.Package{
		Name:                 name,
		Version:              ver,
		TargetApp:            stringField(obj, "targetApp"),
		CompatibleAppVersion: stringField(obj, "compatibleAppVersion"),
		RequiredCoreVersion:  req,
		Author:               stringField(obj, "author"),
		License:              stringField(obj, "license"),
		ProjectURL:           stringField(obj, "projectUrl"),
		Repository:           stringField(obj, "repository"),
		Description:          stringField(obj, "description"),
		ForceGlobal:          boolField(obj, "forceGlobal"),
		RawText:              m[0],
		MetadataObject:       obj,
	}
	p.Dependencies, err = refListField(obj, "dependencies")
	if err != nil {
		return nil, uerrors.Wrap(uerrors.MalformedMetadata, op, err)
	}
	p.Imports, err = refListField(obj, "imports")
	if err != nil {
		return nil, uerrors.Wrap(uerrors.MalformedMetadata, op, err)
	}
	if p.Repository == "" {
		p.Repository = self.RepositoryURL()
	}
	p.RebuildSelf()

	return p, nil
}

func stringField(obj map[string]interface{}, key string) string {
	s, _ := obj[key].(string)
	return s
}

func boolField(obj map[string]interface{}, key string) bool {
	b, _ := obj[key].(bool)
	return b
}

func refListField(obj map[string]interface{}, key string) ([]ref.Partial, error) {
	raw, ok := obj[key]
	if !ok {
		return nil, nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%q must be an array of reference strings", key)
	}
	out := make([]ref.Partial, 0, len(items))
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			return nil, fmt.Errorf("%q entries must be strings", key)
		}
		p, err := ref.ParsePartial(strings.TrimSpace(s))
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
