// Package plan implements the install-plan report, a supplement beyond
// the distilled spec (an install log/lockfile artifact) mirroring the
// teacher's internal/snapshot package: Emitter writes the resolver's
// flattened dependency set as an ordered YAML document; Parser reads one
// back for diffing.
//
// Generalized from the teacher's hand-rolled Carton emitter/parser to a
// structured gopkg.in/yaml.v3 document, the same library the teacher
// already uses for metadata, so a --plan-out plan is machine-parseable
// instead of a bespoke text format.
package plan

import (
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/uppm-dev/uppm/internal/pkg"
	"github.com/uppm-dev/uppm/internal/ref"
)

// Entry is one node of a resolved dependency tree: enough to show what
// was decided for a package and to re-derive install state from later.
type Entry struct {
	Name      string `yaml:"name"`
	Reference string `yaml:"reference"`
	Scope     string `yaml:"scope"`
	Depth     int    `yaml:"depth"`
	Decision  string `yaml:"decision,omitempty"`
}

// Plan is the root plus its flattened dependencies, in the shape
// Emitter.Emit writes and Parser.Parse reads back.
type Plan struct {
	Root         Entry   `yaml:"root"`
	Dependencies []Entry `yaml:"dependencies"`
}

// Decisions maps a dependency name (case-insensitive, matching
// pkg.NameKey) to the Phase-1 reconciliation outcome the resolver reached
// for it, for Build to annotate each entry with. A nil map just omits
// the field.
type Decisions map[string]string

// Build snapshots root and its already-flattened dependencies into a
// Plan. It does not run the resolver itself — call it after Resolve.
func Build(root *pkg.Package, decisions Decisions) *Plan {
	p := &Plan{Root: entryFor(root.Meta.Name, root.Meta.Self, root.Scope, root.Depth, decisions)}

	names := make([]string, 0, len(root.FlatDependencies))
	for name := range root.FlatDependencies {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		dep := root.FlatDependencies[name]
		p.Dependencies = append(p.Dependencies, entryFor(name, dep.Meta.Self, dep.Scope, dep.Depth, decisions))
	}
	return p
}

func entryFor(name string, self ref.Complete, scope pkg.Scope, depth int, decisions Decisions) Entry {
	e := Entry{Name: name, Reference: self.String(), Scope: scope.String(), Depth: depth}
	if decisions != nil {
		e.Decision = decisions[pkg.NameKey(name)]
	}
	return e
}

// Emitter writes a Plan as YAML.
type Emitter struct {
	w io.Writer
}

// NewEmitter creates a new plan emitter.
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{w: w}
}

// Emit writes p to the underlying writer.
func (e *Emitter) Emit(p *Plan) error {
	enc := yaml.NewEncoder(e.w)
	defer enc.Close()
	return enc.Encode(p)
}

// Parser reads a Plan back from YAML.
type Parser struct {
	r io.Reader
}

// NewParser creates a new plan parser.
func NewParser(r io.Reader) *Parser {
	return &Parser{r: r}
}

// Parse reads a Plan from the underlying reader.
func (p *Parser) Parse() (*Plan, error) {
	var out Plan
	dec := yaml.NewDecoder(p.r)
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
