// Package engine implements uppm's script engine registry (spec.md §4.D):
// the binding between a file extension and the machinery that reads
// metadata, materializes script text (resolving imports), and runs named
// actions.
//
// Grounded on the teacher's internal/extractor.Extractor, whose
// NewExtractor/NewDockerExtractor pair is the same "one capability, multiple
// concrete backends selected at construction time" shape this package
// generalizes into the Engine/Runtime split below.
package engine

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/uppm-dev/uppm/internal/meta"
	"github.com/uppm-dev/uppm/internal/metaextract"
	"github.com/uppm-dev/uppm/internal/ref"
	"github.com/uppm-dev/uppm/internal/uerrors"
	"github.com/uppm-dev/uppm/internal/version"
)

// MaxImportDepth bounds recursive #load resolution (spec.md §4.D).
const MaxImportDepth = 500

// HostContext is the filesystem/VCS helper object engines receive to run an
// action. Concrete implementation lives in internal/host, kept as an
// interface here to avoid a package cycle.
type HostContext interface {
	TempDir() string
	Log(format string, args ...interface{})
}

// Runtime is the concrete script-engine runtime (out of scope per spec.md
// §1: "concrete script-engine runtimes"). Engines that support only one
// action must report ActionUnsupported for any other.
type Runtime interface {
	SupportsAction(action string) bool
	Invoke(host HostContext, m meta.Package, action string) error
}

// NullRuntime records invocations without executing anything, standing in
// for the out-of-scope real runtime in tests and in target-app integrations
// that haven't wired one up yet.
type NullRuntime struct {
	Actions   []string
	Supported map[string]bool
}

// SupportsAction implements Runtime; with Supported nil, every action is
// reported as supported.
func (r *NullRuntime) SupportsAction(action string) bool {
	if r.Supported == nil {
		return true
	}
	return r.Supported[action]
}

// Invoke implements Runtime by recording the call.
func (r *NullRuntime) Invoke(host HostContext, m meta.Package, action string) error {
	r.Actions = append(r.Actions, action)
	return nil
}

// ImportLoader resolves a #load directive's reference into script text,
// looking it up through the repository registry. Implemented by the
// orchestration layer (internal/pkgload) to avoid engine depending on repo.
type ImportLoader interface {
	LoadImportText(p ref.Partial, parentRepository string) (text, extension string, err error)
}

// Engine binds one file extension to header delimiters, an import-directive
// pattern, and a Runtime.
type Engine struct {
	extension       string
	header          metaextract.Header
	importDirective *regexp.Regexp
	allowSysAssoc   bool
	runtime         Runtime
	decoder         metaextract.HjsonDecoder
}

// New constructs an Engine. importDirective must have exactly one capture
// group holding the raw `uppm-ref:...` URI.
func New(extension string, header metaextract.Header, importDirective *regexp.Regexp, allowSystemAssociation bool, runtime Runtime) *Engine {
	return &Engine{
		extension:       extension,
		header:          header,
		importDirective: importDirective,
		allowSysAssoc:   allowSystemAssociation,
		runtime:         runtime,
		decoder:         metaextract.DefaultHjsonDecoder{},
	}
}

// Extension returns the engine's registered file extension (no dot).
func (e *Engine) Extension() string { return e.extension }

// AllowSystemAssociation is advisory metadata for the OS-integration
// collaborator; the core never reads it.
func (e *Engine) AllowSystemAssociation() bool { return e.allowSysAssoc }

// TryGetMeta implements spec.md §4.D's try_get_meta.
func (e *Engine) TryGetMeta(text string, self ref.Complete, core version.Version) (*meta.Package, version.Requirement, bool) {
	m, err := metaextract.Extract(text, e.header, e.decoder, self, core)
	if err != nil {
		return nil, version.Requirement{}, false
	}
	return m, m.RequiredCoreVersion, true
}

// TryGetScriptText implements spec.md §4.D's try_get_script_text: it
// rewrites each #load directive to point at a temp file holding the
// recursively-materialized imported script, bounded by MaxImportDepth.
func (e *Engine) TryGetScriptText(text string, parentRepository, tempDir string, loader ImportLoader) (string, bool) {
	out, err := e.resolveImports(text, parentRepository, tempDir, loader, 0)
	if err != nil {
		return "", false
	}
	return out, true
}

func (e *Engine) resolveImports(text, parentRepository, tempDir string, loader ImportLoader, depth int) (string, error) {
	if e.importDirective == nil {
		return text, nil
	}
	if depth > MaxImportDepth {
		return "", uerrors.New(uerrors.ImportDepthExceeded, "engine.resolveImports")
	}

	var resolveErr error
	result := e.importDirective.ReplaceAllStringFunc(text, func(directive string) string {
		if resolveErr != nil {
			return directive
		}
		m := e.importDirective.FindStringSubmatch(directive)
		uri := m[1]
		p, err := ref.ParseURI(uri)
		if err != nil {
			// Bare partial reference form, not the full uppm-ref: URI.
			p, err = ref.ParsePartial(uri)
			if err != nil {
				resolveErr = err
				return directive
			}
		}

		importText, importExt, err := loader.LoadImportText(p, parentRepository)
		if err != nil {
			resolveErr = err
			return directive
		}

		nested, err := e.resolveImports(importText, parentRepository, tempDir, loader, depth+1)
		if err != nil {
			resolveErr = err
			return directive
		}

		path, err := writeImportFile(tempDir, e.extension, p, importExt, nested)
		if err != nil {
			resolveErr = err
			return directive
		}
		return strings.Replace(directive, uri, path, 1)
	})
	if resolveErr != nil {
		return "", resolveErr
	}
	return result, nil
}

func writeImportFile(tempDir, engineName string, p ref.Partial, extension, content string) (string, error) {
	dir := filepath.Join(tempDir, engineName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	slug := slugify(p.Name()) + "-" + slugify(p.Version())
	path := filepath.Join(dir, fmt.Sprintf("%s.%s", slug, extension))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

var slugRe = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func slugify(s string) string {
	if s == "" {
		s = "ref"
	}
	return slugRe.ReplaceAllString(url.QueryEscape(s), "-")
}

// RunAction implements spec.md §4.D's run_action.
func (e *Engine) RunAction(host HostContext, m meta.Package, action string) error {
	const op = "engine.RunAction"
	if !e.runtime.SupportsAction(action) {
		return uerrors.New(uerrors.ActionUnsupported, op)
	}
	if err := e.runtime.Invoke(host, m, action); err != nil {
		return uerrors.Wrap(uerrors.ActionFailed, op, err)
	}
	return nil
}

// Registry maps a file extension (no dot) to its Engine, populated at
// startup, per spec.md §4.D.
type Registry struct {
	engines map[string]*Engine
}

// NewRegistry creates an empty engine registry.
func NewRegistry() *Registry {
	return &Registry{engines: make(map[string]*Engine)}
}

// Register adds e under its own extension.
func (r *Registry) Register(e *Engine) {
	r.engines[strings.ToLower(e.extension)] = e
}

// Lookup returns the engine registered for extension, if any.
func (r *Registry) Lookup(extension string) (*Engine, bool) {
	e, ok := r.engines[strings.ToLower(strings.TrimPrefix(extension, "."))]
	return e, ok
}
