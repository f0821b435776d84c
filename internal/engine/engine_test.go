package engine

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/uppm-dev/uppm/internal/metaextract"
	"github.com/uppm-dev/uppm/internal/ref"
	"github.com/uppm-dev/uppm/internal/version"
)

type stubHost struct{ dir string }

func (s stubHost) TempDir() string                        { return s.dir }
func (s stubHost) Log(format string, args ...interface{}) {}

type stubLoader struct {
	texts map[string]string
}

func (l stubLoader) LoadImportText(p ref.Partial, parentRepository string) (string, string, error) {
	text, ok := l.texts[p.Name()]
	if !ok {
		return "", "", fmt.Errorf("no such import: %s", p.Name())
	}
	return text, "csup", nil
}

func core() version.Version {
	v, _ := version.Parse("2.0.0")
	return v
}

func csupHeader() metaextract.Header {
	return metaextract.Header{Open: "/*", Close: "*/"}
}

func importPattern() *regexp.Regexp {
	return regexp.MustCompile(`#load\s+"([^"]+)"`)
}

func TestTryGetMetaAndRunAction(t *testing.T) {
	rt := &NullRuntime{}
	e := New("csup", csupHeader(), nil, true, rt)

	text := `/* uppm 1.0 {"name":"demo","version":"1.0"} */`
	self := ref.NewComplete("demo", "1.0", "repo")
	m, req, ok := e.TryGetMeta(text, self, core())
	if !ok {
		t.Fatalf("TryGetMeta failed")
	}
	if !req.Compatible {
		t.Errorf("expected compatible requirement")
	}

	if err := e.RunAction(stubHost{}, *m, "install"); err != nil {
		t.Fatalf("RunAction: %v", err)
	}
	if len(rt.Actions) != 1 || rt.Actions[0] != "install" {
		t.Errorf("unexpected recorded actions: %v", rt.Actions)
	}
}

func TestRunActionUnsupported(t *testing.T) {
	rt := &NullRuntime{Supported: map[string]bool{"install": true}}
	e := New("csup", csupHeader(), nil, true, rt)

	text := `/* uppm 1.0 {"name":"demo","version":"1.0"} */`
	self := ref.NewComplete("demo", "1.0", "repo")
	m, _, ok := e.TryGetMeta(text, self, core())
	if !ok {
		t.Fatalf("TryGetMeta failed")
	}

	err := e.RunAction(stubHost{}, *m, "uninstall")
	if err == nil {
		t.Fatal("expected ActionUnsupported error")
	}
}

func TestTryGetScriptTextResolvesImports(t *testing.T) {
	e := New("csup", csupHeader(), importPattern(), true, &NullRuntime{})
	loader := stubLoader{texts: map[string]string{
		"dep": "// dep body",
	}}
	tmp := t.TempDir()
	text := `#load "uppm-ref:host/dep"` + "\nbody"
	out, ok := e.TryGetScriptText(text, "repo", tmp, loader)
	if !ok {
		t.Fatalf("TryGetScriptText failed")
	}
	if out == text {
		t.Errorf("expected directive rewritten to a temp path, got unchanged text")
	}
}

func TestTryGetScriptTextMissingImportFails(t *testing.T) {
	e := New("csup", csupHeader(), importPattern(), true, &NullRuntime{})
	loader := stubLoader{texts: map[string]string{}}
	tmp := t.TempDir()
	text := `#load "uppm-ref:host/missing"`
	if _, ok := e.TryGetScriptText(text, "repo", tmp, loader); ok {
		t.Fatalf("expected failure for missing import")
	}
}
