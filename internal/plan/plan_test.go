package plan

import (
	"bytes"
	"testing"

	"github.com/uppm-dev/uppm/internal/meta"
	"github.com/uppm-dev/uppm/internal/pkg"
)

func buildTree(t *testing.T) *pkg.Package {
	t.Helper()
	rootMeta := &meta.Package{Name: "root", Version: "1.0", Repository: "https://example.com/repo.git"}
	rootMeta.RebuildSelf()
	root := pkg.NewRoot(rootMeta, nil, pkg.Local)

	depMeta := &meta.Package{Name: "dep", Version: "2.0", Repository: "https://example.com/repo.git"}
	depMeta.RebuildSelf()
	root.FlatDependencies["dep"] = pkg.NewChild(depMeta, nil, pkg.Local, root, root.Depth)

	return root
}

func TestBuildEmitParseRoundTrip(t *testing.T) {
	root := buildTree(t)
	p := Build(root, Decisions{"dep": "UpdateWithInput"})

	if p.Root.Name != "root" || p.Root.Depth != 0 {
		t.Fatalf("unexpected root entry: %+v", p.Root)
	}
	if len(p.Dependencies) != 1 || p.Dependencies[0].Name != "dep" || p.Dependencies[0].Decision != "UpdateWithInput" {
		t.Fatalf("unexpected dependencies: %+v", p.Dependencies)
	}

	var buf bytes.Buffer
	if err := NewEmitter(&buf).Emit(p); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	parsed, err := NewParser(&buf).Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed.Root.Reference != p.Root.Reference {
		t.Fatalf("round trip mismatch: got %+v, want %+v", parsed.Root, p.Root)
	}
	if len(parsed.Dependencies) != 1 || parsed.Dependencies[0].Decision != "UpdateWithInput" {
		t.Fatalf("round trip lost dependency: %+v", parsed.Dependencies)
	}
}

func TestBuildWithoutDecisions(t *testing.T) {
	root := buildTree(t)
	p := Build(root, nil)
	if p.Dependencies[0].Decision != "" {
		t.Fatalf("expected no decision without a Decisions map, got %q", p.Dependencies[0].Decision)
	}
}
