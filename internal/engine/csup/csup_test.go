package csup

import (
	"testing"

	"github.com/uppm-dev/uppm/internal/engine"
	"github.com/uppm-dev/uppm/internal/ref"
	"github.com/uppm-dev/uppm/internal/version"
)

func TestNewExtractsHeaderBracketedByCommentBlock(t *testing.T) {
	e := New(&engine.NullRuntime{})
	if e.Extension() != "csup" {
		t.Fatalf("extension = %q", e.Extension())
	}
	if !e.AllowSystemAssociation() {
		t.Fatal("expected csup to allow system association")
	}

	text := `/* uppm 1.0 {"name":"demo","version":"1.0"} */` + "\nputs 1\n"
	self := ref.NewComplete("demo", "1.0", "")
	m, _, ok := e.TryGetMeta(text, self, version.Version{Major: 1})
	if !ok {
		t.Fatal("expected header to parse")
	}
	if m.Name != "demo" {
		t.Fatalf("Name = %q", m.Name)
	}
}
