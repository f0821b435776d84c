package targetapp

import (
	"context"
	"testing"

	"github.com/uppm-dev/uppm/internal/engine"
	"github.com/uppm-dev/uppm/internal/pkg"
	"github.com/uppm-dev/uppm/internal/ref"
	"github.com/uppm-dev/uppm/internal/repo"
)

type stubLookup struct {
	found InstalledPackage
	ok    bool
}

func (s stubLookup) TryGet(p ref.Partial, scope pkg.Scope) (InstalledPackage, bool) {
	return s.found, s.ok
}
func (s stubLookup) Enumerate(scope pkg.Scope) []InstalledPackage {
	if !s.ok {
		return nil
	}
	return []InstalledPackage{s.found}
}

type fakeRepo struct{ url string }

func (f fakeRepo) URL() string                                     { return f.url }
func (f fakeRepo) ReferenceSyntacticallyValid() bool               { return true }
func (f fakeRepo) Exists(ctx context.Context) bool                 { return true }
func (f fakeRepo) Refresh(ctx context.Context) bool                { return true }
func (f fakeRepo) Ready() bool                                     { return true }
func (f fakeRepo) LastRefreshError() error                         { return nil }
func (f fakeRepo) Catalog() []repo.CatalogEntry                    { return nil }
func (f fakeRepo) TryGetPackageText(c ref.Complete) (string, bool) { return "", false }
func (f fakeRepo) TryGetScriptEngine(c ref.Complete, engines *engine.Registry) (*engine.Engine, bool) {
	return nil, false
}
func (f fakeRepo) TryInferReference(p ref.Partial) (ref.Complete, bool) { return ref.Complete{}, false }

func TestSetCurrentSwapsDefaultRepository(t *testing.T) {
	repos := repo.NewRegistry(engine.NewRegistry())
	registry := NewRegistry(repos)

	a := &TargetApp{ShortName: "a", DefaultRepository: fakeRepo{url: "a://repo"}}
	b := &TargetApp{ShortName: "b", DefaultRepository: fakeRepo{url: "b://repo"}}
	registry.Register(a)
	registry.Register(b)

	if err := registry.SetCurrent("a"); err != nil {
		t.Fatalf("SetCurrent(a): %v", err)
	}
	found := false
	for _, r := range repos.Defaults() {
		if r.URL() == "a://repo" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a's default repository to be registered")
	}

	if err := registry.SetCurrent("b"); err != nil {
		t.Fatalf("SetCurrent(b): %v", err)
	}
	for _, r := range repos.Defaults() {
		if r.URL() == "a://repo" {
			t.Fatalf("expected a's default repository to be removed after switching current")
		}
	}
}

func TestSetCurrentUnknownApp(t *testing.T) {
	registry := NewRegistry(nil)
	if err := registry.SetCurrent("nope"); err == nil {
		t.Fatalf("expected UnknownTargetApp error")
	}
}

func TestTryGetInstalledPackage(t *testing.T) {
	want := InstalledPackage{Ref: ref.NewComplete("p", "1.0", "repo"), Scope: pkg.Global}
	app := &TargetApp{ShortName: "a", Installed: stubLookup{found: want, ok: true}}
	p, err := ref.ParsePartial("p")
	if err != nil {
		t.Fatalf("ParsePartial: %v", err)
	}
	got, ok := app.TryGetInstalledPackage(p, pkg.Global)
	if !ok || got != want {
		t.Fatalf("got %v ok=%v, want %v", got, ok, want)
	}
}

func TestEnumerateInstalledPackagesRejectsCombinedScope(t *testing.T) {
	app := &TargetApp{ShortName: "a", Installed: stubLookup{ok: true}}
	if _, err := app.EnumerateInstalledPackages(pkg.Global | pkg.Local); err == nil {
		t.Fatalf("expected an error for a combined Global|Local scope")
	}
}
