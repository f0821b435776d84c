package repo

import (
	"context"
	"testing"

	"github.com/uppm-dev/uppm/internal/engine"
	"github.com/uppm-dev/uppm/internal/ref"
)

type stubRepo struct {
	url     string
	exists  bool
	catalog []CatalogEntry
}

func (s *stubRepo) URL() string                       { return s.url }
func (s *stubRepo) ReferenceSyntacticallyValid() bool { return true }
func (s *stubRepo) Exists(ctx context.Context) bool   { return s.exists }
func (s *stubRepo) Refresh(ctx context.Context) bool  { return true }
func (s *stubRepo) Ready() bool                       { return true }
func (s *stubRepo) LastRefreshError() error           { return nil }
func (s *stubRepo) Catalog() []CatalogEntry           { return s.catalog }
func (s *stubRepo) TryGetPackageText(c ref.Complete) (string, bool) {
	for _, e := range s.catalog {
		if e.Ref.EqualComplete(c) {
			return "text", true
		}
	}
	return "", false
}
func (s *stubRepo) TryGetScriptEngine(c ref.Complete, engines *engine.Registry) (*engine.Engine, bool) {
	return nil, false
}
func (s *stubRepo) TryInferReference(p ref.Partial) (ref.Complete, bool) {
	return InferReference(s.catalog, s.url, p)
}

func TestRegistryGetOrCreateProbesFactories(t *testing.T) {
	reg := NewRegistry(nil)
	want := &stubRepo{url: "stub://repo", exists: true}
	reg.RegisterFactory(func(url string, engines *engine.Registry) (Repository, bool) {
		if url != want.url {
			return nil, false
		}
		return want, true
	})

	got, err := reg.GetOrCreate(context.Background(), want.url)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if got != Repository(want) {
		t.Fatalf("GetOrCreate returned a different repository instance")
	}

	// Second call must hit the present cache, not reprobe.
	got2, err := reg.GetOrCreate(context.Background(), want.url)
	if err != nil || got2 != got {
		t.Fatalf("expected cached lookup, got %v err=%v", got2, err)
	}
}

func TestRegistryGetOrCreateNotFound(t *testing.T) {
	reg := NewRegistry(nil)
	reg.RegisterFactory(func(url string, engines *engine.Registry) (Repository, bool) {
		return nil, false
	})
	if _, err := reg.GetOrCreate(context.Background(), "nowhere"); err == nil {
		t.Fatalf("expected an error when no factory recognizes the URL")
	}
}

func TestRegistryDefaultsFallback(t *testing.T) {
	reg := NewRegistry(nil)
	stub := &stubRepo{url: "stub://repo", exists: true, catalog: []CatalogEntry{
		{Ref: ref.NewComplete("p", "1.0", "stub://repo")},
	}}
	reg.AddDefault(stub.url, stub)

	c := ref.NewComplete("p", "1.0", "stub://repo")
	if _, ok := reg.TryGetPackageTextFromDefaults(c); !ok {
		t.Fatalf("expected default-repository fallback to find package text")
	}

	p, err := ref.ParsePartial("p")
	if err != nil {
		t.Fatalf("ParsePartial: %v", err)
	}
	if _, ok := reg.TryInferReferenceFromDefaults(p); !ok {
		t.Fatalf("expected default-repository fallback to infer a reference")
	}
}
