package ref

import "testing"

func TestParsePartial(t *testing.T) {
	tests := []struct {
		in       string
		wantName string
		wantVer  string
		wantRepo string
		wantErr  bool
	}{
		{"foo", "foo", "", "", false},
		{"foo:1.2", "foo", "1.2", "", false},
		{"foo:1.2@myrepo", "foo", "1.2", "myrepo", false},
		{"foo@myrepo", "foo", "", "myrepo", false},
		{"My Package:latest@https://example.com/repo.git", "My Package", "latest", "https://example.com/repo.git", false},
		{"", "", "", "", true},
		{"foo/bar", "", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, err := ParsePartial(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParsePartial(%q) = %v, want error", tt.in, p)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePartial(%q) unexpected error: %v", tt.in, err)
			}
			if p.Name() != tt.wantName || p.Version() != tt.wantVer || p.RepositoryURL() != tt.wantRepo {
				t.Errorf("ParsePartial(%q) = (%q,%q,%q), want (%q,%q,%q)",
					tt.in, p.Name(), p.Version(), p.RepositoryURL(), tt.wantName, tt.wantVer, tt.wantRepo)
			}
		})
	}
}

func TestParseURI(t *testing.T) {
	p, err := ParseURI("uppm-ref:myapp/foo%3A1.2%40myrepo")
	if err != nil {
		t.Fatalf("ParseURI: %v", err)
	}
	if p.TargetApp() != "myapp" || p.Name() != "foo" || p.Version() != "1.2" || p.RepositoryURL() != "myrepo" {
		t.Errorf("ParseURI got %+v", p)
	}

	if _, err := ParseURI("uppm-ref:foo"); err == nil {
		t.Error("expected InvalidReference for missing target-app prefix")
	}
	if _, err := ParseURI("not-a-uppm-ref:foo"); err == nil {
		t.Error("expected InvalidReference for wrong scheme")
	}
}

func TestPrintParseRoundTrip(t *testing.T) {
	c := NewComplete("Foo Bar", "1.2.3", "https://example.com/repo.git")
	p2, err := ParsePartial(c.String())
	if err != nil {
		t.Fatalf("ParsePartial(%q): %v", c.String(), err)
	}
	if !p2.EqualPartial(c.AsPartial()) {
		t.Errorf("round trip mismatch: %+v != %+v", p2, c.AsPartial())
	}
}

func TestEqualCaseInsensitive(t *testing.T) {
	a, _ := ParsePartial("Foo:1.0@Repo")
	b, _ := ParsePartial("foo:1.0@repo")
	if !a.EqualPartial(b) {
		t.Errorf("expected case-insensitive equality")
	}
	if a.HashKey() != b.HashKey() {
		t.Errorf("expected consistent hash keys for equal refs")
	}
}

func TestMatches(t *testing.T) {
	a, _ := ParsePartial("foo:1.0")
	b, _ := ParsePartial("foo:1.0")
	if !a.Matches(b, nil) {
		t.Errorf("expected match")
	}

	c, _ := ParsePartial("foo:nightly")
	d, _ := ParsePartial("foo:nightly")
	if !c.Matches(d, nil) {
		t.Errorf("expected special-label string match")
	}

	e, _ := ParsePartial("foo:nightly")
	f, _ := ParsePartial("foo:1.0")
	if e.Matches(f, nil) {
		t.Errorf("special vs semantical must not match under default comparator")
	}

	g, _ := ParsePartial("foo@repoA")
	h, _ := ParsePartial("foo@repoB")
	if g.Matches(h, nil) {
		t.Errorf("differing repositories must not match")
	}
}

func TestVersionClassification(t *testing.T) {
	if !IsLatest("Latest") {
		t.Error("Latest should classify as latest, case-insensitively")
	}
	if !IsSemantical("latest") {
		t.Error("latest should classify as semantical")
	}
	if !IsSemantical("2.3.1") {
		t.Error("2.3.1 should classify as semantical")
	}
	if IsSpecial("2.3.1") {
		t.Error("2.3.1 should not classify as special")
	}
	if !IsSpecial("nightly") {
		t.Error("nightly should classify as special")
	}
	if IsSpecial("") {
		t.Error("empty string should not classify as special")
	}
}
