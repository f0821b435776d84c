package version

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
		want    string
	}{
		{"1", false, "1"},
		{"1.2", false, "1.2"},
		{"1.2.3", false, "1.2.3"},
		{"1.2.3.4", false, "1.2.3.4"},
		{"1.2.3.4.5", true, ""},
		{"abc", true, ""},
		{"", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := Parse(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) = %v, want error", tt.in, v)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.in, err)
			}
			if got := v.String(); got != tt.want {
				t.Errorf("Parse(%q).String() = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	for _, in := range []string{"1", "1.2", "1.2.3", "1.2.3.4"} {
		v, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		v2, err := Parse(v.String())
		if err != nil {
			t.Fatalf("Parse(%q): %v", v.String(), err)
		}
		if !Equal(v, v2) {
			t.Errorf("round trip mismatch: %v != %v", v, v2)
		}
	}
}

func TestScope(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"1", 0},
		{"1.2", 1},
		{"1.2.3", 2},
		{"1.2.3.4", 3},
	}
	for _, tt := range tests {
		v, err := Parse(tt.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.in, err)
		}
		if got := v.Scope(); got != tt.want {
			t.Errorf("Parse(%q).Scope() = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestCompareZeroPolicy(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0", "1.0", 0},
		{"1.0", "2.0", -1},
		{"2.0", "1.0", 1},
		{"1.10", "1.9", 1},
		{"1.2.3", "1.2.3", 0},
		{"1.2.3", "1.2.4", -1},
		{"1", "1.0", 0},
		{"1.0", "1", 0},
		{"2.3.7", "2.3.12", -1},
	}
	for _, tt := range tests {
		a, err := Parse(tt.a)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.a, err)
		}
		b, err := Parse(tt.b)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.b, err)
		}
		if got := Compare(a.WithPolicy(PolicyZero), b.WithPolicy(PolicyZero)); got != tt.want {
			t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCompareTrichotomy(t *testing.T) {
	versions := []string{"1", "1.0", "1.2", "1.2.3", "2.0.0.0", "0.9.9.9"}
	for _, sa := range versions {
		for _, sb := range versions {
			a, _ := Parse(sa)
			b, _ := Parse(sb)
			lt := Compare(a, b) < 0
			eq := Compare(a, b) == 0
			gt := Compare(a, b) > 0
			count := 0
			for _, v := range []bool{lt, eq, gt} {
				if v {
					count++
				}
			}
			if count != 1 {
				t.Errorf("Compare(%q, %q) trichotomy violated", sa, sb)
			}
		}
	}
}

func TestNewestPolicyScopeMatch(t *testing.T) {
	// "2.3" under Newest should sort above both a fully specified 2.3.0 and
	// 2.3.99, matching the resolver's "search for highest 2.3.*.*" use.
	partial, _ := Parse("2.3")
	partial = partial.WithPolicy(PolicyNewest)
	low, _ := Parse("2.3.0")
	high, _ := Parse("2.3.99")
	if Compare(partial, low.WithPolicy(PolicyZero)) <= 0 {
		t.Errorf("expected Newest(2.3) > Zero(2.3.0)")
	}
	if Compare(partial, high.WithPolicy(PolicyZero)) <= 0 {
		t.Errorf("expected Newest(2.3) > Zero(2.3.99)")
	}
}

func TestIsInsideRange(t *testing.T) {
	tests := []struct {
		v      string
		expr   string
		inside bool
	}{
		{"1.5", "[1.0,2.0)", true},
		{"2.0", "[1.0,2.0)", false},
		{"2.0", "[1.0,2.0]", true},
		{"1.0", "(1.0,2.0]", false},
		{"1.0", "[1.0,2.0]", true},
		{"3.0", "[,2.0)", false},
		{"1.0", "[,2.0)", true},
		{"3.0", "[2.0,)", true},
	}
	for _, tt := range tests {
		v, err := Parse(tt.v)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.v, err)
		}
		got, err := v.IsInsideRange(tt.expr)
		if err != nil {
			t.Fatalf("IsInsideRange(%q): %v", tt.expr, err)
		}
		if got != tt.inside {
			t.Errorf("%q.IsInsideRange(%q) = %v, want %v", tt.v, tt.expr, got, tt.inside)
		}
	}
}

func TestRequirementCompatible(t *testing.T) {
	core, _ := Parse("2.5.0")
	min, _ := Parse("2.0.0")
	req := NewRequirement(min, core)
	if !req.Compatible {
		t.Errorf("expected 2.0.0 <= core 2.5.0 to be compatible")
	}

	tooNew, _ := Parse("3.0.0")
	req2 := NewRequirement(tooNew, core)
	if req2.Compatible {
		t.Errorf("expected 3.0.0 > core 2.5.0 to be incompatible")
	}
}
