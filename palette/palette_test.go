package palette

import (
	"context"
	"testing"
)

func TestParseHex(t *testing.T) {
	cases := []struct {
		in   string
		want RGB
		ok   bool
	}{
		{"#FF0000", RGB{255, 0, 0}, true},
		{"ff7f27", RGB{255, 127, 39}, true},
		{"#0eB968", RGB{14, 185, 104}, true},
		{"#fff", RGB{}, false},
		{"#ff000000", RGB{}, false},
		{"red", RGB{}, false},
		{"", RGB{}, false},
	}
	for _, c := range cases {
		got, ok := ParseHex(c.in)
		if ok != c.ok || got != c.want {
			t.Errorf("ParseHex(%q): got %v/%v, want %v/%v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestParseColor_CSS(t *testing.T) {
	cases := []struct {
		in   string
		want RGB
		ok   bool
	}{
		{"rgb(237, 28, 36)", RGB{237, 28, 36}, true},
		{"rgba(0, 0, 0, 0.5)", RGB{0, 0, 0}, true},
		{"#4093e4", RGB{64, 147, 228}, true},
		{"rgb(12, 34)", RGB{}, false},
		{"rgb(300, 0, 0)", RGB{}, false},
		{"none", RGB{}, false},
	}
	for _, c := range cases {
		got, ok := ParseColor(c.in)
		if ok != c.ok || got != c.want {
			t.Errorf("ParseColor(%q): got %v/%v, want %v/%v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestRGBHex(t *testing.T) {
	if got := (RGB{R: 1, G: 171, B: 255}).Hex(); got != "#01abff" {
		t.Fatalf("Hex: got %q, want %q", got, "#01abff")
	}
}

func TestTransparent(t *testing.T) {
	for _, s := range []string{"rgba(0, 0, 0, 0)", "transparent", ""} {
		if !Transparent(s) {
			t.Errorf("Transparent(%q): got false", s)
		}
	}
	if Transparent("rgb(0, 0, 0)") {
		t.Error("Transparent(black): got true")
	}
}

func TestClosest_ExactMatch(t *testing.T) {
	entries := []Entry{
		{Color: "rgb(0, 0, 0)"},
		{Color: "rgb(255, 0, 0)"},
		{Color: "rgb(255, 255, 255)"},
	}
	m, ok := Closest("#FF0000", entries)
	if !ok {
		t.Fatal("Closest: no match")
	}
	if m.Index != 1 || m.Distance != 0 {
		t.Fatalf("Closest: got index %d distance %v, want 1 / 0", m.Index, m.Distance)
	}
}

func TestClosest_EmptyPalette(t *testing.T) {
	if _, ok := Closest("#FF0000", nil); ok {
		t.Fatal("Closest(empty): expected no match")
	}
}

func TestClosest_MalformedTargetFallsBackToFirst(t *testing.T) {
	entries := FromHex([]string{"#123456", "#ff0000"})
	m, ok := Closest("not-a-colour", entries)
	if !ok {
		t.Fatal("Closest: no match")
	}
	if m.Index != 0 || m.Distance != -1 {
		t.Fatalf("Closest: got index %d distance %v, want 0 / -1", m.Index, m.Distance)
	}
}

func TestClosest_SkipsUnparseable(t *testing.T) {
	entries := []Entry{
		{Color: "var(--accent)"},
		{Color: "rgb(250, 0, 0)"},
		{Color: "rgb(0, 0, 250)"},
	}
	m, _ := Closest("#ff0000", entries)
	if m.Index != 1 {
		t.Fatalf("Closest: got index %d, want 1", m.Index)
	}
}

func TestClosest_TieFirstWins(t *testing.T) {
	// All three sit at distance 10 from the target.
	entries := FromHex([]string{"#140a0a", "#0a140a", "#0a0a14"})
	m, _ := Closest("#0a0a0a", entries)
	if m.Index != 0 {
		t.Fatalf("Closest tie: got index %d, want 0", m.Index)
	}
}

func TestClosest_NearestByRGB(t *testing.T) {
	entries := FromHex(WplaceFree)
	m, _ := Closest("#fe0101", entries)
	if m.Entry.Color != "#ed1c24" {
		t.Fatalf("Closest: got %s, want #ed1c24", m.Entry.Color)
	}
}

func TestMatcher_Lab(t *testing.T) {
	lab := Matcher{Metric: MetricLab}
	entries := FromHex([]string{"#000000", "#ffffff"})
	m, _ := lab.Closest("#eeeeee", entries)
	if m.Index != 1 {
		t.Fatalf("Lab: got index %d, want 1", m.Index)
	}
	if m.Distance <= 0 {
		t.Fatalf("Lab: distance %v, want > 0", m.Distance)
	}
}

func TestParseMetric(t *testing.T) {
	if m, err := ParseMetric(""); err != nil || m != MetricRGB {
		t.Fatalf("ParseMetric(\"\"): %v %v", m, err)
	}
	if m, err := ParseMetric("lab"); err != nil || m != MetricLab {
		t.Fatalf("ParseMetric(lab): %v %v", m, err)
	}
	if _, err := ParseMetric("hsv"); err == nil {
		t.Fatal("ParseMetric(hsv): expected error")
	}
}

type countingSwatch struct{ n int }

func (s *countingSwatch) Click(context.Context) error { s.n++; return nil }

func TestClosest_CarriesSwatch(t *testing.T) {
	sw := &countingSwatch{}
	entries := []Entry{{Color: "#ffffff"}, {Color: "#000000", Swatch: sw}}
	m, _ := Closest("#010101", entries)
	if err := m.Entry.Swatch.Click(context.Background()); err != nil {
		t.Fatal(err)
	}
	if sw.n != 1 {
		t.Fatalf("swatch clicks: got %d, want 1", sw.n)
	}
}
