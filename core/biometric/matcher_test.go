package biometric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEuclideanDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b Embedding
		want float64
	}{
		{name: "zero distance to self", a: Embedding{0.1, 0.2, 0.3}, b: Embedding{0.1, 0.2, 0.3}, want: 0},
		{name: "unit apart", a: Embedding{0, 0}, b: Embedding{0, 1}, want: 1},
		{name: "3-4-5", a: Embedding{0, 0}, b: Embedding{3, 4}, want: 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EuclideanDistance(tt.a, tt.b); got != tt.want {
				t.Errorf("EuclideanDistance() = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestScanMatcher(t *testing.T) {
	enrolled := []Enrollment{
		{UserID: "a", Template: Embedding{0.1, 0.2, 0.3}},
		{UserID: "b", Template: Embedding{0.9, 0.8, 0.7}},
	}

	tests := []struct {
		name      string
		probe     Embedding
		enrolled  []Enrollment
		threshold float64
		wantID    string
		wantOK    bool
	}{
		{name: "empty enrolled set", probe: Embedding{1, 2, 3}, enrolled: nil, threshold: 0.6},
		{name: "self match", probe: Embedding{0.1, 0.2, 0.3}, enrolled: enrolled, threshold: 0.6, wantID: "a", wantOK: true},
		{name: "near probe matches a", probe: Embedding{0.11, 0.19, 0.29}, enrolled: enrolled, threshold: 0.6, wantID: "a", wantOK: true},
		{name: "far probe matches nobody", probe: Embedding{5, 5, 5}, enrolled: enrolled, threshold: 0.6},
		{
			name:  "dimension mismatch is a skip",
			probe: Embedding{0.1, 0.2}, // 2-d probe vs 3-d templates
			enrolled: append([]Enrollment{
				{UserID: "short", Template: Embedding{0.1, 0.2}},
			}, enrolled...),
			threshold: 0.6,
			wantID:    "short",
			wantOK:    true,
		},
		{
			name:      "first match wins over closer later match",
			probe:     Embedding{0.5, 0.5},
			enrolled:  []Enrollment{{UserID: "first", Template: Embedding{0.6, 0.5}}, {UserID: "closer", Template: Embedding{0.5, 0.5}}},
			threshold: 0.6,
			wantID:    "first",
			wantOK:    true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, ok := ScanMatcher{}.Match(tt.probe, tt.enrolled, tt.threshold)
			if ok != tt.wantOK {
				t.Fatalf("Match() ok = %v; want %v", ok, tt.wantOK)
			}
			if match.UserID != tt.wantID {
				t.Errorf("Match() userID = %q; want %q", match.UserID, tt.wantID)
			}
		})
	}
}

func TestScanMatcher_thresholdIsStrict(t *testing.T) {
	// probe and template exactly 0.6 apart must reject; a hair under must accept
	probe := Embedding{0, 0}
	enrolled := []Enrollment{{UserID: "u", Template: Embedding{0.6, 0}}}

	if _, ok := (ScanMatcher{}).Match(probe, enrolled, 0.6); ok {
		t.Error("distance == threshold must not match")
	}

	under := []Enrollment{{UserID: "u", Template: Embedding{0.6 - 1e-9, 0}}}
	match, ok := ScanMatcher{}.Match(probe, under, 0.6)
	if !ok {
		t.Fatal("distance just under threshold must match")
	}
	assert.InDelta(t, 0.6, match.Distance, 1e-6)
}

func TestScanMatcher_selfMatchDistanceIsZero(t *testing.T) {
	tmpl := Embedding{0.25, -0.5, 0.75, 1.25}
	match, ok := ScanMatcher{}.Match(tmpl, []Enrollment{{UserID: "u", Template: tmpl}}, 0.6)
	if !ok {
		t.Fatal("template must match itself")
	}
	if match.Distance != 0 {
		t.Errorf("self-match distance = %v; want 0", match.Distance)
	}
}

func TestNearestMatcher(t *testing.T) {
	tests := []struct {
		name      string
		probe     Embedding
		enrolled  []Enrollment
		threshold float64
		wantID    string
		wantOK    bool
	}{
		{name: "empty enrolled set", probe: Embedding{1}, threshold: 1},
		{
			name:      "closest wins regardless of order",
			probe:     Embedding{0.5, 0.5},
			enrolled:  []Enrollment{{UserID: "first", Template: Embedding{0.6, 0.5}}, {UserID: "closer", Template: Embedding{0.5, 0.5}}},
			threshold: 0.6,
			wantID:    "closer",
			wantOK:    true,
		},
		{
			name:      "distance tie breaks on lowest user id",
			probe:     Embedding{0, 0},
			enrolled:  []Enrollment{{UserID: "zz", Template: Embedding{0.1, 0}}, {UserID: "aa", Template: Embedding{-0.1, 0}}},
			threshold: 0.6,
			wantID:    "aa",
			wantOK:    true,
		},
		{
			name:      "all candidates above threshold",
			probe:     Embedding{0, 0},
			enrolled:  []Enrollment{{UserID: "u", Template: Embedding{5, 5}}},
			threshold: 0.6,
		},
		{
			name:      "mismatched dimensions skipped",
			probe:     Embedding{0, 0, 0},
			enrolled:  []Enrollment{{UserID: "u", Template: Embedding{0, 0}}},
			threshold: math.MaxFloat64,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, ok := NearestMatcher{}.Match(tt.probe, tt.enrolled, tt.threshold)
			if ok != tt.wantOK {
				t.Fatalf("Match() ok = %v; want %v", ok, tt.wantOK)
			}
			if match.UserID != tt.wantID {
				t.Errorf("Match() userID = %q; want %q", match.UserID, tt.wantID)
			}
		})
	}
}

func TestIndexMatcher(t *testing.T) {
	m := NewIndexMatcher()

	enrolled := []Enrollment{
		{UserID: "a", Template: Embedding{0.1, 0.2, 0.3}},
		{UserID: "b", Template: Embedding{0.9, 0.8, 0.7}},
		{UserID: "half", Template: Embedding{0.5, 0.5}}, // different dimensionality
	}

	match, ok := m.Match(Embedding{0.11, 0.19, 0.29}, enrolled, 0.6)
	if !ok {
		t.Fatal("near probe must match")
	}
	if match.UserID != "a" {
		t.Errorf("Match() userID = %q; want %q", match.UserID, "a")
	}
	assert.InDelta(t, 0.017, match.Distance, 0.001)

	if _, ok := m.Match(Embedding{5, 5, 5}, enrolled, 0.6); ok {
		t.Error("far probe must not match")
	}

	// 2-d probe only consults the 2-d graph
	match, ok = m.Match(Embedding{0.5, 0.5}, enrolled, 0.6)
	if !ok || match.UserID != "half" {
		t.Errorf("2-d probe match = (%v, %v); want half", match.UserID, ok)
	}

	// index follows snapshot changes: re-enrolling "a" elsewhere must be seen
	enrolled[0].Template = Embedding{2, 2, 2}
	if _, ok := m.Match(Embedding{0.11, 0.19, 0.29}, enrolled, 0.6); ok {
		t.Error("stale index: old template matched after re-enrollment")
	}

	if _, ok := m.Match(Embedding{1, 2, 3}, nil, 0.6); ok {
		t.Error("empty enrolled set must not match")
	}
}
