package geo

import (
	"errors"
	"reflect"
	"testing"
)

func newLineGraph(t *testing.T) *Graph {
	t.Helper()
	g := NewGraph()
	for _, name := range []string{"a", "B", " c "} {
		if _, err := g.AddLocation(name, 0); err != nil {
			t.Fatalf("AddLocation(%q): %v", name, err)
		}
	}
	if err := g.Connect("A", "b", 5); err != nil {
		t.Fatalf("Connect A-B: %v", err)
	}
	if err := g.Connect("b", "C", 5); err != nil {
		t.Fatalf("Connect B-C: %v", err)
	}
	return g
}

func TestNormalize(t *testing.T) {
	if got := Normalize("  midtown "); got != "MIDTOWN" {
		t.Fatalf("expected MIDTOWN got %q", got)
	}
}

func TestAddLocationDuplicate(t *testing.T) {
	g := NewGraph()
	if _, err := g.AddLocation("Depot", 3); err != nil {
		t.Fatalf("AddLocation: %v", err)
	}
	_, err := g.AddLocation("DEPOT", 7)
	if !errors.Is(err, ErrLocationExists) {
		t.Fatalf("expected ErrLocationExists got %v", err)
	}
	loc, err := g.Location("depot")
	if err != nil {
		t.Fatalf("Location: %v", err)
	}
	if loc.Distance != 3 {
		t.Fatalf("duplicate add replaced the location: distance %d", loc.Distance)
	}
	if _, err := g.AddLocation("   ", 0); !errors.Is(err, ErrUnknownLocation) {
		t.Fatalf("expected empty name to be rejected, got %v", err)
	}
}

func TestConnectRejectsInvalidEdges(t *testing.T) {
	g := newLineGraph(t)
	cases := []struct {
		name   string
		a, b   string
		weight int
	}{
		{"zero weight", "A", "C", 0},
		{"negative weight", "A", "C", -4},
		{"unknown endpoint", "A", "Z", 3},
		{"self loop", "A", "a", 3},
		{"duplicate pair", "B", "A", 9},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := g.Connect(tc.a, tc.b, tc.weight); !errors.Is(err, ErrInvalidEdge) {
				t.Fatalf("expected ErrInvalidEdge got %v", err)
			}
		})
	}
	if n := len(g.Neighbors("A")); n != 1 {
		t.Fatalf("rejected edges mutated the graph: A has %d edges", n)
	}
}

func TestConnectIsSymmetric(t *testing.T) {
	g := newLineGraph(t)
	for _, k := range g.Locations() {
		for _, e := range g.Neighbors(k) {
			w, ok := g.weight(e.To, k)
			if !ok || w != e.Weight {
				t.Fatalf("edge %s->%s (%d) has no mirror", k, e.To, e.Weight)
			}
		}
	}
}

func TestShortestPathLine(t *testing.T) {
	g := newLineGraph(t)
	path, err := g.ShortestPath("a", "c")
	if err != nil {
		t.Fatalf("ShortestPath: %v", err)
	}
	want := []Key{"A", "B", "C"}
	if !reflect.DeepEqual(path, want) {
		t.Fatalf("expected %v got %v", want, path)
	}
	d, err := g.PathDistance(path)
	if err != nil {
		t.Fatalf("PathDistance: %v", err)
	}
	if d != 10 {
		t.Fatalf("expected distance 10 got %d", d)
	}
}

func TestShortestPathSameNode(t *testing.T) {
	g := newLineGraph(t)
	for _, k := range g.Locations() {
		path, err := g.ShortestPath(string(k), string(k))
		if err != nil {
			t.Fatalf("ShortestPath(%s,%s): %v", k, k, err)
		}
		if len(path) != 1 || path[0] != k {
			t.Fatalf("expected [%s] got %v", k, path)
		}
		d, err := g.PathDistance(path)
		if err != nil || d != 0 {
			t.Fatalf("expected distance 0, got %d (%v)", d, err)
		}
	}
}

func TestShortestPathErrors(t *testing.T) {
	g := newLineGraph(t)
	if _, err := g.AddLocation("island", 0); err != nil {
		t.Fatal(err)
	}
	if _, err := g.ShortestPath("A", "ISLAND"); !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable got %v", err)
	}
	if _, err := g.ShortestPath("A", "nowhere"); !errors.Is(err, ErrUnknownLocation) {
		t.Fatalf("expected ErrUnknownLocation got %v", err)
	}
	if _, err := g.ShortestPath("nowhere", "A"); !errors.Is(err, ErrUnknownLocation) {
		t.Fatalf("expected ErrUnknownLocation got %v", err)
	}
}

func TestShortestPathNeverLongerThanDirectEdge(t *testing.T) {
	g := NewGraph()
	for _, n := range []string{"A", "B", "C", "D"} {
		if _, err := g.AddLocation(n, 0); err != nil {
			t.Fatal(err)
		}
	}
	edges := []struct {
		a, b string
		w    int
	}{
		{"A", "B", 1}, {"B", "C", 1}, {"A", "C", 5}, {"C", "D", 2}, {"A", "D", 10},
	}
	for _, e := range edges {
		if err := g.Connect(e.a, e.b, e.w); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range edges {
		path, err := g.ShortestPath(e.a, e.b)
		if err != nil {
			t.Fatalf("ShortestPath(%s,%s): %v", e.a, e.b, err)
		}
		d, err := g.PathDistance(path)
		if err != nil {
			t.Fatalf("PathDistance: %v", err)
		}
		if d > e.w {
			t.Fatalf("%s-%s: distance %d exceeds edge weight %d", e.a, e.b, d, e.w)
		}
	}
	path, _ := g.ShortestPath("A", "D")
	if want := []Key{"A", "B", "C", "D"}; !reflect.DeepEqual(path, want) {
		t.Fatalf("expected %v got %v", want, path)
	}
}

func TestShortestPathTieBreakIsStable(t *testing.T) {
	// Diamond: A-N-Z and A-S-Z both cost 4. N was connected first.
	build := func() *Graph {
		g := NewGraph()
		for _, n := range []string{"A", "N", "S", "Z"} {
			if _, err := g.AddLocation(n, 0); err != nil {
				t.Fatal(err)
			}
		}
		for _, e := range []struct {
			a, b string
			w    int
		}{{"A", "N", 2}, {"A", "S", 2}, {"N", "Z", 2}, {"S", "Z", 2}} {
			if err := g.Connect(e.a, e.b, e.w); err != nil {
				t.Fatal(err)
			}
		}
		return g
	}
	want := []Key{"A", "N", "Z"}
	for i := 0; i < 20; i++ {
		path, err := build().ShortestPath("A", "Z")
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(path, want) {
			t.Fatalf("run %d: expected %v got %v", i, want, path)
		}
	}
}

func TestPathDistanceInvalid(t *testing.T) {
	g := newLineGraph(t)
	cases := map[string][]Key{
		"empty":        nil,
		"not adjacent": {"A", "C"},
		"unknown node": {"A", "Q"},
		"unknown head": {"Q"},
	}
	for name, path := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := g.PathDistance(path); !errors.Is(err, ErrInvalidPath) {
				t.Fatalf("expected ErrInvalidPath got %v", err)
			}
		})
	}
}
