package geo

import (
	"container/heap"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownLocation is returned for names that were never registered.
	ErrUnknownLocation = errors.New("unknown location")
	// ErrLocationExists is returned when a location name is registered twice.
	ErrLocationExists = errors.New("location already exists")
	// ErrInvalidEdge is returned when an edge cannot be added to the graph.
	ErrInvalidEdge = errors.New("invalid edge")
	// ErrUnreachable is returned when no path connects two locations.
	ErrUnreachable = errors.New("destination unreachable")
	// ErrInvalidPath signals a path that does not follow graph edges.
	ErrInvalidPath = errors.New("invalid path")
)

// Key is the canonical form of a location name. Only Normalize produces keys.
type Key string

// Normalize converts a user supplied location name into its canonical key.
func Normalize(name string) Key {
	return Key(strings.ToUpper(strings.TrimSpace(name)))
}

func (k Key) String() string { return string(k) }

// Location is a graph node.
type Location struct {
	Key Key
	// Distance is the informational distance from origin given at registration.
	// Routing only uses edge weights.
	Distance int
}

// Edge is one direction of an undirected weighted connection.
type Edge struct {
	To     Key
	Weight int
}

// Graph stores locations and symmetric weighted edges.
type Graph struct {
	order []Key
	nodes map[Key]Location
	adj   map[Key][]Edge
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[Key]Location),
		adj:   make(map[Key][]Edge),
	}
}

// AddLocation registers a location under its canonical key.
func (g *Graph) AddLocation(name string, distance int) (Key, error) {
	key := Normalize(name)
	if key == "" {
		return "", fmt.Errorf("%w: empty name", ErrUnknownLocation)
	}
	if _, ok := g.nodes[key]; ok {
		return "", fmt.Errorf("%w: %s", ErrLocationExists, key)
	}
	g.nodes[key] = Location{Key: key, Distance: distance}
	g.adj[key] = nil
	g.order = append(g.order, key)
	return key, nil
}

// Connect adds an edge between a and b in both directions.
func (g *Graph) Connect(a, b string, weight int) error {
	ka, kb := Normalize(a), Normalize(b)
	if weight <= 0 {
		return fmt.Errorf("%w: weight %d must be positive", ErrInvalidEdge, weight)
	}
	if !g.Has(ka) {
		return fmt.Errorf("%w: %s: %v", ErrInvalidEdge, ka, ErrUnknownLocation)
	}
	if !g.Has(kb) {
		return fmt.Errorf("%w: %s: %v", ErrInvalidEdge, kb, ErrUnknownLocation)
	}
	if ka == kb {
		return fmt.Errorf("%w: self loop on %s", ErrInvalidEdge, ka)
	}
	if _, ok := g.weight(ka, kb); ok {
		return fmt.Errorf("%w: %s-%s already connected", ErrInvalidEdge, ka, kb)
	}
	g.adj[ka] = append(g.adj[ka], Edge{To: kb, Weight: weight})
	g.adj[kb] = append(g.adj[kb], Edge{To: ka, Weight: weight})
	return nil
}

// Has reports whether key is a registered location.
func (g *Graph) Has(key Key) bool {
	_, ok := g.nodes[key]
	return ok
}

// Location looks up a location by (non-canonical) name.
func (g *Graph) Location(name string) (Location, error) {
	loc, ok := g.nodes[Normalize(name)]
	if !ok {
		return Location{}, fmt.Errorf("%w: %s", ErrUnknownLocation, Normalize(name))
	}
	return loc, nil
}

// Locations returns all keys in registration order.
func (g *Graph) Locations() []Key {
	out := make([]Key, len(g.order))
	copy(out, g.order)
	return out
}

// Neighbors returns the edges leaving key in insertion order.
func (g *Graph) Neighbors(key Key) []Edge {
	edges := g.adj[key]
	out := make([]Edge, len(edges))
	copy(out, edges)
	return out
}

func (g *Graph) weight(from, to Key) (int, bool) {
	for _, e := range g.adj[from] {
		if e.To == to {
			return e.Weight, true
		}
	}
	return 0, false
}

// ShortestPath returns the cheapest path from src to dst, both inclusive.
//
// Among paths of equal cost the first one discovered wins: the frontier is
// ordered by (distance, push sequence), neighbours are relaxed in edge
// insertion order and predecessors only change on a strictly shorter distance.
func (g *Graph) ShortestPath(src, dst string) ([]Key, error) {
	from, to := Normalize(src), Normalize(dst)
	if !g.Has(from) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLocation, from)
	}
	if !g.Has(to) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLocation, to)
	}
	if from == to {
		return []Key{from}, nil
	}

	const inf = int(^uint(0) >> 1)
	dist := make(map[Key]int, len(g.nodes))
	for k := range g.nodes {
		dist[k] = inf
	}
	prev := make(map[Key]Key, len(g.nodes))
	done := make(map[Key]bool, len(g.nodes))

	dist[from] = 0
	pq := &frontier{}
	seq := 0
	heap.Push(pq, &frontierItem{key: from, dist: 0, seq: seq})

	for pq.Len() > 0 {
		item := heap.Pop(pq).(*frontierItem)
		u := item.key
		if done[u] || item.dist > dist[u] {
			continue
		}
		done[u] = true
		if u == to {
			break
		}
		for _, e := range g.adj[u] {
			if done[e.To] {
				continue
			}
			alt := dist[u] + e.Weight
			if alt < dist[e.To] {
				dist[e.To] = alt
				prev[e.To] = u
				seq++
				heap.Push(pq, &frontierItem{key: e.To, dist: alt, seq: seq})
			}
		}
	}

	if dist[to] == inf {
		return nil, fmt.Errorf("%w: %s -> %s", ErrUnreachable, from, to)
	}
	path := []Key{to}
	for at := to; at != from; {
		at = prev[at]
		path = append(path, at)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// PathDistance sums edge weights along path.
func (g *Graph) PathDistance(path []Key) (int, error) {
	if len(path) == 0 {
		return 0, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if !g.Has(path[0]) {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidPath, path[0], ErrUnknownLocation)
	}
	total := 0
	for i := 1; i < len(path); i++ {
		w, ok := g.weight(path[i-1], path[i])
		if !ok {
			return 0, fmt.Errorf("%w: no edge %s-%s", ErrInvalidPath, path[i-1], path[i])
		}
		total += w
	}
	return total, nil
}

type frontierItem struct {
	key  Key
	dist int
	seq  int
}

// frontier is a min-heap on (dist, seq).
type frontier []*frontierItem

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool {
	if f[i].dist != f[j].dist {
		return f[i].dist < f[j].dist
	}
	return f[i].seq < f[j].seq
}

func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }

func (f *frontier) Push(x any) { *f = append(*f, x.(*frontierItem)) }

func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*f = old[:n-1]
	return item
}
