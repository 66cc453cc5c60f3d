package galaxy

import (
	"fmt"
	"sort"
	"strings"
)

// Edge is an undirected connection between two planets, stored canonically
// with the lexicographically smaller ID first so the same physical link
// always compares and hashes equal regardless of construction order.
type Edge struct {
	A string `json:"a"`
	B string `json:"b"`
}

// NewEdge returns the canonical edge for the two endpoints.
func NewEdge(a, b string) Edge {
	if b < a {
		a, b = b, a
	}
	return Edge{A: a, B: b}
}

// Has reports whether the edge touches the given planet.
func (e Edge) Has(planetID string) bool {
	return e.A == planetID || e.B == planetID
}

// Other returns the endpoint opposite planetID, or "" if not an endpoint.
func (e Edge) Other(planetID string) string {
	switch planetID {
	case e.A:
		return e.B
	case e.B:
		return e.A
	}
	return ""
}

func (e Edge) String() string {
	return e.A + "|" + e.B
}

// MarshalText lets Edge serve as a JSON map key.
func (e Edge) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText parses the "a|b" form produced by MarshalText.
func (e *Edge) UnmarshalText(text []byte) error {
	parts := strings.SplitN(string(text), "|", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("malformed edge key %q", text)
	}
	*e = NewEdge(parts[0], parts[1])
	return nil
}

// Topology answers adjacency and distance questions about the planet graph.
// The engine never builds galaxies itself; it only reads the shape.
type Topology interface {
	// ConnectedPlanets returns the neighbors of the given planet.
	ConnectedPlanets(gs *GameState, planetID string) []string
	// Distance returns the hop count between two planets, or -1 when
	// unreachable.
	Distance(gs *GameState, from, to string) int
}

// Links is the default Topology over the GameState connection set.
type Links struct{}

// ConnectedPlanets returns the sorted neighbors of planetID.
func (Links) ConnectedPlanets(gs *GameState, planetID string) []string {
	var out []string
	for _, e := range gs.Connections {
		if other := e.Other(planetID); other != "" {
			out = append(out, other)
		}
	}
	sort.Strings(out)
	return out
}

// Distance runs a BFS over the connection set.
func (l Links) Distance(gs *GameState, from, to string) int {
	if from == to {
		return 0
	}
	visited := map[string]bool{from: true}
	frontier := []string{from}
	for depth := 1; len(frontier) > 0; depth++ {
		var next []string
		for _, id := range frontier {
			for _, n := range l.ConnectedPlanets(gs, id) {
				if visited[n] {
					continue
				}
				if n == to {
					return depth
				}
				visited[n] = true
				next = append(next, n)
			}
		}
		frontier = next
	}
	return -1
}

// HasEdge reports whether the two planets are directly connected.
func (gs *GameState) HasEdge(a, b string) bool {
	want := NewEdge(a, b)
	for _, e := range gs.Connections {
		if e == want {
			return true
		}
	}
	return false
}
