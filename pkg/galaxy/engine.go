package galaxy

import (
	"math/rand"
	"time"
)

// Rand is the randomness source consumed by the probabilistic subsystems
// (capture rolls, interception, combat variance, random events). *rand.Rand
// satisfies it; tests substitute fixed sequences.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Engine resolves turns against a single GameState. It is not safe for
// concurrent use; callers serialize ProcessTurn per game.
type Engine struct {
	state *GameState
	topo  Topology
	rng   Rand
	now   func() time.Time

	// colonizeCounts tracks per-faction colonize attempts within one turn
	// for quota enforcement.
	colonizeCounts map[string]int
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand injects the randomness source.
func WithRand(r Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithClock injects the wall clock used for truce-window checks.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithTopology overrides the default connection-set topology.
func WithTopology(t Topology) Option {
	return func(e *Engine) { e.topo = t }
}

// NewEngine binds an engine to a game state.
func NewEngine(gs *GameState, opts ...Option) *Engine {
	e := &Engine{
		state: gs,
		topo:  Links{},
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State exposes the bound game state for read access by callers.
func (e *Engine) State() *GameState {
	return e.state
}

// Topology exposes the graph view the engine resolves against.
func (e *Engine) Topology() Topology {
	return e.topo
}

// truceActive reports whether the opening protection window is still open.
func (e *Engine) truceActive() bool {
	return !e.state.TruceUntil.IsZero() && e.now().Before(e.state.TruceUntil)
}
