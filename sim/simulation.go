// Package sim runs the synchronous, double-buffered generation step over a
// systems.Grid and the driver loop around it.
package sim

import (
	"errors"
	"fmt"
	"image/color"
	"math/rand/v2"
	"time"

	"github.com/pthm-cable/evogrid/components"
	"github.com/pthm-cable/evogrid/dynamics"
	"github.com/pthm-cable/evogrid/games"
	"github.com/pthm-cable/evogrid/systems"
	"github.com/pthm-cable/evogrid/telemetry"
)

// RNG stream selectors, one per step phase.
const (
	phaseNeighbors uint64 = iota
	phaseInteract
	phaseLearn
)

// StepStats summarizes one generation.
type StepStats struct {
	Iteration    int // iteration reached by the step
	Interactions int // slots that played a partner
	Unpaired     int // slots with no candidate partner
	Switches     int // slots whose strategy changed
	TotalPayoff  int

	Timings telemetry.PhaseTimings // wall time per phase of this step
}

// Simulation owns two grid buffers. Step reads the current grid, writes the
// next one and swaps them.
type Simulation struct {
	def   *games.Definition
	opts  Options
	seed  uint64
	types []games.TypeTag

	resolver *systems.Resolver
	picker   systems.PartnerPicker

	cur, next *systems.Grid
	iteration int
	history   []telemetry.PopulationRecord

	// Per-slot step state, reused across steps.
	candidates [][]int
	partners   []int
	outcomes   []systems.Outcome
	incoming   [][]int // initiators that picked each slot, ascending
	slotErrs   []error
	switched   []bool

	pool *workerPool
}

// New builds a simulation and populates its initial grid.
func New(def *games.Definition, opts Options) (*Simulation, error) {
	s, err := newSimulation(def, opts)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewPCG(s.seed, 0))
	grid, err := systems.Populate(def, opts.Size, opts.Distribution, s.types, rng)
	if err != nil {
		return nil, err
	}
	s.cur = grid
	s.history = append(s.history, s.census())
	return s, nil
}

// FromSnapshot rebuilds a simulation from a saved grid. The snapshot's size
// wins over opts.Size; its seed is used when opts.Seed is zero.
func FromSnapshot(def *games.Definition, opts Options, snap *telemetry.Snapshot) (*Simulation, error) {
	opts.Size = snap.Size
	if opts.Seed == 0 {
		opts.Seed = snap.Seed
	}
	s, err := newSimulation(def, opts)
	if err != nil {
		return nil, err
	}
	if len(snap.Cells) != snap.Size*snap.Size {
		return nil, fmt.Errorf("snapshot has %d cells for size %d", len(snap.Cells), snap.Size)
	}

	grid := systems.NewGrid(snap.Size)
	seen := make([]bool, grid.Len())
	for _, c := range snap.Cells {
		if !grid.Contains(c.Row, c.Col) {
			return nil, fmt.Errorf("snapshot cell (%d,%d) outside grid", c.Row, c.Col)
		}
		idx := grid.Index(c.Row, c.Col)
		if seen[idx] {
			return nil, fmt.Errorf("snapshot cell (%d,%d) listed twice", c.Row, c.Col)
		}
		seen[idx] = true
		strat, ok := def.Strategy(c.Strategy)
		if !ok {
			return nil, fmt.Errorf("snapshot strategy %q not in game %q", c.Strategy, def.Name)
		}
		*grid.At(c.Row, c.Col) = components.Agent{
			Strategy:  strat,
			Score:     c.Score,
			PrevScore: c.PrevScore,
			Type:      games.TypeTag(c.Type),
		}
	}
	s.cur = grid
	s.iteration = snap.Iteration
	s.history = append(s.history, s.census())
	return s, nil
}

func newSimulation(def *games.Definition, opts Options) (*Simulation, error) {
	if def == nil {
		return nil, errors.New("sim: nil game definition")
	}
	if opts.Size < 1 {
		return nil, fmt.Errorf("sim: grid size must be >= 1, got %d", opts.Size)
	}
	if opts.Dynamic == nil {
		opts.Dynamic = dynamics.Replicator{}
	}
	if opts.LearningPeers == "" {
		opts.LearningPeers = dynamics.SameType
	}
	if opts.InteractionMode == "" {
		opts.InteractionMode = systems.Symmetric
	}
	if opts.Pairing == "" {
		opts.Pairing = systems.PairCrossType
	}
	if opts.Topology == "" {
		opts.Topology = systems.Toroidal
	}

	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	n := opts.Size * opts.Size
	return &Simulation{
		def:        def,
		opts:       opts,
		seed:       seed,
		types:      opts.types(def),
		resolver:   systems.NewResolver(opts.Topology, opts.Radius, opts.MaxPartnerAttempts),
		picker:     systems.PartnerPicker{Pairing: opts.Pairing, MaxAttempts: opts.MaxPartnerAttempts},
		next:       systems.NewGrid(opts.Size),
		candidates: make([][]int, n),
		partners:   make([]int, n),
		outcomes:   make([]systems.Outcome, n),
		incoming:   make([][]int, n),
		slotErrs:   make([]error, n),
		switched:   make([]bool, n),
		pool:       newWorkerPool(opts.Workers),
	}, nil
}

// Step advances one generation. Every slot resolves its candidates and
// picks a partner, interactions are played on the current grid, and each
// slot's successor is written into the next grid before the buffers swap.
// If any slot cannot be paired the step fails and the grid is unchanged.
func (s *Simulation) Step() (StepStats, error) {
	n, cols := s.cur.Len(), s.cur.Size()

	var clock telemetry.PhaseClock
	clock.Enter(telemetry.PhaseNeighbors)
	s.pool.run(n, cols, s.resolveChunk)
	for _, err := range s.slotErrs {
		if err != nil {
			return StepStats{Iteration: s.iteration}, fmt.Errorf("step %d: %w", s.iteration+1, err)
		}
	}

	if s.opts.ResetScores {
		clock.Enter(telemetry.PhaseReset)
		s.cur.ResetScores()
	}

	clock.Enter(telemetry.PhaseInteract)
	s.pool.run(n, cols, s.decideChunk)
	if s.opts.InteractionMode == systems.Initiator {
		s.pool.run(n, cols, s.recordChunk)
	} else {
		for k := range s.incoming {
			s.incoming[k] = s.incoming[k][:0]
		}
		for i, j := range s.partners {
			if j >= 0 {
				s.incoming[j] = append(s.incoming[j], i)
			}
		}
		s.pool.run(n, cols, s.recordSymmetricChunk)
	}

	clock.Enter(telemetry.PhaseLearn)
	s.pool.run(n, cols, s.learnChunk)

	clock.Enter(telemetry.PhaseCommit)
	stats := StepStats{Iteration: s.iteration + 1}
	for i := 0; i < n; i++ {
		if s.partners[i] < 0 {
			stats.Unpaired++
		} else {
			stats.Interactions++
			stats.TotalPayoff += s.outcomes[i].Payoff(s.opts.InteractionMode)
		}
		if s.switched[i] {
			stats.Switches++
		}
	}
	s.cur, s.next = s.next, s.cur
	s.iteration++
	s.history = append(s.history, s.census())
	stats.Timings = clock.Stop()
	return stats, nil
}

func (s *Simulation) resolveChunk(start, end int, sc *workerScratch) {
	for i := start; i < end; i++ {
		s.partners[i] = -1
		sc.reseed(s.seed, s.iteration, i, phaseNeighbors)

		cands, err := s.resolver.Neighbors(s.candidates[i][:0], s.cur, i, sc.rng)
		s.candidates[i] = cands
		if err != nil {
			s.slotErrs[i] = err
			continue
		}
		j, ok, err := s.picker.Pick(s.cur, i, cands, sc.rng)
		s.slotErrs[i] = err
		if ok {
			s.partners[i] = j
		}
	}
}

// decideChunk evaluates every round against pre-step histories without
// touching either agent.
func (s *Simulation) decideChunk(start, end int, sc *workerScratch) {
	for i := start; i < end; i++ {
		j := s.partners[i]
		if j < 0 {
			continue
		}
		sc.reseed(s.seed, s.iteration, i, phaseInteract)
		s.outcomes[i] = systems.Play(s.cur.AgentAt(i), s.cur.AgentAt(j), s.def.Payoffs, sc.rng)
	}
}

// recordChunk credits each initiator with its own outcome only.
func (s *Simulation) recordChunk(start, end int, _ *workerScratch) {
	for i := start; i < end; i++ {
		if s.partners[i] < 0 {
			continue
		}
		s.outcomes[i].Record(s.cur.AgentAt(i), nil, systems.Initiator)
	}
}

// recordSymmetricChunk writes both sides of every round. Each slot records
// only into itself, taking its rounds in initiator order, so the result is
// the same for any worker count.
func (s *Simulation) recordSymmetricChunk(start, end int, _ *workerScratch) {
	for k := start; k < end; k++ {
		agent := s.cur.AgentAt(k)
		own := s.partners[k] >= 0
		for _, i := range s.incoming[k] {
			if own && k < i {
				s.outcomes[k].Record(agent, nil, systems.Initiator)
				own = false
			}
			s.outcomes[i].RecordPartner(agent)
		}
		if own {
			s.outcomes[k].Record(agent, nil, systems.Initiator)
		}
	}
}

func (s *Simulation) learnChunk(start, end int, sc *workerScratch) {
	for i := start; i < end; i++ {
		agent := s.cur.AgentAt(i)

		sc.agents = sc.agents[:0]
		for _, j := range s.candidates[i] {
			sc.agents = append(sc.agents, s.cur.AgentAt(j))
		}
		sc.peers = dynamics.Peers(sc.peers[:0], agent, sc.agents, s.opts.LearningPeers)

		sc.reseed(s.seed, s.iteration, i, phaseLearn)
		strat := s.opts.Dynamic.Next(agent, sc.peers, sc.rng)
		s.switched[i] = strat != agent.Strategy

		*s.next.AgentAt(i) = components.Agent{
			Strategy:  strat,
			Score:     agent.Score,
			PrevScore: agent.PrevScore,
			Type:      agent.Type,
		}
	}
}

func (s *Simulation) census() telemetry.PopulationRecord {
	return telemetry.PopulationRecord{Iteration: s.iteration, Counts: s.cur.Counts()}
}

// Grid returns the current grid. It is replaced by the next Step.
func (s *Simulation) Grid() *systems.Grid { return s.cur }

// Previous returns the grid the last Step read from, including the
// histories its interactions recorded. Valid until the next Step.
func (s *Simulation) Previous() *systems.Grid { return s.next }

// Iteration returns the number of completed steps.
func (s *Simulation) Iteration() int { return s.iteration }

// Seed returns the effective RNG seed.
func (s *Simulation) Seed() uint64 { return s.seed }

// Definition returns the game being played.
func (s *Simulation) Definition() *games.Definition { return s.def }

// Types returns the agent types slots are assigned from, nil when untyped.
func (s *Simulation) Types() []games.TypeTag { return s.types }

// Options returns the options the simulation was built with.
func (s *Simulation) Options() Options { return s.opts }

// Counts tabulates the current grid per strategy name.
func (s *Simulation) Counts() map[string]int {
	return s.cur.Counts()
}

// Colors maps every strategy of the game to its display color.
func (s *Simulation) Colors() map[string]color.RGBA {
	out := make(map[string]color.RGBA, len(s.def.Strategies))
	for _, name := range s.def.Names() {
		out[name] = s.def.Color(name)
	}
	return out
}

// History returns one census per completed iteration, starting with the
// initial population at iteration 0.
func (s *Simulation) History() []telemetry.PopulationRecord {
	return s.history
}

// Scores returns the current scores in row-major order.
func (s *Simulation) Scores() []float64 {
	scores := s.cur.Scores()
	out := make([]float64, len(scores))
	for i, v := range scores {
		out[i] = float64(v)
	}
	return out
}

// MeanScores returns the mean score per strategy on the current grid.
func (s *Simulation) MeanScores() map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	s.cur.Each(func(_ int, a *components.Agent) {
		name := a.StrategyName()
		sums[name] += float64(a.Score)
		counts[name]++
	})
	for name, c := range counts {
		sums[name] /= float64(c)
	}
	return sums
}

// Snapshot captures the current grid. event may be nil.
func (s *Simulation) Snapshot(event *telemetry.Event) *telemetry.Snapshot {
	snap := &telemetry.Snapshot{
		Version:   telemetry.SnapshotVersion,
		Seed:      s.seed,
		Game:      s.def.Name,
		Dynamic:   s.opts.Dynamic.Name(),
		Size:      s.cur.Size(),
		Iteration: s.iteration,
		Cells:     make([]telemetry.CellState, 0, s.cur.Len()),
		Event:     event,
	}
	s.cur.Each(func(i int, a *components.Agent) {
		pos := s.cur.PositionOf(i)
		snap.Cells = append(snap.Cells, telemetry.CellState{
			Row:        pos.Row,
			Col:        pos.Col,
			Strategy:   a.StrategyName(),
			Score:      a.Score,
			PrevScore:  a.PrevScore,
			Type:       string(a.Type),
			HistoryLen: len(a.History),
		})
	})
	return snap
}

// Close stops the worker pool.
func (s *Simulation) Close() {
	s.pool.stopWorkers()
}
