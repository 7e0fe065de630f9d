package systems

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/pthm-cable/evogrid/components"
	"github.com/pthm-cable/evogrid/games"
)

func testRNG() *rand.Rand {
	return rand.New(rand.NewPCG(42, 7))
}

func TestGridIndexing(t *testing.T) {
	g := NewGrid(4)
	if g.Len() != 16 {
		t.Fatalf("Len = %d, want 16", g.Len())
	}
	for i := 0; i < g.Len(); i++ {
		r, c := g.Coords(i)
		if g.Index(r, c) != i {
			t.Errorf("round trip %d -> (%d,%d) -> %d", i, r, c, g.Index(r, c))
		}
		if pos := g.PositionOf(i); pos.Row != r || pos.Col != c {
			t.Errorf("slot %d position %+v", i, pos)
		}
	}
	if r, c := g.Wrap(-1, 4); r != 3 || c != 0 {
		t.Errorf("Wrap(-1,4) = (%d,%d), want (3,0)", r, c)
	}
}

func TestGridCountsAndReset(t *testing.T) {
	coop := games.NewStrategy("Cooperate", games.Always("C"))
	defect := games.NewStrategy("Defect", games.Always("D"))

	g := NewGrid(3)
	g.Each(func(i int, a *components.Agent) {
		a.Strategy = coop
		if i == 4 {
			a.Strategy = defect
		}
		a.Score = i
	})

	counts := g.Counts()
	if counts["Cooperate"] != 8 || counts["Defect"] != 1 {
		t.Errorf("Counts = %v", counts)
	}
	if g.StrategyName(1, 1) != "Defect" || g.Score(2, 2) != 8 {
		t.Errorf("accessors: %s %d", g.StrategyName(1, 1), g.Score(2, 2))
	}

	g.ResetScores()
	if a := g.At(2, 2); a.Score != 0 || a.PrevScore != 8 {
		t.Errorf("after reset score=%d prev=%d", a.Score, a.PrevScore)
	}
}

func TestToroidalNeighborCount(t *testing.T) {
	tests := []struct {
		size, radius int
	}{
		{5, 1},
		{7, 2},
		{10, 3},
	}
	for _, tt := range tests {
		g := NewGrid(tt.size)
		r := NewResolver(Toroidal, float64(tt.radius), 0)
		want := (2*tt.radius+1)*(2*tt.radius+1) - 1
		for i := 0; i < g.Len(); i++ {
			got, err := r.Neighbors(nil, g, i, nil)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != want {
				t.Fatalf("size=%d R=%d slot %d: %d neighbors, want %d", tt.size, tt.radius, i, len(got), want)
			}
			for _, j := range got {
				if j == i {
					t.Fatalf("slot %d listed itself", i)
				}
			}
		}
	}
}

func TestToroidalNeighborSymmetry(t *testing.T) {
	g := NewGrid(6)
	r := NewResolver(Toroidal, 2, 0)

	sets := make([]map[int]bool, g.Len())
	for i := range sets {
		nb, _ := r.Neighbors(nil, g, i, nil)
		sets[i] = make(map[int]bool, len(nb))
		for _, j := range nb {
			sets[i][j] = true
		}
	}
	for i, set := range sets {
		for j := range set {
			if !sets[j][i] {
				t.Errorf("%d sees %d but not the reverse", i, j)
			}
		}
	}
}

func TestSmallTorusNeverIncludesSelf(t *testing.T) {
	g := NewGrid(2)
	r := NewResolver(Toroidal, 1, 0)
	for i := 0; i < g.Len(); i++ {
		nb, _ := r.Neighbors(nil, g, i, nil)
		if len(nb) == 0 {
			t.Fatalf("slot %d has no neighbors", i)
		}
		for _, j := range nb {
			if j == i {
				t.Fatalf("slot %d listed itself", i)
			}
		}
	}
}

func TestBoundedClipsEdges(t *testing.T) {
	g := NewGrid(5)
	r := NewResolver(Bounded, 1, 0)

	corner, _ := r.Neighbors(nil, g, g.Index(0, 0), nil)
	edge, _ := r.Neighbors(nil, g, g.Index(0, 2), nil)
	center, _ := r.Neighbors(nil, g, g.Index(2, 2), nil)

	if len(corner) != 3 || len(edge) != 5 || len(center) != 8 {
		t.Errorf("corner=%d edge=%d center=%d, want 3/5/8", len(corner), len(edge), len(center))
	}
}

func TestRandomPairing(t *testing.T) {
	rng := testRNG()
	g := NewGrid(4)
	r := NewResolver(Toroidal, 0, 50)

	for i := 0; i < g.Len(); i++ {
		nb, err := r.Neighbors(nil, g, i, rng)
		if err != nil {
			t.Fatal(err)
		}
		if len(nb) != 1 || nb[0] == i {
			t.Errorf("slot %d: untyped random pairing gave %v", i, nb)
		}
	}
}

func TestRandomPairingTyped(t *testing.T) {
	rng := testRNG()
	g := NewGrid(10)
	types := []games.TypeTag{games.Female, games.Male}
	g.Each(func(i int, a *components.Agent) {
		r, c := g.Coords(i)
		a.Type = TypeFor(r, c, types)
	})
	r := NewResolver(Toroidal, 0.5, 100)

	for round := 0; round < 20; round++ {
		for i := 0; i < g.Len(); i++ {
			nb, err := r.Neighbors(nil, g, i, rng)
			if err != nil {
				t.Fatal(err)
			}
			if len(nb) != 2 {
				t.Fatalf("slot %d: %d candidates, want 2", i, len(nb))
			}
			own := g.AgentAt(i).Type
			if nb[0] == i || nb[1] == i {
				t.Fatalf("slot %d listed itself", i)
			}
			if g.AgentAt(nb[0]).Type != own {
				t.Errorf("slot %d: first pick is not same type", i)
			}
			if g.AgentAt(nb[1]).Type == own {
				t.Errorf("slot %d: final pick shares type", i)
			}
		}
	}
}

func TestRandomPairingLoneType(t *testing.T) {
	g := NewGrid(3)
	g.Each(func(i int, a *components.Agent) {
		a.Type = games.Male
		if i == 0 {
			a.Type = games.Female
		}
	})
	r := NewResolver(Toroidal, 0, 20)

	if _, err := r.Neighbors(nil, g, 0, testRNG()); !errors.Is(err, ErrNoEligiblePartner) {
		t.Fatalf("expected ErrNoEligiblePartner for a lone type, got %v", err)
	}
}

func TestSmallTorusDropsSelfOffsets(t *testing.T) {
	g := NewGrid(2)
	r := NewResolver(Toroidal, 2, 0)
	nb, _ := r.Neighbors(nil, g, 0, nil)
	if full := (2*2+1)*(2*2+1) - 1; len(nb) >= full {
		t.Errorf("got %d candidates, want fewer than %d", len(nb), full)
	}
}

func TestRandomPairingUnsatisfiable(t *testing.T) {
	g := NewGrid(3)
	g.Each(func(_ int, a *components.Agent) { a.Type = games.Female })
	r := NewResolver(Toroidal, 0, 20)

	_, err := r.Neighbors(nil, g, 0, testRNG())
	if !errors.Is(err, ErrNoEligiblePartner) {
		t.Fatalf("expected ErrNoEligiblePartner, got %v", err)
	}
}

func TestPartnerPicker(t *testing.T) {
	g := NewGrid(3)
	g.Each(func(i int, a *components.Agent) {
		a.Type = games.Female
		if i == 5 {
			a.Type = games.Male
		}
	})
	rng := testRNG()

	p := PartnerPicker{Pairing: PairCrossType, MaxAttempts: 1}
	for k := 0; k < 20; k++ {
		j, ok, err := p.Pick(g, 0, []int{1, 2, 3, 5}, rng)
		if err != nil || !ok || j != 5 {
			t.Fatalf("Pick = %d, %v, %v; want 5", j, ok, err)
		}
	}

	if _, ok, err := p.Pick(g, 0, nil, rng); ok || err != nil {
		t.Errorf("empty candidates: ok=%v err=%v", ok, err)
	}
	if _, _, err := p.Pick(g, 0, []int{1, 2}, rng); !errors.Is(err, ErrNoEligiblePartner) {
		t.Errorf("expected ErrNoEligiblePartner, got %v", err)
	}

	loose := PartnerPicker{Pairing: PairAny}
	if _, ok, err := loose.Pick(g, 0, []int{1, 2}, rng); !ok || err != nil {
		t.Errorf("PairAny should accept same type: ok=%v err=%v", ok, err)
	}
}

func TestInteractDeterministic(t *testing.T) {
	table := games.Symmetric("C", "D", 3, 0, 5, 1)
	tests := []struct {
		name       string
		mode       InteractionMode
		wantA      int
		wantB      int
		wantBMoves int
	}{
		{"symmetric", Symmetric, 0, 5, 1},
		{"initiator", Initiator, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &components.Agent{Strategy: games.NewStrategy("Cooperate", games.Always("C"))}
			b := &components.Agent{Strategy: games.NewStrategy("Defect", games.Always("D"))}

			out := Interact(a, b, table, tt.mode, nil)

			if out.Own != "C" || out.Other != "D" || out.OwnPay != 0 || out.OtherPay != 5 {
				t.Errorf("outcome %+v", out)
			}
			if a.Score != tt.wantA || b.Score != tt.wantB {
				t.Errorf("scores a=%d b=%d", a.Score, b.Score)
			}
			if len(a.History) != 1 || len(b.History) != tt.wantBMoves {
				t.Errorf("histories a=%d b=%d", len(a.History), len(b.History))
			}
			if a.History[0] != (games.Move{Own: "C", Other: "D"}) {
				t.Errorf("a logged %v", a.History[0])
			}
			if tt.wantBMoves == 1 && b.History[0] != (games.Move{Own: "D", Other: "C"}) {
				t.Errorf("b logged %v", b.History[0])
			}
		})
	}
}

func TestInteractMissingPayoffIsNeutral(t *testing.T) {
	a := &components.Agent{Strategy: games.NewStrategy("X", games.Always("X"))}
	b := &components.Agent{Strategy: games.NewStrategy("Y", games.Always("Y"))}
	Interact(a, b, games.PayoffTable{}, Symmetric, nil)
	if a.Score != 0 || b.Score != 0 || len(a.History) != 1 || len(b.History) != 1 {
		t.Errorf("a=%+v b=%+v", a, b)
	}
}

func TestPopulateDistribution(t *testing.T) {
	def := games.PrisonersDilemma()
	const n = 10
	g, err := Populate(def, n, def.Distribution, nil, testRNG())
	if err != nil {
		t.Fatal(err)
	}

	counts := g.Counts()
	total := 0
	for _, c := range counts {
		total += c
	}
	if total != n*n {
		t.Fatalf("population %d, want %d", total, n*n)
	}
	slack := len(def.Strategies)
	for name, frac := range def.Distribution {
		floor := int(math.Floor(frac * n * n))
		if c := counts[name]; c < floor || c > floor+slack {
			t.Errorf("%s: %d agents, want in [%d,%d]", name, c, floor, floor+slack)
		}
	}
}

func TestPopulateLenientDistribution(t *testing.T) {
	def := games.PrisonersDilemma()
	over := map[string]float64{"Cooperate": 0.9, "Defect": 0.9}
	g, err := Populate(def, 5, over, nil, testRNG())
	if err != nil {
		t.Fatal(err)
	}
	if g.Len() != 25 {
		t.Fatalf("Len = %d", g.Len())
	}
	g.Each(func(i int, a *components.Agent) {
		if a.Strategy == nil {
			t.Errorf("slot %d empty", i)
		}
	})

	if _, err := Populate(def, 5, map[string]float64{"Nobody": 1}, nil, testRNG()); err == nil {
		t.Error("expected error for unknown strategy name")
	}
}

func TestPopulateTypes(t *testing.T) {
	def := games.BattleOfTheSexes()
	for _, dist := range []map[string]float64{nil, def.Distribution} {
		g, err := Populate(def, 6, dist, def.Types, testRNG())
		if err != nil {
			t.Fatal(err)
		}
		g.Each(func(i int, a *components.Agent) {
			r, c := g.Coords(i)
			if a.Type != TypeFor(r, c, def.Types) {
				t.Errorf("slot %d type %q", i, a.Type)
			}
			if !a.Strategy.CompatibleWith(a.Type) {
				t.Errorf("slot %d: %s on a %s slot", i, a.StrategyName(), a.Type)
			}
		})
	}
}
