package dynamics

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/pthm-cable/evogrid/components"
	"github.com/pthm-cable/evogrid/games"
)

var (
	coop   = games.NewStrategy("Cooperate", games.Always("C"))
	defect = games.NewStrategy("Defect", games.Always("D"))
	tft    = games.NewStrategy("TitForTat", games.TitForTat("C"))
)

func agent(s *games.Strategy, score int) *components.Agent {
	return &components.Agent{Strategy: s, Score: score}
}

func allDynamics(t *testing.T) []Dynamic {
	t.Helper()
	var out []Dynamic
	for _, k := range Kinds {
		d, err := New(k, Params{})
		if err != nil {
			t.Fatalf("New(%q): %v", k, err)
		}
		out = append(out, d)
	}
	return out
}

func TestEmptyPeersKeepStrategy(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	for _, d := range allDynamics(t) {
		t.Run(d.Name(), func(t *testing.T) {
			for _, score := range []int{-5, 0, 5} {
				a := agent(tft, score)
				if got := d.Next(a, nil, rng); got != tft {
					t.Errorf("score %d: got %s", score, got.Name())
				}
			}
		})
	}
}

func TestReplicator(t *testing.T) {
	tests := []struct {
		name  string
		self  int
		peers []*components.Agent
		want  *games.Strategy
	}{
		{"adopts strictly better", 2, []*components.Agent{agent(defect, 5), agent(tft, 3)}, defect},
		{"tie keeps", 5, []*components.Agent{agent(defect, 5)}, coop},
		{"worse keeps", 5, []*components.Agent{agent(defect, 1), agent(tft, 4)}, coop},
		{"global max not first", 0, []*components.Agent{agent(defect, 1), agent(tft, 9)}, tft},
		{"first of tied max", 0, []*components.Agent{agent(defect, 4), agent(tft, 4)}, defect},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Replicator{}.Next(agent(coop, tt.self), tt.peers, nil)
			if got != tt.want {
				t.Errorf("got %s, want %s", got.Name(), tt.want.Name())
			}
		})
	}
}

func TestReplicatorNeverAdoptsNoBetter(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	for trial := 0; trial < 500; trial++ {
		self := rng.IntN(20) - 10
		peers := make([]*components.Agent, 1+rng.IntN(8))
		for i := range peers {
			peers[i] = agent(defect, self-rng.IntN(10))
		}
		if got := (Replicator{}).Next(agent(coop, self), peers, rng); got != coop {
			t.Fatalf("trial %d adopted a peer that did not beat %d", trial, self)
		}
	}
}

func TestFermi(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))

	better := []*components.Agent{agent(defect, 10)}
	for i := 0; i < 50; i++ {
		if got := (Fermi{Beta: 0.1}).Next(agent(coop, 0), better, rng); got != defect {
			t.Fatal("fermi must adopt a strictly better peer")
		}
	}

	// Large beta makes adopting a much worse peer vanishingly unlikely.
	worse := []*components.Agent{agent(defect, 0)}
	for i := 0; i < 200; i++ {
		if got := (Fermi{Beta: 10}).Next(agent(coop, 10), worse, rng); got != coop {
			t.Fatal("steep fermi adopted a worse peer")
		}
	}

	// Equal scores adopt with probability exp(0) = 1.
	equal := []*components.Agent{agent(defect, 3)}
	if got := (Fermi{Beta: 0.1}).Next(agent(coop, 3), equal, rng); got != defect {
		t.Error("fermi should adopt on delta == 0")
	}

	// Adoption frequency tracks exp(beta*delta).
	const trials = 20000
	adopted := 0
	f := Fermi{Beta: 0.1}
	for i := 0; i < trials; i++ {
		if f.Next(agent(coop, 10), worse, rng) == defect {
			adopted++
		}
	}
	want := math.Exp(-1)
	if got := float64(adopted) / trials; math.Abs(got-want) > 0.02 {
		t.Errorf("adoption rate %.3f, want ~%.3f", got, want)
	}
}

func TestMoranUniformFallback(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 8))
	self := agent(coop, -2)
	peers := []*components.Agent{agent(defect, 0), agent(tft, -7)}

	const trials = 30000
	counts := map[string]int{}
	for i := 0; i < trials; i++ {
		counts[(Moran{}).Next(self, peers, rng).Name()]++
	}
	want := float64(trials) / 3
	for _, s := range []*games.Strategy{coop, defect, tft} {
		if got := float64(counts[s.Name()]); math.Abs(got-want)/want > 0.05 {
			t.Errorf("%s chosen %v times, want ~%v", s.Name(), got, want)
		}
	}
}

func TestMoranProportional(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 10))
	self := agent(coop, 1)
	peers := []*components.Agent{agent(defect, 3), agent(tft, -4)}

	const trials = 40000
	counts := map[string]int{}
	for i := 0; i < trials; i++ {
		counts[(Moran{}).Next(self, peers, rng).Name()]++
	}
	if counts["TitForTat"] != 0 {
		t.Errorf("negative score peer was chosen %d times", counts["TitForTat"])
	}
	if got := float64(counts["Defect"]) / trials; math.Abs(got-0.75) > 0.02 {
		t.Errorf("defect share %.3f, want ~0.75", got)
	}
}

func TestRandomCopy(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 12))
	peers := []*components.Agent{agent(defect, -100)}
	if got := (RandomCopy{}).Next(agent(coop, 100), peers, rng); got != defect {
		t.Error("random copy ignores fitness")
	}
}

func TestAspiration(t *testing.T) {
	rng := rand.New(rand.NewPCG(13, 14))
	peers := []*components.Agent{agent(defect, 2), agent(defect, 6)}

	if got := (Aspiration{}).Next(agent(coop, 3), peers, rng); got != defect {
		t.Error("below mean should switch")
	}
	if got := (Aspiration{}).Next(agent(coop, 4), peers, rng); got != coop {
		t.Error("at mean should keep")
	}
}

func TestUniformPopulationStaysUniform(t *testing.T) {
	rng := rand.New(rand.NewPCG(15, 16))
	for _, d := range allDynamics(t) {
		for i := 0; i < 100; i++ {
			peers := []*components.Agent{agent(tft, rng.IntN(10)), agent(tft, -rng.IntN(10))}
			if got := d.Next(agent(tft, rng.IntN(10)-5), peers, rng); got != tft {
				t.Fatalf("%s created %s", d.Name(), got.Name())
			}
		}
	}
}

func TestNewUnknown(t *testing.T) {
	if _, err := New("lamarck", Params{}); !errors.Is(err, ErrUnknownDynamic) {
		t.Errorf("expected ErrUnknownDynamic, got %v", err)
	}
	d, _ := New("fermi", Params{})
	if f := d.(Fermi); f.Beta != DefaultBeta {
		t.Errorf("default beta %v", f.Beta)
	}
}

func TestPeersFilter(t *testing.T) {
	female := &components.Agent{Type: games.Female}
	male := &components.Agent{Type: games.Male}
	candidates := []*components.Agent{female, male, male}

	tests := []struct {
		name  string
		agent *components.Agent
		f     PeerFilter
		want  int
	}{
		{"same type", female, SameType, 1},
		{"cross type", female, CrossType, 2},
		{"any", female, AnyType, 3},
		{"untyped keeps all", &components.Agent{}, SameType, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Peers(nil, tt.agent, candidates, tt.f); len(got) != tt.want {
				t.Errorf("got %d peers, want %d", len(got), tt.want)
			}
		})
	}
}
