package games

import (
	"errors"
	"image/color"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
)

func TestPayoffLookupNeutralDefault(t *testing.T) {
	table := PayoffTable{{"C", "D"}: {0, 5}}

	if got := table.Lookup("C", "D"); got != (Payoff{0, 5}) {
		t.Errorf("Lookup(C,D) = %v, want {0 5}", got)
	}
	if got := table.Lookup("D", "C"); got != (Payoff{}) {
		t.Errorf("missing entry = %v, want {0 0}", got)
	}
}

func TestSymmetricTable(t *testing.T) {
	table := Symmetric("C", "D", 3, 0, 5, 1)
	tests := []struct {
		own, other Action
		want       Payoff
	}{
		{"C", "C", Payoff{3, 3}},
		{"C", "D", Payoff{0, 5}},
		{"D", "C", Payoff{5, 0}},
		{"D", "D", Payoff{1, 1}},
	}
	for _, tt := range tests {
		if got := table.Lookup(tt.own, tt.other); got != tt.want {
			t.Errorf("Lookup(%s,%s) = %v, want %v", tt.own, tt.other, got, tt.want)
		}
	}
}

func TestBehaviors(t *testing.T) {
	actions := []Action{"C", "D"}
	defected := History{{Own: "C", Other: "C"}, {Own: "C", Other: "D"}}
	recovered := History{{Own: "C", Other: "D"}, {Own: "D", Other: "C"}}

	tests := []struct {
		name string
		spec string
		h    History
		want Action
	}{
		{"always", "always:D", nil, "D"},
		{"tft opens nice", "tit_for_tat", nil, "C"},
		{"tft mirrors", "tit_for_tat", defected, "D"},
		{"stft opens mean", "suspicious_tit_for_tat", nil, "D"},
		{"grim holds grudge", "grim", recovered, "D"},
		{"grim nice", "grim", History{{Own: "C", Other: "C"}}, "C"},
		{"cautious empty", "cautious", nil, "D"},
		{"cautious convinced", "cautious", History{{Other: "C"}, {Other: "C"}, {Other: "D"}}, "C"},
		{"majority tie", "majority", recovered, "C"},
		{"majority", "majority", History{{Other: "D"}, {Other: "D"}, {Other: "C"}}, "D"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decide, err := Behavior(tt.spec, actions)
			if err != nil {
				t.Fatalf("Behavior(%q): %v", tt.spec, err)
			}
			if got := decide(tt.h, NoType, nil); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBehaviorErrors(t *testing.T) {
	if _, err := Behavior("teleport", []Action{"C", "D"}); !errors.Is(err, ErrUnknownBehavior) {
		t.Errorf("expected ErrUnknownBehavior, got %v", err)
	}
	if _, err := Behavior("always:X", []Action{"C", "D"}); err == nil {
		t.Error("expected error for action outside alphabet")
	}
	if _, err := Behavior("grim", []Action{"C"}); err == nil {
		t.Error("expected error for grim with a single action")
	}
}

func TestUniformStaysInAlphabet(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	decide := Uniform([]Action{"H", "D"})
	seen := map[Action]int{}
	for i := 0; i < 200; i++ {
		seen[decide(nil, NoType, rng)]++
	}
	if len(seen) != 2 || seen["H"] == 0 || seen["D"] == 0 {
		t.Errorf("unexpected action spread %v", seen)
	}
}

func TestCatalog(t *testing.T) {
	for _, id := range []string{"pd", "sh", "hd", "rps", "bos"} {
		t.Run(id, func(t *testing.T) {
			d, err := Lookup(id)
			if err != nil {
				t.Fatalf("Lookup: %v", err)
			}
			if len(d.Strategies) == 0 || len(d.Actions) == 0 {
				t.Fatal("empty definition")
			}
			for _, name := range d.Names() {
				if _, ok := d.Colors[name]; !ok {
					t.Errorf("strategy %q has no color", name)
				}
			}
			if id != "bos" {
				if missing := d.MissingPayoffs(); len(missing) != 0 {
					t.Errorf("missing payoffs %v", missing)
				}
			}
		})
	}

	if _, err := Lookup("chess"); !errors.Is(err, ErrUnknownGame) {
		t.Errorf("expected ErrUnknownGame, got %v", err)
	}
}

func TestStrategiesForType(t *testing.T) {
	d := BattleOfTheSexes()
	if !d.TypesActive() {
		t.Fatal("battle of the sexes should declare types")
	}
	for _, s := range d.StrategiesFor(Female) {
		if s.Name() != "Coy" && s.Name() != "Fast" {
			t.Errorf("female strategy %q", s.Name())
		}
	}
	if n := len(d.StrategiesFor(NoType)); n != 4 {
		t.Errorf("untyped slot sees %d strategies, want 4", n)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{"#2ecc71", color.RGBA{0x2e, 0xcc, 0x71, 0xff}, false},
		{"e74c3c80", color.RGBA{0xe7, 0x4c, 0x3c, 0x80}, false},
		{"#abc", color.RGBA{}, true},
		{"#zzzzzz", color.RGBA{}, true},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseColor(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoadFile(t *testing.T) {
	const doc = `
name: Snowdrift
actions: [C, D]
payoffs:
  - {own: C, other: C, row: 3, col: 3}
  - {own: C, other: D, row: 1, col: 5}
  - {own: D, other: C, row: 5, col: 1}
  - {own: D, other: D, row: 0, col: 0}
strategies:
  - {name: Shovel, behavior: "always:C", color: "#00ff00", share: 0.6}
  - {name: Wait, behavior: "always:D", color: "#ff0000", share: 0.4}
  - {name: Mirror, behavior: tit_for_tat}
`
	path := filepath.Join(t.TempDir(), "snowdrift.yaml")
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	d, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if d.Name != "Snowdrift" || len(d.Strategies) != 3 {
		t.Fatalf("unexpected definition %+v", d)
	}
	if got := d.Payoffs.Lookup("C", "D"); got != (Payoff{1, 5}) {
		t.Errorf("payoff C,D = %v", got)
	}
	if d.Distribution["Shovel"] != 0.6 {
		t.Errorf("share = %v", d.Distribution["Shovel"])
	}
	if _, ok := d.Distribution["Mirror"]; ok {
		t.Error("zero share should be omitted from the distribution")
	}
	mirror, _ := d.Strategy("Mirror")
	if got := mirror.Act(History{{Own: "C", Other: "D"}}, NoType, nil); got != "D" {
		t.Errorf("mirror acted %s", got)
	}
}

func TestParseRejectsDuplicates(t *testing.T) {
	doc := []byte(`
actions: [A]
strategies:
  - {name: X, behavior: "always:A"}
  - {name: X, behavior: "always:A"}
`)
	if _, err := Parse(doc); err == nil {
		t.Error("expected duplicate strategy error")
	}
}
