package systems

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Pairing constrains which candidates may be chosen as a partner.
type Pairing string

const (
	// PairCrossType requires typed agents to play an agent of another type.
	PairCrossType Pairing = "cross_type"
	// PairAny accepts every candidate.
	PairAny Pairing = "any"
)

// ParsePairing accepts "cross_type" or "any".
func ParsePairing(s string) (Pairing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cross_type", "":
		return PairCrossType, nil
	case "any":
		return PairAny, nil
	}
	return "", fmt.Errorf("unknown pairing %q", s)
}

// PartnerPicker samples one partner from a candidate set.
type PartnerPicker struct {
	Pairing     Pairing
	MaxAttempts int
}

// Pick returns the chosen slot, or ok=false when candidates is empty.
// Under PairCrossType a typed agent re-draws while the draw shares its type;
// after MaxAttempts draws the candidates are scanned in order, and if none
// qualifies the result is ErrNoEligiblePartner.
func (p PartnerPicker) Pick(g *Grid, i int, candidates []int, rng *rand.Rand) (j int, ok bool, err error) {
	if len(candidates) == 0 {
		return -1, false, nil
	}
	own := g.AgentAt(i).Type
	eligible := func(j int) bool {
		return p.Pairing == PairAny || own == "" || g.AgentAt(j).Type != own
	}

	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	for a := 0; a < attempts; a++ {
		j := candidates[rng.IntN(len(candidates))]
		if eligible(j) {
			return j, true, nil
		}
	}
	for _, j := range candidates {
		if eligible(j) {
			return j, true, nil
		}
	}
	return -1, false, fmt.Errorf("slot %d (type %q): %w among %d candidates", i, own, ErrNoEligiblePartner, len(candidates))
}
