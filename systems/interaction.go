package systems

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/pthm-cable/evogrid/components"
	"github.com/pthm-cable/evogrid/games"
)

// InteractionMode decides whose bookkeeping an interaction updates.
type InteractionMode string

const (
	// Symmetric credits and logs both agents.
	Symmetric InteractionMode = "symmetric"
	// Initiator credits and logs only the agent that started the call.
	Initiator InteractionMode = "initiator"
)

// ParseInteractionMode accepts "symmetric" or "initiator".
func ParseInteractionMode(s string) (InteractionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "symmetric", "":
		return Symmetric, nil
	case "initiator", "asymmetric":
		return Initiator, nil
	}
	return "", fmt.Errorf("unknown interaction mode %q", s)
}

// Outcome is the result of one interaction, seen from the initiator.
type Outcome struct {
	Own, Other       games.Action
	OwnPay, OtherPay int
}

// Play decides one round between a (the initiator) and b without touching
// either agent. Both actions are evaluated against the pre-round histories.
// Missing payoff entries score (0, 0).
func Play(a, b *components.Agent, table games.PayoffTable, rng *rand.Rand) Outcome {
	own := a.Act(rng)
	other := b.Act(rng)
	pay := table.Lookup(own, other)
	return Outcome{Own: own, Other: other, OwnPay: pay.Row, OtherPay: pay.Col}
}

// Record credits the outcome to a, and to b as well in Symmetric mode.
// b may be nil in Initiator mode.
func (o Outcome) Record(a, b *components.Agent, mode InteractionMode) {
	a.Record(games.Move{Own: o.Own, Other: o.Other}, o.OwnPay)
	if mode != Initiator && b != nil {
		o.RecordPartner(b)
	}
}

// RecordPartner credits the partner's side of the outcome to b.
func (o Outcome) RecordPartner(b *components.Agent) {
	b.Record(games.Move{Own: o.Other, Other: o.Own}, o.OtherPay)
}

// Payoff returns the total payoff the outcome credits under mode.
func (o Outcome) Payoff(mode InteractionMode) int {
	if mode == Initiator {
		return o.OwnPay
	}
	return o.OwnPay + o.OtherPay
}

// Interact plays one round between a and b and records it.
func Interact(a, b *components.Agent, table games.PayoffTable, mode InteractionMode, rng *rand.Rand) Outcome {
	o := Play(a, b, table, rng)
	o.Record(a, b, mode)
	return o
}
