package games

import "math/rand/v2"

// TypeTag partitions agents (e.g. two-sex models). The empty tag means
// the agent is untyped.
type TypeTag string

// NoType is the tag carried by agents when agent types are not in use.
const NoType TypeTag = ""

// Decide maps an agent's own history and type to its next action.
// rng is the caller's random source; deterministic rules ignore it.
type Decide func(h History, own TypeTag, rng *rand.Rand) Action

// Strategy is a named, immutable decision rule. Strategies are shared by
// pointer across many agents and compared by name.
type Strategy struct {
	name   string
	decide Decide
	types  []TypeTag
}

// NewStrategy creates a strategy. If types is non-empty the strategy is
// only offered to slots of those types during random initialization.
func NewStrategy(name string, decide Decide, types ...TypeTag) *Strategy {
	return &Strategy{name: name, decide: decide, types: append([]TypeTag(nil), types...)}
}

// Name returns the strategy identity.
func (s *Strategy) Name() string {
	if s == nil {
		return ""
	}
	return s.name
}

// Act evaluates the decision rule.
func (s *Strategy) Act(h History, own TypeTag, rng *rand.Rand) Action {
	return s.decide(h, own, rng)
}

// Types returns the agent types this strategy is declared for.
func (s *Strategy) Types() []TypeTag {
	return s.types
}

// CompatibleWith reports whether the strategy may be assigned to an agent
// of type t. Strategies without declared types fit every agent.
func (s *Strategy) CompatibleWith(t TypeTag) bool {
	if len(s.types) == 0 || t == NoType {
		return true
	}
	for _, tt := range s.types {
		if tt == t {
			return true
		}
	}
	return false
}
