package games

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
)

// ErrUnknownBehavior is returned when a behavior spec cannot be resolved.
var ErrUnknownBehavior = errors.New("unknown behavior")

// Always plays a fixed action.
func Always(a Action) Decide {
	return func(History, TypeTag, *rand.Rand) Action { return a }
}

// TitForTat opens with first and then mirrors the opponent's last action.
func TitForTat(first Action) Decide {
	return func(h History, _ TypeTag, _ *rand.Rand) Action {
		if last, ok := h.Last(); ok {
			return last.Other
		}
		return first
	}
}

// Grim plays nice until the opponent plays anything else, then punishes forever.
func Grim(nice, punish Action) Decide {
	return func(h History, _ TypeTag, _ *rand.Rand) Action {
		for _, m := range h {
			if m.Other != nice {
				return punish
			}
		}
		return nice
	}
}

// Cautious plays bold only when the opponent has played bold strictly more
// often than safe.
func Cautious(bold, safe Action) Decide {
	return func(h History, _ TypeTag, _ *rand.Rand) Action {
		if h.CountOther(bold) > h.CountOther(safe) {
			return bold
		}
		return safe
	}
}

// Majority plays the opponent's most frequent action. Ties and an empty
// history fall back to the first action of the alphabet.
func Majority(actions []Action) Decide {
	return func(h History, _ TypeTag, _ *rand.Rand) Action {
		best, bestCount := actions[0], -1
		for _, a := range actions {
			if c := h.CountOther(a); c > bestCount {
				best, bestCount = a, c
			}
		}
		return best
	}
}

// Uniform picks an action uniformly at random.
func Uniform(actions []Action) Decide {
	return func(_ History, _ TypeTag, rng *rand.Rand) Action {
		if rng == nil {
			return actions[rand.IntN(len(actions))]
		}
		return actions[rng.IntN(len(actions))]
	}
}

// Behavior resolves a named behavior against an action alphabet. The first
// action is treated as the cooperative one and the second as the defecting
// one for behaviors that need that distinction.
//
// Supported specs: always:<action>, tit_for_tat, suspicious_tit_for_tat,
// grim, cautious, majority, random.
func Behavior(spec string, actions []Action) (Decide, error) {
	if len(actions) == 0 {
		return nil, fmt.Errorf("behavior %q: empty action alphabet", spec)
	}
	name, arg, _ := strings.Cut(strings.TrimSpace(spec), ":")
	name = strings.ToLower(name)

	needPair := func() error {
		if len(actions) < 2 {
			return fmt.Errorf("behavior %q needs at least two actions", spec)
		}
		return nil
	}

	switch name {
	case "always":
		a := Action(arg)
		if !slices.Contains(actions, a) {
			return nil, fmt.Errorf("behavior %q: action %q not in alphabet %v", spec, arg, actions)
		}
		return Always(a), nil
	case "tit_for_tat":
		return TitForTat(actions[0]), nil
	case "suspicious_tit_for_tat":
		if err := needPair(); err != nil {
			return nil, err
		}
		return TitForTat(actions[1]), nil
	case "grim":
		if err := needPair(); err != nil {
			return nil, err
		}
		return Grim(actions[0], actions[1]), nil
	case "cautious":
		if err := needPair(); err != nil {
			return nil, err
		}
		return Cautious(actions[0], actions[1]), nil
	case "majority":
		return Majority(actions), nil
	case "random":
		return Uniform(actions), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBehavior, spec)
}
