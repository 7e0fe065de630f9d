package dynamics

import (
	"fmt"
	"strings"

	"github.com/pthm-cable/evogrid/components"
	"github.com/pthm-cable/evogrid/games"
)

// PeerFilter selects which candidates an agent learns from when agent
// types are in use.
type PeerFilter string

const (
	// SameType keeps candidates of the agent's own type. Strategies are
	// declared per type, so this keeps every agent on a strategy it can play.
	SameType PeerFilter = "same_type"
	// CrossType keeps only candidates of a different type.
	CrossType PeerFilter = "cross_type"
	// AnyType keeps every candidate.
	AnyType PeerFilter = "any"
)

// ParsePeerFilter accepts "same_type", "cross_type" or "any".
func ParsePeerFilter(s string) (PeerFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "same_type", "":
		return SameType, nil
	case "cross_type":
		return CrossType, nil
	case "any":
		return AnyType, nil
	}
	return "", fmt.Errorf("unknown learning peer filter %q", s)
}

// Peers appends to dst the candidates agent may learn from. Untyped agents
// keep every candidate.
func Peers(dst []*components.Agent, agent *components.Agent, candidates []*components.Agent, f PeerFilter) []*components.Agent {
	for _, c := range candidates {
		if keep(agent.Type, c.Type, f) {
			dst = append(dst, c)
		}
	}
	return dst
}

func keep(own, other games.TypeTag, f PeerFilter) bool {
	if own == games.NoType {
		return true
	}
	switch f {
	case SameType:
		return other == own
	case CrossType:
		return other != own
	}
	return true
}
