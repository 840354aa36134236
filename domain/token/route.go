package token

import "strings"

// RoutePlan classifies what has to happen to funds released on one chain in one token
// before the seller holds the token they asked for on the chain they asked for.
// The keeper never executes a route, it only reports it.
type RoutePlan struct {
	From             TokenInfo
	To               TokenInfo
	NeedsBridge      bool
	NeedsSwap        bool
	StableEquivalent bool
}

func PlanRoute(from, to TokenInfo) RoutePlan {
	return RoutePlan{
		From:             from,
		To:               to,
		NeedsBridge:      from.ChainId != to.ChainId,
		NeedsSwap:        NormalizeSymbol(from.Symbol) != NormalizeSymbol(to.Symbol),
		StableEquivalent: from.IsStable() && to.IsStable(),
	}
}

// Direct means the released funds already match the seller's preference.
func (p RoutePlan) Direct() bool {
	return !p.NeedsBridge && !p.NeedsSwap
}

func (p RoutePlan) Guidance() string {
	switch {
	case p.Direct():
		return "none"
	case p.NeedsBridge && p.NeedsSwap:
		return "bridge " + p.From.Symbol + " then swap to " + p.To.Symbol
	case p.NeedsBridge:
		return "bridge " + p.From.Symbol + " only"
	default:
		return "swap " + p.From.Symbol + " to " + p.To.Symbol + " only"
	}
}

func (p RoutePlan) String() string {
	return strings.Join([]string{p.From.Symbol, "->", p.To.Symbol, ":", p.Guidance()}, " ")
}
