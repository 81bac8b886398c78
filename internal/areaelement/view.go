package areaelement

import (
	"log/slog"
	"slices"
)

// Requirement gates an action on the combined ledger contents.
// NeedsEmpty takes precedence: when set, Containing is not checked.
type Requirement struct {
	NeedsEmpty bool
	Containing []Token
}

// CombinedView answers damage and cost queries over the transient and stable
// ledgers together. Stable may be nil when the map has no stable ledger.
type CombinedView struct {
	defs      *Definitions
	transient *Ledger
	stable    *Ledger
}

// NewCombinedView binds the two ledgers. Neither ledger is copied.
func NewCombinedView(defs *Definitions, transient, stable *Ledger) *CombinedView {
	return &CombinedView{defs: defs, transient: transient, stable: stable}
}

// Transient returns the per-battle ledger.
func (v *CombinedView) Transient() *Ledger { return v.transient }

// Stable returns the per-map ledger (may be nil).
func (v *CombinedView) Stable() *Ledger { return v.stable }

// Tokens returns transient tokens followed by stable tokens.
func (v *CombinedView) Tokens() []Token {
	out := make([]Token, 0, v.TotalCount())
	if v.transient != nil {
		out = append(out, v.transient.tokens...)
	}
	if v.stable != nil {
		out = append(out, v.stable.tokens...)
	}
	return out
}

// TotalCount returns the number of tokens across both ledgers.
func (v *CombinedView) TotalCount() int {
	n := 0
	if v.transient != nil {
		n += v.transient.Len()
	}
	if v.stable != nil {
		n += v.stable.Len()
	}
	return n
}

func (v *CombinedView) occurrences(t Token) int {
	n := 0
	if v.transient != nil {
		n += v.transient.Occurrences(t)
	}
	if v.stable != nil {
		n += v.stable.Occurrences(t)
	}
	return n
}

// Count returns occurrences of t minus occurrences of its opposing element.
// The result is signed: an opposing element suppresses the rate below zero.
func (v *CombinedView) Count(t Token) int {
	if !v.defs.Known(t) {
		logUnknown("count", t)
		return 0
	}
	n := v.occurrences(t)
	if opp := v.defs.Opposing(t); opp != 0 {
		n -= v.occurrences(opp)
	}
	return n
}

// RateModifier converts Count(t) into a percentage using ratePercent per token.
func (v *CombinedView) RateModifier(t Token, ratePercent int) int {
	return v.Count(t) * ratePercent
}

// FullRemoveBonus is the additive percentage granted when every token is
// removed at once: each held token is worth ratePercent.
func (v *CombinedView) FullRemoveBonus(ratePercent int) int {
	return v.TotalCount() * ratePercent
}

// MeetsCostRequirement reports whether the view satisfies req.
// Containing is a multiset: two copies of an element need two held copies.
// Unknown or non-positive tokens in req fail closed.
func (v *CombinedView) MeetsCostRequirement(req Requirement) bool {
	if req.NeedsEmpty {
		return v.TotalCount() == 0
	}
	if len(req.Containing) == 0 {
		return true
	}

	need := make(map[Token]int, len(req.Containing))
	for _, t := range req.Containing {
		if t <= 0 || !v.defs.Known(t) {
			slog.Debug("area element requirement malformed", "element", int32(t))
			return false
		}
		need[t]++
	}

	for t, n := range need {
		if v.occurrences(t) < n {
			return false
		}
	}
	return true
}

// ConsumeCost removes one oldest occurrence per entry of required from the
// transient ledger. Stable tokens are never consumed.
func (v *CombinedView) ConsumeCost(required []Token) {
	if v.transient == nil {
		return
	}
	for _, t := range required {
		v.transient.Remove(t)
	}
}

// Snapshot is a point-in-time copy of both ledgers.
type Snapshot struct {
	Transient []Token
	Stable    []Token
}

// Snapshot copies the current contents of both ledgers.
func (v *CombinedView) Snapshot() Snapshot {
	s := Snapshot{}
	if v.transient != nil {
		s.Transient = v.transient.Tokens()
	}
	if v.stable != nil {
		s.Stable = v.stable.Tokens()
	}
	return s
}

// Equal reports whether both snapshots hold the same tokens in the same order.
func (s Snapshot) Equal(o Snapshot) bool {
	return slices.Equal(s.Transient, o.Transient) && slices.Equal(s.Stable, o.Stable)
}
