package areaelement

import (
	"fmt"
	"log/slog"
	"slices"
)

// OverflowPolicy decides what Add does when the ledger is full.
type OverflowPolicy uint8

const (
	// EvictOldest drops the oldest token to make room for the new one.
	EvictOldest OverflowPolicy = iota
	// RejectNew ignores the incoming token.
	RejectNew
)

func (p OverflowPolicy) String() string {
	switch p {
	case EvictOldest:
		return "evict_oldest"
	case RejectNew:
		return "reject_new"
	default:
		return fmt.Sprintf("OverflowPolicy(%d)", uint8(p))
	}
}

// ParsePolicy converts a config value into an OverflowPolicy.
func ParsePolicy(s string) (OverflowPolicy, error) {
	switch s {
	case "evict_oldest", "":
		return EvictOldest, nil
	case "reject_new":
		return RejectNew, nil
	default:
		return 0, fmt.Errorf("unknown overflow policy %q", s)
	}
}

// Stats counts ledger events that never surface as errors.
type Stats struct {
	UnknownTokens int
	Evicted       int
	Rejected      int
	Cancelled     int
}

// Ledger is a bounded FIFO of element tokens, oldest first.
// Duplicates are allowed.
//
// Not safe for concurrent use: battle resolution is strictly serial.
type Ledger struct {
	name     string
	defs     *Definitions
	capacity int
	policy   OverflowPolicy
	tokens   []Token
	stats    Stats
}

// NewLedger creates an empty ledger. A capacity of 0 disables it (every Add is a no-op).
func NewLedger(name string, defs *Definitions, capacity int, policy OverflowPolicy) *Ledger {
	capacity = max(capacity, 0)
	return &Ledger{
		name:     name,
		defs:     defs,
		capacity: capacity,
		policy:   policy,
		tokens:   make([]Token, 0, capacity),
	}
}

// Name returns the ledger label used in logs.
func (l *Ledger) Name() string { return l.name }

// Capacity returns the configured maximum.
func (l *Ledger) Capacity() int { return l.capacity }

// Policy returns the overflow policy used by Add.
func (l *Ledger) Policy() OverflowPolicy { return l.policy }

// Len returns the current number of tokens.
func (l *Ledger) Len() int { return len(l.tokens) }

// Stats returns a copy of the event counters.
func (l *Ledger) Stats() Stats { return l.stats }

// Tokens returns a copy of the tokens, oldest first.
func (l *Ledger) Tokens() []Token {
	return slices.Clone(l.tokens)
}

// SetCapacity changes the maximum without trimming.
// If the ledger now holds more than n tokens it is corrected lazily by the
// next Add, one eviction per call.
func (l *Ledger) SetCapacity(n int) {
	l.capacity = max(n, 0)
}

// SetPolicy changes the overflow policy used by Add.
func (l *Ledger) SetPolicy(p OverflowPolicy) {
	l.policy = p
}

// Add appends t using the ledger's own overflow policy.
func (l *Ledger) Add(t Token) {
	l.AddWithPolicy(t, l.policy)
}

// AddWithPolicy appends t. At capacity, EvictOldest removes exactly one oldest
// token first; RejectNew leaves the ledger unchanged.
func (l *Ledger) AddWithPolicy(t Token, policy OverflowPolicy) {
	if !l.defs.Known(t) {
		l.stats.UnknownTokens++
		logUnknown(l.name+".add", t)
		return
	}
	if l.capacity == 0 {
		return
	}

	if len(l.tokens) >= l.capacity {
		if policy == RejectNew {
			l.stats.Rejected++
			slog.Debug("area element rejected: ledger full",
				"ledger", l.name,
				"element", int32(t),
				"capacity", l.capacity)
			return
		}
		evicted := l.tokens[0]
		l.tokens = slices.Delete(l.tokens, 0, 1)
		l.stats.Evicted++
		slog.Debug("area element evicted",
			"ledger", l.name,
			"evicted", int32(evicted),
			"added", int32(t))
	}

	l.tokens = append(l.tokens, t)
}

// Remove deletes the oldest occurrence of t. Returns false if t was absent.
func (l *Ledger) Remove(t Token) bool {
	if !l.defs.Known(t) {
		l.stats.UnknownTokens++
		logUnknown(l.name+".remove", t)
		return false
	}
	i := slices.Index(l.tokens, t)
	if i < 0 {
		return false
	}
	l.tokens = slices.Delete(l.tokens, i, i+1)
	return true
}

// Clear empties the ledger.
func (l *Ledger) Clear() {
	l.tokens = l.tokens[:0]
}

// VersusAdd cancels against the opposing element when it is present,
// removing its oldest occurrence instead of adding t. Otherwise t is added
// with EvictOldest. Elements without an opposing id degrade to a plain add.
func (l *Ledger) VersusAdd(t Token) {
	if !l.defs.Known(t) {
		l.stats.UnknownTokens++
		logUnknown(l.name+".vs_add", t)
		return
	}

	if opp := l.defs.Opposing(t); opp != 0 {
		if i := slices.Index(l.tokens, opp); i >= 0 {
			l.tokens = slices.Delete(l.tokens, i, i+1)
			l.stats.Cancelled++
			slog.Debug("area element cancelled",
				"ledger", l.name,
				"element", int32(t),
				"opposing", int32(opp))
			return
		}
	}

	l.AddWithPolicy(t, EvictOldest)
}

// Contains reports whether t is held at least once.
func (l *Ledger) Contains(t Token) bool {
	return slices.Contains(l.tokens, t)
}

// Occurrences returns how many copies of t are held.
func (l *Ledger) Occurrences(t Token) int {
	n := 0
	for _, x := range l.tokens {
		if x == t {
			n++
		}
	}
	return n
}
