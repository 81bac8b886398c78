package annotation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/udisondev/areaelements/internal/areaelement"
)

var (
	// ErrExclusiveRequirement is returned when an annotation both requires an
	// empty ledger and requires or costs specific elements.
	ErrExclusiveRequirement = errors.New("needs_empty excludes requires and costs")
	// ErrTraitGate is returned when a trait declares a use condition.
	ErrTraitGate = errors.New("requires, costs and needs_empty do not apply to traits")
)

// Annotation is the typed per-action (or per-trait) area element metadata.
// On a trait, RemoveAll clears the ledger after every action of its owner and
// SuppressTraits switches off trait adjustment for that owner entirely.
// Versus makes every Add cancel a held opposing element instead.
type Annotation struct {
	Add            []areaelement.Token
	Remove         []areaelement.Token
	Versus         bool
	RemoveAll      bool
	NeedsEmpty     bool
	Requires       []areaelement.Token
	Costs          []areaelement.Token
	SuppressTraits bool
}

// Raw is the stored form of an Annotation: token lists are comma-separated
// strings, flags are booleans.
type Raw struct {
	Add            string `yaml:"add" json:"add,omitempty"`
	Remove         string `yaml:"remove" json:"remove,omitempty"`
	Versus         bool   `yaml:"versus" json:"versus,omitempty"`
	RemoveAll      bool   `yaml:"remove_all" json:"remove_all,omitempty"`
	NeedsEmpty     bool   `yaml:"needs_empty" json:"needs_empty,omitempty"`
	Requires       string `yaml:"requires" json:"requires,omitempty"`
	Costs          string `yaml:"costs" json:"costs,omitempty"`
	SuppressTraits bool   `yaml:"suppress_traits" json:"suppress_traits,omitempty"`
}

// Parse converts the stored strings into token lists.
// The first malformed field is reported by name.
func (r Raw) Parse() (Annotation, error) {
	a := Annotation{
		Versus:         r.Versus,
		RemoveAll:      r.RemoveAll,
		NeedsEmpty:     r.NeedsEmpty,
		SuppressTraits: r.SuppressTraits,
	}

	fields := []struct {
		name string
		src  string
		dst  *[]areaelement.Token
	}{
		{"add", r.Add, &a.Add},
		{"remove", r.Remove, &a.Remove},
		{"requires", r.Requires, &a.Requires},
		{"costs", r.Costs, &a.Costs},
	}
	for _, f := range fields {
		tokens, err := ParseTokenList(f.src)
		if err != nil {
			return Annotation{}, fmt.Errorf("field %s: %w", f.name, err)
		}
		*f.dst = tokens
	}

	return a, nil
}

// Format is the inverse of Parse.
func (a Annotation) Format() Raw {
	return Raw{
		Add:            FormatTokenList(a.Add),
		Remove:         FormatTokenList(a.Remove),
		Versus:         a.Versus,
		RemoveAll:      a.RemoveAll,
		NeedsEmpty:     a.NeedsEmpty,
		Requires:       FormatTokenList(a.Requires),
		Costs:          FormatTokenList(a.Costs),
		SuppressTraits: a.SuppressTraits,
	}
}

// ParseTokenList parses "1, 2,3" into tokens. Empty input is an empty list.
// Empty entries, signs, zero and non-digits are errors.
func ParseTokenList(s string) ([]areaelement.Token, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	out := make([]areaelement.Token, 0, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, fmt.Errorf("entry %d: empty", i)
		}
		for _, c := range p {
			if c < '0' || c > '9' {
				return nil, fmt.Errorf("entry %d: %q is not a positive integer", i, p)
			}
		}
		n, err := strconv.ParseInt(p, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if n == 0 {
			return nil, fmt.Errorf("entry %d: element id must be positive", i)
		}
		out = append(out, areaelement.Token(n))
	}
	return out, nil
}

// FormatTokenList joins tokens as "1,2,3".
func FormatTokenList(tokens []areaelement.Token) string {
	if len(tokens) == 0 {
		return ""
	}
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = strconv.FormatInt(int64(t), 10)
	}
	return strings.Join(parts, ",")
}

// Validate checks references against the element table.
func (a Annotation) Validate(defs *areaelement.Definitions) error {
	if a.NeedsEmpty && (len(a.Requires) > 0 || len(a.Costs) > 0) {
		return ErrExclusiveRequirement
	}

	lists := []struct {
		name   string
		tokens []areaelement.Token
	}{
		{"add", a.Add},
		{"remove", a.Remove},
		{"requires", a.Requires},
		{"costs", a.Costs},
	}
	for _, l := range lists {
		for _, t := range l.tokens {
			if !defs.Known(t) {
				return fmt.Errorf("field %s: element %d is not defined", l.name, t)
			}
		}
	}
	return nil
}

// ValidateTrait is Validate for trait annotations, which carry no use
// conditions.
func (a Annotation) ValidateTrait(defs *areaelement.Definitions) error {
	if a.NeedsEmpty || len(a.Requires) > 0 || len(a.Costs) > 0 {
		return ErrTraitGate
	}
	return a.Validate(defs)
}

// Requirements returns the use conditions. The needs gate (requires or
// needs_empty) and the cost gate are checked separately and must both hold.
func (a Annotation) Requirements() []areaelement.Requirement {
	reqs := []areaelement.Requirement{{
		NeedsEmpty: a.NeedsEmpty,
		Containing: a.Requires,
	}}
	if len(a.Costs) > 0 {
		reqs = append(reqs, areaelement.Requirement{Containing: a.Costs})
	}
	return reqs
}

// Empty reports whether the annotation declares nothing.
func (a Annotation) Empty() bool {
	return len(a.Add) == 0 && len(a.Remove) == 0 && len(a.Requires) == 0 && len(a.Costs) == 0 &&
		!a.Versus && !a.RemoveAll && !a.NeedsEmpty && !a.SuppressTraits
}
