package areaelement

import (
	"fmt"
	"log/slog"
)

// Token identifies an element category. Valid tokens are positive.
type Token int32

// Definition describes one element from content.
// OpposingID == 0 means the element has no counterpart.
type Definition struct {
	ID         Token
	OpposingID Token
	Icon       string
}

// Definitions is the immutable lookup table of known elements.
// Built once at content load and shared by every ledger.
type Definitions struct {
	byID  map[Token]Definition
	order []Token
}

// NewDefinitions validates defs and builds the table.
// Rejects non-positive ids, duplicates and opposing ids that name unknown elements.
func NewDefinitions(defs []Definition) (*Definitions, error) {
	d := &Definitions{
		byID:  make(map[Token]Definition, len(defs)),
		order: make([]Token, 0, len(defs)),
	}

	for _, def := range defs {
		if def.ID <= 0 {
			return nil, fmt.Errorf("element id %d: must be positive", def.ID)
		}
		if def.OpposingID < 0 {
			return nil, fmt.Errorf("element %d: opposing id %d must not be negative", def.ID, def.OpposingID)
		}
		if def.OpposingID == def.ID {
			return nil, fmt.Errorf("element %d: cannot oppose itself", def.ID)
		}
		if _, dup := d.byID[def.ID]; dup {
			return nil, fmt.Errorf("element %d: duplicate definition", def.ID)
		}
		d.byID[def.ID] = def
		d.order = append(d.order, def.ID)
	}

	for _, def := range defs {
		if def.OpposingID == 0 {
			continue
		}
		if _, ok := d.byID[def.OpposingID]; !ok {
			return nil, fmt.Errorf("element %d: opposing element %d is not defined", def.ID, def.OpposingID)
		}
	}

	return d, nil
}

// Known reports whether t has a definition.
func (d *Definitions) Known(t Token) bool {
	if d == nil {
		return false
	}
	_, ok := d.byID[t]
	return ok
}

// Get returns the definition for t.
func (d *Definitions) Get(t Token) (Definition, bool) {
	if d == nil {
		return Definition{}, false
	}
	def, ok := d.byID[t]
	return def, ok
}

// Opposing returns the opposing token of t, or 0 if t has none or is unknown.
func (d *Definitions) Opposing(t Token) Token {
	def, ok := d.Get(t)
	if !ok {
		return 0
	}
	return def.OpposingID
}

// All returns definitions in content order.
func (d *Definitions) All() []Definition {
	if d == nil {
		return nil
	}
	out := make([]Definition, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.byID[id])
	}
	return out
}

// Len returns the number of defined elements.
func (d *Definitions) Len() int {
	if d == nil {
		return 0
	}
	return len(d.order)
}

func logUnknown(op string, t Token) {
	slog.Debug("area element ignored: no definition", "op", op, "element", int32(t))
}
