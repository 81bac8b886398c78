package content

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/udisondev/areaelements/internal/annotation"
	"github.com/udisondev/areaelements/internal/areaelement"
)

// ElementRecord is an element row as stored in content.
type ElementRecord struct {
	ID       int32  `json:"id"`
	Opposing int32  `json:"opposing,omitempty"`
	Icon     string `json:"icon,omitempty"`
}

// ActionRecord is a skill/item row with its raw area annotation.
type ActionRecord struct {
	ID      string         `json:"id"`
	Element int32          `json:"element,omitempty"`
	Power   int            `json:"power,omitempty"`
	Area    annotation.Raw `json:"area"`
}

// TraitRecord is an equipment/state row with its raw area annotation.
type TraitRecord struct {
	ID   string         `json:"id"`
	Area annotation.Raw `json:"area"`
}

// Action is a usable ability. Element 0 means non-elemental.
type Action struct {
	ID      string
	Element areaelement.Token
	Power   int
	Area    annotation.Annotation
}

// Trait adjusts the ledger after every action of its owner.
type Trait struct {
	ID   string
	Area annotation.Annotation
}

// Catalog is the validated static content.
type Catalog struct {
	Definitions *areaelement.Definitions
	Actions     map[string]Action
	Traits      map[string]Trait
	// Digest identifies the content version (blake2b-256, hex).
	Digest string
}

// Action returns the action by id.
func (c *Catalog) Action(id string) (Action, bool) {
	a, ok := c.Actions[id]
	return a, ok
}

// Trait returns the trait by id.
func (c *Catalog) Trait(id string) (Trait, bool) {
	t, ok := c.Traits[id]
	return t, ok
}

// Build validates records and assembles a Catalog.
// Used by both the YAML file loader and the PostgreSQL repository.
func Build(elements []ElementRecord, actions []ActionRecord, traits []TraitRecord) (*Catalog, error) {
	defs := make([]areaelement.Definition, 0, len(elements))
	for _, e := range elements {
		defs = append(defs, areaelement.Definition{
			ID:         areaelement.Token(e.ID),
			OpposingID: areaelement.Token(e.Opposing),
			Icon:       e.Icon,
		})
	}
	table, err := areaelement.NewDefinitions(defs)
	if err != nil {
		return nil, fmt.Errorf("building element table: %w", err)
	}

	cat := &Catalog{
		Definitions: table,
		Actions:     make(map[string]Action, len(actions)),
		Traits:      make(map[string]Trait, len(traits)),
	}

	for _, rec := range actions {
		if rec.ID == "" {
			return nil, errors.New("action with empty id")
		}
		if _, dup := cat.Actions[rec.ID]; dup {
			return nil, fmt.Errorf("action %s: duplicate id", rec.ID)
		}
		elem := areaelement.Token(rec.Element)
		if elem != 0 && !table.Known(elem) {
			return nil, fmt.Errorf("action %s: element %d is not defined", rec.ID, elem)
		}
		if rec.Power < 0 {
			return nil, fmt.Errorf("action %s: negative power %d", rec.ID, rec.Power)
		}
		area, err := parseArea(rec.Area, table, annotation.Annotation.Validate)
		if err != nil {
			return nil, fmt.Errorf("action %s: %w", rec.ID, err)
		}
		cat.Actions[rec.ID] = Action{ID: rec.ID, Element: elem, Power: rec.Power, Area: area}
	}

	for _, rec := range traits {
		if rec.ID == "" {
			return nil, errors.New("trait with empty id")
		}
		if _, dup := cat.Traits[rec.ID]; dup {
			return nil, fmt.Errorf("trait %s: duplicate id", rec.ID)
		}
		area, err := parseArea(rec.Area, table, annotation.Annotation.ValidateTrait)
		if err != nil {
			return nil, fmt.Errorf("trait %s: %w", rec.ID, err)
		}
		cat.Traits[rec.ID] = Trait{ID: rec.ID, Area: area}
	}

	digest, err := digestOf(elements, actions, traits)
	if err != nil {
		return nil, err
	}
	cat.Digest = digest

	slog.Info("area content loaded",
		"elements", table.Len(),
		"actions", len(cat.Actions),
		"traits", len(cat.Traits),
		"digest", cat.Digest)

	return cat, nil
}

func parseArea(
	raw annotation.Raw,
	defs *areaelement.Definitions,
	validate func(annotation.Annotation, *areaelement.Definitions) error,
) (annotation.Annotation, error) {
	a, err := raw.Parse()
	if err != nil {
		return annotation.Annotation{}, err
	}
	if err := validate(a, defs); err != nil {
		return annotation.Annotation{}, err
	}
	return a, nil
}

// digestOf hashes the records in id order so that row order in the source
// does not change the digest.
func digestOf(elements []ElementRecord, actions []ActionRecord, traits []TraitRecord) (string, error) {
	e := slices.Clone(elements)
	slices.SortFunc(e, func(a, b ElementRecord) int { return int(a.ID) - int(b.ID) })
	a := slices.Clone(actions)
	slices.SortFunc(a, func(x, y ActionRecord) int { return strings.Compare(x.ID, y.ID) })
	t := slices.Clone(traits)
	slices.SortFunc(t, func(x, y TraitRecord) int { return strings.Compare(x.ID, y.ID) })

	canon, err := json.Marshal(struct {
		Elements []ElementRecord `json:"elements"`
		Actions  []ActionRecord  `json:"actions"`
		Traits   []TraitRecord   `json:"traits"`
	}{e, a, t})
	if err != nil {
		return "", fmt.Errorf("encoding content for digest: %w", err)
	}

	sum := blake2b.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}
