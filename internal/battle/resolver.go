package battle

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/udisondev/areaelements/internal/annotation"
	"github.com/udisondev/areaelements/internal/areaelement"
	"github.com/udisondev/areaelements/internal/content"
)

var (
	// ErrNotInBattle is returned when an action is resolved outside a battle.
	ErrNotInBattle = errors.New("no active battle")
	// ErrCostNotMet is returned when the area element gate rejects an action.
	ErrCostNotMet = errors.New("area element requirement not met")
)

// Actor is a battler. Traits come from equipment and states.
type Actor struct {
	Name   string
	Traits []content.Trait
}

// Outcome is the result of one resolved action, passed to every hook.
type Outcome struct {
	Actor  *Actor
	Action content.Action

	// RatePercent is the element modifier read before the action resolved.
	RatePercent int
	// BonusPercent is the full-remove bonus. It replaces RatePercent for
	// remove-all actions.
	BonusPercent int
	Damage       int

	// Before is the ledger state the modifiers were computed from.
	Before areaelement.Snapshot
	After  areaelement.Snapshot
}

// Hook runs after an action has resolved.
type Hook func(o *Outcome)

type namedHook struct {
	name string
	fn   Hook
}

// Resolver prices actions against the area element ledger and runs the
// post-action hooks in registration order.
type Resolver struct {
	session *Session
	hooks   []namedHook
}

// NewResolver creates a resolver with no hooks.
func NewResolver(session *Session) *Resolver {
	return &Resolver{session: session}
}

// NewDefaultResolver creates a resolver with the ledger update registered.
func NewDefaultResolver(session *Session) *Resolver {
	r := NewResolver(session)
	r.Use("area_elements", LedgerHook(session))
	return r
}

// Use appends a hook.
func (r *Resolver) Use(name string, h Hook) {
	r.hooks = append(r.hooks, namedHook{name: name, fn: h})
}

// Hooks returns registered hook names in call order.
func (r *Resolver) Hooks() []string {
	names := make([]string, len(r.hooks))
	for i, h := range r.hooks {
		names[i] = h.name
	}
	return names
}

// CanUse reports whether the action passes every area element gate.
func (r *Resolver) CanUse(action content.Action) bool {
	view := r.session.View()
	for _, req := range action.Area.Requirements() {
		if !view.MeetsCostRequirement(req) {
			return false
		}
	}
	return true
}

// Resolve gates the action, computes its damage from the current ledger and
// runs the hooks.
func (r *Resolver) Resolve(actor *Actor, action content.Action) (*Outcome, error) {
	if !r.session.InBattle() {
		return nil, ErrNotInBattle
	}
	if !r.CanUse(action) {
		return nil, fmt.Errorf("action %s: %w", action.ID, ErrCostNotMet)
	}

	view := r.session.View()
	rate := r.session.Settings().RatePercent

	o := &Outcome{
		Actor:  actor,
		Action: action,
		Before: view.Snapshot(),
	}
	switch {
	case action.Area.RemoveAll:
		o.BonusPercent = view.FullRemoveBonus(rate)
	case action.Element != 0:
		o.RatePercent = view.RateModifier(action.Element, rate)
	}
	o.Damage = max(action.Power*(100+o.RatePercent+o.BonusPercent)/100, 0)

	for _, h := range r.hooks {
		h.fn(o)
	}
	o.After = r.session.View().Snapshot()

	var name string
	if actor != nil {
		name = actor.Name
	}
	slog.Debug("action resolved",
		"actor", name,
		"action", action.ID,
		"rate", o.RatePercent,
		"bonus", o.BonusPercent,
		"damage", o.Damage,
		"transient", o.After.Transient,
		"stable", o.After.Stable)

	return o, nil
}

// LedgerHook applies the action's area annotation and then the actor's
// traits. Only the transient ledger is touched.
//
// Trait adjustment is skipped when the action or any of the actor's traits
// suppresses it. Otherwise every clearing trait runs first, then every
// trait's add list, then every trait's remove list.
func LedgerHook(session *Session) Hook {
	return func(o *Outcome) {
		transient := session.Transient()
		area := o.Action.Area

		session.View().ConsumeCost(area.Costs)
		if area.RemoveAll {
			transient.Clear()
		}
		for _, t := range area.Remove {
			transient.Remove(t)
		}
		addAll(transient, area)

		if area.SuppressTraits || o.Actor == nil || o.Actor.suppressesTraits() {
			return
		}
		for _, tr := range o.Actor.Traits {
			if tr.Area.RemoveAll {
				transient.Clear()
			}
		}
		for _, tr := range o.Actor.Traits {
			addAll(transient, tr.Area)
		}
		for _, tr := range o.Actor.Traits {
			for _, t := range tr.Area.Remove {
				transient.Remove(t)
			}
		}
	}
}

func addAll(l *areaelement.Ledger, area annotation.Annotation) {
	for _, t := range area.Add {
		if area.Versus {
			l.VersusAdd(t)
		} else {
			l.Add(t)
		}
	}
}

func (a *Actor) suppressesTraits() bool {
	for _, tr := range a.Traits {
		if tr.Area.SuppressTraits {
			return true
		}
	}
	return false
}
