package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/udisondev/areaelements/internal/areaelement"
	"github.com/udisondev/areaelements/internal/battle"
	"github.com/udisondev/areaelements/internal/command"
	"github.com/udisondev/areaelements/internal/content"
)

var (
	// ErrExpectation is returned when an expect step or use expectation fails.
	ErrExpectation = errors.New("scenario expectation failed")
	// ErrUnknownAction is returned for an action or trait missing from content.
	ErrUnknownAction = errors.New("unknown action")
	// ErrUnknownActor is returned when a use step names an undeclared actor.
	ErrUnknownActor = errors.New("unknown actor")
)

// StepResult records the ledger state after one step.
type StepResult struct {
	Index    int
	Kind     string
	Snapshot areaelement.Snapshot
	Outcome  *battle.Outcome
	Rejected bool
	Applied  bool
}

// Report is the result of a full run.
type Report struct {
	Steps []StepResult
}

// Runner executes scripts against a catalog.
type Runner struct {
	catalog        *content.Catalog
	settings       battle.Settings
	stableCapacity int
}

// NewRunner creates a runner. Each Run gets fresh sessions.
func NewRunner(catalog *content.Catalog, settings battle.Settings, stableCapacity int) *Runner {
	return &Runner{catalog: catalog, settings: settings, stableCapacity: stableCapacity}
}

// Run executes the script steps in order and stops at the first failure.
// The report holds every step completed so far.
func (r *Runner) Run(ctx context.Context, script *Script) (*Report, error) {
	defs := r.catalog.Definitions
	mapSess := battle.NewMapSession(defs, script.Map, r.stableCapacity)
	session := battle.NewSession(defs, mapSess, r.settings)
	resolver := battle.NewDefaultResolver(session)
	dispatcher := command.NewDispatcher(session)

	actors, err := r.buildActors(script.Actors)
	if err != nil {
		return nil, err
	}

	report := &Report{Steps: make([]StepResult, 0, len(script.Steps))}
	for i, step := range script.Steps {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		res := StepResult{Index: i, Kind: step.Kind()}
		switch {
		case step.BattleStart:
			session.Start()
		case step.BattleEnd:
			session.End()
		case step.ChangeMap != nil:
			mapSess.ChangeMap(*step.ChangeMap)
		case step.Command != "":
			applied, err := dispatcher.Run(step.Command)
			if err != nil {
				return report, fmt.Errorf("step %d: %w", i, err)
			}
			res.Applied = applied
		case step.Use != nil:
			if err := r.use(resolver, actors, step.Use, &res); err != nil {
				return report, fmt.Errorf("step %d: %w", i, err)
			}
		case step.Expect != nil:
			if err := expect(session.View().Snapshot(), step.Expect); err != nil {
				return report, fmt.Errorf("step %d: %w", i, err)
			}
		}

		res.Snapshot = session.View().Snapshot()
		report.Steps = append(report.Steps, res)

		slog.Info("scenario step",
			"index", i,
			"kind", res.Kind,
			"transient", res.Snapshot.Transient,
			"stable", res.Snapshot.Stable)
	}

	return report, nil
}

func (r *Runner) buildActors(decls []Actor) (map[string]*battle.Actor, error) {
	actors := make(map[string]*battle.Actor, len(decls))
	for _, a := range decls {
		actor := &battle.Actor{Name: a.Name}
		for _, id := range a.Traits {
			tr, ok := r.catalog.Trait(id)
			if !ok {
				return nil, fmt.Errorf("actor %s: trait %s: %w", a.Name, id, ErrUnknownAction)
			}
			actor.Traits = append(actor.Traits, tr)
		}
		actors[a.Name] = actor
	}
	return actors, nil
}

func (r *Runner) use(resolver *battle.Resolver, actors map[string]*battle.Actor, u *Use, res *StepResult) error {
	actor, ok := actors[u.Actor]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownActor, u.Actor)
	}
	action, ok := r.catalog.Action(u.Action)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAction, u.Action)
	}

	outcome, err := resolver.Resolve(actor, action)
	switch {
	case errors.Is(err, battle.ErrCostNotMet):
		res.Rejected = true
	case err != nil:
		return err
	default:
		res.Outcome = outcome
		res.Applied = true
	}

	if res.Rejected != u.ExpectRejected {
		return fmt.Errorf("%w: %s by %s rejected=%t, want %t",
			ErrExpectation, u.Action, u.Actor, res.Rejected, u.ExpectRejected)
	}
	if u.ExpectDamage != nil && outcome != nil && outcome.Damage != *u.ExpectDamage {
		return fmt.Errorf("%w: %s damage %d, want %d",
			ErrExpectation, u.Action, outcome.Damage, *u.ExpectDamage)
	}
	return nil
}

func expect(got areaelement.Snapshot, want *Expect) error {
	if want.Transient != nil && !slices.Equal(got.Transient, want.Transient) {
		return fmt.Errorf("%w: transient %v, want %v", ErrExpectation, got.Transient, want.Transient)
	}
	if want.Stable != nil && !slices.Equal(got.Stable, want.Stable) {
		return fmt.Errorf("%w: stable %v, want %v", ErrExpectation, got.Stable, want.Stable)
	}
	return nil
}
