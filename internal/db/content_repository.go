package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/areaelements/internal/annotation"
	"github.com/udisondev/areaelements/internal/content"
)

// ContentRepository хранит статический контент area elements: элементы,
// действия и трейты. Состояние леджеров в БД не пишется.
type ContentRepository struct {
	db *pgxpool.Pool
}

// NewContentRepository создаёт новый ContentRepository.
func NewContentRepository(db *pgxpool.Pool) *ContentRepository {
	return &ContentRepository{db: db}
}

// LoadElements загружает все элементы, упорядоченные по id.
func (r *ContentRepository) LoadElements(ctx context.Context) ([]content.ElementRecord, error) {
	rows, err := r.db.Query(ctx, `SELECT id, opposing_id, icon FROM area_elements ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying area elements: %w", err)
	}
	defer rows.Close()

	elements := make([]content.ElementRecord, 0, 16)
	for rows.Next() {
		var e content.ElementRecord
		if err := rows.Scan(&e.ID, &e.Opposing, &e.Icon); err != nil {
			return nil, fmt.Errorf("scanning area element row: %w", err)
		}
		elements = append(elements, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating area element rows: %w", err)
	}
	return elements, nil
}

// LoadActions загружает все действия с сырыми аннотациями.
func (r *ContentRepository) LoadActions(ctx context.Context) ([]content.ActionRecord, error) {
	query := `
		SELECT id, element_id, power,
		       add_tokens, remove_tokens, versus, remove_all, needs_empty, requires, costs, suppress_traits
		FROM area_actions
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying area actions: %w", err)
	}
	defer rows.Close()

	actions := make([]content.ActionRecord, 0, 32)
	for rows.Next() {
		var a content.ActionRecord
		var power int32
		if err := rows.Scan(&a.ID, &a.Element, &power,
			&a.Area.Add, &a.Area.Remove, &a.Area.Versus, &a.Area.RemoveAll, &a.Area.NeedsEmpty,
			&a.Area.Requires, &a.Area.Costs, &a.Area.SuppressTraits,
		); err != nil {
			return nil, fmt.Errorf("scanning area action row: %w", err)
		}
		a.Power = int(power)
		actions = append(actions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating area action rows: %w", err)
	}
	return actions, nil
}

// LoadTraits загружает все трейты (экипировка, состояния).
func (r *ContentRepository) LoadTraits(ctx context.Context) ([]content.TraitRecord, error) {
	query := `
		SELECT id, add_tokens, remove_tokens, versus, remove_all, suppress_traits
		FROM area_traits
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying area traits: %w", err)
	}
	defer rows.Close()

	traits := make([]content.TraitRecord, 0, 16)
	for rows.Next() {
		var t content.TraitRecord
		if err := rows.Scan(&t.ID,
			&t.Area.Add, &t.Area.Remove, &t.Area.Versus, &t.Area.RemoveAll, &t.Area.SuppressTraits,
		); err != nil {
			return nil, fmt.Errorf("scanning area trait row: %w", err)
		}
		traits = append(traits, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating area trait rows: %w", err)
	}
	return traits, nil
}

// LoadCatalog загружает элементы, действия и трейты параллельно и собирает Catalog.
func (r *ContentRepository) LoadCatalog(ctx context.Context) (*content.Catalog, error) {
	var (
		elements []content.ElementRecord
		actions  []content.ActionRecord
		traits   []content.TraitRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		elements, err = r.LoadElements(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		actions, err = r.LoadActions(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		traits, err = r.LoadTraits(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cat, err := content.Build(elements, actions, traits)
	if err != nil {
		return nil, fmt.Errorf("building catalog from database: %w", err)
	}
	return cat, nil
}

// execer — общий интерфейс pgxpool.Pool и pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const (
	upsertElementSQL = `
		INSERT INTO area_elements (id, opposing_id, icon)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET opposing_id = EXCLUDED.opposing_id, icon = EXCLUDED.icon`

	upsertActionSQL = `
		INSERT INTO area_actions (id, element_id, power,
		    add_tokens, remove_tokens, versus, remove_all, needs_empty, requires, costs, suppress_traits)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
		    element_id = EXCLUDED.element_id,
		    power = EXCLUDED.power,
		    add_tokens = EXCLUDED.add_tokens,
		    remove_tokens = EXCLUDED.remove_tokens,
		    versus = EXCLUDED.versus,
		    remove_all = EXCLUDED.remove_all,
		    needs_empty = EXCLUDED.needs_empty,
		    requires = EXCLUDED.requires,
		    costs = EXCLUDED.costs,
		    suppress_traits = EXCLUDED.suppress_traits`

	upsertTraitSQL = `
		INSERT INTO area_traits (id, add_tokens, remove_tokens, versus, remove_all, suppress_traits)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
		    add_tokens = EXCLUDED.add_tokens,
		    remove_tokens = EXCLUDED.remove_tokens,
		    versus = EXCLUDED.versus,
		    remove_all = EXCLUDED.remove_all,
		    suppress_traits = EXCLUDED.suppress_traits`
)

func actionAreaArgs(a annotation.Raw) []any {
	return []any{a.Add, a.Remove, a.Versus, a.RemoveAll, a.NeedsEmpty, a.Requires, a.Costs, a.SuppressTraits}
}

// traitAreaArgs отбрасывает условия использования: у трейтов их нет.
func traitAreaArgs(a annotation.Raw) []any {
	return []any{a.Add, a.Remove, a.Versus, a.RemoveAll, a.SuppressTraits}
}

func saveElement(ctx context.Context, ex execer, e content.ElementRecord) error {
	if _, err := ex.Exec(ctx, upsertElementSQL, e.ID, e.Opposing, e.Icon); err != nil {
		return fmt.Errorf("saving area element %d: %w", e.ID, err)
	}
	return nil
}

func saveAction(ctx context.Context, ex execer, a content.ActionRecord) error {
	args := append([]any{a.ID, a.Element, int32(a.Power)}, actionAreaArgs(a.Area)...)
	if _, err := ex.Exec(ctx, upsertActionSQL, args...); err != nil {
		return fmt.Errorf("saving area action %s: %w", a.ID, err)
	}
	return nil
}

func saveTrait(ctx context.Context, ex execer, t content.TraitRecord) error {
	if t.Area.NeedsEmpty || t.Area.Requires != "" || t.Area.Costs != "" {
		return fmt.Errorf("saving area trait %s: %w", t.ID, annotation.ErrTraitGate)
	}
	args := append([]any{t.ID}, traitAreaArgs(t.Area)...)
	if _, err := ex.Exec(ctx, upsertTraitSQL, args...); err != nil {
		return fmt.Errorf("saving area trait %s: %w", t.ID, err)
	}
	return nil
}

// SaveElement вставляет или обновляет элемент.
func (r *ContentRepository) SaveElement(ctx context.Context, e content.ElementRecord) error {
	return saveElement(ctx, r.db, e)
}

// SaveAction вставляет или обновляет действие.
func (r *ContentRepository) SaveAction(ctx context.Context, a content.ActionRecord) error {
	return saveAction(ctx, r.db, a)
}

// SaveTrait вставляет или обновляет трейт.
func (r *ContentRepository) SaveTrait(ctx context.Context, t content.TraitRecord) error {
	return saveTrait(ctx, r.db, t)
}

// Import сохраняет содержимое content-файла в одной транзакции.
// Файл должен быть провалидирован (content.Decode).
func (r *ContentRepository) Import(ctx context.Context, f *content.File) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		// Rollback after commit is expected to fail
		_ = tx.Rollback(ctx)
	}()

	for _, e := range f.Elements {
		if err := saveElement(ctx, tx, e); err != nil {
			return err
		}
	}
	for _, a := range f.Actions {
		if err := saveAction(ctx, tx, a); err != nil {
			return err
		}
	}
	for _, t := range f.Traits {
		if err := saveTrait(ctx, tx, t); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing content import: %w", err)
	}
	return nil
}
