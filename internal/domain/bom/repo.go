package bom

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jbetancur12/matplan/internal/infra/db"
)

type Repo interface {
	ListByVariant(ctx context.Context, variantID int64) ([]Item, error)
}

type PG struct{ pool *pgxpool.Pool }

func NewPG(pool *pgxpool.Pool) *PG { return &PG{pool: pool} }

var _ Repo = (*PG)(nil)

func (r *PG) ListByVariant(ctx context.Context, variantID int64) ([]Item, error) {
	rows, err := db.From(ctx, r.pool).Query(ctx, `
		SELECT id, variant_id, material_id, mode, quantity_per_unit,
		       piece_width, piece_length, orientation, roll_width
		FROM bom_items
		WHERE variant_id = $1
		ORDER BY id
	`, variantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.VariantID, &it.MaterialID,
			&it.Params.Mode, &it.Params.QuantityPerUnit,
			&it.Params.PieceWidth, &it.Params.PieceLength,
			&it.Params.Orientation, &it.Params.RollWidth); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// Memory is an in-memory Repo for tests and DB-free wiring.
type Memory struct {
	mu     sync.Mutex
	nextID int64
	items  []Item
}

func NewMemory() *Memory { return &Memory{nextID: 1} }

var _ Repo = (*Memory)(nil)

func (r *Memory) Add(it Item) Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	it.ID = r.nextID
	r.nextID++
	r.items = append(r.items, it)
	return it
}

func (r *Memory) ListByVariant(_ context.Context, variantID int64) ([]Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Item
	for _, it := range r.items {
		if it.VariantID == variantID {
			out = append(out, it)
		}
	}
	return out, nil
}
