package materials

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/jbetancur12/matplan/internal/infra/db"
)

var ErrNotFound = errors.New("material not found")

type Repo interface {
	GetByID(ctx context.Context, id int64) (*Material, error)
	List(ctx context.Context, onlyActive bool) ([]Material, error)
	// Lock takes the material's row lock for the rest of the transaction.
	// Every stock mutation acquires it before touching lots or the kardex,
	// so kardex balance computation and average-cost writes are
	// single-writer per material. Must run inside a transaction.
	Lock(ctx context.Context, id int64) error
	UpdateAverageCost(ctx context.Context, id int64, avg decimal.Decimal) error
}

type PG struct{ pool *pgxpool.Pool }

func NewPG(pool *pgxpool.Pool) *PG { return &PG{pool: pool} }

var _ Repo = (*PG)(nil)

const materialCols = `id, code, name, unit, standard_cost, average_cost, min_stock, active, created_at`

func scanMaterial(row pgx.Row) (*Material, error) {
	var m Material
	err := row.Scan(&m.ID, &m.Code, &m.Name, &m.Unit, &m.StandardCost, &m.AverageCost, &m.MinStock, &m.Active, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *PG) GetByID(ctx context.Context, id int64) (*Material, error) {
	row := db.From(ctx, r.pool).QueryRow(ctx, `
		SELECT `+materialCols+` FROM raw_materials WHERE id = $1
	`, id)
	return scanMaterial(row)
}

func (r *PG) List(ctx context.Context, onlyActive bool) ([]Material, error) {
	q := `SELECT ` + materialCols + ` FROM raw_materials`
	if onlyActive {
		q += ` WHERE active = TRUE`
	}
	q += ` ORDER BY code`

	rows, err := db.From(ctx, r.pool).Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Material
	for rows.Next() {
		var m Material
		if err := rows.Scan(&m.ID, &m.Code, &m.Name, &m.Unit, &m.StandardCost, &m.AverageCost, &m.MinStock, &m.Active, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PG) Lock(ctx context.Context, id int64) error {
	var found int64
	err := db.From(ctx, r.pool).QueryRow(ctx, `
		SELECT id FROM raw_materials WHERE id = $1 FOR UPDATE
	`, id).Scan(&found)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *PG) UpdateAverageCost(ctx context.Context, id int64, avg decimal.Decimal) error {
	tag, err := db.From(ctx, r.pool).Exec(ctx, `
		UPDATE raw_materials SET average_cost = $2 WHERE id = $1
	`, id, avg)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
