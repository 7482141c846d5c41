package address

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caretrack/caretrack/pkg/pagination"
)

const foreignKeyViolation = "23503"

type repoPG struct{ pool *pgxpool.Pool }

func NewPGRepo(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const addressCols = `id, patient_id, label, line1, line2, city, state, zip, created_at, updated_at`

func scanAddress(row pgx.Row) (*Address, error) {
	var a Address
	err := row.Scan(&a.ID, &a.PatientID, &a.Label, &a.Line1, &a.Line2,
		&a.City, &a.State, &a.Zip, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *Address) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO addresses (patient_id, label, line1, line2, city, state, zip)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at, updated_at`,
		a.PatientID, a.Label, a.Line1, a.Line2, a.City, a.State, a.Zip).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return ErrInvalidReference
		}
		return fmt.Errorf("insert address: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Address, error) {
	a, err := scanAddress(r.pool.QueryRow(ctx, `SELECT `+addressCols+` FROM addresses WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get address %d: %w", id, err)
	}
	return a, nil
}

func (r *repoPG) Update(ctx context.Context, a *Address) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE addresses SET label=$2, line1=$3, line2=$4, city=$5, state=$6, zip=$7, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.Label, a.Line1, a.Line2, a.City, a.State, a.Zip)
	if err != nil {
		return fmt.Errorf("update address %d: %w", a.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM addresses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete address %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, patientID int64, pg pagination.Params) ([]*Address, int, error) {
	where := ""
	var args []any
	if patientID != 0 {
		where = ` WHERE patient_id = $1`
		args = append(args, patientID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM addresses`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count addresses: %w", err)
	}

	rows, err := r.pool.Query(ctx, `SELECT `+addressCols+` FROM addresses`+where+` ORDER BY id `+pg.SQL(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	var items []*Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan address: %w", err)
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate addresses: %w", err)
	}
	return items, total, nil
}
