package visit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caretrack/caretrack/pkg/pagination"
)

// foreignKeyViolation is the SQLSTATE raised when patient_id or
// caregiver_id points at a missing row.
const foreignKeyViolation = "23503"

type repoPG struct{ pool *pgxpool.Pool }

func NewPGRepo(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const visitCols = `id, patient_id, caregiver_id, scheduled_start, scheduled_end, status, notes, created_at, updated_at`

func scanVisit(row pgx.Row) (*Visit, error) {
	var v Visit
	err := row.Scan(&v.ID, &v.PatientID, &v.CaregiverID, &v.ScheduledStart,
		&v.ScheduledEnd, &v.Status, &v.Notes, &v.CreatedAt, &v.UpdatedAt)
	return &v, err
}

func referenceError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return ErrInvalidReference
	}
	return err
}

func (r *repoPG) Create(ctx context.Context, v *Visit) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO visits (patient_id, caregiver_id, scheduled_start, scheduled_end, status, notes)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at, updated_at`,
		v.PatientID, v.CaregiverID, v.ScheduledStart, v.ScheduledEnd, v.Status, v.Notes).
		Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if err := referenceError(err); errors.Is(err, ErrInvalidReference) {
			return err
		}
		return fmt.Errorf("insert visit: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Visit, error) {
	v, err := scanVisit(r.pool.QueryRow(ctx, `SELECT `+visitCols+` FROM visits WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get visit %d: %w", id, err)
	}
	return v, nil
}

func (r *repoPG) Update(ctx context.Context, v *Visit) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE visits SET patient_id=$2, caregiver_id=$3, scheduled_start=$4,
			scheduled_end=$5, status=$6, notes=$7, updated_at=NOW()
		WHERE id = $1`,
		v.ID, v.PatientID, v.CaregiverID, v.ScheduledStart, v.ScheduledEnd, v.Status, v.Notes)
	if err != nil {
		if err := referenceError(err); errors.Is(err, ErrInvalidReference) {
			return err
		}
		return fmt.Errorf("update visit %d: %w", v.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM visits WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete visit %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*Visit, int, error) {
	query := `SELECT ` + visitCols + ` FROM visits WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM visits WHERE 1=1`
	var args []any
	idx := 1

	if f.PatientID != 0 {
		query += fmt.Sprintf(` AND patient_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND patient_id = $%d`, idx)
		args = append(args, f.PatientID)
		idx++
	}
	if f.CaregiverID != 0 {
		query += fmt.Sprintf(` AND caregiver_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND caregiver_id = $%d`, idx)
		args = append(args, f.CaregiverID)
		idx++
	}
	if f.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		countQuery += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, f.Status)
		idx++
	}
	if !f.From.IsZero() {
		query += fmt.Sprintf(` AND scheduled_start >= $%d`, idx)
		countQuery += fmt.Sprintf(` AND scheduled_start >= $%d`, idx)
		args = append(args, f.From)
		idx++
	}
	if !f.To.IsZero() {
		query += fmt.Sprintf(` AND scheduled_start < $%d`, idx)
		countQuery += fmt.Sprintf(` AND scheduled_start < $%d`, idx)
		args = append(args, f.To)
		idx++
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count visits: %w", err)
	}

	query += fmt.Sprintf(` ORDER BY scheduled_start LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, pg.Limit, pg.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list visits: %w", err)
	}
	defer rows.Close()

	var items []*Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan visit: %w", err)
		}
		items = append(items, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate visits: %w", err)
	}
	return items, total, nil
}

func (r *repoPG) CountByStatus(ctx context.Context, from, to time.Time) ([]StatusCount, error) {
	query := `SELECT status, COUNT(*) FROM visits WHERE 1=1`
	var args []any
	idx := 1

	if !from.IsZero() {
		query += fmt.Sprintf(` AND scheduled_start >= $%d`, idx)
		args = append(args, from)
		idx++
	}
	if !to.IsZero() {
		query += fmt.Sprintf(` AND scheduled_start < $%d`, idx)
		args = append(args, to)
		idx++
	}
	query += ` GROUP BY status ORDER BY status`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count visits by status: %w", err)
	}
	defer rows.Close()

	var counts []StatusCount
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts = append(counts, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status counts: %w", err)
	}
	return counts, nil
}
