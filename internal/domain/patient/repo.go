package patient

import (
	"context"
	"errors"

	"github.com/caretrack/caretrack/pkg/pagination"
)

// ErrNotFound is returned when no patient exists for the given id.
var ErrNotFound = errors.New("patient not found")

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id int64) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id int64) error
	// List returns a page of patients, optionally filtered by a name query.
	List(ctx context.Context, q string, pg pagination.Params) ([]*Patient, int, error)
}
