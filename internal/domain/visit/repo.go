package visit

import (
	"context"
	"errors"
	"time"

	"github.com/caretrack/caretrack/pkg/pagination"
)

var (
	ErrNotFound = errors.New("visit not found")
	// ErrInvalidReference means the patient or caregiver the visit points
	// at does not exist.
	ErrInvalidReference = errors.New("referenced record not found")
)

type Repository interface {
	Create(ctx context.Context, v *Visit) error
	GetByID(ctx context.Context, id int64) (*Visit, error)
	Update(ctx context.Context, v *Visit) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*Visit, int, error)
	CountByStatus(ctx context.Context, from, to time.Time) ([]StatusCount, error)
}
