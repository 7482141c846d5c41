package address

import (
	"context"
	"errors"

	"github.com/caretrack/caretrack/pkg/pagination"
)

var (
	ErrNotFound = errors.New("address not found")
	// ErrInvalidReference means the patient the address points at does
	// not exist.
	ErrInvalidReference = errors.New("referenced patient not found")
)

type Repository interface {
	Create(ctx context.Context, a *Address) error
	GetByID(ctx context.Context, id int64) (*Address, error)
	Update(ctx context.Context, a *Address) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, patientID int64, pg pagination.Params) ([]*Address, int, error)
}
