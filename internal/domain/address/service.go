package address

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/caretrack/caretrack/internal/platform/validate"
	"github.com/caretrack/caretrack/pkg/pagination"
)

type Service struct {
	addresses Repository
	validate  *validator.Validate
}

func NewService(addresses Repository) *Service {
	return &Service{addresses: addresses, validate: validate.New()}
}

func (s *Service) Create(ctx context.Context, payload *CreatePayload) (*Address, error) {
	if err := s.validate.Struct(payload); err != nil {
		return nil, err
	}
	a := &Address{
		PatientID: payload.PatientID,
		Label:     payload.Label,
		Line1:     payload.Line1,
		Line2:     payload.Line2,
		City:      payload.City,
		State:     payload.State,
		Zip:       payload.Zip,
	}
	if err := s.addresses.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Address, error) {
	return s.addresses.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, patientID int64, pg pagination.Params) ([]*Address, int, error) {
	return s.addresses.List(ctx, patientID, pg)
}

var fieldRules = map[string]string{
	"label": "omitempty,max=50",
	"line1": "required,max=200",
	"line2": "omitempty,max=200",
	"city":  "required,max=100",
	"state": "omitempty,len=2,alpha",
	"zip":   "omitempty,len=5,numeric",
}

func (s *Service) applyFields(a *Address, fields map[string]any) error {
	targets := map[string]*string{
		"label": &a.Label,
		"line1": &a.Line1,
		"line2": &a.Line2,
		"city":  &a.City,
		"state": &a.State,
		"zip":   &a.Zip,
	}

	errs := validate.FieldErrors{}
	for key, raw := range fields {
		rule, ok := fieldRules[key]
		if !ok {
			errs[key] = "unknown field"
			continue
		}
		value, ok := raw.(string)
		if !ok {
			errs[key] = "must be a string"
			continue
		}
		if reason := validate.VarReason(s.validate, value, rule); reason != "" {
			errs[key] = reason
			continue
		}
		*targets[key] = value
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (s *Service) Update(ctx context.Context, id int64, fields map[string]any) (*Address, error) {
	a, err := s.addresses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyFields(a, fields); err != nil {
		return nil, err
	}
	if err := s.addresses.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.addresses.Delete(ctx, id)
}
