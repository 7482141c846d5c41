package patient

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/caretrack/caretrack/internal/platform/blobstore"
	"github.com/caretrack/caretrack/internal/platform/pipeline"
	"github.com/caretrack/caretrack/internal/platform/validate"
	"github.com/caretrack/caretrack/pkg/pagination"
)

// Service owns patient business rules. Photo bytes live in the blob
// store; the patients table only carries the object name.
type Service struct {
	patients Repository
	photos   blobstore.Store
	validate *validator.Validate
}

func NewService(patients Repository, photos blobstore.Store) *Service {
	return &Service{patients: patients, photos: photos, validate: validate.New()}
}

func (s *Service) Create(ctx context.Context, payload *CreatePayload) (*Patient, error) {
	if err := s.validate.Struct(payload); err != nil {
		return nil, err
	}
	p := &Patient{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		BirthDate: payload.BirthDate,
		Gender:    payload.Gender,
		SSN:       payload.SSN,
		Phone:     payload.Phone,
		Email:     payload.Email,
		Notes:     payload.Notes,
	}
	if err := s.patients.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, q string, pg pagination.Params) ([]*Patient, int, error) {
	return s.patients.List(ctx, q, pg)
}

// fieldRules is the allow list for partial updates. Every key maps to
// the validation rule its value must satisfy.
var fieldRules = map[string]string{
	"first_name": "required,max=100",
	"last_name":  "required,max=100",
	"birth_date": "omitempty,datetime=2006-01-02",
	"gender":     "omitempty,oneof=male female other unknown",
	"ssn":        "omitempty,len=11",
	"phone":      "omitempty,max=32",
	"email":      "omitempty,email",
	"notes":      "",
}

func (s *Service) applyFields(p *Patient, fields map[string]any) error {
	targets := map[string]*string{
		"first_name": &p.FirstName,
		"last_name":  &p.LastName,
		"birth_date": &p.BirthDate,
		"gender":     &p.Gender,
		"ssn":        &p.SSN,
		"phone":      &p.Phone,
		"email":      &p.Email,
		"notes":      &p.Notes,
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
		if rule != "" {
			if reason := validate.VarReason(s.validate, value, rule); reason != "" {
				errs[key] = reason
				continue
			}
		}
		*targets[key] = value
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (s *Service) Update(ctx context.Context, id int64, fields map[string]any) (*Patient, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyFields(p, fields); err != nil {
		return nil, err
	}
	if err := s.patients.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.patients.Delete(ctx, id)
}

// AttachPhoto stores a new photo and swaps it in. The previous object
// is removed only after the record points at the new one.
func (s *Service) AttachPhoto(ctx context.Context, id int64, content io.Reader) (*Patient, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	object, err := s.photos.Save(ctx, content)
	if err != nil {
		switch {
		case errors.Is(err, blobstore.ErrTooLarge):
			return nil, pipeline.NewError(http.StatusRequestEntityTooLarge, "Photo exceeds the maximum allowed size")
		case errors.Is(err, blobstore.ErrUnsupportedFormat):
			return nil, pipeline.NewError(http.StatusUnsupportedMediaType, "Photo must be a JPEG, PNG or WebP image")
		}
		return nil, err
	}

	previous := p.Photo
	p.Photo = object
	if err := s.patients.Update(ctx, p); err != nil {
		_ = s.photos.Remove(ctx, object)
		return nil, err
	}
	if previous != "" {
		_ = s.photos.Remove(ctx, previous)
	}
	return p, nil
}

func (s *Service) OpenPhoto(ctx context.Context, id int64) (io.ReadCloser, string, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if p.Photo == "" {
		return nil, "", ErrNotFound
	}
	f, contentType, err := s.photos.Open(ctx, p.Photo)
	if errors.Is(err, blobstore.ErrNotFound) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}
	return f, contentType, nil
}
