package visit

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/caretrack/caretrack/internal/platform/pipeline"
	"github.com/caretrack/caretrack/internal/platform/validate"
	"github.com/caretrack/caretrack/pkg/pagination"
)

// ErrNotOwner is returned when a caregiver touches a visit assigned to
// someone else. Managers and administrators are exempt.
var ErrNotOwner = errors.New("visit belongs to another caregiver")

type Service struct {
	visits   Repository
	validate *validator.Validate
}

func NewService(visits Repository) *Service {
	return &Service{visits: visits, validate: validate.New()}
}

func (s *Service) Create(ctx context.Context, payload *CreatePayload) (*Visit, error) {
	if err := s.validate.Struct(payload); err != nil {
		return nil, err
	}
	v := &Visit{
		PatientID:      payload.PatientID,
		CaregiverID:    payload.CaregiverID,
		ScheduledStart: payload.ScheduledStart,
		ScheduledEnd:   payload.ScheduledEnd,
		Status:         payload.Status,
		Notes:          payload.Notes,
	}
	if v.Status == "" {
		v.Status = StatusScheduled
	}
	if err := s.visits.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Visit, error) {
	return s.visits.GetByID(ctx, id)
}

// List narrows the result to the caller's own visits when the caller is a
// caregiver; managers see whatever the filter asks for.
func (s *Service) List(ctx context.Context, actor pipeline.Actor, f ListFilter, pg pagination.Params) ([]*Visit, int, error) {
	if !actor.IsManager() {
		f.CaregiverID = actor.ID
	}
	return s.visits.List(ctx, f, pg)
}

func intValue(raw any) (int64, bool) {
	switch v := raw.(type) {
	case float64:
		if v != float64(int64(v)) {
			return 0, false
		}
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func timeValue(raw any) (time.Time, bool) {
	str, ok := raw.(string)
	if !ok {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339, str)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

func (s *Service) applyFields(v *Visit, fields map[string]any) error {
	errs := validate.FieldErrors{}
	for key, raw := range fields {
		switch key {
		case "status":
			status, ok := raw.(string)
			if !ok || !validStatuses[status] {
				errs[key] = "must be one of " + strings.Join(Statuses(), ", ")
				continue
			}
			v.Status = status
		case "notes":
			notes, ok := raw.(string)
			if !ok {
				errs[key] = "must be a string"
				continue
			}
			v.Notes = notes
		case "caregiver_id":
			id, ok := intValue(raw)
			if !ok || id <= 0 {
				errs[key] = "must be a positive integer"
				continue
			}
			v.CaregiverID = id
		case "scheduled_start":
			ts, ok := timeValue(raw)
			if !ok {
				errs[key] = "must be an RFC 3339 timestamp"
				continue
			}
			v.ScheduledStart = ts
		case "scheduled_end":
			ts, ok := timeValue(raw)
			if !ok {
				errs[key] = "must be an RFC 3339 timestamp"
				continue
			}
			v.ScheduledEnd = ts
		default:
			errs[key] = "unknown field"
		}
	}
	if len(errs) == 0 && !v.ScheduledEnd.After(v.ScheduledStart) {
		errs["scheduled_end"] = "must be after scheduled_start"
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Update applies a partial update after the ownership check: caregivers
// may modify only visits assigned to them.
func (s *Service) Update(ctx context.Context, actor pipeline.Actor, id int64, fields map[string]any) (*Visit, error) {
	v, err := s.visits.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsManager() && v.CaregiverID != actor.ID {
		return nil, ErrNotOwner
	}
	if err := s.applyFields(v, fields); err != nil {
		return nil, err
	}
	if err := s.visits.Update(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) Delete(ctx context.Context, actor pipeline.Actor, id int64) error {
	v, err := s.visits.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.IsManager() && v.CaregiverID != actor.ID {
		return ErrNotOwner
	}
	return s.visits.Delete(ctx, id)
}

// Report returns visit counts per status over the given range. Statuses
// with no visits are reported as zero so the set of rows is stable.
func (s *Service) Report(ctx context.Context, from, to time.Time) ([]StatusCount, error) {
	counts, err := s.visits.CountByStatus(ctx, from, to)
	if err != nil {
		return nil, err
	}
	byStatus := make(map[string]int, len(counts))
	for _, sc := range counts {
		byStatus[sc.Status] = sc.Count
	}
	report := make([]StatusCount, 0, len(validStatuses))
	for _, status := range Statuses() {
		report = append(report, StatusCount{Status: status, Count: byStatus[status]})
	}
	return report, nil
}
