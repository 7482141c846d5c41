package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/caretrack/caretrack/internal/domain/visit"
	"github.com/caretrack/caretrack/internal/platform/pipeline"
	"github.com/caretrack/caretrack/pkg/pagination"
)

func TestVisitForeignKeysEnforced(t *testing.T) {
	ctx := context.Background()
	repo := visit.NewPGRepo(globalPool)
	caregiver := newTestUser(t, ctx, pipeline.TierCaregiver)
	p := newTestPatient(t, ctx, "Ref", "Check")
	start := time.Now().Add(24 * time.Hour)

	ghostPatient := &visit.Visit{
		PatientID:      999999,
		CaregiverID:    caregiver.ID,
		ScheduledStart: start,
		ScheduledEnd:   start.Add(time.Hour),
		Status:         visit.StatusScheduled,
	}
	if err := repo.Create(ctx, ghostPatient); !errors.Is(err, visit.ErrInvalidReference) {
		t.Errorf("missing patient: expected ErrInvalidReference, got %v", err)
	}

	ghostCaregiver := &visit.Visit{
		PatientID:      p.ID,
		CaregiverID:    999999,
		ScheduledStart: start,
		ScheduledEnd:   start.Add(time.Hour),
		Status:         visit.StatusScheduled,
	}
	if err := repo.Create(ctx, ghostCaregiver); !errors.Is(err, visit.ErrInvalidReference) {
		t.Errorf("missing caregiver: expected ErrInvalidReference, got %v", err)
	}
}

func TestVisitListFilters(t *testing.T) {
	ctx := context.Background()
	repo := visit.NewPGRepo(globalPool)
	alice := newTestUser(t, ctx, pipeline.TierCaregiver)
	bob := newTestUser(t, ctx, pipeline.TierCaregiver)
	p := newTestPatient(t, ctx, "Filter", "Case")

	base := time.Date(2030, 3, 10, 9, 0, 0, 0, time.UTC)
	early := newTestVisit(t, ctx, p.ID, alice.ID, base)
	late := newTestVisit(t, ctx, p.ID, alice.ID, base.Add(48*time.Hour))
	newTestVisit(t, ctx, p.ID, bob.ID, base)

	mine, total, err := repo.List(ctx, visit.ListFilter{CaregiverID: alice.ID}, pagination.Params{Limit: 10})
	if err != nil {
		t.Fatalf("list by caregiver: %v", err)
	}
	if total != 2 || len(mine) != 2 {
		t.Fatalf("caregiver filter: expected 2 visits, got %d", total)
	}
	for _, v := range mine {
		if v.CaregiverID != alice.ID {
			t.Errorf("visit %d belongs to caregiver %d", v.ID, v.CaregiverID)
		}
	}

	// Ordered by start time.
	if mine[0].ID != early.ID || mine[1].ID != late.ID {
		t.Errorf("expected start-time order, got %d then %d", mine[0].ID, mine[1].ID)
	}

	windowed, total, err := repo.List(ctx, visit.ListFilter{
		CaregiverID: alice.ID,
		From:        base.Add(24 * time.Hour),
		To:          base.Add(72 * time.Hour),
	}, pagination.Params{Limit: 10})
	if err != nil {
		t.Fatalf("list by window: %v", err)
	}
	if total != 1 || windowed[0].ID != late.ID {
		t.Errorf("window filter: expected only the later visit, got total=%d", total)
	}
}

func TestVisitStatusReport(t *testing.T) {
	ctx := context.Background()
	repo := visit.NewPGRepo(globalPool)
	caregiver := newTestUser(t, ctx, pipeline.TierCaregiver)
	p := newTestPatient(t, ctx, "Report", "Case")

	// Use a window far from the other tests' data.
	base := time.Date(2031, 7, 1, 8, 0, 0, 0, time.UTC)
	for i, status := range []string{
		visit.StatusScheduled,
		visit.StatusScheduled,
		visit.StatusCompleted,
		visit.StatusCancelled,
	} {
		v := newTestVisit(t, ctx, p.ID, caregiver.ID, base.Add(time.Duration(i)*2*time.Hour))
		v.Status = status
		if err := repo.Update(ctx, v); err != nil {
			t.Fatalf("set status: %v", err)
		}
	}

	counts, err := repo.CountByStatus(ctx, base, base.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("count by status: %v", err)
	}

	got := map[string]int{}
	for _, c := range counts {
		got[c.Status] = c.Count
	}
	want := map[string]int{
		visit.StatusScheduled: 2,
		visit.StatusCompleted: 1,
		visit.StatusCancelled: 1,
	}
	for status, n := range want {
		if got[status] != n {
			t.Errorf("%s = %d, want %d", status, got[status], n)
		}
	}
}

func TestVisitUpdateAndDeleteMissing(t *testing.T) {
	ctx := context.Background()
	repo := visit.NewPGRepo(globalPool)

	start := time.Now().Add(24 * time.Hour)
	ghost := &visit.Visit{
		ID:             999999,
		PatientID:      1,
		CaregiverID:    1,
		ScheduledStart: start,
		ScheduledEnd:   start.Add(time.Hour),
		Status:         visit.StatusScheduled,
	}
	if err := repo.Update(ctx, ghost); !errors.Is(err, visit.ErrNotFound) {
		t.Errorf("update: expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, 999999); !errors.Is(err, visit.ErrNotFound) {
		t.Errorf("delete: expected ErrNotFound, got %v", err)
	}
}
