package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/caretrack/caretrack/internal/domain/address"
	"github.com/caretrack/caretrack/internal/domain/patient"
	"github.com/caretrack/caretrack/pkg/pagination"
)

func TestPatientCRUD(t *testing.T) {
	ctx := context.Background()
	repo := patient.NewPGRepo(globalPool)

	p := newTestPatient(t, ctx, "Marisol", "Vega")
	if p.ID == 0 {
		t.Fatal("create did not assign an id")
	}

	got, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.FirstName != "Marisol" || got.LastName != "Vega" {
		t.Errorf("got %s %s", got.FirstName, got.LastName)
	}

	got.Phone = "555-0199"
	got.Gender = "female"
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	again, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if again.Phone != "555-0199" || again.Gender != "female" {
		t.Errorf("update did not persist: %+v", again)
	}

	if err := repo.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, p.ID); !errors.Is(err, patient.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestPatientSearchMatchesEitherName(t *testing.T) {
	ctx := context.Background()
	repo := patient.NewPGRepo(globalPool)

	newTestPatient(t, ctx, "Quirinus", "Ashford")
	newTestPatient(t, ctx, "Beatrice", "Quirke")
	newTestPatient(t, ctx, "Plain", "Smith")

	items, total, err := repo.List(ctx, "quir", pagination.Params{Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("expected 2 matches, got total=%d len=%d", total, len(items))
	}
	for _, p := range items {
		if p.FirstName != "Quirinus" && p.LastName != "Quirke" {
			t.Errorf("unexpected match: %s %s", p.FirstName, p.LastName)
		}
	}
}

func TestAddressRequiresExistingPatient(t *testing.T) {
	ctx := context.Background()
	repo := address.NewPGRepo(globalPool)

	orphan := &address.Address{
		PatientID: 999999,
		Line1:     "1 Nowhere Lane",
		City:      "Springfield",
	}
	if err := repo.Create(ctx, orphan); !errors.Is(err, address.ErrInvalidReference) {
		t.Errorf("expected ErrInvalidReference, got %v", err)
	}
}

func TestAddressesCascadeWithPatient(t *testing.T) {
	ctx := context.Background()
	patients := patient.NewPGRepo(globalPool)
	addresses := address.NewPGRepo(globalPool)

	p := newTestPatient(t, ctx, "Cascade", "Case")
	a := &address.Address{
		PatientID: p.ID,
		Label:     "home",
		Line1:     "12 Elm St",
		City:      "Riverton",
		State:     "OR",
		Zip:       "97035",
	}
	if err := addresses.Create(ctx, a); err != nil {
		t.Fatalf("create address: %v", err)
	}

	if err := patients.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete patient: %v", err)
	}
	if _, err := addresses.GetByID(ctx, a.ID); !errors.Is(err, address.ErrNotFound) {
		t.Errorf("expected address to cascade with its patient, got %v", err)
	}
}

func TestAddressListScopedToPatient(t *testing.T) {
	ctx := context.Background()
	addresses := address.NewPGRepo(globalPool)

	p1 := newTestPatient(t, ctx, "Listed", "One")
	p2 := newTestPatient(t, ctx, "Listed", "Two")
	for _, spec := range []struct {
		pid   int64
		line1 string
	}{
		{p1.ID, "10 First Ave"},
		{p1.ID, "20 Second Ave"},
		{p2.ID, "30 Third Ave"},
	} {
		a := &address.Address{PatientID: spec.pid, Line1: spec.line1, City: "Town"}
		if err := addresses.Create(ctx, a); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	items, total, err := addresses.List(ctx, p1.ID, pagination.Params{Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("expected addresses for one patient only, got total=%d", total)
	}
	for _, a := range items {
		if a.PatientID != p1.ID {
			t.Errorf("address %d belongs to patient %d", a.ID, a.PatientID)
		}
	}
}
