package integration

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caretrack/caretrack/internal/domain/patient"
	"github.com/caretrack/caretrack/internal/domain/user"
	"github.com/caretrack/caretrack/internal/domain/visit"
	"github.com/caretrack/caretrack/internal/platform/db"
	"github.com/caretrack/caretrack/internal/platform/pipeline"
)

// globalPool is the shared database for the whole package, initialized once
// in TestMain against a throwaway postgres container.
var globalPool *pgxpool.Pool

func TestMain(m *testing.M) {
	if _, err := exec.LookPath("docker"); err != nil {
		fmt.Fprintln(os.Stderr, "integration tests need the docker CLI; skipping")
		os.Exit(0)
	}

	ctx := context.Background()
	connStr, cleanup, err := startPostgresContainer(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start postgres container: %v\n", err)
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		cleanup()
		fmt.Fprintf(os.Stderr, "failed to create pool: %v\n", err)
		os.Exit(1)
	}

	if _, err := db.NewMigrator(pool, migrationsDir()).Up(ctx); err != nil {
		pool.Close()
		cleanup()
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		os.Exit(1)
	}

	globalPool = pool
	code := m.Run()
	pool.Close()
	cleanup()
	os.Exit(code)
}

// migrationsDir locates ../../migrations relative to this file.
func migrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations")
}

// newTestUser inserts an active account at the given tier.
func newTestUser(t *testing.T, ctx context.Context, tier pipeline.Tier) *user.User {
	t.Helper()
	u := &user.User{
		Email:        fmt.Sprintf("%s@caretrack.test", uuid.New().String()[:8]),
		PasswordHash: "not-a-real-hash",
		FirstName:    "Test",
		LastName:     "User",
		Tier:         tier,
		Active:       true,
	}
	if err := user.NewPGRepo(globalPool).Create(ctx, u); err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return u
}

// newTestPatient inserts a patient record.
func newTestPatient(t *testing.T, ctx context.Context, first, last string) *patient.Patient {
	t.Helper()
	p := &patient.Patient{FirstName: first, LastName: last}
	if err := patient.NewPGRepo(globalPool).Create(ctx, p); err != nil {
		t.Fatalf("create test patient: %v", err)
	}
	return p
}

// newTestVisit schedules a one-hour visit starting at start.
func newTestVisit(t *testing.T, ctx context.Context, patientID, caregiverID int64, start time.Time) *visit.Visit {
	t.Helper()
	v := &visit.Visit{
		PatientID:      patientID,
		CaregiverID:    caregiverID,
		ScheduledStart: start,
		ScheduledEnd:   start.Add(time.Hour),
		Status:         visit.StatusScheduled,
	}
	if err := visit.NewPGRepo(globalPool).Create(ctx, v); err != nil {
		t.Fatalf("create test visit: %v", err)
	}
	return v
}
