package visit

import "time"

// Visit is one scheduled home-care appointment. CaregiverID is the staff
// account responsible for carrying it out; ownership checks key off it.
type Visit struct {
	ID             int64     `db:"id" json:"id"`
	PatientID      int64     `db:"patient_id" json:"patient_id"`
	CaregiverID    int64     `db:"caregiver_id" json:"caregiver_id"`
	ScheduledStart time.Time `db:"scheduled_start" json:"scheduled_start"`
	ScheduledEnd   time.Time `db:"scheduled_end" json:"scheduled_end"`
	Status         string    `db:"status" json:"status"`
	Notes          string    `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

const (
	StatusScheduled  = "scheduled"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
	StatusMissed     = "missed"
)

var validStatuses = map[string]bool{
	StatusScheduled:  true,
	StatusInProgress: true,
	StatusCompleted:  true,
	StatusCancelled:  true,
	StatusMissed:     true,
}

// Statuses lists the accepted visit states in lifecycle order.
func Statuses() []string {
	return []string{StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled, StatusMissed}
}

type CreatePayload struct {
	PatientID      int64     `json:"patient_id" validate:"required"`
	CaregiverID    int64     `json:"caregiver_id" validate:"required"`
	ScheduledStart time.Time `json:"scheduled_start" validate:"required"`
	ScheduledEnd   time.Time `json:"scheduled_end" validate:"required,gtfield=ScheduledStart"`
	Status         string    `json:"status" validate:"omitempty,oneof=scheduled in_progress completed cancelled missed"`
	Notes          string    `json:"notes"`
}

// ListFilter narrows a visit listing. Zero values mean "no constraint".
type ListFilter struct {
	PatientID   int64
	CaregiverID int64
	Status      string
	From        time.Time
	To          time.Time
}

// StatusCount is one row of the visits report.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}
