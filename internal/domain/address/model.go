package address

import "time"

// Address is a care location on file for a patient. Patients routinely
// have more than one (home, family, facility), hence the label.
type Address struct {
	ID        int64     `db:"id" json:"id"`
	PatientID int64     `db:"patient_id" json:"patient_id"`
	Label     string    `db:"label" json:"label,omitempty"`
	Line1     string    `db:"line1" json:"line1"`
	Line2     string    `db:"line2" json:"line2,omitempty"`
	City      string    `db:"city" json:"city"`
	State     string    `db:"state" json:"state,omitempty"`
	Zip       string    `db:"zip" json:"zip,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type CreatePayload struct {
	PatientID int64  `json:"patient_id" validate:"required"`
	Label     string `json:"label" validate:"omitempty,max=50"`
	Line1     string `json:"line1" validate:"required,max=200"`
	Line2     string `json:"line2" validate:"omitempty,max=200"`
	City      string `json:"city" validate:"required,max=100"`
	State     string `json:"state" validate:"omitempty,len=2,alpha"`
	Zip       string `json:"zip" validate:"omitempty,len=5,numeric"`
}
