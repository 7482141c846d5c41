package patient

import "time"

// Patient is a person receiving care. Photo holds a blobstore object name,
// never image bytes.
type Patient struct {
	ID        int64     `db:"id" json:"id"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	BirthDate string    `db:"birth_date" json:"birth_date,omitempty"`
	Gender    string    `db:"gender" json:"gender,omitempty"`
	SSN       string    `db:"ssn" json:"ssn,omitempty"`
	Phone     string    `db:"phone" json:"phone,omitempty"`
	Email     string    `db:"email" json:"email,omitempty"`
	Photo     string    `db:"photo" json:"photo,omitempty"`
	Notes     string    `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CreatePayload carries the fields accepted when registering a patient.
type CreatePayload struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	BirthDate string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Gender    string `json:"gender" validate:"omitempty,oneof=male female other unknown"`
	SSN       string `json:"ssn" validate:"omitempty,len=11"`
	Phone     string `json:"phone" validate:"omitempty,max=32"`
	Email     string `json:"email" validate:"omitempty,email"`
	Notes     string `json:"notes"`
}
