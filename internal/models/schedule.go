package models

import "time"

// Shift kinds stored per assignment row.
const (
	ShiftTypeDay   = "day"
	ShiftTypeNight = "night"
)

// ShiftAssignment is one persisted duty row of an accepted roster.
type ShiftAssignment struct {
	ID          int64     `db:"id" json:"id"`
	Year        int       `db:"year" json:"year"`
	Month       int       `db:"month" json:"month"`
	Day         int       `db:"day" json:"day"`
	ShiftType   string    `db:"shift_type" json:"shiftType"`
	DoctorIndex int       `db:"doctor_index" json:"doctorIndex"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}
