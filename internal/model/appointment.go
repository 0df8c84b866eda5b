package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCanceled  AppointmentStatus = "canceled"
)

// Valid reports whether the status is one of the three known values.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusScheduled, AppointmentStatusCompleted, AppointmentStatusCanceled:
		return true
	}
	return false
}

// Appointment belongs to exactly one resident and references exactly
// one vaccine. At most one appointment exists per
// (resident, vaccine, scheduled_at) triple.
type Appointment struct {
	Base
	ResidentID  uuid.UUID         `json:"resident_id" db:"resident_id"`
	VaccineID   uuid.UUID         `json:"vaccine_id" db:"vaccine_id"`
	ScheduledAt time.Time         `json:"scheduled_at" db:"scheduled_at"`
	Location    string            `json:"location" db:"location"`
	DoseNumber  int               `json:"dose_number" db:"dose_number"`
	Status      AppointmentStatus `json:"status" db:"status"`
	Notes       *string           `json:"notes,omitempty" db:"notes"`
}

type CreateAppointmentRequest struct {
	VaccineID   string  `json:"vaccine_id" binding:"required,uuid"`
	ScheduledAt string  `json:"scheduled_at" binding:"required"`
	Location    string  `json:"location" binding:"required,notblank"`
	DoseNumber  *int    `json:"dose_number"`
	Notes       *string `json:"notes"`
}

type RescheduleAppointmentRequest struct {
	ScheduledAt *string `json:"scheduled_at"`
	Location    *string `json:"location"`
}

type UpdateAppointmentStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
