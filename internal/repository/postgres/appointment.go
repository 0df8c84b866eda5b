package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vaxtrack/registry-api/internal/model"
	"github.com/vaxtrack/registry-api/internal/repository"
)

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(base BaseRepository) repository.AppointmentRepository {
	return &appointmentRepository{base}
}

const appointmentColumns = `id, resident_id, vaccine_id, scheduled_at, location, dose_number, status, notes, created_at, updated_at`

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	appointment.ID = uuid.New()
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = time.Now()

	// The unique (resident, vaccine, scheduled_at) index is the only
	// guard against double booking; a violation surfaces as Conflict.
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO appointments (` + appointmentColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`
		if _, err := tx.ExecContext(ctx, query,
			appointment.ID,
			appointment.ResidentID,
			appointment.VaccineID,
			appointment.ScheduledAt,
			appointment.Location,
			appointment.DoseNumber,
			appointment.Status,
			appointment.Notes,
			appointment.CreatedAt,
			appointment.UpdatedAt,
		); err != nil {
			return err
		}
		return insertOutboxTx(ctx, tx, model.EventAppointmentCreated, appointment)
	})
	return mapError("appointment", err)
}

func (r *appointmentRepository) GetForResident(ctx context.Context, id, residentID uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE id = $1 AND resident_id = $2
	`
	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, id, residentID); err != nil {
		return nil, mapError("appointment", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) ListForResident(ctx context.Context, residentID uuid.UUID) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE resident_id = $1
		ORDER BY scheduled_at ASC
	`
	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, residentID); err != nil {
		return nil, mapError("appointments", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment, eventType string) error {
	appointment.UpdatedAt = time.Now()

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE appointments
			SET scheduled_at = $1, location = $2, dose_number = $3,
				status = $4, notes = $5, updated_at = $6
			WHERE id = $7 AND resident_id = $8
		`
		result, err := tx.ExecContext(ctx, query,
			appointment.ScheduledAt,
			appointment.Location,
			appointment.DoseNumber,
			appointment.Status,
			appointment.Notes,
			appointment.UpdatedAt,
			appointment.ID,
			appointment.ResidentID,
		)
		if err != nil {
			return err
		}
		if err := requireRows(result, "appointment"); err != nil {
			return err
		}
		return insertOutboxTx(ctx, tx, eventType, appointment)
	})
	return mapError("appointment", err)
}
