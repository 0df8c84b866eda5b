package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vaxtrack/registry-api/internal/model"
	"github.com/vaxtrack/registry-api/internal/repository"
	apperrors "github.com/vaxtrack/registry-api/pkg/errors"
	"github.com/vaxtrack/registry-api/pkg/metrics"
)

const defaultDoseNumber = 1

// Legal status transitions. Listing them explicitly keeps the policy
// visible even where every transition happens to be permitted.
var statusTransitions = map[model.AppointmentStatus][]model.AppointmentStatus{
	model.AppointmentStatusScheduled: {
		model.AppointmentStatusScheduled,
		model.AppointmentStatusCompleted,
		model.AppointmentStatusCanceled,
	},
	model.AppointmentStatusCompleted: {
		model.AppointmentStatusScheduled,
		model.AppointmentStatusCompleted,
		model.AppointmentStatusCanceled,
	},
	model.AppointmentStatusCanceled: {
		model.AppointmentStatusScheduled,
		model.AppointmentStatusCompleted,
		model.AppointmentStatusCanceled,
	},
}

func transitionAllowed(from, to model.AppointmentStatus) bool {
	for _, status := range statusTransitions[from] {
		if status == to {
			return true
		}
	}
	return false
}

// Service validates and mutates appointment records for the owning
// resident. The clock is injected so the day-boundary rule is testable.
type Service struct {
	repo     repository.AppointmentRepository
	vaccines repository.VaccineRepository
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewService builds the appointment service. metrics may be nil in
// tests; a nil clock falls back to time.Now.
func NewService(repo repository.AppointmentRepository, vaccines repository.VaccineRepository, m *metrics.Metrics, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:     repo,
		vaccines: vaccines,
		metrics:  m,
		now:      now,
	}
}

// validateScheduledAt enforces the "tomorrow or later" rule: the slot
// must not precede the start of the calendar day after today. Exactly
// midnight tomorrow is accepted.
func (s *Service) validateScheduledAt(scheduledAt time.Time) error {
	now := s.now()
	startOfTomorrow := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	if scheduledAt.Before(startOfTomorrow) {
		return apperrors.NewValidation("appointment must be scheduled for tomorrow or later")
	}
	return nil
}

func parseScheduledAt(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, apperrors.NewValidation("scheduled_at must be a valid RFC 3339 timestamp")
	}
	return t, nil
}

func (s *Service) CreateAppointment(ctx context.Context, resident uuid.UUID, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	vaccineID, err := uuid.Parse(req.VaccineID)
	if err != nil {
		return nil, apperrors.NewValidation("invalid vaccine id")
	}

	vaccine, err := s.vaccines.Get(ctx, vaccineID)
	if err != nil {
		return nil, err
	}
	if !vaccine.Approved {
		return nil, apperrors.NotFound("vaccine", nil)
	}

	scheduledAt, err := parseScheduledAt(req.ScheduledAt)
	if err != nil {
		return nil, err
	}
	if err := s.validateScheduledAt(scheduledAt); err != nil {
		return nil, err
	}

	dose := defaultDoseNumber
	if req.DoseNumber != nil {
		dose = *req.DoseNumber
	}
	if dose < 1 || dose > vaccine.DosesRequired {
		return nil, apperrors.NewValidation("dose number out of range for this vaccine")
	}

	appointment := &model.Appointment{
		ResidentID:  resident,
		VaccineID:   vaccineID,
		ScheduledAt: scheduledAt,
		Location:    req.Location,
		DoseNumber:  dose,
		Status:      model.AppointmentStatusScheduled,
		Notes:       req.Notes,
	}
	if err := s.repo.Create(ctx, appointment); err != nil {
		if s.metrics != nil && apperrors.Is(err, apperrors.ErrConflict) {
			s.metrics.AppointmentConflict.Inc()
		}
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.AppointmentsBooked.Inc()
	}
	return appointment, nil
}

func (s *Service) GetAppointment(ctx context.Context, resident, id uuid.UUID) (*model.Appointment, error) {
	return s.repo.GetForResident(ctx, id, resident)
}

func (s *Service) ListAppointments(ctx context.Context, resident uuid.UUID) ([]*model.Appointment, error) {
	return s.repo.ListForResident(ctx, resident)
}

// RescheduleAppointment replaces the slot and/or location. A new slot
// resets the status to scheduled, which deliberately revives canceled
// and completed appointments.
func (s *Service) RescheduleAppointment(ctx context.Context, resident, id uuid.UUID, req *model.RescheduleAppointmentRequest) (*model.Appointment, error) {
	if req.ScheduledAt == nil && req.Location == nil {
		return nil, apperrors.NewValidation("nothing to reschedule")
	}

	appointment, err := s.repo.GetForResident(ctx, id, resident)
	if err != nil {
		return nil, err
	}

	if req.ScheduledAt != nil {
		scheduledAt, err := parseScheduledAt(*req.ScheduledAt)
		if err != nil {
			return nil, err
		}
		if err := s.validateScheduledAt(scheduledAt); err != nil {
			return nil, err
		}
		appointment.ScheduledAt = scheduledAt
		appointment.Status = model.AppointmentStatusScheduled
	}
	if req.Location != nil {
		appointment.Location = *req.Location
	}

	if err := s.repo.Update(ctx, appointment, model.EventAppointmentRescheduled); err != nil {
		return nil, err
	}
	return appointment, nil
}

// CancelAppointment is idempotent: canceling an already-canceled
// appointment succeeds without a write.
func (s *Service) CancelAppointment(ctx context.Context, resident, id uuid.UUID) (*model.Appointment, error) {
	appointment, err := s.repo.GetForResident(ctx, id, resident)
	if err != nil {
		return nil, err
	}

	if appointment.Status == model.AppointmentStatusCanceled {
		return appointment, nil
	}

	appointment.Status = model.AppointmentStatusCanceled
	if err := s.repo.Update(ctx, appointment, model.EventAppointmentCanceled); err != nil {
		return nil, err
	}
	return appointment, nil
}

func (s *Service) UpdateAppointmentStatus(ctx context.Context, resident, id uuid.UUID, status string) (*model.Appointment, error) {
	next := model.AppointmentStatus(status)
	if !next.Valid() {
		return nil, apperrors.NewValidation("status must be scheduled, completed or canceled")
	}

	appointment, err := s.repo.GetForResident(ctx, id, resident)
	if err != nil {
		return nil, err
	}

	if !transitionAllowed(appointment.Status, next) {
		return nil, apperrors.NewValidation("status transition not allowed")
	}

	appointment.Status = next
	if err := s.repo.Update(ctx, appointment, model.EventAppointmentStatusChanged); err != nil {
		return nil, err
	}
	return appointment, nil
}
