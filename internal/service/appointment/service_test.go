package appointment

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaxtrack/registry-api/internal/model"
	apperrors "github.com/vaxtrack/registry-api/pkg/errors"
)

type fakeAppointmentRepo struct {
	appointments map[uuid.UUID]*model.Appointment
	lastEvent    string
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appointments: make(map[uuid.UUID]*model.Appointment)}
}

func (f *fakeAppointmentRepo) Create(ctx context.Context, appointment *model.Appointment) error {
	for _, existing := range f.appointments {
		if existing.ResidentID == appointment.ResidentID &&
			existing.VaccineID == appointment.VaccineID &&
			existing.ScheduledAt.Equal(appointment.ScheduledAt) {
			return apperrors.Conflict("appointment already exists", nil)
		}
	}
	appointment.ID = uuid.New()
	f.appointments[appointment.ID] = appointment
	f.lastEvent = model.EventAppointmentCreated
	return nil
}

func (f *fakeAppointmentRepo) GetForResident(ctx context.Context, id, residentID uuid.UUID) (*model.Appointment, error) {
	appointment, ok := f.appointments[id]
	if !ok || appointment.ResidentID != residentID {
		return nil, apperrors.NotFound("appointment", nil)
	}
	return appointment, nil
}

func (f *fakeAppointmentRepo) ListForResident(ctx context.Context, residentID uuid.UUID) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, appointment := range f.appointments {
		if appointment.ResidentID == residentID {
			out = append(out, appointment)
		}
	}
	return out, nil
}

func (f *fakeAppointmentRepo) Update(ctx context.Context, appointment *model.Appointment, eventType string) error {
	if _, ok := f.appointments[appointment.ID]; !ok {
		return apperrors.NotFound("appointment", nil)
	}
	f.appointments[appointment.ID] = appointment
	f.lastEvent = eventType
	return nil
}

type fakeVaccineCatalog struct {
	vaccines map[uuid.UUID]*model.Vaccine
}

func newFakeVaccineCatalog() *fakeVaccineCatalog {
	return &fakeVaccineCatalog{vaccines: make(map[uuid.UUID]*model.Vaccine)}
}

func (f *fakeVaccineCatalog) add(v *model.Vaccine) *model.Vaccine {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	f.vaccines[v.ID] = v
	return v
}

func (f *fakeVaccineCatalog) Create(ctx context.Context, v *model.Vaccine) error { f.add(v); return nil }

func (f *fakeVaccineCatalog) Get(ctx context.Context, id uuid.UUID) (*model.Vaccine, error) {
	v, ok := f.vaccines[id]
	if !ok {
		return nil, apperrors.NotFound("vaccine", nil)
	}
	return v, nil
}

func (f *fakeVaccineCatalog) GetApprovedByName(ctx context.Context, name string) (*model.Vaccine, error) {
	for _, v := range f.vaccines {
		if v.Approved && strings.EqualFold(v.Name, name) {
			return v, nil
		}
	}
	return nil, apperrors.NotFound("vaccine", nil)
}

func (f *fakeVaccineCatalog) Update(ctx context.Context, v *model.Vaccine) error {
	f.vaccines[v.ID] = v
	return nil
}

func (f *fakeVaccineCatalog) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.vaccines, id)
	return nil
}

func (f *fakeVaccineCatalog) List(ctx context.Context, approvedOnly bool) ([]*model.Vaccine, error) {
	var out []*model.Vaccine
	for _, v := range f.vaccines {
		if approvedOnly && !v.Approved {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeVaccineCatalog) ListApprovedByDiseases(ctx context.Context, diseaseIDs []uuid.UUID) ([]*model.Vaccine, error) {
	return nil, nil
}

// The clock is pinned mid-day so the day-boundary rule is exercised
// deterministically.
var testNow = time.Date(2025, time.March, 10, 15, 30, 0, 0, time.UTC)

type appointmentFixture struct {
	repo     *fakeAppointmentRepo
	vaccines *fakeVaccineCatalog
	service  *Service
	vaccine  *model.Vaccine
}

func newAppointmentFixture() *appointmentFixture {
	repo := newFakeAppointmentRepo()
	vaccines := newFakeVaccineCatalog()
	vaccine := vaccines.add(&model.Vaccine{
		Name:          "Dengvaxia",
		DosesRequired: 3,
		Approved:      true,
	})
	return &appointmentFixture{
		repo:     repo,
		vaccines: vaccines,
		service:  NewService(repo, vaccines, nil, func() time.Time { return testNow }),
		vaccine:  vaccine,
	}
}

func (fx *appointmentFixture) createRequest(scheduledAt time.Time) *model.CreateAppointmentRequest {
	return &model.CreateAppointmentRequest{
		VaccineID:   fx.vaccine.ID.String(),
		ScheduledAt: scheduledAt.Format(time.RFC3339),
		Location:    "Downtown Clinic",
	}
}

func TestCreateAppointment(t *testing.T) {
	fx := newAppointmentFixture()
	resident := uuid.New()

	appointment, err := fx.service.CreateAppointment(context.Background(), resident, fx.createRequest(testNow.Add(48*time.Hour)))

	require.NoError(t, err)
	assert.Equal(t, resident, appointment.ResidentID)
	assert.Equal(t, model.AppointmentStatusScheduled, appointment.Status)
	assert.Equal(t, 1, appointment.DoseNumber, "dose defaults to 1")
	assert.Equal(t, model.EventAppointmentCreated, fx.repo.lastEvent)
}

func TestCreateAppointmentExactlyMidnightTomorrow(t *testing.T) {
	fx := newAppointmentFixture()
	midnight := time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC)

	_, err := fx.service.CreateAppointment(context.Background(), uuid.New(), fx.createRequest(midnight))

	assert.NoError(t, err, "exactly midnight tomorrow is the earliest legal slot")
}

func TestCreateAppointmentLaterTodayRejected(t *testing.T) {
	fx := newAppointmentFixture()

	_, err := fx.service.CreateAppointment(context.Background(), uuid.New(), fx.createRequest(testNow.Add(2*time.Hour)))

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestCreateAppointmentPastRejected(t *testing.T) {
	fx := newAppointmentFixture()

	_, err := fx.service.CreateAppointment(context.Background(), uuid.New(), fx.createRequest(testNow.Add(-24*time.Hour)))

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestCreateAppointmentBadTimestamp(t *testing.T) {
	fx := newAppointmentFixture()
	req := fx.createRequest(testNow.Add(48 * time.Hour))
	req.ScheduledAt = "next tuesday"

	_, err := fx.service.CreateAppointment(context.Background(), uuid.New(), req)

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestCreateAppointmentUnknownVaccine(t *testing.T) {
	fx := newAppointmentFixture()
	req := fx.createRequest(testNow.Add(48 * time.Hour))
	req.VaccineID = uuid.NewString()

	_, err := fx.service.CreateAppointment(context.Background(), uuid.New(), req)

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestCreateAppointmentUnapprovedVaccine(t *testing.T) {
	fx := newAppointmentFixture()
	pending := fx.vaccines.add(&model.Vaccine{Name: "Qdenga", DosesRequired: 2})
	req := fx.createRequest(testNow.Add(48 * time.Hour))
	req.VaccineID = pending.ID.String()

	_, err := fx.service.CreateAppointment(context.Background(), uuid.New(), req)

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestCreateAppointmentDoseBounds(t *testing.T) {
	fx := newAppointmentFixture()

	for _, dose := range []int{0, -1, 4} {
		req := fx.createRequest(testNow.Add(48 * time.Hour))
		req.DoseNumber = &dose

		_, err := fx.service.CreateAppointment(context.Background(), uuid.New(), req)

		require.Error(t, err, "dose %d must be rejected", dose)
		assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
	}

	dose := 3
	req := fx.createRequest(testNow.Add(48 * time.Hour))
	req.DoseNumber = &dose

	appointment, err := fx.service.CreateAppointment(context.Background(), uuid.New(), req)

	require.NoError(t, err)
	assert.Equal(t, 3, appointment.DoseNumber)
}

func TestCreateAppointmentDuplicateSlot(t *testing.T) {
	fx := newAppointmentFixture()
	resident := uuid.New()
	slot := testNow.Add(48 * time.Hour)

	_, err := fx.service.CreateAppointment(context.Background(), resident, fx.createRequest(slot))
	require.NoError(t, err)

	_, err = fx.service.CreateAppointment(context.Background(), resident, fx.createRequest(slot))

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestGetAppointmentScopedToResident(t *testing.T) {
	fx := newAppointmentFixture()
	owner := uuid.New()

	appointment, err := fx.service.CreateAppointment(context.Background(), owner, fx.createRequest(testNow.Add(48*time.Hour)))
	require.NoError(t, err)

	_, err = fx.service.GetAppointment(context.Background(), uuid.New(), appointment.ID)

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound), "foreign appointments look missing, not forbidden")
}

func TestRescheduleAppointment(t *testing.T) {
	fx := newAppointmentFixture()
	resident := uuid.New()

	appointment, err := fx.service.CreateAppointment(context.Background(), resident, fx.createRequest(testNow.Add(48*time.Hour)))
	require.NoError(t, err)

	newSlot := testNow.Add(96 * time.Hour).Format(time.RFC3339)
	updated, err := fx.service.RescheduleAppointment(context.Background(), resident, appointment.ID, &model.RescheduleAppointmentRequest{
		ScheduledAt: &newSlot,
	})

	require.NoError(t, err)
	assert.Equal(t, newSlot, updated.ScheduledAt.Format(time.RFC3339))
	assert.Equal(t, model.EventAppointmentRescheduled, fx.repo.lastEvent)
}

func TestRescheduleRevivesCanceledAppointment(t *testing.T) {
	fx := newAppointmentFixture()
	resident := uuid.New()

	appointment, err := fx.service.CreateAppointment(context.Background(), resident, fx.createRequest(testNow.Add(48*time.Hour)))
	require.NoError(t, err)
	_, err = fx.service.CancelAppointment(context.Background(), resident, appointment.ID)
	require.NoError(t, err)

	newSlot := testNow.Add(96 * time.Hour).Format(time.RFC3339)
	updated, err := fx.service.RescheduleAppointment(context.Background(), resident, appointment.ID, &model.RescheduleAppointmentRequest{
		ScheduledAt: &newSlot,
	})

	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusScheduled, updated.Status)
}

func TestRescheduleLocationOnlyKeepsStatus(t *testing.T) {
	fx := newAppointmentFixture()
	resident := uuid.New()

	appointment, err := fx.service.CreateAppointment(context.Background(), resident, fx.createRequest(testNow.Add(48*time.Hour)))
	require.NoError(t, err)
	_, err = fx.service.CancelAppointment(context.Background(), resident, appointment.ID)
	require.NoError(t, err)

	location := "Uptown Clinic"
	updated, err := fx.service.RescheduleAppointment(context.Background(), resident, appointment.ID, &model.RescheduleAppointmentRequest{
		Location: &location,
	})

	require.NoError(t, err)
	assert.Equal(t, "Uptown Clinic", updated.Location)
	assert.Equal(t, model.AppointmentStatusCanceled, updated.Status, "status resets only when a new slot is given")
}

func TestRescheduleNothingToDo(t *testing.T) {
	fx := newAppointmentFixture()
	resident := uuid.New()

	appointment, err := fx.service.CreateAppointment(context.Background(), resident, fx.createRequest(testNow.Add(48*time.Hour)))
	require.NoError(t, err)

	_, err = fx.service.RescheduleAppointment(context.Background(), resident, appointment.ID, &model.RescheduleAppointmentRequest{})

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestReschedulePastSlotRejected(t *testing.T) {
	fx := newAppointmentFixture()
	resident := uuid.New()

	appointment, err := fx.service.CreateAppointment(context.Background(), resident, fx.createRequest(testNow.Add(48*time.Hour)))
	require.NoError(t, err)

	slot := testNow.Add(1 * time.Hour).Format(time.RFC3339)
	_, err = fx.service.RescheduleAppointment(context.Background(), resident, appointment.ID, &model.RescheduleAppointmentRequest{
		ScheduledAt: &slot,
	})

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestCancelAppointmentIdempotent(t *testing.T) {
	fx := newAppointmentFixture()
	resident := uuid.New()

	appointment, err := fx.service.CreateAppointment(context.Background(), resident, fx.createRequest(testNow.Add(48*time.Hour)))
	require.NoError(t, err)

	first, err := fx.service.CancelAppointment(context.Background(), resident, appointment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCanceled, first.Status)

	fx.repo.lastEvent = ""
	second, err := fx.service.CancelAppointment(context.Background(), resident, appointment.ID)

	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCanceled, second.Status)
	assert.Empty(t, fx.repo.lastEvent, "second cancel must not write")
}

func TestUpdateAppointmentStatus(t *testing.T) {
	fx := newAppointmentFixture()
	resident := uuid.New()

	appointment, err := fx.service.CreateAppointment(context.Background(), resident, fx.createRequest(testNow.Add(48*time.Hour)))
	require.NoError(t, err)

	updated, err := fx.service.UpdateAppointmentStatus(context.Background(), resident, appointment.ID, "completed")

	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, updated.Status)
	assert.Equal(t, model.EventAppointmentStatusChanged, fx.repo.lastEvent)
}

func TestUpdateAppointmentStatusUnknownValue(t *testing.T) {
	fx := newAppointmentFixture()
	resident := uuid.New()

	appointment, err := fx.service.CreateAppointment(context.Background(), resident, fx.createRequest(testNow.Add(48*time.Hour)))
	require.NoError(t, err)

	_, err = fx.service.UpdateAppointmentStatus(context.Background(), resident, appointment.ID, "postponed")

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestListAppointmentsOnlyOwn(t *testing.T) {
	fx := newAppointmentFixture()
	alice, bob := uuid.New(), uuid.New()

	_, err := fx.service.CreateAppointment(context.Background(), alice, fx.createRequest(testNow.Add(48*time.Hour)))
	require.NoError(t, err)
	_, err = fx.service.CreateAppointment(context.Background(), bob, fx.createRequest(testNow.Add(72*time.Hour)))
	require.NoError(t, err)

	appointments, err := fx.service.ListAppointments(context.Background(), alice)

	require.NoError(t, err)
	require.Len(t, appointments, 1)
	assert.Equal(t, alice, appointments[0].ResidentID)
}
