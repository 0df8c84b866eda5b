package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vaxtrack/registry-api/internal/model"
)

// All repository interfaces in one file
type (
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.User, error)
	}

	DiseaseRepository interface {
		Create(ctx context.Context, disease *model.Disease) error
		Get(ctx context.Context, id uuid.UUID) (*model.Disease, error)
		// GetApprovedByName matches approved diseases case-insensitively.
		GetApprovedByName(ctx context.Context, name string) (*model.Disease, error)
		Update(ctx context.Context, disease *model.Disease) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, approvedOnly bool) ([]*model.Disease, error)
		ListByArea(ctx context.Context, area string) ([]*model.Disease, error)
		// CountApproved returns how many of the given ids reference an
		// approved disease.
		CountApproved(ctx context.Context, ids []uuid.UUID) (int, error)
	}

	DiseaseRequestRepository interface {
		Create(ctx context.Context, req *model.DiseaseRequest) error
		Get(ctx context.Context, id uuid.UUID) (*model.DiseaseRequest, error)
		List(ctx context.Context) ([]*model.DiseaseRequest, error)
		Delete(ctx context.Context, id uuid.UUID) error
	}

	VaccineRepository interface {
		Create(ctx context.Context, vaccine *model.Vaccine) error
		Get(ctx context.Context, id uuid.UUID) (*model.Vaccine, error)
		GetApprovedByName(ctx context.Context, name string) (*model.Vaccine, error)
		Update(ctx context.Context, vaccine *model.Vaccine) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, approvedOnly bool) ([]*model.Vaccine, error)
		// ListApprovedByDiseases returns approved vaccines covering any
		// of the given diseases.
		ListApprovedByDiseases(ctx context.Context, diseaseIDs []uuid.UUID) ([]*model.Vaccine, error)
	}

	VaccineRequestRepository interface {
		Create(ctx context.Context, req *model.VaccineRequest) error
		Get(ctx context.Context, id uuid.UUID) (*model.VaccineRequest, error)
		List(ctx context.Context) ([]*model.VaccineRequest, error)
		Delete(ctx context.Context, id uuid.UUID) error
	}

	// ApprovalRepository performs the two-step approval writes (mutate
	// catalog, retire request) atomically, together with the outbox
	// event for the outcome.
	ApprovalRepository interface {
		CreateDiseaseFromRequest(ctx context.Context, req *model.DiseaseRequest, approver uuid.UUID) (*model.Disease, error)
		MergeDiseaseRequest(ctx context.Context, diseaseID uuid.UUID, deltaAreas []string, requestID uuid.UUID) (*model.Disease, error)
		CreateVaccineFromRequest(ctx context.Context, req *model.VaccineRequest, approver uuid.UUID) (*model.Vaccine, error)
		MergeVaccineRequest(ctx context.Context, vaccineID uuid.UUID, deltaDiseases []uuid.UUID, requestID uuid.UUID) (*model.Vaccine, error)
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		// GetForResident scopes the lookup to the owning resident; a
		// foreign id is indistinguishable from a missing one.
		GetForResident(ctx context.Context, id, residentID uuid.UUID) (*model.Appointment, error)
		ListForResident(ctx context.Context, residentID uuid.UUID) ([]*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment, eventType string) error
	}

	OutboxRepository interface {
		FetchPendingWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, event *model.OutboxEvent, errMsg string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
