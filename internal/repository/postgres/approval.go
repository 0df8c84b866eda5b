package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/vaxtrack/registry-api/internal/model"
	"github.com/vaxtrack/registry-api/internal/repository"
)

// approvalRepository runs both halves of an approval (catalog write,
// request delete) plus the outbox event in one transaction. The request
// delete doubles as the idempotency guard: a concurrent approval that
// already consumed the request rolls the whole thing back with NotFound.
type approvalRepository struct {
	BaseRepository
}

func NewApprovalRepository(base BaseRepository) repository.ApprovalRepository {
	return &approvalRepository{base}
}

func (r *approvalRepository) CreateDiseaseFromRequest(ctx context.Context, req *model.DiseaseRequest, approver uuid.UUID) (*model.Disease, error) {
	disease := &model.Disease{
		Name:          req.Name,
		Description:   req.Description,
		AffectedAreas: req.AffectedAreas,
		Approved:      true,
		CreatedBy:     req.CreatedBy,
		ApprovedBy:    &approver,
	}
	disease.ID = uuid.New()
	disease.CreatedAt = time.Now()
	disease.UpdatedAt = time.Now()

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO diseases (` + diseaseColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`
		if _, err := tx.ExecContext(ctx, query,
			disease.ID,
			disease.Name,
			disease.Description,
			disease.AffectedAreas,
			disease.Approved,
			disease.CreatedBy,
			disease.ApprovedBy,
			disease.CreatedAt,
			disease.UpdatedAt,
		); err != nil {
			return err
		}
		if err := deleteRequestTx(ctx, tx, "disease_requests", "disease request", req.ID); err != nil {
			return err
		}
		return insertOutboxTx(ctx, tx, model.EventDiseaseApproved, disease)
	})
	if err != nil {
		return nil, mapError("disease", err)
	}
	return disease, nil
}

func (r *approvalRepository) MergeDiseaseRequest(ctx context.Context, diseaseID uuid.UUID, deltaAreas []string, requestID uuid.UUID) (*model.Disease, error) {
	var disease model.Disease
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		// Union, not replace: append only the delta.
		query := `
			UPDATE diseases
			SET affected_areas = affected_areas || $1, updated_at = $2
			WHERE id = $3
			RETURNING ` + diseaseColumns + `
		`
		if err := tx.GetContext(ctx, &disease, query, pq.StringArray(deltaAreas), time.Now(), diseaseID); err != nil {
			return err
		}
		if err := deleteRequestTx(ctx, tx, "disease_requests", "disease request", requestID); err != nil {
			return err
		}
		return insertOutboxTx(ctx, tx, model.EventDiseaseMerged, disease)
	})
	if err != nil {
		return nil, mapError("disease", err)
	}
	return &disease, nil
}

func (r *approvalRepository) CreateVaccineFromRequest(ctx context.Context, req *model.VaccineRequest, approver uuid.UUID) (*model.Vaccine, error) {
	vaccine := &model.Vaccine{
		Name:            req.Name,
		Description:     req.Description,
		DiseasesCovered: req.DiseasesCovered,
		RecommendedAge:  req.RecommendedAge,
		DosesRequired:   req.DosesRequired,
		SideEffects:     req.SideEffects,
		Approved:        true,
		CreatedBy:       req.CreatedBy,
		ApprovedBy:      &approver,
	}
	vaccine.ID = uuid.New()
	vaccine.CreatedAt = time.Now()
	vaccine.UpdatedAt = time.Now()

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO vaccines (` + vaccineColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`
		if _, err := tx.ExecContext(ctx, query,
			vaccine.ID,
			vaccine.Name,
			vaccine.Description,
			vaccine.RecommendedAge,
			vaccine.DosesRequired,
			vaccine.SideEffects,
			vaccine.Approved,
			vaccine.CreatedBy,
			vaccine.ApprovedBy,
			vaccine.CreatedAt,
			vaccine.UpdatedAt,
		); err != nil {
			return err
		}
		if err := insertCoveredDiseases(ctx, tx, "vaccine_diseases", "vaccine_id", vaccine.ID, vaccine.DiseasesCovered); err != nil {
			return err
		}
		if err := deleteRequestTx(ctx, tx, "vaccine_requests", "vaccine request", req.ID); err != nil {
			return err
		}
		return insertOutboxTx(ctx, tx, model.EventVaccineApproved, vaccine)
	})
	if err != nil {
		return nil, mapError("vaccine", err)
	}
	return vaccine, nil
}

func (r *approvalRepository) MergeVaccineRequest(ctx context.Context, vaccineID uuid.UUID, deltaDiseases []uuid.UUID, requestID uuid.UUID) (*model.Vaccine, error) {
	var vaccine model.Vaccine
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE vaccines
			SET updated_at = $1
			WHERE id = $2
			RETURNING ` + vaccineColumns + `
		`
		if err := tx.GetContext(ctx, &vaccine, query, time.Now(), vaccineID); err != nil {
			return err
		}
		if err := insertCoveredDiseases(ctx, tx, "vaccine_diseases", "vaccine_id", vaccineID, deltaDiseases); err != nil {
			return err
		}
		ids, err := coveredDiseaseIDs(ctx, tx, "vaccine_diseases", "vaccine_id", vaccineID)
		if err != nil {
			return err
		}
		vaccine.DiseasesCovered = ids
		if err := deleteRequestTx(ctx, tx, "vaccine_requests", "vaccine request", requestID); err != nil {
			return err
		}
		return insertOutboxTx(ctx, tx, model.EventVaccineMerged, vaccine)
	})
	if err != nil {
		return nil, mapError("vaccine", err)
	}
	return &vaccine, nil
}

func deleteRequestTx(ctx context.Context, tx *sqlx.Tx, table, resource string, id uuid.UUID) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRows(result, resource)
}

func insertOutboxTx(ctx context.Context, tx *sqlx.Tx, eventType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO outbox_events (id, event_type, payload, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	now := time.Now()
	_, err = tx.ExecContext(ctx, query, uuid.New(), eventType, body, model.OutboxStatusPending, now, now)
	return err
}
