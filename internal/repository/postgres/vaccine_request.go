package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vaxtrack/registry-api/internal/model"
	"github.com/vaxtrack/registry-api/internal/repository"
)

type vaccineRequestRepository struct {
	BaseRepository
}

func NewVaccineRequestRepository(base BaseRepository) repository.VaccineRequestRepository {
	return &vaccineRequestRepository{base}
}

const vaccineRequestColumns = `id, name, description, recommended_age, doses_required, side_effects, created_by, created_at, updated_at`

func (r *vaccineRequestRepository) Create(ctx context.Context, req *model.VaccineRequest) error {
	req.ID = uuid.New()
	req.CreatedAt = time.Now()
	req.UpdatedAt = time.Now()

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO vaccine_requests (` + vaccineRequestColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`
		if _, err := tx.ExecContext(ctx, query,
			req.ID,
			req.Name,
			req.Description,
			req.RecommendedAge,
			req.DosesRequired,
			req.SideEffects,
			req.CreatedBy,
			req.CreatedAt,
			req.UpdatedAt,
		); err != nil {
			return err
		}
		return insertCoveredDiseases(ctx, tx, "vaccine_request_diseases", "request_id", req.ID, req.DiseasesCovered)
	})
	return mapError("vaccine request", err)
}

func (r *vaccineRequestRepository) Get(ctx context.Context, id uuid.UUID) (*model.VaccineRequest, error) {
	query := `SELECT ` + vaccineRequestColumns + ` FROM vaccine_requests WHERE id = $1`
	var req model.VaccineRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		return nil, mapError("vaccine request", err)
	}
	ids, err := coveredDiseaseIDs(ctx, r.db, "vaccine_request_diseases", "request_id", req.ID)
	if err != nil {
		return nil, mapError("vaccine request diseases", err)
	}
	req.DiseasesCovered = ids
	return &req, nil
}

func (r *vaccineRequestRepository) List(ctx context.Context) ([]*model.VaccineRequest, error) {
	query := `SELECT ` + vaccineRequestColumns + ` FROM vaccine_requests ORDER BY created_at ASC`
	var reqs []*model.VaccineRequest
	if err := r.db.SelectContext(ctx, &reqs, query); err != nil {
		return nil, mapError("vaccine requests", err)
	}
	for _, req := range reqs {
		ids, err := coveredDiseaseIDs(ctx, r.db, "vaccine_request_diseases", "request_id", req.ID)
		if err != nil {
			return nil, mapError("vaccine request diseases", err)
		}
		req.DiseasesCovered = ids
	}
	return reqs, nil
}

func (r *vaccineRequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM vaccine_requests WHERE id = $1`, id)
	if err != nil {
		return mapError("vaccine request", err)
	}
	return requireRows(result, "vaccine request")
}
