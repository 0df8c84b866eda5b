package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vaxtrack/registry-api/internal/model"
	"github.com/vaxtrack/registry-api/internal/repository"
)

type diseaseRequestRepository struct {
	BaseRepository
}

func NewDiseaseRequestRepository(base BaseRepository) repository.DiseaseRequestRepository {
	return &diseaseRequestRepository{base}
}

const diseaseRequestColumns = `id, name, description, affected_areas, created_by, created_at, updated_at`

func (r *diseaseRequestRepository) Create(ctx context.Context, req *model.DiseaseRequest) error {
	query := `
		INSERT INTO disease_requests (` + diseaseRequestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	req.ID = uuid.New()
	req.CreatedAt = time.Now()
	req.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		req.ID,
		req.Name,
		req.Description,
		req.AffectedAreas,
		req.CreatedBy,
		req.CreatedAt,
		req.UpdatedAt,
	)
	return mapError("disease request", err)
}

func (r *diseaseRequestRepository) Get(ctx context.Context, id uuid.UUID) (*model.DiseaseRequest, error) {
	query := `SELECT ` + diseaseRequestColumns + ` FROM disease_requests WHERE id = $1`
	var req model.DiseaseRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		return nil, mapError("disease request", err)
	}
	return &req, nil
}

func (r *diseaseRequestRepository) List(ctx context.Context) ([]*model.DiseaseRequest, error) {
	query := `SELECT ` + diseaseRequestColumns + ` FROM disease_requests ORDER BY created_at ASC`
	var reqs []*model.DiseaseRequest
	if err := r.db.SelectContext(ctx, &reqs, query); err != nil {
		return nil, mapError("disease requests", err)
	}
	return reqs, nil
}

func (r *diseaseRequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM disease_requests WHERE id = $1`, id)
	if err != nil {
		return mapError("disease request", err)
	}
	return requireRows(result, "disease request")
}
