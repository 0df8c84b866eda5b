package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/vaxtrack/registry-api/internal/model"
	"github.com/vaxtrack/registry-api/internal/repository"
)

type diseaseRepository struct {
	BaseRepository
}

func NewDiseaseRepository(base BaseRepository) repository.DiseaseRepository {
	return &diseaseRepository{base}
}

const diseaseColumns = `id, name, description, affected_areas, approved, created_by, approved_by, created_at, updated_at`

func (r *diseaseRepository) Create(ctx context.Context, disease *model.Disease) error {
	query := `
		INSERT INTO diseases (` + diseaseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	disease.ID = uuid.New()
	disease.CreatedAt = time.Now()
	disease.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		disease.ID,
		disease.Name,
		disease.Description,
		disease.AffectedAreas,
		disease.Approved,
		disease.CreatedBy,
		disease.ApprovedBy,
		disease.CreatedAt,
		disease.UpdatedAt,
	)
	return mapError("disease", err)
}

func (r *diseaseRepository) Get(ctx context.Context, id uuid.UUID) (*model.Disease, error) {
	query := `SELECT ` + diseaseColumns + ` FROM diseases WHERE id = $1`
	var disease model.Disease
	if err := r.db.GetContext(ctx, &disease, query, id); err != nil {
		return nil, mapError("disease", err)
	}
	return &disease, nil
}

func (r *diseaseRepository) GetApprovedByName(ctx context.Context, name string) (*model.Disease, error) {
	query := `
		SELECT ` + diseaseColumns + `
		FROM diseases
		WHERE approved = TRUE AND LOWER(name) = LOWER($1)
	`
	var disease model.Disease
	if err := r.db.GetContext(ctx, &disease, query, name); err != nil {
		return nil, mapError("disease", err)
	}
	return &disease, nil
}

func (r *diseaseRepository) Update(ctx context.Context, disease *model.Disease) error {
	query := `
		UPDATE diseases
		SET name = $1, description = $2, affected_areas = $3,
			approved = $4, approved_by = $5, updated_at = $6
		WHERE id = $7
	`
	disease.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		disease.Name,
		disease.Description,
		disease.AffectedAreas,
		disease.Approved,
		disease.ApprovedBy,
		disease.UpdatedAt,
		disease.ID,
	)
	if err != nil {
		return mapError("disease", err)
	}
	return requireRows(result, "disease")
}

func (r *diseaseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM diseases WHERE id = $1`, id)
	if err != nil {
		return mapError("disease", err)
	}
	return requireRows(result, "disease")
}

func (r *diseaseRepository) List(ctx context.Context, approvedOnly bool) ([]*model.Disease, error) {
	query := `SELECT ` + diseaseColumns + ` FROM diseases`
	if approvedOnly {
		query += ` WHERE approved = TRUE`
	}
	query += ` ORDER BY name ASC`

	var diseases []*model.Disease
	if err := r.db.SelectContext(ctx, &diseases, query); err != nil {
		return nil, mapError("diseases", err)
	}
	return diseases, nil
}

func (r *diseaseRepository) ListByArea(ctx context.Context, area string) ([]*model.Disease, error) {
	// Areas are matched case-insensitively against the stored set.
	query := `
		SELECT ` + diseaseColumns + `
		FROM diseases
		WHERE approved = TRUE
		AND EXISTS (
			SELECT 1 FROM unnest(affected_areas) AS area
			WHERE LOWER(area) = LOWER($1)
		)
		ORDER BY name ASC
	`
	var diseases []*model.Disease
	if err := r.db.SelectContext(ctx, &diseases, query, area); err != nil {
		return nil, mapError("diseases", err)
	}
	return diseases, nil
}

func (r *diseaseRepository) CountApproved(ctx context.Context, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `
		SELECT COUNT(*) FROM diseases
		WHERE approved = TRUE AND id = ANY($1)
	`
	var count int
	if err := r.db.GetContext(ctx, &count, query, pq.Array(ids)); err != nil {
		return 0, mapError("diseases", err)
	}
	return count, nil
}
