package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/vaxtrack/registry-api/internal/model"
	"github.com/vaxtrack/registry-api/internal/repository"
)

type vaccineRepository struct {
	BaseRepository
}

func NewVaccineRepository(base BaseRepository) repository.VaccineRepository {
	return &vaccineRepository{base}
}

const vaccineColumns = `id, name, description, recommended_age, doses_required, side_effects, approved, created_by, approved_by, created_at, updated_at`

func (r *vaccineRepository) Create(ctx context.Context, vaccine *model.Vaccine) error {
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
		return insertCoveredDiseases(ctx, tx, "vaccine_diseases", "vaccine_id", vaccine.ID, vaccine.DiseasesCovered)
	})
	return mapError("vaccine", err)
}

func (r *vaccineRepository) Get(ctx context.Context, id uuid.UUID) (*model.Vaccine, error) {
	query := `SELECT ` + vaccineColumns + ` FROM vaccines WHERE id = $1`
	var vaccine model.Vaccine
	if err := r.db.GetContext(ctx, &vaccine, query, id); err != nil {
		return nil, mapError("vaccine", err)
	}
	if err := r.loadCovered(ctx, &vaccine); err != nil {
		return nil, err
	}
	return &vaccine, nil
}

func (r *vaccineRepository) GetApprovedByName(ctx context.Context, name string) (*model.Vaccine, error) {
	query := `
		SELECT ` + vaccineColumns + `
		FROM vaccines
		WHERE approved = TRUE AND LOWER(name) = LOWER($1)
	`
	var vaccine model.Vaccine
	if err := r.db.GetContext(ctx, &vaccine, query, name); err != nil {
		return nil, mapError("vaccine", err)
	}
	if err := r.loadCovered(ctx, &vaccine); err != nil {
		return nil, err
	}
	return &vaccine, nil
}

func (r *vaccineRepository) Update(ctx context.Context, vaccine *model.Vaccine) error {
	vaccine.UpdatedAt = time.Now()

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE vaccines
			SET name = $1, description = $2, recommended_age = $3,
				doses_required = $4, side_effects = $5, approved = $6,
				approved_by = $7, updated_at = $8
			WHERE id = $9
		`
		result, err := tx.ExecContext(ctx, query,
			vaccine.Name,
			vaccine.Description,
			vaccine.RecommendedAge,
			vaccine.DosesRequired,
			vaccine.SideEffects,
			vaccine.Approved,
			vaccine.ApprovedBy,
			vaccine.UpdatedAt,
			vaccine.ID,
		)
		if err != nil {
			return err
		}
		if err := requireRows(result, "vaccine"); err != nil {
			return err
		}
		if vaccine.DiseasesCovered == nil {
			return nil
		}
		// Replace the covered set; merges go through ApprovalRepository.
		if _, err := tx.ExecContext(ctx, `DELETE FROM vaccine_diseases WHERE vaccine_id = $1`, vaccine.ID); err != nil {
			return err
		}
		return insertCoveredDiseases(ctx, tx, "vaccine_diseases", "vaccine_id", vaccine.ID, vaccine.DiseasesCovered)
	})
	return mapError("vaccine", err)
}

func (r *vaccineRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM vaccines WHERE id = $1`, id)
	if err != nil {
		return mapError("vaccine", err)
	}
	return requireRows(result, "vaccine")
}

func (r *vaccineRepository) List(ctx context.Context, approvedOnly bool) ([]*model.Vaccine, error) {
	query := `SELECT ` + vaccineColumns + ` FROM vaccines`
	if approvedOnly {
		query += ` WHERE approved = TRUE`
	}
	query += ` ORDER BY name ASC`

	var vaccines []*model.Vaccine
	if err := r.db.SelectContext(ctx, &vaccines, query); err != nil {
		return nil, mapError("vaccines", err)
	}
	if err := r.loadCoveredAll(ctx, vaccines); err != nil {
		return nil, err
	}
	return vaccines, nil
}

func (r *vaccineRepository) ListApprovedByDiseases(ctx context.Context, diseaseIDs []uuid.UUID) ([]*model.Vaccine, error) {
	if len(diseaseIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT DISTINCT v.id, v.name, v.description, v.recommended_age,
			v.doses_required, v.side_effects, v.approved, v.created_by,
			v.approved_by, v.created_at, v.updated_at
		FROM vaccines v
		JOIN vaccine_diseases vd ON vd.vaccine_id = v.id
		WHERE v.approved = TRUE AND vd.disease_id = ANY($1)
		ORDER BY v.name ASC
	`
	var vaccines []*model.Vaccine
	if err := r.db.SelectContext(ctx, &vaccines, query, pq.Array(diseaseIDs)); err != nil {
		return nil, mapError("vaccines", err)
	}
	if err := r.loadCoveredAll(ctx, vaccines); err != nil {
		return nil, err
	}
	return vaccines, nil
}

func (r *vaccineRepository) loadCovered(ctx context.Context, vaccine *model.Vaccine) error {
	ids, err := coveredDiseaseIDs(ctx, r.db, "vaccine_diseases", "vaccine_id", vaccine.ID)
	if err != nil {
		return mapError("vaccine diseases", err)
	}
	vaccine.DiseasesCovered = ids
	return nil
}

func (r *vaccineRepository) loadCoveredAll(ctx context.Context, vaccines []*model.Vaccine) error {
	for _, v := range vaccines {
		if err := r.loadCovered(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

// insertCoveredDiseases inserts join rows; ON CONFLICT DO NOTHING gives
// union semantics for merge-on-approval.
func insertCoveredDiseases(ctx context.Context, tx *sqlx.Tx, table, ownerCol string, ownerID uuid.UUID, diseaseIDs []uuid.UUID) error {
	for _, diseaseID := range diseaseIDs {
		query := `
			INSERT INTO ` + table + ` (` + ownerCol + `, disease_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`
		if _, err := tx.ExecContext(ctx, query, ownerID, diseaseID); err != nil {
			return err
		}
	}
	return nil
}

func coveredDiseaseIDs(ctx context.Context, q sqlx.QueryerContext, table, ownerCol string, ownerID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT disease_id FROM ` + table + ` WHERE ` + ownerCol + ` = $1 ORDER BY disease_id`
	var ids []uuid.UUID
	if err := sqlx.SelectContext(ctx, q, &ids, query, ownerID); err != nil {
		return nil, err
	}
	return ids, nil
}
