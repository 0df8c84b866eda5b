package model

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Disease is a catalog entry. Names are unique case-insensitively;
// affected areas behave as a set.
type Disease struct {
	Base
	Name          string         `json:"name" db:"name"`
	Description   string         `json:"description" db:"description"`
	AffectedAreas pq.StringArray `json:"affected_areas" db:"affected_areas"`
	Approved      bool           `json:"approved" db:"approved"`
	CreatedBy     uuid.UUID      `json:"created_by" db:"created_by"`
	ApprovedBy    *uuid.UUID     `json:"approved_by,omitempty" db:"approved_by"`
}

// DiseaseRequest is a resident-submitted proposal, consumed on approval.
type DiseaseRequest struct {
	Base
	Name          string         `json:"name" db:"name"`
	Description   string         `json:"description" db:"description"`
	AffectedAreas pq.StringArray `json:"affected_areas" db:"affected_areas"`
	CreatedBy     uuid.UUID      `json:"created_by" db:"created_by"`
}

type CreateDiseaseRequest struct {
	Name          string   `json:"name" binding:"required,notblank"`
	Description   string   `json:"description" binding:"required"`
	AffectedAreas []string `json:"affected_areas"`
}

type UpdateDiseaseRequest struct {
	Name          *string  `json:"name"`
	Description   *string  `json:"description"`
	AffectedAreas []string `json:"affected_areas"`
}

type AssignLocationsRequest struct {
	Locations []string `json:"locations" binding:"required,min=1"`
}
