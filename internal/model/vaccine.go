package model

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Vaccine is a catalog entry covering one or more diseases.
type Vaccine struct {
	Base
	Name            string         `json:"name" db:"name"`
	Description     string         `json:"description" db:"description"`
	DiseasesCovered []uuid.UUID    `json:"diseases_covered" db:"-"`
	RecommendedAge  string         `json:"recommended_age" db:"recommended_age"`
	DosesRequired   int            `json:"doses_required" db:"doses_required"`
	SideEffects     pq.StringArray `json:"side_effects" db:"side_effects"`
	Approved        bool           `json:"approved" db:"approved"`
	CreatedBy       uuid.UUID      `json:"created_by" db:"created_by"`
	ApprovedBy      *uuid.UUID     `json:"approved_by,omitempty" db:"approved_by"`
}

// VaccineRequest mirrors Vaccine minus approval metadata. Covered
// diseases hold resolved ids of approved Disease records.
type VaccineRequest struct {
	Base
	Name            string         `json:"name" db:"name"`
	Description     string         `json:"description" db:"description"`
	DiseasesCovered []uuid.UUID    `json:"diseases_covered" db:"-"`
	RecommendedAge  string         `json:"recommended_age" db:"recommended_age"`
	DosesRequired   int            `json:"doses_required" db:"doses_required"`
	SideEffects     pq.StringArray `json:"side_effects" db:"side_effects"`
	CreatedBy       uuid.UUID      `json:"created_by" db:"created_by"`
}

type CreateVaccineRequest struct {
	Name            string   `json:"name" binding:"required,notblank"`
	Description     string   `json:"description" binding:"required"`
	DiseasesCovered []string `json:"diseases_covered"`
	RecommendedAge  string   `json:"recommended_age" binding:"required"`
	DosesRequired   int      `json:"doses_required" binding:"required,min=1"`
	SideEffects     []string `json:"side_effects"`
}

type UpdateVaccineRequest struct {
	Name           *string  `json:"name"`
	Description    *string  `json:"description"`
	RecommendedAge *string  `json:"recommended_age"`
	DosesRequired  *int     `json:"doses_required" binding:"omitempty,min=1"`
	SideEffects    []string `json:"side_effects"`
}
