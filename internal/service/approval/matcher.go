package approval

import (
	"strings"

	"github.com/google/uuid"

	"github.com/vaxtrack/registry-api/internal/model"
)

// Decision is the matcher's verdict on a pending request.
type Decision int

const (
	// DecisionCreate: no approved record with that name exists yet.
	DecisionCreate Decision = iota
	// DecisionMerge: an approved record exists and the request carries
	// a non-empty delta to union into it.
	DecisionMerge
	// DecisionRedundant: the request is fully covered by the approved
	// record and adds no new value.
	DecisionRedundant
)

// DiseaseMatch is the outcome of matching a disease request against an
// approved disease with the same name.
type DiseaseMatch struct {
	Decision   Decision
	DeltaAreas []string
}

// MatchDisease compares a request's affected areas against the existing
// approved disease. Area comparison is case-insensitive; the delta
// keeps the request's original spelling and is deduplicated.
func MatchDisease(req *model.DiseaseRequest, existing *model.Disease) DiseaseMatch {
	if existing == nil {
		return DiseaseMatch{Decision: DecisionCreate}
	}

	known := make(map[string]struct{}, len(existing.AffectedAreas))
	for _, area := range existing.AffectedAreas {
		known[strings.ToLower(strings.TrimSpace(area))] = struct{}{}
	}

	var delta []string
	for _, area := range req.AffectedAreas {
		key := strings.ToLower(strings.TrimSpace(area))
		if key == "" {
			continue
		}
		if _, ok := known[key]; ok {
			continue
		}
		known[key] = struct{}{}
		delta = append(delta, area)
	}

	if len(delta) == 0 {
		return DiseaseMatch{Decision: DecisionRedundant}
	}
	return DiseaseMatch{Decision: DecisionMerge, DeltaAreas: delta}
}

// VaccineMatch is the outcome of matching a vaccine request against an
// approved vaccine with the same name.
type VaccineMatch struct {
	Decision      Decision
	DeltaDiseases []uuid.UUID
}

// MatchVaccine compares covered-disease ids by identifier equality.
func MatchVaccine(req *model.VaccineRequest, existing *model.Vaccine) VaccineMatch {
	if existing == nil {
		return VaccineMatch{Decision: DecisionCreate}
	}

	known := make(map[uuid.UUID]struct{}, len(existing.DiseasesCovered))
	for _, id := range existing.DiseasesCovered {
		known[id] = struct{}{}
	}

	var delta []uuid.UUID
	for _, id := range req.DiseasesCovered {
		if _, ok := known[id]; ok {
			continue
		}
		known[id] = struct{}{}
		delta = append(delta, id)
	}

	if len(delta) == 0 {
		return VaccineMatch{Decision: DecisionRedundant}
	}
	return VaccineMatch{Decision: DecisionMerge, DeltaDiseases: delta}
}
