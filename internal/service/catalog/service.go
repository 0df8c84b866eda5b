package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/vaxtrack/registry-api/internal/model"
	"github.com/vaxtrack/registry-api/internal/repository"
	apperrors "github.com/vaxtrack/registry-api/pkg/errors"
)

const (
	searchCacheTTL     = 5 * time.Minute
	searchCacheCleanup = 10 * time.Minute
)

// Service manages the approved catalog: direct admin mutations, public
// listings, and the vaccines-by-location search. Search results are
// cached and the cache is flushed on every catalog write.
type Service struct {
	diseases repository.DiseaseRepository
	vaccines repository.VaccineRepository
	searches *gocache.Cache
}

func NewService(diseases repository.DiseaseRepository, vaccines repository.VaccineRepository) *Service {
	return &Service{
		diseases: diseases,
		vaccines: vaccines,
		searches: gocache.New(searchCacheTTL, searchCacheCleanup),
	}
}

func (s *Service) AddDisease(ctx context.Context, admin uuid.UUID, req *model.CreateDiseaseRequest) (*model.Disease, error) {
	disease := &model.Disease{
		Name:          req.Name,
		Description:   req.Description,
		AffectedAreas: req.AffectedAreas,
		Approved:      true,
		CreatedBy:     admin,
		ApprovedBy:    &admin,
	}
	if err := s.diseases.Create(ctx, disease); err != nil {
		return nil, err
	}
	s.searches.Flush()
	return disease, nil
}

func (s *Service) UpdateDisease(ctx context.Context, id uuid.UUID, req *model.UpdateDiseaseRequest) (*model.Disease, error) {
	disease, err := s.diseases.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		disease.Name = *req.Name
	}
	if req.Description != nil {
		disease.Description = *req.Description
	}
	if req.AffectedAreas != nil {
		disease.AffectedAreas = req.AffectedAreas
	}

	if err := s.diseases.Update(ctx, disease); err != nil {
		return nil, err
	}
	s.searches.Flush()
	return disease, nil
}

// AssignLocations replaces the disease's affected-area set.
func (s *Service) AssignLocations(ctx context.Context, id uuid.UUID, locations []string) (*model.Disease, error) {
	disease, err := s.diseases.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	disease.AffectedAreas = locations
	if err := s.diseases.Update(ctx, disease); err != nil {
		return nil, err
	}
	s.searches.Flush()
	return disease, nil
}

func (s *Service) DeleteDisease(ctx context.Context, id uuid.UUID) error {
	if err := s.diseases.Delete(ctx, id); err != nil {
		return err
	}
	s.searches.Flush()
	return nil
}

func (s *Service) ListDiseases(ctx context.Context) ([]*model.Disease, error) {
	return s.diseases.List(ctx, false)
}

// FlushSearchCache drops cached location searches. The approval
// workflow calls it after its own catalog writes.
func (s *Service) FlushSearchCache() {
	s.searches.Flush()
}

func (s *Service) AddVaccine(ctx context.Context, admin uuid.UUID, req *model.CreateVaccineRequest) (*model.Vaccine, error) {
	covered, err := s.resolveApprovedDiseases(ctx, req.DiseasesCovered)
	if err != nil {
		return nil, err
	}

	vaccine := &model.Vaccine{
		Name:            req.Name,
		Description:     req.Description,
		DiseasesCovered: covered,
		RecommendedAge:  req.RecommendedAge,
		DosesRequired:   req.DosesRequired,
		SideEffects:     req.SideEffects,
		Approved:        true,
		CreatedBy:       admin,
		ApprovedBy:      &admin,
	}
	if err := s.vaccines.Create(ctx, vaccine); err != nil {
		return nil, err
	}
	s.searches.Flush()
	return vaccine, nil
}

func (s *Service) UpdateVaccine(ctx context.Context, id uuid.UUID, req *model.UpdateVaccineRequest) (*model.Vaccine, error) {
	vaccine, err := s.vaccines.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		vaccine.Name = *req.Name
	}
	if req.Description != nil {
		vaccine.Description = *req.Description
	}
	if req.RecommendedAge != nil {
		vaccine.RecommendedAge = *req.RecommendedAge
	}
	if req.DosesRequired != nil {
		vaccine.DosesRequired = *req.DosesRequired
	}
	if req.SideEffects != nil {
		vaccine.SideEffects = req.SideEffects
	}

	if err := s.vaccines.Update(ctx, vaccine); err != nil {
		return nil, err
	}
	s.searches.Flush()
	return vaccine, nil
}

func (s *Service) DeleteVaccine(ctx context.Context, id uuid.UUID) error {
	if err := s.vaccines.Delete(ctx, id); err != nil {
		return err
	}
	s.searches.Flush()
	return nil
}

func (s *Service) ListVaccines(ctx context.Context, approvedOnly bool) ([]*model.Vaccine, error) {
	return s.vaccines.List(ctx, approvedOnly)
}

// VaccinesByLocation returns approved vaccines covering any disease
// recorded for the location.
func (s *Service) VaccinesByLocation(ctx context.Context, location string) ([]*model.Vaccine, error) {
	key := "location:" + strings.ToLower(strings.TrimSpace(location))
	if cached, ok := s.searches.Get(key); ok {
		return cached.([]*model.Vaccine), nil
	}

	diseases, err := s.diseases.ListByArea(ctx, location)
	if err != nil {
		return nil, err
	}
	if len(diseases) == 0 {
		return nil, apperrors.NotFound("diseases for this location", nil)
	}

	diseaseIDs := make([]uuid.UUID, 0, len(diseases))
	for _, disease := range diseases {
		diseaseIDs = append(diseaseIDs, disease.ID)
	}

	vaccines, err := s.vaccines.ListApprovedByDiseases(ctx, diseaseIDs)
	if err != nil {
		return nil, err
	}
	if len(vaccines) == 0 {
		return nil, apperrors.NotFound("vaccines for the diseases in this location", nil)
	}

	s.searches.Set(key, vaccines, gocache.DefaultExpiration)
	return vaccines, nil
}

func (s *Service) resolveApprovedDiseases(ctx context.Context, raw []string) ([]uuid.UUID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(raw))
	seen := make(map[uuid.UUID]struct{}, len(raw))
	for _, value := range raw {
		id, err := uuid.Parse(value)
		if err != nil {
			return nil, apperrors.NewValidation("invalid disease id " + value)
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	count, err := s.diseases.CountApproved(ctx, ids)
	if err != nil {
		return nil, err
	}
	if count != len(ids) {
		return nil, apperrors.NewValidation("covered diseases must reference approved diseases")
	}
	return ids, nil
}
