package approval

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vaxtrack/registry-api/internal/model"
	"github.com/vaxtrack/registry-api/internal/repository"
	apperrors "github.com/vaxtrack/registry-api/pkg/errors"
	"github.com/vaxtrack/registry-api/pkg/metrics"
)

// SearchCache invalidates cached catalog search results. Approvals
// write to the catalog outside the catalog service, so they flush the
// cache through this.
type SearchCache interface {
	FlushSearchCache()
}

// Service owns the request lifecycle: resident submission, pending
// listings, and the admin approval workflow that reconciles requests
// with the approved catalog.
type Service struct {
	diseases    repository.DiseaseRepository
	vaccines    repository.VaccineRepository
	diseaseReqs repository.DiseaseRequestRepository
	vaccineReqs repository.VaccineRequestRepository
	approvals   repository.ApprovalRepository
	cache       SearchCache
	metrics     *metrics.Metrics
}

// NewService builds the approval service. cache and metrics may be nil
// in tests.
func NewService(
	diseases repository.DiseaseRepository,
	vaccines repository.VaccineRepository,
	diseaseReqs repository.DiseaseRequestRepository,
	vaccineReqs repository.VaccineRequestRepository,
	approvals repository.ApprovalRepository,
	cache SearchCache,
	m *metrics.Metrics,
) *Service {
	return &Service{
		diseases:    diseases,
		vaccines:    vaccines,
		diseaseReqs: diseaseReqs,
		vaccineReqs: vaccineReqs,
		approvals:   approvals,
		cache:       cache,
		metrics:     m,
	}
}

func (s *Service) recordApproval(entity, outcome string) {
	if s.metrics != nil {
		s.metrics.RequestsApproved.WithLabelValues(entity, outcome).Inc()
	}
}

func (s *Service) flushSearchCache() {
	if s.cache != nil {
		s.cache.FlushSearchCache()
	}
}

func (s *Service) SubmitDiseaseRequest(ctx context.Context, resident uuid.UUID, req *model.CreateDiseaseRequest) (*model.DiseaseRequest, error) {
	request := &model.DiseaseRequest{
		Name:          req.Name,
		Description:   req.Description,
		AffectedAreas: req.AffectedAreas,
		CreatedBy:     resident,
	}
	if err := s.diseaseReqs.Create(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

func (s *Service) SubmitVaccineRequest(ctx context.Context, resident uuid.UUID, req *model.CreateVaccineRequest) (*model.VaccineRequest, error) {
	covered, err := parseDiseaseIDs(req.DiseasesCovered)
	if err != nil {
		return nil, err
	}
	if err := s.requireApprovedDiseases(ctx, covered); err != nil {
		return nil, err
	}

	request := &model.VaccineRequest{
		Name:            req.Name,
		Description:     req.Description,
		DiseasesCovered: covered,
		RecommendedAge:  req.RecommendedAge,
		DosesRequired:   req.DosesRequired,
		SideEffects:     req.SideEffects,
		CreatedBy:       resident,
	}
	if err := s.vaccineReqs.Create(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

// ListPendingDiseaseRequests filters out requests already fully covered
// by the approved catalog, so stale entries never reach the admin.
func (s *Service) ListPendingDiseaseRequests(ctx context.Context) ([]*model.DiseaseRequest, error) {
	requests, err := s.diseaseReqs.List(ctx)
	if err != nil {
		return nil, err
	}

	pending := make([]*model.DiseaseRequest, 0, len(requests))
	for _, req := range requests {
		existing, err := s.lookupDisease(ctx, req.Name)
		if err != nil {
			return nil, err
		}
		if MatchDisease(req, existing).Decision == DecisionRedundant {
			continue
		}
		pending = append(pending, req)
	}
	return pending, nil
}

func (s *Service) ListPendingVaccineRequests(ctx context.Context) ([]*model.VaccineRequest, error) {
	requests, err := s.vaccineReqs.List(ctx)
	if err != nil {
		return nil, err
	}

	pending := make([]*model.VaccineRequest, 0, len(requests))
	for _, req := range requests {
		existing, err := s.lookupVaccine(ctx, req.Name)
		if err != nil {
			return nil, err
		}
		if MatchVaccine(req, existing).Decision == DecisionRedundant {
			continue
		}
		pending = append(pending, req)
	}
	return pending, nil
}

// ApproveDiseaseRequest resolves a pending disease request: a brand new
// name becomes a new approved disease, an overlapping one merges its
// delta into the existing record, and a fully covered one is rejected
// as redundant without touching the request.
func (s *Service) ApproveDiseaseRequest(ctx context.Context, requestID, approver uuid.UUID) (*model.Disease, error) {
	req, err := s.diseaseReqs.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}

	existing, err := s.lookupDisease(ctx, req.Name)
	if err != nil {
		return nil, err
	}

	match := MatchDisease(req, existing)
	switch match.Decision {
	case DecisionCreate:
		disease, err := s.approvals.CreateDiseaseFromRequest(ctx, req, approver)
		if err != nil {
			return nil, err
		}
		s.recordApproval("disease", "created")
		s.flushSearchCache()
		return disease, nil
	case DecisionMerge:
		disease, err := s.approvals.MergeDiseaseRequest(ctx, existing.ID, match.DeltaAreas, req.ID)
		if err != nil {
			return nil, err
		}
		s.recordApproval("disease", "merged")
		s.flushSearchCache()
		return disease, nil
	default:
		s.recordApproval("disease", "redundant")
		return nil, apperrors.NewRedundant("disease request adds no new value to the approved catalog")
	}
}

// ApproveVaccineRequest is the vaccine counterpart, with the additional
// guarantee that only approved disease ids ever enter a covered set.
func (s *Service) ApproveVaccineRequest(ctx context.Context, requestID, approver uuid.UUID) (*model.Vaccine, error) {
	req, err := s.vaccineReqs.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}

	existing, err := s.lookupVaccine(ctx, req.Name)
	if err != nil {
		return nil, err
	}

	match := MatchVaccine(req, existing)
	switch match.Decision {
	case DecisionCreate:
		if err := s.requireApprovedDiseases(ctx, req.DiseasesCovered); err != nil {
			return nil, err
		}
		vaccine, err := s.approvals.CreateVaccineFromRequest(ctx, req, approver)
		if err != nil {
			return nil, err
		}
		s.recordApproval("vaccine", "created")
		s.flushSearchCache()
		return vaccine, nil
	case DecisionMerge:
		if err := s.requireApprovedDiseases(ctx, match.DeltaDiseases); err != nil {
			return nil, err
		}
		vaccine, err := s.approvals.MergeVaccineRequest(ctx, existing.ID, match.DeltaDiseases, req.ID)
		if err != nil {
			return nil, err
		}
		s.recordApproval("vaccine", "merged")
		s.flushSearchCache()
		return vaccine, nil
	default:
		s.recordApproval("vaccine", "redundant")
		return nil, apperrors.NewRedundant("vaccine request adds no new value to the approved catalog")
	}
}

func (s *Service) lookupDisease(ctx context.Context, name string) (*model.Disease, error) {
	existing, err := s.diseases.GetApprovedByName(ctx, name)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return existing, nil
}

func (s *Service) lookupVaccine(ctx context.Context, name string) (*model.Vaccine, error) {
	existing, err := s.vaccines.GetApprovedByName(ctx, name)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return existing, nil
}

func (s *Service) requireApprovedDiseases(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	count, err := s.diseases.CountApproved(ctx, ids)
	if err != nil {
		return err
	}
	if count != len(ids) {
		return apperrors.NewValidation("covered diseases must reference approved diseases")
	}
	return nil
}

func parseDiseaseIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	seen := make(map[uuid.UUID]struct{}, len(raw))
	for _, value := range raw {
		id, err := uuid.Parse(value)
		if err != nil {
			return nil, apperrors.NewValidation(fmt.Sprintf("invalid disease id %q", value))
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}
