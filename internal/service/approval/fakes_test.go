package approval

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/vaxtrack/registry-api/internal/model"
	apperrors "github.com/vaxtrack/registry-api/pkg/errors"
)

// In-memory repositories backing the service tests.

type fakeSearchCache struct {
	flushes int
}

func (f *fakeSearchCache) FlushSearchCache() {
	f.flushes++
}

type fakeDiseaseRepo struct {
	diseases map[uuid.UUID]*model.Disease
}

func newFakeDiseaseRepo() *fakeDiseaseRepo {
	return &fakeDiseaseRepo{diseases: make(map[uuid.UUID]*model.Disease)}
}

func (f *fakeDiseaseRepo) add(d *model.Disease) *model.Disease {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	f.diseases[d.ID] = d
	return d
}

func (f *fakeDiseaseRepo) Create(ctx context.Context, d *model.Disease) error {
	f.add(d)
	return nil
}

func (f *fakeDiseaseRepo) Get(ctx context.Context, id uuid.UUID) (*model.Disease, error) {
	d, ok := f.diseases[id]
	if !ok {
		return nil, apperrors.NotFound("disease", nil)
	}
	return d, nil
}

func (f *fakeDiseaseRepo) GetApprovedByName(ctx context.Context, name string) (*model.Disease, error) {
	for _, d := range f.diseases {
		if d.Approved && strings.EqualFold(d.Name, name) {
			return d, nil
		}
	}
	return nil, apperrors.NotFound("disease", nil)
}

func (f *fakeDiseaseRepo) Update(ctx context.Context, d *model.Disease) error {
	if _, ok := f.diseases[d.ID]; !ok {
		return apperrors.NotFound("disease", nil)
	}
	f.diseases[d.ID] = d
	return nil
}

func (f *fakeDiseaseRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.diseases[id]; !ok {
		return apperrors.NotFound("disease", nil)
	}
	delete(f.diseases, id)
	return nil
}

func (f *fakeDiseaseRepo) List(ctx context.Context, approvedOnly bool) ([]*model.Disease, error) {
	var out []*model.Disease
	for _, d := range f.diseases {
		if approvedOnly && !d.Approved {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeDiseaseRepo) ListByArea(ctx context.Context, area string) ([]*model.Disease, error) {
	var out []*model.Disease
	for _, d := range f.diseases {
		if !d.Approved {
			continue
		}
		for _, a := range d.AffectedAreas {
			if strings.EqualFold(a, area) {
				out = append(out, d)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeDiseaseRepo) CountApproved(ctx context.Context, ids []uuid.UUID) (int, error) {
	count := 0
	for _, id := range ids {
		if d, ok := f.diseases[id]; ok && d.Approved {
			count++
		}
	}
	return count, nil
}

type fakeVaccineRepo struct {
	vaccines map[uuid.UUID]*model.Vaccine
}

func newFakeVaccineRepo() *fakeVaccineRepo {
	return &fakeVaccineRepo{vaccines: make(map[uuid.UUID]*model.Vaccine)}
}

func (f *fakeVaccineRepo) add(v *model.Vaccine) *model.Vaccine {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	f.vaccines[v.ID] = v
	return v
}

func (f *fakeVaccineRepo) Create(ctx context.Context, v *model.Vaccine) error {
	f.add(v)
	return nil
}

func (f *fakeVaccineRepo) Get(ctx context.Context, id uuid.UUID) (*model.Vaccine, error) {
	v, ok := f.vaccines[id]
	if !ok {
		return nil, apperrors.NotFound("vaccine", nil)
	}
	return v, nil
}

func (f *fakeVaccineRepo) GetApprovedByName(ctx context.Context, name string) (*model.Vaccine, error) {
	for _, v := range f.vaccines {
		if v.Approved && strings.EqualFold(v.Name, name) {
			return v, nil
		}
	}
	return nil, apperrors.NotFound("vaccine", nil)
}

func (f *fakeVaccineRepo) Update(ctx context.Context, v *model.Vaccine) error {
	if _, ok := f.vaccines[v.ID]; !ok {
		return apperrors.NotFound("vaccine", nil)
	}
	f.vaccines[v.ID] = v
	return nil
}

func (f *fakeVaccineRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.vaccines[id]; !ok {
		return apperrors.NotFound("vaccine", nil)
	}
	delete(f.vaccines, id)
	return nil
}

func (f *fakeVaccineRepo) List(ctx context.Context, approvedOnly bool) ([]*model.Vaccine, error) {
	var out []*model.Vaccine
	for _, v := range f.vaccines {
		if approvedOnly && !v.Approved {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeVaccineRepo) ListApprovedByDiseases(ctx context.Context, diseaseIDs []uuid.UUID) ([]*model.Vaccine, error) {
	wanted := make(map[uuid.UUID]struct{}, len(diseaseIDs))
	for _, id := range diseaseIDs {
		wanted[id] = struct{}{}
	}
	var out []*model.Vaccine
	for _, v := range f.vaccines {
		if !v.Approved {
			continue
		}
		for _, id := range v.DiseasesCovered {
			if _, ok := wanted[id]; ok {
				out = append(out, v)
				break
			}
		}
	}
	return out, nil
}

type fakeDiseaseRequestRepo struct {
	requests map[uuid.UUID]*model.DiseaseRequest
}

func newFakeDiseaseRequestRepo() *fakeDiseaseRequestRepo {
	return &fakeDiseaseRequestRepo{requests: make(map[uuid.UUID]*model.DiseaseRequest)}
}

func (f *fakeDiseaseRequestRepo) Create(ctx context.Context, req *model.DiseaseRequest) error {
	for _, existing := range f.requests {
		if strings.EqualFold(existing.Name, req.Name) {
			return apperrors.NewConflict("disease request already exists", nil)
		}
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	f.requests[req.ID] = req
	return nil
}

func (f *fakeDiseaseRequestRepo) Get(ctx context.Context, id uuid.UUID) (*model.DiseaseRequest, error) {
	req, ok := f.requests[id]
	if !ok {
		return nil, apperrors.NotFound("disease request", nil)
	}
	return req, nil
}

func (f *fakeDiseaseRequestRepo) List(ctx context.Context) ([]*model.DiseaseRequest, error) {
	var out []*model.DiseaseRequest
	for _, req := range f.requests {
		out = append(out, req)
	}
	return out, nil
}

func (f *fakeDiseaseRequestRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.requests[id]; !ok {
		return apperrors.NotFound("disease request", nil)
	}
	delete(f.requests, id)
	return nil
}

type fakeVaccineRequestRepo struct {
	requests map[uuid.UUID]*model.VaccineRequest
}

func newFakeVaccineRequestRepo() *fakeVaccineRequestRepo {
	return &fakeVaccineRequestRepo{requests: make(map[uuid.UUID]*model.VaccineRequest)}
}

func (f *fakeVaccineRequestRepo) Create(ctx context.Context, req *model.VaccineRequest) error {
	for _, existing := range f.requests {
		if strings.EqualFold(existing.Name, req.Name) {
			return apperrors.NewConflict("vaccine request already exists", nil)
		}
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	f.requests[req.ID] = req
	return nil
}

func (f *fakeVaccineRequestRepo) Get(ctx context.Context, id uuid.UUID) (*model.VaccineRequest, error) {
	req, ok := f.requests[id]
	if !ok {
		return nil, apperrors.NotFound("vaccine request", nil)
	}
	return req, nil
}

func (f *fakeVaccineRequestRepo) List(ctx context.Context) ([]*model.VaccineRequest, error) {
	var out []*model.VaccineRequest
	for _, req := range f.requests {
		out = append(out, req)
	}
	return out, nil
}

func (f *fakeVaccineRequestRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.requests[id]; !ok {
		return apperrors.NotFound("vaccine request", nil)
	}
	delete(f.requests, id)
	return nil
}

// fakeApprovalRepo mirrors the transactional approval writes against the
// in-memory stores.
type fakeApprovalRepo struct {
	diseases    *fakeDiseaseRepo
	vaccines    *fakeVaccineRepo
	diseaseReqs *fakeDiseaseRequestRepo
	vaccineReqs *fakeVaccineRequestRepo
}

func (f *fakeApprovalRepo) CreateDiseaseFromRequest(ctx context.Context, req *model.DiseaseRequest, approver uuid.UUID) (*model.Disease, error) {
	disease := f.diseases.add(&model.Disease{
		Name:          req.Name,
		Description:   req.Description,
		AffectedAreas: req.AffectedAreas,
		Approved:      true,
		CreatedBy:     req.CreatedBy,
		ApprovedBy:    &approver,
	})
	return disease, f.diseaseReqs.Delete(ctx, req.ID)
}

func (f *fakeApprovalRepo) MergeDiseaseRequest(ctx context.Context, diseaseID uuid.UUID, deltaAreas []string, requestID uuid.UUID) (*model.Disease, error) {
	disease, err := f.diseases.Get(ctx, diseaseID)
	if err != nil {
		return nil, err
	}
	disease.AffectedAreas = append(disease.AffectedAreas, deltaAreas...)
	return disease, f.diseaseReqs.Delete(ctx, requestID)
}

func (f *fakeApprovalRepo) CreateVaccineFromRequest(ctx context.Context, req *model.VaccineRequest, approver uuid.UUID) (*model.Vaccine, error) {
	vaccine := f.vaccines.add(&model.Vaccine{
		Name:            req.Name,
		Description:     req.Description,
		DiseasesCovered: req.DiseasesCovered,
		RecommendedAge:  req.RecommendedAge,
		DosesRequired:   req.DosesRequired,
		SideEffects:     req.SideEffects,
		Approved:        true,
		CreatedBy:       req.CreatedBy,
		ApprovedBy:      &approver,
	})
	return vaccine, f.vaccineReqs.Delete(ctx, req.ID)
}

func (f *fakeApprovalRepo) MergeVaccineRequest(ctx context.Context, vaccineID uuid.UUID, deltaDiseases []uuid.UUID, requestID uuid.UUID) (*model.Vaccine, error) {
	vaccine, err := f.vaccines.Get(ctx, vaccineID)
	if err != nil {
		return nil, err
	}
	vaccine.DiseasesCovered = append(vaccine.DiseasesCovered, deltaDiseases...)
	return vaccine, f.vaccineReqs.Delete(ctx, requestID)
}
