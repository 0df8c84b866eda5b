package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaxtrack/registry-api/internal/model"
	apperrors "github.com/vaxtrack/registry-api/pkg/errors"
)

type fakeDiseaseRepo struct {
	diseases    map[uuid.UUID]*model.Disease
	areaLookups int
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

func (f *fakeDiseaseRepo) Create(ctx context.Context, d *model.Disease) error { f.add(d); return nil }

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
	f.areaLookups++
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

func (f *fakeVaccineRepo) Create(ctx context.Context, v *model.Vaccine) error { f.add(v); return nil }

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

type catalogFixture struct {
	diseases *fakeDiseaseRepo
	vaccines *fakeVaccineRepo
	service  *Service
}

func newCatalogFixture() *catalogFixture {
	diseases := newFakeDiseaseRepo()
	vaccines := newFakeVaccineRepo()
	return &catalogFixture{
		diseases: diseases,
		vaccines: vaccines,
		service:  NewService(diseases, vaccines),
	}
}

func TestAddDiseaseIsApprovedImmediately(t *testing.T) {
	fx := newCatalogFixture()
	admin := uuid.New()

	disease, err := fx.service.AddDisease(context.Background(), admin, &model.CreateDiseaseRequest{
		Name:          "Dengue",
		Description:   "Mosquito-borne viral infection",
		AffectedAreas: []string{"Miami"},
	})

	require.NoError(t, err)
	assert.True(t, disease.Approved)
	require.NotNil(t, disease.ApprovedBy)
	assert.Equal(t, admin, *disease.ApprovedBy)
}

func TestAddVaccineRequiresApprovedDiseases(t *testing.T) {
	fx := newCatalogFixture()
	pending := fx.diseases.add(&model.Disease{Name: "Zika"})

	_, err := fx.service.AddVaccine(context.Background(), uuid.New(), &model.CreateVaccineRequest{
		Name:            "Zikavax",
		Description:     "Zika vaccine",
		DiseasesCovered: []string{pending.ID.String()},
		RecommendedAge:  "18+",
		DosesRequired:   1,
	})

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestAssignLocationsReplacesSet(t *testing.T) {
	fx := newCatalogFixture()
	disease := fx.diseases.add(&model.Disease{
		Name:          "Dengue",
		AffectedAreas: []string{"Miami"},
		Approved:      true,
	})

	updated, err := fx.service.AssignLocations(context.Background(), disease.ID, []string{"Tampa", "Orlando"})

	require.NoError(t, err)
	assert.Equal(t, []string{"Tampa", "Orlando"}, []string(updated.AffectedAreas))
}

func TestVaccinesByLocation(t *testing.T) {
	fx := newCatalogFixture()
	dengue := fx.diseases.add(&model.Disease{
		Name:          "Dengue",
		AffectedAreas: []string{"Miami"},
		Approved:      true,
	})
	fx.vaccines.add(&model.Vaccine{
		Name:            "Dengvaxia",
		DiseasesCovered: []uuid.UUID{dengue.ID},
		Approved:        true,
	})

	vaccines, err := fx.service.VaccinesByLocation(context.Background(), "miami")

	require.NoError(t, err)
	require.Len(t, vaccines, 1)
	assert.Equal(t, "Dengvaxia", vaccines[0].Name)
}

func TestVaccinesByLocationCachesResults(t *testing.T) {
	fx := newCatalogFixture()
	dengue := fx.diseases.add(&model.Disease{
		Name:          "Dengue",
		AffectedAreas: []string{"Miami"},
		Approved:      true,
	})
	fx.vaccines.add(&model.Vaccine{
		Name:            "Dengvaxia",
		DiseasesCovered: []uuid.UUID{dengue.ID},
		Approved:        true,
	})

	_, err := fx.service.VaccinesByLocation(context.Background(), "Miami")
	require.NoError(t, err)
	_, err = fx.service.VaccinesByLocation(context.Background(), " MIAMI ")
	require.NoError(t, err)

	assert.Equal(t, 1, fx.diseases.areaLookups, "second lookup must hit the cache")
}

func TestVaccinesByLocationCacheFlushedOnWrite(t *testing.T) {
	fx := newCatalogFixture()
	dengue := fx.diseases.add(&model.Disease{
		Name:          "Dengue",
		AffectedAreas: []string{"Miami"},
		Approved:      true,
	})
	fx.vaccines.add(&model.Vaccine{
		Name:            "Dengvaxia",
		DiseasesCovered: []uuid.UUID{dengue.ID},
		Approved:        true,
	})

	_, err := fx.service.VaccinesByLocation(context.Background(), "Miami")
	require.NoError(t, err)

	_, err = fx.service.AddDisease(context.Background(), uuid.New(), &model.CreateDiseaseRequest{
		Name:        "Zika",
		Description: "Mosquito-borne viral infection",
	})
	require.NoError(t, err)

	_, err = fx.service.VaccinesByLocation(context.Background(), "Miami")
	require.NoError(t, err)

	assert.Equal(t, 2, fx.diseases.areaLookups)
}

func TestVaccinesByLocationNoDiseases(t *testing.T) {
	fx := newCatalogFixture()

	_, err := fx.service.VaccinesByLocation(context.Background(), "Nowhere")

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestVaccinesByLocationNoVaccines(t *testing.T) {
	fx := newCatalogFixture()
	fx.diseases.add(&model.Disease{
		Name:          "Dengue",
		AffectedAreas: []string{"Miami"},
		Approved:      true,
	})

	_, err := fx.service.VaccinesByLocation(context.Background(), "Miami")

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestUpdateVaccinePartial(t *testing.T) {
	fx := newCatalogFixture()
	vaccine := fx.vaccines.add(&model.Vaccine{
		Name:          "Dengvaxia",
		DosesRequired: 3,
		Approved:      true,
	})

	doses := 2
	updated, err := fx.service.UpdateVaccine(context.Background(), vaccine.ID, &model.UpdateVaccineRequest{
		DosesRequired: &doses,
	})

	require.NoError(t, err)
	assert.Equal(t, 2, updated.DosesRequired)
	assert.Equal(t, "Dengvaxia", updated.Name)
}

func TestDeleteDiseaseMissing(t *testing.T) {
	fx := newCatalogFixture()

	err := fx.service.DeleteDisease(context.Background(), uuid.New())

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}
