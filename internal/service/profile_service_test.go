package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mahfuz-dev/edupanel-api/internal/models"
	appErrors "github.com/mahfuz-dev/edupanel-api/pkg/errors"
)

type fakeProfileRepo struct {
	profiles map[string]*models.Profile
	deleted  []string
}

func (f *fakeProfileRepo) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	if p, ok := f.profiles[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeProfileRepo) List(ctx context.Context, filter models.ProfileFilter) ([]models.Profile, int, error) {
	out := make([]models.Profile, 0, len(f.profiles))
	for _, p := range f.profiles {
		if filter.Role != nil && p.Role != *filter.Role {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (f *fakeProfileRepo) Update(ctx context.Context, profile *models.Profile) error {
	stored := *profile
	f.profiles[profile.ID] = &stored
	return nil
}

func (f *fakeProfileRepo) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	delete(f.profiles, id)
	return nil
}

type fakeDeactivator struct {
	deactivated []string
	err         error
}

func (f *fakeDeactivator) Deactivate(ctx context.Context, id string) error {
	f.deactivated = append(f.deactivated, id)
	return f.err
}

func newProfileFixture() (*ProfileService, *fakeProfileRepo, *fakeDeactivator) {
	class := "Class 7"
	repo := &fakeProfileRepo{profiles: map[string]*models.Profile{
		"p1": {ID: "p1", Email: "rahim@example.com", Name: "Rahim", Role: models.RoleStudent, Class: &class},
	}}
	deactivator := &fakeDeactivator{}
	svc := NewProfileService(repo, deactivator, validator.New(), zap.NewNop())
	return svc, repo, deactivator
}

func TestProfileUpdateKeepsEmailAndRole(t *testing.T) {
	svc, repo, _ := newProfileFixture()

	newClass := "Class 8"
	updated, err := svc.Update(context.Background(), "p1", UpdateProfileRequest{Name: "Rahim Uddin", Class: &newClass})
	require.NoError(t, err)
	assert.Equal(t, "Rahim Uddin", updated.Name)
	assert.Equal(t, "Class 8", *updated.Class)
	assert.Equal(t, "rahim@example.com", updated.Email)
	assert.Equal(t, models.RoleStudent, repo.profiles["p1"].Role)
}

func TestProfileUpdateNotFound(t *testing.T) {
	svc, _, _ := newProfileFixture()

	_, err := svc.Update(context.Background(), "missing", UpdateProfileRequest{Name: "X"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestProfileDeleteDeactivatesCredential(t *testing.T) {
	svc, repo, deactivator := newProfileFixture()

	require.NoError(t, svc.Delete(context.Background(), "p1"))
	assert.Contains(t, repo.deleted, "p1")
	assert.Contains(t, deactivator.deactivated, "p1")
}

func TestProfileDeleteSurvivesDeactivationFailure(t *testing.T) {
	svc, repo, deactivator := newProfileFixture()
	deactivator.err = errors.New("users table down")

	require.NoError(t, svc.Delete(context.Background(), "p1"), "profile delete is not rolled back")
	assert.Contains(t, repo.deleted, "p1")
}

func TestProfileListByRole(t *testing.T) {
	svc, repo, _ := newProfileFixture()
	subject := "Math"
	repo.profiles["p2"] = &models.Profile{ID: "p2", Email: "t@example.com", Name: "Teacher", Role: models.RoleTeacher, Subject: &subject}

	role := models.RoleTeacher
	profiles, pagination, err := svc.List(context.Background(), models.ProfileFilter{Role: &role})
	require.NoError(t, err)
	assert.Len(t, profiles, 1)
	assert.Equal(t, 1, pagination.TotalCount)
}
