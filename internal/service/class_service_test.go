package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mahfuz-dev/edupanel-api/internal/models"
	appErrors "github.com/mahfuz-dev/edupanel-api/pkg/errors"
)

type fakeClassRepo struct {
	classes  map[string]*models.Class
	subjects map[string]*models.Subject
}

func (f *fakeClassRepo) ListClasses(ctx context.Context) ([]models.Class, error) {
	out := make([]models.Class, 0, len(f.classes))
	for _, c := range f.classes {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeClassRepo) FindClassByID(ctx context.Context, id string) (*models.Class, error) {
	if c, ok := f.classes[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeClassRepo) CreateClass(ctx context.Context, class *models.Class) error {
	if f.classes == nil {
		f.classes = make(map[string]*models.Class)
	}
	if class.ID == "" {
		class.ID = fmt.Sprintf("c-%d", len(f.classes)+1)
	}
	stored := *class
	f.classes[class.ID] = &stored
	return nil
}

func (f *fakeClassRepo) DeleteClass(ctx context.Context, id string) error {
	delete(f.classes, id)
	return nil
}

func (f *fakeClassRepo) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	out := make([]models.Subject, 0, len(f.subjects))
	for _, s := range f.subjects {
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeClassRepo) CreateSubject(ctx context.Context, subject *models.Subject) error {
	if f.subjects == nil {
		f.subjects = make(map[string]*models.Subject)
	}
	if subject.ID == "" {
		subject.ID = fmt.Sprintf("sub-%d", len(f.subjects)+1)
	}
	stored := *subject
	f.subjects[subject.ID] = &stored
	return nil
}

func (f *fakeClassRepo) DeleteSubject(ctx context.Context, id string) error {
	delete(f.subjects, id)
	return nil
}

func TestClassServiceCreateClass(t *testing.T) {
	repo := &fakeClassRepo{}
	svc := NewClassService(repo, validator.New(), zap.NewNop())

	class, err := svc.CreateClass(context.Background(), CreateClassRequest{Name: "Class 7"})
	require.NoError(t, err)
	assert.NotEmpty(t, class.ID)

	classes, err := svc.ListClasses(context.Background())
	require.NoError(t, err)
	assert.Len(t, classes, 1)
}

func TestClassServiceCreateClassValidation(t *testing.T) {
	svc := NewClassService(&fakeClassRepo{}, validator.New(), zap.NewNop())

	_, err := svc.CreateClass(context.Background(), CreateClassRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestClassServiceDeleteClassNotFound(t *testing.T) {
	svc := NewClassService(&fakeClassRepo{}, validator.New(), zap.NewNop())

	err := svc.DeleteClass(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestClassServiceSubjects(t *testing.T) {
	repo := &fakeClassRepo{}
	svc := NewClassService(repo, validator.New(), zap.NewNop())

	subject, err := svc.CreateSubject(context.Background(), CreateSubjectRequest{Name: "Physics"})
	require.NoError(t, err)
	assert.NotEmpty(t, subject.ID)

	require.NoError(t, svc.DeleteSubject(context.Background(), subject.ID))

	subjects, err := svc.ListSubjects(context.Background())
	require.NoError(t, err)
	assert.Empty(t, subjects)
}
