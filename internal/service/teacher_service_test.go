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

type fakeTeacherRepo struct {
	teachers map[string]*models.Teacher
	deleted  []string
}

func (f *fakeTeacherRepo) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	out := make([]models.Teacher, 0, len(f.teachers))
	for _, t := range f.teachers {
		out = append(out, *t)
	}
	return out, len(out), nil
}

func (f *fakeTeacherRepo) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if t, ok := f.teachers[id]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeTeacherRepo) Create(ctx context.Context, teacher *models.Teacher) error {
	if f.teachers == nil {
		f.teachers = make(map[string]*models.Teacher)
	}
	if teacher.ID == "" {
		teacher.ID = fmt.Sprintf("t-%d", len(f.teachers)+1)
	}
	stored := *teacher
	f.teachers[teacher.ID] = &stored
	return nil
}

func (f *fakeTeacherRepo) Update(ctx context.Context, teacher *models.Teacher) error {
	stored := *teacher
	f.teachers[teacher.ID] = &stored
	return nil
}

func (f *fakeTeacherRepo) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	delete(f.teachers, id)
	return nil
}

func TestTeacherServiceCreate(t *testing.T) {
	repo := &fakeTeacherRepo{}
	svc := NewTeacherService(repo, validator.New(), zap.NewNop())

	teacher, err := svc.Create(context.Background(), CreateTeacherRequest{
		TeacherID:  "TCH-001",
		Name:       "Karim Ahmed",
		Email:      "karim@example.com",
		Department: "Science",
		Subjects:   []string{"Physics", "Math"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, teacher.ID)
	assert.Equal(t, "active", teacher.Status)
	assert.Len(t, teacher.Subjects, 2)
}

func TestTeacherServiceCreateRequiresSubjects(t *testing.T) {
	svc := NewTeacherService(&fakeTeacherRepo{}, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateTeacherRequest{
		TeacherID:  "TCH-001",
		Name:       "Karim Ahmed",
		Email:      "karim@example.com",
		Department: "Science",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTeacherServiceUpdate(t *testing.T) {
	repo := &fakeTeacherRepo{teachers: map[string]*models.Teacher{
		"t1": {ID: "t1", TeacherID: "TCH-001", Name: "Old", Email: "old@example.com", Department: "Science", Subjects: []string{"Physics"}, Status: "active"},
	}}
	svc := NewTeacherService(repo, validator.New(), zap.NewNop())

	updated, err := svc.Update(context.Background(), "t1", UpdateTeacherRequest{
		Name:       "Karim Ahmed",
		Email:      "karim@example.com",
		Department: "Arts",
		Subjects:   []string{"History"},
		Status:     "inactive",
	})
	require.NoError(t, err)
	assert.Equal(t, "Karim Ahmed", updated.Name)
	assert.Equal(t, "inactive", updated.Status)
	assert.Equal(t, "TCH-001", updated.TeacherID, "teacher number is immutable")
}

func TestTeacherServiceUpdateNotFound(t *testing.T) {
	svc := NewTeacherService(&fakeTeacherRepo{}, validator.New(), zap.NewNop())

	_, err := svc.Update(context.Background(), "missing", UpdateTeacherRequest{
		Name: "X", Email: "x@example.com", Department: "D", Subjects: []string{"S"}, Status: "active",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTeacherServiceDelete(t *testing.T) {
	repo := &fakeTeacherRepo{teachers: map[string]*models.Teacher{"t1": {ID: "t1"}}}
	svc := NewTeacherService(repo, validator.New(), zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "t1"))
	assert.Contains(t, repo.deleted, "t1")

	err := svc.Delete(context.Background(), "t1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
