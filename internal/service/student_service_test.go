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

type fakeStudentRepo struct {
	students map[string]*models.Student
	deleted  []string
}

func (f *fakeStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	out := make([]models.Student, 0, len(f.students))
	for _, s := range f.students {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (f *fakeStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := f.students[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if f.students == nil {
		f.students = make(map[string]*models.Student)
	}
	if student.ID == "" {
		student.ID = fmt.Sprintf("s-%d", len(f.students)+1)
	}
	stored := *student
	f.students[student.ID] = &stored
	return nil
}

func (f *fakeStudentRepo) Update(ctx context.Context, student *models.Student) error {
	stored := *student
	f.students[student.ID] = &stored
	return nil
}

func (f *fakeStudentRepo) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	delete(f.students, id)
	return nil
}

func TestStudentServiceCreate(t *testing.T) {
	repo := &fakeStudentRepo{}
	svc := NewStudentService(repo, validator.New(), zap.NewNop())

	student, err := svc.Create(context.Background(), CreateStudentRequest{
		StudentID:     "STD-001",
		Name:          "Rahim Uddin",
		Class:         "Class 7",
		Section:       "A",
		Roll:          "07",
		GuardianName:  "Abdul Uddin",
		GuardianPhone: "01711111111",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, student.ID)
	assert.Equal(t, "active", student.Status)
	assert.Len(t, repo.students, 1)
}

func TestStudentServiceCreateValidation(t *testing.T) {
	svc := NewStudentService(&fakeStudentRepo{}, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateStudentRequest{Name: "No roster data"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceUpdate(t *testing.T) {
	repo := &fakeStudentRepo{students: map[string]*models.Student{
		"s1": {ID: "s1", StudentID: "STD-001", Name: "Old", Class: "Class 7", Section: "A", Roll: "07", Status: "active"},
	}}
	svc := NewStudentService(repo, validator.New(), zap.NewNop())

	updated, err := svc.Update(context.Background(), "s1", UpdateStudentRequest{
		Name:          "New Name",
		Class:         "Class 8",
		Section:       "B",
		Roll:          "12",
		GuardianName:  "Guardian",
		GuardianPhone: "01722222222",
		Status:        "inactive",
	})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, "inactive", updated.Status)
	assert.Equal(t, "STD-001", updated.StudentID, "student number is immutable")
}

func TestStudentServiceUpdateRejectsUnknownStatus(t *testing.T) {
	repo := &fakeStudentRepo{students: map[string]*models.Student{"s1": {ID: "s1"}}}
	svc := NewStudentService(repo, validator.New(), zap.NewNop())

	_, err := svc.Update(context.Background(), "s1", UpdateStudentRequest{
		Name: "X", Class: "C", Section: "A", Roll: "1", GuardianName: "G", GuardianPhone: "01", Status: "expelled",
	})
	require.Error(t, err)
}

func TestStudentServiceGetNotFound(t *testing.T) {
	svc := NewStudentService(&fakeStudentRepo{}, validator.New(), zap.NewNop())

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceDelete(t *testing.T) {
	repo := &fakeStudentRepo{students: map[string]*models.Student{"s1": {ID: "s1"}}}
	svc := NewStudentService(repo, validator.New(), zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "s1"))
	assert.Contains(t, repo.deleted, "s1")

	err := svc.Delete(context.Background(), "s1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
