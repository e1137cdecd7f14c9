package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mahfuz-dev/edupanel-api/internal/models"
	appErrors "github.com/mahfuz-dev/edupanel-api/pkg/errors"
)

type fakeAttendanceRepo struct {
	records   map[string]*models.Attendance
	upsertErr error
	failAfter int
	writes    int
}

func attendanceKey(r *models.Attendance) string {
	return fmt.Sprintf("%s|%s|%s", r.StudentID, r.ClassID, r.Date.Format("2006-01-02"))
}

func (f *fakeAttendanceRepo) Upsert(ctx context.Context, record *models.Attendance) error {
	f.writes++
	if f.upsertErr != nil {
		return f.upsertErr
	}
	if f.failAfter > 0 && f.writes > f.failAfter {
		return errors.New("write failed")
	}
	if f.records == nil {
		f.records = make(map[string]*models.Attendance)
	}
	stored := *record
	f.records[attendanceKey(record)] = &stored
	return nil
}

func (f *fakeAttendanceRepo) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error) {
	out := make([]models.AttendanceRecord, 0, len(f.records))
	for _, r := range f.records {
		out = append(out, models.AttendanceRecord{Attendance: *r})
	}
	return out, len(out), nil
}

func (f *fakeAttendanceRepo) Summary(ctx context.Context, studentID string, from, to *time.Time) (*models.AttendanceSummary, error) {
	summary := &models.AttendanceSummary{}
	for _, r := range f.records {
		if r.StudentID != studentID {
			continue
		}
		summary.TotalDays++
		switch r.Status {
		case models.AttendanceStatusPresent:
			summary.PresentDays++
		case models.AttendanceStatusAbsent:
			summary.AbsentDays++
		case models.AttendanceStatusLate:
			summary.LateDays++
		}
	}
	if summary.TotalDays > 0 {
		summary.Percentage = float64(summary.PresentDays+summary.LateDays) / float64(summary.TotalDays) * 100
	}
	return summary, nil
}

type fakeInvalidator struct {
	calls int
}

func (f *fakeInvalidator) Invalidate(ctx context.Context) { f.calls++ }

func TestAttendanceMarkUpserts(t *testing.T) {
	repo := &fakeAttendanceRepo{}
	inv := &fakeInvalidator{}
	svc := NewAttendanceService(repo, inv, validator.New(), zap.NewNop())

	morning := time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC)
	record, err := svc.Mark(context.Background(), MarkAttendanceRequest{
		StudentID: "s1", ClassID: "c1", Date: morning, Status: models.AttendanceStatusAbsent,
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), record.Date, "date is truncated to midnight UTC")
	assert.Equal(t, 1, inv.calls)

	// Re-marking the same day replaces the status instead of duplicating.
	afternoon := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	_, err = svc.Mark(context.Background(), MarkAttendanceRequest{
		StudentID: "s1", ClassID: "c1", Date: afternoon, Status: models.AttendanceStatusPresent,
	})
	require.NoError(t, err)
	assert.Len(t, repo.records, 1)
	for _, r := range repo.records {
		assert.Equal(t, models.AttendanceStatusPresent, r.Status)
	}
}

func TestAttendanceMarkRejectsUnknownStatus(t *testing.T) {
	svc := NewAttendanceService(&fakeAttendanceRepo{}, nil, validator.New(), zap.NewNop())

	_, err := svc.Mark(context.Background(), MarkAttendanceRequest{
		StudentID: "s1", ClassID: "c1", Date: time.Now(), Status: "vacationing",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAttendanceMarkBulk(t *testing.T) {
	repo := &fakeAttendanceRepo{}
	inv := &fakeInvalidator{}
	svc := NewAttendanceService(repo, inv, validator.New(), zap.NewNop())

	written, err := svc.MarkBulk(context.Background(), BulkAttendanceRequest{
		ClassID: "c1",
		Date:    time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
		Entries: []BulkAttendanceEntry{
			{StudentID: "s1", Status: models.AttendanceStatusPresent},
			{StudentID: "s2", Status: models.AttendanceStatusLate},
			{StudentID: "s3", Status: models.AttendanceStatusAbsent},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, written)
	assert.Len(t, repo.records, 3)
	assert.Equal(t, 1, inv.calls, "one invalidation per bulk write")
}

func TestAttendanceMarkBulkPartialFailure(t *testing.T) {
	repo := &fakeAttendanceRepo{failAfter: 2}
	svc := NewAttendanceService(repo, nil, validator.New(), zap.NewNop())

	written, err := svc.MarkBulk(context.Background(), BulkAttendanceRequest{
		ClassID: "c1",
		Date:    time.Now(),
		Entries: []BulkAttendanceEntry{
			{StudentID: "s1", Status: models.AttendanceStatusPresent},
			{StudentID: "s2", Status: models.AttendanceStatusPresent},
			{StudentID: "s3", Status: models.AttendanceStatusPresent},
		},
	})
	require.Error(t, err)
	assert.Equal(t, 2, written, "reports how many entries landed before the failure")
}

func TestAttendanceSummary(t *testing.T) {
	repo := &fakeAttendanceRepo{}
	svc := NewAttendanceService(repo, nil, validator.New(), zap.NewNop())

	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	statuses := []models.AttendanceStatus{
		models.AttendanceStatusPresent,
		models.AttendanceStatusPresent,
		models.AttendanceStatusLate,
		models.AttendanceStatusAbsent,
	}
	for i, status := range statuses {
		_, err := svc.Mark(context.Background(), MarkAttendanceRequest{
			StudentID: "s1", ClassID: "c1", Date: base.AddDate(0, 0, i), Status: status,
		})
		require.NoError(t, err)
	}

	summary, err := svc.Summary(context.Background(), "s1", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.TotalDays)
	assert.Equal(t, 2, summary.PresentDays)
	assert.Equal(t, 1, summary.LateDays)
	assert.Equal(t, 1, summary.AbsentDays)
	assert.InDelta(t, 75.0, summary.Percentage, 0.01)
}

func TestAttendanceSummaryInvalidRange(t *testing.T) {
	svc := NewAttendanceService(&fakeAttendanceRepo{}, nil, validator.New(), zap.NewNop())

	from := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.Summary(context.Background(), "s1", &from, &to)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
