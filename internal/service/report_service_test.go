package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mahfuz-dev/edupanel-api/internal/models"
	appErrors "github.com/mahfuz-dev/edupanel-api/pkg/errors"
)

type fakeReportLister struct {
	records    []models.AttendanceRecord
	lastFilter models.AttendanceFilter
	pages      int
}

func (f *fakeReportLister) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error) {
	f.lastFilter = filter
	f.pages++
	start := (filter.Page - 1) * filter.PageSize
	if filter.PageSize <= 0 || start < 0 {
		return f.records, len(f.records), nil
	}
	if start > len(f.records) {
		start = len(f.records)
	}
	end := start + filter.PageSize
	if end > len(f.records) {
		end = len(f.records)
	}
	return f.records[start:end], len(f.records), nil
}

func reportFixtureRecords() []models.AttendanceRecord {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	return []models.AttendanceRecord{
		{
			Attendance:  models.Attendance{StudentID: "s1", ClassID: "c1", Date: date, Status: models.AttendanceStatusPresent},
			StudentName: "Rahim Uddin",
			StudentRoll: "07",
			ClassName:   "Class 7",
		},
		{
			Attendance:  models.Attendance{StudentID: "s2", ClassID: "c1", Date: date, Status: models.AttendanceStatusAbsent},
			StudentName: "Karim Ahmed",
			StudentRoll: "12",
			ClassName:   "Class 7",
		},
	}
}

func TestReportAttendanceCSV(t *testing.T) {
	lister := &fakeReportLister{records: reportFixtureRecords()}
	svc := NewReportService(lister, zap.NewNop(), ReportServiceConfig{})

	file, err := svc.AttendanceReport(context.Background(), ReportRequest{
		ClassID:  "c1",
		DateFrom: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		DateTo:   time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC),
		Format:   ReportFormatCSV,
	})
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.True(t, strings.HasPrefix(file.FileName, "attendance-c1-"))

	body := string(file.Content)
	assert.Contains(t, body, "Date,Student,Roll,Class,Status")
	assert.Contains(t, body, "Rahim Uddin")
	assert.Contains(t, body, "absent")
	assert.Equal(t, "c1", lister.lastFilter.ClassID)
}

func TestReportAttendancePDF(t *testing.T) {
	lister := &fakeReportLister{records: reportFixtureRecords()}
	svc := NewReportService(lister, zap.NewNop(), ReportServiceConfig{})

	file, err := svc.AttendanceReport(context.Background(), ReportRequest{
		ClassID:  "c1",
		DateFrom: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		DateTo:   time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC),
		Format:   ReportFormatPDF,
	})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasSuffix(file.FileName, ".pdf"))
	assert.True(t, len(file.Content) > 0)
	assert.Equal(t, "%PDF", string(file.Content[:4]))
}

func TestReportAttendanceSpansPages(t *testing.T) {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	records := make([]models.AttendanceRecord, 0, 500)
	for i := 0; i < 500; i++ {
		records = append(records, models.AttendanceRecord{
			Attendance:  models.Attendance{StudentID: fmt.Sprintf("s%d", i), ClassID: "c1", Date: date, Status: models.AttendanceStatusPresent},
			StudentName: fmt.Sprintf("Student %d", i),
			StudentRoll: fmt.Sprintf("%02d", i),
			ClassName:   "Class 7",
		})
	}
	lister := &fakeReportLister{records: records}
	svc := NewReportService(lister, zap.NewNop(), ReportServiceConfig{})

	file, err := svc.AttendanceReport(context.Background(), ReportRequest{
		ClassID:  "c1",
		DateFrom: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		DateTo:   time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC),
		Format:   ReportFormatCSV,
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(file.Content), "\n"), "\n")
	assert.Len(t, lines, 501, "every record exported, header included")
	assert.GreaterOrEqual(t, lister.pages, 3, "listing is paged, not a single capped fetch")
	assert.Contains(t, string(file.Content), "Student 499")
}

func TestReportAttendanceDefaultsToCSV(t *testing.T) {
	lister := &fakeReportLister{}
	svc := NewReportService(lister, zap.NewNop(), ReportServiceConfig{})

	file, err := svc.AttendanceReport(context.Background(), ReportRequest{
		ClassID:  "c1",
		DateFrom: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		DateTo:   time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
}

func TestReportAttendanceValidation(t *testing.T) {
	svc := NewReportService(&fakeReportLister{}, zap.NewNop(), ReportServiceConfig{MaxRangeDays: 30})

	cases := []struct {
		name string
		req  ReportRequest
	}{
		{"missing class", ReportRequest{DateFrom: time.Now(), DateTo: time.Now()}},
		{"missing range", ReportRequest{ClassID: "c1"}},
		{"inverted range", ReportRequest{
			ClassID:  "c1",
			DateFrom: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
			DateTo:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		}},
		{"range too wide", ReportRequest{
			ClassID:  "c1",
			DateFrom: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			DateTo:   time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		}},
		{"unknown format", ReportRequest{
			ClassID:  "c1",
			DateFrom: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			DateTo:   time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			Format:   "xlsx",
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AttendanceReport(context.Background(), tc.req)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
		})
	}
}
