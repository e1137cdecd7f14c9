package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mahfuz-dev/edupanel-api/internal/models"
	appErrors "github.com/mahfuz-dev/edupanel-api/pkg/errors"
	"github.com/mahfuz-dev/edupanel-api/pkg/export"
)

type reportAttendanceLister interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error)
}

// ReportFormat selects the rendered output type.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// ReportRequest scopes an attendance report.
type ReportRequest struct {
	ClassID  string
	DateFrom time.Time
	DateTo   time.Time
	Format   ReportFormat
}

// ReportFile is a rendered report ready to stream to the client.
type ReportFile struct {
	FileName    string
	ContentType string
	Content     []byte
}

// ReportServiceConfig bounds report generation.
type ReportServiceConfig struct {
	MaxRangeDays int
}

// ReportService renders attendance exports in CSV and PDF form.
type ReportService struct {
	attendance reportAttendanceLister
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	logger     *zap.Logger
	config     ReportServiceConfig
}

// NewReportService constructs a report service.
func NewReportService(attendance reportAttendanceLister, logger *zap.Logger, config ReportServiceConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxRangeDays <= 0 {
		config.MaxRangeDays = 92
	}
	return &ReportService{
		attendance: attendance,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		logger:     logger,
		config:     config,
	}
}

// reportPageSize is the fetch size per page while assembling an export. The
// listing caps a page at this size, so collectAttendance keeps paging until
// the reported total is in hand. An export is only useful when complete.
const reportPageSize = 200

func (s *ReportService) collectAttendance(ctx context.Context, req ReportRequest) ([]models.AttendanceRecord, error) {
	from := req.DateFrom
	to := req.DateTo
	var collected []models.AttendanceRecord
	for page := 1; ; page++ {
		records, total, err := s.attendance.List(ctx, models.AttendanceFilter{
			ClassID:  req.ClassID,
			DateFrom: &from,
			DateTo:   &to,
			PageSize: reportPageSize,
			Page:     page,
		})
		if err != nil {
			return nil, err
		}
		collected = append(collected, records...)
		if len(collected) >= total || len(records) < reportPageSize {
			return collected, nil
		}
	}
}

// AttendanceReport builds the attendance export for a class and date range.
func (s *ReportService) AttendanceReport(ctx context.Context, req ReportRequest) (*ReportFile, error) {
	if req.ClassID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class id is required")
	}
	if req.DateFrom.IsZero() || req.DateTo.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date range is required")
	}
	if req.DateTo.Before(req.DateFrom) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date range end precedes start")
	}
	if int(req.DateTo.Sub(req.DateFrom).Hours()/24) > s.config.MaxRangeDays {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("date range exceeds %d days", s.config.MaxRangeDays))
	}

	format := req.Format
	if format == "" {
		format = ReportFormatCSV
	}

	records, err := s.collectAttendance(ctx, req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance for report")
	}

	dataset := export.Dataset{
		Headers: []string{"Date", "Student", "Roll", "Class", "Status"},
	}
	for _, record := range records {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date":    record.Date.Format("2006-01-02"),
			"Student": record.StudentName,
			"Roll":    record.StudentRoll,
			"Class":   record.ClassName,
			"Status":  string(record.Status),
		})
	}

	stamp := time.Now().UTC().Format("20060102")
	switch format {
	case ReportFormatCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv report")
		}
		return &ReportFile{
			FileName:    fmt.Sprintf("attendance-%s-%s.csv", req.ClassID, stamp),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	case ReportFormatPDF:
		title := fmt.Sprintf("Attendance Report %s to %s", req.DateFrom.Format("2006-01-02"), req.DateTo.Format("2006-01-02"))
		content, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf report")
		}
		return &ReportFile{
			FileName:    fmt.Sprintf("attendance-%s-%s.pdf", req.ClassID, stamp),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", strings.TrimSpace(string(format))))
	}
}
