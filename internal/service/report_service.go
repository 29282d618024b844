package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/campuswell/wellness-api/internal/dto"
	appErrors "github.com/campuswell/wellness-api/pkg/errors"
	"github.com/campuswell/wellness-api/pkg/export"
)

type reportMoodRepository interface {
	EntriesForExport(ctx context.Context, startDate, endDate string) ([]dto.MoodExportRow, error)
}

// ReportService renders admin mood reports as CSV or PDF.
type ReportService struct {
	moods  reportMoodRepository
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewReportService constructs the service.
func NewReportService(moods reportMoodRepository, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		moods:  moods,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

// ReportFormat selects the rendering backend.
type ReportFormat string

const (
	ReportCSV ReportFormat = "csv"
	ReportPDF ReportFormat = "pdf"
)

// Report is a rendered document plus its transport metadata.
type Report struct {
	Content     []byte
	ContentType string
	Filename    string
}

// MoodReport renders all mood entries inside the optional date range.
func (s *ReportService) MoodReport(ctx context.Context, format ReportFormat, startDate, endDate string) (*Report, error) {
	if startDate != "" {
		if _, err := time.Parse(dateLayout, startDate); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must be formatted YYYY-MM-DD")
		}
	}
	if endDate != "" {
		if _, err := time.Parse(dateLayout, endDate); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must be formatted YYYY-MM-DD")
		}
	}

	rows, err := s.moods.EntriesForExport(ctx, startDate, endDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mood entries")
	}

	data := export.Dataset{
		Headers: []string{"Date", "Student", "Student ID", "Mood Level", "Notes"},
	}
	for _, row := range rows {
		data.Rows = append(data.Rows, map[string]string{
			"Date":       row.EntryDate,
			"Student":    row.StudentName,
			"Student ID": row.StudentNumber,
			"Mood Level": strconv.Itoa(row.MoodLevel),
			"Notes":      row.Notes,
		})
	}

	stamp := time.Now().Format("20060102")
	switch format {
	case ReportCSV:
		content, err := s.csv.Render(data)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render CSV")
		}
		return &Report{
			Content:     content,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("mood-report-%s.csv", stamp),
		}, nil
	case ReportPDF:
		content, err := s.pdf.Render(data, "Mood Report")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render PDF")
		}
		return &Report{
			Content:     content,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("mood-report-%s.pdf", stamp),
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}
