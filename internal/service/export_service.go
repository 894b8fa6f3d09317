package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shiftwise/volunteer-api/internal/models"
	"github.com/shiftwise/volunteer-api/pkg/export"
	appErrors "github.com/shiftwise/volunteer-api/pkg/errors"
)

type rotaShiftLister interface {
	ListBetween(ctx context.Context, from, to time.Time) ([]models.ShiftDetail, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult carries rendered bytes with delivery metadata.
type ExportResult struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ExportService renders the shift rota for a date window as CSV or PDF.
type ExportService struct {
	shifts rotaShiftLister
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(shifts rotaShiftLister, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{shifts: shifts, csv: csv, pdf: pdf, logger: logger}
}

// RotaCSV renders the rota between two dates as CSV.
func (s *ExportService) RotaCSV(ctx context.Context, from, to time.Time) (*ExportResult, error) {
	data, err := s.buildRotaDataset(ctx, from, to)
	if err != nil {
		return nil, err
	}
	content, err := s.csv.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return &ExportResult{
		Filename:    rotaFilename(from, to, "csv"),
		ContentType: "text/csv",
		Content:     content,
	}, nil
}

// RotaPDF renders the rota between two dates as PDF.
func (s *ExportService) RotaPDF(ctx context.Context, from, to time.Time) (*ExportResult, error) {
	data, err := s.buildRotaDataset(ctx, from, to)
	if err != nil {
		return nil, err
	}
	title := fmt.Sprintf("Volunteer rota %s to %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	content, err := s.pdf.Render(data, title)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return &ExportResult{
		Filename:    rotaFilename(from, to, "pdf"),
		ContentType: "application/pdf",
		Content:     content,
	}, nil
}

func (s *ExportService) buildRotaDataset(ctx context.Context, from, to time.Time) (export.Dataset, error) {
	if to.Before(from) {
		return export.Dataset{}, appErrors.Clone(appErrors.ErrValidation, "to date precedes from date")
	}
	shifts, err := s.shifts.ListBetween(ctx, from, to)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list shifts")
	}

	data := export.Dataset{
		Headers: []string{"Date", "Start", "End", "Class", "Volunteer", "Checked In"},
		Rows:    make([]map[string]string, 0, len(shifts)),
	}
	for _, shift := range shifts {
		checked := "no"
		if shift.CheckedIn {
			checked = "yes"
		}
		data.Rows = append(data.Rows, map[string]string{
			"Date":       shift.Date.Format("2006-01-02"),
			"Start":      shift.StartTime,
			"End":        shift.EndTime,
			"Class":      shift.ClassName,
			"Volunteer":  shift.VolunteerName,
			"Checked In": checked,
		})
	}
	return data, nil
}

func rotaFilename(from, to time.Time, ext string) string {
	return fmt.Sprintf("rota_%s_%s.%s", from.Format("20060102"), to.Format("20060102"), ext)
}
