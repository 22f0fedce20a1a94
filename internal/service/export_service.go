package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/subkeeper-api/internal/models"
	appErrors "github.com/noah-isme/subkeeper-api/pkg/errors"
	"github.com/noah-isme/subkeeper-api/pkg/export"
)

type calendarProvider interface {
	GetCalendar(ctx context.Context, userID, semesterID int64) (*models.CalendarView, error)
}

type tableRenderer interface {
	Render(table export.Table) ([]byte, error)
	ContentType() string
	Extension() string
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders semester calendars as CSV or PDF documents.
type ExportService struct {
	calendar  calendarProvider
	renderers map[string]tableRenderer
	loc       *time.Location
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService with the CSV and PDF renderers.
func NewExportService(calendar calendarProvider, loc *time.Location, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ExportService{
		calendar: calendar,
		renderers: map[string]tableRenderer{
			"csv": export.NewCSVExporter(),
			"pdf": export.NewPDFExporter(),
		},
		loc:    loc,
		logger: logger,
		now:    time.Now,
	}
}

// ExportCalendar renders the calendar of a semester of userID. An empty format
// means CSV.
func (s *ExportService) ExportCalendar(ctx context.Context, userID, semesterID int64, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	view, err := s.calendar.GetCalendar(ctx, userID, semesterID)
	if err != nil {
		return nil, err
	}

	body, err := renderer.Render(s.calendarTable(view))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render calendar")
	}
	s.logger.Info("calendar exported",
		zap.Int64("semester_id", semesterID), zap.String("format", format), zap.Int("entries", len(view.Entries)))
	return &ExportFile{
		Filename:    fmt.Sprintf("%s-calendar.%s", slug(view.SemesterName), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

func (s *ExportService) calendarTable(view *models.CalendarView) export.Table {
	table := export.Table{
		Title:    fmt.Sprintf("%s calendar", view.SemesterName),
		Subtitle: fmt.Sprintf("%s - generated %s", view.UserName, s.now().In(s.loc).Format("2006-01-02 15:04 MST")),
		Columns: []export.Column{
			{Header: "Due", Width: 1.4},
			{Header: "Subject", Width: 1.6},
			{Header: "Assignment", Width: 2.4},
			{Header: "Category"},
			{Header: "Status"},
		},
		Rows: make([][]string, 0, len(view.Entries)),
	}
	for _, entry := range view.Entries {
		due := ""
		if entry.DueAt != nil {
			due = entry.DueAt.In(s.loc).Format("2006-01-02 15:04")
		}
		table.Rows = append(table.Rows, []string{due, entry.SubjectName, entry.Name, entry.Category.String(), entry.State.String()})
	}
	return table
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

func slug(name string) string {
	s := strings.Trim(slugInvalid.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if s == "" {
		return "semester"
	}
	return s
}
