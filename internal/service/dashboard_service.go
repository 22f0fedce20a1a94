package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/subkeeper-api/internal/models"
	appErrors "github.com/noah-isme/subkeeper-api/pkg/errors"
)

type dashboardUserReader interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

type dashboardSemesterReader interface {
	FindByID(ctx context.Context, id int64) (*models.Semester, error)
	FindLatestByUser(ctx context.Context, userID int64) (*models.Semester, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Semester, error)
}

type subjectLister interface {
	ListBySemester(ctx context.Context, semesterID int64) ([]models.Subject, error)
}

type assignmentLister interface {
	ListForDashboard(ctx context.Context, semesterID int64, filter models.AssignmentFilter) ([]models.Assignment, error)
	ListCalendar(ctx context.Context, semesterID int64) ([]models.CalendarEntry, error)
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Users       dashboardUserReader
	Semesters   dashboardSemesterReader
	Subjects    subjectLister
	Assignments assignmentLister
	Policy      *DuePolicy
	Logger      *zap.Logger
}

// DashboardService assembles the read-only dashboard and calendar views. It
// never writes state; due-soon decorations are derived per request.
type DashboardService struct {
	users       dashboardUserReader
	semesters   dashboardSemesterReader
	subjects    subjectLister
	assignments assignmentLister
	policy      *DuePolicy
	logger      *zap.Logger
	now         func() time.Time
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		users:       params.Users,
		semesters:   params.Semesters,
		subjects:    params.Subjects,
		assignments: params.Assignments,
		policy:      params.Policy,
		logger:      logger,
		now:         time.Now,
	}
}

// GetDashboard returns the dashboard of userID for semesterID, or for the
// user's most recent semester when semesterID is nil.
func (s *DashboardService) GetDashboard(ctx context.Context, userID int64, semesterID *int64, filter models.AssignmentFilter) (*models.DashboardView, error) {
	filter, err := normaliseFilter(filter)
	if err != nil {
		return nil, err
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	semester, err := s.resolveSemester(ctx, userID, semesterID)
	if err != nil {
		return nil, err
	}

	semesters, err := s.semesters.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list semesters")
	}
	menu := make([]models.SemesterMenuItem, 0, len(semesters))
	for _, item := range semesters {
		menu = append(menu, models.SemesterMenuItem{ID: item.ID, Name: item.Name, Current: item.ID == semester.ID})
	}

	subjects, err := s.subjects.ListBySemester(ctx, semester.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list subjects")
	}
	if subjects == nil {
		subjects = []models.Subject{}
	}

	assignments, err := s.assignments.ListForDashboard(ctx, semester.ID, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list assignments")
	}

	view := &models.DashboardView{
		UserID:       user.ID,
		UserName:     user.Name,
		SemesterID:   semester.ID,
		SemesterName: semester.Name,
		Subjects:     subjects,
		Menu:         menu,
		Incomplete:   []models.DashboardAssignment{},
		Complete:     []models.DashboardAssignment{},
	}
	now := s.now()
	for _, a := range assignments {
		item := models.DashboardAssignment{
			ID:             a.ID,
			SubjectID:      a.SubjectID,
			Name:           a.Name,
			DueAt:          a.DueAt,
			DueLabel:       DueLabel(a.DueAt, s.policy.Location()),
			HoursRemaining: s.policy.HoursRemaining(a.DueAt, now),
			Category:       a.Category,
			State:          a.State,
		}
		if a.State == models.StateComplete {
			view.Complete = append(view.Complete, item)
		} else {
			view.Incomplete = append(view.Incomplete, item)
		}
	}
	return view, nil
}

// GetCalendar lists every assignment of a semester of userID by due date.
func (s *DashboardService) GetCalendar(ctx context.Context, userID, semesterID int64) (*models.CalendarView, error) {
	semester, err := ownedSemester(ctx, s.semesters, userID, semesterID)
	if err != nil {
		return nil, err
	}
	owner, err := s.loadUser(ctx, semester.UserID)
	if err != nil {
		return nil, err
	}
	entries, err := s.assignments.ListCalendar(ctx, semester.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list calendar")
	}
	if entries == nil {
		entries = []models.CalendarEntry{}
	}
	return &models.CalendarView{
		SemesterID:   semester.ID,
		SemesterName: semester.Name,
		UserName:     owner.Name,
		Entries:      entries,
	}, nil
}

func (s *DashboardService) loadUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}
	return user, nil
}

func (s *DashboardService) resolveSemester(ctx context.Context, userID int64, semesterID *int64) (*models.Semester, error) {
	if semesterID != nil {
		return ownedSemester(ctx, s.semesters, userID, *semesterID)
	}
	semester, err := s.semesters.FindLatestByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user has no semesters")
		}
		return nil, appErrors.Internal(err, "failed to load latest semester")
	}
	return semester, nil
}

func normaliseFilter(filter models.AssignmentFilter) (models.AssignmentFilter, error) {
	if len(filter.Categories) == 0 {
		filter.Categories = nil
		return filter, nil
	}
	seen := make(map[models.Category]struct{}, len(filter.Categories))
	categories := make([]models.Category, 0, len(filter.Categories))
	for _, c := range filter.Categories {
		if !c.Valid() {
			return filter, appErrors.Clone(appErrors.ErrValidation, "category must be 0, 1 or 2")
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		categories = append(categories, c)
	}
	filter.Categories = categories
	return filter, nil
}
