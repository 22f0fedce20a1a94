package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/subkeeper-api/internal/models"
	appErrors "github.com/noah-isme/subkeeper-api/pkg/errors"
)

type assignmentRepository interface {
	FindWithOwner(ctx context.Context, id int64) (*models.AssignmentOwner, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	UpdateState(ctx context.Context, id int64, next func(current models.Assignment) models.CompletionState) (*models.Assignment, error)
	UpdateFields(ctx context.Context, id int64, patch models.AssignmentPatch) (*models.Assignment, error)
	Delete(ctx context.Context, id int64) error
}

type stateObserver interface {
	ObserveStateChange(state models.CompletionState)
}

// AssignmentServiceParams groups the collaborators of AssignmentService.
type AssignmentServiceParams struct {
	Repo      assignmentRepository
	Subjects  subjectOwnerFinder
	Policy    *DuePolicy
	Metrics   stateObserver
	Validator *validator.Validate
	Logger    *zap.Logger
}

// AssignmentService owns the assignment lifecycle including the completion
// state machine.
type AssignmentService struct {
	repo      assignmentRepository
	subjects  subjectOwnerFinder
	policy    *DuePolicy
	metrics   stateObserver
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAssignmentService constructs an AssignmentService.
func NewAssignmentService(params AssignmentServiceParams) *AssignmentService {
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		repo:      params.Repo,
		subjects:  params.Subjects,
		policy:    params.Policy,
		metrics:   params.Metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Create adds an incomplete assignment to a subject of userID.
func (s *AssignmentService) Create(ctx context.Context, userID, subjectID int64, req models.CreateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	name, err := requiredName(req.Name, "name")
	if err != nil {
		return nil, err
	}
	category := models.Category(*req.Category)
	if !category.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "category must be 0, 1 or 2")
	}
	if _, err := ownedSubject(ctx, s.subjects, userID, subjectID); err != nil {
		return nil, err
	}

	due := req.DueAt
	assignment := &models.Assignment{
		SubjectID: subjectID,
		Name:      name,
		DueAt:     &due,
		Category:  category,
		State:     models.StateIncomplete,
	}
	if err := s.repo.Create(ctx, assignment); err != nil {
		return nil, appErrors.Internal(err, "failed to create assignment")
	}
	s.logger.Debug("assignment created", zap.Int64("assignment_id", assignment.ID), zap.Int64("subject_id", subjectID))
	return assignment, nil
}

// Update edits assignment fields. The completion state is left untouched; the
// daily sweep or an explicit completion request moves it.
func (s *AssignmentService) Update(ctx context.Context, userID, assignmentID int64, req models.UpdateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	patch := models.AssignmentPatch{SubjectID: req.SubjectID, DueAt: req.DueAt}
	if req.Name != nil {
		name, err := requiredName(*req.Name, "name")
		if err != nil {
			return nil, err
		}
		patch.Name = &name
	}
	if req.Category != nil {
		category := models.Category(*req.Category)
		if !category.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "category must be 0, 1 or 2")
		}
		patch.Category = &category
	}

	if _, err := s.ownedAssignment(ctx, userID, assignmentID); err != nil {
		return nil, err
	}
	if patch.SubjectID != nil {
		if _, err := ownedSubject(ctx, s.subjects, userID, *patch.SubjectID); err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.UpdateFields(ctx, assignmentID, patch)
	if err != nil {
		return nil, s.mapWriteError(err, "failed to update assignment")
	}
	return updated, nil
}

// ApplyCompletion sets the completion flag of an assignment. Flag 1 completes
// it; any other value reopens it as incomplete or due soon depending on the
// due-soon policy at the current instant.
func (s *AssignmentService) ApplyCompletion(ctx context.Context, userID, assignmentID int64, flag int) (*models.Assignment, error) {
	if _, err := s.ownedAssignment(ctx, userID, assignmentID); err != nil {
		return nil, err
	}
	requested := models.StateIncomplete
	if flag == int(models.StateComplete) {
		requested = models.StateComplete
	}

	now := s.now()
	updated, err := s.repo.UpdateState(ctx, assignmentID, func(current models.Assignment) models.CompletionState {
		return DeriveState(requested, current.DueAt, now, s.policy)
	})
	if err != nil {
		return nil, s.mapWriteError(err, "failed to update assignment state")
	}
	if s.metrics != nil {
		s.metrics.ObserveStateChange(updated.State)
	}
	s.logger.Debug("assignment state applied",
		zap.Int64("assignment_id", assignmentID), zap.Int("flag", flag), zap.Stringer("state", updated.State))
	return updated, nil
}

// Delete removes an assignment of userID.
func (s *AssignmentService) Delete(ctx context.Context, userID, assignmentID int64) error {
	if _, err := s.ownedAssignment(ctx, userID, assignmentID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, assignmentID); err != nil {
		return s.mapWriteError(err, "failed to delete assignment")
	}
	return nil
}

func (s *AssignmentService) ownedAssignment(ctx context.Context, userID, assignmentID int64) (*models.AssignmentOwner, error) {
	assignment, err := s.repo.FindWithOwner(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Internal(err, "failed to load assignment")
	}
	if assignment.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
	}
	return assignment, nil
}

func (s *AssignmentService) mapWriteError(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
	}
	return appErrors.Internal(err, message)
}
