package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/subkeeper-api/internal/models"
	appErrors "github.com/noah-isme/subkeeper-api/pkg/errors"
)

type semesterRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Semester, error)
	ExistsByName(ctx context.Context, userID int64, name string) (bool, error)
	Create(ctx context.Context, semester *models.Semester) error
	Delete(ctx context.Context, id int64) error
}

// SemesterService manages the semesters of a user.
type SemesterService struct {
	repo      semesterRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSemesterService constructs a SemesterService.
func NewSemesterService(repo semesterRepository, validate *validator.Validate, logger *zap.Logger) *SemesterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SemesterService{repo: repo, validator: validate, logger: logger}
}

// Create adds a semester for userID. Names are unique per user.
func (s *SemesterService) Create(ctx context.Context, userID int64, req models.CreateSemesterRequest) (*models.Semester, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester payload")
	}
	name, err := requiredName(req.Name, "name")
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByName(ctx, userID, name)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check semester name")
	}
	if exists {
		return nil, appErrors.ErrSemesterNameTaken
	}

	semester := &models.Semester{UserID: userID, Name: name}
	if err := s.repo.Create(ctx, semester); err != nil {
		if appErrors.IsUniqueViolation(err) {
			return nil, appErrors.ErrSemesterNameTaken
		}
		return nil, appErrors.Internal(err, "failed to create semester")
	}
	s.logger.Info("semester created", zap.Int64("user_id", userID), zap.Int64("semester_id", semester.ID))
	return semester, nil
}

// Delete removes a semester of userID together with its subjects and
// assignments.
func (s *SemesterService) Delete(ctx context.Context, userID, semesterID int64) error {
	if _, err := ownedSemester(ctx, s.repo, userID, semesterID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, semesterID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return appErrors.Internal(err, "failed to delete semester")
	}
	s.logger.Info("semester deleted", zap.Int64("user_id", userID), zap.Int64("semester_id", semesterID))
	return nil
}
