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

type subjectRepository interface {
	FindWithOwner(ctx context.Context, id int64) (*models.SubjectOwner, error)
	ExistsByName(ctx context.Context, semesterID int64, name string) (bool, error)
	Create(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id int64) error
}

// SubjectService manages subjects within a semester.
type SubjectService struct {
	repo      subjectRepository
	semesters semesterFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService constructs a SubjectService.
func NewSubjectService(repo subjectRepository, semesters semesterFinder, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SubjectService{repo: repo, semesters: semesters, validator: validate, logger: logger}
}

// Create adds a subject to a semester of userID. Names are unique within the
// semester; a duplicate leaves the store untouched.
func (s *SubjectService) Create(ctx context.Context, userID, semesterID int64, req models.CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	name, err := requiredName(req.Name, "name")
	if err != nil {
		return nil, err
	}
	if _, err := ownedSemester(ctx, s.semesters, userID, semesterID); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByName(ctx, semesterID, name)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check subject name")
	}
	if exists {
		return nil, appErrors.ErrSubjectNameTaken
	}

	subject := &models.Subject{SemesterID: semesterID, Name: name}
	if err := s.repo.Create(ctx, subject); err != nil {
		if appErrors.IsUniqueViolation(err) {
			return nil, appErrors.ErrSubjectNameTaken
		}
		return nil, appErrors.Internal(err, "failed to create subject")
	}
	s.logger.Info("subject created", zap.Int64("semester_id", semesterID), zap.Int64("subject_id", subject.ID))
	return subject, nil
}

// Delete removes a subject of userID and its assignments.
func (s *SubjectService) Delete(ctx context.Context, userID, subjectID int64) error {
	if _, err := ownedSubject(ctx, s.repo, userID, subjectID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, subjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Internal(err, "failed to delete subject")
	}
	s.logger.Info("subject deleted", zap.Int64("subject_id", subjectID))
	return nil
}
