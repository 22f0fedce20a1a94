package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/noah-isme/subkeeper-api/internal/models"
	appErrors "github.com/noah-isme/subkeeper-api/pkg/errors"
)

type semesterFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Semester, error)
}

type subjectOwnerFinder interface {
	FindWithOwner(ctx context.Context, id int64) (*models.SubjectOwner, error)
}

// ownedSemester loads a semester of userID. Semesters of other users are
// reported as missing.
func ownedSemester(ctx context.Context, repo semesterFinder, userID, semesterID int64) (*models.Semester, error) {
	semester, err := repo.FindByID(ctx, semesterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Internal(err, "failed to load semester")
	}
	if semester.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
	}
	return semester, nil
}

func ownedSubject(ctx context.Context, repo subjectOwnerFinder, userID, subjectID int64) (*models.SubjectOwner, error) {
	subject, err := repo.FindWithOwner(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Internal(err, "failed to load subject")
	}
	if subject.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
	}
	return subject, nil
}

// requiredName trims name and rejects blank values.
func requiredName(name, field string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, field+" must not be blank")
	}
	return trimmed, nil
}
