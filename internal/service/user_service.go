package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/subkeeper-api/internal/models"
	appErrors "github.com/noah-isme/subkeeper-api/pkg/errors"
)

type userRepository interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type latestSemesterFinder interface {
	FindLatestByUser(ctx context.Context, userID int64) (*models.Semester, error)
}

// UserService handles user lookup and provisioning.
type UserService struct {
	repo      userRepository
	semesters latestSemesterFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, semesters latestSemesterFinder, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, semesters: semesters, validator: validate, logger: logger}
}

// Create registers a user identified only by name.
func (s *UserService) Create(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}
	name, err := requiredName(req.Name, "name")
	if err != nil {
		return nil, err
	}
	user := &models.User{Name: name}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Internal(err, "failed to create user")
	}
	s.logger.Info("user created", zap.Int64("user_id", user.ID))
	return user, nil
}

// LoginOrSignUp returns the user owning identity.Email, creating it on first
// login. The boolean reports whether a user was created.
func (s *UserService) LoginOrSignUp(ctx context.Context, identity models.Identity) (*models.User, bool, error) {
	email := strings.ToLower(strings.TrimSpace(identity.Email))
	if email == "" {
		return nil, false, appErrors.Clone(appErrors.ErrInvalidCredential, "identity has no email")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, appErrors.Internal(err, "failed to fetch user")
	}

	name := strings.TrimSpace(identity.Name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	user = &models.User{Name: name, Email: &email}
	if err := s.repo.Create(ctx, user); err != nil {
		if appErrors.IsUniqueViolation(err) {
			// Another login for the same email won the insert.
			existing, findErr := s.repo.FindByEmail(ctx, email)
			if findErr == nil {
				return existing, false, nil
			}
		}
		return nil, false, appErrors.Internal(err, "failed to create user")
	}
	s.logger.Info("user signed up", zap.Int64("user_id", user.ID))
	return user, true, nil
}

// Profile returns the user with the id of their most recent semester.
func (s *UserService) Profile(ctx context.Context, userID int64) (*models.UserProfile, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}
	return s.ProfileFor(ctx, user)
}

// ProfileFor decorates an already loaded user.
func (s *UserService) ProfileFor(ctx context.Context, user *models.User) (*models.UserProfile, error) {
	profile := &models.UserProfile{ID: user.ID, Name: user.Name, Email: user.Email}
	semester, err := s.semesters.FindLatestByUser(ctx, user.ID)
	switch {
	case err == nil:
		profile.LastSemID = &semester.ID
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, appErrors.Internal(err, "failed to load latest semester")
	}
	return profile, nil
}
