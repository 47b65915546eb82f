package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/itops/support-portal/internal/domain"
	"github.com/itops/support-portal/internal/repository"
	apperrors "github.com/itops/support-portal/pkg/util/errorutil"
)

// UserService is the admin surface for account management.
type UserService struct {
	users  repository.UserRepository
	logger *zap.Logger
}

func NewUserService(users repository.UserRepository, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, logger: logger}
}

// List pages through accounts. Admin only.
func (s *UserService) List(ctx context.Context, actor *domain.User, limit, offset int) ([]domain.User, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("user management requires the admin role")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// Get fetches one account. Admins see everyone; other roles only
// themselves.
func (s *UserService) Get(ctx context.Context, actor *domain.User, userID string) (*domain.User, error) {
	if actor.Role != domain.RoleAdmin && actor.ID != userID {
		return nil, apperrors.NewForbidden("cannot view other accounts")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.NewStorageError(err)
	}
	return user, nil
}

// ChangeRole promotes or demotes an account. Admins cannot demote
// themselves, which keeps at least one admin reachable.
func (s *UserService) ChangeRole(ctx context.Context, actor *domain.User, userID string, role domain.Role) error {
	if actor.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("user management requires the admin role")
	}
	if !role.Valid() {
		return apperrors.NewValidationError("unknown role", map[string]any{"role": role})
	}
	if actor.ID == userID && role != domain.RoleAdmin {
		return apperrors.NewConflict("admins cannot demote themselves", nil)
	}
	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return apperrors.NewStorageError(err)
	}
	s.logger.Info("role changed",
		zap.String("user_id", userID),
		zap.String("role", string(role)),
		zap.String("changed_by", actor.ID))
	return nil
}

// SetActive suspends or reinstates an account. Suspended users lose
// access immediately because the auth middleware re-reads the row.
func (s *UserService) SetActive(ctx context.Context, actor *domain.User, userID string, active bool) error {
	if actor.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("user management requires the admin role")
	}
	if actor.ID == userID && !active {
		return apperrors.NewConflict("admins cannot suspend themselves", nil)
	}
	if err := s.users.SetActive(ctx, userID, active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return apperrors.NewStorageError(err)
	}
	s.logger.Info("account status changed",
		zap.String("user_id", userID),
		zap.Bool("active", active),
		zap.String("changed_by", actor.ID))
	return nil
}
