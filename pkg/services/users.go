package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/civicworks/grievance-engine/pkg/apperrors"
	"github.com/civicworks/grievance-engine/pkg/models"
	"github.com/civicworks/grievance-engine/pkg/repositories"
)

// CreateUserInput holds the fields accepted when creating a user.
type CreateUserInput struct {
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Role         string
}

// UpdateUserInput holds the patchable user fields.
type UpdateUserInput struct {
	Name   *string
	Email  *string
	Phone  *string
	Role   *string
	Active *bool
}

// UserService owns staff user CRUD. Deletes are soft so historical
// assignments and audit entries keep resolving.
type UserService interface {
	Create(ctx context.Context, input CreateUserInput, meta AuditMeta) (*models.User, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, role string) ([]*models.User, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateUserInput, meta AuditMeta) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID, meta AuditMeta) error
}

type userService struct {
	userRepo repositories.UserRepository
	audit    AuditService
	logger   *zap.Logger
}

// NewUserService creates a new user service with dependencies.
func NewUserService(userRepo repositories.UserRepository, audit AuditService, logger *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		audit:    audit,
		logger:   logger,
	}
}

var _ UserService = (*userService)(nil)

func (s *userService) Create(ctx context.Context, input CreateUserInput, meta AuditMeta) (*models.User, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", apperrors.ErrValidation)
	}
	if input.Email == "" {
		return nil, fmt.Errorf("%w: email is required", apperrors.ErrValidation)
	}
	if !models.IsValidRole(input.Role) {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidRole, input.Role)
	}

	user := &models.User{
		Name:         input.Name,
		Email:        input.Email,
		Phone:        input.Phone,
		PasswordHash: input.PasswordHash,
		Role:         input.Role,
		Active:       true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, models.AuditActionCreate, models.AuditEntityTypeUser, user.ID, nil, meta)

	return user, nil
}

func (s *userService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *userService) List(ctx context.Context, role string) ([]*models.User, error) {
	if role != "" && !models.IsValidRole(role) {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidRole, role)
	}
	return s.userRepo.List(ctx, role)
}

func (s *userService) Update(ctx context.Context, id uuid.UUID, input UpdateUserInput, meta AuditMeta) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changed := make(map[string]models.FieldChange)

	if input.Name != nil && *input.Name != user.Name {
		changed["name"] = models.FieldChange{Old: user.Name, New: *input.Name}
		user.Name = *input.Name
	}
	if input.Email != nil && *input.Email != user.Email {
		changed["email"] = models.FieldChange{Old: user.Email, New: *input.Email}
		user.Email = *input.Email
	}
	if input.Phone != nil && *input.Phone != user.Phone {
		changed["phone"] = models.FieldChange{Old: user.Phone, New: *input.Phone}
		user.Phone = *input.Phone
	}
	if input.Role != nil && *input.Role != user.Role {
		if !models.IsValidRole(*input.Role) {
			return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidRole, *input.Role)
		}
		changed["role"] = models.FieldChange{Old: user.Role, New: *input.Role}
		user.Role = *input.Role
	}
	if input.Active != nil && *input.Active != user.Active {
		changed["active"] = models.FieldChange{Old: user.Active, New: *input.Active}
		user.Active = *input.Active
	}

	if len(changed) == 0 {
		return user, nil
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, models.AuditActionUpdate, models.AuditEntityTypeUser, user.ID, changed, meta)

	return user, nil
}

func (s *userService) Delete(ctx context.Context, id uuid.UUID, meta AuditMeta) error {
	if err := s.userRepo.SoftDelete(ctx, id); err != nil {
		return err
	}

	s.audit.Log(ctx, models.AuditActionDelete, models.AuditEntityTypeUser, id, nil, meta)

	return nil
}
