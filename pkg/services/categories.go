package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/civicworks/grievance-engine/pkg/apperrors"
	"github.com/civicworks/grievance-engine/pkg/models"
	"github.com/civicworks/grievance-engine/pkg/repositories"
)

// CreateCategoryInput holds the fields accepted when creating a category.
type CreateCategoryInput struct {
	Name      string
	LocalName string
	ParentID  *uuid.UUID
	Color     string
}

// UpdateCategoryInput holds the patchable category fields.
type UpdateCategoryInput struct {
	Name      *string
	LocalName *string
	Color     *string
	Active    *bool
}

// CategoryService owns category CRUD and the one-level tree view.
type CategoryService interface {
	Create(ctx context.Context, input CreateCategoryInput, meta AuditMeta) (*models.Category, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Category, error)
	List(ctx context.Context, activeOnly bool) ([]*models.Category, error)
	Tree(ctx context.Context, activeOnly bool) ([]*models.Category, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateCategoryInput, meta AuditMeta) (*models.Category, error)
	Delete(ctx context.Context, id uuid.UUID, meta AuditMeta) error
}

type categoryService struct {
	categoryRepo repositories.CategoryRepository
	audit        AuditService
	logger       *zap.Logger
}

// NewCategoryService creates a new category service.
func NewCategoryService(categoryRepo repositories.CategoryRepository, audit AuditService, logger *zap.Logger) CategoryService {
	return &categoryService{
		categoryRepo: categoryRepo,
		audit:        audit,
		logger:       logger,
	}
}

var _ CategoryService = (*categoryService)(nil)

func (s *categoryService) Create(ctx context.Context, input CreateCategoryInput, meta AuditMeta) (*models.Category, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", apperrors.ErrValidation)
	}

	if input.ParentID != nil {
		parent, err := s.categoryRepo.GetByID(ctx, *input.ParentID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: parent category %s", apperrors.ErrNotFound, *input.ParentID)
			}
			return nil, err
		}
		// Only one level of nesting is supported.
		if parent.ParentID != nil {
			return nil, fmt.Errorf("%w: parent category is itself a child", apperrors.ErrValidation)
		}
	}

	category := &models.Category{
		Name:      input.Name,
		LocalName: input.LocalName,
		ParentID:  input.ParentID,
		Color:     input.Color,
		Active:    true,
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, models.AuditActionCreate, models.AuditEntityTypeCategory, category.ID, nil, meta)

	return category, nil
}

func (s *categoryService) Get(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	return s.categoryRepo.GetByID(ctx, id)
}

func (s *categoryService) List(ctx context.Context, activeOnly bool) ([]*models.Category, error) {
	return s.categoryRepo.List(ctx, activeOnly)
}

func (s *categoryService) Tree(ctx context.Context, activeOnly bool) ([]*models.Category, error) {
	return s.categoryRepo.ListTree(ctx, activeOnly)
}

func (s *categoryService) Update(ctx context.Context, id uuid.UUID, input UpdateCategoryInput, meta AuditMeta) (*models.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changed := make(map[string]models.FieldChange)

	if input.Name != nil && *input.Name != category.Name {
		if *input.Name == "" {
			return nil, fmt.Errorf("%w: name is required", apperrors.ErrValidation)
		}
		changed["name"] = models.FieldChange{Old: category.Name, New: *input.Name}
		category.Name = *input.Name
	}
	if input.LocalName != nil && *input.LocalName != category.LocalName {
		changed["local_name"] = models.FieldChange{Old: category.LocalName, New: *input.LocalName}
		category.LocalName = *input.LocalName
	}
	if input.Color != nil && *input.Color != category.Color {
		changed["color"] = models.FieldChange{Old: category.Color, New: *input.Color}
		category.Color = *input.Color
	}
	if input.Active != nil && *input.Active != category.Active {
		changed["active"] = models.FieldChange{Old: category.Active, New: *input.Active}
		category.Active = *input.Active
	}

	if len(changed) == 0 {
		return category, nil
	}

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, models.AuditActionUpdate, models.AuditEntityTypeCategory, category.ID, changed, meta)

	return category, nil
}

func (s *categoryService) Delete(ctx context.Context, id uuid.UUID, meta AuditMeta) error {
	if _, err := s.categoryRepo.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.Log(ctx, models.AuditActionDelete, models.AuditEntityTypeCategory, id, nil, meta)

	return nil
}
