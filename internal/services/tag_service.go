// Package services – TagService
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/booklab/go-library-backend/internal/domain"
	"github.com/booklab/go-library-backend/internal/repo"
)

// TagInput carries the parsed write fields for tag create and update.
type TagInput struct {
	Name *string
}

// TagService provides CRUD operations for tags. Tag names are unique; a
// duplicate surfaces as a field-level validation error rather than a raw
// constraint violation.
type TagService struct {
	DB *gorm.DB
}

// List returns one page of tags plus the total count.
func (s *TagService) List(ctx context.Context, page, pageSize int) ([]domain.Tag, int64, error) {
	total, err := repo.CountTags(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Tag{}, 0, nil
	}
	items, err := repo.ListTagsPage(ctx, s.DB, (page-1)*pageSize, pageSize)
	return items, total, err
}

// Get fetches one tag by id.
func (s *TagService) Get(ctx context.Context, id uint) (*domain.Tag, error) {
	t, err := repo.GetTag(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return t, err
}

// Create validates and inserts a new tag.
func (s *TagService) Create(ctx context.Context, ident Identity, in TagInput) (*domain.Tag, error) {
	if !ident.Authenticated() {
		return nil, ErrUnauthenticated
	}
	name, err := s.validName(ctx, in, 0)
	if err != nil {
		return nil, err
	}
	t := &domain.Tag{Name: name}
	if err := repo.CreateTag(ctx, s.DB, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Update renames an existing tag.
func (s *TagService) Update(ctx context.Context, ident Identity, id uint, in TagInput) (*domain.Tag, error) {
	if !ident.Authenticated() {
		return nil, ErrUnauthenticated
	}
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	name, err := s.validName(ctx, in, id)
	if err != nil {
		return nil, err
	}
	t.Name = name
	if err := repo.SaveTag(ctx, s.DB, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes a tag by id.
func (s *TagService) Delete(ctx context.Context, ident Identity, id uint) error {
	if !ident.Authenticated() {
		return ErrUnauthenticated
	}
	err := repo.DeleteTag(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// validName enforces the required and unique constraints on tag names.
func (s *TagService) validName(ctx context.Context, in TagInput, excludeID uint) (string, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return "", fieldError("name", "This field is required.")
	}
	name := strings.TrimSpace(*in.Name)
	taken, err := repo.TagNameExists(ctx, s.DB, name, excludeID)
	if err != nil {
		return "", err
	}
	if taken {
		return "", fieldError("name", "tag with this name already exists.")
	}
	return name, nil
}
