// Package services – AuthorService
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/booklab/go-library-backend/internal/domain"
	"github.com/booklab/go-library-backend/internal/repo"
)

// AuthorInput carries parsed write fields for author create and update.
type AuthorInput struct {
	Name  *string
	Email *string
}

// AuthorService provides CRUD operations for authors. Authors carry no
// ownership; any authenticated caller may manage them.
type AuthorService struct {
	DB *gorm.DB
}

// List returns one page of authors plus the total count.
func (s *AuthorService) List(ctx context.Context, page, pageSize int) ([]domain.Author, int64, error) {
	total, err := repo.CountAuthors(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Author{}, 0, nil
	}
	items, err := repo.ListAuthorsPage(ctx, s.DB, (page-1)*pageSize, pageSize)
	return items, total, err
}

// Get fetches one author by id.
func (s *AuthorService) Get(ctx context.Context, id uint) (*domain.Author, error) {
	a, err := repo.GetAuthor(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return a, err
}

// Create validates and inserts a new author.
func (s *AuthorService) Create(ctx context.Context, ident Identity, in AuthorInput) (*domain.Author, error) {
	if !ident.Authenticated() {
		return nil, ErrUnauthenticated
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, fieldError("name", "This field is required.")
	}
	a := &domain.Author{Name: strings.TrimSpace(*in.Name)}
	if in.Email != nil {
		a.Email = strings.TrimSpace(*in.Email)
	}
	if err := repo.CreateAuthor(ctx, s.DB, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Update applies input to an existing author. With partial=false the name is
// required.
func (s *AuthorService) Update(ctx context.Context, ident Identity, id uint, in AuthorInput, partial bool) (*domain.Author, error) {
	if !ident.Authenticated() {
		return nil, ErrUnauthenticated
	}
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !partial && (in.Name == nil || strings.TrimSpace(*in.Name) == "") {
		return nil, fieldError("name", "This field is required.")
	}
	if in.Name != nil {
		a.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		a.Email = strings.TrimSpace(*in.Email)
	}
	if err := repo.SaveAuthor(ctx, s.DB, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Delete removes an author by id.
func (s *AuthorService) Delete(ctx context.Context, ident Identity, id uint) error {
	if !ident.Authenticated() {
		return ErrUnauthenticated
	}
	err := repo.DeleteAuthor(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
