// Package repo implements the data persistence layer for the catalog domain,
// backed by GORM. This file provides repository functions for the Author model.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/booklab/go-library-backend/internal/domain"
)

// CreateAuthor inserts a new author row.
func CreateAuthor(ctx context.Context, db *gorm.DB, a *domain.Author) error {
	return db.WithContext(ctx).Create(a).Error
}

// CountAuthors returns the total number of authors.
func CountAuthors(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Author{}).Count(&total).Error
	return total, err
}

// ListAuthorsPage returns a page of authors ordered by ascending id.
func ListAuthorsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Author, error) {
	var out []domain.Author
	err := db.WithContext(ctx).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetAuthor fetches a single author by id, or ErrNotFound if missing.
func GetAuthor(ctx context.Context, db *gorm.DB, id uint) (*domain.Author, error) {
	var a domain.Author
	if err := db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// SaveAuthor persists field changes of an existing author.
func SaveAuthor(ctx context.Context, db *gorm.DB, a *domain.Author) error {
	return db.WithContext(ctx).Save(a).Error
}

// DeleteAuthor removes an author by id. Returns ErrNotFound when no row
// was affected.
func DeleteAuthor(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).Delete(&domain.Author{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
