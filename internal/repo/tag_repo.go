// Package repo implements the data persistence layer for the catalog domain,
// backed by GORM. This file provides repository functions for the Tag model.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/booklab/go-library-backend/internal/domain"
)

// CreateTag inserts a new tag row. A duplicate name surfaces as the raw
// unique-constraint error; the service layer translates it.
func CreateTag(ctx context.Context, db *gorm.DB, t *domain.Tag) error {
	return db.WithContext(ctx).Create(t).Error
}

// CountTags returns the total number of tags.
func CountTags(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Tag{}).Count(&total).Error
	return total, err
}

// ListTagsPage returns a page of tags ordered by ascending id.
func ListTagsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Tag, error) {
	var out []domain.Tag
	err := db.WithContext(ctx).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetTag fetches a single tag by id, or ErrNotFound if missing.
func GetTag(ctx context.Context, db *gorm.DB, id uint) (*domain.Tag, error) {
	var t domain.Tag
	if err := db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTagsByIDs resolves a list of tag ids to rows, preserving no particular
// order. The caller is responsible for detecting missing ids by comparing
// lengths.
func GetTagsByIDs(ctx context.Context, db *gorm.DB, ids []uint) ([]domain.Tag, error) {
	if len(ids) == 0 {
		return []domain.Tag{}, nil
	}
	var out []domain.Tag
	err := db.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error
	return out, err
}

// TagNameExists reports whether another tag (id != excludeID) already uses
// the given name. excludeID 0 checks all rows.
func TagNameExists(ctx context.Context, db *gorm.DB, name string, excludeID uint) (bool, error) {
	var n int64
	tx := db.WithContext(ctx).Model(&domain.Tag{}).Where("name = ?", name)
	if excludeID != 0 {
		tx = tx.Where("id <> ?", excludeID)
	}
	if err := tx.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// SaveTag persists field changes of an existing tag.
func SaveTag(ctx context.Context, db *gorm.DB, t *domain.Tag) error {
	return db.WithContext(ctx).Save(t).Error
}

// DeleteTag removes a tag by id. Returns ErrNotFound when no row was affected.
func DeleteTag(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).Delete(&domain.Tag{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
