// Package repo implements the data persistence layer for the catalog domain,
// backed by GORM. This file provides repository functions for the Book model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a book is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Query composition (BookQuery) covers the visible-set scoping (owner filter),
// inclusive price range, free-text search across title and author name, a
// whitelisted ordering expression, and offset/limit pagination. The service
// layer decides WHICH scope applies; this layer only applies it.
package repo

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/booklab/go-library-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// likeEscaper neutralizes LIKE metacharacters in user search input so they
// match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching rows that contain s. Case
// handling is left to LIKE itself: SQLite compares ASCII case-insensitively
// and anything beyond ASCII byte-for-byte.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// BookQuery describes the composable parts of a book listing.
//
// A nil Owner means no ownership filter (full visibility); a non-nil Owner
// restricts rows to that identity. Price bounds are inclusive and optional.
// Ordering accepts "price", "published_date", or either prefixed with "-"
// for descending; anything else falls back to ascending id.
type BookQuery struct {
	Owner    *string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Search   string
	Ordering string
	Offset   int
	Limit    int
}

// orderExpr maps the public ordering parameter to a safe SQL order clause.
func orderExpr(ordering string) string {
	switch ordering {
	case "price":
		return "books.price ASC"
	case "-price":
		return "books.price DESC"
	case "published_date":
		return "books.published_date ASC"
	case "-published_date":
		return "books.published_date DESC"
	default:
		return "books.id ASC"
	}
}

// scopeBooks applies the BookQuery filters (not ordering or pagination) to a
// base Book query. Search joins the authors table so author names match too.
func scopeBooks(db *gorm.DB, q BookQuery) *gorm.DB {
	tx := db.Model(&domain.Book{})
	if q.Owner != nil {
		tx = tx.Where("books.owner_id = ?", *q.Owner)
	}
	if q.MinPrice != nil {
		tx = tx.Where("books.price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		tx = tx.Where("books.price <= ?", *q.MaxPrice)
	}
	if q.Search != "" {
		pattern := containsPattern(q.Search)
		tx = tx.Joins("JOIN authors ON authors.id = books.author_id").
			Where("books.title LIKE ? ESCAPE '\\' OR authors.name LIKE ? ESCAPE '\\'", pattern, pattern)
	}
	return tx
}

// CountBooks returns the number of books matching the query filters.
// Ordering, offset, and limit are ignored for counting.
func CountBooks(ctx context.Context, db *gorm.DB, q BookQuery) (int64, error) {
	var total int64
	err := scopeBooks(db.WithContext(ctx), q).Count(&total).Error
	return total, err
}

// ListBooksPage returns one page of books matching the query, with the author
// and tag associations preloaded. Use CountBooks for pagination totals.
func ListBooksPage(ctx context.Context, db *gorm.DB, q BookQuery) ([]domain.Book, error) {
	var out []domain.Book
	tx := scopeBooks(db.WithContext(ctx), q).
		Order(orderExpr(q.Ordering)).
		Preload("Author").
		Preload("Tags")
	if q.Limit > 0 {
		tx = tx.Offset(q.Offset).Limit(q.Limit)
	}
	err := tx.Find(&out).Error
	return out, err
}

// GetBook fetches a single book by id with associations preloaded.
// Returns ErrNotFound when the record does not exist.
func GetBook(ctx context.Context, db *gorm.DB, id uint) (*domain.Book, error) {
	var b domain.Book
	err := db.WithContext(ctx).
		Preload("Author").
		Preload("Tags").
		First(&b, id).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// RecentBooks returns the most recently created books within the given
// ownership scope, newest first (descending id), truncated to limit.
func RecentBooks(ctx context.Context, db *gorm.DB, owner *string, limit int) ([]domain.Book, error) {
	var out []domain.Book
	tx := db.WithContext(ctx).Model(&domain.Book{})
	if owner != nil {
		tx = tx.Where("books.owner_id = ?", *owner)
	}
	err := tx.Order("books.id DESC").
		Limit(limit).
		Preload("Author").
		Preload("Tags").
		Find(&out).Error
	return out, err
}

// CreateBook inserts a new book row. Associations already populated on the
// struct (Author by id, existing Tags) are linked, not duplicated.
func CreateBook(ctx context.Context, db *gorm.DB, b *domain.Book) error {
	return db.WithContext(ctx).Create(b).Error
}

// SaveBook persists scalar field changes of an existing book.
// Tag changes go through ReplaceBookTags.
func SaveBook(ctx context.Context, db *gorm.DB, b *domain.Book) error {
	return db.WithContext(ctx).
		Omit("Author", "Tags").
		Save(b).Error
}

// ReplaceBookTags swaps the book's tag set for the given tags.
func ReplaceBookTags(ctx context.Context, db *gorm.DB, b *domain.Book, tags []domain.Tag) error {
	if err := db.WithContext(ctx).Model(b).Association("Tags").Replace(tags); err != nil {
		return err
	}
	b.Tags = tags
	return nil
}

// DeleteBook soft-deletes a book by id. Returns ErrNotFound when no row
// was affected (already deleted or never existed).
func DeleteBook(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).Delete(&domain.Book{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetBookHighlighted flips the highlighted flag of a book by id.
// Returns ErrNotFound when the book does not exist.
func SetBookHighlighted(ctx context.Context, db *gorm.DB, id uint, v bool) error {
	res := db.WithContext(ctx).
		Model(&domain.Book{}).
		Where("id = ?", id).
		Update("is_highlighted", v)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
