// Package services – BookService
//
// This file implements the BookService, the resource controller behind the
// book endpoints. It decides the visible book set per caller (query scoping),
// force-sets ownership on creation, enforces field- and object-level
// validation, and applies the business guards (deletion veto on highlighted
// books). Business and validation errors are returned as typed values so the
// handler layer can translate them into envelope responses consistently.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/booklab/go-library-backend/internal/domain"
	"github.com/booklab/go-library-backend/internal/repo"
)

const (
	// reservedAuthorName triggers the price ceiling rule.
	reservedAuthorName = "吴承恩"
	// recentLimit bounds the "recent books" action.
	recentLimit = 5
)

// reservedAuthorMaxPrice is the inclusive ceiling for the reserved author.
var reservedAuthorMaxPrice = decimal.NewFromInt(100)

// BookInput carries parsed write fields for create and update. Nil pointers
// mean "not supplied"; TagIDsSet distinguishes an absent tag_ids key from an
// explicit empty list.
type BookInput struct {
	Title         *string
	AuthorID      *uint
	Price         *decimal.Decimal
	PublishedDate *time.Time
	IsHighlighted *bool
	TagIDs        []uint
	TagIDsSet     bool
	// CoverImage is the media-relative path of an already stored upload.
	CoverImage *string
}

// BookListOptions selects and orders the visible page of books.
type BookListOptions struct {
	Page     int
	PageSize int
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Search   string
	Ordering string
}

// BookService provides book-level operations with ownership scoping.
type BookService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// DefaultPageSize applies when the caller supplies none.
	DefaultPageSize int
	// MaxPageSize caps the caller-supplied page size.
	MaxPageSize int
}

// NewBookService constructs a BookService with the standard page bounds.
func NewBookService(db *gorm.DB) *BookService {
	return &BookService{DB: db, DefaultPageSize: 10, MaxPageSize: 100}
}

// visibleScope maps an identity to the ownership filter of its visible set.
// The boolean reports whether anything is visible at all: anonymous callers
// see an empty set rather than causing a null-identity fault.
func visibleScope(ident Identity) (owner *string, visible bool) {
	switch {
	case !ident.Authenticated():
		return nil, false
	case ident.Staff:
		return nil, true
	default:
		id := ident.ID
		return &id, true
	}
}

// clampPage bounds page and pageSize to the configured defaults and limits.
func (s *BookService) clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = s.DefaultPageSize
	}
	if s.MaxPageSize > 0 && pageSize > s.MaxPageSize {
		pageSize = s.MaxPageSize
	}
	return page, pageSize
}

// List returns one page of the books visible to ident plus the total count.
// Anonymous callers get an empty result, never an error.
func (s *BookService) List(ctx context.Context, ident Identity, opts BookListOptions) ([]domain.Book, int64, error) {
	owner, visible := visibleScope(ident)
	if !visible {
		return []domain.Book{}, 0, nil
	}

	page, pageSize := s.clampPage(opts.Page, opts.PageSize)
	q := repo.BookQuery{
		Owner:    owner,
		MinPrice: opts.MinPrice,
		MaxPrice: opts.MaxPrice,
		Search:   strings.TrimSpace(opts.Search),
		Ordering: opts.Ordering,
	}

	total, err := repo.CountBooks(ctx, s.DB, q)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Book{}, 0, nil
	}

	q.Offset = (page - 1) * pageSize
	q.Limit = pageSize
	items, err := repo.ListBooksPage(ctx, s.DB, q)
	return items, total, err
}

// Recent returns the newest books visible to ident, descending id, capped
// at five. Anonymous callers get an empty result.
func (s *BookService) Recent(ctx context.Context, ident Identity) ([]domain.Book, error) {
	owner, visible := visibleScope(ident)
	if !visible {
		return []domain.Book{}, nil
	}
	return repo.RecentBooks(ctx, s.DB, owner, recentLimit)
}

// Get fetches one book by id. Reads are safe-method operations, so no
// ownership filter applies here.
func (s *BookService) Get(ctx context.Context, id uint) (*domain.Book, error) {
	b, err := repo.GetBook(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return b, err
}

// Create validates the input and inserts a new book. The owner is force-set
// to the requesting identity regardless of any caller-supplied value.
func (s *BookService) Create(ctx context.Context, ident Identity, in BookInput) (*domain.Book, error) {
	if !ident.Authenticated() {
		return nil, ErrUnauthenticated
	}

	ve := &ValidationError{}
	requireField(ve, "title", in.Title != nil && strings.TrimSpace(*in.Title) != "")
	requireField(ve, "author_id", in.AuthorID != nil)
	requireField(ve, "price", in.Price != nil)
	requireField(ve, "published_date", in.PublishedDate != nil)
	if ve.HasErrors() {
		return nil, ve
	}

	author, tags, err := s.validateWrite(ctx, ve, in, *in.Price)
	if err != nil {
		return nil, err
	}
	if ve.HasErrors() {
		return nil, ve
	}

	owner := ident.ID
	b := &domain.Book{
		Title:         strings.TrimSpace(*in.Title),
		AuthorID:      author.ID,
		Author:        *author,
		Tags:          tags,
		Price:         *in.Price,
		PublishedDate: *in.PublishedDate,
		OwnerID:       &owner,
	}
	if in.IsHighlighted != nil {
		b.IsHighlighted = *in.IsHighlighted
	}
	if in.CoverImage != nil {
		b.CoverImage = *in.CoverImage
	}
	if err := repo.CreateBook(ctx, s.DB, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Update applies input to an existing book owned by ident. With partial=false
// (PUT) all writable fields are required; with partial=true (PATCH) absent
// fields stay untouched. Validation runs against the resulting state so an
// author change and a price change are checked together.
func (s *BookService) Update(ctx context.Context, ident Identity, id uint, in BookInput, partial bool) (*domain.Book, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	method := http.MethodPut
	if partial {
		method = http.MethodPatch
	}
	if !ObjectPermitted(method, ident, b) {
		return nil, ErrForbidden
	}

	ve := &ValidationError{}
	if !partial {
		requireField(ve, "title", in.Title != nil && strings.TrimSpace(*in.Title) != "")
		requireField(ve, "author_id", in.AuthorID != nil)
		requireField(ve, "price", in.Price != nil)
		requireField(ve, "published_date", in.PublishedDate != nil)
		if ve.HasErrors() {
			return nil, ve
		}
	}

	price := b.Price
	if in.Price != nil {
		price = *in.Price
	}
	author, tags, err := s.validateWrite(ctx, ve, in, price)
	if err != nil {
		return nil, err
	}
	// Reserved-author rule must also see an unchanged author with a new price.
	if in.AuthorID == nil && b.Author.Name == reservedAuthorName && price.GreaterThan(reservedAuthorMaxPrice) {
		ve.Add(NonFieldErrors, "吴承恩的书不能高于100元")
	}
	if ve.HasErrors() {
		return nil, ve
	}

	if in.Title != nil {
		b.Title = strings.TrimSpace(*in.Title)
	}
	if author != nil {
		b.AuthorID = author.ID
		b.Author = *author
	}
	if in.Price != nil {
		b.Price = *in.Price
	}
	if in.PublishedDate != nil {
		b.PublishedDate = *in.PublishedDate
	}
	if in.IsHighlighted != nil {
		b.IsHighlighted = *in.IsHighlighted
	}
	if in.CoverImage != nil {
		b.CoverImage = *in.CoverImage
	}

	if err := repo.SaveBook(ctx, s.DB, b); err != nil {
		return nil, err
	}
	if in.TagIDsSet {
		if err := repo.ReplaceBookTags(ctx, s.DB, b, tags); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Delete removes a book owned by ident. A highlighted book is never deleted,
// regardless of the actor; the business error propagates untouched.
func (s *BookService) Delete(ctx context.Context, ident Identity, id uint) error {
	b, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !ObjectPermitted(http.MethodDelete, ident, b) {
		return ErrForbidden
	}
	if b.IsHighlighted {
		return ErrHighlightedBookCannotBeDeleted
	}
	return repo.DeleteBook(ctx, s.DB, id)
}

// Highlight marks a book owned by ident as highlighted and returns the
// updated record.
func (s *BookService) Highlight(ctx context.Context, ident Identity, id uint) (*domain.Book, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ObjectPermitted(http.MethodPost, ident, b) {
		return nil, ErrForbidden
	}
	if err := repo.SetBookHighlighted(ctx, s.DB, id, true); err != nil {
		return nil, err
	}
	b.IsHighlighted = true
	return b, nil
}

// validateWrite checks the cross-field rules shared by create and update and
// resolves the author and tag references. It accumulates caller-visible
// failures in ve and returns only infrastructure errors.
func (s *BookService) validateWrite(ctx context.Context, ve *ValidationError, in BookInput, price decimal.Decimal) (*domain.Author, []domain.Tag, error) {
	if in.Price != nil && in.Price.IsNegative() {
		ve.Add("price", "价格不能是负数")
	}

	var author *domain.Author
	if in.AuthorID != nil {
		a, err := repo.GetAuthor(ctx, s.DB, *in.AuthorID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			ve.Add("author_id", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", *in.AuthorID))
		case err != nil:
			return nil, nil, err
		default:
			author = a
			if a.Name == reservedAuthorName && price.GreaterThan(reservedAuthorMaxPrice) {
				ve.Add(NonFieldErrors, "吴承恩的书不能高于100元")
			}
		}
	}

	var tags []domain.Tag
	if in.TagIDsSet {
		found, err := repo.GetTagsByIDs(ctx, s.DB, in.TagIDs)
		if err != nil {
			return nil, nil, err
		}
		if len(found) != len(uniqueIDs(in.TagIDs)) {
			for _, id := range missingTagIDs(in.TagIDs, found) {
				ve.Add("tag_ids", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id))
			}
		}
		tags = found
	}
	return author, tags, nil
}

// requireField records the standard required-field failure when ok is false.
func requireField(ve *ValidationError, field string, ok bool) {
	if !ok {
		ve.Add(field, "This field is required.")
	}
}

// uniqueIDs deduplicates an id list preserving order.
func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// missingTagIDs lists requested ids absent from the resolved tags.
func missingTagIDs(ids []uint, found []domain.Tag) []uint {
	have := make(map[uint]struct{}, len(found))
	for _, t := range found {
		have[t.ID] = struct{}{}
	}
	var missing []uint
	for _, id := range uniqueIDs(ids) {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
