// Book HTTP handlers.
//
// This file exposes the REST endpoints for book resources:
//   - GET    /books/                (list: scoped, filtered, paginated)
//   - POST   /books/                (create; owner force-set to caller)
//   - GET    /books/{id}/           (retrieve)
//   - PUT    /books/{id}/           (full update)
//   - PATCH  /books/{id}/           (partial update)
//   - DELETE /books/{id}/           (delete; vetoed for highlighted books)
//   - GET    /books/recent/         (five newest visible books)
//   - POST   /books/{id}/highlight/ (mark a book highlighted)
//
// Handlers are transport-thin: they resolve the caller identity, parse input
// (JSON or multipart with an optional cover image), call the book service,
// and shape the output representation. All failures funnel through
// normalize(); all successes are wrapped in the standard envelope.
package handlers

import (
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/booklab/go-library-backend/internal/domain"
	"github.com/booklab/go-library-backend/internal/http/middleware"
	"github.com/booklab/go-library-backend/internal/services"
	"github.com/booklab/go-library-backend/internal/utils"
)

// Handlers groups the HTTP endpoints for books, authors, and tags.
type Handlers struct {
	books   *services.BookService
	authors *services.AuthorService
	tags    *services.TagService

	// mediaDir is the root directory for uploaded files.
	mediaDir string
	// maxCoverBytes caps cover image uploads.
	maxCoverBytes int64
}

// New constructs a Handlers instance bound to the given services.
func New(books *services.BookService, authors *services.AuthorService, tags *services.TagService, mediaDir string, maxCoverBytes int64) *Handlers {
	return &Handlers{
		books:         books,
		authors:       authors,
		tags:          tags,
		mediaDir:      mediaDir,
		maxCoverBytes: maxCoverBytes,
	}
}

// identity builds the service-level identity from the request context.
func identity(c *gin.Context) services.Identity {
	return services.Identity{ID: middleware.UserID(c), Staff: middleware.IsStaff(c)}
}

// parseID extracts the numeric resource id from the route. A non-numeric id
// is indistinguishable from a missing resource, so it yields 404.
func parseID(c *gin.Context) (uint, bool) {
	raw := strings.TrimSuffix(c.Param("id"), "/")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err == nil && id > 0 {
		return uint(id), true
	}
	fail(c, http.StatusNotFound, ErrCodeNotFound, msgNotFound, nil)
	return 0, false
}

//
// Pagination
//

const (
	pageParam     = "p"
	pageSizeParam = "page_size"
	// defaultPageSize and maxPageSize bound list responses.
	defaultPageSize = 10
	maxPageSize     = 100
)

// clampPagination parses and bounds the page and page-size query parameters.
func clampPagination(c *gin.Context) (page, pageSize int) {
	page = utils.AtoiDefault(c.Query(pageParam), 1)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query(pageSizeParam), defaultPageSize)
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// pageURL rebuilds the request URL with a different page number.
// Returns nil when page is out of range, matching the null next/previous
// links of the list payload.
func pageURL(c *gin.Context, page int, valid bool) any {
	if !valid {
		return nil
	}
	u := *c.Request.URL
	q := u.Query()
	q.Set(pageParam, strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return requestScheme(c) + "://" + c.Request.Host + u.String()
}

// listPayload is the DRF-style paginated collection shape carried in `data`.
func listPayload(c *gin.Context, page, pageSize int, total int64, results any) gin.H {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return gin.H{
		"count":    total,
		"next":     pageURL(c, page+1, page < totalPages),
		"previous": pageURL(c, page-1, page > 1 && total > 0),
		"results":  results,
	}
}

// requestScheme resolves http/https, honoring a reverse proxy's
// X-Forwarded-Proto.
func requestScheme(c *gin.Context) string {
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if c.Request.TLS != nil {
		return "https"
	}
	return "http"
}

//
// Representation shaping
//

// shapeBook converts a Book row into its public representation. The output
// renames title to "book_title" and nests the author under "writer"; the
// author email never leaves the server. The cover image is exposed only as
// an absolute URL (null when absent).
func shapeBook(c *gin.Context, b *domain.Book) gin.H {
	tags := make([]gin.H, 0, len(b.Tags))
	for _, t := range b.Tags {
		tags = append(tags, gin.H{"id": t.ID, "name": t.Name})
	}

	var owner any
	if b.OwnerID != nil {
		owner = *b.OwnerID
	}

	var coverURL any
	if b.CoverImage != "" {
		coverURL = requestScheme(c) + "://" + c.Request.Host + path.Join("/media", b.CoverImage)
	}

	return gin.H{
		"id":              b.ID,
		"book_title":      b.Title,
		"writer":          gin.H{"id": b.Author.ID, "name": b.Author.Name},
		"tags":            tags,
		"price":           b.Price.StringFixed(2),
		"published_date":  b.PublishedDate.Format("2006-01-02"),
		"is_highlighted":  b.IsHighlighted,
		"owner":           owner,
		"cover_image_url": coverURL,
	}
}

// shapeBooks shapes a slice of books.
func shapeBooks(c *gin.Context, books []domain.Book) []gin.H {
	out := make([]gin.H, 0, len(books))
	for i := range books {
		out = append(out, shapeBook(c, &books[i]))
	}
	return out
}

//
// Input binding
//

// bookPayload is the JSON write shape. Pointers distinguish absent fields
// for PATCH; tag_ids distinguishes "not sent" from "sent empty".
type bookPayload struct {
	Title         *string          `json:"title"`
	AuthorID      *uint            `json:"author_id"`
	Price         *decimal.Decimal `json:"price"`
	PublishedDate *string          `json:"published_date"`
	IsHighlighted *bool            `json:"is_highlighted"`
	TagIDs        *[]uint          `json:"tag_ids"`
}

const dateFormatMsg = "Date has wrong format. Use one of these formats instead: YYYY-MM-DD."

// bindBookInput parses the write payload from JSON or multipart form data.
// The second return reports whether a response was already written (binding
// failure); callers must stop processing when it is true.
func (h *Handlers) bindBookInput(c *gin.Context) (services.BookInput, bool) {
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		return h.bindBookForm(c)
	}

	var p bookPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "JSON parse error.", nil)
		return services.BookInput{}, true
	}

	in := services.BookInput{
		Title:         p.Title,
		AuthorID:      p.AuthorID,
		Price:         p.Price,
		IsHighlighted: p.IsHighlighted,
	}
	if p.TagIDs != nil {
		in.TagIDs = *p.TagIDs
		in.TagIDsSet = true
	}
	if p.PublishedDate != nil {
		d, err := time.Parse("2006-01-02", *p.PublishedDate)
		if err != nil {
			normalize(c, &services.ValidationError{Fields: map[string][]string{
				"published_date": {dateFormatMsg},
			}})
			return services.BookInput{}, true
		}
		in.PublishedDate = &d
	}
	return in, false
}

// bindBookForm parses the multipart variant used for cover uploads. Scalar
// fields arrive as form values; the cover image arrives as the write-only
// "cover_image" file part.
func (h *Handlers) bindBookForm(c *gin.Context) (services.BookInput, bool) {
	var in services.BookInput
	ve := &services.ValidationError{}

	if v, ok := c.GetPostForm("title"); ok {
		in.Title = &v
	}
	if v, ok := c.GetPostForm("author_id"); ok {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			ve.Add("author_id", "A valid integer is required.")
		} else {
			id := uint(n)
			in.AuthorID = &id
		}
	}
	if v, ok := c.GetPostForm("price"); ok {
		d, err := decimal.NewFromString(v)
		if err != nil {
			ve.Add("price", "A valid number is required.")
		} else {
			in.Price = &d
		}
	}
	if v, ok := c.GetPostForm("published_date"); ok {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			ve.Add("published_date", dateFormatMsg)
		} else {
			in.PublishedDate = &d
		}
	}
	if v, ok := c.GetPostForm("is_highlighted"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			ve.Add("is_highlighted", "Must be a valid boolean.")
		} else {
			in.IsHighlighted = &b
		}
	}
	if vals, ok := c.GetPostFormArray("tag_ids"); ok {
		in.TagIDsSet = true
		for _, v := range vals {
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil {
				ve.Add("tag_ids", "A valid integer is required.")
				continue
			}
			in.TagIDs = append(in.TagIDs, uint(n))
		}
	}

	if ve.HasErrors() {
		normalize(c, ve)
		return services.BookInput{}, true
	}

	// Store the upload only once the scalar fields are known good, so a
	// rejected request leaves nothing behind in the media directory.
	if fh, err := c.FormFile("cover_image"); err == nil {
		rel, ok := h.storeCover(c, fh)
		if !ok {
			return services.BookInput{}, true
		}
		in.CoverImage = &rel
	}
	return in, false
}

// storeCover validates and persists an uploaded cover image under the media
// directory, returning its media-relative path. Oversized uploads raise the
// declared business error.
func (h *Handlers) storeCover(c *gin.Context, fh *multipart.FileHeader) (string, bool) {
	if h.maxCoverBytes > 0 && fh.Size > h.maxCoverBytes {
		normalize(c, services.ErrCoverImageTooLarge)
		return "", false
	}

	name := uuid.NewString() + strings.ToLower(filepath.Ext(fh.Filename))
	dst := filepath.Join(h.mediaDir, "covers", name)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		normalize(c, err)
		return "", false
	}
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		normalize(c, err)
		return "", false
	}
	return "covers/" + name, true
}

//
// Book endpoints
//

// ListBooks godoc
// @ID          listBooks
// @Summary     List books (scoped, filtered, paginated)
// @Description Returns the page of books visible to the caller. Regular users see their own books, staff see everything.
// @Tags        Books
// @Produce     json
//
// @Param       min_price  query  string  false "Inclusive lower price bound"
// @Param       max_price  query  string  false "Inclusive upper price bound"
// @Param       search     query  string  false "Free-text match on title and author name"
// @Param       ordering   query  string  false "price | -price | published_date | -published_date"
// @Param       p          query  int     false "Page number" minimum(1) default(1)
// @Param       page_size  query  int     false "Items per page" minimum(1) maximum(100) default(10)
//
// @Success     200 {object} handlers.Envelope
// @Failure     403 {object} handlers.Envelope "Missing credentials"
// @Router      /books/ [get]
func (h *Handlers) ListBooks(c *gin.Context) {
	ident := identity(c)
	// The list endpoint demands credentials outright; everything else in the
	// visibility model treats anonymous callers as seeing an empty set.
	if !ident.Authenticated() {
		fail(c, http.StatusForbidden, ErrCodeForbidden, msgNoCredentials, nil)
		return
	}

	page, pageSize := clampPagination(c)
	opts := services.BookListOptions{
		Page:     page,
		PageSize: pageSize,
		Search:   c.Query("search"),
		Ordering: c.Query("ordering"),
	}

	ve := &services.ValidationError{}
	opts.MinPrice = parsePriceParam(c, ve, "min_price")
	opts.MaxPrice = parsePriceParam(c, ve, "max_price")
	if ve.HasErrors() {
		normalize(c, ve)
		return
	}

	items, total, err := h.books.List(c.Request.Context(), ident, opts)
	if err != nil {
		normalize(c, err)
		return
	}
	ok(c, http.StatusOK, listPayload(c, page, pageSize, total, shapeBooks(c, items)), msgOK)
}

// parsePriceParam reads an optional decimal query parameter, recording a
// field failure on malformed input.
func parsePriceParam(c *gin.Context, ve *services.ValidationError, name string) *decimal.Decimal {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		ve.Add(name, "A valid number is required.")
		return nil
	}
	return &d
}

// GetBook godoc
// @ID          getBook
// @Summary     Retrieve a single book
// @Tags        Books
// @Produce     json
// @Param       id path int true "Book ID"
// @Success     200 {object} handlers.Envelope
// @Failure     404 {object} handlers.Envelope
// @Router      /books/{id}/ [get]
func (h *Handlers) GetBook(c *gin.Context) {
	// /books/recent/ shares the wildcard position with /books/{id}/.
	if strings.TrimSuffix(c.Param("id"), "/") == "recent" {
		h.RecentBooks(c)
		return
	}

	id, okID := parseID(c)
	if !okID {
		return
	}
	b, err := h.books.Get(c.Request.Context(), id)
	if err != nil {
		normalize(c, err)
		return
	}
	ok(c, http.StatusOK, shapeBook(c, b), msgOK)
}

// CreateBook godoc
// @ID          createBook
// @Summary     Create a book
// @Description Creates a book owned by the caller. Accepts JSON or multipart form data with an optional cover_image file.
// @Tags        Books
// @Accept      json
// @Produce     json
// @Success     201 {object} handlers.Envelope
// @Failure     400 {object} handlers.Envelope "Validation failure"
// @Failure     403 {object} handlers.Envelope
// @Router      /books/ [post]
func (h *Handlers) CreateBook(c *gin.Context) {
	in, done := h.bindBookInput(c)
	if done {
		return
	}
	b, err := h.books.Create(c.Request.Context(), identity(c), in)
	if err != nil {
		normalize(c, err)
		return
	}
	ok(c, http.StatusCreated, shapeBook(c, b), msgCreated)
}

// UpdateBook handles PUT: a full update, all writable fields required.
func (h *Handlers) UpdateBook(c *gin.Context) { h.updateBook(c, false) }

// PatchBook handles PATCH: absent fields stay untouched.
func (h *Handlers) PatchBook(c *gin.Context) { h.updateBook(c, true) }

func (h *Handlers) updateBook(c *gin.Context, partial bool) {
	id, okID := parseID(c)
	if !okID {
		return
	}
	in, done := h.bindBookInput(c)
	if done {
		return
	}
	b, err := h.books.Update(c.Request.Context(), identity(c), id, in, partial)
	if err != nil {
		normalize(c, err)
		return
	}
	ok(c, http.StatusOK, shapeBook(c, b), msgOK)
}

// DeleteBook godoc
// @ID          deleteBook
// @Summary     Delete a book
// @Description Deletes a book owned by the caller. Highlighted books are never deleted.
// @Tags        Books
// @Produce     json
// @Param       id path int true "Book ID"
// @Success     200 {object} handlers.Envelope
// @Failure     400 {object} handlers.Envelope "HIGHLIGHTED_BOOK_CANNOT_BE_DELETED"
// @Failure     403 {object} handlers.Envelope
// @Failure     404 {object} handlers.Envelope
// @Router      /books/{id}/ [delete]
func (h *Handlers) DeleteBook(c *gin.Context) {
	id, okID := parseID(c)
	if !okID {
		return
	}
	if err := h.books.Delete(c.Request.Context(), identity(c), id); err != nil {
		normalize(c, err)
		return
	}
	ok(c, http.StatusOK, nil, msgDeleted)
}

// RecentBooks godoc
// @ID          recentBooks
// @Summary     Five most recently added visible books
// @Tags        Books
// @Produce     json
// @Success     200 {object} handlers.Envelope
// @Router      /books/recent/ [get]
func (h *Handlers) RecentBooks(c *gin.Context) {
	items, err := h.books.Recent(c.Request.Context(), identity(c))
	if err != nil {
		normalize(c, err)
		return
	}
	ok(c, http.StatusOK, shapeBooks(c, items), msgOK)
}

// HighlightBook godoc
// @ID          highlightBook
// @Summary     Mark a book as highlighted
// @Tags        Books
// @Produce     json
// @Param       id path int true "Book ID"
// @Success     200 {object} handlers.Envelope
// @Failure     403 {object} handlers.Envelope
// @Failure     404 {object} handlers.Envelope
// @Router      /books/{id}/highlight/ [post]
func (h *Handlers) HighlightBook(c *gin.Context) {
	id, okID := parseID(c)
	if !okID {
		return
	}
	b, err := h.books.Highlight(c.Request.Context(), identity(c), id)
	if err != nil {
		normalize(c, err)
		return
	}
	ok(c, http.StatusOK, shapeBook(c, b), msgOK)
}
