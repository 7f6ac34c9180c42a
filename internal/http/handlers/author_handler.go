package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/booklab/go-library-backend/internal/domain"
	"github.com/booklab/go-library-backend/internal/services"
)

// authorPayload is the author write shape.
type authorPayload struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

// shapeAuthor converts an Author row into its public representation.
// Email is accepted on writes but never rendered.
func shapeAuthor(a *domain.Author) gin.H {
	return gin.H{
		"id":   a.ID,
		"name": a.Name,
	}
}

func shapeAuthors(authors []domain.Author) []gin.H {
	out := make([]gin.H, 0, len(authors))
	for i := range authors {
		out = append(out, shapeAuthor(&authors[i]))
	}
	return out
}

func bindAuthorInput(c *gin.Context) (services.AuthorInput, bool) {
	var p authorPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "JSON parse error.", nil)
		return services.AuthorInput{}, true
	}
	return services.AuthorInput{Name: p.Name, Email: p.Email}, false
}

// ListAuthors godoc
// @ID          listAuthors
// @Summary     List authors
// @Tags        Authors
// @Produce     json
// @Param       p         query int false "Page number" minimum(1) default(1)
// @Param       page_size query int false "Items per page" minimum(1) maximum(100) default(10)
// @Success     200 {object} handlers.Envelope
// @Router      /authors/ [get]
func (h *Handlers) ListAuthors(c *gin.Context) {
	page, pageSize := clampPagination(c)
	items, total, err := h.authors.List(c.Request.Context(), page, pageSize)
	if err != nil {
		normalize(c, err)
		return
	}
	ok(c, http.StatusOK, listPayload(c, page, pageSize, total, shapeAuthors(items)), msgOK)
}

// GetAuthor godoc
// @ID          getAuthor
// @Summary     Retrieve a single author
// @Tags        Authors
// @Produce     json
// @Param       id path int true "Author ID"
// @Success     200 {object} handlers.Envelope
// @Failure     404 {object} handlers.Envelope
// @Router      /authors/{id}/ [get]
func (h *Handlers) GetAuthor(c *gin.Context) {
	id, okID := parseID(c)
	if !okID {
		return
	}
	a, err := h.authors.Get(c.Request.Context(), id)
	if err != nil {
		normalize(c, err)
		return
	}
	ok(c, http.StatusOK, shapeAuthor(a), msgOK)
}

// CreateAuthor godoc
// @ID          createAuthor
// @Summary     Create an author
// @Tags        Authors
// @Accept      json
// @Produce     json
// @Success     201 {object} handlers.Envelope
// @Failure     400 {object} handlers.Envelope
// @Router      /authors/ [post]
func (h *Handlers) CreateAuthor(c *gin.Context) {
	in, done := bindAuthorInput(c)
	if done {
		return
	}
	a, err := h.authors.Create(c.Request.Context(), identity(c), in)
	if err != nil {
		normalize(c, err)
		return
	}
	ok(c, http.StatusCreated, shapeAuthor(a), msgCreated)
}

// UpdateAuthor handles PUT: name required.
func (h *Handlers) UpdateAuthor(c *gin.Context) { h.updateAuthor(c, false) }

// PatchAuthor handles PATCH: absent fields stay untouched.
func (h *Handlers) PatchAuthor(c *gin.Context) { h.updateAuthor(c, true) }

func (h *Handlers) updateAuthor(c *gin.Context, partial bool) {
	id, okID := parseID(c)
	if !okID {
		return
	}
	in, done := bindAuthorInput(c)
	if done {
		return
	}
	a, err := h.authors.Update(c.Request.Context(), identity(c), id, in, partial)
	if err != nil {
		normalize(c, err)
		return
	}
	ok(c, http.StatusOK, shapeAuthor(a), msgOK)
}

// DeleteAuthor godoc
// @ID          deleteAuthor
// @Summary     Delete an author
// @Tags        Authors
// @Produce     json
// @Param       id path int true "Author ID"
// @Success     200 {object} handlers.Envelope
// @Failure     404 {object} handlers.Envelope
// @Router      /authors/{id}/ [delete]
func (h *Handlers) DeleteAuthor(c *gin.Context) {
	id, okID := parseID(c)
	if !okID {
		return
	}
	if err := h.authors.Delete(c.Request.Context(), identity(c), id); err != nil {
		normalize(c, err)
		return
	}
	ok(c, http.StatusOK, nil, msgDeleted)
}
