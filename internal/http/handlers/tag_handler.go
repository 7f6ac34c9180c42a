package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/booklab/go-library-backend/internal/domain"
	"github.com/booklab/go-library-backend/internal/services"
)

// tagPayload is the tag write shape.
type tagPayload struct {
	Name *string `json:"name"`
}

func shapeTag(t *domain.Tag) gin.H {
	return gin.H{"id": t.ID, "name": t.Name}
}

func shapeTags(tags []domain.Tag) []gin.H {
	out := make([]gin.H, 0, len(tags))
	for i := range tags {
		out = append(out, shapeTag(&tags[i]))
	}
	return out
}

func bindTagInput(c *gin.Context) (services.TagInput, bool) {
	var p tagPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "JSON parse error.", nil)
		return services.TagInput{}, true
	}
	return services.TagInput{Name: p.Name}, false
}

// ListTags godoc
// @ID          listTags
// @Summary     List tags
// @Tags        Tags
// @Produce     json
// @Param       p         query int false "Page number" minimum(1) default(1)
// @Param       page_size query int false "Items per page" minimum(1) maximum(100) default(10)
// @Success     200 {object} handlers.Envelope
// @Router      /tags/ [get]
func (h *Handlers) ListTags(c *gin.Context) {
	page, pageSize := clampPagination(c)
	items, total, err := h.tags.List(c.Request.Context(), page, pageSize)
	if err != nil {
		normalize(c, err)
		return
	}
	ok(c, http.StatusOK, listPayload(c, page, pageSize, total, shapeTags(items)), msgOK)
}

// GetTag godoc
// @ID          getTag
// @Summary     Retrieve a single tag
// @Tags        Tags
// @Produce     json
// @Param       id path int true "Tag ID"
// @Success     200 {object} handlers.Envelope
// @Failure     404 {object} handlers.Envelope
// @Router      /tags/{id}/ [get]
func (h *Handlers) GetTag(c *gin.Context) {
	id, okID := parseID(c)
	if !okID {
		return
	}
	t, err := h.tags.Get(c.Request.Context(), id)
	if err != nil {
		normalize(c, err)
		return
	}
	ok(c, http.StatusOK, shapeTag(t), msgOK)
}

// CreateTag godoc
// @ID          createTag
// @Summary     Create a tag
// @Tags        Tags
// @Accept      json
// @Produce     json
// @Success     201 {object} handlers.Envelope
// @Failure     400 {object} handlers.Envelope "Name missing or duplicate"
// @Router      /tags/ [post]
func (h *Handlers) CreateTag(c *gin.Context) {
	in, done := bindTagInput(c)
	if done {
		return
	}
	t, err := h.tags.Create(c.Request.Context(), identity(c), in)
	if err != nil {
		normalize(c, err)
		return
	}
	ok(c, http.StatusCreated, shapeTag(t), msgCreated)
}

// UpdateTag handles both PUT and PATCH; the single writable field makes
// them equivalent.
func (h *Handlers) UpdateTag(c *gin.Context) {
	id, okID := parseID(c)
	if !okID {
		return
	}
	in, done := bindTagInput(c)
	if done {
		return
	}
	t, err := h.tags.Update(c.Request.Context(), identity(c), id, in)
	if err != nil {
		normalize(c, err)
		return
	}
	ok(c, http.StatusOK, shapeTag(t), msgOK)
}

// DeleteTag godoc
// @ID          deleteTag
// @Summary     Delete a tag
// @Tags        Tags
// @Produce     json
// @Param       id path int true "Tag ID"
// @Success     200 {object} handlers.Envelope
// @Failure     404 {object} handlers.Envelope
// @Router      /tags/{id}/ [delete]
func (h *Handlers) DeleteTag(c *gin.Context) {
	id, okID := parseID(c)
	if !okID {
		return
	}
	if err := h.tags.Delete(c.Request.Context(), identity(c), id); err != nil {
		normalize(c, err)
		return
	}
	ok(c, http.StatusOK, nil, msgDeleted)
}
