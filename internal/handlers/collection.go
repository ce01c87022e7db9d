package handlers

import (
	"net/http"
	"strings"

	"github.com/JAFletch-surg/dukes-club/internal/audit"
	"github.com/JAFletch-surg/dukes-club/internal/collection"
	"github.com/JAFletch-surg/dukes-club/internal/metrics"
	"github.com/JAFletch-surg/dukes-club/internal/middleware"
	"github.com/JAFletch-surg/dukes-club/internal/models"
	"github.com/gin-gonic/gin"
)

// CollectionRoutes is a collection handler that can mount itself.
type CollectionRoutes interface {
	Name() string
	Register(rg *gin.RouterGroup)
}

// CollectionHandler exposes list/create/update/remove for one collection
// through its Adapter.
type CollectionHandler[T models.Row] struct {
	adapter *collection.Adapter[T]
	audit   *audit.Logger
	metrics *metrics.Metrics
}

// NewCollectionHandler creates a CollectionHandler.
func NewCollectionHandler[T models.Row](adapter *collection.Adapter[T], auditLogger *audit.Logger, m *metrics.Metrics) *CollectionHandler[T] {
	return &CollectionHandler[T]{adapter: adapter, audit: auditLogger, metrics: m}
}

// Name returns the collection name, which is also the route segment.
func (h *CollectionHandler[T]) Name() string {
	return h.adapter.Name()
}

// Register mounts the collection under rg at /<name>.
func (h *CollectionHandler[T]) Register(rg *gin.RouterGroup) {
	g := rg.Group("/" + h.Name())
	g.GET("", h.List)
	g.POST("", h.Create)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Remove)
}

func (h *CollectionHandler[T]) observe(op string, err error) {
	if h.metrics != nil {
		h.metrics.StoreOp(h.Name(), op, err)
	}
}

// List godoc
// @Summary List a collection
// @Description Returns every row in the collection's configured order.
// @Tags collections
// @Produce json
// @Security BearerAuth
// @Param collection path string true "Collection name" Enums(events, faculty, fellowships, podcasts, questions, question_topics, sponsors, executive_committee, videos)
// @Success 200 {object} DataResponse{data=[]object}
// @Failure 403 {object} ErrorResponse
// @Router /admin/{collection} [get]
func (h *CollectionHandler[T]) List(c *gin.Context) {
	rows, err := h.adapter.List(c.Request.Context())
	h.observe("list", err)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, DataResponse{Data: rows})
}

// Create godoc
// @Summary Create a row
// @Description Inserts a row from a partial JSON object.
// @Tags collections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param collection path string true "Collection name" Enums(events, faculty, fellowships, podcasts, questions, question_topics, sponsors, executive_committee, videos)
// @Param request body object true "Row fields"
// @Success 201 {object} DataResponse{data=object}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /admin/{collection} [post]
func (h *CollectionHandler[T]) Create(c *gin.Context) {
	var payload models.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid request body")
		return
	}

	row, err := h.adapter.Create(c.Request.Context(), payload)
	h.observe("create", err)
	if err != nil {
		RespondError(c, err)
		return
	}
	h.record(c, models.ActionRowCreate, row.RowID())
	c.JSON(http.StatusCreated, DataResponse{Data: row})
}

// Update godoc
// @Summary Update a row
// @Description Applies a partial JSON object to the row with :id.
// @Tags collections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param collection path string true "Collection name" Enums(events, faculty, fellowships, podcasts, questions, question_topics, sponsors, executive_committee, videos)
// @Param id path string true "Row ID"
// @Param request body object true "Fields to change"
// @Success 200 {object} DataResponse{data=object}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /admin/{collection}/{id} [patch]
func (h *CollectionHandler[T]) Update(c *gin.Context) {
	var payload models.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid request body")
		return
	}

	id := c.Param("id")
	row, err := h.adapter.Update(c.Request.Context(), id, payload)
	h.observe("update", err)
	if err != nil {
		RespondError(c, err)
		return
	}
	h.record(c, models.ActionRowUpdate, id, payload.Keys()...)
	c.JSON(http.StatusOK, DataResponse{Data: row})
}

// Remove godoc
// @Summary Delete a row
// @Description Deletes the row with :id.
// @Tags collections
// @Produce json
// @Security BearerAuth
// @Param collection path string true "Collection name" Enums(events, faculty, fellowships, podcasts, questions, question_topics, sponsors, executive_committee, videos)
// @Param id path string true "Row ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /admin/{collection}/{id} [delete]
func (h *CollectionHandler[T]) Remove(c *gin.Context) {
	id := c.Param("id")
	err := h.adapter.Remove(c.Request.Context(), id)
	h.observe("remove", err)
	if err != nil {
		RespondError(c, err)
		return
	}
	h.record(c, models.ActionRowDelete, id)
	c.Status(http.StatusNoContent)
}

func (h *CollectionHandler[T]) record(c *gin.Context, action, id string, fields ...string) {
	entry := audit.Entry{Action: action, ResourceType: h.Name(), ResourceID: id}
	if len(fields) > 0 {
		entry.Details = map[string]string{"fields": strings.Join(fields, ",")}
	}
	if s := middleware.CurrentSession(c); s.Identity != nil {
		entry.UserID = s.Identity.ID
	}
	h.audit.Log(c.Request.Context(), entry)
}
