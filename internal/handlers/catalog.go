package handlers

import (
	"net/http"

	"github.com/JAFletch-surg/dukes-club/internal/service"
	"github.com/gin-gonic/gin"
)

// CatalogHandler serves published content.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler creates a CatalogHandler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// Events godoc
// @Summary List published events
// @Description Lists published events. Query: search, type, subspecialty (repeatable), sort.
// @Tags public
// @Produce json
// @Param search query string false "Title or description search"
// @Param type query string false "Event type"
// @Param subspecialty query []string false "Subspecialty filter" collectionFormat(multi)
// @Param sort query string false "date or price" Enums(date, price)
// @Success 200 {object} DataResponse{data=[]models.Event}
// @Failure 500 {object} ErrorResponse
// @Router /public/events [get]
func (h *CatalogHandler) Events(c *gin.Context) {
	events, err := h.catalog.Events(c.Request.Context(), service.EventFilter{
		Search:         c.Query("search"),
		Type:           c.Query("type"),
		Subspecialties: c.QueryArray("subspecialty"),
		Sort:           c.DefaultQuery("sort", "date"),
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, DataResponse{Data: events})
}

// EventBySlug godoc
// @Summary Get a published event
// @Description Returns one published event with its faculty.
// @Tags public
// @Produce json
// @Param slug path string true "Event slug"
// @Success 200 {object} DataResponse{data=service.EventDetail}
// @Failure 404 {object} ErrorResponse
// @Router /public/events/{slug} [get]
func (h *CatalogHandler) EventBySlug(c *gin.Context) {
	detail, err := h.catalog.EventBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, DataResponse{Data: detail})
}

// Fellowships godoc
// @Summary List fellowships
// @Description Lists published fellowships.
// @Tags public
// @Produce json
// @Success 200 {object} DataResponse{data=[]models.Fellowship}
// @Failure 500 {object} ErrorResponse
// @Router /public/fellowships [get]
func (h *CatalogHandler) Fellowships(c *gin.Context) {
	respondList(c, h.catalog.Fellowships)
}

// Sponsors godoc
// @Summary List sponsors
// @Description Lists published sponsors.
// @Tags public
// @Produce json
// @Success 200 {object} DataResponse{data=[]models.Sponsor}
// @Failure 500 {object} ErrorResponse
// @Router /public/sponsors [get]
func (h *CatalogHandler) Sponsors(c *gin.Context) {
	respondList(c, h.catalog.Sponsors)
}

// Team godoc
// @Summary List the committee
// @Description Lists the executive committee.
// @Tags public
// @Produce json
// @Success 200 {object} DataResponse{data=[]models.TeamMember}
// @Failure 500 {object} ErrorResponse
// @Router /public/team [get]
func (h *CatalogHandler) Team(c *gin.Context) {
	respondList(c, h.catalog.Team)
}

// Videos godoc
// @Summary List videos
// @Description Lists the members' video library.
// @Tags members
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DataResponse{data=[]models.Video}
// @Failure 403 {object} ErrorResponse
// @Router /members/videos [get]
func (h *CatalogHandler) Videos(c *gin.Context) {
	respondList(c, h.catalog.Videos)
}

// Podcasts godoc
// @Summary List podcasts
// @Description Lists published episodes, optionally by ?tag=.
// @Tags members
// @Produce json
// @Security BearerAuth
// @Param tag query []string false "Tag filter" collectionFormat(multi)
// @Success 200 {object} DataResponse{data=[]models.Podcast}
// @Failure 403 {object} ErrorResponse
// @Router /members/podcasts [get]
func (h *CatalogHandler) Podcasts(c *gin.Context) {
	episodes, err := h.catalog.Podcasts(c.Request.Context(), c.QueryArray("tag"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, DataResponse{Data: episodes})
}

// MembersFeed godoc
// @Summary Members feed
// @Description Returns the members' home page content.
// @Tags members
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DataResponse{data=service.MembersFeed}
// @Failure 403 {object} ErrorResponse
// @Router /members/feed [get]
func (h *CatalogHandler) MembersFeed(c *gin.Context) {
	feed, err := h.catalog.MembersFeed(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, DataResponse{Data: feed})
}
