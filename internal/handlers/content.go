package handlers

import (
	"net/http"

	"github.com/JAFletch-surg/dukes-club/internal/audit"
	"github.com/JAFletch-surg/dukes-club/internal/middleware"
	"github.com/JAFletch-surg/dukes-club/internal/models"
	"github.com/JAFletch-surg/dukes-club/internal/service"
	"github.com/gin-gonic/gin"
)

// ContentHandler serves the admin operations that span collections:
// event faculty assignment and question flags.
type ContentHandler struct {
	faculty *service.EventFacultyService
	flags   *service.FlagService
	audit   *audit.Logger
}

// NewContentHandler creates a ContentHandler.
func NewContentHandler(faculty *service.EventFacultyService, flags *service.FlagService, auditLogger *audit.Logger) *ContentHandler {
	return &ContentHandler{faculty: faculty, flags: flags, audit: auditLogger}
}

// FacultyRequest replaces an event's faculty list.
type FacultyRequest struct {
	Faculty []service.FacultyLink `json:"faculty"`
}

// FlagRequest reports a problem with a question.
type FlagRequest struct {
	QuestionID string `json:"question_id" binding:"required"`
	Reason     string `json:"reason"`
}

// EventFaculty godoc
// @Summary List event faculty
// @Description Lists the faculty links of event :id.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} DataResponse{data=[]models.EventFaculty}
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /admin/events/{id}/faculty [get]
func (h *ContentHandler) EventFaculty(c *gin.Context) {
	links, err := h.faculty.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, DataResponse{Data: links})
}

// SetEventFaculty godoc
// @Summary Replace event faculty
// @Description Replaces the faculty links of event :id.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param request body FacultyRequest true "Faculty links"
// @Success 200 {object} DataResponse{data=[]models.EventFaculty}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /admin/events/{id}/faculty [put]
func (h *ContentHandler) SetEventFaculty(c *gin.Context) {
	var req FacultyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid request body")
		return
	}

	eventID := c.Param("id")
	links, err := h.faculty.Set(c.Request.Context(), eventID, req.Faculty)
	if err != nil {
		RespondError(c, err)
		return
	}
	h.audit.Log(c.Request.Context(), audit.Entry{
		Action:       models.ActionRowUpdate,
		UserID:       actorID(c),
		ResourceType: "event_faculty",
		ResourceID:   eventID,
	})
	c.JSON(http.StatusOK, DataResponse{Data: links})
}

// ReportFlag godoc
// @Summary Flag a question
// @Description Records a member's report against a question.
// @Tags members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body FlagRequest true "Question and reason"
// @Success 201 {object} DataResponse{data=models.QuestionFlag}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /members/flags [post]
func (h *ContentHandler) ReportFlag(c *gin.Context) {
	var req FlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "question_id is required")
		return
	}
	flag, err := h.flags.Report(c.Request.Context(), actorID(c), req.QuestionID, req.Reason)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, DataResponse{Data: flag})
}

// OpenFlags godoc
// @Summary List open flags
// @Description Lists unresolved flags.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DataResponse{data=[]models.QuestionFlag}
// @Failure 403 {object} ErrorResponse
// @Router /admin/flags [get]
func (h *ContentHandler) OpenFlags(c *gin.Context) {
	respondList(c, h.flags.Open)
}

// ResolveFlag godoc
// @Summary Resolve a flag
// @Description Marks flag :id resolved.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Flag ID"
// @Success 200 {object} DataResponse{data=models.QuestionFlag}
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /admin/flags/{id}/resolve [patch]
func (h *ContentHandler) ResolveFlag(c *gin.Context) {
	flag, err := h.flags.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	h.audit.Log(c.Request.Context(), audit.Entry{
		Action:       models.ActionFlagResolve,
		UserID:       actorID(c),
		ResourceType: "question_flags",
		ResourceID:   flag.ID,
	})
	c.JSON(http.StatusOK, DataResponse{Data: flag})
}

func actorID(c *gin.Context) string {
	if s := middleware.CurrentSession(c); s.Identity != nil {
		return s.Identity.ID
	}
	return ""
}
