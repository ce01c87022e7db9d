package handlers

import (
	"net/http"

	"github.com/JAFletch-surg/dukes-club/internal/audit"
	"github.com/JAFletch-surg/dukes-club/internal/middleware"
	"github.com/JAFletch-surg/dukes-club/internal/models"
	"github.com/JAFletch-surg/dukes-club/internal/service"
	"github.com/gin-gonic/gin"
)

// MemberHandler serves admin member review and member self-service.
type MemberHandler struct {
	members *service.MemberService
	audit   *audit.Logger
}

// NewMemberHandler creates a MemberHandler.
func NewMemberHandler(members *service.MemberService, auditLogger *audit.Logger) *MemberHandler {
	return &MemberHandler{members: members, audit: auditLogger}
}

// ReviewRequest sets a member's approval status.
type ReviewRequest struct {
	Status models.ApprovalStatus `json:"approval_status" binding:"required"`
}

// RoleRequest sets a member's role.
type RoleRequest struct {
	Role models.Role `json:"role" binding:"required"`
}

// List godoc
// @Summary List members
// @Description Returns profiles, optionally filtered by ?status=.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "Approval status" Enums(pending, approved, rejected)
// @Success 200 {object} DataResponse{data=[]models.Profile}
// @Failure 403 {object} ErrorResponse
// @Router /admin/members [get]
func (h *MemberHandler) List(c *gin.Context) {
	profiles, err := h.members.List(c.Request.Context(), models.ApprovalStatus(c.Query("status")))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, DataResponse{Data: profiles})
}

// Review godoc
// @Summary Review a member
// @Description Approves or rejects the member with :id.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Profile ID"
// @Param request body ReviewRequest true "New approval status"
// @Success 200 {object} DataResponse{data=models.Profile}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /admin/members/{id}/approval [patch]
func (h *MemberHandler) Review(c *gin.Context) {
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "approval_status is required")
		return
	}
	s := middleware.CurrentSession(c)
	profile, err := h.members.Review(c.Request.Context(), s.Profile, c.Param("id"), req.Status)
	if err != nil {
		RespondError(c, err)
		return
	}
	h.audit.Log(c.Request.Context(), audit.Entry{
		Action:       models.ActionMemberReview,
		UserID:       s.Identity.ID,
		ResourceType: "profiles",
		ResourceID:   profile.ID,
		Details:      map[string]string{"approval_status": string(req.Status)},
	})
	c.JSON(http.StatusOK, DataResponse{Data: profile})
}

// ChangeRole godoc
// @Summary Change a member role
// @Description Sets the role of the member with :id.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Profile ID"
// @Param request body RoleRequest true "New role"
// @Success 200 {object} DataResponse{data=models.Profile}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /admin/members/{id}/role [patch]
func (h *MemberHandler) ChangeRole(c *gin.Context) {
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "role is required")
		return
	}
	s := middleware.CurrentSession(c)
	profile, err := h.members.ChangeRole(c.Request.Context(), s.Profile, c.Param("id"), req.Role)
	if err != nil {
		RespondError(c, err)
		return
	}
	h.audit.Log(c.Request.Context(), audit.Entry{
		Action:       models.ActionMemberReview,
		UserID:       s.Identity.ID,
		ResourceType: "profiles",
		ResourceID:   profile.ID,
		Details:      map[string]string{"role": string(req.Role)},
	})
	c.JSON(http.StatusOK, DataResponse{Data: profile})
}

// Me godoc
// @Summary Get own profile
// @Description Returns the caller's own profile.
// @Tags me
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DataResponse{data=models.Profile}
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /me [get]
func (h *MemberHandler) Me(c *gin.Context) {
	s := middleware.CurrentSession(c)
	if s.Profile == nil {
		respondMessage(c, http.StatusNotFound, "profile not found")
		return
	}
	c.JSON(http.StatusOK, DataResponse{Data: s.Profile})
}

// UpdateMe godoc
// @Summary Update own profile
// @Description Applies a self-service patch to the caller's profile.
// @Tags me
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object true "Profile fields to change"
// @Success 200 {object} DataResponse{data=models.Profile}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /me [patch]
func (h *MemberHandler) UpdateMe(c *gin.Context) {
	var patch models.Payload
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid request body")
		return
	}
	profile, err := h.members.UpdateOwn(c.Request.Context(), middleware.CurrentSession(c).Identity.ID, patch)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, DataResponse{Data: profile})
}

// UpdatePrivacy godoc
// @Summary Update directory settings
// @Description Replaces the caller's directory settings.
// @Tags me
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.DirectorySettings true "Directory settings"
// @Success 200 {object} DataResponse{data=models.Profile}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /me/privacy [put]
func (h *MemberHandler) UpdatePrivacy(c *gin.Context) {
	var settings models.DirectorySettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid request body")
		return
	}
	profile, err := h.members.UpdatePrivacy(c.Request.Context(), middleware.CurrentSession(c).Identity.ID, settings)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, DataResponse{Data: profile})
}

// RequestDeletion godoc
// @Summary Request account deletion
// @Description Records the caller's account deletion request.
// @Tags me
// @Produce json
// @Security BearerAuth
// @Success 202 {object} MessageResponse
// @Failure 401 {object} ErrorResponse
// @Router /me/deletion [post]
func (h *MemberHandler) RequestDeletion(c *gin.Context) {
	userID := middleware.CurrentSession(c).Identity.ID
	if _, err := h.members.RequestDeletion(c.Request.Context(), userID); err != nil {
		RespondError(c, err)
		return
	}
	h.audit.Log(c.Request.Context(), audit.Entry{Action: models.ActionDeleteRequest, UserID: userID, ResourceType: "profiles", ResourceID: userID})
	c.JSON(http.StatusAccepted, MessageResponse{Message: "Your deletion request has been received."})
}

// Directory godoc
// @Summary Member directory
// @Description Lists members who opted into the directory.
// @Tags members
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DataResponse{data=[]models.Profile}
// @Failure 403 {object} ErrorResponse
// @Router /members/directory [get]
func (h *MemberHandler) Directory(c *gin.Context) {
	respondList(c, h.members.Directory)
}
