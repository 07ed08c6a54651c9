package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HieuTrannn/fibo-academic-api/internal/service"
	appErrors "github.com/HieuTrannn/fibo-academic-api/pkg/errors"
	"github.com/HieuTrannn/fibo-academic-api/pkg/response"
)

// GroupHandler handles group and group membership endpoints.
type GroupHandler struct {
	service    *service.GroupService
	membership *service.MembershipService
}

// NewGroupHandler creates a new group handler.
func NewGroupHandler(svc *service.GroupService, membership *service.MembershipService) *GroupHandler {
	return &GroupHandler{service: svc, membership: membership}
}

// ListByClass godoc
// @Summary List groups of a class
// @Tags Groups
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/groups [get]
func (h *GroupHandler) ListByClass(c *gin.Context) {
	groups, err := h.service.ListByClass(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, groups, nil)
}

// Get godoc
// @Summary Get group
// @Tags Groups
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /groups/{id} [get]
func (h *GroupHandler) Get(c *gin.Context) {
	group, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, group, nil)
}

// Create godoc
// @Summary Create group
// @Tags Groups
// @Accept json
// @Produce json
// @Param payload body service.CreateGroupRequest true "Create group payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /groups [post]
func (h *GroupHandler) Create(c *gin.Context) {
	var req service.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	group, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, group)
}

// Delete godoc
// @Summary Delete group
// @Description Soft-disable a group and detach its members in one step
// @Tags Groups
// @Param id path string true "Group ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /groups/{id} [delete]
func (h *GroupHandler) Delete(c *gin.Context) {
	if err := h.membership.DeleteGroup(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

type memberBatchRequest struct {
	UserIDs []string `json:"user_ids" binding:"required"`
}

// AddMembers godoc
// @Summary Add members to group
// @Description Assign users to the group; the whole batch succeeds or fails together
// @Tags Groups
// @Accept json
// @Produce json
// @Param id path string true "Group ID"
// @Param payload body memberBatchRequest true "Member IDs"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /groups/{id}/members [post]
func (h *GroupHandler) AddMembers(c *gin.Context) {
	var req memberBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	view, err := h.membership.AddMembersToGroup(c.Request.Context(), c.Param("id"), req.UserIDs)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, view, nil)
}

// RemoveMembers godoc
// @Summary Remove members from group
// @Description Detach users from the group; users not in the group are skipped
// @Tags Groups
// @Accept json
// @Produce json
// @Param id path string true "Group ID"
// @Param payload body memberBatchRequest true "Member IDs"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /groups/{id}/members [delete]
func (h *GroupHandler) RemoveMembers(c *gin.Context) {
	var req memberBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	view, err := h.membership.RemoveMembersFromGroup(c.Request.Context(), c.Param("id"), req.UserIDs)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, view, nil)
}

// Members godoc
// @Summary List group members
// @Description List active members enriched with account identity
// @Tags Groups
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /groups/{id}/members [get]
func (h *GroupHandler) Members(c *gin.Context) {
	members, err := h.membership.GetGroupMembers(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, members, nil)
}
