package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/HieuTrannn/fibo-academic-api/internal/middleware"
	"github.com/HieuTrannn/fibo-academic-api/internal/models"
	"github.com/HieuTrannn/fibo-academic-api/internal/service"
	appErrors "github.com/HieuTrannn/fibo-academic-api/pkg/errors"
	"github.com/HieuTrannn/fibo-academic-api/pkg/response"
)

// ClassHandler handles class lifecycle and lecturer assignment endpoints.
type ClassHandler struct {
	service    *service.ClassService
	membership *service.MembershipService
}

// NewClassHandler creates a new class handler.
func NewClassHandler(svc *service.ClassService, membership *service.MembershipService) *ClassHandler {
	return &ClassHandler{service: svc, membership: membership}
}

// List godoc
// @Summary List classes
// @Tags Classes
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param semester_id query string false "Semester filter"
// @Param status query string false "Status filter"
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *ClassHandler) List(c *gin.Context) {
	var filter models.ClassFilter

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SemesterID = c.Query("semester_id")
	filter.Status = models.LifecycleStatus(c.Query("status"))
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")

	classes, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, classes, pagination, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get class
// @Description Get a class with its semester code and lecturer identity
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id} [get]
func (h *ClassHandler) Get(c *gin.Context) {
	view, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, view, nil)
}

// Create godoc
// @Summary Create class
// @Tags Classes
// @Accept json
// @Produce json
// @Param payload body service.CreateClassRequest true "Create class payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /classes [post]
func (h *ClassHandler) Create(c *gin.Context) {
	var req service.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	class, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, class)
}

// ToggleStatus godoc
// @Summary Toggle class status
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /classes/{id}/toggle [patch]
func (h *ClassHandler) ToggleStatus(c *gin.Context) {
	class, err := h.service.ToggleStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, class, nil)
}

// Delete godoc
// @Summary Delete class
// @Description Soft-disable a class; active classes are rejected
// @Tags Classes
// @Param id path string true "Class ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /classes/{id} [delete]
func (h *ClassHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

type assignLecturerRequest struct {
	LecturerID string `json:"lecturer_id" binding:"required"`
}

// AssignLecturer godoc
// @Summary Assign lecturer
// @Description Set the class lecturer after validating the account role
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body assignLecturerRequest true "Lecturer payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/lecturer [put]
func (h *ClassHandler) AssignLecturer(c *gin.Context) {
	var req assignLecturerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	view, err := h.membership.AssignLecturer(c.Request.Context(), c.Param("id"), req.LecturerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, view, nil)
}

// UnassignLecturer godoc
// @Summary Unassign lecturer
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/lecturer [delete]
func (h *ClassHandler) UnassignLecturer(c *gin.Context) {
	view, err := h.membership.UnassignLecturer(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, view, nil)
}
