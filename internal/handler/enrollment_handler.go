package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HieuTrannn/fibo-academic-api/internal/service"
	appErrors "github.com/HieuTrannn/fibo-academic-api/pkg/errors"
	"github.com/HieuTrannn/fibo-academic-api/pkg/response"
)

// EnrollmentHandler handles class enrollment endpoints.
type EnrollmentHandler struct {
	membership *service.MembershipService
}

// NewEnrollmentHandler creates a new enrollment handler.
func NewEnrollmentHandler(membership *service.MembershipService) *EnrollmentHandler {
	return &EnrollmentHandler{membership: membership}
}

// Enroll godoc
// @Summary Enroll user in class
// @Description Register a user in a class; a user enrolls at most once
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.EnrollRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var req service.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	// omitting user_id enrolls the caller
	if req.UserID == "" {
		if claims := claimsFromContext(c); claims != nil {
			req.UserID = claims.UserID
		}
	}

	view, err := h.membership.EnrollInClass(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, view)
}
