package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/HieuTrannn/fibo-academic-api/internal/service"
	appErrors "github.com/HieuTrannn/fibo-academic-api/pkg/errors"
	"github.com/HieuTrannn/fibo-academic-api/pkg/response"
)

// ExportHandler handles synchronous roster downloads and asynchronous
// export jobs.
type ExportHandler struct {
	exports *service.ExportService
	jobs    *service.ExportJobService
}

// NewExportHandler creates a new export handler.
func NewExportHandler(exports *service.ExportService, jobs *service.ExportJobService) *ExportHandler {
	return &ExportHandler{exports: exports, jobs: jobs}
}

// ClassRoster godoc
// @Summary Download class roster
// @Tags Exports
// @Produce octet-stream
// @Param id path string true "Class ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/roster [get]
func (h *ExportHandler) ClassRoster(c *gin.Context) {
	payload, filename, err := h.exports.ClassRoster(c.Request.Context(), c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	serveFile(c, payload, filename)
}

// GroupRoster godoc
// @Summary Download group roster
// @Tags Exports
// @Produce octet-stream
// @Param id path string true "Group ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /groups/{id}/roster [get]
func (h *ExportHandler) GroupRoster(c *gin.Context) {
	payload, filename, err := h.exports.GroupRoster(c.Request.Context(), c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	serveFile(c, payload, filename)
}

// RequestClassExport godoc
// @Summary Request asynchronous class roster export
// @Tags Exports
// @Produce json
// @Param id path string true "Class ID"
// @Param format query string false "csv or pdf"
// @Success 202 {object} response.Envelope
// @Router /classes/{id}/export [post]
func (h *ExportHandler) RequestClassExport(c *gin.Context) {
	job, err := h.jobs.RequestClassRoster(c.Request.Context(), c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// RequestGroupExport godoc
// @Summary Request asynchronous group roster export
// @Tags Exports
// @Produce json
// @Param id path string true "Group ID"
// @Param format query string false "csv or pdf"
// @Success 202 {object} response.Envelope
// @Router /groups/{id}/export [post]
func (h *ExportHandler) RequestGroupExport(c *gin.Context) {
	job, err := h.jobs.RequestGroupRoster(c.Request.Context(), c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// GetExport godoc
// @Summary Get export job status
// @Tags Exports
// @Produce json
// @Param id path string true "Export job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /exports/{id} [get]
func (h *ExportHandler) GetExport(c *gin.Context) {
	job, err := h.jobs.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Download godoc
// @Summary Download an exported file
// @Tags Exports
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /exports/download [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}

	payload, filename, err := h.jobs.Download(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveFile(c, payload, filename)
}

func serveFile(c *gin.Context, payload []byte, filename string) {
	contentType := "text/csv"
	if strings.HasSuffix(filename, ".pdf") {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, payload)
}
