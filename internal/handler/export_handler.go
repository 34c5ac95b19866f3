package handler

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/tanroads/rrs-api/internal/service"
	appErrors "github.com/tanroads/rrs-api/pkg/errors"
	"github.com/tanroads/rrs-api/pkg/response"
)

// ExportHandler serves CSV and PDF exports of applications.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler creates a new handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// ApplicationsCSV godoc
// @Summary Export applications as CSV
// @Description Respects the same filters and visibility scoping as the list endpoint
// @Tags Exports
// @Produce text/csv
// @Param status query string false "Comma separated status filter"
// @Param search query string false "Search filter"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /exports/applications.csv [get]
func (h *ExportHandler) ApplicationsCSV(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	query := parseApplicationQuery(c)
	data, filename, err := h.service.ApplicationsCSV(c.Request.Context(), query, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	if token, ok := h.service.ArchiveToken(filename); ok {
		c.Header("X-Export-Token", token)
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv", data)
}

// ApplicationPDF godoc
// @Summary Export one application as PDF
// @Description Full application summary with history and decision records
// @Tags Exports
// @Produce application/pdf
// @Param id path int true "Application ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /applications/{id}/export.pdf [get]
func (h *ExportHandler) ApplicationPDF(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, err := idParam(c)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid application id"))
		return
	}

	data, filename, err := h.service.ApplicationPDF(c.Request.Context(), id, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	if token, ok := h.service.ArchiveToken(filename); ok {
		c.Header("X-Export-Token", token)
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/pdf", data)
}

// ArchivedDownload godoc
// @Summary Re-download an archived export
// @Description Serves a previously generated export referenced by a signed token
// @Tags Exports
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /exports/archive/{token} [get]
func (h *ExportHandler) ArchivedDownload(c *gin.Context) {
	path, err := h.service.ArchivedExport(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}
