package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tanroads/rrs-api/internal/service"
	appErrors "github.com/tanroads/rrs-api/pkg/errors"
	"github.com/tanroads/rrs-api/pkg/response"
)

// ReferenceHandler serves the cached reference-data lookups.
type ReferenceHandler struct {
	service *service.ReferenceService
}

// NewReferenceHandler creates a new handler.
func NewReferenceHandler(svc *service.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{service: svc}
}

// Regions godoc
// @Summary List regions
// @Tags Reference
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /references/regions [get]
func (h *ReferenceHandler) Regions(c *gin.Context) {
	regions, err := h.service.Regions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, regions, nil)
}

// Districts godoc
// @Summary List districts
// @Tags Reference
// @Produce json
// @Param regionId query int false "Filter by region"
// @Success 200 {object} response.Envelope
// @Router /references/districts [get]
func (h *ReferenceHandler) Districts(c *gin.Context) {
	var regionID *int64
	if raw := c.Query("regionId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid region id"))
			return
		}
		regionID = &id
	}

	districts, err := h.service.Districts(c.Request.Context(), regionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, districts, nil)
}

// Organizations godoc
// @Summary List organizations
// @Tags Reference
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /references/organizations [get]
func (h *ReferenceHandler) Organizations(c *gin.Context) {
	orgs, err := h.service.Organizations(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, orgs, nil)
}
