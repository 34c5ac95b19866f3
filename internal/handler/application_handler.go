package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tanroads/rrs-api/internal/dto"
	"github.com/tanroads/rrs-api/internal/models"
	"github.com/tanroads/rrs-api/internal/service"
	appErrors "github.com/tanroads/rrs-api/pkg/errors"
	"github.com/tanroads/rrs-api/pkg/response"
)

// ApplicationHandler exposes the application lifecycle over HTTP. Every
// status-changing route funnels into the workflow engine; the handler
// only binds payloads and maps results.
type ApplicationHandler struct {
	service *service.ApplicationService
}

// NewApplicationHandler creates a new handler.
func NewApplicationHandler(svc *service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{service: svc}
}

// Create godoc
// @Summary Create application
// @Description Open a new draft road reclassification application
// @Tags Applications
// @Accept json
// @Produce json
// @Param payload body dto.CreateApplicationRequest true "Application payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /applications [post]
func (h *ApplicationHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid application payload"))
		return
	}

	app, err := h.service.Create(c.Request.Context(), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, app)
}

// Update godoc
// @Summary Update application
// @Description Edit form data while the application is editable
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path int true "Application ID"
// @Param payload body dto.UpdateApplicationRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /applications/{id} [put]
func (h *ApplicationHandler) Update(c *gin.Context) {
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

	var req dto.UpdateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid update payload"))
		return
	}

	app, err := h.service.Update(c.Request.Context(), id, req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, nil)
}

// Delete godoc
// @Summary Delete draft application
// @Tags Applications
// @Produce json
// @Param id path int true "Application ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /applications/{id} [delete]
func (h *ApplicationHandler) Delete(c *gin.Context) {
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
	if err := h.service.Delete(c.Request.Context(), id, actor); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Get godoc
// @Summary Get application
// @Tags Applications
// @Produce json
// @Param id path int true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /applications/{id} [get]
func (h *ApplicationHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, err := idParam(c)
	if err != nil {
		// A non-numeric id is treated as an application number lookup,
		// e.g. GET /applications/NRCC%2F2026%2F0001.
		app, lookupErr := h.service.GetByNumber(c.Request.Context(), c.Param("id"), actor)
		if lookupErr != nil {
			response.Error(c, lookupErr)
			return
		}
		response.JSON(c, http.StatusOK, app, nil)
		return
	}

	app, err := h.service.Get(c.Request.Context(), id, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, nil)
}

// Detail godoc
// @Summary Get full application detail
// @Description Application with criteria, history, verification, decision, gazettement and appeal
// @Tags Applications
// @Produce json
// @Param id path int true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /applications/{id}/detail [get]
func (h *ApplicationHandler) Detail(c *gin.Context) {
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
	detail, err := h.service.Detail(c.Request.Context(), id, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// History godoc
// @Summary Get approval history
// @Description Append-only ledger of workflow transitions
// @Tags Applications
// @Produce json
// @Param id path int true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /applications/{id}/history [get]
func (h *ApplicationHandler) History(c *gin.Context) {
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
	history, err := h.service.History(c.Request.Context(), id, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}

// List godoc
// @Summary List applications
// @Description Applicants see their own; officials see all, or their queue with queue=true
// @Tags Applications
// @Produce json
// @Param status query string false "Comma separated status filter"
// @Param applicantType query string false "Applicant type filter"
// @Param search query string false "Search by road name or application number"
// @Param queue query bool false "Only applications waiting on the caller's role"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /applications [get]
func (h *ApplicationHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	query := parseApplicationQuery(c)
	apps, total, err := h.service.List(c.Request.Context(), query, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	response.JSON(c, http.StatusOK, apps, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total})
}

// Submit godoc
// @Summary Submit application
// @Description Submit a draft or returned application into the review workflow
// @Tags Workflow
// @Produce json
// @Param id path int true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /applications/{id}/submit [post]
func (h *ApplicationHandler) Submit(c *gin.Context) {
	h.workflowAction(c, func(actor models.Actor, id int64) (*models.Application, error) {
		return h.service.Submit(c.Request.Context(), id, actor)
	})
}

// ForwardToMinister godoc
// @Summary Forward to minister
// @Tags Workflow
// @Accept json
// @Produce json
// @Param id path int true "Application ID"
// @Param payload body dto.WorkflowActionRequest false "Comments"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /applications/{id}/forward-to-minister [post]
func (h *ApplicationHandler) ForwardToMinister(c *gin.Context) {
	req := bindWorkflowAction(c)
	h.workflowAction(c, func(actor models.Actor, id int64) (*models.Application, error) {
		return h.service.ForwardToMinister(c.Request.Context(), id, req, actor)
	})
}

// RASApprove godoc
// @Summary RAS approval
// @Tags Workflow
// @Accept json
// @Produce json
// @Param id path int true "Application ID"
// @Param payload body dto.WorkflowActionRequest false "Comments"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /applications/{id}/ras-approve [post]
func (h *ApplicationHandler) RASApprove(c *gin.Context) {
	req := bindWorkflowAction(c)
	h.workflowAction(c, func(actor models.Actor, id int64) (*models.Application, error) {
		return h.service.RASApprove(c.Request.Context(), id, req, actor)
	})
}

// RCApprove godoc
// @Summary RC approval
// @Tags Workflow
// @Accept json
// @Produce json
// @Param id path int true "Application ID"
// @Param payload body dto.WorkflowActionRequest false "Comments"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /applications/{id}/rc-approve [post]
func (h *ApplicationHandler) RCApprove(c *gin.Context) {
	req := bindWorkflowAction(c)
	h.workflowAction(c, func(actor models.Actor, id int64) (*models.Application, error) {
		return h.service.RCApprove(c.Request.Context(), id, req, actor)
	})
}

// ForwardToNRCCChair godoc
// @Summary Forward to NRCC chair
// @Tags Workflow
// @Accept json
// @Produce json
// @Param id path int true "Application ID"
// @Param payload body dto.WorkflowActionRequest false "Comments"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /applications/{id}/forward-to-nrcc-chair [post]
func (h *ApplicationHandler) ForwardToNRCCChair(c *gin.Context) {
	req := bindWorkflowAction(c)
	h.workflowAction(c, func(actor models.Actor, id int64) (*models.Application, error) {
		return h.service.ForwardToNRCCChair(c.Request.Context(), id, req, actor)
	})
}

// ReturnForCorrection godoc
// @Summary Return for correction
// @Description Send the application back to its applicant with mandatory comments
// @Tags Workflow
// @Accept json
// @Produce json
// @Param id path int true "Application ID"
// @Param payload body dto.WorkflowActionRequest true "Comments"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /applications/{id}/return [post]
func (h *ApplicationHandler) ReturnForCorrection(c *gin.Context) {
	req := bindWorkflowAction(c)
	h.workflowAction(c, func(actor models.Actor, id int64) (*models.Application, error) {
		return h.service.ReturnForCorrection(c.Request.Context(), id, req, actor)
	})
}

// AssignVerification godoc
// @Summary Assign field verification
// @Tags Verification
// @Accept json
// @Produce json
// @Param id path int true "Application ID"
// @Param payload body dto.AssignVerificationRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /applications/{id}/verification/assign [post]
func (h *ApplicationHandler) AssignVerification(c *gin.Context) {
	var req dto.AssignVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	h.workflowAction(c, func(actor models.Actor, id int64) (*models.Application, error) {
		return h.service.AssignVerification(c.Request.Context(), id, req, actor)
	})
}

// StartVerification godoc
// @Summary Start verification
// @Tags Verification
// @Accept json
// @Produce json
// @Param id path int true "Application ID"
// @Param payload body dto.StartVerificationRequest true "Assignment reference"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /applications/{id}/verification/start [post]
func (h *ApplicationHandler) StartVerification(c *gin.Context) {
	var req dto.StartVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	h.workflowAction(c, func(actor models.Actor, id int64) (*models.Application, error) {
		return h.service.StartVerification(c.Request.Context(), id, req, actor)
	})
}

// SubmitVerificationReport godoc
// @Summary Submit verification report
// @Description Complete an assignment; the last report advances the application to the review meeting
// @Tags Verification
// @Accept json
// @Produce json
// @Param id path int true "Application ID"
// @Param payload body dto.SubmitVerificationReportRequest true "Report payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /applications/{id}/verification/report [post]
func (h *ApplicationHandler) SubmitVerificationReport(c *gin.Context) {
	var req dto.SubmitVerificationReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report payload"))
		return
	}
	h.workflowAction(c, func(actor models.Actor, id int64) (*models.Application, error) {
		return h.service.SubmitVerificationReport(c.Request.Context(), id, req, actor)
	})
}

// SubmitRecommendation godoc
// @Summary Submit committee recommendation
// @Tags Workflow
// @Accept json
// @Produce json
// @Param id path int true "Application ID"
// @Param payload body dto.WorkflowActionRequest true "Recommendation text"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /applications/{id}/recommendation [post]
func (h *ApplicationHandler) SubmitRecommendation(c *gin.Context) {
	req := bindWorkflowAction(c)
	h.workflowAction(c, func(actor models.Actor, id int64) (*models.Application, error) {
		return h.service.SubmitRecommendation(c.Request.Context(), id, req, actor)
	})
}

// RecordDecision godoc
// @Summary Record minister decision
// @Description APPROVE, or DISAPPROVE with a disapproval type
// @Tags Workflow
// @Accept json
// @Produce json
// @Param id path int true "Application ID"
// @Param payload body dto.MinisterDecisionRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /applications/{id}/decision [post]
func (h *ApplicationHandler) RecordDecision(c *gin.Context) {
	var req dto.MinisterDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
		return
	}
	h.workflowAction(c, func(actor models.Actor, id int64) (*models.Application, error) {
		return h.service.RecordDecision(c.Request.Context(), id, req, actor)
	})
}

// StartGazettement godoc
// @Summary Stage gazettement
// @Tags Gazettement
// @Accept json
// @Produce json
// @Param id path int true "Application ID"
// @Param payload body dto.WorkflowActionRequest false "Comments"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /applications/{id}/gazettement/start [post]
func (h *ApplicationHandler) StartGazettement(c *gin.Context) {
	req := bindWorkflowAction(c)
	h.workflowAction(c, func(actor models.Actor, id int64) (*models.Application, error) {
		return h.service.StartGazettement(c.Request.Context(), id, req, actor)
	})
}

// UpdateGazettement godoc
// @Summary Record gazette publication
// @Tags Gazettement
// @Accept json
// @Produce json
// @Param id path int true "Application ID"
// @Param payload body dto.UpdateGazettementRequest true "Gazette reference"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /applications/{id}/gazettement [post]
func (h *ApplicationHandler) UpdateGazettement(c *gin.Context) {
	var req dto.UpdateGazettementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid gazettement payload"))
		return
	}
	h.workflowAction(c, func(actor models.Actor, id int64) (*models.Application, error) {
		return h.service.UpdateGazettement(c.Request.Context(), id, req, actor)
	})
}

// SubmitAppeal godoc
// @Summary Submit appeal
// @Description Open the single allowed appeal against a disapproval
// @Tags Appeals
// @Accept json
// @Produce json
// @Param id path int true "Application ID"
// @Param payload body dto.SubmitAppealRequest true "Appeal grounds"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /applications/{id}/appeal [post]
func (h *ApplicationHandler) SubmitAppeal(c *gin.Context) {
	var req dto.SubmitAppealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid appeal payload"))
		return
	}
	h.workflowAction(c, func(actor models.Actor, id int64) (*models.Application, error) {
		return h.service.SubmitAppeal(c.Request.Context(), id, req, actor)
	})
}

// ReviewAppeal godoc
// @Summary Take appeal under review
// @Tags Appeals
// @Accept json
// @Produce json
// @Param id path int true "Application ID"
// @Param payload body dto.WorkflowActionRequest false "Comments"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /applications/{id}/appeal/review [post]
func (h *ApplicationHandler) ReviewAppeal(c *gin.Context) {
	req := bindWorkflowAction(c)
	h.workflowAction(c, func(actor models.Actor, id int64) (*models.Application, error) {
		return h.service.ReviewAppeal(c.Request.Context(), id, req, actor)
	})
}

// DecideAppeal godoc
// @Summary Decide appeal
// @Description Close the appeal with UPHELD or DISMISSED
// @Tags Appeals
// @Accept json
// @Produce json
// @Param id path int true "Application ID"
// @Param payload body dto.DecideAppealRequest true "Appeal decision"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /applications/{id}/appeal/decide [post]
func (h *ApplicationHandler) DecideAppeal(c *gin.Context) {
	var req dto.DecideAppealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid appeal decision payload"))
		return
	}
	h.workflowAction(c, func(actor models.Actor, id int64) (*models.Application, error) {
		return h.service.DecideAppeal(c.Request.Context(), id, req, actor)
	})
}

// ImportLegacy godoc
// @Summary Import legacy applications
// @Description Bulk-load historical records with legacy status names
// @Tags Administration
// @Accept json
// @Produce json
// @Param payload body dto.LegacyImportRequest true "Legacy batch"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/import-legacy [post]
func (h *ApplicationHandler) ImportLegacy(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.LegacyImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid import payload"))
		return
	}

	result, err := h.service.ImportLegacy(c.Request.Context(), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// workflowAction runs a status-changing call and maps conflicts so the
// response carries the application's live status.
func (h *ApplicationHandler) workflowAction(c *gin.Context, fn func(models.Actor, int64) (*models.Application, error)) {
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

	app, err := fn(actor, id)
	if err != nil {
		if appErrors.Is(err, appErrors.ErrConflict) && app != nil {
			response.ErrorWithStatus(c, err, string(app.Status))
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, nil)
}

// bindWorkflowAction reads the optional comments body; an empty or
// absent body yields a zero request.
func bindWorkflowAction(c *gin.Context) dto.WorkflowActionRequest {
	var req dto.WorkflowActionRequest
	_ = c.ShouldBindJSON(&req)
	return req
}

func parseApplicationQuery(c *gin.Context) dto.ApplicationQuery {
	query := dto.ApplicationQuery{
		Search: c.Query("search"),
	}
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				query.Statuses = append(query.Statuses, models.ApplicationStatus(s))
			}
		}
	}
	if t := c.Query("applicantType"); t != "" {
		query.ApplicantType = models.ApplicantType(t)
	}
	query.Queue = c.Query("queue") == "true"
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	return query
}
