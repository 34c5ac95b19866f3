package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tanroads/rrs-api/internal/dto"
	"github.com/tanroads/rrs-api/internal/models"
	"github.com/tanroads/rrs-api/internal/workflow"
	appErrors "github.com/tanroads/rrs-api/pkg/errors"
)

// Read-side operations of the application service: single fetch, lists,
// queue views, the aggregate detail and the approval history.

// Get returns one application, scoped to the actor.
func (s *ApplicationService) Get(ctx context.Context, id int64, actor models.Actor) (*models.Application, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.scopeRead(app, actor); err != nil {
		return nil, err
	}
	return app, nil
}

// GetByNumber resolves an application by its assigned number.
func (s *ApplicationService) GetByNumber(ctx context.Context, number string, actor models.Actor) (*models.Application, error) {
	app, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	if err := s.scopeRead(app, actor); err != nil {
		return nil, err
	}
	return app, nil
}

// List returns applications visible to the actor. Applicants always see
// only their own; Queue narrows an official's view to applications
// currently waiting on their role.
func (s *ApplicationService) List(ctx context.Context, query dto.ApplicationQuery, actor models.Actor) ([]models.Application, int, error) {
	filter := models.ApplicationFilter{
		Statuses:      query.Statuses,
		ApplicantType: query.ApplicantType,
		Search:        strings.TrimSpace(query.Search),
		Page:          query.Page,
		PageSize:      query.PageSize,
	}
	for _, status := range query.Statuses {
		if !models.IsValidStatus(status) {
			return nil, 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", status))
		}
	}
	if models.IsApplicantRole(actor.Role) {
		filter.ApplicantID = actor.UserID
	} else if query.Queue {
		filter.OwnerRole = actor.Role
	}

	apps, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	return apps, total, nil
}

// History returns the approval ledger of an application.
func (s *ApplicationService) History(ctx context.Context, id int64, actor models.Actor) ([]models.ApprovalAction, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.scopeRead(app, actor); err != nil {
		return nil, err
	}
	history, err := s.repo.History(ctx, app.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approval history")
	}
	return history, nil
}

// Detail assembles the full aggregate view of an application.
func (s *ApplicationService) Detail(ctx context.Context, id int64, actor models.Actor) (*dto.ApplicationDetail, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.scopeRead(app, actor); err != nil {
		return nil, err
	}

	detail := &dto.ApplicationDetail{
		Application:       *app,
		StatusDisplayName: models.StatusLabels[app.Status],
	}

	if detail.EligibilityCriteria, err = s.repo.Criteria(ctx, app.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load eligibility criteria")
	}
	if detail.ApprovalHistory, err = s.repo.History(ctx, app.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approval history")
	}
	if detail.VerificationAssignments, err = s.repo.Assignments(ctx, app.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load verification assignments")
	}
	if detail.Recommendation, err = s.optionalRecommendation(ctx, app.ID); err != nil {
		return nil, err
	}
	if detail.MinisterDecision, err = s.optionalDecision(ctx, app.ID); err != nil {
		return nil, err
	}
	if detail.Gazettement, err = s.optionalGazettement(ctx, app.ID); err != nil {
		return nil, err
	}
	if detail.Appeal, err = s.optionalAppeal(ctx, app.ID); err != nil {
		return nil, err
	}
	return detail, nil
}

// ImportLegacy loads a batch of historical records. Failures are
// collected per record; a bad record never aborts the batch.
func (s *ApplicationService) ImportLegacy(ctx context.Context, req dto.LegacyImportRequest, actor models.Actor) (*dto.LegacyImportResult, error) {
	if actor.Role != models.RoleSystemAdministrator {
		return nil, appErrors.ErrForbidden
	}
	if !s.cfg.LegacyImportEnabled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "legacy import is disabled")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid import payload")
	}
	if max := s.cfg.LegacyImportMaxBatch; max > 0 && len(req.Applications) > max {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("batch exceeds the maximum of %d records", max))
	}

	result := &dto.LegacyImportResult{}
	for i, record := range req.Applications {
		status, ok := workflow.NormalizeLegacyStatus(record.Status)
		if !ok {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("record %d: unknown status %q", i, record.Status))
			continue
		}
		if !models.IsValidApplicantType(record.ApplicantType) {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("record %d: unknown applicant type %q", i, record.ApplicantType))
			continue
		}
		if strings.TrimSpace(record.ApplicationNumber) == "" || strings.TrimSpace(record.RoadName) == "" {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("record %d: application number and road name are required", i))
			continue
		}

		number := record.ApplicationNumber
		app := &models.Application{
			ApplicationNumber: &number,
			ApplicantID:       record.ApplicantID,
			ApplicantType:     record.ApplicantType,
			Status:            status,
			OwnerRole:         workflow.OwnerRole(status, record.ApplicantType),
			RoadName:          record.RoadName,
			RoadLength:        record.RoadLength,
			CurrentClass:      record.CurrentClass,
			ProposedClass:     record.ProposedClass,
			SubmissionDate:    record.SubmissionDate,
		}
		if err := s.repo.ImportLegacy(ctx, app, actor); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("record %d: %v", i, err))
			s.logger.Warn("legacy import record failed",
				zap.Int("record", i),
				zap.String("application_number", record.ApplicationNumber),
				zap.Error(err),
			)
			continue
		}
		result.Imported++
	}
	return result, nil
}

// scopeRead rejects applicant access to applications they do not own.
// Officials may read everything; queue narrowing happens in List.
func (s *ApplicationService) scopeRead(app *models.Application, actor models.Actor) error {
	if models.IsApplicantRole(actor.Role) && app.ApplicantID != actor.UserID {
		return appErrors.ErrForbidden
	}
	return nil
}

func (s *ApplicationService) optionalRecommendation(ctx context.Context, id int64) (*models.Recommendation, error) {
	rec, err := s.repo.RecommendationFor(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recommendation")
	}
	return rec, nil
}

func (s *ApplicationService) optionalDecision(ctx context.Context, id int64) (*models.MinisterDecision, error) {
	decision, err := s.repo.DecisionFor(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load minister decision")
	}
	return decision, nil
}

func (s *ApplicationService) optionalGazettement(ctx context.Context, id int64) (*models.Gazettement, error) {
	gaz, err := s.repo.GazettementFor(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load gazettement")
	}
	return gaz, nil
}

func (s *ApplicationService) optionalAppeal(ctx context.Context, id int64) (*models.Appeal, error) {
	appeal, err := s.repo.AppealFor(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appeal")
	}
	return appeal, nil
}
