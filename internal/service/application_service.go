package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/tanroads/rrs-api/internal/dto"
	"github.com/tanroads/rrs-api/internal/models"
	"github.com/tanroads/rrs-api/internal/repository"
	"github.com/tanroads/rrs-api/internal/workflow"
	"github.com/tanroads/rrs-api/pkg/config"
	appErrors "github.com/tanroads/rrs-api/pkg/errors"
)

type applicationStore interface {
	Create(ctx context.Context, app *models.Application, criteria []models.EligibilityCriterion) error
	GetByID(ctx context.Context, id int64) (*models.Application, error)
	GetByNumber(ctx context.Context, number string) (*models.Application, error)
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, int, error)
	UpdateDraft(ctx context.Context, app *models.Application, criteria []models.EligibilityCriterion) error
	DeleteDraft(ctx context.Context, id int64, applicantID string) error
	Transition(ctx context.Context, params repository.TransitionParams) (*models.Application, error)
	ImportLegacy(ctx context.Context, app *models.Application, actor models.Actor) error

	History(ctx context.Context, applicationID int64) ([]models.ApprovalAction, error)
	Criteria(ctx context.Context, applicationID int64) ([]models.EligibilityCriterion, error)
	Assignments(ctx context.Context, applicationID int64) ([]models.VerificationAssignment, error)
	AssignmentByID(ctx context.Context, id int64) (*models.VerificationAssignment, error)
	RecommendationFor(ctx context.Context, applicationID int64) (*models.Recommendation, error)
	DecisionFor(ctx context.Context, applicationID int64) (*models.MinisterDecision, error)
	GazettementFor(ctx context.Context, applicationID int64) (*models.Gazettement, error)
	AppealFor(ctx context.Context, applicationID int64) (*models.Appeal, error)

	UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, applicationID int64, status models.ApplicationStatus, owner models.UserRole) error
	AppendLedgerTx(ctx context.Context, tx *sqlx.Tx, applicationID int64, entry repository.LedgerEntry, actor models.Actor) error
	InsertAssignmentTx(ctx context.Context, tx *sqlx.Tx, assignment *models.VerificationAssignment) error
	UpdateAssignmentStatusTx(ctx context.Context, tx *sqlx.Tx, id int64, from, to models.VerificationStatus) error
	InsertReportTx(ctx context.Context, tx *sqlx.Tx, report *models.VerificationReport) error
	OutstandingAssignmentsTx(ctx context.Context, tx *sqlx.Tx, applicationID int64) (int, error)
	CompletedReportsTx(ctx context.Context, tx *sqlx.Tx, applicationID int64) (int, error)
	InsertRecommendationTx(ctx context.Context, tx *sqlx.Tx, rec *models.Recommendation) error
	InsertDecisionTx(ctx context.Context, tx *sqlx.Tx, decision *models.MinisterDecision) error
	InsertGazettementTx(ctx context.Context, tx *sqlx.Tx, gaz *models.Gazettement) error
	UpdateGazettementTx(ctx context.Context, tx *sqlx.Tx, applicationID int64, number string, date time.Time, actor models.Actor) error
	InsertAppealTx(ctx context.Context, tx *sqlx.Tx, appeal *models.Appeal) error
	UpdateAppealTx(ctx context.Context, tx *sqlx.Tx, applicationID int64, from, to models.AppealStatus, decision *models.AppealDecision) error
}

type userDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// Notifier receives transition events after commit. Implementations must
// not block the request path.
type Notifier interface {
	ApplicationTransitioned(ctx context.Context, app *models.Application, action workflow.Action, actor models.Actor)
}

type transitionRecorder interface {
	RecordTransition(action string, from, to models.ApplicationStatus)
}

// ApplicationService is the workflow engine: it owns every status
// mutation, enforces role and ownership rules on top of the transition
// table, and keeps the approval ledger consistent with the moves it
// makes.
type ApplicationService struct {
	repo      applicationStore
	users     userDirectory
	validator *validator.Validate
	notifier  Notifier
	metrics   transitionRecorder
	cfg       config.WorkflowConfig
	logger    *zap.Logger
}

// NewApplicationService constructs the service.
func NewApplicationService(repo applicationStore, users userDirectory, validate *validator.Validate, cfg config.WorkflowConfig, logger *zap.Logger) *ApplicationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ApplicationService{repo: repo, users: users, validator: validate, cfg: cfg, logger: logger}
}

// SetNotifier attaches the transition notifier.
func (s *ApplicationService) SetNotifier(n Notifier) { s.notifier = n }

// SetMetrics attaches the transition counter.
func (s *ApplicationService) SetMetrics(m transitionRecorder) { s.metrics = m }

// Create opens a new DRAFT application owned by the acting applicant.
func (s *ApplicationService) Create(ctx context.Context, req dto.CreateApplicationRequest, actor models.Actor) (*models.Application, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid application payload")
	}
	if !models.IsApplicantRole(actor.Role) {
		return nil, appErrors.ErrForbidden
	}
	if !models.IsValidApplicantType(req.ApplicantType) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown applicant type")
	}
	if workflow.ApplicantRole(req.ApplicantType) != actor.Role {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "applicant type does not match the acting role")
	}
	if err := validateRoadClasses(req.CurrentClass, req.ProposedClass); err != nil {
		return nil, err
	}

	app := &models.Application{
		ApplicantID:   actor.UserID,
		ApplicantType: req.ApplicantType,
		Status:        models.StatusDraft,
		OwnerRole:     actor.Role,
	}
	applyCreateRequest(app, req)

	if err := s.repo.Create(ctx, app, criteriaFromRequests(req.EligibilityCriteria)); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create application")
	}
	return app, nil
}

// Update edits form data while the application is still editable.
func (s *ApplicationService) Update(ctx context.Context, id int64, req dto.UpdateApplicationRequest, actor models.Actor) (*models.Application, error) {
	app, err := s.loadOwned(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if !app.Editable() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "application can no longer be edited")
	}
	applyUpdateRequest(app, req)
	if err := validateRoadClasses(app.CurrentClass, app.ProposedClass); err != nil {
		return nil, err
	}

	var criteria []models.EligibilityCriterion
	if req.EligibilityCriteria != nil {
		criteria = criteriaFromRequests(req.EligibilityCriteria)
	}
	if err := s.repo.UpdateDraft(ctx, app, criteria); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, appErrors.ErrConflict
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update application")
	}
	return app, nil
}

// Delete removes a DRAFT application owned by the actor.
func (s *ApplicationService) Delete(ctx context.Context, id int64, actor models.Actor) error {
	if !models.IsApplicantRole(actor.Role) {
		return appErrors.ErrForbidden
	}
	if err := s.repo.DeleteDraft(ctx, id, actor.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "no deletable draft found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete application")
	}
	return nil
}

// Submit moves the application out of the applicant's hands. Board
// applications are routed into the regional chain in the same
// transaction; everything else rests at SUBMITTED for the Secretariat.
func (s *ApplicationService) Submit(ctx context.Context, id int64, actor models.Actor) (*models.Application, error) {
	app, err := s.loadOwned(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(app, workflow.ActionSubmit, actor); err != nil {
		return nil, err
	}
	if err := validateForSubmission(app); err != nil {
		return nil, err
	}
	criteria, err := s.repo.Criteria(ctx, app.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load eligibility criteria")
	}
	if len(criteria) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one eligibility criterion is required")
	}

	from := app.Status
	newStatus := models.StatusSubmitted
	ledger := []repository.LedgerEntry{{Action: string(workflow.ActionSubmit), From: from, To: models.StatusSubmitted}}
	if workflow.RoutesThroughRegion(app.ApplicantType) {
		newStatus = models.StatusUnderRASReview
		ledger = append(ledger, repository.LedgerEntry{
			Action: string(workflow.ActionRouteToRAS),
			From:   models.StatusSubmitted,
			To:     models.StatusUnderRASReview,
		})
	}

	return s.transition(ctx, repository.TransitionParams{
		ApplicationID:     app.ID,
		ExpectedStatus:    from,
		NewStatus:         newStatus,
		OwnerRole:         workflow.OwnerRole(newStatus, app.ApplicantType),
		Actor:             actor,
		Ledger:            ledger,
		SetSubmissionDate: true,
		AssignNumber:      true,
		NumberPrefix:      s.cfg.NumberPrefix,
	}, workflow.ActionSubmit, actor)
}

// ForwardToMinister moves a direct-route application to the minister.
func (s *ApplicationService) ForwardToMinister(ctx context.Context, id int64, req dto.WorkflowActionRequest, actor models.Actor) (*models.Application, error) {
	return s.act(ctx, id, workflow.ActionForwardToMinister, req.Comments, actor, nil)
}

// RASApprove advances a board application past the RAS desk.
func (s *ApplicationService) RASApprove(ctx context.Context, id int64, req dto.WorkflowActionRequest, actor models.Actor) (*models.Application, error) {
	return s.act(ctx, id, workflow.ActionRASApprove, req.Comments, actor, nil)
}

// RCApprove advances a board application past the commissioner.
func (s *ApplicationService) RCApprove(ctx context.Context, id int64, req dto.WorkflowActionRequest, actor models.Actor) (*models.Application, error) {
	return s.act(ctx, id, workflow.ActionRCApprove, req.Comments, actor, nil)
}

// ForwardToNRCCChair hands the application to the committee chair.
func (s *ApplicationService) ForwardToNRCCChair(ctx context.Context, id int64, req dto.WorkflowActionRequest, actor models.Actor) (*models.Application, error) {
	return s.act(ctx, id, workflow.ActionForwardToNRCCChair, req.Comments, actor, nil)
}

// ReturnForCorrection sends the application back to its applicant. The
// ledger keeps the full path; resubmission resumes the original route.
func (s *ApplicationService) ReturnForCorrection(ctx context.Context, id int64, req dto.WorkflowActionRequest, actor models.Actor) (*models.Application, error) {
	if strings.TrimSpace(req.Comments) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "comments are required when returning an application")
	}
	return s.act(ctx, id, workflow.ActionReturnForCorrection, req.Comments, actor, nil)
}

// AssignVerification creates a field verification assignment for a
// committee member and moves the application into verification.
func (s *ApplicationService) AssignVerification(ctx context.Context, id int64, req dto.AssignVerificationRequest, actor models.Actor) (*models.Application, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	member, err := s.users.FindByID(ctx, req.MemberID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "assignee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignee")
	}
	if member.Role != models.RoleNRCCMember {
		return nil, appErrors.Clone(appErrors.ErrValidation, "verification can only be assigned to a committee member")
	}

	dueDate := req.DueDate
	if dueDate.IsZero() && s.cfg.VerificationDueDays > 0 {
		dueDate = time.Now().UTC().AddDate(0, 0, s.cfg.VerificationDueDays)
	}

	mutate := func(ctx context.Context, tx *sqlx.Tx, app *models.Application) error {
		assignment := &models.VerificationAssignment{
			ApplicationID: app.ID,
			AssigneeID:    member.ID,
			AssigneeName:  member.FullName,
			AssignerID:    actor.UserID,
			AssignerName:  actor.FullName,
			DueDate:       dueDate,
			VisitDate:     req.VisitDate,
			Instructions:  optionalString(req.Instructions),
			Status:        models.VerificationAssigned,
		}
		return s.repo.InsertAssignmentTx(ctx, tx, assignment)
	}
	return s.act(ctx, id, workflow.ActionAssignVerification, "", actor, mutate)
}

// StartVerification marks the actor's assignment as in progress.
func (s *ApplicationService) StartVerification(ctx context.Context, id int64, req dto.StartVerificationRequest, actor models.Actor) (*models.Application, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid verification payload")
	}
	assignment, err := s.loadAssignment(ctx, id, req.AssignmentID, actor)
	if err != nil {
		return nil, err
	}
	if assignment.Status != models.VerificationAssigned {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "assignment has already been started")
	}
	mutate := func(ctx context.Context, tx *sqlx.Tx, app *models.Application) error {
		return s.repo.UpdateAssignmentStatusTx(ctx, tx, assignment.ID, models.VerificationAssigned, models.VerificationInProgress)
	}
	return s.act(ctx, id, workflow.ActionStartVerification, "", actor, mutate)
}

// SubmitVerificationReport completes the actor's assignment. When the
// last outstanding assignment completes with at least one report on
// file, the application advances to the committee review meeting inside
// the same transaction.
func (s *ApplicationService) SubmitVerificationReport(ctx context.Context, id int64, req dto.SubmitVerificationReportRequest, actor models.Actor) (*models.Application, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}
	assignment, err := s.loadAssignment(ctx, id, req.AssignmentID, actor)
	if err != nil {
		return nil, err
	}
	if assignment.Status == models.VerificationCompleted {
		return nil, appErrors.Clone(appErrors.ErrConflict, "assignment is already completed")
	}
	if strings.TrimSpace(req.Findings) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "findings are required")
	}

	advanced := false
	mutate := func(ctx context.Context, tx *sqlx.Tx, app *models.Application) error {
		if err := s.repo.UpdateAssignmentStatusTx(ctx, tx, assignment.ID, assignment.Status, models.VerificationCompleted); err != nil {
			return err
		}
		report := &models.VerificationReport{
			AssignmentID: assignment.ID,
			Findings:     req.Findings,
			VisitDate:    req.VisitDate,
		}
		if err := s.repo.InsertReportTx(ctx, tx, report); err != nil {
			return err
		}
		outstanding, err := s.repo.OutstandingAssignmentsTx(ctx, tx, app.ID)
		if err != nil {
			return err
		}
		if outstanding > 0 {
			return nil
		}
		completed, err := s.repo.CompletedReportsTx(ctx, tx, app.ID)
		if err != nil {
			return err
		}
		if completed == 0 {
			return nil
		}
		owner := workflow.OwnerRole(models.StatusNRCCReviewMeeting, app.ApplicantType)
		if err := s.repo.UpdateStatusTx(ctx, tx, app.ID, models.StatusNRCCReviewMeeting, owner); err != nil {
			return err
		}
		if err := s.repo.AppendLedgerTx(ctx, tx, app.ID, repository.LedgerEntry{
			Action: string(workflow.ActionSubmitVerificationReport),
			From:   models.StatusVerificationInProgress,
			To:     models.StatusNRCCReviewMeeting,
		}, actor); err != nil {
			return err
		}
		advanced = true
		return nil
	}

	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(app, workflow.ActionSubmitVerificationReport, actor); err != nil {
		return nil, err
	}

	result, err := s.transition(ctx, repository.TransitionParams{
		ApplicationID:  app.ID,
		ExpectedStatus: models.StatusVerificationInProgress,
		NewStatus:      models.StatusVerificationInProgress,
		OwnerRole:      workflow.OwnerRole(models.StatusVerificationInProgress, app.ApplicantType),
		Actor:          actor,
		Ledger: []repository.LedgerEntry{{
			Action:   string(workflow.ActionSubmitVerificationReport),
			From:     models.StatusVerificationInProgress,
			To:       models.StatusVerificationInProgress,
			Comments: optionalString(req.Findings),
		}},
		Mutate: mutate,
	}, workflow.ActionSubmitVerificationReport, actor)
	if err != nil {
		return nil, err
	}
	if advanced {
		result.Status = models.StatusNRCCReviewMeeting
		result.OwnerRole = workflow.OwnerRole(models.StatusNRCCReviewMeeting, result.ApplicantType)
	}
	return result, nil
}

// SubmitRecommendation records the chair's recommendation after the
// review meeting.
func (s *ApplicationService) SubmitRecommendation(ctx context.Context, id int64, req dto.WorkflowActionRequest, actor models.Actor) (*models.Application, error) {
	if strings.TrimSpace(req.Comments) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "recommendation text is required")
	}
	mutate := func(ctx context.Context, tx *sqlx.Tx, app *models.Application) error {
		rec := &models.Recommendation{
			ApplicationID: app.ID,
			Text:          req.Comments,
			SubmittedBy:   actor.UserID,
			SubmittedName: actor.FullName,
		}
		return s.repo.InsertRecommendationTx(ctx, tx, rec)
	}
	return s.act(ctx, id, workflow.ActionSubmitRecommendation, req.Comments, actor, mutate)
}

// RecordDecision records the minister decision. Approval implicitly
// opens a pending gazettement record.
func (s *ApplicationService) RecordDecision(ctx context.Context, id int64, req dto.MinisterDecisionRequest, actor models.Actor) (*models.Application, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid decision payload")
	}
	target, ok := workflow.DecisionTarget(req.Decision, req.DisapprovalType)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "decision must be APPROVE, or DISAPPROVE with a disapproval type of REFUSED or DESIGNATED")
	}

	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(app, workflow.ActionRecordDecision, actor); err != nil {
		return nil, err
	}

	mutate := func(ctx context.Context, tx *sqlx.Tx, app *models.Application) error {
		decision := &models.MinisterDecision{
			ApplicationID: app.ID,
			Decision:      req.Decision,
			Reason:        optionalString(req.Reason),
			DecidedBy:     actor.UserID,
			DecidedByName: actor.FullName,
		}
		if req.Decision == models.DecisionDisapprove {
			dt := req.DisapprovalType
			decision.DisapprovalType = &dt
		}
		if err := s.repo.InsertDecisionTx(ctx, tx, decision); err != nil {
			return err
		}
		if req.Decision == models.DecisionApprove {
			return s.repo.InsertGazettementTx(ctx, tx, &models.Gazettement{
				ApplicationID: app.ID,
				Status:        models.GazettementPending,
			})
		}
		return nil
	}

	return s.transition(ctx, repository.TransitionParams{
		ApplicationID:   app.ID,
		ExpectedStatus:  app.Status,
		NewStatus:       target,
		OwnerRole:       workflow.OwnerRole(target, app.ApplicantType),
		Actor:           actor,
		SetDecisionDate: true,
		Ledger: []repository.LedgerEntry{{
			Action:   string(workflow.ActionRecordDecision),
			From:     app.Status,
			To:       target,
			Comments: optionalString(req.Reason),
		}},
		Mutate: mutate,
	}, workflow.ActionRecordDecision, actor)
}

// StartGazettement stages an approved application for publication.
func (s *ApplicationService) StartGazettement(ctx context.Context, id int64, req dto.WorkflowActionRequest, actor models.Actor) (*models.Application, error) {
	return s.act(ctx, id, workflow.ActionStartGazettement, req.Comments, actor, nil)
}

// UpdateGazettement records the gazette reference and closes the
// approval flow at GAZETTED.
func (s *ApplicationService) UpdateGazettement(ctx context.Context, id int64, req dto.UpdateGazettementRequest, actor models.Actor) (*models.Application, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid gazettement payload")
	}
	if strings.TrimSpace(req.GazetteNumber) == "" || req.GazetteDate.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "gazette number and date are required")
	}
	mutate := func(ctx context.Context, tx *sqlx.Tx, app *models.Application) error {
		return s.repo.UpdateGazettementTx(ctx, tx, app.ID, req.GazetteNumber, req.GazetteDate, actor)
	}
	return s.act(ctx, id, workflow.ActionUpdateGazettement, "", actor, mutate)
}

// SubmitAppeal opens the single allowed appeal against a disapproval.
func (s *ApplicationService) SubmitAppeal(ctx context.Context, id int64, req dto.SubmitAppealRequest, actor models.Actor) (*models.Application, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid appeal payload")
	}
	app, err := s.loadOwned(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(app, workflow.ActionSubmitAppeal, actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Grounds) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "appeal grounds are required")
	}
	if s.cfg.AppealWindowDays > 0 && app.DecisionDate != nil {
		deadline := app.DecisionDate.AddDate(0, 0, s.cfg.AppealWindowDays)
		if time.Now().UTC().After(deadline) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "the appeal window has closed")
		}
	}
	if existing, err := s.repo.AppealFor(ctx, app.ID); err == nil && existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an appeal has already been submitted for this application")
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check for an existing appeal")
	}

	mutate := func(ctx context.Context, tx *sqlx.Tx, app *models.Application) error {
		return s.repo.InsertAppealTx(ctx, tx, &models.Appeal{
			ApplicationID: app.ID,
			Grounds:       req.Grounds,
			Status:        models.AppealOpen,
		})
	}
	return s.transition(ctx, repository.TransitionParams{
		ApplicationID:  app.ID,
		ExpectedStatus: app.Status,
		NewStatus:      models.StatusAppealSubmitted,
		OwnerRole:      workflow.OwnerRole(models.StatusAppealSubmitted, app.ApplicantType),
		Actor:          actor,
		Ledger: []repository.LedgerEntry{{
			Action:   string(workflow.ActionSubmitAppeal),
			From:     app.Status,
			To:       models.StatusAppealSubmitted,
			Comments: optionalString(req.Grounds),
		}},
		Mutate: mutate,
	}, workflow.ActionSubmitAppeal, actor)
}

// ReviewAppeal takes the appeal under review.
func (s *ApplicationService) ReviewAppeal(ctx context.Context, id int64, req dto.WorkflowActionRequest, actor models.Actor) (*models.Application, error) {
	mutate := func(ctx context.Context, tx *sqlx.Tx, app *models.Application) error {
		return s.repo.UpdateAppealTx(ctx, tx, app.ID, models.AppealOpen, models.AppealUnderReview, nil)
	}
	return s.act(ctx, id, workflow.ActionReviewAppeal, req.Comments, actor, mutate)
}

// DecideAppeal closes the appeal with its outcome. The outcome lives on
// the appeal record; the application lands at APPEAL_CLOSED either way.
func (s *ApplicationService) DecideAppeal(ctx context.Context, id int64, req dto.DecideAppealRequest, actor models.Actor) (*models.Application, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid appeal decision payload")
	}
	if req.Decision != models.AppealUpheld && req.Decision != models.AppealDismissed {
		return nil, appErrors.Clone(appErrors.ErrValidation, "appeal decision must be UPHELD or DISMISSED")
	}
	mutate := func(ctx context.Context, tx *sqlx.Tx, app *models.Application) error {
		decision := req.Decision
		return s.repo.UpdateAppealTx(ctx, tx, app.ID, models.AppealUnderReview, models.AppealClosed, &decision)
	}
	return s.act(ctx, id, workflow.ActionDecideAppeal, req.Comments, actor, mutate)
}

// act performs a table-driven transition whose target is static.
func (s *ApplicationService) act(ctx context.Context, id int64, action workflow.Action, comments string, actor models.Actor, mutate func(context.Context, *sqlx.Tx, *models.Application) error) (*models.Application, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(app, action, actor); err != nil {
		return nil, err
	}
	tr, ok := workflow.Lookup(app.Status, action)
	if !ok || tr.To == "" {
		return nil, appErrors.ErrInvalidTransition
	}

	return s.transition(ctx, repository.TransitionParams{
		ApplicationID:  app.ID,
		ExpectedStatus: app.Status,
		NewStatus:      tr.To,
		OwnerRole:      workflow.OwnerRole(tr.To, app.ApplicantType),
		Actor:          actor,
		Ledger: []repository.LedgerEntry{{
			Action:   string(action),
			From:     app.Status,
			To:       tr.To,
			Comments: optionalString(comments),
		}},
		Mutate: mutate,
	}, action, actor)
}

// transition runs the repository transaction and translates its failure
// modes into the caller-facing error taxonomy.
func (s *ApplicationService) transition(ctx context.Context, params repository.TransitionParams, action workflow.Action, actor models.Actor) (*models.Application, error) {
	app, err := s.repo.Transition(ctx, params)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			e := appErrors.Clone(appErrors.ErrConflict, "")
			if app != nil {
				e.Message = fmt.Sprintf("application status changed to %s, re-fetch and retry", app.Status)
			}
			return app, e
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "workflow action failed")
	}

	s.logger.Info("workflow transition",
		zap.Int64("application_id", app.ID),
		zap.String("action", string(action)),
		zap.String("from", string(params.ExpectedStatus)),
		zap.String("to", string(app.Status)),
		zap.String("actor_role", string(actor.Role)),
	)
	if s.metrics != nil {
		s.metrics.RecordTransition(string(action), params.ExpectedStatus, app.Status)
	}
	if s.notifier != nil {
		s.notifier.ApplicationTransitioned(ctx, app, action, actor)
	}
	return app, nil
}

// authorize checks the static role gate plus applicant ownership.
func (s *ApplicationService) authorize(app *models.Application, action workflow.Action, actor models.Actor) error {
	if _, ok := workflow.Lookup(app.Status, action); !ok {
		if workflow.IsTerminal(app.Status) && action != workflow.ActionSubmitAppeal {
			return appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("%s is a terminal status", app.Status))
		}
		return appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("%s is not legal from %s", action, app.Status))
	}
	if !workflow.CanPerform(actor.Role, action, app.Status) {
		return appErrors.ErrForbidden
	}
	if models.IsApplicantRole(actor.Role) && app.ApplicantID != actor.UserID {
		return appErrors.ErrForbidden
	}
	return nil
}

func (s *ApplicationService) load(ctx context.Context, id int64) (*models.Application, error) {
	app, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	return app, nil
}

func (s *ApplicationService) loadOwned(ctx context.Context, id int64, actor models.Actor) (*models.Application, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.IsApplicantRole(actor.Role) {
		return nil, appErrors.ErrForbidden
	}
	if app.ApplicantID != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	return app, nil
}

func (s *ApplicationService) loadAssignment(ctx context.Context, applicationID, assignmentID int64, actor models.Actor) (*models.VerificationAssignment, error) {
	assignment, err := s.repo.AssignmentByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "verification assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load verification assignment")
	}
	if assignment.ApplicationID != applicationID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "assignment does not belong to this application")
	}
	if assignment.AssigneeID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the assigned member may act on this assignment")
	}
	return assignment, nil
}

func validateRoadClasses(current, proposed models.RoadClass) error {
	if !models.IsValidRoadClass(current) || !models.IsValidRoadClass(proposed) {
		return appErrors.Clone(appErrors.ErrValidation, "road class must be DISTRICT, REGIONAL or TRUNK")
	}
	if current == proposed {
		return appErrors.Clone(appErrors.ErrValidation, "proposed class must differ from the current class")
	}
	return nil
}

func validateForSubmission(app *models.Application) error {
	var missing []string
	if strings.TrimSpace(app.RoadName) == "" {
		missing = append(missing, "roadName")
	}
	if app.RoadLength <= 0 {
		missing = append(missing, "roadLength")
	}
	if app.CarriagewayWidth <= 0 {
		missing = append(missing, "carriagewayWidth")
	}
	if app.FormationWidth <= 0 {
		missing = append(missing, "formationWidth")
	}
	if app.RoadReserveWidth <= 0 {
		missing = append(missing, "actualRoadReserveWidth")
	}
	if strings.TrimSpace(app.StartingPoint) == "" {
		missing = append(missing, "startingPoint")
	}
	if strings.TrimSpace(app.TerminalPoint) == "" {
		missing = append(missing, "terminalPoint")
	}
	if strings.TrimSpace(app.ReclassificationReason) == "" {
		missing = append(missing, "reclassificationReasons")
	}
	if len(missing) > 0 {
		return appErrors.Clone(appErrors.ErrValidation, "incomplete application, missing: "+strings.Join(missing, ", "))
	}
	return validateRoadClasses(app.CurrentClass, app.ProposedClass)
}

func applyCreateRequest(app *models.Application, req dto.CreateApplicationRequest) {
	app.RoadName = req.RoadName
	app.RoadLength = req.RoadLength
	app.CurrentClass = req.CurrentClass
	app.ProposedClass = req.ProposedClass
	app.StartingPoint = req.StartingPoint
	app.TerminalPoint = req.TerminalPoint
	app.ReclassificationReason = req.ReclassificationReason
	app.SurfaceTypeCarriageway = req.SurfaceTypeCarriageway
	app.SurfaceTypeShoulders = optionalString(req.SurfaceTypeShoulders)
	app.CarriagewayWidth = req.CarriagewayWidth
	app.FormationWidth = req.FormationWidth
	app.RoadReserveWidth = req.RoadReserveWidth
	app.TrafficLevel = req.TrafficLevel
	app.TrafficComposition = req.TrafficComposition
	app.TownsVillagesLink = req.TownsVillagesLinked
	app.PrincipalNodes = optionalString(req.PrincipalNodes)
	app.BusRoutes = req.BusRoutes
	app.PublicServices = req.PublicServices
	app.AlternativeRoutes = optionalString(req.AlternativeRoutes)
}

func applyUpdateRequest(app *models.Application, req dto.UpdateApplicationRequest) {
	if req.RoadName != nil {
		app.RoadName = *req.RoadName
	}
	if req.RoadLength != nil {
		app.RoadLength = *req.RoadLength
	}
	if req.CurrentClass != nil {
		app.CurrentClass = *req.CurrentClass
	}
	if req.ProposedClass != nil {
		app.ProposedClass = *req.ProposedClass
	}
	if req.StartingPoint != nil {
		app.StartingPoint = *req.StartingPoint
	}
	if req.TerminalPoint != nil {
		app.TerminalPoint = *req.TerminalPoint
	}
	if req.ReclassificationReason != nil {
		app.ReclassificationReason = *req.ReclassificationReason
	}
	if req.SurfaceTypeCarriageway != nil {
		app.SurfaceTypeCarriageway = *req.SurfaceTypeCarriageway
	}
	if req.SurfaceTypeShoulders != nil {
		app.SurfaceTypeShoulders = req.SurfaceTypeShoulders
	}
	if req.CarriagewayWidth != nil {
		app.CarriagewayWidth = *req.CarriagewayWidth
	}
	if req.FormationWidth != nil {
		app.FormationWidth = *req.FormationWidth
	}
	if req.RoadReserveWidth != nil {
		app.RoadReserveWidth = *req.RoadReserveWidth
	}
	if req.TrafficLevel != nil {
		app.TrafficLevel = *req.TrafficLevel
	}
	if req.TrafficComposition != nil {
		app.TrafficComposition = *req.TrafficComposition
	}
	if req.TownsVillagesLinked != nil {
		app.TownsVillagesLink = *req.TownsVillagesLinked
	}
	if req.PrincipalNodes != nil {
		app.PrincipalNodes = req.PrincipalNodes
	}
	if req.BusRoutes != nil {
		app.BusRoutes = *req.BusRoutes
	}
	if req.PublicServices != nil {
		app.PublicServices = *req.PublicServices
	}
	if req.AlternativeRoutes != nil {
		app.AlternativeRoutes = req.AlternativeRoutes
	}
}

func criteriaFromRequests(reqs []dto.EligibilityCriterionRequest) []models.EligibilityCriterion {
	criteria := make([]models.EligibilityCriterion, 0, len(reqs))
	for _, r := range reqs {
		criteria = append(criteria, models.EligibilityCriterion{
			Code:     r.CriterionCode,
			Details:  optionalString(r.Details),
			Evidence: optionalString(r.Evidence),
		})
	}
	return criteria
}

func optionalString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	v := value
	return &v
}
