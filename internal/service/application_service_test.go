package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/tanroads/rrs-api/internal/dto"
	"github.com/tanroads/rrs-api/internal/models"
	"github.com/tanroads/rrs-api/internal/repository"
	"github.com/tanroads/rrs-api/internal/workflow"
	"github.com/tanroads/rrs-api/pkg/config"
	appErrors "github.com/tanroads/rrs-api/pkg/errors"
)

type workflowStoreStub struct {
	apps        map[int64]*models.Application
	criteria    map[int64][]models.EligibilityCriterion
	ledger      map[int64][]repository.LedgerEntry
	assignments map[int64]*models.VerificationAssignment
	reports     []models.VerificationReport
	recs        map[int64]*models.Recommendation
	decisions   map[int64]*models.MinisterDecision
	gazettes    map[int64]*models.Gazettement
	appeals     map[int64]*models.Appeal

	nextID       int64
	nextSequence int

	// liveStatus simulates a concurrent writer: when set for an
	// application, Transition sees this status instead of the
	// caller's expectation.
	liveStatus map[int64]models.ApplicationStatus
}

func newWorkflowStoreStub() *workflowStoreStub {
	return &workflowStoreStub{
		apps:        make(map[int64]*models.Application),
		criteria:    make(map[int64][]models.EligibilityCriterion),
		ledger:      make(map[int64][]repository.LedgerEntry),
		assignments: make(map[int64]*models.VerificationAssignment),
		recs:        make(map[int64]*models.Recommendation),
		decisions:   make(map[int64]*models.MinisterDecision),
		gazettes:    make(map[int64]*models.Gazettement),
		appeals:     make(map[int64]*models.Appeal),
		liveStatus:  make(map[int64]models.ApplicationStatus),
	}
}

func (s *workflowStoreStub) Create(ctx context.Context, app *models.Application, criteria []models.EligibilityCriterion) error {
	s.nextID++
	app.ID = s.nextID
	s.apps[app.ID] = app
	s.criteria[app.ID] = criteria
	return nil
}

func (s *workflowStoreStub) GetByID(ctx context.Context, id int64) (*models.Application, error) {
	app, ok := s.apps[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *app
	return &copy, nil
}

func (s *workflowStoreStub) GetByNumber(ctx context.Context, number string) (*models.Application, error) {
	for _, app := range s.apps {
		if app.ApplicationNumber != nil && *app.ApplicationNumber == number {
			copy := *app
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *workflowStoreStub) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, int, error) {
	var out []models.Application
	for _, app := range s.apps {
		out = append(out, *app)
	}
	return out, len(out), nil
}

func (s *workflowStoreStub) UpdateDraft(ctx context.Context, app *models.Application, criteria []models.EligibilityCriterion) error {
	s.apps[app.ID] = app
	if criteria != nil {
		s.criteria[app.ID] = criteria
	}
	return nil
}

func (s *workflowStoreStub) DeleteDraft(ctx context.Context, id int64, applicantID string) error {
	app, ok := s.apps[id]
	if !ok || app.ApplicantID != applicantID || app.Status != models.StatusDraft {
		return sql.ErrNoRows
	}
	delete(s.apps, id)
	return nil
}

func (s *workflowStoreStub) Transition(ctx context.Context, params repository.TransitionParams) (*models.Application, error) {
	app, ok := s.apps[params.ApplicationID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if live, ok := s.liveStatus[app.ID]; ok && live != params.ExpectedStatus {
		fresh := *app
		fresh.Status = live
		return &fresh, repository.ErrStaleStatus
	}
	app.Status = params.NewStatus
	app.OwnerRole = params.OwnerRole
	if params.AssignNumber && app.ApplicationNumber == nil {
		s.nextSequence++
		number := fmt.Sprintf("%s/%d/%04d", params.NumberPrefix, time.Now().Year(), s.nextSequence)
		app.ApplicationNumber = &number
	}
	if params.SetSubmissionDate {
		now := time.Now().UTC()
		app.SubmissionDate = &now
	}
	if params.SetDecisionDate {
		now := time.Now().UTC()
		app.DecisionDate = &now
	}
	s.ledger[app.ID] = append(s.ledger[app.ID], params.Ledger...)
	if params.Mutate != nil {
		if err := params.Mutate(ctx, nil, app); err != nil {
			return nil, err
		}
	}
	copy := *app
	return &copy, nil
}

func (s *workflowStoreStub) ImportLegacy(ctx context.Context, app *models.Application, actor models.Actor) error {
	s.nextID++
	app.ID = s.nextID
	s.apps[app.ID] = app
	return nil
}

func (s *workflowStoreStub) History(ctx context.Context, applicationID int64) ([]models.ApprovalAction, error) {
	entries := s.ledger[applicationID]
	out := make([]models.ApprovalAction, 0, len(entries))
	for i, e := range entries {
		out = append(out, models.ApprovalAction{
			ID:            int64(i + 1),
			ApplicationID: applicationID,
			Action:        e.Action,
			FromStatus:    e.From,
			ToStatus:      e.To,
			Comments:      e.Comments,
		})
	}
	return out, nil
}

func (s *workflowStoreStub) Criteria(ctx context.Context, applicationID int64) ([]models.EligibilityCriterion, error) {
	return s.criteria[applicationID], nil
}

func (s *workflowStoreStub) Assignments(ctx context.Context, applicationID int64) ([]models.VerificationAssignment, error) {
	var out []models.VerificationAssignment
	for _, a := range s.assignments {
		if a.ApplicationID == applicationID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *workflowStoreStub) AssignmentByID(ctx context.Context, id int64) (*models.VerificationAssignment, error) {
	a, ok := s.assignments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *a
	return &copy, nil
}

func (s *workflowStoreStub) RecommendationFor(ctx context.Context, applicationID int64) (*models.Recommendation, error) {
	if r, ok := s.recs[applicationID]; ok {
		return r, nil
	}
	return nil, sql.ErrNoRows
}

func (s *workflowStoreStub) DecisionFor(ctx context.Context, applicationID int64) (*models.MinisterDecision, error) {
	if d, ok := s.decisions[applicationID]; ok {
		return d, nil
	}
	return nil, sql.ErrNoRows
}

func (s *workflowStoreStub) GazettementFor(ctx context.Context, applicationID int64) (*models.Gazettement, error) {
	if g, ok := s.gazettes[applicationID]; ok {
		return g, nil
	}
	return nil, sql.ErrNoRows
}

func (s *workflowStoreStub) AppealFor(ctx context.Context, applicationID int64) (*models.Appeal, error) {
	if a, ok := s.appeals[applicationID]; ok {
		return a, nil
	}
	return nil, sql.ErrNoRows
}

func (s *workflowStoreStub) UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, applicationID int64, status models.ApplicationStatus, owner models.UserRole) error {
	app, ok := s.apps[applicationID]
	if !ok {
		return sql.ErrNoRows
	}
	app.Status = status
	app.OwnerRole = owner
	return nil
}

func (s *workflowStoreStub) AppendLedgerTx(ctx context.Context, tx *sqlx.Tx, applicationID int64, entry repository.LedgerEntry, actor models.Actor) error {
	s.ledger[applicationID] = append(s.ledger[applicationID], entry)
	return nil
}

func (s *workflowStoreStub) InsertAssignmentTx(ctx context.Context, tx *sqlx.Tx, assignment *models.VerificationAssignment) error {
	s.nextID++
	assignment.ID = s.nextID
	s.assignments[assignment.ID] = assignment
	return nil
}

func (s *workflowStoreStub) UpdateAssignmentStatusTx(ctx context.Context, tx *sqlx.Tx, id int64, from, to models.VerificationStatus) error {
	a, ok := s.assignments[id]
	if !ok || a.Status != from {
		return repository.ErrStaleStatus
	}
	a.Status = to
	return nil
}

func (s *workflowStoreStub) InsertReportTx(ctx context.Context, tx *sqlx.Tx, report *models.VerificationReport) error {
	s.nextID++
	report.ID = s.nextID
	s.reports = append(s.reports, *report)
	return nil
}

func (s *workflowStoreStub) OutstandingAssignmentsTx(ctx context.Context, tx *sqlx.Tx, applicationID int64) (int, error) {
	count := 0
	for _, a := range s.assignments {
		if a.ApplicationID == applicationID && a.Status != models.VerificationCompleted {
			count++
		}
	}
	return count, nil
}

func (s *workflowStoreStub) CompletedReportsTx(ctx context.Context, tx *sqlx.Tx, applicationID int64) (int, error) {
	count := 0
	for _, r := range s.reports {
		if a, ok := s.assignments[r.AssignmentID]; ok && a.ApplicationID == applicationID {
			count++
		}
	}
	return count, nil
}

func (s *workflowStoreStub) InsertRecommendationTx(ctx context.Context, tx *sqlx.Tx, rec *models.Recommendation) error {
	s.recs[rec.ApplicationID] = rec
	return nil
}

func (s *workflowStoreStub) InsertDecisionTx(ctx context.Context, tx *sqlx.Tx, decision *models.MinisterDecision) error {
	s.decisions[decision.ApplicationID] = decision
	return nil
}

func (s *workflowStoreStub) InsertGazettementTx(ctx context.Context, tx *sqlx.Tx, gaz *models.Gazettement) error {
	s.gazettes[gaz.ApplicationID] = gaz
	return nil
}

func (s *workflowStoreStub) UpdateGazettementTx(ctx context.Context, tx *sqlx.Tx, applicationID int64, number string, date time.Time, actor models.Actor) error {
	g, ok := s.gazettes[applicationID]
	if !ok {
		return sql.ErrNoRows
	}
	g.GazetteNumber = &number
	g.GazetteDate = &date
	g.Status = models.GazettementPublished
	return nil
}

func (s *workflowStoreStub) InsertAppealTx(ctx context.Context, tx *sqlx.Tx, appeal *models.Appeal) error {
	s.appeals[appeal.ApplicationID] = appeal
	return nil
}

func (s *workflowStoreStub) UpdateAppealTx(ctx context.Context, tx *sqlx.Tx, applicationID int64, from, to models.AppealStatus, decision *models.AppealDecision) error {
	a, ok := s.appeals[applicationID]
	if !ok || a.Status != from {
		return repository.ErrStaleStatus
	}
	a.Status = to
	if decision != nil {
		a.Decision = decision
	}
	return nil
}

type userDirectoryStub struct {
	users map[string]*models.User
}

func (s *userDirectoryStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func newTestEngine(store *workflowStoreStub, users *userDirectoryStub) *ApplicationService {
	if users == nil {
		users = &userDirectoryStub{users: map[string]*models.User{}}
	}
	cfg := config.WorkflowConfig{
		NumberPrefix:        "NRCC",
		VerificationDueDays: 14,
		AppealWindowDays:    14,
	}
	return NewApplicationService(store, users, nil, cfg, nil)
}

func seedApplication(store *workflowStoreStub, status models.ApplicationStatus, applicantType models.ApplicantType, applicantID string) *models.Application {
	store.nextID++
	app := &models.Application{
		ID:                     store.nextID,
		ApplicantID:            applicantID,
		ApplicantType:          applicantType,
		Status:                 status,
		OwnerRole:              workflow.OwnerRole(status, applicantType),
		RoadName:               "Mkwawa Road",
		RoadLength:             42.5,
		CarriagewayWidth:       6.5,
		FormationWidth:         9,
		RoadReserveWidth:       30,
		CurrentClass:           models.RoadClassDistrict,
		ProposedClass:          models.RoadClassRegional,
		StartingPoint:          "Iringa Junction",
		TerminalPoint:          "Kalenga Gate",
		ReclassificationReason: "traffic growth",
	}
	store.apps[app.ID] = app
	store.criteria[app.ID] = []models.EligibilityCriterion{{ApplicationID: app.ID, Code: "CONNECTS_DISTRICT_HQ"}}
	return app
}

func applicantActor(id string) models.Actor {
	return models.Actor{UserID: id, FullName: "Asha Mushi", Role: models.RolePublicApplicant}
}

func boardActor(id string) models.Actor {
	return models.Actor{UserID: id, FullName: "Juma Bakari", Role: models.RoleBoardInitiator}
}

func TestCreateRejectsMismatchedApplicantType(t *testing.T) {
	store := newWorkflowStoreStub()
	svc := newTestEngine(store, nil)

	req := dto.CreateApplicationRequest{
		ApplicantType: models.ApplicantRegionalRoadsBoard,
		RoadName:      "Mkwawa Road",
		CurrentClass:  models.RoadClassDistrict,
		ProposedClass: models.RoadClassRegional,
	}
	_, err := svc.Create(context.Background(), req, applicantActor("user-1"))
	require.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestCreateRejectsSameRoadClass(t *testing.T) {
	store := newWorkflowStoreStub()
	svc := newTestEngine(store, nil)

	req := dto.CreateApplicationRequest{
		ApplicantType: models.ApplicantIndividual,
		RoadName:      "Mkwawa Road",
		CurrentClass:  models.RoadClassDistrict,
		ProposedClass: models.RoadClassDistrict,
	}
	_, err := svc.Create(context.Background(), req, applicantActor("user-1"))
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestSubmitDirectRoute(t *testing.T) {
	store := newWorkflowStoreStub()
	svc := newTestEngine(store, nil)
	app := seedApplication(store, models.StatusDraft, models.ApplicantIndividual, "user-1")

	result, err := svc.Submit(context.Background(), app.ID, applicantActor("user-1"))
	require.NoError(t, err)
	require.Equal(t, models.StatusSubmitted, result.Status)
	require.Equal(t, models.RoleNRCCSecretariat, result.OwnerRole)
	require.NotNil(t, result.ApplicationNumber)
	require.Regexp(t, `^NRCC/\d{4}/\d{4}$`, *result.ApplicationNumber)
	require.NotNil(t, result.SubmissionDate)
	require.Len(t, store.ledger[app.ID], 1)
}

func TestSubmitBoardRouteAutoRoutes(t *testing.T) {
	store := newWorkflowStoreStub()
	svc := newTestEngine(store, nil)
	app := seedApplication(store, models.StatusDraft, models.ApplicantRegionalRoadsBoard, "board-1")

	result, err := svc.Submit(context.Background(), app.ID, boardActor("board-1"))
	require.NoError(t, err)
	require.Equal(t, models.StatusUnderRASReview, result.Status)
	require.Equal(t, models.RoleRAS, result.OwnerRole)

	entries := store.ledger[app.ID]
	require.Len(t, entries, 2)
	require.Equal(t, string(workflow.ActionSubmit), entries[0].Action)
	require.Equal(t, string(workflow.ActionRouteToRAS), entries[1].Action)
	require.Equal(t, models.StatusSubmitted, entries[1].From)
	require.Equal(t, models.StatusUnderRASReview, entries[1].To)
}

func TestSubmitRequiresCriteria(t *testing.T) {
	store := newWorkflowStoreStub()
	svc := newTestEngine(store, nil)
	app := seedApplication(store, models.StatusDraft, models.ApplicantIndividual, "user-1")
	store.criteria[app.ID] = nil

	_, err := svc.Submit(context.Background(), app.ID, applicantActor("user-1"))
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
	require.Contains(t, err.Error(), "eligibility criterion")
}

func TestSubmitRejectsIncompleteForm(t *testing.T) {
	store := newWorkflowStoreStub()
	svc := newTestEngine(store, nil)
	app := seedApplication(store, models.StatusDraft, models.ApplicantIndividual, "user-1")
	app.RoadName = ""
	app.StartingPoint = ""

	_, err := svc.Submit(context.Background(), app.ID, applicantActor("user-1"))
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
	require.Contains(t, err.Error(), "roadName")
	require.Contains(t, err.Error(), "startingPoint")
}

func TestSubmitRequiresRoadDimensions(t *testing.T) {
	store := newWorkflowStoreStub()
	svc := newTestEngine(store, nil)
	app := seedApplication(store, models.StatusDraft, models.ApplicantIndividual, "user-1")
	app.CarriagewayWidth = 0
	app.FormationWidth = 0
	app.RoadReserveWidth = 0

	_, err := svc.Submit(context.Background(), app.ID, applicantActor("user-1"))
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
	require.Contains(t, err.Error(), "carriagewayWidth")
	require.Contains(t, err.Error(), "formationWidth")
	require.Contains(t, err.Error(), "actualRoadReserveWidth")
	require.Equal(t, models.StatusDraft, store.apps[app.ID].Status)
}

func TestSubmitByNonOwnerForbidden(t *testing.T) {
	store := newWorkflowStoreStub()
	svc := newTestEngine(store, nil)
	app := seedApplication(store, models.StatusDraft, models.ApplicantIndividual, "user-1")

	_, err := svc.Submit(context.Background(), app.ID, applicantActor("user-2"))
	require.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestActionIllegalFromStatus(t *testing.T) {
	store := newWorkflowStoreStub()
	svc := newTestEngine(store, nil)
	app := seedApplication(store, models.StatusSubmitted, models.ApplicantIndividual, "user-1")

	actor := models.Actor{UserID: "ras-1", Role: models.RoleRAS}
	_, err := svc.RASApprove(context.Background(), app.ID, dto.WorkflowActionRequest{}, actor)
	require.True(t, appErrors.Is(err, appErrors.ErrInvalidTransition))
}

func TestActionOnTerminalStatus(t *testing.T) {
	store := newWorkflowStoreStub()
	svc := newTestEngine(store, nil)
	app := seedApplication(store, models.StatusGazetted, models.ApplicantIndividual, "user-1")

	actor := models.Actor{UserID: "min-1", Role: models.RoleMinister}
	_, err := svc.ForwardToNRCCChair(context.Background(), app.ID, dto.WorkflowActionRequest{}, actor)
	require.True(t, appErrors.Is(err, appErrors.ErrInvalidTransition))
	require.Contains(t, err.Error(), "terminal")
}

func TestActionByWrongRoleForbidden(t *testing.T) {
	store := newWorkflowStoreStub()
	svc := newTestEngine(store, nil)
	app := seedApplication(store, models.StatusUnderRCReview, models.ApplicantRegionalRoadsBoard, "board-1")

	actor := models.Actor{UserID: "ras-1", Role: models.RoleRAS}
	_, err := svc.RCApprove(context.Background(), app.ID, dto.WorkflowActionRequest{}, actor)
	require.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestConcurrentWriterGetsConflict(t *testing.T) {
	store := newWorkflowStoreStub()
	svc := newTestEngine(store, nil)
	app := seedApplication(store, models.StatusUnderRASReview, models.ApplicantRegionalRoadsBoard, "board-1")
	store.liveStatus[app.ID] = models.StatusReturnedForCorrection

	actor := models.Actor{UserID: "ras-1", Role: models.RoleRAS}
	result, err := svc.RASApprove(context.Background(), app.ID, dto.WorkflowActionRequest{}, actor)
	require.True(t, appErrors.Is(err, appErrors.ErrConflict))
	require.Contains(t, err.Error(), string(models.StatusReturnedForCorrection))
	require.NotNil(t, result)
	require.Equal(t, models.StatusReturnedForCorrection, result.Status)
}

func TestReturnForCorrectionRequiresComments(t *testing.T) {
	store := newWorkflowStoreStub()
	svc := newTestEngine(store, nil)
	app := seedApplication(store, models.StatusUnderRASReview, models.ApplicantRegionalRoadsBoard, "board-1")

	actor := models.Actor{UserID: "ras-1", Role: models.RoleRAS}
	_, err := svc.ReturnForCorrection(context.Background(), app.ID, dto.WorkflowActionRequest{}, actor)
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))

	result, err := svc.ReturnForCorrection(context.Background(), app.ID, dto.WorkflowActionRequest{Comments: "missing road reserve width"}, actor)
	require.NoError(t, err)
	require.Equal(t, models.StatusReturnedForCorrection, result.Status)
}

func TestResubmitAfterReturnKeepsRouteAndNumber(t *testing.T) {
	store := newWorkflowStoreStub()
	svc := newTestEngine(store, nil)
	app := seedApplication(store, models.StatusUnderRCReview, models.ApplicantRegionalRoadsBoard, "board-1")
	number := "NRCC/2026/0007"
	app.ApplicationNumber = &number

	rc := models.Actor{UserID: "rc-1", Role: models.RoleRC}
	returned, err := svc.ReturnForCorrection(context.Background(), app.ID, dto.WorkflowActionRequest{Comments: "formation width missing"}, rc)
	require.NoError(t, err)
	require.Equal(t, models.StatusReturnedForCorrection, returned.Status)

	result, err := svc.Submit(context.Background(), app.ID, boardActor("board-1"))
	require.NoError(t, err)
	require.Equal(t, models.StatusUnderRASReview, result.Status)
	require.Equal(t, models.RoleRAS, result.OwnerRole)
	require.NotNil(t, result.ApplicationNumber)
	require.Equal(t, number, *result.ApplicationNumber)

	entries := store.ledger[app.ID]
	require.Equal(t, string(workflow.ActionReturnForCorrection), entries[0].Action)
	require.Equal(t, string(workflow.ActionSubmit), entries[1].Action)
	require.Equal(t, string(workflow.ActionRouteToRAS), entries[2].Action)
}

func TestAssignVerificationRequiresCommitteeMember(t *testing.T) {
	store := newWorkflowStoreStub()
	users := &userDirectoryStub{users: map[string]*models.User{
		"sec-1": {ID: "sec-1", Role: models.RoleNRCCSecretariat},
	}}
	svc := newTestEngine(store, users)
	app := seedApplication(store, models.StatusWithNRCCChair, models.ApplicantIndividual, "user-1")

	actor := models.Actor{UserID: "chair-1", Role: models.RoleNRCCChairperson}
	_, err := svc.AssignVerification(context.Background(), app.ID, dto.AssignVerificationRequest{MemberID: "sec-1"}, actor)
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestAssignVerificationCreatesAssignment(t *testing.T) {
	store := newWorkflowStoreStub()
	users := &userDirectoryStub{users: map[string]*models.User{
		"member-1": {ID: "member-1", FullName: "Neema Komba", Role: models.RoleNRCCMember},
	}}
	svc := newTestEngine(store, users)
	app := seedApplication(store, models.StatusWithNRCCChair, models.ApplicantIndividual, "user-1")

	actor := models.Actor{UserID: "chair-1", FullName: "Chair", Role: models.RoleNRCCChairperson}
	result, err := svc.AssignVerification(context.Background(), app.ID, dto.AssignVerificationRequest{MemberID: "member-1"}, actor)
	require.NoError(t, err)
	require.Equal(t, models.StatusVerificationInProgress, result.Status)

	require.Len(t, store.assignments, 1)
	for _, a := range store.assignments {
		require.Equal(t, "member-1", a.AssigneeID)
		require.Equal(t, models.VerificationAssigned, a.Status)
		require.False(t, a.DueDate.IsZero())
	}
}

func seedVerification(store *workflowStoreStub, app *models.Application, assigneeID string, status models.VerificationStatus) *models.VerificationAssignment {
	store.nextID++
	a := &models.VerificationAssignment{
		ID:            store.nextID,
		ApplicationID: app.ID,
		AssigneeID:    assigneeID,
		Status:        status,
	}
	store.assignments[a.ID] = a
	return a
}

func TestSubmitVerificationReportAdvancesWhenLast(t *testing.T) {
	store := newWorkflowStoreStub()
	svc := newTestEngine(store, nil)
	app := seedApplication(store, models.StatusVerificationInProgress, models.ApplicantIndividual, "user-1")
	assignment := seedVerification(store, app, "member-1", models.VerificationInProgress)

	actor := models.Actor{UserID: "member-1", Role: models.RoleNRCCMember}
	req := dto.SubmitVerificationReportRequest{
		AssignmentID: assignment.ID,
		VisitDate:    time.Now(),
		Findings:     "road meets regional criteria",
	}
	result, err := svc.SubmitVerificationReport(context.Background(), app.ID, req, actor)
	require.NoError(t, err)
	require.Equal(t, models.StatusNRCCReviewMeeting, result.Status)
	require.Equal(t, models.RoleNRCCChairperson, result.OwnerRole)
	require.Equal(t, models.VerificationCompleted, store.assignments[assignment.ID].Status)

	entries := store.ledger[app.ID]
	require.Len(t, entries, 2)
	require.Equal(t, models.StatusNRCCReviewMeeting, entries[1].To)
}

func TestSubmitVerificationReportHoldsWhileOutstanding(t *testing.T) {
	store := newWorkflowStoreStub()
	svc := newTestEngine(store, nil)
	app := seedApplication(store, models.StatusVerificationInProgress, models.ApplicantIndividual, "user-1")
	first := seedVerification(store, app, "member-1", models.VerificationInProgress)
	seedVerification(store, app, "member-2", models.VerificationAssigned)

	actor := models.Actor{UserID: "member-1", Role: models.RoleNRCCMember}
	req := dto.SubmitVerificationReportRequest{
		AssignmentID: first.ID,
		VisitDate:    time.Now(),
		Findings:     "survey done",
	}
	result, err := svc.SubmitVerificationReport(context.Background(), app.ID, req, actor)
	require.NoError(t, err)
	require.Equal(t, models.StatusVerificationInProgress, result.Status)
}

func TestAssignVerificationRequiresMemberID(t *testing.T) {
	store := newWorkflowStoreStub()
	svc := newTestEngine(store, nil)
	app := seedApplication(store, models.StatusWithNRCCChair, models.ApplicantIndividual, "user-1")

	actor := models.Actor{UserID: "chair-1", Role: models.RoleNRCCChairperson}
	_, err := svc.AssignVerification(context.Background(), app.ID, dto.AssignVerificationRequest{}, actor)
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
	require.Empty(t, store.assignments)
}

func TestSubmitVerificationReportRequiresVisitDate(t *testing.T) {
	store := newWorkflowStoreStub()
	svc := newTestEngine(store, nil)
	app := seedApplication(store, models.StatusVerificationInProgress, models.ApplicantIndividual, "user-1")
	assignment := seedVerification(store, app, "member-1", models.VerificationInProgress)

	actor := models.Actor{UserID: "member-1", Role: models.RoleNRCCMember}
	req := dto.SubmitVerificationReportRequest{
		AssignmentID: assignment.ID,
		Findings:     "survey done",
	}
	_, err := svc.SubmitVerificationReport(context.Background(), app.ID, req, actor)
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
	require.Equal(t, models.VerificationInProgress, store.assignments[assignment.ID].Status)
	require.Empty(t, store.reports)
}

func TestSubmitVerificationReportOnlyAssignee(t *testing.T) {
	store := newWorkflowStoreStub()
	svc := newTestEngine(store, nil)
	app := seedApplication(store, models.StatusVerificationInProgress, models.ApplicantIndividual, "user-1")
	assignment := seedVerification(store, app, "member-1", models.VerificationInProgress)

	actor := models.Actor{UserID: "member-2", Role: models.RoleNRCCMember}
	req := dto.SubmitVerificationReportRequest{AssignmentID: assignment.ID, VisitDate: time.Now(), Findings: "x"}
	_, err := svc.SubmitVerificationReport(context.Background(), app.ID, req, actor)
	require.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestRecordDecisionApproveOpensGazettement(t *testing.T) {
	store := newWorkflowStoreStub()
	svc := newTestEngine(store, nil)
	app := seedApplication(store, models.StatusRecommendationSubmitted, models.ApplicantIndividual, "user-1")

	actor := models.Actor{UserID: "min-1", FullName: "Minister", Role: models.RoleMinister}
	result, err := svc.RecordDecision(context.Background(), app.ID, dto.MinisterDecisionRequest{
		Decision: models.DecisionApprove,
		Reason:   "meets all criteria",
	}, actor)
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, result.Status)
	require.NotNil(t, result.DecisionDate)

	require.NotNil(t, store.decisions[app.ID])
	require.Equal(t, models.DecisionApprove, store.decisions[app.ID].Decision)
	require.NotNil(t, store.gazettes[app.ID])
	require.Equal(t, models.GazettementPending, store.gazettes[app.ID].Status)
}

func TestRecordDecisionDisapproveNeedsType(t *testing.T) {
	store := newWorkflowStoreStub()
	svc := newTestEngine(store, nil)
	app := seedApplication(store, models.StatusRecommendationSubmitted, models.ApplicantIndividual, "user-1")

	actor := models.Actor{UserID: "min-1", Role: models.RoleMinister}
	_, err := svc.RecordDecision(context.Background(), app.ID, dto.MinisterDecisionRequest{
		Decision: models.DecisionDisapprove,
	}, actor)
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))

	result, err := svc.RecordDecision(context.Background(), app.ID, dto.MinisterDecisionRequest{
		Decision:        models.DecisionDisapprove,
		DisapprovalType: models.DisapprovalDesignated,
	}, actor)
	require.NoError(t, err)
	require.Equal(t, models.StatusDisapprovedDesignated, result.Status)
	require.Nil(t, store.gazettes[app.ID])
}

func TestUpdateGazettementPublishes(t *testing.T) {
	store := newWorkflowStoreStub()
	svc := newTestEngine(store, nil)
	app := seedApplication(store, models.StatusApproved, models.ApplicantIndividual, "user-1")
	store.gazettes[app.ID] = &models.Gazettement{ApplicationID: app.ID, Status: models.GazettementPending}

	actor := models.Actor{UserID: "lawyer-1", Role: models.RoleMinistryLawyer}
	result, err := svc.UpdateGazettement(context.Background(), app.ID, dto.UpdateGazettementRequest{
		GazetteNumber: "GN 114",
		GazetteDate:   time.Now(),
	}, actor)
	require.NoError(t, err)
	require.Equal(t, models.StatusGazetted, result.Status)
	require.Equal(t, models.GazettementPublished, store.gazettes[app.ID].Status)
}

func TestSubmitAppealOnlyOnce(t *testing.T) {
	store := newWorkflowStoreStub()
	svc := newTestEngine(store, nil)
	app := seedApplication(store, models.StatusDisapprovedRefused, models.ApplicantIndividual, "user-1")
	now := time.Now().UTC()
	app.DecisionDate = &now

	actor := applicantActor("user-1")
	result, err := svc.SubmitAppeal(context.Background(), app.ID, dto.SubmitAppealRequest{Grounds: "criteria misapplied"}, actor)
	require.NoError(t, err)
	require.Equal(t, models.StatusAppealSubmitted, result.Status)
	require.Equal(t, models.AppealOpen, store.appeals[app.ID].Status)

	app.Status = models.StatusDisapprovedRefused
	_, err = svc.SubmitAppeal(context.Background(), app.ID, dto.SubmitAppealRequest{Grounds: "again"}, actor)
	require.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestSubmitAppealWindowClosed(t *testing.T) {
	store := newWorkflowStoreStub()
	svc := newTestEngine(store, nil)
	app := seedApplication(store, models.StatusDisapprovedRefused, models.ApplicantIndividual, "user-1")
	old := time.Now().UTC().AddDate(0, 0, -30)
	app.DecisionDate = &old

	_, err := svc.SubmitAppeal(context.Background(), app.ID, dto.SubmitAppealRequest{Grounds: "late"}, applicantActor("user-1"))
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
	require.Contains(t, err.Error(), "window")
}

func TestDecideAppealClosesWithOutcome(t *testing.T) {
	store := newWorkflowStoreStub()
	svc := newTestEngine(store, nil)
	app := seedApplication(store, models.StatusAppealUnderReview, models.ApplicantIndividual, "user-1")
	store.appeals[app.ID] = &models.Appeal{ApplicationID: app.ID, Status: models.AppealUnderReview}

	actor := models.Actor{UserID: "min-1", Role: models.RoleMinister}
	_, err := svc.DecideAppeal(context.Background(), app.ID, dto.DecideAppealRequest{Decision: "MAYBE"}, actor)
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))

	result, err := svc.DecideAppeal(context.Background(), app.ID, dto.DecideAppealRequest{Decision: models.AppealUpheld}, actor)
	require.NoError(t, err)
	require.Equal(t, models.StatusAppealClosed, result.Status)
	require.Equal(t, models.AppealClosed, store.appeals[app.ID].Status)
	require.NotNil(t, store.appeals[app.ID].Decision)
	require.Equal(t, models.AppealUpheld, *store.appeals[app.ID].Decision)
}

func TestDeleteDraftOnly(t *testing.T) {
	store := newWorkflowStoreStub()
	svc := newTestEngine(store, nil)
	draft := seedApplication(store, models.StatusDraft, models.ApplicantIndividual, "user-1")
	submitted := seedApplication(store, models.StatusSubmitted, models.ApplicantIndividual, "user-1")

	require.NoError(t, svc.Delete(context.Background(), draft.ID, applicantActor("user-1")))
	err := svc.Delete(context.Background(), submitted.ID, applicantActor("user-1"))
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
