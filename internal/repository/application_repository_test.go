package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/tanroads/rrs-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var applicationColumnList = []string{
	"id", "application_number", "applicant_id", "applicant_type", "status", "owner_role",
	"road_name", "road_length", "current_class", "proposed_class", "starting_point", "terminal_point",
	"reclassification_reasons", "surface_type_carriageway", "surface_type_shoulders",
	"carriageway_width", "formation_width", "road_reserve_width",
	"traffic_level", "traffic_composition", "towns_villages_linked", "principal_nodes",
	"bus_routes", "public_services", "alternative_routes",
	"submission_date", "decision_date", "created_at", "updated_at",
}

func applicationRow(id int64, status models.ApplicationStatus) []driver.Value {
	now := time.Now()
	return []driver.Value{
		id, nil, "applicant-1", "INDIVIDUAL", string(status), "PUBLIC_APPLICANT",
		"Mlandizi - Mzenga", 42.5, "DISTRICT", "REGIONAL", "Mlandizi", "Mzenga",
		"links two district headquarters", "GRAVEL", nil,
		6.5, 9.0, 22.5,
		"MEDIUM", "Mixed traffic", "Mlandizi, Mzenga", nil,
		"Two daily routes", "Health centre, market", nil,
		nil, nil, now, now,
	}
}

func addApplicationRow(rows *sqlmock.Rows, values []driver.Value) *sqlmock.Rows {
	return rows.AddRow(values...)
}

func TestApplicationRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewApplicationRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO applications")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM eligibility_criteria")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO eligibility_criteria")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	app := &models.Application{
		ApplicantID:   "applicant-1",
		ApplicantType: models.ApplicantIndividual,
		Status:        models.StatusDraft,
		OwnerRole:     models.RolePublicApplicant,
		RoadName:      "Mlandizi - Mzenga",
	}
	err := repo.Create(context.Background(), app, []models.EligibilityCriterion{{Code: "CONNECTS_HEADQUARTERS"}})
	require.NoError(t, err)
	require.Equal(t, int64(7), app.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewApplicationRepository(db)
	rows := addApplicationRow(sqlmock.NewRows(applicationColumnList), applicationRow(3, models.StatusSubmitted))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, application_number")).
		WithArgs(int64(3)).
		WillReturnRows(rows)

	app, err := repo.GetByID(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, models.StatusSubmitted, app.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryUpdateDraftStaleStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewApplicationRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE applications SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	app := &models.Application{ID: 3, RoadName: "Renamed"}
	err := repo.UpdateDraft(context.Background(), app, nil)
	require.ErrorIs(t, err, ErrStaleStatus)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryDeleteDraftNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewApplicationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM applications")).
		WithArgs(int64(9), "applicant-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteDraft(context.Background(), 9, "applicant-1")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryTransition(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewApplicationRepository(db)
	mock.ExpectBegin()
	rows := addApplicationRow(sqlmock.NewRows(applicationColumnList), applicationRow(5, models.StatusDraft))
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(5)).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO application_counters")).
		WillReturnRows(sqlmock.NewRows([]string{"last_seq"}).AddRow(int64(12)))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE applications SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO approval_actions")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	app, err := repo.Transition(context.Background(), TransitionParams{
		ApplicationID:     5,
		ExpectedStatus:    models.StatusDraft,
		NewStatus:         models.StatusSubmitted,
		OwnerRole:         models.RoleNRCCSecretariat,
		Actor:             models.Actor{UserID: "user-1", FullName: "Asha Juma", Role: models.RolePublicApplicant},
		Ledger:            []LedgerEntry{{Action: "SUBMIT", From: models.StatusDraft, To: models.StatusSubmitted}},
		SetSubmissionDate: true,
		AssignNumber:      true,
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusSubmitted, app.Status)
	require.NotNil(t, app.ApplicationNumber)
	require.Regexp(t, `^NRCC/\d{4}/0012$`, *app.ApplicationNumber)
	require.NotNil(t, app.SubmissionDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryTransitionStaleStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewApplicationRepository(db)
	mock.ExpectBegin()
	rows := addApplicationRow(sqlmock.NewRows(applicationColumnList), applicationRow(5, models.StatusUnderRASReview))
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(5)).
		WillReturnRows(rows)
	mock.ExpectRollback()

	app, err := repo.Transition(context.Background(), TransitionParams{
		ApplicationID:  5,
		ExpectedStatus: models.StatusSubmitted,
		NewStatus:      models.StatusUnderMinisterReview,
	})
	require.ErrorIs(t, err, ErrStaleStatus)
	// The fresh row comes back so callers can report the current status.
	require.NotNil(t, app)
	require.Equal(t, models.StatusUnderRASReview, app.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryTransitionMutate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewApplicationRepository(db)
	mock.ExpectBegin()
	rows := addApplicationRow(sqlmock.NewRows(applicationColumnList), applicationRow(5, models.StatusWithNRCCChair))
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(5)).
		WillReturnRows(rows)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE applications SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO approval_actions")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO verification_assignments")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	called := false
	_, err := repo.Transition(context.Background(), TransitionParams{
		ApplicationID:  5,
		ExpectedStatus: models.StatusWithNRCCChair,
		NewStatus:      models.StatusVerificationInProgress,
		OwnerRole:      models.RoleNRCCMember,
		Ledger:         []LedgerEntry{{Action: "ASSIGN_VERIFICATION", From: models.StatusWithNRCCChair, To: models.StatusVerificationInProgress}},
		Mutate: func(ctx context.Context, tx *sqlx.Tx, app *models.Application) error {
			called = true
			_, execErr := tx.ExecContext(ctx, "INSERT INTO verification_assignments (application_id) VALUES ($1)", app.ID)
			return execErr
		},
	})
	require.NoError(t, err)
	require.True(t, called)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewApplicationRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM applications")).
		WithArgs("SUBMITTED", "applicant-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	rows := addApplicationRow(sqlmock.NewRows(applicationColumnList), applicationRow(3, models.StatusSubmitted))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, application_number")).
		WithArgs("SUBMITTED", "applicant-1").
		WillReturnRows(rows)

	apps, total, err := repo.List(context.Background(), models.ApplicationFilter{
		Statuses:    []models.ApplicationStatus{models.StatusSubmitted},
		ApplicantID: "applicant-1",
	})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, apps, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
