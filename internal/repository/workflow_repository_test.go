package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/tanroads/rrs-api/internal/models"
)

func TestApplicationRepositoryHistory(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewApplicationRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "application_id", "action", "from_status", "to_status", "actor_id", "actor_name", "actor_role", "comments", "action_date"}).
		AddRow(int64(1), int64(5), "SUBMIT", "DRAFT", "SUBMITTED", "user-1", "Asha Juma", "PUBLIC_APPLICANT", nil, now).
		AddRow(int64(2), int64(5), "FORWARD_TO_MINISTER", "SUBMITTED", "UNDER_MINISTER_REVIEW", "user-2", "Neema Said", "NRCC_SECRETARIAT", nil, now.Add(time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("FROM approval_actions")).
		WithArgs(int64(5)).
		WillReturnRows(rows)

	history, err := repo.History(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, "SUBMIT", history[0].Action)
	require.Equal(t, "FORWARD_TO_MINISTER", history[1].Action)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryAssignmentsWithReports(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewApplicationRepository(db)
	now := time.Now()
	due := now.Add(7 * 24 * time.Hour)
	assignmentRows := sqlmock.NewRows([]string{"id", "application_id", "assignee_id", "assignee_name", "assigner_id", "assigner_name", "due_date", "visit_date", "instructions", "status", "created_at"}).
		AddRow(int64(11), int64(5), "member-1", "Juma Hassan", "chair-1", "Grace Mushi", due, nil, nil, "COMPLETED", now).
		AddRow(int64(12), int64(5), "member-2", "Neema Said", "chair-1", "Grace Mushi", due, nil, nil, "ASSIGNED", now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM verification_assignments")).
		WithArgs(int64(5)).
		WillReturnRows(assignmentRows)

	reportRows := sqlmock.NewRows([]string{"id", "assignment_id", "findings", "visit_date", "submitted_at"}).
		AddRow(int64(21), int64(11), "Road condition matches the application.", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM verification_reports")).
		WithArgs(int64(11)).
		WillReturnRows(reportRows)
	mock.ExpectQuery(regexp.QuoteMeta("FROM verification_reports")).
		WithArgs(int64(12)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "assignment_id", "findings", "visit_date", "submitted_at"}))

	assignments, err := repo.Assignments(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	require.NotNil(t, assignments[0].Report)
	require.Nil(t, assignments[1].Report)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAssignmentStatusTxStale(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewApplicationRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE verification_assignments SET")).
		WithArgs(int64(11), "ASSIGNED", "IN_PROGRESS").
		WillReturnResult(sqlmock.NewResult(0, 0))

	tx, err := db.Beginx()
	require.NoError(t, err)
	err = repo.UpdateAssignmentStatusTx(context.Background(), tx, 11, models.VerificationAssigned, models.VerificationInProgress)
	require.ErrorIs(t, err, ErrStaleStatus)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAppealTxWithDecision(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewApplicationRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE appeals SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tx, err := db.Beginx()
	require.NoError(t, err)
	decision := models.AppealUpheld
	err = repo.UpdateAppealTx(context.Background(), tx, 5, models.AppealUnderReview, models.AppealClosed, &decision)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOutstandingAssignmentsTx(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewApplicationRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM verification_assignments")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	tx, err := db.Beginx()
	require.NoError(t, err)
	count, err := repo.OutstandingAssignmentsTx(context.Background(), tx, 5)
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.NoError(t, mock.ExpectationsWereMet())
}
