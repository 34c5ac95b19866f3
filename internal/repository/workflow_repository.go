package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tanroads/rrs-api/internal/models"
)

// Child-entity reads and the transaction-scoped writers used inside
// ApplicationRepository.Transition mutate callbacks.

// History returns the approval ledger ordered oldest first.
func (r *ApplicationRepository) History(ctx context.Context, applicationID int64) ([]models.ApprovalAction, error) {
	const query = `SELECT id, application_id, action, from_status, to_status, actor_id, actor_name, actor_role, comments, action_date
	FROM approval_actions WHERE application_id = $1 ORDER BY action_date ASC, id ASC`
	var actions []models.ApprovalAction
	if err := r.db.SelectContext(ctx, &actions, query, applicationID); err != nil {
		return nil, fmt.Errorf("load approval history: %w", err)
	}
	return actions, nil
}

// Criteria returns the eligibility criteria of an application.
func (r *ApplicationRepository) Criteria(ctx context.Context, applicationID int64) ([]models.EligibilityCriterion, error) {
	const query = `SELECT id, application_id, code, details, evidence_description
	FROM eligibility_criteria WHERE application_id = $1 ORDER BY id ASC`
	var criteria []models.EligibilityCriterion
	if err := r.db.SelectContext(ctx, &criteria, query, applicationID); err != nil {
		return nil, fmt.Errorf("load eligibility criteria: %w", err)
	}
	return criteria, nil
}

// Assignments returns verification assignments with their reports.
func (r *ApplicationRepository) Assignments(ctx context.Context, applicationID int64) ([]models.VerificationAssignment, error) {
	const query = `SELECT id, application_id, assignee_id, assignee_name, assigner_id, assigner_name,
	due_date, visit_date, instructions, status, created_at
	FROM verification_assignments WHERE application_id = $1 ORDER BY created_at ASC`
	var assignments []models.VerificationAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, applicationID); err != nil {
		return nil, fmt.Errorf("load verification assignments: %w", err)
	}

	const reportQuery = `SELECT id, assignment_id, findings, visit_date, submitted_at
	FROM verification_reports WHERE assignment_id = $1`
	for i := range assignments {
		var report models.VerificationReport
		err := r.db.GetContext(ctx, &report, reportQuery, assignments[i].ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, fmt.Errorf("load verification report: %w", err)
		}
		assignments[i].Report = &report
	}
	return assignments, nil
}

// AssignmentByID fetches a single verification assignment.
func (r *ApplicationRepository) AssignmentByID(ctx context.Context, id int64) (*models.VerificationAssignment, error) {
	const query = `SELECT id, application_id, assignee_id, assignee_name, assigner_id, assigner_name,
	due_date, visit_date, instructions, status, created_at
	FROM verification_assignments WHERE id = $1`
	var assignment models.VerificationAssignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// RecommendationFor returns the chair's recommendation when present.
func (r *ApplicationRepository) RecommendationFor(ctx context.Context, applicationID int64) (*models.Recommendation, error) {
	const query = `SELECT id, application_id, recommendation_text, submitted_by, submitted_by_name, submitted_at
	FROM recommendations WHERE application_id = $1`
	var rec models.Recommendation
	if err := r.db.GetContext(ctx, &rec, query, applicationID); err != nil {
		return nil, err
	}
	return &rec, nil
}

// DecisionFor returns the minister decision when present.
func (r *ApplicationRepository) DecisionFor(ctx context.Context, applicationID int64) (*models.MinisterDecision, error) {
	const query = `SELECT id, application_id, decision, disapproval_type, reason, decided_by, decided_by_name, decision_date
	FROM minister_decisions WHERE application_id = $1`
	var decision models.MinisterDecision
	if err := r.db.GetContext(ctx, &decision, query, applicationID); err != nil {
		return nil, err
	}
	return &decision, nil
}

// GazettementFor returns the gazettement record when present.
func (r *ApplicationRepository) GazettementFor(ctx context.Context, applicationID int64) (*models.Gazettement, error) {
	const query = `SELECT id, application_id, gazette_number, gazette_date, status, updated_by, updated_by_name, created_at, updated_at
	FROM gazettements WHERE application_id = $1`
	var gaz models.Gazettement
	if err := r.db.GetContext(ctx, &gaz, query, applicationID); err != nil {
		return nil, err
	}
	return &gaz, nil
}

// AppealFor returns the appeal when present.
func (r *ApplicationRepository) AppealFor(ctx context.Context, applicationID int64) (*models.Appeal, error) {
	const query = `SELECT id, application_id, grounds, status, decision, appeal_date, decision_date
	FROM appeals WHERE application_id = $1`
	var appeal models.Appeal
	if err := r.db.GetContext(ctx, &appeal, query, applicationID); err != nil {
		return nil, err
	}
	return &appeal, nil
}

// UpdateStatusTx rewrites status and owner inside an open transaction.
// Used for the system-performed advance when the last verification
// report lands.
func (r *ApplicationRepository) UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, applicationID int64, status models.ApplicationStatus, owner models.UserRole) error {
	const query = `UPDATE applications SET status=$2, owner_role=$3, updated_at=$4 WHERE id=$1`
	if _, err := tx.ExecContext(ctx, query, applicationID, status, owner, time.Now().UTC()); err != nil {
		return fmt.Errorf("update application status: %w", err)
	}
	return nil
}

// AppendLedgerTx appends one approval action inside an open transaction.
func (r *ApplicationRepository) AppendLedgerTx(ctx context.Context, tx *sqlx.Tx, applicationID int64, entry LedgerEntry, actor models.Actor) error {
	const query = `INSERT INTO approval_actions
	(application_id, action, from_status, to_status, actor_id, actor_name, actor_role, comments, action_date)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	if _, err := tx.ExecContext(ctx, query,
		applicationID, entry.Action, entry.From, entry.To,
		actor.UserID, actor.FullName, actor.Role, entry.Comments, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("append approval action: %w", err)
	}
	return nil
}

// InsertAssignmentTx creates a verification assignment inside the
// transition transaction.
func (r *ApplicationRepository) InsertAssignmentTx(ctx context.Context, tx *sqlx.Tx, assignment *models.VerificationAssignment) error {
	assignment.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO verification_assignments
	(application_id, assignee_id, assignee_name, assigner_id, assigner_name, due_date, visit_date, instructions, status, created_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING id`
	if err := tx.GetContext(ctx, &assignment.ID, query,
		assignment.ApplicationID, assignment.AssigneeID, assignment.AssigneeName,
		assignment.AssignerID, assignment.AssignerName,
		assignment.DueDate, assignment.VisitDate, assignment.Instructions,
		assignment.Status, assignment.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert verification assignment: %w", err)
	}
	return nil
}

// UpdateAssignmentStatusTx moves an assignment between its states while
// it still belongs to the acting member.
func (r *ApplicationRepository) UpdateAssignmentStatusTx(ctx context.Context, tx *sqlx.Tx, id int64, from, to models.VerificationStatus) error {
	const query = `UPDATE verification_assignments SET status = $3 WHERE id = $1 AND status = $2`
	result, err := tx.ExecContext(ctx, query, id, from, to)
	if err != nil {
		return fmt.Errorf("update assignment status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check assignment update: %w", err)
	}
	if rows == 0 {
		return ErrStaleStatus
	}
	return nil
}

// InsertReportTx stores a verification report for a completed assignment.
func (r *ApplicationRepository) InsertReportTx(ctx context.Context, tx *sqlx.Tx, report *models.VerificationReport) error {
	report.SubmittedAt = time.Now().UTC()
	const query = `INSERT INTO verification_reports (assignment_id, findings, visit_date, submitted_at)
	VALUES ($1,$2,$3,$4) RETURNING id`
	if err := tx.GetContext(ctx, &report.ID, query,
		report.AssignmentID, report.Findings, report.VisitDate, report.SubmittedAt,
	); err != nil {
		return fmt.Errorf("insert verification report: %w", err)
	}
	return nil
}

// OutstandingAssignmentsTx counts non-completed assignments under the
// row lock, so report submission can decide whether the parent advances.
func (r *ApplicationRepository) OutstandingAssignmentsTx(ctx context.Context, tx *sqlx.Tx, applicationID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM verification_assignments
	WHERE application_id = $1 AND status <> 'COMPLETED'`
	var count int
	if err := tx.GetContext(ctx, &count, query, applicationID); err != nil {
		return 0, fmt.Errorf("count outstanding assignments: %w", err)
	}
	return count, nil
}

// CompletedReportsTx counts submitted reports for the application.
func (r *ApplicationRepository) CompletedReportsTx(ctx context.Context, tx *sqlx.Tx, applicationID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM verification_reports vr
	JOIN verification_assignments va ON va.id = vr.assignment_id
	WHERE va.application_id = $1`
	var count int
	if err := tx.GetContext(ctx, &count, query, applicationID); err != nil {
		return 0, fmt.Errorf("count completed reports: %w", err)
	}
	return count, nil
}

// InsertRecommendationTx stores the chair's recommendation.
func (r *ApplicationRepository) InsertRecommendationTx(ctx context.Context, tx *sqlx.Tx, rec *models.Recommendation) error {
	rec.SubmittedAt = time.Now().UTC()
	const query = `INSERT INTO recommendations (application_id, recommendation_text, submitted_by, submitted_by_name, submitted_at)
	VALUES ($1,$2,$3,$4,$5) RETURNING id`
	if err := tx.GetContext(ctx, &rec.ID, query,
		rec.ApplicationID, rec.Text, rec.SubmittedBy, rec.SubmittedName, rec.SubmittedAt,
	); err != nil {
		return fmt.Errorf("insert recommendation: %w", err)
	}
	return nil
}

// InsertDecisionTx stores the minister decision, created exactly once.
func (r *ApplicationRepository) InsertDecisionTx(ctx context.Context, tx *sqlx.Tx, decision *models.MinisterDecision) error {
	decision.DecisionDate = time.Now().UTC()
	const query = `INSERT INTO minister_decisions
	(application_id, decision, disapproval_type, reason, decided_by, decided_by_name, decision_date)
	VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`
	if err := tx.GetContext(ctx, &decision.ID, query,
		decision.ApplicationID, decision.Decision, decision.DisapprovalType, decision.Reason,
		decision.DecidedBy, decision.DecidedByName, decision.DecisionDate,
	); err != nil {
		return fmt.Errorf("insert minister decision: %w", err)
	}
	return nil
}

// InsertGazettementTx creates the pending gazettement record implied by
// an approval.
func (r *ApplicationRepository) InsertGazettementTx(ctx context.Context, tx *sqlx.Tx, gaz *models.Gazettement) error {
	now := time.Now().UTC()
	gaz.CreatedAt = now
	gaz.UpdatedAt = now
	const query = `INSERT INTO gazettements (application_id, status, created_at, updated_at)
	VALUES ($1,$2,$3,$4) RETURNING id`
	if err := tx.GetContext(ctx, &gaz.ID, query, gaz.ApplicationID, gaz.Status, gaz.CreatedAt, gaz.UpdatedAt); err != nil {
		return fmt.Errorf("insert gazettement: %w", err)
	}
	return nil
}

// UpdateGazettementTx records the gazette number and date on publication.
func (r *ApplicationRepository) UpdateGazettementTx(ctx context.Context, tx *sqlx.Tx, applicationID int64, number string, date time.Time, actor models.Actor) error {
	const query = `UPDATE gazettements SET gazette_number=$2, gazette_date=$3, status='PUBLISHED',
	updated_by=$4, updated_by_name=$5, updated_at=$6 WHERE application_id=$1`
	result, err := tx.ExecContext(ctx, query, applicationID, number, date, actor.UserID, actor.FullName, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update gazettement: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check gazettement update: %w", err)
	}
	if rows == 0 {
		return ErrStaleStatus
	}
	return nil
}

// InsertAppealTx opens the appeal; the unique index on application_id
// backs the at-most-once rule.
func (r *ApplicationRepository) InsertAppealTx(ctx context.Context, tx *sqlx.Tx, appeal *models.Appeal) error {
	appeal.AppealDate = time.Now().UTC()
	const query = `INSERT INTO appeals (application_id, grounds, status, appeal_date)
	VALUES ($1,$2,$3,$4) RETURNING id`
	if err := tx.GetContext(ctx, &appeal.ID, query,
		appeal.ApplicationID, appeal.Grounds, appeal.Status, appeal.AppealDate,
	); err != nil {
		return fmt.Errorf("insert appeal: %w", err)
	}
	return nil
}

// UpdateAppealTx moves the appeal through its review states, optionally
// recording the outcome.
func (r *ApplicationRepository) UpdateAppealTx(ctx context.Context, tx *sqlx.Tx, applicationID int64, from, to models.AppealStatus, decision *models.AppealDecision) error {
	var (
		query  string
		result interface{ RowsAffected() (int64, error) }
		err    error
	)
	if decision != nil {
		query = `UPDATE appeals SET status=$3, decision=$4, decision_date=$5 WHERE application_id=$1 AND status=$2`
		result, err = tx.ExecContext(ctx, query, applicationID, from, to, *decision, time.Now().UTC())
	} else {
		query = `UPDATE appeals SET status=$3 WHERE application_id=$1 AND status=$2`
		result, err = tx.ExecContext(ctx, query, applicationID, from, to)
	}
	if err != nil {
		return fmt.Errorf("update appeal: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check appeal update: %w", err)
	}
	if rows == 0 {
		return ErrStaleStatus
	}
	return nil
}
