package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tanroads/rrs-api/internal/models"
)

// ErrStaleStatus is returned when the locked row's status no longer
// matches the status the caller validated against. The losing writer of
// a concurrent pair sees this, never a silent merge.
var ErrStaleStatus = errors.New("application status changed concurrently")

const applicationColumns = `id, application_number, applicant_id, applicant_type, status, owner_role,
	road_name, road_length, current_class, proposed_class, starting_point, terminal_point,
	reclassification_reasons, surface_type_carriageway, surface_type_shoulders,
	carriageway_width, formation_width, road_reserve_width,
	traffic_level, traffic_composition, towns_villages_linked, principal_nodes,
	bus_routes, public_services, alternative_routes,
	submission_date, decision_date, created_at, updated_at`

// ApplicationRepository persists the application aggregate: the root row,
// its child entities and the approval ledger, all scoped to one
// transaction per workflow action.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs the repository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Create inserts a DRAFT application together with its eligibility
// criteria.
func (r *ApplicationRepository) Create(ctx context.Context, app *models.Application, criteria []models.EligibilityCriterion) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create application: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	app.CreatedAt = now
	app.UpdatedAt = now

	const insertQuery = `INSERT INTO applications
	(applicant_id, applicant_type, status, owner_role,
	 road_name, road_length, current_class, proposed_class, starting_point, terminal_point,
	 reclassification_reasons, surface_type_carriageway, surface_type_shoulders,
	 carriageway_width, formation_width, road_reserve_width,
	 traffic_level, traffic_composition, towns_villages_linked, principal_nodes,
	 bus_routes, public_services, alternative_routes, created_at, updated_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25)
	RETURNING id`
	if err = tx.GetContext(ctx, &app.ID, insertQuery,
		app.ApplicantID, app.ApplicantType, app.Status, app.OwnerRole,
		app.RoadName, app.RoadLength, app.CurrentClass, app.ProposedClass, app.StartingPoint, app.TerminalPoint,
		app.ReclassificationReason, app.SurfaceTypeCarriageway, app.SurfaceTypeShoulders,
		app.CarriagewayWidth, app.FormationWidth, app.RoadReserveWidth,
		app.TrafficLevel, app.TrafficComposition, app.TownsVillagesLink, app.PrincipalNodes,
		app.BusRoutes, app.PublicServices, app.AlternativeRoutes, app.CreatedAt, app.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert application: %w", err)
	}

	if err = replaceCriteria(ctx, tx, app.ID, criteria); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create application: %w", err)
	}
	return nil
}

// GetByID fetches the application root row.
func (r *ApplicationRepository) GetByID(ctx context.Context, id int64) (*models.Application, error) {
	query := fmt.Sprintf(`SELECT %s FROM applications WHERE id = $1`, applicationColumns)
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, id); err != nil {
		return nil, err
	}
	return &app, nil
}

// GetByNumber fetches the application by its human-readable number.
func (r *ApplicationRepository) GetByNumber(ctx context.Context, number string) (*models.Application, error) {
	query := fmt.Sprintf(`SELECT %s FROM applications WHERE application_number = $1`, applicationColumns)
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, number); err != nil {
		return nil, err
	}
	return &app, nil
}

// List returns applications matching the filter plus a total count.
func (r *ApplicationRepository) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, int, error) {
	conditions := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.ApplicantType != "" {
		args = append(args, filter.ApplicantType)
		conditions = append(conditions, fmt.Sprintf("applicant_type = $%d", len(args)))
	}
	if filter.ApplicantID != "" {
		args = append(args, filter.ApplicantID)
		conditions = append(conditions, fmt.Sprintf("applicant_id = $%d", len(args)))
	}
	if filter.OwnerRole != "" {
		args = append(args, filter.OwnerRole)
		conditions = append(conditions, fmt.Sprintf("owner_role = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(road_name) LIKE $%d OR LOWER(COALESCE(application_number, '')) LIKE $%d)", len(args), len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM applications"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count applications: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	} else if pageSize > 1000 {
		pageSize = 1000
	}

	query := fmt.Sprintf(`SELECT %s FROM applications%s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		applicationColumns, where, pageSize, (page-1)*pageSize)

	var apps []models.Application
	if err := r.db.SelectContext(ctx, &apps, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}
	return apps, total, nil
}

// UpdateDraft replaces form data and criteria while the application is
// still editable. The guard on status keeps criteria immutable once the
// application leaves DRAFT.
func (r *ApplicationRepository) UpdateDraft(ctx context.Context, app *models.Application, criteria []models.EligibilityCriterion) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update application: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	app.UpdatedAt = time.Now().UTC()
	const query = `UPDATE applications SET
	road_name=$2, road_length=$3, current_class=$4, proposed_class=$5, starting_point=$6, terminal_point=$7,
	reclassification_reasons=$8, surface_type_carriageway=$9, surface_type_shoulders=$10,
	carriageway_width=$11, formation_width=$12, road_reserve_width=$13,
	traffic_level=$14, traffic_composition=$15, towns_villages_linked=$16, principal_nodes=$17,
	bus_routes=$18, public_services=$19, alternative_routes=$20, updated_at=$21
	WHERE id=$1 AND status IN ('DRAFT', 'RETURNED_FOR_CORRECTION')`
	result, err := tx.ExecContext(ctx, query,
		app.ID, app.RoadName, app.RoadLength, app.CurrentClass, app.ProposedClass, app.StartingPoint, app.TerminalPoint,
		app.ReclassificationReason, app.SurfaceTypeCarriageway, app.SurfaceTypeShoulders,
		app.CarriagewayWidth, app.FormationWidth, app.RoadReserveWidth,
		app.TrafficLevel, app.TrafficComposition, app.TownsVillagesLink, app.PrincipalNodes,
		app.BusRoutes, app.PublicServices, app.AlternativeRoutes, app.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check update rows: %w", err)
	}
	if rows == 0 {
		err = ErrStaleStatus
		return err
	}

	if criteria != nil {
		if err = replaceCriteria(ctx, tx, app.ID, criteria); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update application: %w", err)
	}
	return nil
}

// DeleteDraft removes a DRAFT application. Anything past DRAFT is never
// physically deleted.
func (r *ApplicationRepository) DeleteDraft(ctx context.Context, id int64, applicantID string) error {
	const query = `DELETE FROM applications WHERE id = $1 AND applicant_id = $2 AND status = 'DRAFT'`
	result, err := r.db.ExecContext(ctx, query, id, applicantID)
	if err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// LedgerEntry is one ApprovalAction row to append during a transition.
type LedgerEntry struct {
	Action   string
	From     models.ApplicationStatus
	To       models.ApplicationStatus
	Comments *string
}

// TransitionParams groups everything a workflow action writes atomically:
// the status move, the ledger rows and any child-entity mutation.
type TransitionParams struct {
	ApplicationID     int64
	ExpectedStatus    models.ApplicationStatus
	NewStatus         models.ApplicationStatus
	OwnerRole         models.UserRole
	Actor             models.Actor
	Ledger            []LedgerEntry
	SetSubmissionDate bool
	SetDecisionDate   bool
	AssignNumber      bool
	NumberPrefix      string
	// Mutate writes action-specific child entities inside the same
	// transaction. May be nil.
	Mutate func(ctx context.Context, tx *sqlx.Tx, app *models.Application) error
}

// Transition performs one atomic workflow action: lock the aggregate
// row, re-check the status the caller validated against, write the new
// status plus child entities plus ledger rows, commit. A concurrent
// writer that lost the race gets ErrStaleStatus with the fresh row.
func (r *ApplicationRepository) Transition(ctx context.Context, params TransitionParams) (app *models.Application, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transition: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	lockQuery := fmt.Sprintf(`SELECT %s FROM applications WHERE id = $1 FOR UPDATE`, applicationColumns)
	app = &models.Application{}
	if err = tx.GetContext(ctx, app, lockQuery, params.ApplicationID); err != nil {
		return nil, err
	}

	if app.Status != params.ExpectedStatus {
		err = ErrStaleStatus
		return app, err
	}

	now := time.Now().UTC()

	if params.AssignNumber && app.ApplicationNumber == nil {
		var number string
		number, err = nextApplicationNumber(ctx, tx, params.NumberPrefix, now.Year())
		if err != nil {
			return nil, err
		}
		app.ApplicationNumber = &number
	}

	app.Status = params.NewStatus
	app.OwnerRole = params.OwnerRole
	app.UpdatedAt = now
	if params.SetSubmissionDate {
		app.SubmissionDate = &now
	}
	if params.SetDecisionDate {
		app.DecisionDate = &now
	}

	const updateQuery = `UPDATE applications SET
	application_number=$2, status=$3, owner_role=$4, submission_date=$5, decision_date=$6, updated_at=$7
	WHERE id=$1`
	if _, err = tx.ExecContext(ctx, updateQuery,
		app.ID, app.ApplicationNumber, app.Status, app.OwnerRole,
		app.SubmissionDate, app.DecisionDate, app.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("update application status: %w", err)
	}

	const ledgerQuery = `INSERT INTO approval_actions
	(application_id, action, from_status, to_status, actor_id, actor_name, actor_role, comments, action_date)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	for _, entry := range params.Ledger {
		if _, err = tx.ExecContext(ctx, ledgerQuery,
			app.ID, entry.Action, entry.From, entry.To,
			params.Actor.UserID, params.Actor.FullName, params.Actor.Role,
			entry.Comments, now,
		); err != nil {
			return nil, fmt.Errorf("append approval action: %w", err)
		}
	}

	if params.Mutate != nil {
		if err = params.Mutate(ctx, tx, app); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	return app, nil
}

// nextApplicationNumber hands out the next sequence for the year.
// Gap-tolerant (a rolled-back transaction burns nothing here because the
// counter row is locked by the same transaction) and strictly increasing.
func nextApplicationNumber(ctx context.Context, tx *sqlx.Tx, prefix string, year int) (string, error) {
	if prefix == "" {
		prefix = "NRCC"
	}
	const query = `INSERT INTO application_counters (year, last_seq) VALUES ($1, 1)
	ON CONFLICT (year) DO UPDATE SET last_seq = application_counters.last_seq + 1
	RETURNING last_seq`
	var seq int64
	if err := tx.GetContext(ctx, &seq, query, year); err != nil {
		return "", fmt.Errorf("next application number: %w", err)
	}
	return fmt.Sprintf("%s/%d/%04d", prefix, year, seq), nil
}

func replaceCriteria(ctx context.Context, tx *sqlx.Tx, applicationID int64, criteria []models.EligibilityCriterion) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM eligibility_criteria WHERE application_id = $1`, applicationID); err != nil {
		return fmt.Errorf("clear eligibility criteria: %w", err)
	}
	const query = `INSERT INTO eligibility_criteria (application_id, code, details, evidence_description)
	VALUES ($1,$2,$3,$4)`
	for _, c := range criteria {
		if _, err := tx.ExecContext(ctx, query, applicationID, c.Code, c.Details, c.Evidence); err != nil {
			return fmt.Errorf("insert eligibility criterion: %w", err)
		}
	}
	return nil
}

// ImportLegacy inserts one historical application row with its number
// preserved and a single import marker in the ledger.
func (r *ApplicationRepository) ImportLegacy(ctx context.Context, app *models.Application, actor models.Actor) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin legacy import: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	const insertQuery = `INSERT INTO applications
	(application_number, applicant_id, applicant_type, status, owner_role,
	 road_name, road_length, current_class, proposed_class, starting_point, terminal_point,
	 reclassification_reasons, surface_type_carriageway, carriageway_width, formation_width, road_reserve_width,
	 traffic_level, traffic_composition, towns_villages_linked, bus_routes, public_services,
	 submission_date, created_at, updated_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24)
	RETURNING id`
	if err = tx.GetContext(ctx, &app.ID, insertQuery,
		app.ApplicationNumber, app.ApplicantID, app.ApplicantType, app.Status, app.OwnerRole,
		app.RoadName, app.RoadLength, app.CurrentClass, app.ProposedClass, app.StartingPoint, app.TerminalPoint,
		app.ReclassificationReason, app.SurfaceTypeCarriageway, app.CarriagewayWidth, app.FormationWidth, app.RoadReserveWidth,
		app.TrafficLevel, app.TrafficComposition, app.TownsVillagesLink, app.BusRoutes, app.PublicServices,
		app.SubmissionDate, now, now,
	); err != nil {
		return fmt.Errorf("insert legacy application: %w", err)
	}

	const ledgerQuery = `INSERT INTO approval_actions
	(application_id, action, from_status, to_status, actor_id, actor_name, actor_role, comments, action_date)
	VALUES ($1,'LEGACY_IMPORT',$2,$2,$3,$4,$5,NULL,$6)`
	if _, err = tx.ExecContext(ctx, ledgerQuery, app.ID, app.Status, actor.UserID, actor.FullName, actor.Role, now); err != nil {
		return fmt.Errorf("append legacy import marker: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit legacy import: %w", err)
	}
	return nil
}
