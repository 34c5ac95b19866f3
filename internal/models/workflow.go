package models

import "time"

// ApprovalAction is one append-only audit row in the workflow ledger.
// Created exactly once per transition, never mutated or deleted.
type ApprovalAction struct {
	ID            int64             `db:"id" json:"id"`
	ApplicationID int64             `db:"application_id" json:"application_id"`
	Action        string            `db:"action" json:"action"`
	FromStatus    ApplicationStatus `db:"from_status" json:"from_status"`
	ToStatus      ApplicationStatus `db:"to_status" json:"to_status"`
	ActorID       string            `db:"actor_id" json:"actor_id"`
	ActorName     string            `db:"actor_name" json:"actor_name"`
	ActorRole     UserRole          `db:"actor_role" json:"actor_role"`
	Comments      *string           `db:"comments" json:"comments,omitempty"`
	ActionDate    time.Time         `db:"action_date" json:"action_date"`
}

// VerificationStatus tracks a field verification assignment.
type VerificationStatus string

const (
	VerificationAssigned   VerificationStatus = "ASSIGNED"
	VerificationInProgress VerificationStatus = "IN_PROGRESS"
	VerificationCompleted  VerificationStatus = "COMPLETED"
)

// VerificationAssignment is created when an application enters
// VERIFICATION_IN_PROGRESS. Only the assignee may act on it.
type VerificationAssignment struct {
	ID            int64               `db:"id" json:"id"`
	ApplicationID int64               `db:"application_id" json:"application_id"`
	AssigneeID    string              `db:"assignee_id" json:"assignee_id"`
	AssigneeName  string              `db:"assignee_name" json:"assignee_name"`
	AssignerID    string              `db:"assigner_id" json:"assigner_id"`
	AssignerName  string              `db:"assigner_name" json:"assigner_name"`
	DueDate       time.Time           `db:"due_date" json:"due_date"`
	VisitDate     *time.Time          `db:"visit_date" json:"visit_date,omitempty"`
	Instructions  *string             `db:"instructions" json:"instructions,omitempty"`
	Status        VerificationStatus  `db:"status" json:"status"`
	CreatedAt     time.Time           `db:"created_at" json:"created_at"`
	Report        *VerificationReport `db:"-" json:"report,omitempty"`
}

// VerificationReport captures the findings of a completed assignment.
type VerificationReport struct {
	ID           int64     `db:"id" json:"id"`
	AssignmentID int64     `db:"assignment_id" json:"assignment_id"`
	Findings     string    `db:"findings" json:"findings"`
	VisitDate    time.Time `db:"visit_date" json:"visit_date"`
	SubmittedAt  time.Time `db:"submitted_at" json:"submitted_at"`
}

// Recommendation is the NRCC Chair's recommendation to the minister.
type Recommendation struct {
	ID            int64     `db:"id" json:"id"`
	ApplicationID int64     `db:"application_id" json:"application_id"`
	Text          string    `db:"recommendation_text" json:"recommendation_text"`
	SubmittedBy   string    `db:"submitted_by" json:"submitted_by"`
	SubmittedName string    `db:"submitted_by_name" json:"submitted_by_name"`
	SubmittedAt   time.Time `db:"submitted_at" json:"submitted_at"`
}

// DecisionType is the minister's final call.
type DecisionType string

const (
	DecisionApprove    DecisionType = "APPROVE"
	DecisionDisapprove DecisionType = "DISAPPROVE"
)

// DisapprovalType qualifies a disapproving decision.
type DisapprovalType string

const (
	DisapprovalRefused    DisapprovalType = "REFUSED"
	DisapprovalDesignated DisapprovalType = "DESIGNATED"
)

// MinisterDecision is created exactly once, when the application leaves
// RECOMMENDATION_SUBMITTED.
type MinisterDecision struct {
	ID              int64            `db:"id" json:"id"`
	ApplicationID   int64            `db:"application_id" json:"application_id"`
	Decision        DecisionType     `db:"decision" json:"decision"`
	DisapprovalType *DisapprovalType `db:"disapproval_type" json:"disapproval_type,omitempty"`
	Reason          *string          `db:"reason" json:"reason,omitempty"`
	DecidedBy       string           `db:"decided_by" json:"decided_by"`
	DecidedByName   string           `db:"decided_by_name" json:"decided_by_name"`
	DecisionDate    time.Time        `db:"decision_date" json:"decision_date"`
}

// GazettementStatus tracks legal publication progress.
type GazettementStatus string

const (
	GazettementPending   GazettementStatus = "PENDING"
	GazettementPublished GazettementStatus = "PUBLISHED"
)

// Gazettement records official publication of an approved reclassification.
type Gazettement struct {
	ID            int64             `db:"id" json:"id"`
	ApplicationID int64             `db:"application_id" json:"application_id"`
	GazetteNumber *string           `db:"gazette_number" json:"gazette_number,omitempty"`
	GazetteDate   *time.Time        `db:"gazette_date" json:"gazette_date,omitempty"`
	Status        GazettementStatus `db:"status" json:"status"`
	UpdatedBy     *string           `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedByName *string           `db:"updated_by_name" json:"updated_by_name,omitempty"`
	CreatedAt     time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time         `db:"updated_at" json:"updated_at"`
}

// AppealStatus tracks the appeal sub-workflow.
type AppealStatus string

const (
	AppealOpen        AppealStatus = "SUBMITTED"
	AppealUnderReview AppealStatus = "UNDER_REVIEW"
	AppealClosed      AppealStatus = "CLOSED"
)

// AppealDecision records the appeal outcome on the appeal itself; it is
// never re-expressed as another application status.
type AppealDecision string

const (
	AppealUpheld    AppealDecision = "UPHELD"
	AppealDismissed AppealDecision = "DISMISSED"
)

// Appeal is created when an applicant appeals a disapproval. At most one
// per application.
type Appeal struct {
	ID            int64           `db:"id" json:"id"`
	ApplicationID int64           `db:"application_id" json:"application_id"`
	Grounds       string          `db:"grounds" json:"grounds"`
	Status        AppealStatus    `db:"status" json:"status"`
	Decision      *AppealDecision `db:"decision" json:"decision,omitempty"`
	AppealDate    time.Time       `db:"appeal_date" json:"appeal_date"`
	DecisionDate  *time.Time      `db:"decision_date" json:"decision_date,omitempty"`
}
