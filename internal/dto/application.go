package dto

import (
	"time"

	"github.com/tanroads/rrs-api/internal/models"
)

// EligibilityCriterionRequest carries one criterion with its evidence.
type EligibilityCriterionRequest struct {
	CriterionCode string `json:"criterionCode" validate:"required"`
	Details       string `json:"details"`
	Evidence      string `json:"evidenceDescription"`
}

// CreateApplicationRequest opens a new DRAFT application.
type CreateApplicationRequest struct {
	ApplicantType          models.ApplicantType          `json:"applicantType" validate:"required"`
	RoadName               string                        `json:"roadName" validate:"required"`
	RoadLength             float64                       `json:"roadLength" validate:"gte=0"`
	CurrentClass           models.RoadClass              `json:"currentClass" validate:"required"`
	ProposedClass          models.RoadClass              `json:"proposedClass" validate:"required"`
	StartingPoint          string                        `json:"startingPoint"`
	TerminalPoint          string                        `json:"terminalPoint"`
	ReclassificationReason string                        `json:"reclassificationReasons"`
	SurfaceTypeCarriageway string                        `json:"surfaceTypeCarriageway"`
	SurfaceTypeShoulders   string                        `json:"surfaceTypeShoulders"`
	CarriagewayWidth       float64                       `json:"carriagewayWidth" validate:"gte=0"`
	FormationWidth         float64                       `json:"formationWidth" validate:"gte=0"`
	RoadReserveWidth       float64                       `json:"actualRoadReserveWidth" validate:"gte=0"`
	TrafficLevel           string                        `json:"trafficLevel"`
	TrafficComposition     string                        `json:"trafficComposition"`
	TownsVillagesLinked    string                        `json:"townsVillagesLinked"`
	PrincipalNodes         string                        `json:"principalNodes"`
	BusRoutes              string                        `json:"busRoutes"`
	PublicServices         string                        `json:"publicServices"`
	AlternativeRoutes      string                        `json:"alternativeRoutes"`
	EligibilityCriteria    []EligibilityCriterionRequest `json:"eligibilityCriteria"`
}

// UpdateApplicationRequest edits a DRAFT or returned application. Nil
// fields are left untouched; a non-nil criteria slice replaces the set.
type UpdateApplicationRequest struct {
	RoadName               *string                       `json:"roadName"`
	RoadLength             *float64                      `json:"roadLength"`
	CurrentClass           *models.RoadClass             `json:"currentClass"`
	ProposedClass          *models.RoadClass             `json:"proposedClass"`
	StartingPoint          *string                       `json:"startingPoint"`
	TerminalPoint          *string                       `json:"terminalPoint"`
	ReclassificationReason *string                       `json:"reclassificationReasons"`
	SurfaceTypeCarriageway *string                       `json:"surfaceTypeCarriageway"`
	SurfaceTypeShoulders   *string                       `json:"surfaceTypeShoulders"`
	CarriagewayWidth       *float64                      `json:"carriagewayWidth"`
	FormationWidth         *float64                      `json:"formationWidth"`
	RoadReserveWidth       *float64                      `json:"actualRoadReserveWidth"`
	TrafficLevel           *string                       `json:"trafficLevel"`
	TrafficComposition     *string                       `json:"trafficComposition"`
	TownsVillagesLinked    *string                       `json:"townsVillagesLinked"`
	PrincipalNodes         *string                       `json:"principalNodes"`
	BusRoutes              *string                       `json:"busRoutes"`
	PublicServices         *string                       `json:"publicServices"`
	AlternativeRoutes      *string                       `json:"alternativeRoutes"`
	EligibilityCriteria    []EligibilityCriterionRequest `json:"eligibilityCriteria"`
}

// WorkflowActionRequest is the shared payload of comment-only actions
// (RAS/RC approve, forwards, return for correction, recommendation).
type WorkflowActionRequest struct {
	Comments string `json:"comments"`
}

// AssignVerificationRequest creates a verification assignment. An
// omitted due date defaults to the configured number of days out.
type AssignVerificationRequest struct {
	MemberID     string     `json:"memberId" validate:"required"`
	DueDate      time.Time  `json:"dueDate"`
	VisitDate    *time.Time `json:"visitDate"`
	Instructions string     `json:"instructions"`
}

// StartVerificationRequest marks an assignment as in progress.
type StartVerificationRequest struct {
	AssignmentID int64 `json:"assignmentId" validate:"required"`
}

// SubmitVerificationReportRequest completes an assignment.
type SubmitVerificationReportRequest struct {
	AssignmentID int64     `json:"assignmentId" validate:"required"`
	VisitDate    time.Time `json:"visitDate" validate:"required"`
	Findings     string    `json:"findings" validate:"required"`
}

// MinisterDecisionRequest records the final decision. DisapprovalType is
// required iff the decision is DISAPPROVE.
type MinisterDecisionRequest struct {
	Decision        models.DecisionType    `json:"decision" validate:"required"`
	DisapprovalType models.DisapprovalType `json:"disapprovalType"`
	Reason          string                 `json:"reason"`
}

// UpdateGazettementRequest publishes an approved application.
type UpdateGazettementRequest struct {
	GazetteNumber string    `json:"gazetteNumber" validate:"required"`
	GazetteDate   time.Time `json:"gazetteDate" validate:"required"`
}

// SubmitAppealRequest opens the appeal sub-workflow.
type SubmitAppealRequest struct {
	Grounds string `json:"grounds" validate:"required"`
}

// DecideAppealRequest closes the appeal with an outcome.
type DecideAppealRequest struct {
	Decision models.AppealDecision `json:"decision" validate:"required"`
	Comments string                `json:"comments"`
}

// ApplicationQuery filters list endpoints.
type ApplicationQuery struct {
	Statuses      []models.ApplicationStatus
	ApplicantType models.ApplicantType
	Search        string
	Queue         bool
	Page          int
	PageSize      int
}

// LegacyApplicationImport is one historical record tagged with a status
// name that may predate the current status set.
type LegacyApplicationImport struct {
	ApplicationNumber string               `json:"applicationNumber" validate:"required"`
	ApplicantID       string               `json:"applicantId" validate:"required"`
	ApplicantType     models.ApplicantType `json:"applicantType" validate:"required"`
	Status            string               `json:"status" validate:"required"`
	RoadName          string               `json:"roadName" validate:"required"`
	RoadLength        float64              `json:"roadLength"`
	CurrentClass      models.RoadClass     `json:"currentClass"`
	ProposedClass     models.RoadClass     `json:"proposedClass"`
	SubmissionDate    *time.Time           `json:"submissionDate"`
}

// LegacyImportRequest wraps a batch of historical records.
type LegacyImportRequest struct {
	Applications []LegacyApplicationImport `json:"applications" validate:"required,min=1"`
}

// LegacyImportResult summarises an import batch.
type LegacyImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// ApplicationDetail is the full aggregate view.
type ApplicationDetail struct {
	Application             models.Application              `json:"application"`
	StatusDisplayName       string                          `json:"statusDisplayName"`
	EligibilityCriteria     []models.EligibilityCriterion   `json:"eligibilityCriteria"`
	ApprovalHistory         []models.ApprovalAction         `json:"approvalHistory"`
	VerificationAssignments []models.VerificationAssignment `json:"verificationAssignments"`
	Recommendation          *models.Recommendation          `json:"recommendation,omitempty"`
	MinisterDecision        *models.MinisterDecision        `json:"ministerDecision,omitempty"`
	Gazettement             *models.Gazettement             `json:"gazettement,omitempty"`
	Appeal                  *models.Appeal                  `json:"appeal,omitempty"`
	Enrichment              map[string]string               `json:"enrichment,omitempty"`
}
