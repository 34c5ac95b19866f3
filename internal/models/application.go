package models

import "time"

// ApplicationStatus enumerates the workflow states of an application.
type ApplicationStatus string

const (
	StatusDraft                   ApplicationStatus = "DRAFT"
	StatusSubmitted               ApplicationStatus = "SUBMITTED"
	StatusReturnedForCorrection   ApplicationStatus = "RETURNED_FOR_CORRECTION"
	StatusUnderRASReview          ApplicationStatus = "UNDER_RAS_REVIEW"
	StatusUnderRCReview           ApplicationStatus = "UNDER_RC_REVIEW"
	StatusUnderMinisterReview     ApplicationStatus = "UNDER_MINISTER_REVIEW"
	StatusWithNRCCChair           ApplicationStatus = "WITH_NRCC_CHAIR"
	StatusVerificationInProgress  ApplicationStatus = "VERIFICATION_IN_PROGRESS"
	StatusNRCCReviewMeeting       ApplicationStatus = "NRCC_REVIEW_MEETING"
	StatusRecommendationSubmitted ApplicationStatus = "RECOMMENDATION_SUBMITTED"
	StatusApproved                ApplicationStatus = "APPROVED"
	StatusDisapprovedRefused      ApplicationStatus = "DISAPPROVED_REFUSED"
	StatusDisapprovedDesignated   ApplicationStatus = "DISAPPROVED_DESIGNATED"
	StatusPendingGazettement      ApplicationStatus = "PENDING_GAZETTEMENT"
	StatusGazetted                ApplicationStatus = "GAZETTED"
	StatusAppealSubmitted         ApplicationStatus = "APPEAL_SUBMITTED"
	StatusAppealUnderReview       ApplicationStatus = "APPEAL_UNDER_REVIEW"
	StatusAppealClosed            ApplicationStatus = "APPEAL_CLOSED"
)

// AllStatuses lists every legal status value. Nothing outside this set
// is ever persisted.
var AllStatuses = []ApplicationStatus{
	StatusDraft, StatusSubmitted, StatusReturnedForCorrection,
	StatusUnderRASReview, StatusUnderRCReview, StatusUnderMinisterReview,
	StatusWithNRCCChair, StatusVerificationInProgress, StatusNRCCReviewMeeting,
	StatusRecommendationSubmitted, StatusApproved,
	StatusDisapprovedRefused, StatusDisapprovedDesignated,
	StatusPendingGazettement, StatusGazetted,
	StatusAppealSubmitted, StatusAppealUnderReview, StatusAppealClosed,
}

// StatusLabels maps statuses to their display names.
var StatusLabels = map[ApplicationStatus]string{
	StatusDraft:                   "Draft",
	StatusSubmitted:               "Submitted",
	StatusReturnedForCorrection:   "Returned for Correction",
	StatusUnderRASReview:          "Under RAS Review",
	StatusUnderRCReview:           "Under RC Review",
	StatusUnderMinisterReview:     "Under Minister Review",
	StatusWithNRCCChair:           "With NRCC Chair",
	StatusVerificationInProgress:  "Verification in Progress",
	StatusNRCCReviewMeeting:       "NRCC Review Meeting",
	StatusRecommendationSubmitted: "Recommendation Submitted",
	StatusApproved:                "Approved",
	StatusDisapprovedRefused:      "Disapproved - Refused",
	StatusDisapprovedDesignated:   "Disapproved - Designated",
	StatusPendingGazettement:      "Pending Gazettement",
	StatusGazetted:                "Gazetted",
	StatusAppealSubmitted:         "Appeal Submitted",
	StatusAppealUnderReview:       "Appeal Under Review",
	StatusAppealClosed:            "Appeal Closed",
}

// IsValidStatus reports whether the value is a member of the status set.
func IsValidStatus(s ApplicationStatus) bool {
	_, ok := StatusLabels[s]
	return ok
}

// ApplicantType enumerates who lodged the application. It fixes the
// review route at submission time.
type ApplicantType string

const (
	ApplicantIndividual         ApplicantType = "INDIVIDUAL"
	ApplicantGroup              ApplicantType = "GROUP"
	ApplicantMemberOfParliament ApplicantType = "MEMBER_OF_PARLIAMENT"
	ApplicantRegionalRoadsBoard ApplicantType = "REGIONAL_ROADS_BOARD"
)

// IsValidApplicantType reports whether the value is a known applicant type.
func IsValidApplicantType(t ApplicantType) bool {
	switch t {
	case ApplicantIndividual, ApplicantGroup, ApplicantMemberOfParliament, ApplicantRegionalRoadsBoard:
		return true
	}
	return false
}

// RoadClass enumerates legal road classifications.
type RoadClass string

const (
	RoadClassDistrict RoadClass = "DISTRICT"
	RoadClassRegional RoadClass = "REGIONAL"
	RoadClassTrunk    RoadClass = "TRUNK"
)

// IsValidRoadClass reports whether the value is a known road class.
func IsValidRoadClass(c RoadClass) bool {
	switch c {
	case RoadClassDistrict, RoadClassRegional, RoadClassTrunk:
		return true
	}
	return false
}

// Application is the aggregate root of the reclassification workflow.
// Status is only ever mutated through workflow transitions; OwnerRole is
// derived from status, never set independently.
type Application struct {
	ID                int64             `db:"id" json:"id"`
	ApplicationNumber *string           `db:"application_number" json:"application_number,omitempty"`
	ApplicantID       string            `db:"applicant_id" json:"applicant_id"`
	ApplicantType     ApplicantType     `db:"applicant_type" json:"applicant_type"`
	Status            ApplicationStatus `db:"status" json:"status"`
	OwnerRole         UserRole          `db:"owner_role" json:"owner_role"`

	RoadName               string    `db:"road_name" json:"road_name"`
	RoadLength             float64   `db:"road_length" json:"road_length"`
	CurrentClass           RoadClass `db:"current_class" json:"current_class"`
	ProposedClass          RoadClass `db:"proposed_class" json:"proposed_class"`
	StartingPoint          string    `db:"starting_point" json:"starting_point"`
	TerminalPoint          string    `db:"terminal_point" json:"terminal_point"`
	ReclassificationReason string    `db:"reclassification_reasons" json:"reclassification_reasons"`

	SurfaceTypeCarriageway string  `db:"surface_type_carriageway" json:"surface_type_carriageway"`
	SurfaceTypeShoulders   *string `db:"surface_type_shoulders" json:"surface_type_shoulders,omitempty"`
	CarriagewayWidth       float64 `db:"carriageway_width" json:"carriageway_width"`
	FormationWidth         float64 `db:"formation_width" json:"formation_width"`
	RoadReserveWidth       float64 `db:"road_reserve_width" json:"road_reserve_width"`

	TrafficLevel       string  `db:"traffic_level" json:"traffic_level"`
	TrafficComposition string  `db:"traffic_composition" json:"traffic_composition"`
	TownsVillagesLink  string  `db:"towns_villages_linked" json:"towns_villages_linked"`
	PrincipalNodes     *string `db:"principal_nodes" json:"principal_nodes,omitempty"`
	BusRoutes          string  `db:"bus_routes" json:"bus_routes"`
	PublicServices     string  `db:"public_services" json:"public_services"`
	AlternativeRoutes  *string `db:"alternative_routes" json:"alternative_routes,omitempty"`

	SubmissionDate *time.Time `db:"submission_date" json:"submission_date,omitempty"`
	DecisionDate   *time.Time `db:"decision_date" json:"decision_date,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// Editable reports whether the applicant may still modify form data.
func (a *Application) Editable() bool {
	return a.Status == StatusDraft || a.Status == StatusReturnedForCorrection
}

// EligibilityCriterion is a child of Application, immutable once the
// application leaves DRAFT.
type EligibilityCriterion struct {
	ID            int64   `db:"id" json:"id"`
	ApplicationID int64   `db:"application_id" json:"application_id"`
	Code          string  `db:"code" json:"code"`
	Details       *string `db:"details" json:"details,omitempty"`
	Evidence      *string `db:"evidence_description" json:"evidence_description,omitempty"`
}

// ApplicationFilter constrains application listing queries.
type ApplicationFilter struct {
	Statuses      []ApplicationStatus
	ApplicantType ApplicantType
	ApplicantID   string
	OwnerRole     UserRole
	Search        string
	Page          int
	PageSize      int
}
