// Package workflow is the authoritative model of the application
// lifecycle: which statuses exist, which actions are legal from each
// status, which role may perform them, and where each action lands.
// Everything here is pure; persistence and side entities live in the
// service and repository layers.
package workflow

import "github.com/tanroads/rrs-api/internal/models"

// Transition is a single allowed edge in the lifecycle state machine.
// To is empty when the target is computed from the action payload
// (minister decisions) or from sub-entity state (verification reports).
type Transition struct {
	From  models.ApplicationStatus
	Event Action
	To    models.ApplicationStatus
	Roles []models.UserRole
}

var applicants = []models.UserRole{
	models.RolePublicApplicant,
	models.RoleMemberOfParliament,
	models.RoleBoardInitiator,
}

var transitionsTable = []Transition{
	// Submission. Board applications are auto-routed into the regional
	// chain in the same transaction (ROUTE_TO_RAS is system-performed);
	// individual/MP applications rest at SUBMITTED until the Secretariat
	// forwards them to the minister.
	{From: models.StatusDraft, Event: ActionSubmit, To: models.StatusSubmitted, Roles: applicants},
	{From: models.StatusReturnedForCorrection, Event: ActionSubmit, To: models.StatusSubmitted, Roles: applicants},
	{From: models.StatusSubmitted, Event: ActionRouteToRAS, To: models.StatusUnderRASReview, Roles: applicants},
	{From: models.StatusSubmitted, Event: ActionForwardToMinister, To: models.StatusUnderMinisterReview, Roles: []models.UserRole{models.RoleNRCCSecretariat}},

	// Regional review chain (Route B only).
	{From: models.StatusUnderRASReview, Event: ActionRASApprove, To: models.StatusUnderRCReview, Roles: []models.UserRole{models.RoleRAS}},
	{From: models.StatusUnderRCReview, Event: ActionRCApprove, To: models.StatusUnderMinisterReview, Roles: []models.UserRole{models.RoleRC}},

	// National stage.
	{From: models.StatusUnderMinisterReview, Event: ActionForwardToNRCCChair, To: models.StatusWithNRCCChair, Roles: []models.UserRole{models.RoleMinister}},
	{From: models.StatusWithNRCCChair, Event: ActionAssignVerification, To: models.StatusVerificationInProgress, Roles: []models.UserRole{models.RoleNRCCChairperson}},
	{From: models.StatusVerificationInProgress, Event: ActionStartVerification, To: models.StatusVerificationInProgress, Roles: []models.UserRole{models.RoleNRCCMember}},
	{From: models.StatusVerificationInProgress, Event: ActionSubmitVerificationReport, Roles: []models.UserRole{models.RoleNRCCMember}},
	{From: models.StatusNRCCReviewMeeting, Event: ActionSubmitRecommendation, To: models.StatusRecommendationSubmitted, Roles: []models.UserRole{models.RoleNRCCChairperson}},
	{From: models.StatusRecommendationSubmitted, Event: ActionRecordDecision, Roles: []models.UserRole{models.RoleMinister}},

	// Gazettement. The gazettement record itself is created implicitly
	// on approval; publication may happen straight from APPROVED or via
	// the staged PENDING_GAZETTEMENT stop.
	{From: models.StatusApproved, Event: ActionStartGazettement, To: models.StatusPendingGazettement, Roles: []models.UserRole{models.RoleMinistryLawyer}},
	{From: models.StatusApproved, Event: ActionUpdateGazettement, To: models.StatusGazetted, Roles: []models.UserRole{models.RoleMinistryLawyer}},
	{From: models.StatusPendingGazettement, Event: ActionUpdateGazettement, To: models.StatusGazetted, Roles: []models.UserRole{models.RoleMinistryLawyer}},

	// Return for correction, legal from every non-terminal reviewing
	// state. A return is a compensating move, not a rollback: history
	// stays intact and resubmission resumes the original route.
	{From: models.StatusUnderRASReview, Event: ActionReturnForCorrection, To: models.StatusReturnedForCorrection, Roles: []models.UserRole{models.RoleRAS}},
	{From: models.StatusUnderRCReview, Event: ActionReturnForCorrection, To: models.StatusReturnedForCorrection, Roles: []models.UserRole{models.RoleRC}},
	{From: models.StatusUnderMinisterReview, Event: ActionReturnForCorrection, To: models.StatusReturnedForCorrection, Roles: []models.UserRole{models.RoleMinister}},
	{From: models.StatusWithNRCCChair, Event: ActionReturnForCorrection, To: models.StatusReturnedForCorrection, Roles: []models.UserRole{models.RoleNRCCChairperson}},
	{From: models.StatusVerificationInProgress, Event: ActionReturnForCorrection, To: models.StatusReturnedForCorrection, Roles: []models.UserRole{models.RoleNRCCChairperson}},

	// Appeal sub-flow: backward entry from either disapproval terminal,
	// at most once per application.
	{From: models.StatusDisapprovedRefused, Event: ActionSubmitAppeal, To: models.StatusAppealSubmitted, Roles: applicants},
	{From: models.StatusDisapprovedDesignated, Event: ActionSubmitAppeal, To: models.StatusAppealSubmitted, Roles: applicants},
	{From: models.StatusAppealSubmitted, Event: ActionReviewAppeal, To: models.StatusAppealUnderReview, Roles: []models.UserRole{models.RoleNRCCSecretariat}},
	{From: models.StatusAppealUnderReview, Event: ActionDecideAppeal, To: models.StatusAppealClosed, Roles: []models.UserRole{models.RoleMinister}},
}

// Lookup returns the transition for the given source status and action.
func Lookup(from models.ApplicationStatus, action Action) (Transition, bool) {
	for _, tr := range transitionsTable {
		if tr.From == from && tr.Event == action {
			return tr, true
		}
	}
	return Transition{}, false
}

// Transitions returns a copy of the full transition table.
func Transitions() []Transition {
	out := make([]Transition, len(transitionsTable))
	copy(out, transitionsTable)
	return out
}

// IsTerminal reports whether no forward workflow action exists from the
// status. Disapproval terminals still accept a single appeal submission;
// that edge lives in the table, terminality here refers to the forward
// approval flow.
func IsTerminal(status models.ApplicationStatus) bool {
	switch status {
	case models.StatusDisapprovedRefused,
		models.StatusDisapprovedDesignated,
		models.StatusGazetted,
		models.StatusAppealClosed:
		return true
	}
	return false
}

// RoutesThroughRegion reports whether the applicant type follows
// Route B (regional review before the minister).
func RoutesThroughRegion(t models.ApplicantType) bool {
	return t == models.ApplicantRegionalRoadsBoard
}

// DecisionTarget resolves the status produced by a minister decision.
func DecisionTarget(decision models.DecisionType, disapproval models.DisapprovalType) (models.ApplicationStatus, bool) {
	switch decision {
	case models.DecisionApprove:
		return models.StatusApproved, true
	case models.DecisionDisapprove:
		switch disapproval {
		case models.DisapprovalRefused:
			return models.StatusDisapprovedRefused, true
		case models.DisapprovalDesignated:
			return models.StatusDisapprovedDesignated, true
		}
	}
	return "", false
}
