package workflow

import "github.com/tanroads/rrs-api/internal/models"

// CanPerform resolves whether a role may perform an action on an
// application in the given status. Pure function of the static
// transition table; ownership checks (the acting applicant owns the
// application, the acting member holds the assignment) are enforced by
// the engine on top of this.
func CanPerform(role models.UserRole, action Action, status models.ApplicationStatus) bool {
	tr, ok := Lookup(status, action)
	if !ok {
		return false
	}
	for _, r := range tr.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// RolesFor returns every role authorized for the action from the status.
func RolesFor(action Action, status models.ApplicationStatus) []models.UserRole {
	tr, ok := Lookup(status, action)
	if !ok {
		return nil
	}
	out := make([]models.UserRole, len(tr.Roles))
	copy(out, tr.Roles)
	return out
}

// ApplicantRole maps an applicant type to the role that lodges it.
func ApplicantRole(t models.ApplicantType) models.UserRole {
	switch t {
	case models.ApplicantMemberOfParliament:
		return models.RoleMemberOfParliament
	case models.ApplicantRegionalRoadsBoard:
		return models.RoleBoardInitiator
	default:
		return models.RolePublicApplicant
	}
}

// OwnerRole derives the role responsible for the next action from the
// current status. Stored on the application for queue views but always
// recomputed here, never independently settable.
func OwnerRole(status models.ApplicationStatus, applicantType models.ApplicantType) models.UserRole {
	switch status {
	case models.StatusDraft, models.StatusReturnedForCorrection,
		models.StatusDisapprovedRefused, models.StatusDisapprovedDesignated,
		models.StatusGazetted, models.StatusAppealClosed:
		return ApplicantRole(applicantType)
	case models.StatusSubmitted:
		if RoutesThroughRegion(applicantType) {
			return models.RoleRAS
		}
		return models.RoleNRCCSecretariat
	case models.StatusUnderRASReview:
		return models.RoleRAS
	case models.StatusUnderRCReview:
		return models.RoleRC
	case models.StatusUnderMinisterReview, models.StatusRecommendationSubmitted, models.StatusAppealUnderReview:
		return models.RoleMinister
	case models.StatusWithNRCCChair, models.StatusNRCCReviewMeeting:
		return models.RoleNRCCChairperson
	case models.StatusVerificationInProgress:
		return models.RoleNRCCMember
	case models.StatusApproved, models.StatusPendingGazettement:
		return models.RoleMinistryLawyer
	case models.StatusAppealSubmitted:
		return models.RoleNRCCSecretariat
	}
	return ApplicantRole(applicantType)
}
