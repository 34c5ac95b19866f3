package workflow

// Action identifies a workflow transition requested by an actor. Action
// names are what the approval ledger records.
type Action string

const (
	ActionSubmit                   Action = "SUBMIT"
	ActionRouteToRAS               Action = "ROUTE_TO_RAS"
	ActionForwardToMinister        Action = "FORWARD_TO_MINISTER"
	ActionRASApprove               Action = "RAS_APPROVE"
	ActionRCApprove                Action = "RC_APPROVE"
	ActionForwardToNRCCChair       Action = "FORWARD_TO_NRCC_CHAIR"
	ActionAssignVerification       Action = "ASSIGN_VERIFICATION"
	ActionStartVerification        Action = "START_VERIFICATION"
	ActionSubmitVerificationReport Action = "SUBMIT_VERIFICATION_REPORT"
	ActionSubmitRecommendation     Action = "SUBMIT_RECOMMENDATION"
	ActionRecordDecision           Action = "RECORD_DECISION"
	ActionStartGazettement         Action = "START_GAZETTEMENT"
	ActionUpdateGazettement        Action = "UPDATE_GAZETTEMENT"
	ActionReturnForCorrection      Action = "RETURN_FOR_CORRECTION"
	ActionSubmitAppeal             Action = "SUBMIT_APPEAL"
	ActionReviewAppeal             Action = "REVIEW_APPEAL"
	ActionDecideAppeal             Action = "DECIDE_APPEAL"
)
