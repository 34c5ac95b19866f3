package workflow

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tanroads/rrs-api/internal/models"
)

func TestLookupKnownEdges(t *testing.T) {
	tr, ok := Lookup(models.StatusDraft, ActionSubmit)
	require.True(t, ok)
	require.Equal(t, models.StatusSubmitted, tr.To)

	tr, ok = Lookup(models.StatusUnderRASReview, ActionRASApprove)
	require.True(t, ok)
	require.Equal(t, models.StatusUnderRCReview, tr.To)

	_, ok = Lookup(models.StatusGazetted, ActionSubmit)
	require.False(t, ok)
}

func TestEveryTransitionSourceIsDeclaredStatus(t *testing.T) {
	for _, tr := range Transitions() {
		require.True(t, models.IsValidStatus(tr.From), "from status %s", tr.From)
		if tr.To != "" {
			require.True(t, models.IsValidStatus(tr.To), "to status %s", tr.To)
		}
		require.NotEmpty(t, tr.Roles, "transition %s/%s has no authorized role", tr.From, tr.Event)
	}
}

func TestNonTerminalStatusesHaveOutgoingEdges(t *testing.T) {
	for _, status := range models.AllStatuses {
		if IsTerminal(status) {
			continue
		}
		var found bool
		for _, tr := range Transitions() {
			if tr.From == status {
				found = true
				break
			}
		}
		require.True(t, found, "non-terminal status %s has no outgoing action", status)
	}
}

func TestTerminalStatusesOnlyAllowAppealSubmission(t *testing.T) {
	for _, status := range models.AllStatuses {
		if !IsTerminal(status) {
			continue
		}
		for _, tr := range Transitions() {
			if tr.From != status {
				continue
			}
			require.Equal(t, ActionSubmitAppeal, tr.Event,
				"terminal %s allows %s", status, tr.Event)
		}
	}
}

func TestDecisionTarget(t *testing.T) {
	to, ok := DecisionTarget(models.DecisionApprove, "")
	require.True(t, ok)
	require.Equal(t, models.StatusApproved, to)

	to, ok = DecisionTarget(models.DecisionDisapprove, models.DisapprovalRefused)
	require.True(t, ok)
	require.Equal(t, models.StatusDisapprovedRefused, to)

	to, ok = DecisionTarget(models.DecisionDisapprove, models.DisapprovalDesignated)
	require.True(t, ok)
	require.Equal(t, models.StatusDisapprovedDesignated, to)

	_, ok = DecisionTarget(models.DecisionDisapprove, "")
	require.False(t, ok)
}

func TestCanPerformRoleGates(t *testing.T) {
	require.True(t, CanPerform(models.RoleRAS, ActionRASApprove, models.StatusUnderRASReview))
	require.False(t, CanPerform(models.RoleRC, ActionRASApprove, models.StatusUnderRASReview))
	require.False(t, CanPerform(models.RoleRAS, ActionRASApprove, models.StatusUnderRCReview))

	// Return-for-correction is role-gated per reviewing state.
	require.True(t, CanPerform(models.RoleRC, ActionReturnForCorrection, models.StatusUnderRCReview))
	require.False(t, CanPerform(models.RoleRAS, ActionReturnForCorrection, models.StatusUnderRCReview))

	// Appeals start with the applicant, not the reviewers.
	require.True(t, CanPerform(models.RolePublicApplicant, ActionSubmitAppeal, models.StatusDisapprovedRefused))
	require.False(t, CanPerform(models.RoleMinister, ActionSubmitAppeal, models.StatusDisapprovedRefused))
}

func TestOwnerRoleDerivation(t *testing.T) {
	require.Equal(t, models.RolePublicApplicant, OwnerRole(models.StatusDraft, models.ApplicantIndividual))
	require.Equal(t, models.RoleBoardInitiator, OwnerRole(models.StatusDraft, models.ApplicantRegionalRoadsBoard))
	require.Equal(t, models.RoleNRCCSecretariat, OwnerRole(models.StatusSubmitted, models.ApplicantIndividual))
	require.Equal(t, models.RoleRAS, OwnerRole(models.StatusSubmitted, models.ApplicantRegionalRoadsBoard))
	require.Equal(t, models.RoleMinister, OwnerRole(models.StatusRecommendationSubmitted, models.ApplicantIndividual))
	require.Equal(t, models.RoleMinistryLawyer, OwnerRole(models.StatusApproved, models.ApplicantIndividual))
	require.Equal(t, models.RoleNRCCMember, OwnerRole(models.StatusVerificationInProgress, models.ApplicantMemberOfParliament))
}

func TestNormalizeLegacyStatus(t *testing.T) {
	got, ok := NormalizeLegacyStatus("PENDING")
	require.True(t, ok)
	require.Equal(t, models.StatusDraft, got)

	got, ok = NormalizeLegacyStatus("under_review")
	require.True(t, ok)
	require.Equal(t, models.StatusUnderMinisterReview, got)

	got, ok = NormalizeLegacyStatus("REJECTED")
	require.True(t, ok)
	require.Equal(t, models.StatusDisapprovedRefused, got)

	got, ok = NormalizeLegacyStatus(" GAZETTED ")
	require.True(t, ok)
	require.Equal(t, models.StatusGazetted, got)

	_, ok = NormalizeLegacyStatus("NOT_A_STATUS")
	require.False(t, ok)
}

func TestRoutesThroughRegion(t *testing.T) {
	require.True(t, RoutesThroughRegion(models.ApplicantRegionalRoadsBoard))
	require.False(t, RoutesThroughRegion(models.ApplicantIndividual))
	require.False(t, RoutesThroughRegion(models.ApplicantGroup))
	require.False(t, RoutesThroughRegion(models.ApplicantMemberOfParliament))
}
