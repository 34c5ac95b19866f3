package workflow

import (
	"strings"

	"github.com/tanroads/rrs-api/internal/models"
)

// legacyStatusAliases translates status names from the retired system.
// Aliases are accepted on import only; they are never persisted or
// emitted by this engine.
var legacyStatusAliases = map[string]models.ApplicationStatus{
	"PENDING":          models.StatusDraft,
	"UNDER_REVIEW":     models.StatusUnderMinisterReview,
	"REJECTED":         models.StatusDisapprovedRefused,
	"REQUIRES_CHANGES": models.StatusReturnedForCorrection,
}

// NormalizeLegacyStatus resolves a raw status string, current or legacy,
// into a member of the declared status set.
func NormalizeLegacyStatus(raw string) (models.ApplicationStatus, bool) {
	value := models.ApplicationStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if models.IsValidStatus(value) {
		return value, true
	}
	if mapped, ok := legacyStatusAliases[string(value)]; ok {
		return mapped, true
	}
	return "", false
}
