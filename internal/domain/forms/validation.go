package forms

import (
	"fmt"
	"strings"

	"github.com/tanweijie/studysprint/internal/domain/session"
)

// ValidateDraft applies the advisory client-side checks: every field present
// and capacity at least 1. The service remains authoritative.
func ValidateDraft(draft session.Draft) error {
	if strings.TrimSpace(draft.Title) == "" ||
		strings.TrimSpace(draft.Module) == "" ||
		strings.TrimSpace(draft.Venue) == "" ||
		strings.TrimSpace(draft.Datetime) == "" ||
		draft.Capacity == 0 {
		return fmt.Errorf("%w: all fields are required", ErrInvalidDraft)
	}
	if draft.Capacity < 1 {
		return fmt.Errorf("%w: capacity must be at least 1", ErrInvalidDraft)
	}
	return nil
}
