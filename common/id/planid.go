package id

import (
	"fmt"

	"github.com/google/uuid"
)

// NewPlanID generates a time-ordered UUIDv7 for PlanRecord.id. Distinct from
// the int64 Snowflake ids minted by New(), which are used only for internal
// trace/log correlation and never persisted as plan identifiers.
func NewPlanID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generating plan id: %w", err)
	}
	return id.String(), nil
}
