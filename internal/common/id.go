package common

import (
	"fmt"

	"github.com/google/uuid"
)

// NewJobID generates a unique externally-visible job ID with the "prof_" prefix
// Format: prof_<uuid>
func NewJobID() string {
	return "prof_" + uuid.New().String()
}

// NewPlanID generates a unique plan ID with the "plan_" prefix
func NewPlanID() string {
	return "plan_" + uuid.New().String()
}

// NewHistoryID generates a unique history row ID with the "hist_" prefix
func NewHistoryID() string {
	return "hist_" + uuid.New().String()
}

// TaskID formats a stable task ID from its 1-based order within a plan.
// Format: task_001, task_002, ...
func TaskID(order int) string {
	return fmt.Sprintf("task_%03d", order)
}
