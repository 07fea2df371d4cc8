package models

import (
	"fmt"
	"strings"
	"time"

	"taskkeeper/internal/common"
)

// Task is a to-do item. OwnerID references exactly one User; every query on
// tasks is scoped by it, so a task belonging to someone else looks the same
// as one that does not exist.
type Task struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ValidateDescription requires a non-empty description after trimming.
func ValidateDescription(description string) error {
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("%w: description is required", common.ErrValidation)
	}
	return nil
}

// Validate checks the task's own fields.
func (t *Task) Validate() error {
	if err := ValidateDescription(t.Description); err != nil {
		return err
	}
	if t.OwnerID == "" {
		return fmt.Errorf("%w: owner is required", common.ErrValidation)
	}
	return nil
}
