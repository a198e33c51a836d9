// File: internal/agent/errors.go
package agent

import (
	"errors"
	"fmt"
)

// ErrBudgetExceeded marks a run stopped by a global budget rather than by a
// success or a failure of the task itself. Outcomes caused by it are Aborted.
var ErrBudgetExceeded = errors.New("task budget exceeded")

// BudgetError wraps ErrBudgetExceeded with the budget that ran out.
type BudgetError struct {
	Budget string // "wall_clock" or "total_attempts"
	Limit  string
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("%s budget exhausted (limit %s)", e.Budget, e.Limit)
}

func (e *BudgetError) Is(target error) bool { return target == ErrBudgetExceeded }
