// File: internal/agent/interfaces.go
package agent

import (
	"context"

	"github.com/jhemmrich/deskpilot/api/schemas"
)

// Planner produces plans, per-step verdicts and the final completion call.
// Implemented by internal/planner.
type Planner interface {
	GeneratePlan(ctx context.Context, instruction, history string, shot schemas.Screenshot, revision int) (schemas.PlanDirective, error)
	JudgeStep(ctx context.Context, step schemas.Step, before, after schemas.Screenshot) (schemas.StepJudgment, error)
	ConfirmCompletion(ctx context.Context, instruction, history string, shot schemas.Screenshot) (bool, string, error)
}

// Locator resolves a target description to a screen coordinate. A miss is
// reported with locator.ErrMiss, never with a fabricated point.
type Locator interface {
	Resolve(ctx context.Context, target string, shot schemas.Screenshot) (schemas.Point, error)
}

// Executor performs exactly one resolved step. Action-level failures are
// encoded in the result; the error return is reserved for cancellation.
type Executor interface {
	Perform(ctx context.Context, step schemas.Step, point *schemas.Point) (schemas.ExecutorResult, error)
}

// Memory is the append-only execution trail.
type Memory interface {
	Append(record schemas.ExecutionRecord)
	Snapshot() []schemas.ExecutionRecord
	Summary() string
	Len() int
}

// Capturer produces point-in-time screenshots of the desktop.
type Capturer interface {
	Capture() (schemas.Screenshot, error)
}
