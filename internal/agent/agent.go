// File: internal/agent/agent.go
// The task runner: the plan, act, observe, adapt loop. It owns the step
// lifecycle (resolve, act, judge), the retry and replan policy, and the
// global budgets that guarantee every run terminates.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jhemmrich/deskpilot/api/schemas"
	"github.com/jhemmrich/deskpilot/internal/config"
	"github.com/jhemmrich/deskpilot/internal/locator"
	"github.com/jhemmrich/deskpilot/internal/planner"
)

// Runner drives one task from instruction to TaskOutcome.
type Runner struct {
	planner  Planner
	locator  Locator
	executor Executor
	memory   Memory
	capturer Capturer
	cfg      config.AgentConfig
	logger   *zap.Logger
	observer Observer

	// now and sleep are swappable for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRunner wires the control loop over its collaborators.
func NewRunner(p Planner, l Locator, e Executor, m Memory, c Capturer, cfg config.AgentConfig, logger *zap.Logger) *Runner {
	return &Runner{
		planner:  p,
		locator:  l,
		executor: e,
		memory:   m,
		capturer: c,
		cfg:      cfg,
		logger:   logger.Named("agent"),
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// SetObserver registers a progress callback. Must be called before RunTask.
func (r *Runner) SetObserver(obs Observer) { r.observer = obs }

// RunTask executes the instruction until the task completes, fails, or a
// budget runs out. Exactly one TaskOutcome is produced per call. The error
// return is non-nil only when the caller's context was cancelled; budget
// exhaustion is reported as an Aborted outcome, not an error.
func (r *Runner) RunTask(ctx context.Context, instruction string) (schemas.TaskOutcome, error) {
	start := r.now()
	runCtx, cancel := context.WithTimeout(ctx, r.cfg.WallClockBudget)
	defer cancel()

	r.logger.Info("Task started",
		zap.String("instruction", instruction),
		zap.Duration("wall_clock_budget", r.cfg.WallClockBudget))

	revision := 1
	directive, err := r.requestPlan(runCtx, instruction, revision, "")
	if err != nil {
		return r.terminal(ctx, start, nil, err)
	}

	var plan *schemas.Plan
	switch directive.Kind {
	case schemas.DirectiveComplete:
		return r.completed(start, directive.Summary), nil
	case schemas.DirectiveUnachievable:
		return r.failed(start, nil, "task declared unachievable: "+directive.Reason), nil
	case schemas.DirectivePlan:
		plan = directive.Plan
	}

	cursor := 0
	attempt := 1
	totalAttempts := 0

	for {
		if out, stop := r.checkBudgets(start, totalAttempts); stop {
			return out, nil
		}

		if cursor >= len(plan.Steps) {
			// Plan exhausted: confirm the task as a whole before declaring
			// victory. A finished plan is not a finished task.
			done, msg, cerr := r.confirmCompletion(runCtx, instruction)
			if cerr != nil {
				if out, stop := r.terminalIfCancelled(ctx, start, cerr); stop {
					return out, ctxError(ctx)
				}
				// A shaky completion call is not fatal: replan.
				msg = "completion could not be confirmed"
			}
			if done {
				return r.completed(start, msg), nil
			}

			revision++
			directive, err = r.requestPlan(runCtx, instruction, revision, msg)
			if err != nil {
				return r.terminal(ctx, start, nil, err)
			}
			switch directive.Kind {
			case schemas.DirectiveComplete:
				return r.completed(start, directive.Summary), nil
			case schemas.DirectiveUnachievable:
				return r.failed(start, nil, "task declared unachievable: "+directive.Reason), nil
			}
			plan = directive.Plan
			cursor = 0
			attempt = 1
			continue
		}

		step := plan.Steps[cursor]
		totalAttempts++

		judgment, aerr := r.attemptStep(runCtx, plan.Revision, step, attempt)
		if aerr != nil {
			return r.terminal(ctx, start, &step, aerr)
		}

		if judgment.Verdict == schemas.JudgmentSuccess {
			r.emit(Event{Phase: PhaseAdvancing, PlanRevision: plan.Revision, Step: &step, Attempt: attempt})
			cursor++
			attempt = 1
			continue
		}

		if attempt < r.cfg.MaxStepAttempts {
			attempt++
			r.emit(Event{Phase: PhaseRetrying, PlanRevision: plan.Revision, Step: &step, Attempt: attempt, Detail: judgment.Explanation})
			r.logger.Info("Retrying step",
				zap.Int("ordinal", step.Ordinal),
				zap.Int("attempt", attempt),
				zap.String("verdict", string(judgment.Verdict)))
			if serr := r.sleep(runCtx, r.cfg.RetryBackoff); serr != nil {
				return r.terminal(ctx, start, &step, serr)
			}
			continue
		}

		// Step exhausted its attempts: hand the situation back to the planner.
		r.emit(Event{Phase: PhaseReplanning, PlanRevision: plan.Revision, Step: &step, Attempt: attempt, Detail: judgment.Explanation})
		revision++
		directive, err = r.requestPlan(runCtx, instruction, revision,
			fmt.Sprintf("step %d (%s) failed %d times: %s", step.Ordinal, step.Kind, attempt, judgment.Explanation))
		if err != nil {
			return r.terminal(ctx, start, &step, err)
		}
		switch directive.Kind {
		case schemas.DirectiveComplete:
			return r.completed(start, directive.Summary), nil
		case schemas.DirectiveUnachievable:
			return r.failed(start, &step, "task declared unachievable: "+directive.Reason), nil
		}
		plan = directive.Plan
		cursor = 0
		attempt = 1
	}
}

// attemptStep runs one full resolve/act/judge cycle for a step and appends
// the resulting record. The error return is reserved for cancellation.
func (r *Runner) attemptStep(ctx context.Context, revision int, step schemas.Step, attempt int) (schemas.StepJudgment, error) {
	r.emit(Event{Phase: PhaseResolving, PlanRevision: revision, Step: &step, Attempt: attempt})

	before, err := r.capturer.Capture()
	if err != nil {
		if ctx.Err() != nil {
			return schemas.StepJudgment{}, ctx.Err()
		}
		return r.recordFailure(revision, step, attempt, nil, "CAPTURE_FAILED", err.Error(), "", ""), nil
	}

	var resolved *schemas.Point
	if step.Kind.NeedsTarget() {
		pt, rerr := r.locator.Resolve(ctx, step.Target, before)
		if rerr != nil {
			if ctx.Err() != nil {
				return schemas.StepJudgment{}, ctx.Err()
			}
			code := "LOCATOR_ERROR"
			if errors.Is(rerr, locator.ErrMiss) {
				code = "NOT_LOCATED"
			}
			// A miss never reaches the executor. No input is ever dispatched
			// toward a point nobody found.
			return r.recordFailure(revision, step, attempt, nil, code, rerr.Error(), stamp(before), ""), nil
		}
		resolved = &pt
	}

	r.emit(Event{Phase: PhaseActing, PlanRevision: revision, Step: &step, Attempt: attempt})
	result, err := r.executor.Perform(ctx, step, resolved)
	if err != nil {
		return schemas.StepJudgment{}, err
	}

	r.emit(Event{Phase: PhaseJudging, PlanRevision: revision, Step: &step, Attempt: attempt})
	after, err := r.capturer.Capture()
	if err != nil {
		if ctx.Err() != nil {
			return schemas.StepJudgment{}, ctx.Err()
		}
		return r.recordFailure(revision, step, attempt, resolved, "CAPTURE_FAILED", err.Error(), stamp(before), ""), nil
	}

	var judgment schemas.StepJudgment
	if result.Status == schemas.ExecFailure {
		// The executor already knows the step did not happen; no verdict call.
		judgment = schemas.StepJudgment{
			Verdict:     schemas.JudgmentFailure,
			Explanation: fmt.Sprintf("execution failed (%s): %s", result.ErrorCode, result.Detail),
		}
	} else {
		judgment, err = r.planner.JudgeStep(ctx, step, before, after)
		if err != nil {
			if ctx.Err() != nil {
				return schemas.StepJudgment{}, ctx.Err()
			}
			// An unobtainable verdict is ambiguity, not failure.
			judgment = schemas.StepJudgment{
				Verdict:     schemas.JudgmentAmbiguous,
				Explanation: "verdict unavailable: " + err.Error(),
			}
		}
	}

	r.memory.Append(schemas.ExecutionRecord{
		ID:           uuid.NewString(),
		PlanRevision: revision,
		Step:         step,
		Attempt:      attempt,
		Resolved:     resolved,
		Executor:     result,
		Before:       stamp(before),
		After:        stamp(after),
		Judgment:     judgment,
		Timestamp:    r.now(),
	})
	return judgment, nil
}

// recordFailure appends a record for an attempt that never produced a real
// execution, with a FAILURE verdict carrying the cause.
func (r *Runner) recordFailure(revision int, step schemas.Step, attempt int, resolved *schemas.Point, code, detail, before, after string) schemas.StepJudgment {
	judgment := schemas.StepJudgment{
		Verdict:     schemas.JudgmentFailure,
		Explanation: fmt.Sprintf("%s: %s", code, detail),
	}
	r.memory.Append(schemas.ExecutionRecord{
		ID:           uuid.NewString(),
		PlanRevision: revision,
		Step:         step,
		Attempt:      attempt,
		Resolved:     resolved,
		Executor:     schemas.ExecutorResult{Status: schemas.ExecFailure, ErrorCode: code, Detail: detail},
		Before:       before,
		After:        after,
		Judgment:     judgment,
		Timestamp:    r.now(),
	})
	return judgment
}

// requestPlan captures the screen and asks the planner for a directive.
// failureContext, when non-empty, is appended to the history so the planner
// knows why the previous plan is being abandoned.
func (r *Runner) requestPlan(ctx context.Context, instruction string, revision int, failureContext string) (schemas.PlanDirective, error) {
	// The first request happens before any plan exists, so it is not a replan.
	phase := PhaseReplanning
	if revision == 1 {
		phase = PhaseIdle
	}
	r.emit(Event{Phase: phase, PlanRevision: revision, Detail: failureContext})

	shot, err := r.capturer.Capture()
	if err != nil {
		return schemas.PlanDirective{}, &planner.PlanningError{Reason: "screen capture failed", Err: err}
	}

	history := r.memory.Summary()
	if failureContext != "" {
		history += "\nCurrent situation: " + failureContext
	}
	return r.planner.GeneratePlan(ctx, instruction, history, shot, revision)
}

func (r *Runner) confirmCompletion(ctx context.Context, instruction string) (bool, string, error) {
	shot, err := r.capturer.Capture()
	if err != nil {
		return false, "", err
	}
	return r.planner.ConfirmCompletion(ctx, instruction, r.memory.Summary(), shot)
}

// checkBudgets enforces the global termination guarantees at the start of
// every step transition.
func (r *Runner) checkBudgets(start time.Time, totalAttempts int) (schemas.TaskOutcome, bool) {
	if elapsed := r.now().Sub(start); elapsed >= r.cfg.WallClockBudget {
		berr := &BudgetError{Budget: "wall_clock", Limit: r.cfg.WallClockBudget.String()}
		return r.aborted(start, berr.Error()), true
	}
	if totalAttempts >= r.cfg.MaxTotalAttempts {
		berr := &BudgetError{Budget: "total_attempts", Limit: fmt.Sprintf("%d", r.cfg.MaxTotalAttempts)}
		return r.aborted(start, berr.Error()), true
	}
	return schemas.TaskOutcome{}, false
}

// terminal maps an in-flight error to the run's final outcome: planning
// failures fail the task, deadline expiry aborts it, caller cancellation is
// passed through.
func (r *Runner) terminal(parent context.Context, start time.Time, step *schemas.Step, err error) (schemas.TaskOutcome, error) {
	var perr *planner.PlanningError
	if errors.As(err, &perr) {
		return r.failed(start, step, perr.Error()), nil
	}
	if errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
		berr := &BudgetError{Budget: "wall_clock", Limit: r.cfg.WallClockBudget.String()}
		return r.aborted(start, berr.Error()), nil
	}
	if parent.Err() != nil {
		return r.aborted(start, "task cancelled"), parent.Err()
	}
	return r.failed(start, step, err.Error()), nil
}

func (r *Runner) terminalIfCancelled(parent context.Context, start time.Time, err error) (schemas.TaskOutcome, bool) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		out, _ := r.terminal(parent, start, nil, err)
		return out, true
	}
	return schemas.TaskOutcome{}, false
}

func ctxError(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

func (r *Runner) completed(start time.Time, summary string) schemas.TaskOutcome {
	if summary == "" {
		summary = "task completed"
	}
	out := schemas.TaskOutcome{
		Status:      schemas.OutcomeCompleted,
		Summary:     summary,
		RecordCount: r.memory.Len(),
		Elapsed:     r.now().Sub(start),
	}
	r.logger.Info("Task completed",
		zap.String("summary", summary),
		zap.Duration("elapsed", out.Elapsed),
		zap.Int("records", out.RecordCount))
	return out
}

func (r *Runner) failed(start time.Time, step *schemas.Step, summary string) schemas.TaskOutcome {
	out := schemas.TaskOutcome{
		Status:      schemas.OutcomeFailed,
		Summary:     summary,
		FailedStep:  step,
		RecordCount: r.memory.Len(),
		Elapsed:     r.now().Sub(start),
	}
	r.logger.Warn("Task failed",
		zap.String("summary", summary),
		zap.Duration("elapsed", out.Elapsed))
	return out
}

func (r *Runner) aborted(start time.Time, summary string) schemas.TaskOutcome {
	out := schemas.TaskOutcome{
		Status:      schemas.OutcomeAborted,
		Summary:     summary,
		RecordCount: r.memory.Len(),
		Elapsed:     r.now().Sub(start),
	}
	r.logger.Warn("Task aborted",
		zap.String("summary", summary),
		zap.Duration("elapsed", out.Elapsed))
	return out
}

func (r *Runner) emit(ev Event) {
	if r.observer == nil {
		return
	}
	go r.observer(ev)
}

// stamp names an observation by its capture time so records can refer to it.
func stamp(s schemas.Screenshot) string {
	return s.CapturedAt.Format(time.RFC3339Nano)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
