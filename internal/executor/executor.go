// File: internal/executor/executor.go
// The Action Executor performs exactly one resolved step against the live
// desktop and reports what happened. It owns no judgment and no retry policy:
// whether the step achieved anything is decided elsewhere, from observations.
package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jhemmrich/deskpilot/api/schemas"
	"github.com/jhemmrich/deskpilot/internal/config"
	"github.com/jhemmrich/deskpilot/internal/humanoid"
	"github.com/jhemmrich/deskpilot/internal/input"
)

// Error codes reported in ExecutorResult for failed actions.
const (
	CodeInvalidStep   = "INVALID_STEP"
	CodeMissingTarget = "MISSING_TARGET"
	CodeInputFailed   = "INPUT_FAILED"
	CodeSpawnFailed   = "SPAWN_FAILED"
	CodeUnsupported   = "UNSUPPORTED_ACTION"
)

// Executor dispatches steps to the input layer.
type Executor struct {
	driver input.Driver
	human  *humanoid.Humanoid
	cfg    config.ExecutorConfig
	logger *zap.Logger

	// sleep is swappable for tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New builds an Executor. human may be nil when human-like pacing is disabled;
// the raw driver is used directly in that case.
func New(driver input.Driver, human *humanoid.Humanoid, cfg config.ExecutorConfig, logger *zap.Logger) *Executor {
	return &Executor{
		driver: driver,
		human:  human,
		cfg:    cfg,
		logger: logger.Named("executor"),
		sleep:  sleepCtx,
	}
}

// Perform executes one step. point must be non-nil exactly when the step's
// kind needs a target coordinate. The returned error is non-nil only when the
// context was cancelled; all action-level failures are encoded in the result.
func (e *Executor) Perform(ctx context.Context, step schemas.Step, point *schemas.Point) (schemas.ExecutorResult, error) {
	if err := ctx.Err(); err != nil {
		return schemas.ExecutorResult{}, err
	}
	if err := step.Validate(); err != nil {
		return failure(CodeInvalidStep, err.Error()), nil
	}
	if step.Kind.NeedsTarget() && point == nil {
		return failure(CodeMissingTarget, fmt.Sprintf("action %s requires a resolved target", step.Kind)), nil
	}

	e.logger.Info("Executing step",
		zap.Int("ordinal", step.Ordinal),
		zap.String("kind", string(step.Kind)))

	var err error
	switch step.Kind {
	case schemas.ActionClickTarget:
		err = e.click(ctx, *point, false)
	case schemas.ActionDoubleClickTarget:
		err = e.click(ctx, *point, true)
	case schemas.ActionTypeText:
		err = e.typeText(ctx, step.Params.Text)
	case schemas.ActionKeyCombo:
		err = e.driver.KeyCombo(ctx, step.Params.Keys)
	case schemas.ActionScroll:
		err = e.scroll(ctx, step.Params.ScrollDirection, step.Params.ScrollAmount)
	case schemas.ActionWait:
		err = e.sleep(ctx, step.Params.WaitDuration)
	case schemas.ActionRunCommand:
		err = e.spawn(ctx, func(c context.Context) error { return e.driver.RunCommand(c, step.Params.Command) })
	case schemas.ActionOpenApplication:
		err = e.spawn(ctx, func(c context.Context) error { return e.driver.OpenApplication(c, step.Params.Application) })
	case schemas.ActionCustom:
		// CUSTOM steps carry no executable semantics; the planner must revise
		// them into concrete actions before they reach the executor.
		return failure(CodeUnsupported, fmt.Sprintf("custom action cannot be executed directly: %s", step.Params.Description)), nil
	default:
		return failure(CodeUnsupported, fmt.Sprintf("unknown action kind %q", step.Kind)), nil
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return schemas.ExecutorResult{}, ctxErr
		}
		code := CodeInputFailed
		if step.Kind == schemas.ActionRunCommand || step.Kind == schemas.ActionOpenApplication {
			code = CodeSpawnFailed
		}
		return failure(code, err.Error()), nil
	}

	// Let the UI reach a stable state before the next observation.
	if step.Kind != schemas.ActionWait {
		if err := e.sleep(ctx, e.cfg.SettleDelay); err != nil {
			return schemas.ExecutorResult{}, err
		}
	}

	return schemas.ExecutorResult{Status: schemas.ExecSuccess}, nil
}

func (e *Executor) click(ctx context.Context, p schemas.Point, double bool) error {
	if e.human != nil {
		return e.human.Click(ctx, p.X, p.Y, double)
	}
	if err := e.driver.MoveMouse(ctx, p.X, p.Y); err != nil {
		return err
	}
	return e.driver.Click(ctx, p.X, p.Y, double)
}

// typeText types possibly multiline text. Lines are separated by pressing
// Enter, and leading indentation is reproduced with Tab presses (one per four
// spaces or per tab character) so that auto-indenting editors stay consistent.
func (e *Executor) typeText(ctx context.Context, text string) error {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		if i > 0 {
			if err := e.driver.KeyCombo(ctx, []string{"enter"}); err != nil {
				return err
			}
		}

		tabs, rest := splitIndent(line)
		for t := 0; t < tabs; t++ {
			if err := e.driver.KeyCombo(ctx, []string{"tab"}); err != nil {
				return err
			}
		}
		if rest == "" {
			continue
		}
		if e.human != nil {
			if err := e.human.Type(ctx, rest); err != nil {
				return err
			}
		} else if err := e.driver.TypeText(ctx, rest); err != nil {
			return err
		}
	}
	return nil
}

// splitIndent counts the leading indentation of a line in tab stops and
// returns the remainder of the line.
func splitIndent(line string) (tabs int, rest string) {
	i := 0
	for i < len(line) {
		switch {
		case line[i] == '\t':
			tabs++
			i++
		case strings.HasPrefix(line[i:], "    "):
			tabs++
			i += 4
		default:
			return tabs, line[i:]
		}
	}
	return tabs, ""
}

func (e *Executor) scroll(ctx context.Context, dir schemas.ScrollDirection, amount int) error {
	if amount <= 0 {
		amount = 3
	}
	var dx, dy int
	switch dir {
	case schemas.ScrollUp:
		dy = amount
	case schemas.ScrollDown:
		dy = -amount
	case schemas.ScrollLeft:
		dx = -amount
	case schemas.ScrollRight:
		dx = amount
	default:
		return fmt.Errorf("invalid scroll direction %q", dir)
	}
	return e.driver.Scroll(ctx, dx, dy)
}

// spawn runs a process-launching action under the configured timeout.
func (e *Executor) spawn(ctx context.Context, fn func(context.Context) error) error {
	spawnCtx := ctx
	if e.cfg.CommandTimeout > 0 {
		var cancel context.CancelFunc
		spawnCtx, cancel = context.WithTimeout(ctx, e.cfg.CommandTimeout)
		defer cancel()
	}
	return fn(spawnCtx)
}

func failure(code, detail string) schemas.ExecutorResult {
	return schemas.ExecutorResult{
		Status:    schemas.ExecFailure,
		ErrorCode: code,
		Detail:    detail,
	}
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
