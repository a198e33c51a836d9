// File: internal/planner/planner.go
// The Task Planner and step judge: everything that turns screenshots and
// execution history into decisions via the reasoning service. Unparseable or
// structurally invalid model output surfaces as typed errors so the control
// loop can distinguish a broken plan (fatal) from a shaky verdict (retryable).
package planner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jhemmrich/deskpilot/api/schemas"
	"github.com/jhemmrich/deskpilot/internal/llmutil"
	"github.com/jhemmrich/deskpilot/internal/screen"
)

// PlanningError reports that no usable plan could be produced. It is fatal
// for the task.
type PlanningError struct {
	Reason string
	Err    error
}

func (e *PlanningError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("planning failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("planning failed: %s", e.Reason)
}

func (e *PlanningError) Unwrap() error { return e.Err }

// JudgmentError reports that a verdict could not be obtained. The control
// loop treats it like an ambiguous verdict, not like a failure of the step.
type JudgmentError struct {
	Err error
}

func (e *JudgmentError) Error() string { return fmt.Sprintf("judgment failed: %v", e.Err) }
func (e *JudgmentError) Unwrap() error { return e.Err }

// Planner produces plans, per-step verdicts and the final completion call.
type Planner struct {
	client       schemas.LLMClient
	maxDimension int
	jpegQuality  int
	logger       *zap.Logger
}

// New builds a Planner. maxDimension and jpegQuality control screenshot
// preprocessing before submission to the reasoning service.
func New(client schemas.LLMClient, maxDimension, jpegQuality int, logger *zap.Logger) *Planner {
	return &Planner{
		client:       client,
		maxDimension: maxDimension,
		jpegQuality:  jpegQuality,
		logger:       logger.Named("planner"),
	}
}

// planStepWire is the wire shape of one planned step.
type planStepWire struct {
	Kind            string   `json:"kind"`
	Target          string   `json:"target"`
	Text            string   `json:"text"`
	Keys            []string `json:"keys"`
	ScrollDirection string   `json:"scroll_direction"`
	ScrollAmount    int      `json:"scroll_amount"`
	Command         string   `json:"command"`
	WaitMs          int      `json:"wait_ms"`
	Application     string   `json:"application"`
	ExpectedOutcome string   `json:"expected_outcome"`
}

// planWire is the wire shape of the planning model's answer.
type planWire struct {
	Kind    string         `json:"kind"`
	Steps   []planStepWire `json:"steps"`
	Summary string         `json:"summary"`
	Reason  string         `json:"reason"`
}

// GeneratePlan asks the powerful model for the next plan given the task, the
// execution history and the current screen. revision is stamped onto the
// returned plan.
func (p *Planner) GeneratePlan(ctx context.Context, instruction, history string, shot schemas.Screenshot, revision int) (schemas.PlanDirective, error) {
	img, err := p.encode(shot)
	if err != nil {
		return schemas.PlanDirective{}, &PlanningError{Reason: "screenshot encoding failed", Err: err}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n\n", instruction)
	fmt.Fprintf(&b, "Execution record:\n%s\n", history)
	b.WriteString("\nThe attached screenshot shows the current desktop. Produce your response.")

	raw, err := p.client.Generate(ctx, schemas.GenerationRequest{
		SystemPrompt: plannerSystemPrompt,
		UserPrompt:   b.String(),
		Images:       []schemas.EncodedImage{img},
		Tier:         schemas.TierPowerful,
		Options:      schemas.GenerationOptions{Temperature: 0.2, ForceJSONFormat: true},
	})
	if err != nil {
		return schemas.PlanDirective{}, &PlanningError{Reason: "reasoning request failed", Err: err}
	}

	wire, err := llmutil.ParseJSONResponse[planWire](raw)
	if err != nil {
		return schemas.PlanDirective{}, &PlanningError{Reason: "unparseable planning response", Err: err}
	}

	directive, err := p.buildDirective(wire, revision)
	if err != nil {
		return schemas.PlanDirective{}, err
	}

	p.logger.Info("Plan directive produced",
		zap.String("kind", string(directive.Kind)),
		zap.Int("revision", revision),
		zap.Int("steps", stepCount(directive)))
	return directive, nil
}

// buildDirective validates the wire response and converts it to the typed
// directive, rejecting plans with invalid or unknown steps.
func (p *Planner) buildDirective(wire *planWire, revision int) (schemas.PlanDirective, error) {
	switch schemas.DirectiveKind(wire.Kind) {
	case schemas.DirectiveComplete:
		return schemas.PlanDirective{
			Kind:    schemas.DirectiveComplete,
			Summary: wire.Summary,
		}, nil
	case schemas.DirectiveUnachievable:
		if wire.Reason == "" {
			wire.Reason = "no reason given"
		}
		return schemas.PlanDirective{
			Kind:   schemas.DirectiveUnachievable,
			Reason: wire.Reason,
		}, nil
	case schemas.DirectivePlan:
	default:
		return schemas.PlanDirective{}, &PlanningError{Reason: fmt.Sprintf("unknown directive kind %q", wire.Kind)}
	}

	if len(wire.Steps) == 0 {
		return schemas.PlanDirective{}, &PlanningError{Reason: "PLAN directive with no steps"}
	}

	steps := make([]schemas.Step, 0, len(wire.Steps))
	for i, ws := range wire.Steps {
		step := schemas.Step{
			ID:      uuid.NewString(),
			Ordinal: i,
			Kind:    schemas.ActionKind(ws.Kind),
			Target:  ws.Target,
			Params: schemas.StepParams{
				Text:            ws.Text,
				Keys:            ws.Keys,
				ScrollDirection: schemas.ScrollDirection(ws.ScrollDirection),
				ScrollAmount:    ws.ScrollAmount,
				Command:         ws.Command,
				WaitDuration:    time.Duration(ws.WaitMs) * time.Millisecond,
				Application:     ws.Application,
			},
			ExpectedOutcome: ws.ExpectedOutcome,
		}
		if err := step.Validate(); err != nil {
			return schemas.PlanDirective{}, &PlanningError{Reason: "plan contains invalid step", Err: err}
		}
		steps = append(steps, step)
	}

	return schemas.PlanDirective{
		Kind: schemas.DirectivePlan,
		Plan: &schemas.Plan{Revision: revision, Steps: steps},
	}, nil
}

// judgeWire is the wire shape of a step verdict.
type judgeWire struct {
	Verdict     string `json:"verdict"`
	Explanation string `json:"explanation"`
}

// JudgeStep asks the fast model whether the step achieved its expected
// outcome, given the before and after screenshots.
func (p *Planner) JudgeStep(ctx context.Context, step schemas.Step, before, after schemas.Screenshot) (schemas.StepJudgment, error) {
	beforeImg, err := p.encode(before)
	if err != nil {
		return schemas.StepJudgment{}, &JudgmentError{Err: err}
	}
	afterImg, err := p.encode(after)
	if err != nil {
		return schemas.StepJudgment{}, &JudgmentError{Err: err}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Step executed: %s", step.Kind)
	if step.Target != "" {
		fmt.Fprintf(&b, " on %q", step.Target)
	}
	fmt.Fprintf(&b, "\nExpected outcome: %s\n", step.ExpectedOutcome)
	b.WriteString("\nThe first attached screenshot is the desktop before the step, the second is after. Produce your verdict.")

	raw, err := p.client.Generate(ctx, schemas.GenerationRequest{
		SystemPrompt: judgeSystemPrompt,
		UserPrompt:   b.String(),
		Images:       []schemas.EncodedImage{beforeImg, afterImg},
		Tier:         schemas.TierFast,
		Options:      schemas.GenerationOptions{Temperature: 0.0, ForceJSONFormat: true},
	})
	if err != nil {
		return schemas.StepJudgment{}, &JudgmentError{Err: err}
	}

	wire, err := llmutil.ParseJSONResponse[judgeWire](raw)
	if err != nil {
		return schemas.StepJudgment{}, &JudgmentError{Err: err}
	}

	verdict := schemas.Judgment(wire.Verdict)
	switch verdict {
	case schemas.JudgmentSuccess, schemas.JudgmentFailure, schemas.JudgmentAmbiguous:
	default:
		return schemas.StepJudgment{}, &JudgmentError{Err: fmt.Errorf("unknown verdict %q", wire.Verdict)}
	}

	p.logger.Debug("Step judged",
		zap.Int("ordinal", step.Ordinal),
		zap.String("verdict", string(verdict)))
	return schemas.StepJudgment{Verdict: verdict, Explanation: wire.Explanation}, nil
}

// completionWire is the wire shape of the final completion call.
type completionWire struct {
	Complete bool   `json:"complete"`
	Summary  string `json:"summary"`
	Reason   string `json:"reason"`
}

// ConfirmCompletion asks the powerful model whether the task as a whole is
// done. A negative answer carries the reason so the next planning round can
// address what is missing.
func (p *Planner) ConfirmCompletion(ctx context.Context, instruction, history string, shot schemas.Screenshot) (bool, string, error) {
	img, err := p.encode(shot)
	if err != nil {
		return false, "", &JudgmentError{Err: err}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Original task: %s\n\n", instruction)
	fmt.Fprintf(&b, "Execution record:\n%s\n", history)
	b.WriteString("\nThe attached screenshot shows the current desktop. Is the task complete?")

	raw, err := p.client.Generate(ctx, schemas.GenerationRequest{
		SystemPrompt: completionSystemPrompt,
		UserPrompt:   b.String(),
		Images:       []schemas.EncodedImage{img},
		Tier:         schemas.TierPowerful,
		Options:      schemas.GenerationOptions{Temperature: 0.0, ForceJSONFormat: true},
	})
	if err != nil {
		return false, "", &JudgmentError{Err: err}
	}

	wire, err := llmutil.ParseJSONResponse[completionWire](raw)
	if err != nil {
		return false, "", &JudgmentError{Err: err}
	}

	if wire.Complete {
		return true, wire.Summary, nil
	}
	return false, wire.Reason, nil
}

func (p *Planner) encode(shot schemas.Screenshot) (schemas.EncodedImage, error) {
	return screen.Preprocess(shot, p.maxDimension, p.jpegQuality)
}

func stepCount(d schemas.PlanDirective) int {
	if d.Plan == nil {
		return 0
	}
	return len(d.Plan.Steps)
}
