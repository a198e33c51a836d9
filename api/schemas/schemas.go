// File: api/schemas/schemas.go
package schemas

import (
	"fmt"
	"image"
	"time"
)

// ActionKind is an enumeration of all concrete actions the agent can plan and
// execute. It is a closed variant: the Action Executor switches exhaustively
// over these values and rejects anything else.
type ActionKind string

const (
	ActionClickTarget       ActionKind = "CLICK_TARGET"        // Single click on a located UI element.
	ActionDoubleClickTarget ActionKind = "DOUBLE_CLICK_TARGET" // Double click, e.g. opening an app from the desktop.
	ActionTypeText          ActionKind = "TYPE_TEXT"           // Type literal text into the focused element.
	ActionKeyCombo          ActionKind = "KEY_COMBO"           // Press a chord of keys (e.g. ctrl+s).
	ActionScroll            ActionKind = "SCROLL"              // Scroll the active view.
	ActionWait              ActionKind = "WAIT"                // Pause to let the UI settle.
	ActionRunCommand        ActionKind = "RUN_COMMAND"         // Spawn a shell command.
	ActionOpenApplication   ActionKind = "OPEN_APPLICATION"    // Launch an application by name.
	ActionCustom            ActionKind = "CUSTOM"              // Escape hatch for planner-described actions.
)

// NeedsTarget reports whether the action kind requires a screen coordinate
// resolved from a visual target description before it can be executed.
func (k ActionKind) NeedsTarget() bool {
	return k == ActionClickTarget || k == ActionDoubleClickTarget
}

// ScrollDirection constrains the scroll parameter vocabulary.
type ScrollDirection string

const (
	ScrollUp    ScrollDirection = "up"
	ScrollDown  ScrollDirection = "down"
	ScrollLeft  ScrollDirection = "left"
	ScrollRight ScrollDirection = "right"
)

// StepParams carries the literal, typed parameters of a Step. Which fields are
// meaningful depends on the Step's ActionKind; Validate enforces the pairing.
type StepParams struct {
	Text            string          `json:"text,omitempty"`             // TYPE_TEXT
	Keys            []string        `json:"keys,omitempty"`             // KEY_COMBO
	ScrollDirection ScrollDirection `json:"scroll_direction,omitempty"` // SCROLL
	ScrollAmount    int             `json:"scroll_amount,omitempty"`    // SCROLL
	Command         string          `json:"command,omitempty"`          // RUN_COMMAND
	WaitDuration    time.Duration   `json:"wait_duration,omitempty"`    // WAIT
	Application     string          `json:"application,omitempty"`      // OPEN_APPLICATION
	Description     string          `json:"description,omitempty"`      // CUSTOM
}

// Step is one planned, atomic unit of interaction with the desktop. A Step is
// immutable once created; a plan revision produces new Steps rather than
// editing existing ones.
type Step struct {
	ID              string     `json:"id"`
	Ordinal         int        `json:"ordinal"`
	Kind            ActionKind `json:"kind"`
	Target          string     `json:"target,omitempty"` // Natural-language description used for localization.
	Params          StepParams `json:"params"`
	ExpectedOutcome string     `json:"expected_outcome"`
}

// Validate checks that the step's parameters match its action kind.
func (s Step) Validate() error {
	switch s.Kind {
	case ActionClickTarget, ActionDoubleClickTarget:
		if s.Target == "" {
			return fmt.Errorf("step %d (%s): missing target description", s.Ordinal, s.Kind)
		}
	case ActionTypeText:
		if s.Params.Text == "" {
			return fmt.Errorf("step %d (%s): missing text", s.Ordinal, s.Kind)
		}
	case ActionKeyCombo:
		if len(s.Params.Keys) == 0 {
			return fmt.Errorf("step %d (%s): missing keys", s.Ordinal, s.Kind)
		}
	case ActionScroll:
		switch s.Params.ScrollDirection {
		case ScrollUp, ScrollDown, ScrollLeft, ScrollRight:
		default:
			return fmt.Errorf("step %d (%s): invalid scroll direction %q", s.Ordinal, s.Kind, s.Params.ScrollDirection)
		}
	case ActionWait:
		if s.Params.WaitDuration <= 0 {
			return fmt.Errorf("step %d (%s): wait duration must be positive", s.Ordinal, s.Kind)
		}
	case ActionRunCommand:
		if s.Params.Command == "" {
			return fmt.Errorf("step %d (%s): missing command", s.Ordinal, s.Kind)
		}
	case ActionOpenApplication:
		if s.Params.Application == "" {
			return fmt.Errorf("step %d (%s): missing application name", s.Ordinal, s.Kind)
		}
	case ActionCustom:
		if s.Params.Description == "" {
			return fmt.Errorf("step %d (%s): missing description", s.Ordinal, s.Kind)
		}
	default:
		return fmt.Errorf("step %d: unknown action kind %q", s.Ordinal, s.Kind)
	}
	return nil
}

// Plan is the ordered sequence of Steps for a task. Plans are replaced
// wholesale on revision, never mutated in place.
type Plan struct {
	Revision int    `json:"revision"`
	Steps    []Step `json:"steps"`
}

// DirectiveKind discriminates the possible Task Planner responses.
type DirectiveKind string

const (
	DirectivePlan         DirectiveKind = "PLAN"         // A (possibly revised) plan to execute.
	DirectiveComplete     DirectiveKind = "COMPLETE"     // The task is judged already satisfied.
	DirectiveUnachievable DirectiveKind = "UNACHIEVABLE" // The task cannot be completed.
)

// PlanDirective is the Task Planner's answer: either a plan to execute, a
// completion with a human-readable summary, or a declaration that the task is
// unachievable with a reason.
type PlanDirective struct {
	Kind    DirectiveKind `json:"kind"`
	Plan    *Plan         `json:"plan,omitempty"`
	Summary string        `json:"summary,omitempty"`
	Reason  string        `json:"reason,omitempty"`
}

// Judgment is the verdict on whether a Step achieved its expected outcome.
type Judgment string

const (
	JudgmentSuccess   Judgment = "SUCCESS"
	JudgmentFailure   Judgment = "FAILURE"
	JudgmentAmbiguous Judgment = "AMBIGUOUS"
)

// StepJudgment pairs the verdict with the judge's explanation.
type StepJudgment struct {
	Verdict     Judgment `json:"verdict"`
	Explanation string   `json:"explanation"`
}

// Point is a screen coordinate in logical (OS input) space.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Candidate is one possible location for a visual target, with the vision
// service's confidence in [0, 1].
type Candidate struct {
	Point      Point   `json:"point"`
	Confidence float64 `json:"confidence"`
}

// Screenshot is a point-in-time capture of the desktop. Bounds describes the
// logical screen area the image corresponds to, which may differ from the
// pixel dimensions of Image on scaled (HiDPI) displays.
type Screenshot struct {
	Image      image.Image
	Bounds     image.Rectangle
	CapturedAt time.Time
}

// EncodedImage is a screenshot prepared for submission to a remote model:
// downscaled, JPEG-encoded, with the factor needed to map image coordinates
// back to logical screen coordinates.
type EncodedImage struct {
	Data     []byte
	MIMEType string
	// ScaleX/ScaleY convert a coordinate in the encoded image to logical
	// screen space (screen = image * scale).
	ScaleX float64
	ScaleY float64
}

// ExecStatus is the Action Executor's raw outcome, free of any task-level
// success judgment.
type ExecStatus string

const (
	ExecSuccess ExecStatus = "SUCCESS"
	ExecFailure ExecStatus = "FAILURE"
)

// ExecutorResult reports what the executor actually did.
type ExecutorResult struct {
	Status    ExecStatus `json:"status"`
	ErrorCode string     `json:"error_code,omitempty"`
	Detail    string     `json:"detail,omitempty"`
}

// ExecutionRecord is one entry in Execution Memory: a single attempt at a
// single Step, with everything observed around it. Records are append-only.
type ExecutionRecord struct {
	ID           string         `json:"id"`
	PlanRevision int            `json:"plan_revision"`
	Step         Step           `json:"step"`
	Attempt      int            `json:"attempt"`
	Resolved     *Point         `json:"resolved,omitempty"` // nil when the step needed no target or localization missed.
	Executor     ExecutorResult `json:"executor"`
	Before       string         `json:"before"` // Textual reference to the pre-action observation.
	After        string         `json:"after"`  // Textual reference to the post-action observation.
	Judgment     StepJudgment   `json:"judgment"`
	Timestamp    time.Time      `json:"timestamp"`
}

// Terminal reports whether the record carries a final verdict for its attempt.
func (r ExecutionRecord) Terminal() bool {
	return r.Judgment.Verdict == JudgmentSuccess ||
		r.Judgment.Verdict == JudgmentFailure ||
		r.Judgment.Verdict == JudgmentAmbiguous
}

// OutcomeStatus is the terminal status of a whole task.
type OutcomeStatus string

const (
	OutcomeCompleted OutcomeStatus = "COMPLETED"
	OutcomeFailed    OutcomeStatus = "FAILED"
	OutcomeAborted   OutcomeStatus = "ABORTED" // Budget exhausted; distinct from Failed.
)

// TaskOutcome is produced exactly once per task. Summary is always
// human-readable; for failures it names the step and the cause.
type TaskOutcome struct {
	Status      OutcomeStatus `json:"status"`
	Summary     string        `json:"summary"`
	FailedStep  *Step         `json:"failed_step,omitempty"`
	RecordCount int           `json:"record_count"`
	Elapsed     time.Duration `json:"elapsed"`
}
