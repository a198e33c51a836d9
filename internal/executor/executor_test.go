// File: internal/executor/executor_test.go
package executor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jhemmrich/deskpilot/api/schemas"
	"github.com/jhemmrich/deskpilot/internal/config"
)

// recordingDriver captures the sequence of input calls so tests can assert
// ordering, and injects a failure when failOn matches a call name.
type recordingDriver struct {
	calls  []string
	failOn string
}

func (d *recordingDriver) record(call string) error {
	d.calls = append(d.calls, call)
	if d.failOn != "" && d.failOn == callName(call) {
		return errors.New("input rejected")
	}
	return nil
}

func callName(call string) string {
	for i, c := range call {
		if c == '(' {
			return call[:i]
		}
	}
	return call
}

func (d *recordingDriver) MoveMouse(ctx context.Context, x, y int) error {
	return d.record(fmt.Sprintf("MoveMouse(%d,%d)", x, y))
}

func (d *recordingDriver) Click(ctx context.Context, x, y int, double bool) error {
	return d.record(fmt.Sprintf("Click(%d,%d,%t)", x, y, double))
}

func (d *recordingDriver) TypeText(ctx context.Context, text string) error {
	return d.record(fmt.Sprintf("TypeText(%s)", text))
}

func (d *recordingDriver) KeyCombo(ctx context.Context, keys []string) error {
	return d.record(fmt.Sprintf("KeyCombo(%v)", keys))
}

func (d *recordingDriver) Scroll(ctx context.Context, dx, dy int) error {
	return d.record(fmt.Sprintf("Scroll(%d,%d)", dx, dy))
}

func (d *recordingDriver) RunCommand(ctx context.Context, command string) error {
	return d.record(fmt.Sprintf("RunCommand(%s)", command))
}

func (d *recordingDriver) OpenApplication(ctx context.Context, name string) error {
	return d.record(fmt.Sprintf("OpenApplication(%s)", name))
}

func (d *recordingDriver) MousePosition() (int, int) { return 0, 0 }

func testExecutorConfig() config.ExecutorConfig {
	return config.ExecutorConfig{
		SettleDelay:    time.Millisecond,
		CommandTimeout: time.Second,
	}
}

func newTestExecutor(driver *recordingDriver) (*Executor, *[]time.Duration) {
	e := New(driver, nil, testExecutorConfig(), zap.NewNop())
	var sleeps []time.Duration
	e.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}
	return e, &sleeps
}

func TestPerformClick(t *testing.T) {
	driver := &recordingDriver{}
	e, sleeps := newTestExecutor(driver)

	step := schemas.Step{Kind: schemas.ActionClickTarget, Target: "the button", ExpectedOutcome: "clicked"}
	result, err := e.Perform(context.Background(), step, &schemas.Point{X: 50, Y: 60})

	require.NoError(t, err)
	assert.Equal(t, schemas.ExecSuccess, result.Status)
	assert.Equal(t, []string{"MoveMouse(50,60)", "Click(50,60,false)"}, driver.calls)
	// One settle delay after the action.
	assert.Equal(t, []time.Duration{time.Millisecond}, *sleeps)
}

func TestPerformDoubleClick(t *testing.T) {
	driver := &recordingDriver{}
	e, _ := newTestExecutor(driver)

	step := schemas.Step{Kind: schemas.ActionDoubleClickTarget, Target: "the icon", ExpectedOutcome: "opened"}
	result, err := e.Perform(context.Background(), step, &schemas.Point{X: 5, Y: 5})

	require.NoError(t, err)
	assert.Equal(t, schemas.ExecSuccess, result.Status)
	assert.Equal(t, []string{"MoveMouse(5,5)", "Click(5,5,true)"}, driver.calls)
}

func TestPerformClickWithoutPointFails(t *testing.T) {
	driver := &recordingDriver{}
	e, _ := newTestExecutor(driver)

	step := schemas.Step{Kind: schemas.ActionClickTarget, Target: "the button", ExpectedOutcome: "clicked"}
	result, err := e.Perform(context.Background(), step, nil)

	require.NoError(t, err)
	assert.Equal(t, schemas.ExecFailure, result.Status)
	assert.Equal(t, CodeMissingTarget, result.ErrorCode)
	assert.Empty(t, driver.calls)
}

func TestPerformInvalidStepFails(t *testing.T) {
	driver := &recordingDriver{}
	e, _ := newTestExecutor(driver)

	step := schemas.Step{Kind: schemas.ActionTypeText, ExpectedOutcome: "typed"}
	result, err := e.Perform(context.Background(), step, nil)

	require.NoError(t, err)
	assert.Equal(t, schemas.ExecFailure, result.Status)
	assert.Equal(t, CodeInvalidStep, result.ErrorCode)
	assert.Empty(t, driver.calls)
}

func TestPerformTypeMultiline(t *testing.T) {
	driver := &recordingDriver{}
	e, _ := newTestExecutor(driver)

	step := schemas.Step{
		Kind:            schemas.ActionTypeText,
		Params:          schemas.StepParams{Text: "def f():\n    return 1\n\nprint(f())"},
		ExpectedOutcome: "code entered",
	}
	result, err := e.Perform(context.Background(), step, nil)

	require.NoError(t, err)
	assert.Equal(t, schemas.ExecSuccess, result.Status)
	want := []string{
		"TypeText(def f():)",
		"KeyCombo([enter])",
		"KeyCombo([tab])",
		"TypeText(return 1)",
		"KeyCombo([enter])",
		"KeyCombo([enter])",
		"TypeText(print(f()))",
	}
	if diff := cmp.Diff(want, driver.calls); diff != "" {
		t.Errorf("input sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestPerformKeyCombo(t *testing.T) {
	driver := &recordingDriver{}
	e, _ := newTestExecutor(driver)

	step := schemas.Step{
		Kind:            schemas.ActionKeyCombo,
		Params:          schemas.StepParams{Keys: []string{"ctrl", "s"}},
		ExpectedOutcome: "saved",
	}
	result, err := e.Perform(context.Background(), step, nil)

	require.NoError(t, err)
	assert.Equal(t, schemas.ExecSuccess, result.Status)
	assert.Equal(t, []string{"KeyCombo([ctrl s])"}, driver.calls)
}

func TestPerformScrollDirections(t *testing.T) {
	cases := []struct {
		direction schemas.ScrollDirection
		amount    int
		expected  string
	}{
		{schemas.ScrollDown, 5, "Scroll(0,-5)"},
		{schemas.ScrollUp, 5, "Scroll(0,5)"},
		{schemas.ScrollLeft, 2, "Scroll(-2,0)"},
		{schemas.ScrollRight, 2, "Scroll(2,0)"},
		{schemas.ScrollDown, 0, "Scroll(0,-3)"}, // default amount
	}

	for _, tc := range cases {
		driver := &recordingDriver{}
		e, _ := newTestExecutor(driver)

		step := schemas.Step{
			Kind:            schemas.ActionScroll,
			Params:          schemas.StepParams{ScrollDirection: tc.direction, ScrollAmount: tc.amount},
			ExpectedOutcome: "scrolled",
		}
		result, err := e.Perform(context.Background(), step, nil)

		require.NoError(t, err)
		assert.Equal(t, schemas.ExecSuccess, result.Status)
		assert.Equal(t, []string{tc.expected}, driver.calls)
	}
}

func TestPerformWaitSleepsWithoutSettle(t *testing.T) {
	driver := &recordingDriver{}
	e, sleeps := newTestExecutor(driver)

	step := schemas.Step{
		Kind:            schemas.ActionWait,
		Params:          schemas.StepParams{WaitDuration: 500 * time.Millisecond},
		ExpectedOutcome: "UI settled",
	}
	result, err := e.Perform(context.Background(), step, nil)

	require.NoError(t, err)
	assert.Equal(t, schemas.ExecSuccess, result.Status)
	assert.Empty(t, driver.calls)
	// The wait itself, and no extra settle delay on top.
	assert.Equal(t, []time.Duration{500 * time.Millisecond}, *sleeps)
}

func TestPerformInputFailure(t *testing.T) {
	driver := &recordingDriver{failOn: "Click"}
	e, _ := newTestExecutor(driver)

	step := schemas.Step{Kind: schemas.ActionClickTarget, Target: "the button", ExpectedOutcome: "clicked"}
	result, err := e.Perform(context.Background(), step, &schemas.Point{X: 1, Y: 1})

	require.NoError(t, err)
	assert.Equal(t, schemas.ExecFailure, result.Status)
	assert.Equal(t, CodeInputFailed, result.ErrorCode)
	assert.Contains(t, result.Detail, "input rejected")
}

func TestPerformSpawnFailureCode(t *testing.T) {
	driver := &recordingDriver{failOn: "RunCommand"}
	e, _ := newTestExecutor(driver)

	step := schemas.Step{
		Kind:            schemas.ActionRunCommand,
		Params:          schemas.StepParams{Command: "definitely-not-a-command"},
		ExpectedOutcome: "command ran",
	}
	result, err := e.Perform(context.Background(), step, nil)

	require.NoError(t, err)
	assert.Equal(t, schemas.ExecFailure, result.Status)
	assert.Equal(t, CodeSpawnFailed, result.ErrorCode)
}

func TestPerformCustomStepUnsupported(t *testing.T) {
	driver := &recordingDriver{}
	e, _ := newTestExecutor(driver)

	step := schemas.Step{
		Kind:            schemas.ActionCustom,
		Params:          schemas.StepParams{Description: "do something vague"},
		ExpectedOutcome: "something happens",
	}
	result, err := e.Perform(context.Background(), step, nil)

	require.NoError(t, err)
	assert.Equal(t, schemas.ExecFailure, result.Status)
	assert.Equal(t, CodeUnsupported, result.ErrorCode)
	assert.Empty(t, driver.calls)
}

func TestPerformCancelledContext(t *testing.T) {
	driver := &recordingDriver{}
	e, _ := newTestExecutor(driver)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	step := schemas.Step{Kind: schemas.ActionClickTarget, Target: "the button", ExpectedOutcome: "clicked"}
	_, err := e.Perform(ctx, step, &schemas.Point{X: 1, Y: 1})

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, driver.calls)
}

func TestSplitIndent(t *testing.T) {
	cases := []struct {
		line string
		tabs int
		rest string
	}{
		{"plain", 0, "plain"},
		{"    indented", 1, "indented"},
		{"        deep", 2, "deep"},
		{"\ttabbed", 1, "tabbed"},
		{"\t    mixed", 2, "mixed"},
		{"    ", 1, ""},
		{"", 0, ""},
	}
	for _, tc := range cases {
		tabs, rest := splitIndent(tc.line)
		assert.Equal(t, tc.tabs, tabs, "line %q", tc.line)
		assert.Equal(t, tc.rest, rest, "line %q", tc.line)
	}
}
