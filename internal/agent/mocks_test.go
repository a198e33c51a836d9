package agent

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/jhemmrich/deskpilot/api/schemas"
)

// -- Planner Mock --

// MockPlanner mocks the Planner interface.
type MockPlanner struct {
	mock.Mock
}

func (m *MockPlanner) GeneratePlan(ctx context.Context, instruction, history string, shot schemas.Screenshot, revision int) (schemas.PlanDirective, error) {
	args := m.Called(ctx, instruction, history, shot, revision)
	return args.Get(0).(schemas.PlanDirective), args.Error(1)
}

func (m *MockPlanner) JudgeStep(ctx context.Context, step schemas.Step, before, after schemas.Screenshot) (schemas.StepJudgment, error) {
	args := m.Called(ctx, step, before, after)
	return args.Get(0).(schemas.StepJudgment), args.Error(1)
}

func (m *MockPlanner) ConfirmCompletion(ctx context.Context, instruction, history string, shot schemas.Screenshot) (bool, string, error) {
	args := m.Called(ctx, instruction, history, shot)
	return args.Bool(0), args.String(1), args.Error(2)
}

// -- Locator Mock --

// MockLocator mocks the Locator interface.
type MockLocator struct {
	mock.Mock
}

func (m *MockLocator) Resolve(ctx context.Context, target string, shot schemas.Screenshot) (schemas.Point, error) {
	args := m.Called(ctx, target, shot)
	return args.Get(0).(schemas.Point), args.Error(1)
}

// -- Executor Mock --

// MockExecutor mocks the Executor interface.
type MockExecutor struct {
	mock.Mock
}

func (m *MockExecutor) Perform(ctx context.Context, step schemas.Step, point *schemas.Point) (schemas.ExecutorResult, error) {
	args := m.Called(ctx, step, point)
	return args.Get(0).(schemas.ExecutorResult), args.Error(1)
}

// -- Capturer Mock --

// MockCapturer mocks the Capturer interface.
type MockCapturer struct {
	mock.Mock
}

func (m *MockCapturer) Capture() (schemas.Screenshot, error) {
	args := m.Called()
	return args.Get(0).(schemas.Screenshot), args.Error(1)
}
