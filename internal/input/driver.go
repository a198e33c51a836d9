// File: internal/input/driver.go
package input

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/go-vgo/robotgo"
	"go.uber.org/zap"
)

// Driver is the narrow contract to the OS input layer. Implementations perform
// exactly the primitive operation requested and report per-call success or
// failure; they never retry and never judge task-level success.
type Driver interface {
	MoveMouse(ctx context.Context, x, y int) error
	Click(ctx context.Context, x, y int, double bool) error
	TypeText(ctx context.Context, text string) error
	KeyCombo(ctx context.Context, keys []string) error
	Scroll(ctx context.Context, dx, dy int) error
	RunCommand(ctx context.Context, command string) error
	OpenApplication(ctx context.Context, name string) error
	MousePosition() (int, int)
}

// RobotDriver is the production Driver over robotgo.
type RobotDriver struct {
	logger *zap.Logger
}

// NewRobotDriver creates the production input driver.
func NewRobotDriver(logger *zap.Logger) *RobotDriver {
	return &RobotDriver{logger: logger.Named("input")}
}

func (d *RobotDriver) MoveMouse(ctx context.Context, x, y int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	robotgo.Move(x, y)
	return nil
}

func (d *RobotDriver) Click(ctx context.Context, x, y int, double bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	robotgo.Move(x, y)
	robotgo.Click("left", double)
	return nil
}

func (d *RobotDriver) TypeText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	robotgo.TypeStr(text)
	return nil
}

// KeyCombo taps the last key in the chord with the preceding keys held as
// modifiers, e.g. ["ctrl","s"] -> KeyTap("s", "ctrl").
func (d *RobotDriver) KeyCombo(ctx context.Context, keys []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return fmt.Errorf("empty key combo")
	}
	key := keys[len(keys)-1]
	modifiers := make([]interface{}, 0, len(keys)-1)
	for _, m := range keys[:len(keys)-1] {
		modifiers = append(modifiers, m)
	}
	if err := robotgo.KeyTap(key, modifiers...); err != nil {
		return fmt.Errorf("key tap %q failed: %w", key, err)
	}
	return nil
}

func (d *RobotDriver) Scroll(ctx context.Context, dx, dy int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	robotgo.Scroll(dx, dy)
	return nil
}

// RunCommand spawns the command through the platform shell and waits for it.
func (d *RobotDriver) RunCommand(ctx context.Context, command string) error {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", "/C", command)
	} else {
		cmd = exec.CommandContext(ctx, "sh", "-c", command)
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		d.logger.Warn("Command failed", zap.String("command", command), zap.ByteString("output", out), zap.Error(err))
		return fmt.Errorf("command %q failed: %w", command, err)
	}
	d.logger.Debug("Command finished", zap.String("command", command))
	return nil
}

// OpenApplication launches an application by name using the platform launcher.
// The launcher returns immediately; whether the app window actually appeared
// is for the judgment phase to decide.
func (d *RobotDriver) OpenApplication(ctx context.Context, name string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", "-a", name)
	case "windows":
		cmd = exec.CommandContext(ctx, "cmd", "/C", "start", "", name)
	default:
		cmd = exec.CommandContext(ctx, "sh", "-c", name+" &")
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to launch %q: %w", name, err)
	}
	// Detach; the launcher process is not our child to supervise.
	go func() { _ = cmd.Wait() }()
	return nil
}

func (d *RobotDriver) MousePosition() (int, int) {
	return robotgo.Location()
}
