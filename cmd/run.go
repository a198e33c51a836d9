// File: cmd/run.go
package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jhemmrich/deskpilot/api/schemas"
	"github.com/jhemmrich/deskpilot/internal/agent"
	"github.com/jhemmrich/deskpilot/internal/executor"
	"github.com/jhemmrich/deskpilot/internal/humanoid"
	"github.com/jhemmrich/deskpilot/internal/input"
	"github.com/jhemmrich/deskpilot/internal/llmclient"
	"github.com/jhemmrich/deskpilot/internal/locator"
	"github.com/jhemmrich/deskpilot/internal/memory"
	"github.com/jhemmrich/deskpilot/internal/observability"
	"github.com/jhemmrich/deskpilot/internal/planner"
	"github.com/jhemmrich/deskpilot/internal/screen"
)

// newRunCmd creates and configures the `run` command.
func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run \"<instruction>\"",
		Short: "Runs a natural-language task against the desktop",
		Long:  "Plans the given instruction into concrete desktop actions and executes them,\nobserving the screen after every step and adapting the plan as needed.",
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Flags override config file and environment values.
			if err := viper.BindPFlag("agent.wall_clock_budget", cmd.Flags().Lookup("budget")); err != nil {
				return err
			}
			if err := viper.BindPFlag("executor.humanoid.enabled", cmd.Flags().Lookup("humanoid")); err != nil {
				return err
			}
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg := appConfig
			if err := viper.Unmarshal(cfg); err != nil {
				return fmt.Errorf("failed to re-unmarshal config with flag overrides: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			instruction := strings.Join(args, " ")

			router, err := llmclient.NewRouterFromConfig(cfg.LLM, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize reasoning clients: %w", err)
			}

			capturer, err := screen.NewDisplayCapturer(cfg.Screen)
			if err != nil {
				return fmt.Errorf("failed to initialize screen capture: %w", err)
			}

			driver := input.NewRobotDriver(logger)
			var human *humanoid.Humanoid
			if cfg.Executor.Humanoid.Enabled {
				human = humanoid.New(driver, cfg.Executor.Humanoid, logger)
			}

			mem := memory.New(cfg.Agent.MaxMemoryRecords, logger)
			vision := locator.NewLLMVisionLocator(router, logger)
			loc := locator.New(vision, mem, cfg.Locator, logger)
			exec := executor.New(driver, human, cfg.Executor, logger)
			plan := planner.New(router, cfg.Locator.MaxImageDimension, cfg.Locator.JPEGQuality, logger)

			runner := agent.NewRunner(plan, loc, exec, mem, capturer, cfg.Agent, logger)
			runner.SetObserver(func(ev agent.Event) {
				fields := []zap.Field{
					zap.String("phase", string(ev.Phase)),
					zap.Int("revision", ev.PlanRevision),
				}
				if ev.Step != nil {
					fields = append(fields,
						zap.Int("ordinal", ev.Step.Ordinal),
						zap.String("kind", string(ev.Step.Kind)),
						zap.Int("attempt", ev.Attempt))
				}
				logger.Debug("Task progress", fields...)
			})

			outcome, err := runner.RunTask(ctx, instruction)
			if err != nil {
				return err
			}

			printOutcome(cmd, outcome)
			if outcome.Status != schemas.OutcomeCompleted {
				return fmt.Errorf("task %s: %s", strings.ToLower(string(outcome.Status)), outcome.Summary)
			}
			return nil
		},
	}

	runCmd.Flags().Duration("budget", 0, "wall-clock budget for the task (e.g. 10m)")
	runCmd.Flags().Bool("humanoid", true, "use human-like pointer movement and typing cadence")
	return runCmd
}

func printOutcome(cmd *cobra.Command, outcome schemas.TaskOutcome) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Status:  %s\n", outcome.Status)
	fmt.Fprintf(out, "Summary: %s\n", outcome.Summary)
	if outcome.FailedStep != nil {
		fmt.Fprintf(out, "Failed step: %d (%s)\n", outcome.FailedStep.Ordinal, outcome.FailedStep.Kind)
	}
	fmt.Fprintf(out, "Steps recorded: %d, elapsed: %s\n", outcome.RecordCount, outcome.Elapsed.Round(10*time.Millisecond))
}
