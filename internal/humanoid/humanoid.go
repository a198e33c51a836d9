// File: internal/humanoid/humanoid.go
// Human-like pointer movement and typing cadence on top of the raw input
// driver: Fitts's-law durations, eased Bezier trajectories, and normally
// distributed inter-key delays, all in desktop coordinates.
package humanoid

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/aquilax/go-perlin"
	"go.uber.org/zap"

	"github.com/jhemmrich/deskpilot/internal/config"
	"github.com/jhemmrich/deskpilot/internal/input"
)

// Humanoid drives the input layer along realistic paths and rhythms.
type Humanoid struct {
	driver input.Driver
	cfg    config.HumanoidConfig
	logger *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
	// Perlin generators produce the slow, correlated hand drift that plain
	// gaussian noise cannot; one per axis so X and Y wander independently.
	noiseX *perlin.Perlin
	noiseY *perlin.Perlin
}

// New creates a Humanoid over the given driver.
func New(driver input.Driver, cfg config.HumanoidConfig, logger *zap.Logger) *Humanoid {
	seed := time.Now().UnixNano()
	return &Humanoid{
		driver: driver,
		cfg:    cfg,
		logger: logger.Named("humanoid"),
		rng:    rand.New(rand.NewSource(seed)),
		noiseX: perlin.NewPerlin(2, 2, 3, seed),
		noiseY: perlin.NewPerlin(2, 2, 3, seed+1),
	}
}

// MoveTo moves the pointer from its current position to (x, y) along a
// human-like trajectory, sleeping between dispatched positions so the whole
// movement takes a Fitts's-law-plausible duration.
func (h *Humanoid) MoveTo(ctx context.Context, x, y int) error {
	curX, curY := h.driver.MousePosition()
	start := Vector2D{X: float64(curX), Y: float64(curY)}
	end := Vector2D{X: float64(x), Y: float64(y)}

	h.mu.Lock()
	duration := movementDuration(start.Dist(end), h.cfg.FittsA, h.cfg.FittsB, h.rng)
	h.mu.Unlock()

	numSteps := int(duration.Seconds() * 100)
	if numSteps < 2 {
		numSteps = 2
	}

	h.mu.Lock()
	path := generatePath(start, end, numSteps, h.rng)
	h.mu.Unlock()

	startTime := time.Now()
	for i := range path {
		if err := ctx.Err(); err != nil {
			return err
		}

		t := float64(i) / float64(len(path)-1)
		easedT := computeEaseInOutCubic(t)

		idx := int(easedT * float64(len(path)-1))
		if idx >= len(path) {
			idx = len(path) - 1
		}
		elapsed := time.Since(startTime).Seconds()
		pos := h.jitter(h.drift(path[idx], elapsed))

		// Pace the dispatches so the movement lands on its target duration.
		target := startTime.Add(time.Duration(easedT * float64(duration)))
		if wait := time.Until(target); wait > 0 {
			if err := sleepCtx(ctx, wait); err != nil {
				return err
			}
		}

		if err := h.driver.MoveMouse(ctx, int(pos.X), int(pos.Y)); err != nil {
			return err
		}
	}

	// Land exactly on the target; jitter must not survive the final position.
	return h.driver.MoveMouse(ctx, x, y)
}

// Click moves to the target and clicks it.
func (h *Humanoid) Click(ctx context.Context, x, y int, double bool) error {
	if err := h.MoveTo(ctx, x, y); err != nil {
		return err
	}
	// Brief settle between arrival and press, as a person does.
	if err := sleepCtx(ctx, h.pause(60, 25)); err != nil {
		return err
	}
	return h.driver.Click(ctx, x, y, double)
}

// Type sends the text one rune at a time with normally distributed inter-key
// delays. Newlines and tabs pass through as literal characters; the executor
// decides how structured text is broken up before it gets here.
func (h *Humanoid) Type(ctx context.Context, text string) error {
	for _, r := range text {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := h.driver.TypeText(ctx, string(r)); err != nil {
			return err
		}
		if err := sleepCtx(ctx, h.pause(h.cfg.KeyDelayMeanMs, h.cfg.KeyDelayStdDevMs)); err != nil {
			return err
		}
	}
	return nil
}

// drift adds slow perlin wander to a path position, scaled by the jitter
// amplitude. The noise is a function of elapsed time, so consecutive samples
// are correlated the way real hand tremor is.
func (h *Humanoid) drift(p Vector2D, elapsed float64) Vector2D {
	if h.cfg.JitterAmplitude <= 0 {
		return p
	}
	const frequency = 0.8
	return Vector2D{
		X: p.X + h.noiseX.Noise1D(elapsed*frequency)*h.cfg.JitterAmplitude,
		Y: p.Y + h.noiseY.Noise1D(elapsed*frequency)*h.cfg.JitterAmplitude,
	}
}

// jitter perturbs a path position with small gaussian noise.
func (h *Humanoid) jitter(p Vector2D) Vector2D {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cfg.JitterAmplitude <= 0 {
		return p
	}
	return Vector2D{
		X: p.X + h.rng.NormFloat64()*h.cfg.JitterAmplitude,
		Y: p.Y + h.rng.NormFloat64()*h.cfg.JitterAmplitude,
	}
}

// pause draws a non-negative delay from N(meanMs, stdDevMs).
func (h *Humanoid) pause(meanMs, stdDevMs float64) time.Duration {
	h.mu.Lock()
	ms := meanMs + h.rng.NormFloat64()*stdDevMs
	h.mu.Unlock()
	if ms < 0 {
		ms = 0
	}
	return time.Duration(ms * float64(time.Millisecond))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
