// File: internal/locator/locator.go
// The Click Locator turns a natural-language target description into a single
// logical screen coordinate, or reports a miss. It never fabricates a point:
// a weak or empty candidate set is a miss, not a guess.
package locator

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"

	"go.uber.org/zap"

	"github.com/jhemmrich/deskpilot/api/schemas"
	"github.com/jhemmrich/deskpilot/internal/config"
	"github.com/jhemmrich/deskpilot/internal/screen"
)

// ErrMiss reports that no candidate cleared the confidence threshold. It is a
// recoverable condition: the step handler retries or replans, it never clicks.
var ErrMiss = errors.New("target not located on screen")

// lastPointSource supplies the coordinate of the most recent successful
// interaction, used to break ties between near-equal candidates.
type lastPointSource interface {
	LastInteractionPoint() (schemas.Point, bool)
}

// Locator resolves target descriptions against live screenshots.
type Locator struct {
	vision VisionLocator
	memory lastPointSource
	cfg    config.LocatorConfig
	logger *zap.Logger
}

// New builds a Locator over a grounding service.
func New(vision VisionLocator, memory lastPointSource, cfg config.LocatorConfig, logger *zap.Logger) *Locator {
	return &Locator{
		vision: vision,
		memory: memory,
		cfg:    cfg,
		logger: logger.Named("locator"),
	}
}

// Resolve locates target on the screenshot and returns its logical screen
// coordinate. Returns ErrMiss (possibly wrapped) when the target cannot be
// found with sufficient confidence.
func (l *Locator) Resolve(ctx context.Context, target string, shot schemas.Screenshot) (schemas.Point, error) {
	encoded, err := screen.Preprocess(shot, l.cfg.MaxImageDimension, l.cfg.JPEGQuality)
	if err != nil {
		return schemas.Point{}, fmt.Errorf("failed to encode screenshot for grounding: %w", err)
	}

	candidates, err := l.vision.Candidates(ctx, target, encoded)
	if err != nil {
		return schemas.Point{}, err
	}
	if len(candidates) == 0 {
		l.logger.Info("No grounding candidates returned", zap.String("target", target))
		return schemas.Point{}, fmt.Errorf("%w: %q", ErrMiss, target)
	}

	best, ok := l.selectCandidate(candidates, encoded, shot.Bounds)
	if !ok {
		l.logger.Info("All grounding candidates below confidence threshold",
			zap.String("target", target),
			zap.Int("candidates", len(candidates)),
			zap.Float64("threshold", l.cfg.ConfidenceThreshold))
		return schemas.Point{}, fmt.Errorf("%w: %q (best confidence below threshold)", ErrMiss, target)
	}

	point := scaleToScreen(best.Point, encoded, shot.Bounds)
	point = clampToBounds(point, shot.Bounds)

	l.logger.Debug("Target resolved",
		zap.String("target", target),
		zap.Int("x", point.X),
		zap.Int("y", point.Y),
		zap.Float64("confidence", best.Confidence))
	return point, nil
}

// selectCandidate picks the winning candidate: highest confidence above the
// threshold, with near-ties (within TieTolerance) broken by proximity to the
// last successful interaction point. Candidates are in image space, so the
// screen-space anchor is mapped into image space before comparing distances.
func (l *Locator) selectCandidate(candidates []schemas.Candidate, img schemas.EncodedImage, bounds image.Rectangle) (schemas.Candidate, bool) {
	best := schemas.Candidate{Confidence: -1}
	for _, c := range candidates {
		if c.Confidence > best.Confidence {
			best = c
		}
	}
	if best.Confidence < l.cfg.ConfidenceThreshold {
		return schemas.Candidate{}, false
	}

	anchor, haveAnchor := l.memory.LastInteractionPoint()
	if !haveAnchor {
		return best, true
	}
	anchor = scaleToImage(anchor, img, bounds)

	winner := best
	winnerDist := dist(best.Point, anchor)
	for _, c := range candidates {
		if c == best {
			continue
		}
		if best.Confidence-c.Confidence > l.cfg.TieTolerance {
			continue
		}
		if d := dist(c.Point, anchor); d < winnerDist {
			winner = c
			winnerDist = d
		}
	}
	return winner, true
}

// scaleToScreen maps an image-space point into logical screen space: scale by
// the factors recorded at encode time, then translate to the display origin.
// Bounds.Min is non-zero for any display other than the primary one.
func scaleToScreen(p schemas.Point, img schemas.EncodedImage, bounds image.Rectangle) schemas.Point {
	return schemas.Point{
		X: bounds.Min.X + int(math.Round(float64(p.X)*img.ScaleX)),
		Y: bounds.Min.Y + int(math.Round(float64(p.Y)*img.ScaleY)),
	}
}

// scaleToImage is the inverse mapping, screen space back into image space.
func scaleToImage(p schemas.Point, img schemas.EncodedImage, bounds image.Rectangle) schemas.Point {
	return schemas.Point{
		X: int(math.Round(float64(p.X-bounds.Min.X) / img.ScaleX)),
		Y: int(math.Round(float64(p.Y-bounds.Min.Y) / img.ScaleY)),
	}
}

// clampToBounds keeps a point inside the visible screen area. Out-of-range
// model output is pulled to the nearest edge rather than rejected.
func clampToBounds(p schemas.Point, bounds image.Rectangle) schemas.Point {
	if p.X < bounds.Min.X {
		p.X = bounds.Min.X
	}
	if p.X >= bounds.Max.X {
		p.X = bounds.Max.X - 1
	}
	if p.Y < bounds.Min.Y {
		p.Y = bounds.Min.Y
	}
	if p.Y >= bounds.Max.Y {
		p.Y = bounds.Max.Y - 1
	}
	return p
}

func dist(a, b schemas.Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}
