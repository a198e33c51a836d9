// File: internal/humanoid/trajectory_test.go
package humanoid

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A fixed seed keeps the randomized geometry assertions deterministic.
const testSeed = 12345

func TestComputeEaseInOutCubicBoundaries(t *testing.T) {
	assert.InDelta(t, 0.0, computeEaseInOutCubic(0), 1e-9)
	assert.InDelta(t, 0.5, computeEaseInOutCubic(0.5), 1e-9)
	assert.InDelta(t, 1.0, computeEaseInOutCubic(1), 1e-9)
}

func TestComputeEaseInOutCubicMonotonic(t *testing.T) {
	prev := computeEaseInOutCubic(0)
	for i := 1; i <= 100; i++ {
		cur := computeEaseInOutCubic(float64(i) / 100)
		assert.GreaterOrEqual(t, cur, prev, "easing must never move backwards")
		prev = cur
	}
}

func TestMovementDurationGrowsWithDistance(t *testing.T) {
	rng := rand.New(rand.NewSource(testSeed))

	short := movementDuration(10, 120, 110, rng)
	long := movementDuration(2000, 120, 110, rng)

	assert.Positive(t, short)
	assert.Greater(t, long, short)
	// Even a cross-screen movement stays within human time scales.
	assert.Less(t, long, 5*time.Second)
}

func TestMovementDurationIsRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(testSeed))

	first := movementDuration(500, 120, 110, rng)
	second := movementDuration(500, 120, 110, rng)

	assert.NotEqual(t, first, second)
}

func TestGeneratePathEndpoints(t *testing.T) {
	rng := rand.New(rand.NewSource(testSeed))
	start := Vector2D{X: 100, Y: 100}
	end := Vector2D{X: 800, Y: 400}

	path := generatePath(start, end, 50, rng)

	require.Len(t, path, 50)
	assert.InDelta(t, start.X, path[0].X, 1e-6)
	assert.InDelta(t, start.Y, path[0].Y, 1e-6)
	assert.InDelta(t, end.X, path[len(path)-1].X, 1e-6)
	assert.InDelta(t, end.Y, path[len(path)-1].Y, 1e-6)
}

func TestGeneratePathStaysNearStraightLine(t *testing.T) {
	rng := rand.New(rand.NewSource(testSeed))
	start := Vector2D{X: 0, Y: 0}
	end := Vector2D{X: 1000, Y: 0}

	path := generatePath(start, end, 100, rng)

	// Control point displacement is capped at 8% of the distance; the curve
	// itself must stay well inside that envelope.
	for _, p := range path {
		assert.LessOrEqual(t, math.Abs(p.Y), 80.0)
	}
}

func TestGeneratePathDegenerateCases(t *testing.T) {
	rng := rand.New(rand.NewSource(testSeed))
	start := Vector2D{X: 10, Y: 10}

	// Zero-distance movement collapses to the end point.
	path := generatePath(start, start, 50, rng)
	require.Len(t, path, 1)
	assert.Equal(t, start, path[0])

	// Too few steps also collapses.
	path = generatePath(start, Vector2D{X: 500, Y: 500}, 1, rng)
	require.Len(t, path, 1)
}

func TestVector2DOperations(t *testing.T) {
	a := Vector2D{X: 3, Y: 4}
	b := Vector2D{X: 1, Y: 1}

	assert.Equal(t, Vector2D{X: 4, Y: 5}, a.Add(b))
	assert.Equal(t, Vector2D{X: 2, Y: 3}, a.Sub(b))
	assert.Equal(t, Vector2D{X: 6, Y: 8}, a.Mul(2))
	assert.InDelta(t, 5.0, a.Mag(), 1e-9)
	assert.InDelta(t, math.Sqrt(13), a.Dist(b), 1e-9)
}
