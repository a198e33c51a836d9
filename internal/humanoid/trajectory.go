// File: internal/humanoid/trajectory.go
package humanoid

import (
	"math"
	"math/rand"
	"time"
)

// computeEaseInOutCubic provides a smooth acceleration and deceleration
// profile for pointer movement.
func computeEaseInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// movementDuration derives a realistic travel time from Fitts's law, which
// models the time needed to acquire a target of a given width at a distance.
func movementDuration(distance, fittsA, fittsB float64, rng *rand.Rand) time.Duration {
	const targetWidth = 30.0 // Assumed default target width in pixels.

	id := math.Log2(1.0 + distance/targetWidth)
	mt := fittsA + fittsB*id

	// +/- 15% randomization so repeated movements never take identical time.
	mt += mt * (rng.Float64()*0.3 - 0.15)

	return time.Duration(mt) * time.Millisecond
}

// generatePath builds a cubic Bezier curve from start to end with slightly
// perturbed control points, producing the gentle arc of a real hand movement.
func generatePath(start, end Vector2D, numSteps int, rng *rand.Rand) []Vector2D {
	dist := start.Dist(end)
	if dist < 1.0 || numSteps <= 1 {
		return []Vector2D{end}
	}

	// Control points sit a third and two thirds along the straight line,
	// displaced perpendicular to it by up to 8% of the travel distance.
	dir := end.Sub(start).Mul(1.0 / dist)
	perp := Vector2D{X: -dir.Y, Y: dir.X}

	offset1 := (rng.Float64()*2 - 1) * dist * 0.08
	offset2 := (rng.Float64()*2 - 1) * dist * 0.08
	p0 := start
	p1 := start.Add(dir.Mul(dist / 3.0)).Add(perp.Mul(offset1))
	p2 := start.Add(dir.Mul(dist * 2.0 / 3.0)).Add(perp.Mul(offset2))
	p3 := end

	path := make([]Vector2D, numSteps)
	for i := 0; i < numSteps; i++ {
		t := float64(i) / float64(numSteps-1)
		omt := 1.0 - t
		omt2 := omt * omt
		omt3 := omt2 * omt
		t2 := t * t
		t3 := t2 * t

		path[i] = p0.Mul(omt3).Add(p1.Mul(3 * omt2 * t)).Add(p2.Mul(3 * omt * t2)).Add(p3.Mul(t3))
	}
	return path
}
