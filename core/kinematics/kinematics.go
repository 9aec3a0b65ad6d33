// Package kinematics computes transit durations from a trapezoidal
// velocity profile: constant acceleration up to an effective speed limit,
// an optional cruise phase, constant deceleration down to the exit speed.
package kinematics

import (
	"errors"
	"math"
)

// ErrInvalidKinematics is returned when acceleration, deceleration or the
// achievable speed is not positive. Computing with such inputs would
// produce NaN or negative durations.
var ErrInvalidKinematics = errors.New("kinematics: acceleration, deceleration and speed must be positive")

const (
	kmhToMs = 1.0 / 3.6
	kmToM   = 1000.0
)

// Profile holds the kinematic properties of a train.
type Profile struct {
	MaxSpeedKmh float64
	AccelMS2    float64
	DecelMS2    float64
}

// TravelTime returns the time in hours to cover distanceKm under the
// segment speed limit, entering at vStartKmh and leaving at vEndKmh.
// TravelTime(0, ...) is 0.
func TravelTime(distanceKm, speedLimitKmh float64, p Profile, vStartKmh, vEndKmh float64) (float64, error) {
	if p.AccelMS2 <= 0 || p.DecelMS2 <= 0 || p.MaxSpeedKmh <= 0 || speedLimitKmh <= 0 {
		return 0, ErrInvalidKinematics
	}
	if distanceKm <= 0 {
		return 0, nil
	}

	dist := distanceKm * kmToM
	vCap := math.Min(p.MaxSpeedKmh, speedLimitKmh) * kmhToMs
	vStart := vStartKmh * kmhToMs
	vEnd := vEndKmh * kmhToMs
	a := p.AccelMS2
	d := p.DecelMS2

	accelDist := distanceToReach(vStart, vCap, a)
	brakeDist := distanceToReach(vEnd, vCap, d)

	var seconds float64
	if accelDist+brakeDist <= dist {
		// Full trapezoid: accelerate, cruise, brake.
		tAccel := (vCap - vStart) / a
		tBrake := (vCap - vEnd) / d
		tCruise := (dist - accelDist - brakeDist) / vCap
		seconds = tAccel + tCruise + tBrake
	} else {
		// Triangle profile: the cap is never reached. Solve for the peak
		// where acceleration distance plus braking distance equals dist.
		radicand := (dist + vStart*vStart/(2*a) + vEnd*vEnd/(2*d)) / (1/(2*a) + 1/(2*d))
		if radicand < 0 {
			// Pathological short-distance case: average-speed fallback.
			avg := math.Max((vStart+vEnd)/2, 1)
			return dist / avg / 3600, nil
		}
		vPeak := math.Sqrt(radicand)
		seconds = (vPeak-vStart)/a + (vPeak-vEnd)/d
	}
	return seconds / 3600, nil
}

// distanceToReach is the distance covered changing speed between v and
// target at constant rate r.
func distanceToReach(v, target, r float64) float64 {
	if target <= v {
		return 0
	}
	return (target*target - v*v) / (2 * r)
}
