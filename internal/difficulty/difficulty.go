// Package difficulty drives the recommended exercise difficulty, a
// five-level state machine that moves at most one step per update.
package difficulty

// Level is a recommended difficulty, 1 (easiest) through 5.
type Level int

const (
	Min     Level = 1
	Max     Level = 5
	Default Level = 3
)

// Hysteresis thresholds. Theta must strictly exceed them to move.
const (
	RaiseAbove = 1.0
	LowerBelow = -1.0
)

// Valid reports whether l is within [Min, Max].
func (l Level) Valid() bool {
	return l >= Min && l <= Max
}

// Delta returns -1, 0 or +1: the step the controller takes from current
// given theta.
func Delta(theta float64, current Level) int {
	switch {
	case theta > RaiseAbove && current < Max:
		return 1
	case theta < LowerBelow && current > Min:
		return -1
	default:
		return 0
	}
}

// Next applies Delta to current and clamps the result to [Min, Max].
func Next(theta float64, current Level) Level {
	return Clamp(current + Level(Delta(theta, current)))
}

// Clamp bounds l to [Min, Max].
func Clamp(l Level) Level {
	if l < Min {
		return Min
	}
	if l > Max {
		return Max
	}
	return l
}
