// Package ability estimates a learner's latent ability ("theta") on a
// concept from their recent attempts. The model is an IRT-inspired
// heuristic: accuracy over a short recency window, minus a fixed
// penalty for slow responses.
package ability

import "github.com/abhisek/skillscope/internal/attempt"

const (
	// Window is the number of most recent attempts the estimate uses.
	Window = 10

	// MinTheta and MaxTheta bound every estimate.
	MinTheta = -3.0
	MaxTheta = 3.0

	// SlowAvgSecs is the mean response time above which the latency
	// penalty applies.
	SlowAvgSecs = 90.0

	// LatencyPenalty is subtracted from theta for slow windows.
	LatencyPenalty = 0.5
)

// Estimate returns theta for attempts ordered oldest to newest. Only the
// last Window attempts count. An empty input yields 0.
func Estimate(attempts []attempt.Record) float64 {
	if len(attempts) == 0 {
		return 0
	}

	recent := attempts
	if len(recent) > Window {
		recent = recent[len(recent)-Window:]
	}

	correct := 0
	totalSecs := 0
	for _, a := range recent {
		if a.IsCorrect {
			correct++
		}
		totalSecs += a.TimeTaken()
	}

	n := float64(len(recent))
	accuracy := float64(correct) / n
	avgSecs := float64(totalSecs) / n

	theta := (accuracy - 0.5) * 2
	if avgSecs > SlowAvgSecs {
		theta -= LatencyPenalty
	}
	return Clamp(theta)
}

// Clamp bounds theta to [MinTheta, MaxTheta].
func Clamp(theta float64) float64 {
	if theta < MinTheta {
		return MinTheta
	}
	if theta > MaxTheta {
		return MaxTheta
	}
	return theta
}

// ToMastery normalises theta to a [0, 1] mastery score.
func ToMastery(theta float64) float64 {
	return (Clamp(theta) - MinTheta) / (MaxTheta - MinTheta)
}

// FromMastery is the inverse of ToMastery.
func FromMastery(mastery float64) float64 {
	return mastery*(MaxTheta-MinTheta) + MinTheta
}
