package mastery

// Trend describes the direction of a skill's ability estimate between
// two consecutive updates.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// TrendThreshold is the theta change needed to leave TrendStable.
const TrendThreshold = 0.2

// Valid reports whether t is a known trend.
func (t Trend) Valid() bool {
	switch t {
	case TrendImproving, TrendStable, TrendDeclining:
		return true
	}
	return false
}

// TrendOf compares the new theta with the previous one.
func TrendOf(theta, prevTheta float64) Trend {
	switch {
	case theta > prevTheta+TrendThreshold:
		return TrendImproving
	case theta < prevTheta-TrendThreshold:
		return TrendDeclining
	default:
		return TrendStable
	}
}
