// Package risk derives risk buckets from model probabilities and serves the
// daily per-region risk snapshot through a read-through report cache.
package risk

// Level is an ordinal risk bucket.
type Level string

const (
	LevelLow      Level = "LOW"
	LevelModerate Level = "MODERATE"
	LevelHigh     Level = "HIGH"
)

// Display colors per bucket. Presentation only, never persisted, so a future
// color-scheme change applies retroactively to historical reports.
const (
	ColorLow      = "#28a745"
	ColorModerate = "#ffc107"
	ColorHigh     = "#dc3545"
)

// Bucket thresholds. Boundary values belong to the upper bucket.
const (
	ThresholdModerate = 0.30
	ThresholdHigh     = 0.70
)

// Classify maps a probability to its risk bucket and display color.
func Classify(probability float64) (Level, string) {
	switch {
	case probability < ThresholdModerate:
		return LevelLow, ColorLow
	case probability < ThresholdHigh:
		return LevelModerate, ColorModerate
	default:
		return LevelHigh, ColorHigh
	}
}

// ColorFor returns the display color for a stored risk level, recomputed
// from the probability so level and color always agree.
func ColorFor(probability float64) string {
	_, color := Classify(probability)
	return color
}
