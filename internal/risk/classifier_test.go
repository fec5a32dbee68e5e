package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		probability float64
		wantLevel   Level
		wantColor   string
	}{
		{"zero probability", 0.0, LevelLow, ColorLow},
		{"just below moderate", 0.2999, LevelLow, ColorLow},
		{"moderate boundary belongs to moderate", 0.30, LevelModerate, ColorModerate},
		{"mid moderate", 0.45, LevelModerate, ColorModerate},
		{"just below high", 0.6999, LevelModerate, ColorModerate},
		{"high boundary belongs to high", 0.70, LevelHigh, ColorHigh},
		{"certain", 1.0, LevelHigh, ColorHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			level, color := Classify(tt.probability)
			assert.Equal(t, tt.wantLevel, level)
			assert.Equal(t, tt.wantColor, color)
		})
	}
}

func TestClassifyMonotonic(t *testing.T) {
	t.Parallel()

	rank := map[Level]int{LevelLow: 0, LevelModerate: 1, LevelHigh: 2}

	prev := LevelLow
	for p := 0.0; p <= 1.0; p += 0.01 {
		level, _ := Classify(p)
		assert.GreaterOrEqual(t, rank[level], rank[prev], "bucket regressed at p=%.2f", p)
		prev = level
	}
}

func TestColorForAgreesWithClassify(t *testing.T) {
	t.Parallel()

	for _, p := range []float64{0.0, 0.29, 0.30, 0.69, 0.70, 0.99} {
		_, color := Classify(p)
		assert.Equal(t, color, ColorFor(p))
	}
}
