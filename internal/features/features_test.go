package features

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quakepredict/quakepredict-go/internal/registry"
	"github.com/quakepredict/quakepredict-go/internal/weather"
)

var defaultOrder = []string{
	FeatureLatitude, FeatureLongitude, FeaturePrecipSum,
	FeatureTempMean, FeatureTempStd, FeaturePressureMean, FeaturePressureDelta,
}

func testRegion() registry.Region {
	return registry.Region{Name: "Quito", Province: "Pichincha", Latitude: -0.23, Longitude: -78.52}
}

// makeWindow builds a window of n days with constant temperature, linearly
// falling pressure and a fixed per-day precipitation.
func makeWindow(n int, precipPerDay, temp, pressureStart, pressureStep float64) *weather.Window {
	w := &weather.Window{Latitude: -0.23, Longitude: -78.52}
	for i := range n {
		w.Observations = append(w.Observations, weather.Observation{
			Date:          fmt.Sprintf("2026-08-%02d", i+1),
			Precipitation: precipPerDay,
			Temperature:   temp,
			Pressure:      pressureStart + float64(i)*pressureStep,
		})
	}
	return w
}

func TestBuildComputesExpectedValues(t *testing.T) {
	t.Parallel()

	// 31 days, ~1.613 mm/day summing to 50, constant 18 °C, pressure falling
	// from 1013 by 0.1 hPa/day for a delta of -3.
	window := makeWindow(31, 50.0/31.0, 18.0, 1013.0, -0.1)

	vector, err := Build(testRegion(), window, defaultOrder)
	require.NoError(t, err)
	require.Len(t, vector.Values, 7)

	byName := make(map[string]float64, len(vector.Names))
	for i, name := range vector.Names {
		byName[name] = vector.Values[i]
	}

	assert.InDelta(t, -0.23, byName[FeatureLatitude], 1e-9)
	assert.InDelta(t, -78.52, byName[FeatureLongitude], 1e-9)
	assert.InDelta(t, 50.0, byName[FeaturePrecipSum], 1e-9)
	assert.InDelta(t, 18.0, byName[FeatureTempMean], 1e-9)
	assert.InDelta(t, 0.0, byName[FeatureTempStd], 1e-9)
	assert.InDelta(t, 1013.0-1.5, byName[FeaturePressureMean], 1e-9)
	assert.InDelta(t, -3.0, byName[FeaturePressureDelta], 1e-9)
}

func TestBuildSampleStdDev(t *testing.T) {
	t.Parallel()

	window := &weather.Window{
		Observations: []weather.Observation{
			{Date: "2026-08-01", Temperature: 10, Pressure: 1000},
			{Date: "2026-08-02", Temperature: 20, Pressure: 1000},
		},
	}

	vector, err := Build(testRegion(), window, []string{FeatureTempStd})
	require.NoError(t, err)

	// Sample estimator: sqrt(((10-15)^2 + (20-15)^2) / (2-1)).
	assert.InDelta(t, math.Sqrt(50), vector.Values[0], 1e-9)
}

func TestBuildSingleObservationStdDevIsZero(t *testing.T) {
	t.Parallel()

	window := &weather.Window{
		Observations: []weather.Observation{
			{Date: "2026-08-01", Temperature: 17.5, Pressure: 1010},
		},
	}

	vector, err := Build(testRegion(), window, []string{FeatureTempStd, FeaturePressureDelta})
	require.NoError(t, err)
	assert.Zero(t, vector.Values[0])
	assert.Zero(t, vector.Values[1])
}

func TestBuildRestrictsToWindowSize(t *testing.T) {
	t.Parallel()

	// 40 days of 1 mm/day; only the last 31 must count.
	window := makeWindow(40, 1.0, 18.0, 1013.0, 0)

	vector, err := Build(testRegion(), window, []string{FeaturePrecipSum})
	require.NoError(t, err)
	assert.InDelta(t, float64(WindowSize), vector.Values[0], 1e-9)
}

func TestBuildProjectionIsPure(t *testing.T) {
	t.Parallel()

	window := makeWindow(31, 2.0, 15.0, 1010.0, 0.2)
	region := testRegion()

	forward, err := Build(region, window, defaultOrder)
	require.NoError(t, err)

	reversed := make([]string, len(defaultOrder))
	for i, name := range defaultOrder {
		reversed[len(defaultOrder)-1-i] = name
	}
	backward, err := Build(region, window, reversed)
	require.NoError(t, err)

	for i, name := range defaultOrder {
		assert.Equal(t, forward.Values[i], backward.Values[len(defaultOrder)-1-i],
			"feature %s changed value under reordering", name)
	}
}

func TestBuildUnknownFeatureName(t *testing.T) {
	t.Parallel()

	window := makeWindow(31, 1.0, 18.0, 1013.0, 0)

	_, err := Build(testRegion(), window, []string{FeatureLatitude, "humidity_mean"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestBuildEmptyWindow(t *testing.T) {
	t.Parallel()

	_, err := Build(testRegion(), &weather.Window{}, defaultOrder)
	require.Error(t, err)

	_, err = Build(testRegion(), nil, defaultOrder)
	require.Error(t, err)
}
