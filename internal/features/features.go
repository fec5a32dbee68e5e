// Package features reduces a weather window and a location into the
// fixed-order numeric vector consumed by the risk model.
package features

import (
	"math"

	"github.com/quakepredict/quakepredict-go/internal/errors"
	"github.com/quakepredict/quakepredict-go/internal/registry"
	"github.com/quakepredict/quakepredict-go/internal/weather"
)

// WindowSize is the number of daily observations a feature vector is
// computed from: 30 days of lookback plus the current day.
const WindowSize = 31

// Feature names as stored in the model artifact.
const (
	FeatureLatitude      = "latitud"
	FeatureLongitude     = "longitud"
	FeaturePrecipSum     = "precip_sum"
	FeatureTempMean      = "temp_mean"
	FeatureTempStd       = "temp_std"
	FeaturePressureMean  = "pres_mean"
	FeaturePressureDelta = "pres_delta"
)

// ErrSchemaMismatch is returned when the model's feature order references a
// field the builder does not produce. It indicates a deployment
// inconsistency between the model artifact and this binary.
var ErrSchemaMismatch = errors.NewStd("feature schema mismatch")

// Vector is a feature vector whose value order matches the name order
// requested at build time.
type Vector struct {
	Names  []string
	Values []float64
}

// Build computes the seven scalar features from the window and projects them
// into the order given by featureOrder, which callers capture from the
// loaded model. Reordering is a pure projection, values never depend on the
// requested order.
//
// The window is restricted to its last WindowSize observations even if the
// provider returned more. Standard deviation uses the sample estimator and
// degrades to 0.0 for windows with fewer than two observations.
func Build(region registry.Region, window *weather.Window, featureOrder []string) (*Vector, error) {
	if window == nil || window.Len() == 0 {
		return nil, errors.Newf("cannot build features from an empty weather window").
			Component("features").
			Category(errors.CategoryValidation).
			Context("region", region.Name).
			Build()
	}

	obs := window.Observations
	if len(obs) > WindowSize {
		obs = obs[len(obs)-WindowSize:]
	}

	var precipSum, tempSum, pressureSum float64
	for i := range obs {
		precipSum += obs[i].Precipitation
		tempSum += obs[i].Temperature
		pressureSum += obs[i].Pressure
	}
	n := float64(len(obs))
	tempMean := tempSum / n
	pressureMean := pressureSum / n

	tempStd := 0.0
	if len(obs) > 1 {
		var sqSum float64
		for i := range obs {
			d := obs[i].Temperature - tempMean
			sqSum += d * d
		}
		tempStd = math.Sqrt(sqSum / (n - 1))
	}

	pressureDelta := obs[len(obs)-1].Pressure - obs[0].Pressure

	byName := map[string]float64{
		FeatureLatitude:      region.Latitude,
		FeatureLongitude:     region.Longitude,
		FeaturePrecipSum:     precipSum,
		FeatureTempMean:      tempMean,
		FeatureTempStd:       tempStd,
		FeaturePressureMean:  pressureMean,
		FeaturePressureDelta: pressureDelta,
	}

	vector := &Vector{
		Names:  make([]string, 0, len(featureOrder)),
		Values: make([]float64, 0, len(featureOrder)),
	}
	for _, name := range featureOrder {
		value, ok := byName[name]
		if !ok {
			return nil, errors.Newf("%w: model expects feature %q which the builder does not produce", ErrSchemaMismatch, name).
				Component("features").
				Category(errors.CategoryValidation).
				Context("region", region.Name).
				Context("feature", name).
				Build()
		}
		vector.Names = append(vector.Names, name)
		vector.Values = append(vector.Values, value)
	}

	return vector, nil
}
