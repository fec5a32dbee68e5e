package model

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testArtifact is a minimal two-leaf ensemble: one tree splitting on the
// third feature at 10.0, with leaf margins -1 and +1 and a neutral
// base_score of 0.5.
const testArtifact = `{
  "learner": {
    "feature_names": ["latitud", "longitud", "precip_sum", "temp_mean", "temp_std", "pres_mean", "pres_delta"],
    "learner_model_param": {"base_score": "0.5", "num_feature": "7"},
    "objective": {"name": "binary:logistic"},
    "gradient_booster": {
      "name": "gbtree",
      "model": {
        "trees": [
          {
            "left_children": [1, -1, -1],
            "right_children": [2, -1, -1],
            "split_indices": [2, 0, 0],
            "split_conditions": [10.0, -1.0, 1.0],
            "default_left": [1, 0, 0]
          }
        ]
      }
    }
  }
}`

func writeArtifact(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()

	m, err := Load(writeArtifact(t, testArtifact))
	require.NoError(t, err)

	assert.Equal(t, []string{"latitud", "longitud", "precip_sum", "temp_mean", "temp_std", "pres_mean", "pres_delta"}, m.FeatureNames())
	assert.Equal(t, 1, m.NumTrees())
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestLoadRejectsArtifactWithoutFeatureNames(t *testing.T) {
	t.Parallel()

	_, err := Load(writeArtifact(t, `{"learner": {"gradient_booster": {"model": {"trees": []}}}}`))
	require.Error(t, err)
}

func TestLoadRejectsInconsistentTree(t *testing.T) {
	t.Parallel()

	broken := `{
	  "learner": {
	    "feature_names": ["latitud"],
	    "gradient_booster": {
	      "model": {
	        "trees": [
	          {"left_children": [1, -1, -1], "right_children": [2, -1], "split_indices": [0, 0, 0],
	           "split_conditions": [0.5, -1.0, 1.0], "default_left": [1, 0, 0]}
	        ]
	      }
	    }
	  }
	}`
	_, err := Load(writeArtifact(t, broken))
	require.Error(t, err)
}

func TestPredict(t *testing.T) {
	t.Parallel()

	m, err := Load(writeArtifact(t, testArtifact))
	require.NoError(t, err)

	// precip_sum below the split lands in the -1 margin leaf.
	low, err := m.Predict([]float64{-0.23, -78.52, 5.0, 18.0, 0.5, 1012.0, -1.0})
	require.NoError(t, err)
	assert.InDelta(t, 1/(1+math.Exp(1)), low, 1e-9)

	// precip_sum at the split goes right, into the +1 margin leaf.
	high, err := m.Predict([]float64{-0.23, -78.52, 10.0, 18.0, 0.5, 1012.0, -1.0})
	require.NoError(t, err)
	assert.InDelta(t, 1/(1+math.Exp(-1)), high, 1e-9)

	assert.Greater(t, high, low)
}

func TestPredictMissingValueFollowsDefault(t *testing.T) {
	t.Parallel()

	m, err := Load(writeArtifact(t, testArtifact))
	require.NoError(t, err)

	// default_left is set on the root, so a NaN split feature takes the
	// left branch.
	p, err := m.Predict([]float64{-0.23, -78.52, math.NaN(), 18.0, 0.5, 1012.0, -1.0})
	require.NoError(t, err)
	assert.InDelta(t, 1/(1+math.Exp(1)), p, 1e-9)
}

func TestPredictWrongVectorLength(t *testing.T) {
	t.Parallel()

	m, err := Load(writeArtifact(t, testArtifact))
	require.NoError(t, err)

	_, err = m.Predict([]float64{1, 2, 3})
	require.Error(t, err)
}

func TestParseBaseMargin(t *testing.T) {
	t.Parallel()

	assert.Zero(t, parseBaseMargin(""))
	assert.Zero(t, parseBaseMargin("not-a-number"))
	assert.Zero(t, parseBaseMargin("0.5"))
	assert.InDelta(t, math.Log(0.2/0.8), parseBaseMargin("0.2"), 1e-9)
}

func TestFlexibleIntAcceptsBooleansAndIntegers(t *testing.T) {
	t.Parallel()

	boolForm := `{
	  "learner": {
	    "feature_names": ["latitud"],
	    "gradient_booster": {
	      "model": {
	        "trees": [
	          {"left_children": [1, -1, -1], "right_children": [2, -1, -1], "split_indices": [0, 0, 0],
	           "split_conditions": [0.5, -1.0, 1.0], "default_left": [true, false, false]}
	        ]
	      }
	    }
	  }
	}`
	m, err := Load(writeArtifact(t, boolForm))
	require.NoError(t, err)

	p, err := m.Predict([]float64{math.NaN()})
	require.NoError(t, err)
	assert.InDelta(t, 1/(1+math.Exp(1)), p, 1e-9)
}
