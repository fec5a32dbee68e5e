// Package model wraps the pretrained gradient-boosted tree classifier. The
// artifact is an XGBoost JSON dump loaded once at startup; load failure
// leaves the service in a degraded mode where inference is unavailable but
// cached historical reports still serve.
package model

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"

	"github.com/quakepredict/quakepredict-go/internal/errors"
	"github.com/quakepredict/quakepredict-go/internal/logging"
)

var modelLogger *slog.Logger

func init() {
	modelLogger = logging.ForService("model")
}

// ErrModelUnavailable is returned for inference attempts when no model is
// loaded. The rest of the service stays usable.
var ErrModelUnavailable = errors.NewStd("risk model unavailable")

// Model is a loaded tree-ensemble binary classifier. Immutable after Load.
type Model struct {
	path         string
	featureNames []string
	trees        []tree
	baseMargin   float64
	objective    string
}

// tree is one regression tree in structure-of-arrays form, as stored in the
// artifact. Leaf nodes carry their output value in splitConditions.
type tree struct {
	leftChildren    []int
	rightChildren   []int
	splitIndices    []int
	splitConditions []float64
	defaultLeft     []bool
}

// artifact mirrors the parts of the XGBoost JSON model format we consume.
type artifact struct {
	Learner struct {
		FeatureNames      []string `json:"feature_names"`
		LearnerModelParam struct {
			BaseScore  string `json:"base_score"`
			NumFeature string `json:"num_feature"`
		} `json:"learner_model_param"`
		Objective struct {
			Name string `json:"name"`
		} `json:"objective"`
		GradientBooster struct {
			Name  string `json:"name"`
			Model struct {
				Trees []rawTree `json:"trees"`
			} `json:"model"`
		} `json:"gradient_booster"`
	} `json:"learner"`
}

type rawTree struct {
	LeftChildren    []int         `json:"left_children"`
	RightChildren   []int         `json:"right_children"`
	SplitIndices    []int         `json:"split_indices"`
	SplitConditions []float64     `json:"split_conditions"`
	DefaultLeft     []flexibleInt `json:"default_left"`
}

// flexibleInt accepts both the integer and boolean encodings xgboost
// versions have used for default_left.
type flexibleInt bool

func (f *flexibleInt) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "true", "1":
		*f = true
	case "false", "0":
		*f = false
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*f = n != 0
	}
	return nil
}

func newLoadError(cause error, path string) error {
	return errors.New(cause).
		Component("model").
		Category(errors.CategoryModelLoad).
		Context("model_path", path).
		Build()
}

// Load reads and validates the model artifact at path. The artifact must
// carry an explicit ordered feature-name list; the feature builder validates
// against it before every inference call.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newLoadError(fmt.Errorf("reading model artifact: %w", err), path)
	}

	var raw artifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, newLoadError(fmt.Errorf("parsing model artifact: %w", err), path)
	}

	learner := &raw.Learner
	if len(learner.FeatureNames) == 0 {
		return nil, newLoadError(fmt.Errorf("model artifact carries no feature_names list"), path)
	}
	if learner.GradientBooster.Name != "" && learner.GradientBooster.Name != "gbtree" {
		return nil, newLoadError(fmt.Errorf("unsupported booster type: %s", learner.GradientBooster.Name), path)
	}
	if len(learner.GradientBooster.Model.Trees) == 0 {
		return nil, newLoadError(fmt.Errorf("model artifact contains no trees"), path)
	}

	trees := make([]tree, 0, len(learner.GradientBooster.Model.Trees))
	for i := range learner.GradientBooster.Model.Trees {
		rt := &learner.GradientBooster.Model.Trees[i]
		n := len(rt.LeftChildren)
		if n == 0 || len(rt.RightChildren) != n || len(rt.SplitIndices) != n ||
			len(rt.SplitConditions) != n || len(rt.DefaultLeft) != n {
			return nil, newLoadError(fmt.Errorf("tree %d has inconsistent node arrays", i), path)
		}
		t := tree{
			leftChildren:    rt.LeftChildren,
			rightChildren:   rt.RightChildren,
			splitIndices:    rt.SplitIndices,
			splitConditions: rt.SplitConditions,
			defaultLeft:     make([]bool, n),
		}
		for j, d := range rt.DefaultLeft {
			t.defaultLeft[j] = bool(d)
		}
		trees = append(trees, t)
	}

	m := &Model{
		path:         path,
		featureNames: learner.FeatureNames,
		trees:        trees,
		baseMargin:   parseBaseMargin(learner.LearnerModelParam.BaseScore),
		objective:    learner.Objective.Name,
	}

	modelLogger.Info("Risk model loaded",
		"path", path,
		"features", len(m.featureNames),
		"trees", len(m.trees),
		"objective", m.objective,
	)
	return m, nil
}

// parseBaseMargin converts the artifact's base_score, stored in probability
// space, into margin space. Falls back to the neutral margin on any parse
// problem.
func parseBaseMargin(baseScore string) float64 {
	if baseScore == "" {
		return 0
	}
	p, err := strconv.ParseFloat(baseScore, 64)
	if err != nil || p <= 0 || p >= 1 {
		return 0
	}
	return math.Log(p / (1 - p))
}

// FeatureNames returns the ordered feature-name list the model was trained
// with. The returned slice must not be mutated.
func (m *Model) FeatureNames() []string {
	return m.featureNames
}

// NumTrees returns the ensemble size.
func (m *Model) NumTrees() int {
	return len(m.trees)
}

// Predict runs the ensemble on a feature vector whose values are ordered
// exactly as FeatureNames and returns the positive-class probability.
func (m *Model) Predict(values []float64) (float64, error) {
	if len(values) != len(m.featureNames) {
		return 0, errors.Newf("feature vector has %d values, model expects %d", len(values), len(m.featureNames)).
			Component("model").
			Category(errors.CategoryValidation).
			Build()
	}

	margin := m.baseMargin
	for i := range m.trees {
		margin += m.trees[i].score(values)
	}

	return sigmoid(margin), nil
}

// score walks a single tree to its leaf for the given feature values.
func (t *tree) score(values []float64) float64 {
	node := 0
	for t.leftChildren[node] != -1 {
		v := values[t.splitIndices[node]]
		switch {
		case math.IsNaN(v):
			if t.defaultLeft[node] {
				node = t.leftChildren[node]
			} else {
				node = t.rightChildren[node]
			}
		case v < t.splitConditions[node]:
			node = t.leftChildren[node]
		default:
			node = t.rightChildren[node]
		}
	}
	return t.splitConditions[node]
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
