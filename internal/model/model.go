// Package model loads pre-trained prediction artifacts and scores feature rows
// against them by exact feature name.
package model

import (
	"errors"
	"fmt"
	"math"
)

// Kind identifies which prediction a model serves.
type Kind string

const (
	KindRain          Kind = "rain"
	KindPrecipitation Kind = "precipitation"
)

// Estimator names the scoring function encoded in an artifact.
type Estimator string

const (
	EstimatorLinear           Estimator = "linear"
	EstimatorLogistic         Estimator = "logistic"
	EstimatorForestRegressor  Estimator = "random_forest_regressor"
	EstimatorForestClassifier Estimator = "random_forest_classifier"
)

var (
	ErrModelNotFound  = errors.New("model artifact not found")
	ErrModelInvalid   = errors.New("invalid model artifact")
	ErrUnknownKind    = errors.New("unknown model kind")
	ErrMissingFeature = errors.New("missing feature")
)

// Node is one decision-tree node. A node without a Feature is a leaf and
// carries the prediction in Value. Split nodes send x <= Threshold left.
type Node struct {
	Feature   string  `yaml:"feature,omitempty"`
	Threshold float64 `yaml:"threshold,omitempty"`
	Left      int     `yaml:"left,omitempty"`
	Right     int     `yaml:"right,omitempty"`
	Value     float64 `yaml:"value,omitempty"`
}

// Tree is a flattened decision tree rooted at Nodes[0].
type Tree struct {
	Nodes []Node `yaml:"nodes"`
}

// Model is a decoded artifact.
type Model struct {
	Name         string    `yaml:"name"`
	Estimator    Estimator `yaml:"estimator"`
	Features     []string  `yaml:"feature_names"`
	Intercept    float64   `yaml:"intercept,omitempty"`
	Coefficients []float64 `yaml:"coefficients,omitempty"`
	Trees        []Tree    `yaml:"trees,omitempty"`
}

// FeatureNames returns the ordered feature names the model was trained on.
func (m *Model) FeatureNames() []string {
	out := make([]string, len(m.Features))
	copy(out, m.Features)
	return out
}

// IsClassifier reports whether Predict returns a probability.
func (m *Model) IsClassifier() bool {
	return m.Estimator == EstimatorLogistic || m.Estimator == EstimatorForestClassifier
}

// Validate checks the artifact is internally consistent.
func (m *Model) Validate() error {
	if len(m.Features) == 0 {
		return fmt.Errorf("%w: no feature_names", ErrModelInvalid)
	}
	known := make(map[string]struct{}, len(m.Features))
	for _, f := range m.Features {
		if _, dup := known[f]; dup {
			return fmt.Errorf("%w: duplicate feature %q", ErrModelInvalid, f)
		}
		known[f] = struct{}{}
	}

	switch m.Estimator {
	case EstimatorLinear, EstimatorLogistic:
		if len(m.Coefficients) != len(m.Features) {
			return fmt.Errorf("%w: %d coefficients for %d features",
				ErrModelInvalid, len(m.Coefficients), len(m.Features))
		}
	case EstimatorForestRegressor, EstimatorForestClassifier:
		if len(m.Trees) == 0 {
			return fmt.Errorf("%w: forest has no trees", ErrModelInvalid)
		}
		for i, t := range m.Trees {
			if err := t.validate(known); err != nil {
				return fmt.Errorf("%w: tree %d: %v", ErrModelInvalid, i, err)
			}
		}
	default:
		return fmt.Errorf("%w: unknown estimator %q", ErrModelInvalid, m.Estimator)
	}
	return nil
}

func (t Tree) validate(known map[string]struct{}) error {
	if len(t.Nodes) == 0 {
		return errors.New("empty tree")
	}
	for i, n := range t.Nodes {
		if n.Feature == "" {
			continue
		}
		if _, ok := known[n.Feature]; !ok {
			return fmt.Errorf("node %d splits on unknown feature %q", i, n.Feature)
		}
		// Children must come later so evaluation always terminates.
		for _, c := range []int{n.Left, n.Right} {
			if c <= i || c >= len(t.Nodes) {
				return fmt.Errorf("node %d has invalid child %d", i, c)
			}
		}
	}
	return nil
}

// Predict scores one feature row. Every model feature must be present;
// use Align to zero-fill first.
func (m *Model) Predict(features map[string]float64) (float64, error) {
	for _, f := range m.Features {
		v, ok := features[f]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrMissingFeature, f)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("feature %s is not finite", f)
		}
	}

	switch m.Estimator {
	case EstimatorLinear:
		return m.linear(features), nil
	case EstimatorLogistic:
		return sigmoid(m.linear(features)), nil
	case EstimatorForestRegressor, EstimatorForestClassifier:
		var sum float64
		for _, t := range m.Trees {
			sum += t.eval(features)
		}
		return sum / float64(len(m.Trees)), nil
	default:
		return 0, fmt.Errorf("%w: unknown estimator %q", ErrModelInvalid, m.Estimator)
	}
}

func (m *Model) linear(features map[string]float64) float64 {
	z := m.Intercept
	for i, f := range m.Features {
		z += m.Coefficients[i] * features[f]
	}
	return z
}

func (t Tree) eval(features map[string]float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature == "" {
			return n.Value
		}
		if features[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// Align returns a copy of features restricted to names, filling absent names
// with zero. The filled names are returned in model order.
func Align(features map[string]float64, names []string) (map[string]float64, []string) {
	out := make(map[string]float64, len(names))
	var filled []string
	for _, n := range names {
		v, ok := features[n]
		if !ok {
			filled = append(filled, n)
			v = 0
		}
		out[n] = v
	}
	return out, filled
}
