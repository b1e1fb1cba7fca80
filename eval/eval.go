// Package eval scores the predictions made during resampling.
package eval

import (
	"fmt"
	"github.com/hscells/resample/learning"
	"gonum.org/v1/gonum/stat"
	"math"
	"sort"
)

// Measure is a performance measure computed on a single prediction. Rows without a response are not scored; a
// prediction with nothing to score scores NaN.
type Measure interface {
	Score(p *learning.Prediction) float64
	Name() string
	// Minimize reports whether lower scores are better.
	Minimize() bool
}

var registry = map[string]Measure{}

func register(ms ...Measure) {
	for _, m := range ms {
		registry[m.Name()] = m
	}
}

func init() {
	register(ClassificationError, Accuracy, LogLoss, MeanSquaredError, RootMeanSquaredError, MeanAbsoluteError)
}

// Get finds a measure by name.
func Get(name string) (Measure, error) {
	if m, ok := registry[name]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("no measure named %s", name)
}

// Names lists the names of all measures.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default is the measure used when none is given for a task type.
func Default(kind learning.TaskType) Measure {
	if kind == learning.Regression {
		return MeanSquaredError
	}
	return ClassificationError
}

// Evaluate scores each prediction with every measure. Predictions are keyed by iteration.
func Evaluate(measures []Measure, predictions map[int]*learning.Prediction) map[int]map[string]float64 {
	scores := make(map[int]map[string]float64, len(predictions))
	for i, p := range predictions {
		scores[i] = make(map[string]float64, len(measures))
		for _, m := range measures {
			scores[i][m.Name()] = m.Score(p)
		}
	}
	return scores
}

// Aggregate computes the mean and standard deviation of scores, ignoring NaN.
func Aggregate(scores []float64) (mean, sd float64) {
	var x []float64
	for _, s := range scores {
		if !math.IsNaN(s) {
			x = append(x, s)
		}
	}
	if len(x) == 0 {
		return math.NaN(), math.NaN()
	}
	if len(x) == 1 {
		return x[0], math.NaN()
	}
	return stat.MeanStdDev(x, nil)
}

// pairs returns the truth and response of the rows that have a response.
func pairs(p *learning.Prediction) (truth, response []float64) {
	if p == nil {
		return nil, nil
	}
	for i, r := range p.Response {
		if math.IsNaN(r) || i >= len(p.Truth) {
			continue
		}
		truth = append(truth, p.Truth[i])
		response = append(response, r)
	}
	return
}
