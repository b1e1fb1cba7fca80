package eval

import (
	"github.com/hscells/resample/learning"
	"math"
)

type classificationError struct{}
type accuracy struct{}
type logLoss struct{}
type meanSquaredError struct{}
type rootMeanSquaredError struct{}
type meanAbsoluteError struct{}

var (
	// ClassificationError is the share of misclassified rows.
	ClassificationError = classificationError{}
	// Accuracy is the share of correctly classified rows.
	Accuracy = accuracy{}
	// LogLoss is the mean negative log probability of the true class. It needs probabilistic predictions.
	LogLoss = logLoss{}
	// MeanSquaredError is the mean squared residual.
	MeanSquaredError = meanSquaredError{}
	// RootMeanSquaredError is the square root of MeanSquaredError.
	RootMeanSquaredError = rootMeanSquaredError{}
	// MeanAbsoluteError is the mean absolute residual.
	MeanAbsoluteError = meanAbsoluteError{}
)

func (classificationError) Name() string {
	return "classif.ce"
}

func (classificationError) Minimize() bool {
	return true
}

func (classificationError) Score(p *learning.Prediction) float64 {
	truth, response := pairs(p)
	if len(truth) == 0 {
		return math.NaN()
	}
	wrong := 0.0
	for i := range truth {
		if truth[i] != response[i] {
			wrong++
		}
	}
	return wrong / float64(len(truth))
}

func (accuracy) Name() string {
	return "classif.acc"
}

func (accuracy) Minimize() bool {
	return false
}

func (accuracy) Score(p *learning.Prediction) float64 {
	return 1 - ClassificationError.Score(p)
}

func (logLoss) Name() string {
	return "classif.logloss"
}

func (logLoss) Minimize() bool {
	return true
}

func (logLoss) Score(p *learning.Prediction) float64 {
	if p == nil || len(p.Prob) != len(p.Truth) {
		return math.NaN()
	}
	const eps = 1e-15
	sum, n := 0.0, 0
	for i, prob := range p.Prob {
		k := int(p.Truth[i])
		if math.IsNaN(p.Response[i]) || k >= len(prob) {
			continue
		}
		sum -= math.Log(math.Max(prob[k], eps))
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

func (meanSquaredError) Name() string {
	return "regr.mse"
}

func (meanSquaredError) Minimize() bool {
	return true
}

func (meanSquaredError) Score(p *learning.Prediction) float64 {
	truth, response := pairs(p)
	if len(truth) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for i := range truth {
		d := truth[i] - response[i]
		sum += d * d
	}
	return sum / float64(len(truth))
}

func (rootMeanSquaredError) Name() string {
	return "regr.rmse"
}

func (rootMeanSquaredError) Minimize() bool {
	return true
}

func (rootMeanSquaredError) Score(p *learning.Prediction) float64 {
	return math.Sqrt(MeanSquaredError.Score(p))
}

func (meanAbsoluteError) Name() string {
	return "regr.mae"
}

func (meanAbsoluteError) Minimize() bool {
	return true
}

func (meanAbsoluteError) Score(p *learning.Prediction) float64 {
	truth, response := pairs(p)
	if len(truth) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for i := range truth {
		sum += math.Abs(truth[i] - response[i])
	}
	return sum / float64(len(truth))
}
