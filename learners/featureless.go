package learners

import (
	"fmt"
	"github.com/hscells/resample/capsule"
	"github.com/hscells/resample/learning"
	"gonum.org/v1/gonum/stat"
	"sort"
)

// Featureless ignores the features and predicts a constant: the most frequent class of a classification task,
// or the mean or median target of a regression task.
type Featureless struct {
	// Method is "mode" for classification, "mean" or "median" for regression.
	Method string
}

// FeaturelessModel is the constant a Featureless learner predicts.
type FeaturelessModel struct {
	Kind     learning.TaskType
	Value    float64
	Prob     []float64
	Classes  []string
	Observed int
}

func (f Featureless) Train(task learning.Task, c *capsule.Console) (interface{}, error) {
	d, ok := task.(learning.Dataset)
	if !ok {
		return nil, fmt.Errorf("task %s does not provide data", task.ID())
	}
	_, y, err := d.Data(task.ActiveRows())
	if err != nil {
		return nil, err
	}
	if len(y) == 0 {
		return nil, fmt.Errorf("no rows to train on")
	}

	m := FeaturelessModel{Kind: task.Type(), Classes: d.Levels(), Observed: len(y)}
	switch task.Type() {
	case learning.Classification:
		if f.Method != "" && f.Method != "mode" {
			return nil, fmt.Errorf("method %q is not supported for classification", f.Method)
		}
		m.Prob = make([]float64, len(m.Classes))
		for _, v := range y {
			m.Prob[int(v)]++
		}
		for i := range m.Prob {
			m.Prob[i] /= float64(len(y))
			if m.Prob[i] > m.Prob[int(m.Value)] {
				m.Value = float64(i)
			}
		}
	case learning.Regression:
		switch f.Method {
		case "", "mean":
			m.Value = stat.Mean(y, nil)
		case "median":
			s := append([]float64(nil), y...)
			sort.Float64s(s)
			m.Value = stat.Quantile(0.5, stat.Empirical, s, nil)
		default:
			return nil, fmt.Errorf("method %q is not supported for regression", f.Method)
		}
	default:
		return nil, fmt.Errorf("task type %s is not supported", task.Type())
	}
	c.Output("featureless model of %d rows predicts %v", len(y), m.Value)
	return m, nil
}

func (f Featureless) Predict(task learning.Task, model interface{}, predictType string, c *capsule.Console) (*learning.Prediction, error) {
	m, ok := model.(FeaturelessModel)
	if !ok {
		return nil, fmt.Errorf("model of type %T is not a featureless model", model)
	}
	rows := task.ActiveRows()
	response := make([]float64, len(rows))
	for i := range response {
		response[i] = m.Value
	}
	p, err := learning.NewPrediction(task, rows, response)
	if err != nil {
		return nil, err
	}
	if predictType == learning.PredictProb && m.Kind == learning.Classification {
		p.Levels = m.Classes
		p.Prob = make([][]float64, len(rows))
		for i := range p.Prob {
			p.Prob[i] = m.Prob
		}
	}
	return p, nil
}
