package learners

import (
	"fmt"
	"github.com/hscells/resample/capsule"
	"github.com/hscells/resample/learning"
	"gonum.org/v1/gonum/floats"
	"math"
)

// Centroid classifies a row by the class whose mean feature vector is closest to it.
type Centroid struct {
	// Norm is the L-norm distances are measured in. Zero means Euclidean.
	Norm float64
}

// CentroidModel holds one centroid per class. Classes without training rows have no centroid.
type CentroidModel struct {
	Centroids [][]float64
	Classes   []string
}

func (ce Centroid) norm() float64 {
	if ce.Norm == 0 {
		return 2
	}
	return ce.Norm
}

func (ce Centroid) Train(task learning.Task, c *capsule.Console) (interface{}, error) {
	if task.Type() != learning.Classification {
		return nil, fmt.Errorf("nearest centroid only supports classification, not %s", task.Type())
	}
	d, ok := task.(learning.Dataset)
	if !ok {
		return nil, fmt.Errorf("task %s does not provide data", task.ID())
	}
	x, y, err := d.Data(task.ActiveRows())
	if err != nil {
		return nil, err
	}
	if len(x) == 0 {
		return nil, fmt.Errorf("no rows to train on")
	}

	classes := d.Levels()
	counts := make([]float64, len(classes))
	m := CentroidModel{Centroids: make([][]float64, len(classes)), Classes: classes}
	for i, row := range x {
		k := int(y[i])
		if m.Centroids[k] == nil {
			m.Centroids[k] = make([]float64, len(row))
		}
		floats.Add(m.Centroids[k], row)
		counts[k]++
	}
	for k := range m.Centroids {
		if counts[k] == 0 {
			c.Warning("class %s has no training rows", classes[k])
			continue
		}
		floats.Scale(1/counts[k], m.Centroids[k])
	}
	return m, nil
}

func (ce Centroid) Predict(task learning.Task, model interface{}, predictType string, c *capsule.Console) (*learning.Prediction, error) {
	m, ok := model.(CentroidModel)
	if !ok {
		return nil, fmt.Errorf("model of type %T is not a centroid model", model)
	}
	d, ok := task.(learning.Dataset)
	if !ok {
		return nil, fmt.Errorf("task %s does not provide data", task.ID())
	}
	rows := task.ActiveRows()
	x, _, err := d.Data(rows)
	if err != nil {
		return nil, err
	}

	response := make([]float64, len(rows))
	var prob [][]float64
	if predictType == learning.PredictProb {
		prob = make([][]float64, len(rows))
	}
	for i, row := range x {
		best, dist := math.NaN(), math.Inf(1)
		weights := make([]float64, len(m.Centroids))
		for k, centroid := range m.Centroids {
			if len(centroid) == 0 {
				continue
			}
			dk := floats.Distance(row, centroid, ce.norm())
			if dk < dist {
				best, dist = float64(k), dk
			}
			weights[k] = 1 / (dk + 1e-9)
		}
		response[i] = best
		if prob != nil {
			if sum := floats.Sum(weights); sum > 0 {
				floats.Scale(1/sum, weights)
			}
			prob[i] = weights
		}
	}

	p, err := learning.NewPrediction(task, rows, response)
	if err != nil {
		return nil, err
	}
	if prob != nil {
		p.Levels = m.Classes
		p.Prob = prob
	}
	return p, nil
}
