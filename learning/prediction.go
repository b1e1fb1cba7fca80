package learning

import (
	"fmt"
	"github.com/pkg/errors"
	"github.com/xtgo/set"
	"math"
	"sort"
)

// Prediction holds the predictions of a learner for a set of rows. A response of NaN marks a row the learner
// could not produce a value for.
type Prediction struct {
	TaskType TaskType
	RowIDs   []int
	Truth    []float64
	Response []float64
	// Prob holds one probability per class level for each row. It is only set for probabilistic predictions.
	Prob   [][]float64
	Levels []string
}

// Duplicates is the policy Merge applies to row ids present in both predictions.
type Duplicates uint8

const (
	// FailOnDuplicates makes Merge return ErrDuplicateRows.
	FailOnDuplicates Duplicates = iota
	// KeepFirst keeps the record that appears first.
	KeepFirst
	// KeepPresent keeps the first record that has a response, so a missing value is replaced by a later
	// record for the same row but an existing value is never overwritten.
	KeepPresent
)

// NewPrediction creates a prediction for rows of a task. When the task is a Dataset the truth is filled in.
func NewPrediction(task Task, rows []int, response []float64) (*Prediction, error) {
	if len(rows) != len(response) {
		return nil, fmt.Errorf("%d rows but %d responses", len(rows), len(response))
	}
	p := &Prediction{
		TaskType: task.Type(),
		RowIDs:   append([]int{}, rows...),
		Response: response,
	}
	if d, ok := task.(Dataset); ok {
		_, y, err := d.Data(rows)
		if err != nil {
			return nil, err
		}
		p.Truth = y
		p.Levels = d.Levels()
	}
	return p, nil
}

// EmptyPrediction is a prediction without rows for a task.
func EmptyPrediction(task Task) *Prediction {
	p := &Prediction{
		TaskType: task.Type(),
		RowIDs:   []int{},
		Truth:    []float64{},
		Response: []float64{},
	}
	if d, ok := task.(Dataset); ok {
		p.Levels = d.Levels()
	}
	return p
}

// Len is the number of rows in the prediction.
func (p *Prediction) Len() int {
	return len(p.RowIDs)
}

// Missing returns the row ids without a response.
func (p *Prediction) Missing() []int {
	var miss []int
	for i, r := range p.Response {
		if math.IsNaN(r) {
			miss = append(miss, p.RowIDs[i])
		}
	}
	return miss
}

// Validate checks that a prediction is well formed.
func (p *Prediction) Validate() error {
	if p == nil {
		return errors.New("prediction is nil")
	}
	n := len(p.RowIDs)
	if len(p.Response) != n {
		return fmt.Errorf("prediction has %d rows but %d responses", n, len(p.Response))
	}
	if p.Truth != nil && len(p.Truth) != n {
		return fmt.Errorf("prediction has %d rows but %d truth values", n, len(p.Truth))
	}
	if p.Prob != nil {
		if len(p.Prob) != n {
			return fmt.Errorf("prediction has %d rows but %d probability rows", n, len(p.Prob))
		}
		for i, row := range p.Prob {
			if len(row) != len(p.Levels) {
				return fmt.Errorf("probability row %d has %d values for %d levels", i, len(row), len(p.Levels))
			}
		}
	}
	ids := append([]int(nil), p.RowIDs...)
	sort.Ints(ids)
	if set.Uniq(sort.IntSlice(ids)) != n {
		return errors.Wrap(ErrDuplicateRows, "prediction")
	}
	return nil
}

func (p *Prediction) index() map[int]int {
	idx := make(map[int]int, len(p.RowIDs))
	for i, id := range p.RowIDs {
		idx[id] = i
	}
	return idx
}

// Subset returns the records of the given rows in the given order. Rows the prediction does not contain are
// skipped.
func (p *Prediction) Subset(rows []int) *Prediction {
	idx := p.index()
	out := &Prediction{TaskType: p.TaskType, Levels: p.Levels, RowIDs: []int{}, Response: []float64{}}
	if p.Truth != nil {
		out.Truth = []float64{}
	}
	if p.Prob != nil {
		out.Prob = [][]float64{}
	}
	for _, id := range rows {
		if i, ok := idx[id]; ok {
			out.add(p, i)
		}
	}
	return out
}

func (p *Prediction) add(from *Prediction, i int) {
	p.RowIDs = append(p.RowIDs, from.RowIDs[i])
	p.Response = append(p.Response, from.Response[i])
	if p.Truth != nil {
		p.Truth = append(p.Truth, from.Truth[i])
	}
	if p.Prob != nil {
		p.Prob = append(p.Prob, from.Prob[i])
	}
}

func (p *Prediction) replace(j int, from *Prediction, i int) {
	p.Response[j] = from.Response[i]
	if p.Truth != nil {
		p.Truth[j] = from.Truth[i]
	}
	if p.Prob != nil {
		p.Prob[j] = from.Prob[i]
	}
}

// Merge combines two predictions for the same task. The records of a come first, followed by the records of b
// for rows not in a. Rows present in both are resolved with the given policy.
func Merge(a, b *Prediction, policy Duplicates) (*Prediction, error) {
	switch {
	case a == nil && b == nil:
		return nil, nil
	case a == nil:
		return b.Subset(b.RowIDs), nil
	case b == nil:
		return a.Subset(a.RowIDs), nil
	}
	if a.TaskType != b.TaskType {
		return nil, fmt.Errorf("cannot merge %s and %s predictions", a.TaskType, b.TaskType)
	}
	if len(a.Levels) > 0 && len(b.Levels) > 0 && fmt.Sprint(a.Levels) != fmt.Sprint(b.Levels) {
		return nil, fmt.Errorf("cannot merge predictions with levels %v and %v", a.Levels, b.Levels)
	}

	out := &Prediction{TaskType: a.TaskType, Levels: a.Levels, RowIDs: []int{}, Response: []float64{}}
	if len(out.Levels) == 0 {
		out.Levels = b.Levels
	}
	if a.Truth != nil && b.Truth != nil {
		out.Truth = []float64{}
	}
	if a.Prob != nil && b.Prob != nil {
		out.Prob = [][]float64{}
	}

	seen := make(map[int]int, len(a.RowIDs)+len(b.RowIDs))
	for _, p := range []*Prediction{a, b} {
		for i, id := range p.RowIDs {
			j, ok := seen[id]
			if !ok {
				seen[id] = len(out.RowIDs)
				out.add(p, i)
				continue
			}
			switch policy {
			case FailOnDuplicates:
				return nil, errors.Wrapf(ErrDuplicateRows, "row %d", id)
			case KeepPresent:
				if math.IsNaN(out.Response[j]) && !math.IsNaN(p.Response[i]) {
					out.replace(j, p, i)
				}
			}
		}
	}
	return out, nil
}
