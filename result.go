package resample

import (
	"fmt"
	"github.com/hscells/resample/eval"
	"github.com/hscells/resample/iteration"
	"github.com/hscells/resample/journal"
	"github.com/hscells/resample/learning"
	"github.com/pkg/errors"
	"sort"
	"strings"
)

// ResultType is the type of result being sent through an experiment channel.
type ResultType uint8

const (
	// Iteration is a completed iteration.
	Iteration ResultType = iota
	// Error indicates an error was raised. Errors before the first iteration have a negative index.
	Error
	// Done indicates the experiment has completed.
	Done
)

func (t ResultType) String() string {
	switch t {
	case Iteration:
		return "iteration"
	case Error:
		return "error"
	case Done:
		return "done"
	}
	return fmt.Sprintf("ResultType(%d)", t)
}

// Result is the output of an experiment.
type Result struct {
	Index     int
	Iteration iteration.Result
	Error     error
	Type      ResultType
}

func failed(failures []Result) error {
	sort.Slice(failures, func(i, j int) bool {
		return failures[i].Index < failures[j].Index
	})
	indices := make([]string, len(failures))
	messages := make([]string, len(failures))
	for i, f := range failures {
		indices[i] = fmt.Sprint(f.Index)
		messages[i] = f.Error.Error()
	}
	return errors.Errorf("iterations %s failed: %s", strings.Join(indices, ", "), strings.Join(messages, "; "))
}

// ResampleResult holds the iterations of a completed experiment, ordered by index, and the learner of each.
type ResampleResult struct {
	ID         string
	TaskID     string
	LearnerID  string
	Strategy   string
	Iterations []iteration.Result
	Learners   []*learning.Learner
}

func (r *ResampleResult) sort() {
	sort.Slice(r.Iterations, func(i, j int) bool {
		return r.Iterations[i].Index < r.Iterations[j].Index
	})
}

// Predictions returns the prediction of every iteration on an evaluation set. Iterations without one are left out.
func (r *ResampleResult) Predictions(set string) map[int]*learning.Prediction {
	predictions := make(map[int]*learning.Prediction)
	for _, it := range r.Iterations {
		if p, ok := it.Predictions[set]; ok {
			predictions[it.Index] = p
		}
	}
	return predictions
}

// Prediction combines the predictions of every iteration on an evaluation set. A row predicted by more than one
// iteration is kept once, from the earliest iteration.
func (r *ResampleResult) Prediction(set string) (*learning.Prediction, error) {
	var combined *learning.Prediction
	for _, it := range r.Iterations {
		p, ok := it.Predictions[set]
		if !ok {
			continue
		}
		if combined == nil {
			combined = p
			continue
		}
		var err error
		combined, err = learning.Merge(combined, p, learning.KeepFirst)
		if err != nil {
			return nil, errors.Wrapf(err, "iteration %d", it.Index)
		}
	}
	return combined, nil
}

// Score computes measures on the prediction of every iteration on an evaluation set.
func (r *ResampleResult) Score(set string, measures ...eval.Measure) map[int]map[string]float64 {
	return eval.Evaluate(measures, r.Predictions(set))
}

// Aggregate computes the mean and standard deviation of a measure over the iterations.
func (r *ResampleResult) Aggregate(set string, measure eval.Measure) (mean, sd float64) {
	var scores []float64
	for _, p := range r.Predictions(set) {
		scores = append(scores, measure.Score(p))
	}
	return eval.Aggregate(scores)
}

// Logs returns the log of every iteration's learner.
func (r *ResampleResult) Logs() map[int]journal.Log {
	logs := make(map[int]journal.Log, len(r.Iterations))
	for _, it := range r.Iterations {
		logs[it.Index] = it.State.Log
	}
	return logs
}

func (r *ResampleResult) messages(severity journal.Severity) map[int][]string {
	m := make(map[int][]string)
	for _, it := range r.Iterations {
		var messages []string
		for _, record := range it.State.Log {
			if record.Severity == severity {
				messages = append(messages, record.Message)
			}
		}
		if len(messages) > 0 {
			m[it.Index] = messages
		}
	}
	return m
}

// Warnings returns the warnings of the iterations that have any.
func (r *ResampleResult) Warnings() map[int][]string {
	return r.messages(journal.Warning)
}

// Errors returns the errors of the iterations that have any.
func (r *ResampleResult) Errors() map[int][]string {
	return r.messages(journal.Error)
}
