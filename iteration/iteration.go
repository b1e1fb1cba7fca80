// Package iteration runs a single resampling iteration: it trains a private copy of a learner on the iteration's
// train set and predicts the evaluation sets the learner is configured for.
package iteration

import (
	"encoding/gob"
	"github.com/hscells/resample/learning"
	"github.com/hscells/resample/resampling"
	"github.com/pkg/errors"
	"time"
)

const (
	// TrainSet predicts the rows the learner was trained on.
	TrainSet = "train"
	// TestSet predicts the held out rows.
	TestSet = "test"
)

// ErrUnknownSet is returned for an evaluation set other than TrainSet and TestSet.
var ErrUnknownSet = errors.New("unknown evaluation set")

func init() {
	gob.Register(&learning.Table{})
}

// Request is everything needed to run one iteration, possibly in another process.
type Request struct {
	Index       int
	Task        learning.Task
	Learner     *learning.Learner
	Train       []int
	Test        []int
	StoreModels bool
}

// Result is what an iteration produces. Predictions are keyed by evaluation set; a set for which the learner
// produced nothing has no entry.
type Result struct {
	Index       int
	LearnerID   string
	TaskID      string
	State       learning.State
	Predictions map[string]*learning.Prediction
	Elapsed     time.Duration
}

// NewRequest creates the request for iteration index of a resampling.
func NewRequest(index int, task learning.Task, l *learning.Learner, r resampling.Resampling, storeModels bool) Request {
	return Request{
		Index:       index,
		Task:        task,
		Learner:     l,
		Train:       r.TrainSet(index),
		Test:        r.TestSet(index),
		StoreModels: storeModels,
	}
}

// rows are the rows an evaluation set is predicted on. A row drawn into the train set more than once is predicted
// once.
func (req Request) rows(set string) ([]int, error) {
	var rows []int
	switch set {
	case TrainSet:
		rows = resampling.Unique(req.Train)
	case TestSet:
		rows = req.Test
	default:
		return nil, errors.Wrapf(ErrUnknownSet, "%q", set)
	}
	if rows == nil {
		return []int{}, nil
	}
	return rows, nil
}

// Run executes an iteration. Neither the learner nor the task of the request are modified.
func Run(req Request, runner learning.Runner) (Result, error) {
	start := time.Now()
	l := req.Learner.Clone()
	task := req.Task.Clone()

	train := req.Train
	if train == nil {
		train = []int{}
	}
	if err := runner.Train(l, task, train); err != nil {
		return Result{}, errors.Wrapf(err, "iteration %d", req.Index)
	}

	predictions := make(map[string]*learning.Prediction)
	for _, set := range l.PredictSets {
		rows, err := req.rows(set)
		if err != nil {
			return Result{}, errors.Wrapf(err, "iteration %d", req.Index)
		}
		p, err := runner.Predict(l, task, rows)
		if err != nil {
			return Result{}, errors.Wrapf(err, "iteration %d: predict %s set", req.Index, set)
		}
		if p != nil {
			predictions[set] = p
		}
	}

	state := l.State
	if !req.StoreModels {
		discardModels(&state)
	}
	return Result{
		Index:       req.Index,
		LearnerID:   l.ID,
		TaskID:      task.ID(),
		State:       state,
		Predictions: predictions,
		Elapsed:     time.Since(start),
	}, nil
}

// RunIteration runs iteration index of a resampling.
func RunIteration(index int, task learning.Task, l *learning.Learner, r resampling.Resampling, storeModels bool, runner learning.Runner) (Result, error) {
	return Run(NewRequest(index, task, l, r, storeModels), runner)
}

func discardModels(s *learning.State) {
	s.Model = nil
	if s.FallbackState != nil {
		fb := *s.FallbackState
		discardModels(&fb)
		s.FallbackState = &fb
	}
}

// Reassemble rebuilds the learner of an iteration from the configuration it was run with and the state it learned.
func Reassemble(res Result, template *learning.Learner) *learning.Learner {
	l := template.Clone()
	l.State = res.State.Clone()
	return l
}
