package learning

import (
	"github.com/hscells/resample/capsule"
	"github.com/hscells/resample/journal"
	"github.com/pkg/errors"
	"io/ioutil"
	"log"
	"time"
)

// Runner trains learners and predicts with them. The logger receives operational telemetry; what happens to a
// learner is recorded in the learner's own log.
type Runner struct {
	Logger *log.Logger
	// Timeout limits the steps of learners isolated in capsule.Worker mode.
	Timeout time.Duration
}

// RunnerLogger sets the telemetry logger of a runner.
func RunnerLogger(logger *log.Logger) func(*Runner) {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// RunnerTimeout sets the time limit of capsule.Worker mode.
func RunnerTimeout(d time.Duration) func(*Runner) {
	return func(r *Runner) {
		r.Timeout = d
	}
}

// NewRunner creates a runner. Without a logger, telemetry is discarded.
func NewRunner(options ...func(*Runner)) Runner {
	r := Runner{}
	for _, option := range options {
		option(&r)
	}
	if r.Logger == nil {
		r.Logger = log.New(ioutil.Discard, "", 0)
	}
	return r
}

func (r Runner) executor() capsule.Executor {
	return capsule.NewExecutor(capsule.Logger(r.Logger), capsule.Timeout(r.Timeout))
}

// Train trains a learner with a runner that discards telemetry.
func Train(l *Learner, task Task, rows []int) error {
	return NewRunner().Train(l, task, rows)
}

// Predict predicts with a runner that discards telemetry.
func Predict(l *Learner, task Task, rows []int) (*Prediction, error) {
	return NewRunner().Predict(l, task, rows)
}

// Train trains a learner on rows of a task, or on the active rows when rows is nil. The learner's state is
// replaced. A fault of the learner's algorithm in an isolated mode is not an error: it leaves the learner
// without a model and is recorded in its log. Training a configured fallback is never isolated, so a fault of
// the fallback is returned.
func (r Runner) Train(l *Learner, task Task, rows []int) error {
	if r.Logger == nil {
		r = NewRunner(RunnerTimeout(r.Timeout))
	}
	defer withRows(task, rows)()

	l.State = State{}
	if l.Algorithm == nil {
		return errors.Wrapf(ErrContractViolation, "learner %s has no algorithm", l.ID)
	}

	train := trainHook(l.Algorithm)
	mode := l.Mode(journal.Train)
	r.Logger.Printf("train learner=%s task=%s rows=%d mode=%s", l.ID, task.ID(), task.RowCount(), mode)

	view := isolatedView(task, mode)
	env, err := r.executor().Execute(mode, journal.Train, func(c *capsule.Console) (interface{}, error) {
		model, err := train(view, c)
		if err != nil {
			return nil, err
		}
		if model == nil {
			return nil, errors.Wrapf(ErrContractViolation, "learner %s returned no model during training", l.ID)
		}
		return model, nil
	})
	if err != nil {
		return errors.Wrapf(err, "train learner %s on task %s", l.ID, task.ID())
	}

	elapsed := env.Elapsed
	l.State.Model = env.Result
	l.State.Log = journal.Merge(l.State.Log, env.Log)
	l.State.TrainTime = &elapsed

	if l.State.Model == nil {
		r.Logger.Printf("learner=%s task=%s failed to train after %s: %v", l.ID, task.ID(), elapsed, env.Log.Errors())
	} else {
		r.Logger.Printf("learner=%s task=%s trained in %s", l.ID, task.ID(), elapsed)
	}

	if l.Fallback == nil {
		return nil
	}

	fallback := l.Fallback.unisolated()
	if err := RequirePackages(fallback.Packages); err != nil {
		return errors.Wrapf(err, "fallback learner %s", fallback.ID)
	}
	r.Logger.Printf("train fallback=%s learner=%s task=%s rows=%d", fallback.ID, l.ID, task.ID(), task.RowCount())
	if err := r.Train(fallback, task, rows); err != nil {
		return errors.Wrapf(err, "fallback learner %s", fallback.ID)
	}
	fs := fallback.State
	l.State.FallbackState = &fs
	return nil
}

// Predict predicts rows of a task, or the active rows when rows is nil. A task without active rows yields an empty
// prediction and the algorithm is not called. A learner without a model, or whose algorithm faulted in an
// isolated mode, yields no prediction; when a fallback is configured it predicts in its place, and it also
// imputes the rows the primary prediction is missing.
func (r Runner) Predict(l *Learner, task Task, rows []int) (*Prediction, error) {
	if r.Logger == nil {
		r = NewRunner(RunnerTimeout(r.Timeout))
	}
	defer withRows(task, rows)()

	n := task.RowCount()
	if n == 0 {
		l.State.Log = l.State.Log.Appendf(journal.Predict, journal.Output, "no rows of task %s to predict", task.ID())
		r.Logger.Printf("predict learner=%s task=%s rows=0 skipped", l.ID, task.ID())
		return EmptyPrediction(task), nil
	}

	mode := l.Mode(journal.Predict)
	var prediction *Prediction
	if l.State.Model == nil {
		r.Logger.Printf("learner=%s has no model stored", l.ID)
		l.State.PredictTime = nil
	} else {
		if l.Algorithm == nil {
			return nil, errors.Wrapf(ErrContractViolation, "learner %s has no algorithm", l.ID)
		}
		predict := predictHook(l.Algorithm)
		model := l.State.Model
		r.Logger.Printf("predict learner=%s task=%s rows=%d mode=%s", l.ID, task.ID(), n, mode)

		view := isolatedView(task, mode)
		env, err := r.executor().Execute(mode, journal.Predict, func(c *capsule.Console) (interface{}, error) {
			p, err := predict(view, model, l.PredictType, c)
			if err != nil {
				return nil, err
			}
			if err := p.Validate(); err != nil {
				return nil, errors.Wrapf(ErrContractViolation, "learner %s returned an invalid prediction: %v", l.ID, err)
			}
			if p.Len() != n {
				return nil, errors.Wrapf(ErrContractViolation, "learner %s predicted %d of %d rows", l.ID, p.Len(), n)
			}
			return p, nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "predict learner %s on task %s", l.ID, task.ID())
		}

		elapsed := env.Elapsed
		l.State.PredictTime = &elapsed
		l.State.Log = journal.Merge(l.State.Log, env.Log)
		if env.Result != nil {
			prediction = env.Result.(*Prediction)
			r.Logger.Printf("learner=%s task=%s predicted %d rows in %s", l.ID, task.ID(), n, elapsed)
		} else {
			r.Logger.Printf("learner=%s task=%s failed to predict after %s: %v", l.ID, task.ID(), elapsed, env.Log.Stage(journal.Predict).Errors())
		}
	}

	if l.Fallback == nil {
		return prediction, nil
	}
	return r.impute(l, task, prediction)
}

// isolatedView is the task a computation in the given mode runs against. A worker may outlive a timeout, so it
// gets its own copy of the active rows.
func isolatedView(task Task, mode capsule.Mode) Task {
	if mode == capsule.Worker {
		return task.Clone()
	}
	return task
}

// impute completes a prediction with the learner's fallback.
func (r Runner) impute(l *Learner, task Task, prediction *Prediction) (*Prediction, error) {
	if l.State.FallbackState == nil {
		return nil, errors.Wrapf(ErrNotTrained, "fallback learner %s of learner %s", l.Fallback.ID, l.ID)
	}
	fallback := l.Fallback.unisolated()
	fallback.PredictType = l.PredictType
	fallback.State = l.State.FallbackState.Clone()

	if prediction == nil {
		n := task.RowCount()
		r.Logger.Printf("predict fallback=%s learner=%s task=%s rows=%d", fallback.ID, l.ID, task.ID(), n)
		p, err := r.Predict(fallback, task, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "fallback learner %s", fallback.ID)
		}
		l.State.Log = l.State.Log.Appendf(journal.Predict, journal.Output,
			"learner %s produced no predictions, fallback %s predicted all %d rows", l.ID, fallback.ID, n)
		return p, nil
	}

	miss := prediction.Missing()
	if len(miss) == 0 {
		return prediction, nil
	}

	r.Logger.Printf("impute fallback=%s learner=%s task=%s missing=%d total=%d", fallback.ID, l.ID, task.ID(), len(miss), prediction.Len())
	p, err := r.Predict(fallback, task, miss)
	if err != nil {
		return nil, errors.Wrapf(err, "fallback learner %s", fallback.ID)
	}
	merged, err := Merge(prediction, p, KeepPresent)
	if err != nil {
		return nil, err
	}
	l.State.Log = l.State.Log.Appendf(journal.Predict, journal.Output,
		"imputed %d of %d predictions of learner %s with fallback %s", len(miss), prediction.Len(), l.ID, fallback.ID)
	return merged.Subset(prediction.RowIDs), nil
}
