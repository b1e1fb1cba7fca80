package iteration_test

import (
	"errors"
	"github.com/hscells/resample/capsule"
	"github.com/hscells/resample/iteration"
	"github.com/hscells/resample/journal"
	"github.com/hscells/resample/learners"
	"github.com/hscells/resample/learning"
	"github.com/hscells/resample/resampling"
	"reflect"
	"sync"
	"testing"
)

func newTask(t *testing.T) *learning.Table {
	x := make([][]float64, 12)
	y := make([]float64, 12)
	for i := range x {
		x[i] = []float64{float64(i)}
		y[i] = float64(i % 2)
	}
	task, err := learning.NewTable("parity", learning.Classification, []string{"i"}, "odd", x, y, []string{"even", "odd"})
	if err != nil {
		t.Fatal(err)
	}
	return task
}

func newInstance(t *testing.T, task learning.Task) *resampling.Instance {
	inst, err := resampling.Instantiate(resampling.CrossValidation{Folds: 3}, task, 1)
	if err != nil {
		t.Fatal(err)
	}
	return inst
}

func TestRun(t *testing.T) {
	task := newTask(t)
	inst := newInstance(t, task)
	l, _ := learners.Get("classif.featureless")
	l.PredictSets = []string{iteration.TrainSet, iteration.TestSet}

	res, err := iteration.RunIteration(1, task, l, inst, true, learning.NewRunner())
	if err != nil {
		t.Fatal(err)
	}
	if res.Index != 1 || res.LearnerID != l.ID || res.TaskID != task.ID() {
		t.Errorf("result = %+v", res)
	}
	if !reflect.DeepEqual(res.Predictions[iteration.TrainSet].RowIDs, inst.TrainSet(1)) {
		t.Errorf("train predictions = %v", res.Predictions[iteration.TrainSet].RowIDs)
	}
	if !reflect.DeepEqual(res.Predictions[iteration.TestSet].RowIDs, inst.TestSet(1)) {
		t.Errorf("test predictions = %v", res.Predictions[iteration.TestSet].RowIDs)
	}
	if res.State.Model == nil {
		t.Error("model was not stored")
	}
	if l.Trained() || task.RowCount() != 12 {
		t.Error("the learner or the task of the request was modified")
	}
}

func TestBootstrapTrainSet(t *testing.T) {
	task := newTask(t)
	inst, err := resampling.Instantiate(resampling.Bootstrap{Repeats: 1, Ratio: 1}, task, 1)
	if err != nil {
		t.Fatal(err)
	}
	train := inst.TrainSet(0)
	if len(resampling.Unique(train)) == len(train) {
		t.Fatalf("no row was drawn twice: %v", train)
	}
	l, _ := learners.Get("classif.featureless")
	l.PredictSets = []string{iteration.TrainSet, iteration.TestSet}

	res, err := iteration.RunIteration(0, task, l, inst, false, learning.NewRunner())
	if err != nil {
		t.Fatal(err)
	}
	p := res.Predictions[iteration.TrainSet]
	if p == nil || !reflect.DeepEqual(p.RowIDs, resampling.Unique(train)) {
		t.Errorf("train predictions = %+v", p)
	}
	if p := res.Predictions[iteration.TestSet]; p == nil || p.Len() != len(inst.TestSet(0)) {
		t.Errorf("test predictions = %+v", p)
	}
	if res.State.Log.Has(journal.Error) {
		t.Errorf("log = %v", res.State.Log)
	}
}

func TestDiscardModels(t *testing.T) {
	task := newTask(t)
	fallback, _ := learners.Get("classif.featureless")
	l := learning.NewLearner("debug", learners.Debug{MissingRatio: .5}, learning.LearnerFallback(fallback))

	res, err := iteration.RunIteration(0, task, l, newInstance(t, task), false, learning.NewRunner())
	if err != nil {
		t.Fatal(err)
	}
	if res.State.Model != nil || res.State.FallbackState == nil || res.State.FallbackState.Model != nil {
		t.Errorf("models were kept: %+v", res.State)
	}
	p := res.Predictions[iteration.TestSet]
	if p == nil || len(p.Missing()) != 0 {
		t.Errorf("prediction = %+v", p)
	}
	if len(res.State.Log) == 0 {
		t.Error("the log must be kept without models")
	}
}

func TestUnknownSet(t *testing.T) {
	task := newTask(t)
	l, _ := learners.Get("classif.featureless")
	l.PredictSets = []string{"holdout"}
	_, err := iteration.RunIteration(0, task, l, newInstance(t, task), false, learning.NewRunner())
	if !errors.Is(err, iteration.ErrUnknownSet) {
		t.Errorf("err = %v", err)
	}
}

func TestFailedLearnerHasNoPredictions(t *testing.T) {
	task := newTask(t)
	l := learning.NewLearner("debug", learners.Debug{ErrorTrain: 1},
		learning.LearnerEncapsulate(journal.Train, capsule.Evaluate),
		learning.LearnerEncapsulate(journal.Predict, capsule.Evaluate))

	res, err := iteration.RunIteration(0, task, l, newInstance(t, task), true, learning.NewRunner())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Predictions) != 0 {
		t.Errorf("predictions = %v", res.Predictions)
	}
	if !res.State.Log.Has(journal.Error) {
		t.Errorf("log = %v", res.State.Log)
	}
}

func TestConcurrentIterations(t *testing.T) {
	task := newTask(t)
	inst := newInstance(t, task)
	l, _ := learners.Get("classif.centroid")
	runner := learning.NewRunner()

	sequential := make([]iteration.Result, inst.Iters())
	for i := range sequential {
		res, err := iteration.RunIteration(i, task, l, inst, true, runner)
		if err != nil {
			t.Fatal(err)
		}
		sequential[i] = res
	}

	concurrent := make([]iteration.Result, inst.Iters())
	var wg sync.WaitGroup
	for i := range concurrent {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := iteration.RunIteration(i, task, l, inst, true, runner)
			if err != nil {
				t.Error(err)
			}
			concurrent[i] = res
		}(i)
	}
	wg.Wait()

	for i := range sequential {
		if !reflect.DeepEqual(sequential[i].Predictions, concurrent[i].Predictions) {
			t.Errorf("iteration %d predicts differently when run concurrently", i)
		}
		if !reflect.DeepEqual(sequential[i].State.Model, concurrent[i].State.Model) {
			t.Errorf("iteration %d learns a different model when run concurrently", i)
		}
	}
}

func TestReassemble(t *testing.T) {
	task := newTask(t)
	l, _ := learners.Get("classif.featureless")
	res, err := iteration.RunIteration(2, task, l, newInstance(t, task), true, learning.NewRunner())
	if err != nil {
		t.Fatal(err)
	}
	r := iteration.Reassemble(res, l)
	if !r.Trained() || r.ID != l.ID || !reflect.DeepEqual(r.PredictSets, l.PredictSets) {
		t.Errorf("reassembled = %+v", r)
	}
	if l.Trained() {
		t.Error("the template was modified")
	}
	p, err := learning.Predict(r, task, []int{1, 2})
	if err != nil || p.Len() != 2 {
		t.Errorf("prediction = %v, err = %v", p, err)
	}
}
