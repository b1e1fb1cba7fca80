package remote_test

import (
	"github.com/hscells/resample"
	"github.com/hscells/resample/capsule"
	"github.com/hscells/resample/iteration"
	"github.com/hscells/resample/journal"
	"github.com/hscells/resample/learners"
	"github.com/hscells/resample/learning"
	"github.com/hscells/resample/remote"
	"github.com/hscells/resample/resampling"
	"io/ioutil"
	"log"
	"math"
	"net"
	"reflect"
	"testing"
)

var logger = log.New(ioutil.Discard, "", 0)

func serve(t *testing.T) string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { l.Close() })
	go remote.Serve(l, remote.NewWorker(learning.NewRunner(), logger))
	return l.Addr().String()
}

func newTask(t *testing.T) *learning.Table {
	x := make([][]float64, 20)
	y := make([]float64, 20)
	for i := range x {
		x[i] = []float64{float64(i), math.Sin(float64(i))}
		y[i] = float64(i % 2)
	}
	task, err := learning.NewTable("remote", learning.Classification, []string{"i", "sin"}, "odd", x, y, []string{"even", "odd"})
	if err != nil {
		t.Fatal(err)
	}
	return task
}

func TestRemoteMatchesLocal(t *testing.T) {
	d, err := remote.NewDispatcher(logger, serve(t), serve(t))
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	task := newTask(t)
	fallback, _ := learners.Get("classif.featureless")
	l := learning.NewLearner("debug", learners.Debug{MissingRatio: .5, WarningTrain: 1, Seed: 3},
		learning.LearnerEncapsulate(journal.Train, capsule.Evaluate),
		learning.LearnerFallback(fallback),
		learning.LearnerPredictSets(iteration.TrainSet, iteration.TestSet))

	run := func(options ...func(*resample.Experiment)) *resample.ResampleResult {
		options = append(options, resample.Logger(logger), resample.StoreModels(true))
		rr, err := resample.NewExperiment(task, l, resampling.CrossValidation{Folds: 4}, options...).Run()
		if err != nil {
			t.Fatal(err)
		}
		return rr
	}
	local, distributed := run(), run(resample.Dispatch(d))

	for i := range local.Iterations {
		a, b := local.Iterations[i], distributed.Iterations[i]
		if !reflect.DeepEqual(a.State.Log, b.State.Log) {
			t.Errorf("iteration %d: log %v, remote log %v", i, a.State.Log, b.State.Log)
		}
		if !reflect.DeepEqual(a.State.Model, b.State.Model) {
			t.Errorf("iteration %d: model %v, remote model %v", i, a.State.Model, b.State.Model)
		}
		for _, set := range []string{iteration.TrainSet, iteration.TestSet} {
			pa, pb := a.Predictions[set], b.Predictions[set]
			if pb == nil || !reflect.DeepEqual(pa.RowIDs, pb.RowIDs) || !reflect.DeepEqual(pa.Response, pb.Response) {
				t.Errorf("iteration %d: %s predictions differ", i, set)
			}
		}
	}

	// Learners reassembled from remote state predict like the ones trained here.
	p, err := learning.Predict(distributed.Learners[0], task, []int{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	if p.Len() != 3 || len(p.Missing()) != 0 {
		t.Errorf("prediction = %+v", p)
	}
}

func TestRemoteErrors(t *testing.T) {
	d, err := remote.NewDispatcher(logger, serve(t))
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	task := newTask(t)
	l := learning.NewLearner("debug", learners.Debug{ErrorTrain: 1})
	if _, err := resample.NewExperiment(task, l, resampling.Holdout{Ratio: .5}, resample.Dispatch(d), resample.Logger(logger)).Run(); err == nil {
		t.Error("an unisolated failure on a worker must fail the experiment")
	}

	if _, err := remote.NewDispatcher(logger); err == nil {
		t.Error("expected an error without hosts")
	}

	unreachable, err := remote.NewDispatcher(logger, "127.0.0.1:1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := unreachable.Dispatch(iteration.NewRequest(0, task, l, &resampling.Instance{Train: [][]int{{1}}, Test: [][]int{{2}}}, false)); err == nil {
		t.Error("expected an error for an unreachable worker")
	}
}
