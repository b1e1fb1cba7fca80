// Package resample provides a framework for running reproducible resampling experiments: a learner is trained
// and evaluated on every iteration of a resampling of a task, with the faults of individual iterations isolated
// in the learner's state.
package resample

import (
	"fmt"
	"github.com/cheggaaa/pb/v3"
	"github.com/google/uuid"
	"github.com/hscells/resample/iteration"
	"github.com/hscells/resample/learning"
	"github.com/hscells/resample/resampling"
	"github.com/hscells/resample/store"
	"github.com/pkg/errors"
	"log"
	"os"
	"runtime"
	"strconv"
)

// Dispatcher runs iterations, either in this process or elsewhere.
type Dispatcher interface {
	Dispatch(req iteration.Request) (iteration.Result, error)
}

type localDispatcher struct {
	runner learning.Runner
}

func (d localDispatcher) Dispatch(req iteration.Request) (iteration.Result, error) {
	return iteration.Run(req, d.runner)
}

// NewLocalDispatcher runs iterations in the current process.
func NewLocalDispatcher(runner learning.Runner) Dispatcher {
	return localDispatcher{runner: runner}
}

// Experiment contains all the information for resampling a learner on a task.
type Experiment struct {
	ID          string
	Task        learning.Task
	Learner     *learning.Learner
	Strategy    resampling.Strategy
	Seed        int64
	Workers     int
	StoreModels bool
	Progress    bool
	Cache       store.ResultCacher
	Dispatcher  Dispatcher
	Runner      learning.Runner
	Logger      *log.Logger
}

// Seed sets the seed the resampling is instantiated with.
func Seed(seed int64) func(*Experiment) {
	return func(e *Experiment) {
		e.Seed = seed
	}
}

// Workers limits how many iterations run at the same time.
func Workers(n int) func(*Experiment) {
	return func(e *Experiment) {
		e.Workers = n
	}
}

// StoreModels keeps the models of every iteration in the result.
func StoreModels(keep bool) func(*Experiment) {
	return func(e *Experiment) {
		e.StoreModels = keep
	}
}

// Progress displays a progress bar over the iterations.
func Progress(progress bool) func(*Experiment) {
	return func(e *Experiment) {
		e.Progress = progress
	}
}

// Cache reuses the results of iterations that have already been run.
func Cache(cache store.ResultCacher) func(*Experiment) {
	return func(e *Experiment) {
		e.Cache = cache
	}
}

// Dispatch runs iterations through a dispatcher instead of in this process.
func Dispatch(d Dispatcher) func(*Experiment) {
	return func(e *Experiment) {
		e.Dispatcher = d
	}
}

// Runner sets the runner of iterations run in this process.
func Runner(r learning.Runner) func(*Experiment) {
	return func(e *Experiment) {
		e.Runner = r
	}
}

// Logger sets the logger of the experiment.
func Logger(logger *log.Logger) func(*Experiment) {
	return func(e *Experiment) {
		e.Logger = logger
	}
}

// NewExperiment creates a new experiment. The task, learner and resampling strategy are required. Additional
// configuration is provided via the optional functional arguments.
func NewExperiment(task learning.Task, l *learning.Learner, strategy resampling.Strategy, options ...func(*Experiment)) Experiment {
	e := Experiment{
		ID:       uuid.New().String(),
		Task:     task,
		Learner:  l,
		Strategy: strategy,
		Seed:     1,
		Workers:  runtime.NumCPU(),
	}
	for _, option := range options {
		option(&e)
	}
	if e.Logger == nil {
		e.Logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	if e.Runner.Logger == nil {
		e.Runner = learning.NewRunner(learning.RunnerLogger(e.Logger), learning.RunnerTimeout(e.Runner.Timeout))
	}
	if e.Dispatcher == nil {
		e.Dispatcher = NewLocalDispatcher(e.Runner)
	}
	if e.Workers < 1 {
		e.Workers = 1
	}
	return e
}

func (e Experiment) key(inst *resampling.Instance, i int) string {
	l := e.Learner
	var fallback string
	if l.Fallback != nil {
		fallback = fmt.Sprintf("%s%#v", l.Fallback.ID, l.Fallback.Algorithm)
	}
	return store.Key(
		e.Task.ID(),
		l.ID,
		fmt.Sprintf("%#v", l.Algorithm),
		fmt.Sprint(l.Encapsulate),
		fallback,
		l.PredictType,
		fmt.Sprint(l.PredictSets),
		strconv.FormatBool(e.StoreModels),
		inst.ID(),
		fmt.Sprint(inst.TrainSet(i), inst.TestSet(i)),
	)
}

func (e Experiment) iterate(inst *resampling.Instance, i int) (iteration.Result, error) {
	var key string
	if e.Cache != nil {
		key = e.key(inst, i)
		if res, err := e.Cache.Get(key); err == nil {
			e.Logger.Printf("experiment=%s iteration=%d cached", e.ID, i)
			res.Index = i
			return res, nil
		}
	}

	e.Logger.Printf("experiment=%s iteration=%d starting train=%d test=%d", e.ID, i, len(inst.Train[i]), len(inst.Test[i]))
	res, err := e.Dispatcher.Dispatch(iteration.NewRequest(i, e.Task, e.Learner, inst, e.StoreModels))
	if err != nil {
		return iteration.Result{}, err
	}
	e.Logger.Printf("experiment=%s iteration=%d completed in %s", e.ID, i, res.Elapsed)

	if e.Cache != nil {
		if err := e.Cache.Set(key, res); err != nil {
			e.Logger.Printf("experiment=%s iteration=%d could not be cached: %v", e.ID, i, err)
		}
	}
	return res, nil
}

// Execute runs every iteration of the experiment and sends the results through the channel. Iterations run
// concurrently, at most Workers at a time, so results may arrive in any order. The channel is closed after the
// Done result.
func (e Experiment) Execute(c chan Result) {
	defer close(c)

	if err := learning.RequirePackages(e.Learner.Packages); err != nil {
		c <- Result{Index: -1, Error: errors.Wrapf(err, "learner %s", e.Learner.ID), Type: Error}
		return
	}
	inst, err := resampling.Instantiate(e.Strategy, e.Task, e.Seed)
	if err != nil {
		c <- Result{Index: -1, Error: err, Type: Error}
		return
	}

	e.Logger.Printf("starting experiment=%s task=%s learner=%s resampling=%s iterations=%d workers=%d",
		e.ID, e.Task.ID(), e.Learner.ID, inst.ID(), inst.Iters(), e.Workers)

	var bar *pb.ProgressBar
	if e.Progress {
		bar = pb.StartNew(inst.Iters())
	}

	// Set the limit to how many goroutines can be run.
	sem := make(chan bool, e.Workers)
	for i := 0; i < inst.Iters(); i++ {
		sem <- true
		go func(i int) {
			defer func() { <-sem }()
			res, err := e.iterate(inst, i)
			if bar != nil {
				bar.Increment()
			}
			if err != nil {
				e.Logger.Printf("experiment=%s iteration=%d failed: %v", e.ID, i, err)
				c <- Result{Index: i, Error: err, Type: Error}
				return
			}
			c <- Result{Index: i, Iteration: res, Type: Iteration}
		}(i)
	}

	// Wait until the last goroutine has read from the semaphore.
	for i := 0; i < cap(sem); i++ {
		sem <- true
	}
	if bar != nil {
		bar.Finish()
	}

	e.Logger.Printf("completed experiment=%s", e.ID)
	c <- Result{Index: -1, Type: Done}
}

// Run executes the experiment and collects its results. When any iteration fails, the error names every failed
// iteration and no result is returned.
func (e Experiment) Run() (*ResampleResult, error) {
	c := make(chan Result)
	go e.Execute(c)

	rr := &ResampleResult{
		ID:        e.ID,
		TaskID:    e.Task.ID(),
		LearnerID: e.Learner.ID,
		Strategy:  e.Strategy.ID(),
	}
	var failures []Result
	for r := range c {
		switch r.Type {
		case Iteration:
			rr.Iterations = append(rr.Iterations, r.Iteration)
		case Error:
			if r.Index < 0 {
				return nil, r.Error
			}
			failures = append(failures, r)
		}
	}

	if len(failures) > 0 {
		return nil, failed(failures)
	}
	rr.sort()
	rr.Learners = make([]*learning.Learner, len(rr.Iterations))
	for i, res := range rr.Iterations {
		rr.Learners[i] = iteration.Reassemble(res, e.Learner)
	}
	return rr, nil
}
