package main

import (
	"fmt"
	"github.com/alexflint/go-arg"
	"github.com/hscells/resample"
	"github.com/hscells/resample/capsule"
	"github.com/hscells/resample/config"
	"github.com/hscells/resample/eval"
	"github.com/hscells/resample/learners"
	"github.com/hscells/resample/learning"
	"github.com/hscells/resample/output"
	"github.com/hscells/resample/remote"
	"github.com/hscells/resample/resampling"
	"github.com/pkg/errors"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	name    = "resample"
	version = "17.Oct.2026"
)

type args struct {
	Data        string   `arg:"-d,required" help:"CSV file to load the task from"`
	Target      string   `arg:"-t,required" help:"name of the target column"`
	Type        string   `help:"task type (classif/regr)"`
	Learner     string   `arg:"-l" help:"id of the learner to resample"`
	Fallback    string   `help:"id of the learner that predicts what the learner cannot"`
	PredictType string   `help:"what the learner predicts (response/prob)"`
	Resampling  string   `arg:"-r" help:"resampling strategy (holdout/cv/subsampling/bootstrap)"`
	Folds       int      `help:"number of folds of cross validation"`
	Ratio       float64  `help:"share of rows to train on for holdout, subsampling and bootstrap"`
	Repeats     int      `help:"number of repeats of subsampling and bootstrap"`
	Seed        int64    `help:"seed of the resampling"`
	Workers     int      `arg:"-w" help:"number of iterations to run at the same time"`
	Hosts       []string `help:"addresses of remote workers"`
	Train       string   `help:"isolation of training (none/evaluate/worker)"`
	Predict     string   `help:"isolation of prediction (none/evaluate/worker)"`
	Timeout     string   `help:"time limit of a step isolated in worker mode, e.g. 30s"`
	Sets        []string `help:"evaluation sets to predict (train/test)"`
	Measures    []string `arg:"-m" help:"measures to score the predictions with"`
	StoreModels bool     `help:"keep the models of every iteration"`
	Progress    bool     `help:"display a progress bar"`
	Config      string   `arg:"-c" help:"properties file to read the configuration from"`
	Cache       string   `help:"directory to cache iterations in"`
	Format      string   `arg:"-f" help:"output format (json/csv/text)"`
	Output      string   `arg:"-o" help:"file to write the output to, stdout if omitted"`
	Quiet       bool     `arg:"-q" help:"only log errors"`
}

func (args) Version() string {
	return version
}

func (args) Description() string {
	return fmt.Sprintf(`%s
resample a learner on a CSV task, isolating the faults of each iteration
# %s
learners: %s
measures: %s`, name, version, strings.Join(learners.IDs(), ", "), strings.Join(eval.Names(), ", "))
}

func strategy(a args) (resampling.Strategy, error) {
	switch a.Resampling {
	case "holdout":
		return resampling.Holdout{Ratio: a.Ratio}, nil
	case "cv":
		return resampling.CrossValidation{Folds: a.Folds}, nil
	case "subsampling":
		return resampling.Subsampling{Repeats: a.Repeats, Ratio: a.Ratio}, nil
	case "bootstrap":
		return resampling.Bootstrap{Repeats: a.Repeats, Ratio: a.Ratio}, nil
	}
	return nil, fmt.Errorf("unknown resampling strategy %s", a.Resampling)
}

// configure reads the configuration file and lets the command line override it.
func configure(a args) (config.Config, error) {
	c := config.Default()
	if len(a.Config) > 0 {
		var err error
		c, err = config.Load(a.Config)
		if err != nil {
			return c, err
		}
	}
	if len(a.Train) > 0 {
		mode, err := capsule.ParseMode(a.Train)
		if err != nil {
			return c, err
		}
		c.EncapsulateTrain = mode
	}
	if len(a.Predict) > 0 {
		mode, err := capsule.ParseMode(a.Predict)
		if err != nil {
			return c, err
		}
		c.EncapsulatePredict = mode
	}
	if len(a.Timeout) > 0 {
		d, err := time.ParseDuration(a.Timeout)
		if err != nil {
			return c, err
		}
		c.Timeout = d
	}
	if a.Workers > 0 {
		c.Workers = a.Workers
	}
	if a.Seed != 0 {
		c.Seed = a.Seed
	}
	if len(a.Hosts) > 0 {
		c.Hosts = a.Hosts
	}
	if len(a.Sets) > 0 {
		c.PredictSets = a.Sets
	}
	if len(a.Cache) > 0 {
		c.CachePath = a.Cache
	}
	c.StoreModels = c.StoreModels || a.StoreModels
	c.Progress = c.Progress || a.Progress
	return c, nil
}

func learner(a args, c config.Config) (*learning.Learner, error) {
	l, err := learners.Get(a.Learner)
	if err != nil {
		return nil, err
	}
	for _, option := range c.LearnerOptions() {
		option(l)
	}
	if len(a.PredictType) > 0 {
		l.PredictType = a.PredictType
	}
	if len(a.Fallback) > 0 {
		fallback, err := learners.Get(a.Fallback)
		if err != nil {
			return nil, errors.Wrap(err, "fallback")
		}
		l.Fallback = fallback
	}
	return l, nil
}

func run(a args, logger *log.Logger) (string, error) {
	c, err := configure(a)
	if err != nil {
		return "", err
	}

	f, err := os.Open(a.Data)
	if err != nil {
		return "", err
	}
	defer f.Close()
	task, err := learning.ReadCSV(f, strings.TrimSuffix(filepath.Base(a.Data), filepath.Ext(a.Data)), learning.TaskType(a.Type), a.Target)
	if err != nil {
		return "", err
	}

	l, err := learner(a, c)
	if err != nil {
		return "", err
	}
	s, err := strategy(a)
	if err != nil {
		return "", err
	}

	options := append(c.ExperimentOptions(), resample.Logger(logger))
	cache, err := c.Cache()
	if err != nil {
		return "", err
	}
	if cache != nil {
		options = append(options, resample.Cache(cache))
	}
	if len(c.Hosts) > 0 {
		d, err := remote.NewDispatcher(logger, c.Hosts...)
		if err != nil {
			return "", err
		}
		defer d.Close()
		options = append(options, resample.Dispatch(d))
	}

	rr, err := resample.NewExperiment(task, l, s, options...).Run()
	if err != nil {
		return "", err
	}

	measures := []eval.Measure{eval.Default(task.Type())}
	if len(a.Measures) > 0 {
		measures = measures[:0]
		for _, id := range a.Measures {
			m, err := eval.Get(id)
			if err != nil {
				return "", err
			}
			measures = append(measures, m)
		}
	}
	formatter, ok := output.Formatters[a.Format]
	if !ok {
		return "", fmt.Errorf("unknown output format %s", a.Format)
	}
	// Scores are reported on the test set unless only the train set is predicted.
	set := "test"
	if len(c.PredictSets) == 1 {
		set = c.PredictSets[0]
	}
	return formatter(rr, set, measures)
}

func main() {
	args := args{
		Type:       string(learning.Classification),
		Learner:    "classif.featureless",
		Resampling: "cv",
		Folds:      10,
		Ratio:      2.0 / 3.0,
		Repeats:    30,
		Format:     "text",
	}
	arg.MustParse(&args)

	logger := log.New(os.Stderr, "", log.LstdFlags)
	if args.Quiet {
		logger.SetOutput(ioutil.Discard)
	}

	s, err := run(args, logger)
	if err != nil {
		log.Fatalln(err)
	}

	if len(args.Output) == 0 {
		fmt.Println(s)
		return
	}
	if err := ioutil.WriteFile(args.Output, []byte(s), 0644); err != nil {
		log.Fatalln(err)
	}
}
