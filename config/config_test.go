package config_test

import (
	"bytes"
	"github.com/hscells/resample"
	"github.com/hscells/resample/capsule"
	"github.com/hscells/resample/config"
	"github.com/hscells/resample/journal"
	"github.com/hscells/resample/learning"
	"github.com/hscells/resample/resampling"
	"io/ioutil"
	"log"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

const properties = `
# isolation
encapsulate.train = worker
encapsulate.predict = none
capsule.timeout = 2s

workers = 3
store_models = true
seed = 42
predict_sets = train, test
cache.size = 16
remote.hosts = 10.0.0.1:8005,10.0.0.2:8005
`

func TestLoadString(t *testing.T) {
	c, err := config.LoadString(properties)
	if err != nil {
		t.Fatal(err)
	}
	if c.EncapsulateTrain != capsule.Worker || c.EncapsulatePredict != capsule.None || c.Timeout != 2*time.Second {
		t.Errorf("encapsulation = %s %s %s", c.EncapsulateTrain, c.EncapsulatePredict, c.Timeout)
	}
	if c.Workers != 3 || !c.StoreModels || c.Seed != 42 || c.CacheSize != 16 || c.Progress {
		t.Errorf("config = %+v", c)
	}
	if !reflect.DeepEqual(c.PredictSets, []string{"train", "test"}) {
		t.Errorf("predict sets = %v", c.PredictSets)
	}
	if !reflect.DeepEqual(c.Hosts, []string{"10.0.0.1:8005", "10.0.0.2:8005"}) {
		t.Errorf("hosts = %v", c.Hosts)
	}

	l := learning.NewLearner("l", nil, c.LearnerOptions()...)
	if l.Mode(journal.Train) != capsule.Worker || l.Mode(journal.Predict) != capsule.None || len(l.PredictSets) != 2 {
		t.Errorf("learner = %+v", l)
	}
}

func TestDefaults(t *testing.T) {
	c, err := config.LoadString("")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(c, config.Default()) {
		t.Errorf("config = %+v", c)
	}
	if c.EncapsulateTrain != capsule.Evaluate || c.Seed != 1 || len(c.Hosts) != 0 {
		t.Errorf("defaults = %+v", c)
	}
}

func TestInvalid(t *testing.T) {
	for _, s := range []string{
		"encapsulate.train = callr",
		"capsule.timeout = soon",
		"workers = many",
		"store_models = perhaps",
	} {
		if _, err := config.LoadString(s); err == nil {
			t.Errorf("expected an error for %q", s)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resample.properties")
	if err := ioutil.WriteFile(path, []byte(properties), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Workers != 3 {
		t.Errorf("workers = %d", c.Workers)
	}
	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.properties")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestCache(t *testing.T) {
	c := config.Default()
	c.CacheSize = 0
	if cache, err := c.Cache(); err != nil || cache != nil {
		t.Errorf("cache = %v, err = %v", cache, err)
	}
	c.CachePath = t.TempDir()
	cache, err := c.Cache()
	if err != nil || cache == nil {
		t.Fatalf("cache = %v, err = %v", cache, err)
	}
}

func TestExperimentOptions(t *testing.T) {
	c, err := config.LoadString(properties)
	if err != nil {
		t.Fatal(err)
	}
	task, err := learning.NewTable("t", learning.Regression, []string{"x"}, "y", [][]float64{{1}, {2}}, []float64{1, 2}, nil)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	options := append(c.ExperimentOptions(), resample.Logger(logger))
	e := resample.NewExperiment(task, learning.NewLearner("l", nil), resampling.Holdout{Ratio: .5}, options...)
	if e.Runner.Logger != logger || e.Runner.Timeout != 2*time.Second {
		t.Errorf("runner = %+v", e.Runner)
	}
	if e.Seed != 42 || e.Workers != 3 || !e.StoreModels {
		t.Errorf("experiment = %+v", e)
	}
}
