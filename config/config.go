// Package config reads experiment configuration from .properties files.
package config

import (
	"github.com/hscells/resample"
	"github.com/hscells/resample/capsule"
	"github.com/hscells/resample/journal"
	"github.com/hscells/resample/learning"
	"github.com/hscells/resample/store"
	"github.com/magiconair/properties"
	"github.com/pkg/errors"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Config is the configuration of an experiment.
type Config struct {
	EncapsulateTrain   capsule.Mode
	EncapsulatePredict capsule.Mode
	// Timeout limits each step of a learner isolated in capsule.Worker mode.
	Timeout     time.Duration
	Workers     int
	StoreModels bool
	Progress    bool
	// CachePath is the directory of the on-disk result cache. Results are only cached in memory without it.
	CachePath string
	// CacheSize is the number of results cached in memory.
	CacheSize   int
	Seed        int64
	PredictSets []string
	// Hosts are the addresses of remote workers. Iterations run in this process without them.
	Hosts []string
}

// Default is the configuration used for keys a file does not set.
func Default() Config {
	return Config{
		EncapsulateTrain:   capsule.Evaluate,
		EncapsulatePredict: capsule.Evaluate,
		Workers:            runtime.NumCPU(),
		CacheSize:          128,
		Seed:               1,
		PredictSets:        []string{"test"},
	}
}

// Load reads a configuration file.
func Load(path string) (Config, error) {
	p, err := properties.LoadFile(path, properties.UTF8)
	if err != nil {
		return Config{}, err
	}
	c, err := FromProperties(p)
	return c, errors.Wrapf(err, "config %s", path)
}

// LoadString reads a configuration from a string.
func LoadString(s string) (Config, error) {
	p, err := properties.LoadString(s)
	if err != nil {
		return Config{}, err
	}
	return FromProperties(p)
}

func list(s string) []string {
	var values []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); len(v) > 0 {
			values = append(values, v)
		}
	}
	return values
}

// FromProperties reads a configuration from properties. Values that cannot be parsed are errors.
func FromProperties(p *properties.Properties) (Config, error) {
	c := Default()
	var err error

	if v, ok := p.Get("encapsulate.train"); ok {
		if c.EncapsulateTrain, err = capsule.ParseMode(v); err != nil {
			return c, errors.Wrap(err, "encapsulate.train")
		}
	}
	if v, ok := p.Get("encapsulate.predict"); ok {
		if c.EncapsulatePredict, err = capsule.ParseMode(v); err != nil {
			return c, errors.Wrap(err, "encapsulate.predict")
		}
	}
	if v, ok := p.Get("capsule.timeout"); ok {
		if c.Timeout, err = time.ParseDuration(v); err != nil {
			return c, errors.Wrap(err, "capsule.timeout")
		}
	}
	if v, ok := p.Get("workers"); ok {
		if c.Workers, err = strconv.Atoi(v); err != nil {
			return c, errors.Wrap(err, "workers")
		}
	}
	if v, ok := p.Get("cache.size"); ok {
		if c.CacheSize, err = strconv.Atoi(v); err != nil {
			return c, errors.Wrap(err, "cache.size")
		}
	}
	if v, ok := p.Get("seed"); ok {
		if c.Seed, err = strconv.ParseInt(v, 10, 64); err != nil {
			return c, errors.Wrap(err, "seed")
		}
	}
	if v, ok := p.Get("store_models"); ok {
		if c.StoreModels, err = strconv.ParseBool(v); err != nil {
			return c, errors.Wrap(err, "store_models")
		}
	}
	if v, ok := p.Get("progress"); ok {
		if c.Progress, err = strconv.ParseBool(v); err != nil {
			return c, errors.Wrap(err, "progress")
		}
	}
	c.CachePath = p.GetString("cache.path", c.CachePath)
	if v, ok := p.Get("predict_sets"); ok {
		c.PredictSets = list(v)
	}
	c.Hosts = list(p.GetString("remote.hosts", ""))
	return c, nil
}

// LearnerOptions configures a learner the way the configuration says.
func (c Config) LearnerOptions() []func(*learning.Learner) {
	return []func(*learning.Learner){
		learning.LearnerEncapsulate(journal.Train, c.EncapsulateTrain),
		learning.LearnerEncapsulate(journal.Predict, c.EncapsulatePredict),
		learning.LearnerPredictSets(c.PredictSets...),
	}
}

// Cache creates the result cache the configuration describes: an LRU cache in front of an on-disk cache when a
// path is given, only the LRU cache otherwise, and no cache at all when neither is configured.
func (c Config) Cache() (store.ResultCacher, error) {
	if c.CacheSize <= 0 && len(c.CachePath) == 0 {
		return nil, nil
	}
	var front store.ResultCacher = store.NewMapCache()
	if c.CacheSize > 0 {
		lru, err := store.NewLRUCache(c.CacheSize)
		if err != nil {
			return nil, err
		}
		front = lru
	}
	if len(c.CachePath) == 0 {
		return front, nil
	}
	return store.NewTieredCache(front, store.NewDiskvCache(store.NewDiskv(c.CachePath, 1024*1024))), nil
}

// ExperimentOptions configures an experiment the way the configuration says. The cache and the remote workers
// are not included.
func (c Config) ExperimentOptions() []func(*resample.Experiment) {
	return []func(*resample.Experiment){
		resample.Seed(c.Seed),
		resample.Workers(c.Workers),
		resample.StoreModels(c.StoreModels),
		resample.Progress(c.Progress),
		// The experiment attaches its own logger to a runner without one.
		resample.Runner(learning.Runner{Timeout: c.Timeout}),
	}
}
