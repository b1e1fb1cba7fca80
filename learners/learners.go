// Package learners contains the learners an experiment can be configured with by id.
package learners

import (
	"encoding/gob"
	"fmt"
	"github.com/hscells/resample/learning"
	"sort"
)

var registry = map[string]func() *learning.Learner{
	"classif.featureless": func() *learning.Learner {
		return learning.NewLearner("classif.featureless", Featureless{Method: "mode"}, learning.LearnerPackages("stats"))
	},
	"regr.featureless": func() *learning.Learner {
		return learning.NewLearner("regr.featureless", Featureless{Method: "mean"}, learning.LearnerPackages("stats"))
	},
	"regr.median": func() *learning.Learner {
		return learning.NewLearner("regr.median", Featureless{Method: "median"}, learning.LearnerPackages("stats"))
	},
	"classif.centroid": func() *learning.Learner {
		return learning.NewLearner("classif.centroid", Centroid{Norm: 2}, learning.LearnerPackages("stats", "floats"))
	},
	"classif.debug": func() *learning.Learner {
		return learning.NewLearner("classif.debug", Debug{})
	},
}

func init() {
	learning.Provide("stats", "floats")

	gob.Register(Featureless{})
	gob.Register(FeaturelessModel{})
	gob.Register(Centroid{})
	gob.Register(CentroidModel{})
	gob.Register(Debug{})
	gob.Register(DebugModel{})
}

// Get creates a new learner from its id.
func Get(id string) (*learning.Learner, error) {
	fn, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("no learner with id %s", id)
	}
	return fn(), nil
}

// IDs lists the ids of all learners.
func IDs() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
