// Package learning trains learners and predicts with them while isolating the faults of the algorithms they
// wrap. A learner whose algorithm fails is not an error: the failure is recorded in its state, and a fallback
// learner, when one is configured, fills in the predictions the primary could not make.
package learning

import (
	"github.com/hscells/resample/capsule"
	"github.com/hscells/resample/journal"
	"github.com/pkg/errors"
	"time"
)

var (
	// ErrContractViolation is raised when an algorithm reports success without a model, or predicts something
	// that is not a well-formed prediction.
	ErrContractViolation = errors.New("contract violation")
	// ErrNotTrained is raised when predicting requires a model that does not exist.
	ErrNotTrained = errors.New("learner has not been trained")
	// ErrMissingPackages is raised when a learner depends on packages no algorithm has provided.
	ErrMissingPackages = errors.New("missing packages")
	// ErrDuplicateRows is raised when a prediction contains a row id twice.
	ErrDuplicateRows = errors.New("duplicate row ids")
)

const (
	// PredictResponse predicts a single value per row.
	PredictResponse = "response"
	// PredictProb additionally predicts class probabilities.
	PredictProb = "prob"
)

// Algorithm is a trainable model. Train fits a model to the active rows of a task; Predict uses a fitted model
// to predict the active rows. Diagnostics go to the console.
type Algorithm interface {
	Train(task Task, c *capsule.Console) (interface{}, error)
	Predict(task Task, model interface{}, predictType string, c *capsule.Console) (*Prediction, error)
}

// InternalTrainer is the older training hook. When an algorithm implements it, it is used instead of Train.
type InternalTrainer interface {
	TrainInternal(task Task) (interface{}, error)
}

// InternalPredictor is the older prediction hook. When an algorithm implements it, it is used instead of Predict.
type InternalPredictor interface {
	PredictInternal(task Task, model interface{}) (*Prediction, error)
}

// Cloner is implemented by algorithms with mutable configuration.
type Cloner interface {
	Clone() Algorithm
}

type trainFunc func(task Task, c *capsule.Console) (interface{}, error)

type predictFunc func(task Task, model interface{}, predictType string, c *capsule.Console) (*Prediction, error)

func trainHook(a Algorithm) trainFunc {
	if legacy, ok := a.(InternalTrainer); ok {
		return func(task Task, _ *capsule.Console) (interface{}, error) {
			return legacy.TrainInternal(task)
		}
	}
	return a.Train
}

func predictHook(a Algorithm) predictFunc {
	if legacy, ok := a.(InternalPredictor); ok {
		return func(task Task, model interface{}, _ string, _ *capsule.Console) (*Prediction, error) {
			return legacy.PredictInternal(task, model)
		}
	}
	return a.Predict
}

// State is everything a learner learns. It is replaced as a whole every time the learner is trained.
type State struct {
	Model         interface{}
	Log           journal.Log
	TrainTime     *time.Duration
	PredictTime   *time.Duration
	FallbackState *State
}

// Clone copies a state. The model itself is shared.
func (s State) Clone() State {
	c := s
	c.Log = append(journal.Log(nil), s.Log...)
	if s.TrainTime != nil {
		d := *s.TrainTime
		c.TrainTime = &d
	}
	if s.PredictTime != nil {
		d := *s.PredictTime
		c.PredictTime = &d
	}
	if s.FallbackState != nil {
		fb := s.FallbackState.Clone()
		c.FallbackState = &fb
	}
	return c
}

// Learner wraps an algorithm with its configuration and the state learned by training it.
type Learner struct {
	ID          string
	Algorithm   Algorithm
	Packages    []string
	Encapsulate map[journal.Stage]capsule.Mode
	Fallback    *Learner
	PredictType string
	PredictSets []string
	State       State
}

// LearnerPackages declares the packages a learner depends on.
func LearnerPackages(packages ...string) func(*Learner) {
	return func(l *Learner) {
		l.Packages = packages
	}
}

// LearnerEncapsulate sets the isolation mode of one stage.
func LearnerEncapsulate(stage journal.Stage, mode capsule.Mode) func(*Learner) {
	return func(l *Learner) {
		l.Encapsulate[stage] = mode
	}
}

// LearnerFallback configures the learner used when this one fails.
func LearnerFallback(fallback *Learner) func(*Learner) {
	return func(l *Learner) {
		l.Fallback = fallback
	}
}

// LearnerPredictType sets what the learner predicts.
func LearnerPredictType(predictType string) func(*Learner) {
	return func(l *Learner) {
		l.PredictType = predictType
	}
}

// LearnerPredictSets sets the evaluation sets the learner predicts on during resampling.
func LearnerPredictSets(sets ...string) func(*Learner) {
	return func(l *Learner) {
		l.PredictSets = sets
	}
}

// NewLearner creates a learner that predicts responses on the test set without isolation.
func NewLearner(id string, algorithm Algorithm, options ...func(*Learner)) *Learner {
	l := &Learner{
		ID:          id,
		Algorithm:   algorithm,
		Encapsulate: map[journal.Stage]capsule.Mode{journal.Train: capsule.None, journal.Predict: capsule.None},
		PredictType: PredictResponse,
		PredictSets: []string{"test"},
	}
	for _, option := range options {
		option(l)
	}
	return l
}

// Mode is the isolation mode of a stage. Stages without a mode are not isolated.
func (l *Learner) Mode(stage journal.Stage) capsule.Mode {
	if mode, ok := l.Encapsulate[stage]; ok {
		return mode
	}
	return capsule.None
}

// Trained reports whether the learner has a model.
func (l *Learner) Trained() bool {
	return l.State.Model != nil
}

// Clone copies a learner so that the copy can be trained without touching the original.
func (l *Learner) Clone() *Learner {
	if l == nil {
		return nil
	}
	c := *l
	if cl, ok := l.Algorithm.(Cloner); ok {
		c.Algorithm = cl.Clone()
	}
	c.Packages = append([]string(nil), l.Packages...)
	c.PredictSets = append([]string(nil), l.PredictSets...)
	c.Encapsulate = make(map[journal.Stage]capsule.Mode, len(l.Encapsulate))
	for stage, mode := range l.Encapsulate {
		c.Encapsulate[stage] = mode
	}
	c.Fallback = l.Fallback.Clone()
	c.State = l.State.Clone()
	return &c
}

// unisolated returns a clone of the learner with isolation switched off for every stage.
func (l *Learner) unisolated() *Learner {
	c := l.Clone()
	c.Encapsulate = map[journal.Stage]capsule.Mode{journal.Train: capsule.None, journal.Predict: capsule.None}
	return c
}
