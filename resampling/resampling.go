// Package resampling splits the rows of a task into train and test sets for each iteration of an experiment.
package resampling

import (
	"fmt"
	"github.com/hscells/resample/learning"
	"github.com/xtgo/set"
	"math"
	"math/rand"
	"sort"
)

// Resampling is what an iteration needs from a resampling scheme.
type Resampling interface {
	TrainSet(i int) []int
	TestSet(i int) []int
	Iters() int
}

// Strategy is a resampling scheme that has not been applied to a task yet.
type Strategy interface {
	ID() string
	Instantiate(task learning.Task, rng *rand.Rand) (*Instance, error)
}

// Instantiate applies a strategy to the active rows of a task.
func Instantiate(s Strategy, task learning.Task, seed int64) (*Instance, error) {
	inst, err := s.Instantiate(task, rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, err
	}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return inst, nil
}

// Instance is a strategy applied to a task: concrete train and test sets for every iteration.
type Instance struct {
	Strategy string
	TaskID   string
	Train    [][]int
	Test     [][]int
	// Replace is set when train sets are drawn with replacement and may repeat rows.
	Replace bool
}

// ID names the strategy the instance was created with.
func (inst *Instance) ID() string {
	return inst.Strategy
}

// Iters is the number of iterations.
func (inst *Instance) Iters() int {
	return len(inst.Train)
}

// TrainSet returns the train rows of iteration i. The result is never nil.
func (inst *Instance) TrainSet(i int) []int {
	return append([]int{}, inst.Train[i]...)
}

// TestSet returns the test rows of iteration i. The result is never nil.
func (inst *Instance) TestSet(i int) []int {
	return append([]int{}, inst.Test[i]...)
}

// Validate checks that every iteration has a train and a test set, that test sets do not repeat rows, and that
// no row is used for both training and testing in the same iteration.
func (inst *Instance) Validate() error {
	if len(inst.Train) != len(inst.Test) {
		return fmt.Errorf("resampling %s has %d train sets and %d test sets", inst.Strategy, len(inst.Train), len(inst.Test))
	}
	for i := range inst.Train {
		if len(Unique(inst.Test[i])) != len(inst.Test[i]) {
			return fmt.Errorf("resampling %s: test set %d repeats rows", inst.Strategy, i)
		}
		if !inst.Replace && len(Unique(inst.Train[i])) != len(inst.Train[i]) {
			return fmt.Errorf("resampling %s: train set %d repeats rows", inst.Strategy, i)
		}
		if overlap := Intersect(inst.Train[i], inst.Test[i]); len(overlap) > 0 {
			return fmt.Errorf("resampling %s: iteration %d trains and tests on rows %v", inst.Strategy, i, overlap)
		}
	}
	return nil
}

// Unique returns the distinct row ids in ascending order.
func Unique(rows []int) []int {
	c := append([]int{}, rows...)
	sort.Ints(c)
	return c[:set.Uniq(sort.IntSlice(c))]
}

// Intersect returns the row ids present in both a and b, in ascending order.
func Intersect(a, b []int) []int {
	x, y := Unique(a), Unique(b)
	data := append(x, y...)
	return data[:set.Inter(sort.IntSlice(data), len(x))]
}

func shuffled(task learning.Task, rng *rand.Rand) []int {
	rows := task.ActiveRows()
	perm := rng.Perm(len(rows))
	out := make([]int, len(rows))
	for i, p := range perm {
		out[i] = rows[p]
	}
	return out
}

func sorted(rows []int) []int {
	sort.Ints(rows)
	return rows
}

// Holdout trains on a random share of the rows and tests on the rest.
type Holdout struct {
	Ratio float64
}

func (h Holdout) ID() string {
	return "holdout"
}

func (h Holdout) Instantiate(task learning.Task, rng *rand.Rand) (*Instance, error) {
	if h.Ratio <= 0 || h.Ratio > 1 {
		return nil, fmt.Errorf("holdout ratio %v is not in (0, 1]", h.Ratio)
	}
	rows := shuffled(task, rng)
	n := int(math.Round(h.Ratio * float64(len(rows))))
	return &Instance{
		Strategy: h.ID(),
		TaskID:   task.ID(),
		Train:    [][]int{sorted(append([]int{}, rows[:n]...))},
		Test:     [][]int{sorted(append([]int{}, rows[n:]...))},
	}, nil
}

// CrossValidation partitions the rows into folds and tests on each fold in turn.
type CrossValidation struct {
	Folds int
}

func (cv CrossValidation) ID() string {
	return "cv"
}

func (cv CrossValidation) Instantiate(task learning.Task, rng *rand.Rand) (*Instance, error) {
	rows := shuffled(task, rng)
	if cv.Folds < 2 || cv.Folds > len(rows) {
		return nil, fmt.Errorf("cannot split %d rows into %d folds", len(rows), cv.Folds)
	}
	folds := make([][]int, cv.Folds)
	for i, r := range rows {
		folds[i%cv.Folds] = append(folds[i%cv.Folds], r)
	}
	inst := &Instance{Strategy: cv.ID(), TaskID: task.ID()}
	for k := range folds {
		var train []int
		for j, fold := range folds {
			if j != k {
				train = append(train, fold...)
			}
		}
		inst.Train = append(inst.Train, sorted(train))
		inst.Test = append(inst.Test, sorted(folds[k]))
	}
	return inst, nil
}

// Subsampling repeats a holdout split.
type Subsampling struct {
	Repeats int
	Ratio   float64
}

func (s Subsampling) ID() string {
	return "subsampling"
}

func (s Subsampling) Instantiate(task learning.Task, rng *rand.Rand) (*Instance, error) {
	if s.Repeats < 1 {
		return nil, fmt.Errorf("subsampling needs at least one repeat, got %d", s.Repeats)
	}
	inst := &Instance{Strategy: s.ID(), TaskID: task.ID()}
	for i := 0; i < s.Repeats; i++ {
		h, err := Holdout{Ratio: s.Ratio}.Instantiate(task, rng)
		if err != nil {
			return nil, err
		}
		inst.Train = append(inst.Train, h.Train[0])
		inst.Test = append(inst.Test, h.Test[0])
	}
	return inst, nil
}

// Bootstrap trains on rows drawn with replacement and tests on the rows that were never drawn.
type Bootstrap struct {
	Repeats int
	Ratio   float64
}

func (b Bootstrap) ID() string {
	return "bootstrap"
}

func (b Bootstrap) Instantiate(task learning.Task, rng *rand.Rand) (*Instance, error) {
	if b.Repeats < 1 {
		return nil, fmt.Errorf("bootstrap needs at least one repeat, got %d", b.Repeats)
	}
	if b.Ratio <= 0 {
		return nil, fmt.Errorf("bootstrap ratio %v must be positive", b.Ratio)
	}
	rows := task.ActiveRows()
	n := int(math.Round(b.Ratio * float64(len(rows))))
	inst := &Instance{Strategy: b.ID(), TaskID: task.ID(), Replace: true}
	for i := 0; i < b.Repeats; i++ {
		drawn := make(map[int]bool)
		train := make([]int, n)
		for j := range train {
			train[j] = rows[rng.Intn(len(rows))]
			drawn[train[j]] = true
		}
		test := []int{}
		for _, r := range rows {
			if !drawn[r] {
				test = append(test, r)
			}
		}
		inst.Train = append(inst.Train, sorted(train))
		inst.Test = append(inst.Test, test)
	}
	return inst, nil
}

// Custom uses train and test sets given up front.
type Custom struct {
	Train [][]int
	Test  [][]int
}

func (c Custom) ID() string {
	return "custom"
}

func (c Custom) Instantiate(task learning.Task, _ *rand.Rand) (*Instance, error) {
	inst := &Instance{Strategy: c.ID(), TaskID: task.ID()}
	for i := range c.Train {
		inst.Train = append(inst.Train, append([]int{}, c.Train[i]...))
	}
	for i := range c.Test {
		inst.Test = append(inst.Test, append([]int{}, c.Test[i]...))
	}
	return inst, nil
}
