package store_test

import (
	"github.com/hscells/resample/iteration"
	"github.com/hscells/resample/journal"
	"github.com/hscells/resample/learning"
	"github.com/hscells/resample/store"
	"math"
	"reflect"
	"testing"
	"time"
)

func result(index int) iteration.Result {
	elapsed := 3 * time.Millisecond
	return iteration.Result{
		Index:     index,
		LearnerID: "classif.debug",
		TaskID:    "task",
		State: learning.State{
			Model:     2.5,
			Log:       journal.Log{}.Append(journal.Train, journal.Warning, "slow"),
			TrainTime: &elapsed,
		},
		Predictions: map[string]*learning.Prediction{
			iteration.TestSet: {
				TaskType: learning.Regression,
				RowIDs:   []int{1, 2},
				Truth:    []float64{1, 2},
				Response: []float64{1.5, math.NaN()},
			},
		},
	}
}

func TestKey(t *testing.T) {
	a, b := store.Key("task", "learner", "0"), store.Key("task", "learner", "0")
	if a != b || len(a) != 32 {
		t.Errorf("keys = %s, %s", a, b)
	}
	if store.Key("task", "learner", "1") == a || store.Key("task", "learner0") == a {
		t.Error("different parts must give different keys")
	}
}

func testCache(t *testing.T, c store.ResultCache) {
	if _, err := c.Get(store.Key("missing")); err != store.ErrCacheMiss {
		t.Errorf("err = %v, want a cache miss", err)
	}
	key := store.Key("task", "0")
	if err := c.Set(key, result(0)); err != nil {
		t.Fatal(err)
	}
	r, err := c.Get(key)
	if err != nil {
		t.Fatal(err)
	}
	if r.Index != 0 || r.LearnerID != "classif.debug" || r.State.Model != 2.5 || *r.State.TrainTime != 3*time.Millisecond {
		t.Errorf("result = %+v", r)
	}
	p := r.Predictions[iteration.TestSet]
	if p == nil || !reflect.DeepEqual(p.RowIDs, []int{1, 2}) || !math.IsNaN(p.Response[1]) {
		t.Errorf("prediction = %+v", p)
	}
	if len(r.State.Log.Warnings()) != 1 {
		t.Errorf("log = %v", r.State.Log)
	}
}

func TestMapCache(t *testing.T) {
	testCache(t, store.NewMapCache())
}

func TestLRUCache(t *testing.T) {
	c, err := store.NewLRUCache(1)
	if err != nil {
		t.Fatal(err)
	}
	testCache(t, c)

	if err := c.Set(store.Key("task", "1"), result(1)); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(store.Key("task", "0")); err != store.ErrCacheMiss {
		t.Error("the least recently used result should have been evicted")
	}
}

func TestDiskvCache(t *testing.T) {
	dir := t.TempDir()
	testCache(t, store.NewDiskvCache(store.NewDiskv(dir, 0)))

	// A new store over the same directory sees the results of the old one.
	r, err := store.NewDiskvCache(store.NewDiskv(dir, 0)).Get(store.Key("task", "0"))
	if err != nil || r.Index != 0 {
		t.Errorf("result = %+v, err = %v", r, err)
	}
}

func TestTieredCache(t *testing.T) {
	front, back := store.NewMapCache(), store.NewMapCache()
	testCache(t, store.NewTieredCache(front, back))

	key := store.Key("task", "2")
	if err := back.Set(key, result(2)); err != nil {
		t.Fatal(err)
	}
	c := store.NewTieredCache(front, back)
	if _, err := c.Get(key); err != nil {
		t.Fatal(err)
	}
	if _, err := front.Get(key); err != nil {
		t.Error("a result found in the back tier was not promoted")
	}
}

func TestBlockTransform(t *testing.T) {
	if got := store.BlockTransform(2)("abcdef"); !reflect.DeepEqual(got, []string{"ab", "cd", "ef"}) {
		t.Errorf("transform = %v", got)
	}
}
