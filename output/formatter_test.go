package output_test

import (
	"encoding/json"
	"github.com/hscells/resample"
	"github.com/hscells/resample/eval"
	"github.com/hscells/resample/iteration"
	"github.com/hscells/resample/journal"
	"github.com/hscells/resample/learning"
	"github.com/hscells/resample/output"
	"math"
	"strings"
	"testing"
	"time"
)

func result() *resample.ResampleResult {
	elapsed := 1500 * time.Millisecond
	return &resample.ResampleResult{
		ID:        "run",
		TaskID:    "task",
		LearnerID: "classif.debug",
		Strategy:  "cv",
		Iterations: []iteration.Result{
			{
				Index: 1,
				State: learning.State{
					Log: journal.Log{}.Append(journal.Predict, journal.Error, `failed "badly"`),
				},
			},
			{
				Index: 0,
				State: learning.State{
					Log:       journal.Log{}.Append(journal.Train, journal.Warning, "slow"),
					TrainTime: &elapsed,
				},
				Predictions: map[string]*learning.Prediction{
					iteration.TestSet: {
						TaskType: learning.Classification,
						RowIDs:   []int{1, 2, 3, 4},
						Truth:    []float64{0, 1, 1, 0},
						Response: []float64{0, 1, 0, math.NaN()},
					},
				},
			},
		},
	}
}

func TestJSONFormatter(t *testing.T) {
	s, err := output.JSONFormatter(result(), iteration.TestSet, []eval.Measure{eval.ClassificationError})
	if err != nil {
		t.Fatal(err)
	}
	var v struct {
		ID         string `json:"id"`
		Iterations []struct {
			Iteration int                 `json:"iteration"`
			Predicted int                 `json:"predicted"`
			Missing   int                 `json:"missing"`
			TrainTime float64             `json:"train_time"`
			Scores    map[string]*float64 `json:"scores"`
			Errors    []string            `json:"errors"`
		} `json:"iterations"`
		Aggregates []struct {
			Measure string   `json:"measure"`
			Mean    float64  `json:"mean"`
			SD      *float64 `json:"sd"`
		} `json:"aggregates"`
	}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("invalid json %s: %v", s, err)
	}
	if v.ID != "run" || len(v.Iterations) != 2 {
		t.Fatalf("summary = %s", s)
	}
	first, second := v.Iterations[0], v.Iterations[1]
	if first.Iteration != 0 || first.Predicted != 4 || first.Missing != 1 || first.TrainTime != 1.5 {
		t.Errorf("iteration 0 = %+v", first)
	}
	if ce := first.Scores["classif.ce"]; ce == nil || math.Abs(*ce-1.0/3.0) > 1e-9 {
		t.Errorf("scores = %v", first.Scores)
	}
	if second.Scores["classif.ce"] != nil || len(second.Errors) != 1 || second.Errors[0] != `failed "badly"` {
		t.Errorf("iteration 1 = %+v", second)
	}
	if len(v.Aggregates) != 1 || v.Aggregates[0].SD != nil {
		t.Errorf("aggregates = %s", s)
	}
}

func TestCSVFormatter(t *testing.T) {
	s, err := output.CSVFormatter(result(), iteration.TestSet, []eval.Measure{eval.Accuracy})
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) != 3 || lines[0] != "Iteration,Predicted,Missing,Warnings,Errors,classif.acc" {
		t.Errorf("csv = %q", s)
	}
	if !strings.HasPrefix(lines[1], "0,4,1,1,0,") {
		t.Errorf("first row = %q", lines[1])
	}
}

func TestTextFormatter(t *testing.T) {
	s, err := output.TextFormatter(result(), iteration.TestSet, []eval.Measure{eval.ClassificationError})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"classif.debug on task with cv", "classif.ce: 0.3333", `iteration 1: failed "badly"`} {
		if !strings.Contains(s, want) {
			t.Errorf("text output does not contain %q:\n%s", want, s)
		}
	}
	if _, ok := output.Formatters["json"]; !ok {
		t.Error("json formatter is not registered")
	}
}
