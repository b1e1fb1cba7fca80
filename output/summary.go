package output

import (
	"github.com/hscells/resample"
	"github.com/hscells/resample/eval"
	"github.com/mailru/easyjson/jwriter"
	"math"
	"sort"
)

// Score is the value of a measure.
type Score struct {
	Measure string
	Value   float64
}

// IterationSummary is what is reported about one iteration.
type IterationSummary struct {
	Index       int
	Predicted   int
	Missing     int
	TrainTime   float64
	PredictTime float64
	Scores      []Score
	Warnings    []string
	Errors      []string
}

// Aggregate is a measure aggregated over all iterations.
type Aggregate struct {
	Measure string
	Mean    float64
	SD      float64
}

// Summary is the report of a resampling experiment.
type Summary struct {
	ID         string
	Task       string
	Learner    string
	Resampling string
	Set        string
	Iterations []IterationSummary
	Aggregates []Aggregate
}

// Summarise scores the predictions of an evaluation set.
func Summarise(rr *resample.ResampleResult, set string, measures []eval.Measure) Summary {
	s := Summary{
		ID:         rr.ID,
		Task:       rr.TaskID,
		Learner:    rr.LearnerID,
		Resampling: rr.Strategy,
		Set:        set,
	}
	scores := rr.Score(set, measures...)
	for _, it := range rr.Iterations {
		is := IterationSummary{
			Index:    it.Index,
			Warnings: it.State.Log.Warnings(),
			Errors:   it.State.Log.Errors(),
		}
		if it.State.TrainTime != nil {
			is.TrainTime = it.State.TrainTime.Seconds()
		}
		if it.State.PredictTime != nil {
			is.PredictTime = it.State.PredictTime.Seconds()
		}
		if p, ok := it.Predictions[set]; ok {
			is.Predicted = p.Len()
			is.Missing = len(p.Missing())
		}
		for _, m := range measures {
			v, ok := scores[it.Index][m.Name()]
			if !ok {
				v = math.NaN()
			}
			is.Scores = append(is.Scores, Score{Measure: m.Name(), Value: v})
		}
		s.Iterations = append(s.Iterations, is)
	}
	sort.Slice(s.Iterations, func(i, j int) bool {
		return s.Iterations[i].Index < s.Iterations[j].Index
	})
	for _, m := range measures {
		mean, sd := rr.Aggregate(set, m)
		s.Aggregates = append(s.Aggregates, Aggregate{Measure: m.Name(), Mean: mean, SD: sd})
	}
	return s
}

func writeFloat(w *jwriter.Writer, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		w.RawString("null")
		return
	}
	w.Float64(v)
}

func writeStrings(w *jwriter.Writer, values []string) {
	w.RawByte('[')
	for i, v := range values {
		if i > 0 {
			w.RawByte(',')
		}
		w.String(v)
	}
	w.RawByte(']')
}

// MarshalEasyJSON supports easyjson.Marshaler interface.
func (is IterationSummary) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawString(`{"iteration":`)
	w.Int(is.Index)
	w.RawString(`,"predicted":`)
	w.Int(is.Predicted)
	w.RawString(`,"missing":`)
	w.Int(is.Missing)
	w.RawString(`,"train_time":`)
	writeFloat(w, is.TrainTime)
	w.RawString(`,"predict_time":`)
	writeFloat(w, is.PredictTime)
	w.RawString(`,"scores":{`)
	for i, s := range is.Scores {
		if i > 0 {
			w.RawByte(',')
		}
		w.String(s.Measure)
		w.RawByte(':')
		writeFloat(w, s.Value)
	}
	w.RawString(`},"warnings":`)
	writeStrings(w, is.Warnings)
	w.RawString(`,"errors":`)
	writeStrings(w, is.Errors)
	w.RawByte('}')
}

// MarshalEasyJSON supports easyjson.Marshaler interface.
func (a Aggregate) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawString(`{"measure":`)
	w.String(a.Measure)
	w.RawString(`,"mean":`)
	writeFloat(w, a.Mean)
	w.RawString(`,"sd":`)
	writeFloat(w, a.SD)
	w.RawByte('}')
}

// MarshalEasyJSON supports easyjson.Marshaler interface.
func (s Summary) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawString(`{"id":`)
	w.String(s.ID)
	w.RawString(`,"task":`)
	w.String(s.Task)
	w.RawString(`,"learner":`)
	w.String(s.Learner)
	w.RawString(`,"resampling":`)
	w.String(s.Resampling)
	w.RawString(`,"set":`)
	w.String(s.Set)
	w.RawString(`,"iterations":[`)
	for i, is := range s.Iterations {
		if i > 0 {
			w.RawByte(',')
		}
		is.MarshalEasyJSON(w)
	}
	w.RawString(`],"aggregates":[`)
	for i, a := range s.Aggregates {
		if i > 0 {
			w.RawByte(',')
		}
		a.MarshalEasyJSON(w)
	}
	w.RawString(`]}`)
}
