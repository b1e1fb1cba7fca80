// Package output provides different formats of output for resampling experiments.
package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"github.com/hscells/resample"
	"github.com/hscells/resample/eval"
	"github.com/mailru/easyjson"
	"strconv"
	"text/tabwriter"
)

// Formatter formats the scores of an evaluation set of a resample result.
type Formatter func(rr *resample.ResampleResult, set string, measures []eval.Measure) (string, error)

// Formatters are the formatters by name.
var Formatters = map[string]Formatter{
	"json": JSONFormatter,
	"csv":  CSVFormatter,
	"text": TextFormatter,
}

// JSONFormatter outputs the summary of a result in a JSON format.
func JSONFormatter(rr *resample.ResampleResult, set string, measures []eval.Measure) (string, error) {
	v, err := easyjson.Marshal(Summarise(rr, set, measures))
	if err != nil {
		return "", err
	}
	return string(v), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// CSVFormatter outputs one row of scores per iteration.
func CSVFormatter(rr *resample.ResampleResult, set string, measures []eval.Measure) (string, error) {
	s := Summarise(rr, set, measures)
	b := bytes.NewBufferString("")
	w := csv.NewWriter(b)
	h := []string{"Iteration", "Predicted", "Missing", "Warnings", "Errors"}
	for _, m := range measures {
		h = append(h, m.Name())
	}
	if err := w.Write(h); err != nil {
		return "", err
	}
	for _, is := range s.Iterations {
		record := []string{
			strconv.Itoa(is.Index),
			strconv.Itoa(is.Predicted),
			strconv.Itoa(is.Missing),
			strconv.Itoa(len(is.Warnings)),
			strconv.Itoa(len(is.Errors)),
		}
		for _, score := range is.Scores {
			record = append(record, formatFloat(score.Value))
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	return b.String(), w.Error()
}

// TextFormatter outputs a human readable table followed by the aggregated scores and the errors of each iteration.
func TextFormatter(rr *resample.ResampleResult, set string, measures []eval.Measure) (string, error) {
	s := Summarise(rr, set, measures)
	b := bytes.NewBufferString("")
	fmt.Fprintf(b, "%s on %s with %s (%d iterations, %s set)\n\n", s.Learner, s.Task, s.Resampling, len(s.Iterations), s.Set)

	w := tabwriter.NewWriter(b, 0, 4, 2, ' ', 0)
	fmt.Fprint(w, "iteration\tpredicted\tmissing\twarnings\terrors")
	for _, m := range measures {
		fmt.Fprintf(w, "\t%s", m.Name())
	}
	fmt.Fprintln(w)
	for _, is := range s.Iterations {
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d", is.Index, is.Predicted, is.Missing, len(is.Warnings), len(is.Errors))
		for _, score := range is.Scores {
			fmt.Fprintf(w, "\t%.4f", score.Value)
		}
		fmt.Fprintln(w)
	}
	if err := w.Flush(); err != nil {
		return "", err
	}

	fmt.Fprintln(b)
	for _, a := range s.Aggregates {
		fmt.Fprintf(b, "%s: %.4f (sd %.4f)\n", a.Measure, a.Mean, a.SD)
	}
	for _, is := range s.Iterations {
		for _, e := range is.Errors {
			fmt.Fprintf(b, "iteration %d: %s\n", is.Index, e)
		}
	}
	return b.String(), nil
}
