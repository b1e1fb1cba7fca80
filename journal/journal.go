// Package journal provides the append-only log a learner accumulates while it is trained and used to predict.
package journal

import (
	"fmt"
	"strings"
)

// Stage is the step of a learner's lifetime a record was produced in.
type Stage uint8

const (
	// Train is the training step.
	Train Stage = iota
	// Predict is the prediction step.
	Predict
)

// Severity orders records from informational output to errors.
type Severity uint8

const (
	// Output is informational output.
	Output Severity = iota
	// Warning is a non-fatal diagnostic.
	Warning
	// Error is a fault.
	Error
)

func (s Stage) String() string {
	switch s {
	case Train:
		return "train"
	case Predict:
		return "predict"
	}
	return fmt.Sprintf("stage(%d)", uint8(s))
}

func (s Severity) String() string {
	switch s {
	case Output:
		return "output"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return fmt.Sprintf("severity(%d)", uint8(s))
}

// ParseStage converts the name of a stage back into a Stage.
func ParseStage(s string) (Stage, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "train":
		return Train, nil
	case "predict":
		return Predict, nil
	}
	return 0, fmt.Errorf("unknown stage %q", s)
}

// ParseSeverity converts the name of a severity back into a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "output":
		return Output, nil
	case "warning":
		return Warning, nil
	case "error":
		return Error, nil
	}
	return 0, fmt.Errorf("unknown severity %q", s)
}

// Record is a single entry in a log.
type Record struct {
	Stage    Stage
	Severity Severity
	Message  string
}

func (r Record) String() string {
	return fmt.Sprintf("[%s] %s: %s", r.Stage, strings.ToUpper(r.Severity.String()), r.Message)
}

// Log is an ordered sequence of records. A Log is never modified in place; Append and Merge return new logs.
type Log []Record

// Append returns a new log with one record per message added after all existing records. Appending no messages
// returns the log unchanged.
func (l Log) Append(stage Stage, severity Severity, messages ...string) Log {
	if len(messages) == 0 {
		return l
	}
	out := make(Log, len(l), len(l)+len(messages))
	copy(out, l)
	for _, m := range messages {
		out = append(out, Record{Stage: stage, Severity: severity, Message: m})
	}
	return out
}

// Appendf appends a single formatted message.
func (l Log) Appendf(stage Stage, severity Severity, format string, args ...interface{}) Log {
	return l.Append(stage, severity, fmt.Sprintf(format, args...))
}

// Merge concatenates logs in the order given.
func Merge(logs ...Log) Log {
	n := 0
	for _, l := range logs {
		n += len(l)
	}
	if n == 0 {
		return nil
	}
	out := make(Log, 0, n)
	for _, l := range logs {
		out = append(out, l...)
	}
	return out
}

// Filter returns the records of exactly the given severity.
func (l Log) Filter(severity Severity) Log {
	var out Log
	for _, r := range l {
		if r.Severity == severity {
			out = append(out, r)
		}
	}
	return out
}

// Stage returns the records produced in the given stage.
func (l Log) Stage(stage Stage) Log {
	var out Log
	for _, r := range l {
		if r.Stage == stage {
			out = append(out, r)
		}
	}
	return out
}

// Has reports whether any record is at least as severe as severity.
func (l Log) Has(severity Severity) bool {
	for _, r := range l {
		if r.Severity >= severity {
			return true
		}
	}
	return false
}

// Messages returns the messages of the log in order.
func (l Log) Messages() []string {
	m := make([]string, len(l))
	for i, r := range l {
		m[i] = r.Message
	}
	return m
}

// Errors returns the messages of error records.
func (l Log) Errors() []string {
	return l.Filter(Error).Messages()
}

// Warnings returns the messages of warning records.
func (l Log) Warnings() []string {
	return l.Filter(Warning).Messages()
}

func (l Log) String() string {
	var b strings.Builder
	for _, r := range l {
		b.WriteString(r.String())
		b.WriteByte('\n')
	}
	return b.String()
}
