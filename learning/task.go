package learning

import (
	"fmt"
	"sort"
)

// TaskType is the kind of supervised problem a task describes.
type TaskType string

const (
	// Classification tasks have a categorical target.
	Classification TaskType = "classif"
	// Regression tasks have a numeric target.
	Regression TaskType = "regr"
)

// Task is the dataset abstraction learners are trained on. The set of active rows is the only part of a task
// the orchestrators write to, and they always restore it before returning.
type Task interface {
	ID() string
	Type() TaskType
	// ActiveRows are the row ids currently in use.
	ActiveRows() []int
	SetActiveRows(rows []int)
	// RowCount is the number of active rows.
	RowCount() int
	// RowIDs are all row ids of the underlying data.
	RowIDs() []int
	// Clone returns a view of the same data with its own set of active rows.
	Clone() Task
}

// Dataset is a task that provides access to its data.
type Dataset interface {
	Task
	Features() []string
	// Levels are the class labels of a classification target. The target of a classification task is the index
	// of its label in Levels.
	Levels() []string
	Data(rows []int) (x [][]float64, y []float64, err error)
}

// withRows overrides the active rows of a task and returns the function that restores them. A nil slice leaves
// the task untouched.
func withRows(task Task, rows []int) func() {
	if rows == nil {
		return func() {}
	}
	prev := task.ActiveRows()
	task.SetActiveRows(rows)
	return func() {
		task.SetActiveRows(prev)
	}
}

// Table is an in-memory Dataset. Its fields are exported so that it can be gob encoded and sent to a remote
// worker. IDs must be sorted in ascending order.
type Table struct {
	Name    string
	Kind    TaskType
	Columns []string
	Target  string
	Classes []string
	IDs     []int
	X       [][]float64
	Y       []float64
	Use     []int
}

// NewTable creates a table over rows x with target y. Row ids are numbered from 1 and every row is active.
func NewTable(name string, kind TaskType, columns []string, target string, x [][]float64, y []float64, classes []string) (*Table, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("task %s: %d rows of features but %d targets", name, len(x), len(y))
	}
	for i, row := range x {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("task %s: row %d has %d values, expected %d", name, i, len(row), len(columns))
		}
	}
	if kind == Classification {
		for i, v := range y {
			if int(v) < 0 || int(v) >= len(classes) || float64(int(v)) != v {
				return nil, fmt.Errorf("task %s: row %d has no valid class", name, i)
			}
		}
	}
	ids := make([]int, len(x))
	for i := range ids {
		ids[i] = i + 1
	}
	return &Table{
		Name:    name,
		Kind:    kind,
		Columns: columns,
		Target:  target,
		Classes: classes,
		IDs:     ids,
		X:       x,
		Y:       y,
		Use:     append([]int(nil), ids...),
	}, nil
}

func (t *Table) ID() string {
	return t.Name
}

func (t *Table) Type() TaskType {
	return t.Kind
}

func (t *Table) ActiveRows() []int {
	return append([]int(nil), t.Use...)
}

func (t *Table) SetActiveRows(rows []int) {
	t.Use = append([]int{}, rows...)
}

func (t *Table) RowCount() int {
	return len(t.Use)
}

func (t *Table) RowIDs() []int {
	return append([]int(nil), t.IDs...)
}

// Clone shares the data of the table and copies its active rows.
func (t *Table) Clone() Task {
	c := *t
	c.Use = append([]int{}, t.Use...)
	return &c
}

func (t *Table) Features() []string {
	return t.Columns
}

func (t *Table) Levels() []string {
	return t.Classes
}

func (t *Table) position(id int) (int, bool) {
	i := sort.SearchInts(t.IDs, id)
	return i, i < len(t.IDs) && t.IDs[i] == id
}

// Data returns the features and target of the given rows, in order.
func (t *Table) Data(rows []int) ([][]float64, []float64, error) {
	x := make([][]float64, len(rows))
	y := make([]float64, len(rows))
	for i, id := range rows {
		p, ok := t.position(id)
		if !ok {
			return nil, nil, fmt.Errorf("task %s has no row %d", t.Name, id)
		}
		x[i] = t.X[p]
		y[i] = t.Y[p]
	}
	return x, y, nil
}
