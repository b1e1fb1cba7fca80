package learning_test

import (
	"github.com/hscells/resample/learning"
	"reflect"
	"strings"
	"testing"
)

const iris = `sepal_length,sepal_width,species
5.1,3.5,setosa
4.9,3.0,setosa
7.0,3.2,versicolor
6.4,3.2,versicolor
6.3,3.3,virginica
`

func TestReadCSV(t *testing.T) {
	task, err := learning.ReadCSV(strings.NewReader(iris), "iris", learning.Classification, "species")
	if err != nil {
		t.Fatal(err)
	}
	if task.ID() != "iris" || task.Type() != learning.Classification {
		t.Errorf("task = %s %s", task.ID(), task.Type())
	}
	if !reflect.DeepEqual(task.Features(), []string{"sepal_length", "sepal_width"}) {
		t.Errorf("features = %v", task.Features())
	}
	if !reflect.DeepEqual(task.Levels(), []string{"setosa", "versicolor", "virginica"}) {
		t.Errorf("levels = %v", task.Levels())
	}
	if task.RowCount() != 5 || !reflect.DeepEqual(task.RowIDs(), []int{1, 2, 3, 4, 5}) {
		t.Errorf("rows = %v", task.RowIDs())
	}

	x, y, err := task.Data([]int{5, 3})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(x, [][]float64{{6.3, 3.3}, {7.0, 3.2}}) || !reflect.DeepEqual(y, []float64{2, 1}) {
		t.Errorf("data = %v %v", x, y)
	}
	if _, _, err := task.Data([]int{6}); err == nil {
		t.Error("expected an error for an unknown row")
	}
}

func TestReadCSVErrors(t *testing.T) {
	if _, err := learning.ReadCSV(strings.NewReader(iris), "iris", learning.Classification, "petal"); err == nil {
		t.Error("expected an error for a missing target")
	}
	if _, err := learning.ReadCSV(strings.NewReader("a,b\nx,1\n"), "bad", learning.Regression, "b"); err == nil {
		t.Error("expected an error for a non-numeric feature")
	}
}

func TestTableClone(t *testing.T) {
	task := newTask(t)
	c := task.Clone()
	c.SetActiveRows([]int{1})
	if task.RowCount() != 8 {
		t.Errorf("clone shares active rows with the original")
	}
	if c.RowCount() != 1 || c.ID() != task.ID() {
		t.Errorf("clone = %d rows of %s", c.RowCount(), c.ID())
	}
}

func TestNewTableValidation(t *testing.T) {
	if _, err := learning.NewTable("t", learning.Regression, []string{"x"}, "y", [][]float64{{1}}, nil, nil); err == nil {
		t.Error("expected an error for mismatched targets")
	}
	if _, err := learning.NewTable("t", learning.Classification, []string{"x"}, "y", [][]float64{{1}}, []float64{2}, []string{"a"}); err == nil {
		t.Error("expected an error for an unknown class")
	}
}
