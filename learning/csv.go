package learning

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// ReadCSV loads a table from CSV with a header row. Every column other than the target must be numeric. The
// classes of a classification target are the distinct target values in sorted order.
func ReadCSV(r io.Reader, name string, kind TaskType, target string) (*Table, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("task %s: no header row", name)
	}

	header := records[0]
	ti := -1
	var columns []string
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == target {
			ti = i
			continue
		}
		columns = append(columns, h)
	}
	if ti < 0 {
		return nil, fmt.Errorf("task %s: target column %q not found", name, target)
	}

	rows := records[1:]
	var classes []string
	index := make(map[string]int)
	if kind == Classification {
		for _, row := range rows {
			if _, ok := index[row[ti]]; !ok {
				index[row[ti]] = 0
				classes = append(classes, row[ti])
			}
		}
		sort.Strings(classes)
		for i, c := range classes {
			index[c] = i
		}
	}

	x := make([][]float64, len(rows))
	y := make([]float64, len(rows))
	for i, row := range rows {
		x[i] = make([]float64, 0, len(columns))
		for j, v := range row {
			if j == ti {
				continue
			}
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, fmt.Errorf("task %s: line %d column %s: %v", name, i+2, header[j], err)
			}
			x[i] = append(x[i], f)
		}
		switch kind {
		case Classification:
			y[i] = float64(index[row[ti]])
		case Regression:
			f, err := strconv.ParseFloat(strings.TrimSpace(row[ti]), 64)
			if err != nil {
				return nil, fmt.Errorf("task %s: line %d target: %v", name, i+2, err)
			}
			y[i] = f
		default:
			return nil, fmt.Errorf("task %s: unsupported task type %q", name, kind)
		}
	}
	return NewTable(name, kind, columns, target, x, y, classes)
}
