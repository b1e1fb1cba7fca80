package learners

import (
	"fmt"
	"github.com/hscells/resample/capsule"
	"github.com/hscells/resample/learning"
	"math"
	"math/rand"
	"time"
)

// Debug is a classification learner that misbehaves on demand. The probabilities decide how often each stage
// raises an error, panics, warns, or writes output; MissingRatio is the share of rows left without a prediction.
type Debug struct {
	ErrorTrain     float64
	ErrorPredict   float64
	PanicTrain     float64
	PanicPredict   float64
	WarningTrain   float64
	WarningPredict float64
	OutputTrain    float64
	OutputPredict  float64
	MissingRatio   float64
	// NilModel makes training succeed without a model.
	NilModel     bool
	SleepTrain   time.Duration
	SleepPredict time.Duration
	Seed         int64
}

// DebugModel predicts the class it was trained to predict.
type DebugModel struct {
	Response float64
	Rows     int
}

func (d Debug) rng(task learning.Task) *rand.Rand {
	return rand.New(rand.NewSource(d.Seed + int64(task.RowCount())))
}

func (d Debug) misbehave(rng *rand.Rand, c *capsule.Console, stage string, errp, panicp, warnp, outp float64) error {
	if rng.Float64() < outp {
		c.Output("output during %s", stage)
	}
	if rng.Float64() < warnp {
		c.Warning("warning during %s", stage)
	}
	if rng.Float64() < errp {
		return fmt.Errorf("error during %s", stage)
	}
	if rng.Float64() < panicp {
		panic(fmt.Sprintf("panic during %s", stage))
	}
	return nil
}

func (d Debug) Train(task learning.Task, c *capsule.Console) (interface{}, error) {
	time.Sleep(d.SleepTrain)
	rng := d.rng(task)
	if err := d.misbehave(rng, c, "training", d.ErrorTrain, d.PanicTrain, d.WarningTrain, d.OutputTrain); err != nil {
		return nil, err
	}
	if d.NilModel {
		return nil, nil
	}
	m := DebugModel{Rows: task.RowCount()}
	if ds, ok := task.(learning.Dataset); ok && len(ds.Levels()) > 0 {
		m.Response = float64(rng.Intn(len(ds.Levels())))
	}
	return m, nil
}

func (d Debug) Predict(task learning.Task, model interface{}, predictType string, c *capsule.Console) (*learning.Prediction, error) {
	time.Sleep(d.SleepPredict)
	m, ok := model.(DebugModel)
	if !ok {
		return nil, fmt.Errorf("model of type %T is not a debug model", model)
	}
	rng := d.rng(task)
	if err := d.misbehave(rng, c, "prediction", d.ErrorPredict, d.PanicPredict, d.WarningPredict, d.OutputPredict); err != nil {
		return nil, err
	}

	rows := task.ActiveRows()
	response := make([]float64, len(rows))
	for i := range response {
		response[i] = m.Response
	}
	missing := int(math.Round(d.MissingRatio * float64(len(rows))))
	for _, i := range rng.Perm(len(rows))[:missing] {
		response[i] = math.NaN()
	}
	return learning.NewPrediction(task, rows, response)
}
