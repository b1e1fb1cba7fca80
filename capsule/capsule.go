// Package capsule runs pluggable train and predict computations under a configurable level of isolation. Faults
// and diagnostics raised inside an isolated computation become journal records instead of control flow, so a
// broken model cannot abort the experiment that is running it.
package capsule

import (
	"fmt"
	"github.com/go-errors/errors"
	"github.com/hscells/resample/journal"
	"io/ioutil"
	"log"
	"strings"
	"sync"
	"time"
)

// Mode is an isolation level.
type Mode uint8

const (
	// None runs the computation inline. Faults propagate to the caller.
	None Mode = iota
	// Evaluate runs the computation inline, recording faults in the log.
	Evaluate
	// Worker runs the computation in a separate goroutine, recording faults in the log. The caller blocks
	// until the computation finishes or the executor's timeout is reached.
	Worker
)

func (m Mode) String() string {
	switch m {
	case None:
		return "none"
	case Evaluate:
		return "evaluate"
	case Worker:
		return "worker"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// ParseMode converts the name of an isolation level into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return None, nil
	case "evaluate":
		return Evaluate, nil
	case "worker":
		return Worker, nil
	}
	return None, fmt.Errorf("unknown encapsulation mode %q", s)
}

// Envelope is the uniform result of executing a computation.
type Envelope struct {
	// Result is nil when the computation faulted.
	Result  interface{}
	Log     journal.Log
	Elapsed time.Duration
}

// Computation is a unit of work run by the executor. Diagnostics are reported through the console.
type Computation func(c *Console) (interface{}, error)

// Console collects the diagnostics of one computation.
type Console struct {
	stage  journal.Stage
	mode   Mode
	logger *log.Logger

	mu     sync.Mutex
	log    journal.Log
	closed bool
}

// Output reports informational output.
func (c *Console) Output(format string, args ...interface{}) {
	c.emit(journal.Output, fmt.Sprintf(format, args...))
}

// Warning reports a non-fatal problem.
func (c *Console) Warning(format string, args ...interface{}) {
	c.emit(journal.Warning, fmt.Sprintf(format, args...))
}

func (c *Console) emit(severity journal.Severity, message string) {
	if c == nil {
		return
	}
	if c.mode == None {
		c.logger.Printf("%s %s: %s", c.stage, severity, message)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.log = c.log.Append(c.stage, severity, message)
}

// abandon records a final fault and closes the console in one step.
func (c *Console) abandon(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log = c.log.Append(c.stage, journal.Error, message)
	c.closed = true
}

// drain closes the console and returns what it collected. Late writes from an abandoned computation are dropped.
func (c *Console) drain() journal.Log {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return c.log
}

// Executor runs computations.
type Executor struct {
	Logger *log.Logger
	// Timeout limits computations run in Worker mode. Zero means no limit.
	Timeout time.Duration
}

// Logger sets the telemetry logger of an executor.
func Logger(logger *log.Logger) func(*Executor) {
	return func(e *Executor) {
		e.Logger = logger
	}
}

// Timeout sets the time limit of Worker mode.
func Timeout(d time.Duration) func(*Executor) {
	return func(e *Executor) {
		e.Timeout = d
	}
}

// NewExecutor creates an executor. Without a logger, telemetry is discarded.
func NewExecutor(options ...func(*Executor)) Executor {
	e := Executor{}
	for _, option := range options {
		option(&e)
	}
	if e.Logger == nil {
		e.Logger = log.New(ioutil.Discard, "", 0)
	}
	return e
}

// Execute runs a computation with a default executor.
func Execute(mode Mode, stage journal.Stage, fn Computation, options ...func(*Executor)) (Envelope, error) {
	return NewExecutor(options...).Execute(mode, stage, fn)
}

// Execute runs fn in the given mode. The returned error is only ever non-nil in None mode; every other mode
// reports faults in the envelope's log.
func (e Executor) Execute(mode Mode, stage journal.Stage, fn Computation) (Envelope, error) {
	if e.Logger == nil {
		e.Logger = log.New(ioutil.Discard, "", 0)
	}
	c := &Console{stage: stage, mode: mode, logger: e.Logger}
	start := time.Now()

	var result interface{}
	switch mode {
	case None:
		res, err := fn(c)
		if err != nil {
			return Envelope{Elapsed: time.Since(start)}, err
		}
		result = res
	case Evaluate:
		result = e.evaluate(c, fn)
	case Worker:
		result = e.worker(c, fn)
	default:
		return Envelope{}, fmt.Errorf("unknown encapsulation mode %d", mode)
	}

	return Envelope{
		Result:  result,
		Log:     c.drain(),
		Elapsed: time.Since(start),
	}, nil
}

func (e Executor) evaluate(c *Console, fn Computation) (result interface{}) {
	defer func() {
		if r := recover(); r != nil {
			err := errors.Wrap(r, 2)
			e.Logger.Printf("recovered panic in %s step: %s", c.stage, err.ErrorStack())
			c.emit(journal.Error, "panic: "+err.Error())
			result = nil
		}
	}()
	res, err := fn(c)
	if err != nil {
		c.emit(journal.Error, err.Error())
		return nil
	}
	return res
}

func (e Executor) worker(c *Console, fn Computation) interface{} {
	done := make(chan interface{}, 1)
	go func() {
		done <- e.evaluate(c, fn)
	}()

	if e.Timeout <= 0 {
		return <-done
	}

	timer := time.NewTimer(e.Timeout)
	defer timer.Stop()
	select {
	case res := <-done:
		return res
	case <-timer.C:
		e.Logger.Printf("abandoning %s step after %s", c.stage, e.Timeout)
		c.abandon(fmt.Sprintf("reached elapsed time limit of %s", e.Timeout))
		return nil
	}
}
