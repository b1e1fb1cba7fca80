// Package remote runs resampling iterations in other processes over net/rpc. The coordinator sends each
// iteration's task, learner and row sets to a worker, and the worker sends back the learned state and the
// predictions.
package remote

import (
	"encoding/gob"
	"fmt"
	"github.com/hscells/resample/iteration"
	"github.com/hscells/resample/learning"
	"github.com/pkg/errors"
	"io/ioutil"
	"log"
	"net"
	"net/rpc"
	"sync"
)

// Response is the reply of a worker.
type Response struct {
	Result iteration.Result
}

// Register makes the concrete types of algorithms, models and tasks known to the wire encoding. Both the
// coordinator and the workers must register the same types.
func Register(values ...interface{}) {
	for _, v := range values {
		gob.Register(v)
	}
}

// Worker is the rpc service that runs iterations.
type Worker struct {
	Runner learning.Runner
	Logger *log.Logger
}

// NewWorker creates a worker that runs iterations with the given runner.
func NewWorker(runner learning.Runner, logger *log.Logger) *Worker {
	if logger == nil {
		logger = log.New(ioutil.Discard, "", 0)
	}
	return &Worker{Runner: runner, Logger: logger}
}

// Execute runs an iteration.
func (w *Worker) Execute(req iteration.Request, resp *Response) error {
	if req.Task == nil || req.Learner == nil {
		return fmt.Errorf("iteration %d: request has no task or learner", req.Index)
	}
	w.Logger.Printf("received iteration=%d learner=%s task=%s", req.Index, req.Learner.ID, req.Task.ID())
	res, err := iteration.Run(req, w.Runner)
	if err != nil {
		w.Logger.Printf("iteration=%d failed: %v", req.Index, err)
		return err
	}
	w.Logger.Printf("completed iteration=%d in %s", req.Index, res.Elapsed)
	resp.Result = res
	return nil
}

// Serve accepts connections on the listener and serves the worker on each. It returns when the listener is
// closed.
func Serve(l net.Listener, w *Worker) error {
	server := rpc.NewServer()
	if err := server.RegisterName("Worker", w); err != nil {
		return err
	}
	w.Logger.Printf("ready to go on %s", l.Addr())
	server.Accept(l)
	return nil
}

// Dispatcher sends iterations to workers in turn. A connection to a worker is opened on first use and reused
// for every later iteration sent to it.
type Dispatcher struct {
	Logger *log.Logger

	mu      sync.Mutex
	hosts   []string
	clients map[string]*rpc.Client
	next    int
}

// NewDispatcher creates a dispatcher over the given worker addresses.
func NewDispatcher(logger *log.Logger, hosts ...string) (*Dispatcher, error) {
	if len(hosts) == 0 {
		return nil, errors.New("no worker hosts")
	}
	if logger == nil {
		logger = log.New(ioutil.Discard, "", 0)
	}
	return &Dispatcher{
		Logger:  logger,
		hosts:   hosts,
		clients: make(map[string]*rpc.Client),
	}, nil
}

func (d *Dispatcher) client() (*rpc.Client, string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	host := d.hosts[d.next%len(d.hosts)]
	d.next++
	if c, ok := d.clients[host]; ok {
		return c, host, nil
	}
	d.Logger.Println("connecting to", host)
	c, err := rpc.Dial("tcp", host)
	if err != nil {
		return nil, host, err
	}
	d.Logger.Println("established connection to", host)
	d.clients[host] = c
	return c, host, nil
}

func (d *Dispatcher) drop(host string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c, ok := d.clients[host]; ok {
		c.Close()
		delete(d.clients, host)
	}
}

// Dispatch runs an iteration on the next worker.
func (d *Dispatcher) Dispatch(req iteration.Request) (iteration.Result, error) {
	c, host, err := d.client()
	if err != nil {
		return iteration.Result{}, errors.Wrapf(err, "iteration %d: connect to %s", req.Index, host)
	}
	var resp Response
	if err := c.Call("Worker.Execute", req, &resp); err != nil {
		if err == rpc.ErrShutdown {
			d.drop(host)
		}
		return iteration.Result{}, errors.Wrapf(err, "iteration %d on %s", req.Index, host)
	}
	return resp.Result, nil
}

// Close closes every open connection.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var err error
	for host, c := range d.clients {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
		delete(d.clients, host)
	}
	return err
}
