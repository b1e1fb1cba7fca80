package main

import (
	"fmt"
	"github.com/alexflint/go-arg"
	_ "github.com/hscells/resample/learners"
	"github.com/hscells/resample/learning"
	"github.com/hscells/resample/remote"
	"log"
	"net"
	"os"
	"time"
)

var (
	name    = "resample_worker"
	version = "17.Oct.2026"
)

type args struct {
	Addr    string `arg:"-a" help:"address to listen on"`
	Timeout string `help:"time limit of a step isolated in worker mode, e.g. 30s"`
}

func (args) Version() string {
	return version
}

func (args) Description() string {
	return fmt.Sprintf(`%s
runs resampling iterations sent by resample --hosts
# %s`, name, version)
}

func main() {
	args := args{Addr: "0.0.0.0:8005"}
	arg.MustParse(&args)

	var timeout time.Duration
	if len(args.Timeout) > 0 {
		var err error
		timeout, err = time.ParseDuration(args.Timeout)
		if err != nil {
			log.Fatalln(err)
		}
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)
	inbound, err := net.Listen("tcp", args.Addr)
	if err != nil {
		log.Fatalln(err)
	}

	runner := learning.NewRunner(learning.RunnerLogger(logger), learning.RunnerTimeout(timeout))
	if err := remote.Serve(inbound, remote.NewWorker(runner, logger)); err != nil {
		log.Fatalln(err)
	}
}
