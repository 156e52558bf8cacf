// Package main runs scenario test sessions.
//
// See the tools/expect package.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Comcast/telegraph/sio"
	"github.com/Comcast/telegraph/tools"
	"github.com/Comcast/telegraph/tools/expect"
)

func main() {

	var (
		inputFilename = flag.String("f", "specs/westworld.test.yaml", "filename for test session")
		confFilename  = flag.String("c", "", "optional configuration (YAML) filename")
		timeout       = flag.Duration("t", 10*time.Second, "main timeout")
		verbose       = flag.Bool("v", false, "verbose")
	)

	flag.Parse()

	if err := run(*inputFilename, *confFilename, *timeout, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", *inputFilename, err)
		os.Exit(1)
	}
	fmt.Printf("%s: ok\n", *inputFilename)
}

// run loads the session and its scenario, which is relative to the
// session's directory.
func run(filename, confFilename string, timeout time.Duration, verbose bool) error {
	s, err := expect.LoadSession(filename)
	if err != nil {
		return err
	}
	s.Verbose = verbose

	if s.Scenario == "" {
		return fmt.Errorf("session has no scenario")
	}
	sc, err := tools.ReadScenario(filepath.Join(filepath.Dir(filename), s.Scenario))
	if err != nil {
		return err
	}

	var conf *sio.Conf
	if confFilename != "" {
		if conf, err = sio.LoadConf(confFilename); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return s.Run(ctx, sc, conf)
}
