package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/goz-interpreter/goz/driver"
	"github.com/goz-interpreter/goz/vm"
)

var (
	romFilePath string
	tracePath   string
	traceOn     bool
	zmcdnURL    string
)

func init() {
	flag.StringVar(&romFilePath, "rom", "", "path to a z-machine story file (.z3/.z5/.z8)")
	flag.BoolVar(&traceOn, "trace", false, "emit one disassembled line per executed instruction")
	flag.StringVar(&tracePath, "tracefile", "", "write trace output here instead of stderr")
	flag.StringVar(&zmcdnURL, "zmcdn", "", "illustration endpoint the driver's /zmcdn console command posts room names to")
	flag.Parse()
}

func main() {
	if romFilePath == "" && flag.NArg() > 0 {
		// The story file may also be given positionally, with flags after it.
		romFilePath = flag.Arg(0)
		flag.CommandLine.Parse(flag.Args()[1:]) // nolint:errcheck
	}
	if romFilePath == "" {
		fmt.Fprintln(os.Stderr, "usage: goz [-rom] <story-file> [-trace] [-tracefile path] [-zmcdn url]")
		os.Exit(1)
	}

	romBytes, err := os.ReadFile(romFilePath)
	if err != nil {
		log.Fatalf("reading story file: %v", err)
	}

	dev := driver.NewDevice()

	vmInstance, err := vm.New(romBytes, dev)
	if err != nil {
		log.Fatalf("loading story: %v", err)
	}

	vmInstance.WarnFunc = func(w vm.Warning) {
		fmt.Fprintf(os.Stderr, "%s\n", w)
	}

	// TraceFunc is always wired so the driver's /trace toggle has
	// somewhere to write even when -trace was not given.
	traceOut := os.Stderr
	if tracePath != "" {
		f, err := os.Create(tracePath)
		if err != nil {
			log.Fatalf("opening trace file: %v", err)
		}
		defer f.Close()
		traceOut = f
	}
	vmInstance.TraceFunc = func(line string) {
		fmt.Fprintln(traceOut, line)
	}
	vmInstance.SetTrace(traceOn)

	title := filepath.Base(romFilePath)
	if err := driver.Run(vmInstance, dev, title, zmcdnURL); err != nil {
		log.Fatalf("running story: %v", err)
	}
}
