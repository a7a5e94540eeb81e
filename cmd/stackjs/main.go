package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"stackjs/pkg/config"
	"stackjs/pkg/driver"
	"stackjs/pkg/errors"
)

func main() {
	configFlag := flag.String("config", "", "Configuration file (default: stackjs.toml found from the working directory up)")
	verbosityFlag := flag.Int("v", -1, "Log verbosity (0 = errors only, 2 = info, 3 = debug); overrides the configuration")
	exprFlag := flag.String("e", "", "Run the given expression and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: stackjs [-config file] [-v n] [-e expression | script [args...]]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	color := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())

	cfg, err := loadConfig(*configFlag)
	if err != nil {
		errors.DisplayError(os.Stderr, err, color)
		os.Exit(64) // Exit code 64: command line usage error
	}

	verbosity := cfg.Log.Verbosity
	if *verbosityFlag >= 0 {
		verbosity = *verbosityFlag
	}
	var logFile *string
	if cfg.Log.File != "" {
		logFile = &cfg.Log.File
	}
	commonlog.Configure(verbosity, logFile)

	if *exprFlag == "" && flag.NArg() == 0 {
		flag.Usage()
		os.Exit(64)
	}
	if *exprFlag != "" && flag.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "stackjs: -e does not take a script\n")
		os.Exit(64)
	}

	argv := append([]string{os.Args[0]}, flag.Args()...)
	rt, err := driver.New(cfg, driver.WithArgs(argv...), driver.WithColor(color))
	if err != nil {
		errors.DisplayError(os.Stderr, err, color)
		os.Exit(70) // Exit code 70: internal software error
	}

	ok := true
	if *exprFlag != "" {
		ok = runExpression(rt, *exprFlag)
	} else {
		ok = runFile(rt, flag.Arg(0))
	}
	rt.Close()
	if !ok {
		os.Exit(70)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return config.FindAndLoad(wd)
}

// runExpression evaluates expr and prints its value
func runExpression(rt *driver.Runtime, expr string) bool {
	value, err := rt.RunString(expr)
	if value != nil {
		defer value.Drop()
	}
	return rt.DisplayResult(os.Stdout, value, err)
}

// runFile runs filename as the main module
func runFile(rt *driver.Runtime, filename string) bool {
	_, err := rt.RunFile(filename)
	if err != nil {
		errors.DisplayError(os.Stderr, err, rt.Color())
		return false
	}
	return true
}
