package main

import (
	"fmt"
	"log"
	"os"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/services/logger"
)

func main() {
	defer os.Exit(0)

	std := log.New(os.Stdout, "SANDBOX : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig()
	if err != nil {
		std.Fatal(err)
	}
	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(!conf.Debug)

	validate, translator := core.NewValidator()
	if err := core.TranslateValidationErrors(conf.Validate(validate), translator); err != nil {
		logger.Fatal(fmt.Sprintf("invalid configuration: %v", err), err)
	}

	// start CLI
	cli := commandLine{
		conf:       conf,
		logger:     logger,
		out:        os.Stdout,
		validate:   validate,
		translator: translator,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			std.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
