package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo-console/apps/sandbox/echo"
	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/resource"
	"github.com/trezcool/masomo-console/storage/inmem"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf       *core.Config
	logger     core.Logger
	out        io.Writer
	validate   *validator.Validate
	translator ut.Translator
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  serve [-addr ADDRESS] [-seed N] - start the sandbox gateway with N demo rows per resource")
	fmt.Fprintln(cli.out, "  token -operator NAME [-email EMAIL] - mint a bearer token for the console")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	serveCmd := flag.NewFlagSet("serve", flag.ExitOnError)
	serveAddr := serveCmd.String("addr", cli.conf.Sandbox.Address, "The address to listen on.")
	serveSeed := serveCmd.Int("seed", cli.conf.Sandbox.SeedCount, "Demo rows to create per resource.")

	tokenCmd := flag.NewFlagSet("token", flag.ExitOnError)
	tokenOperator := tokenCmd.String("operator", "", "The operator's username.")
	tokenEmail := tokenCmd.String("email", "", "The operator's email.")

	switch args[1] {
	case "serve":
		if err := serveCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.serve(*serveAddr, *serveSeed)
	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if core.CleanString(*tokenOperator) == "" {
			tokenCmd.Usage()
			return errHelp
		}
		return cli.token(core.CleanString(*tokenOperator, true), core.CleanString(*tokenEmail, true))
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) token(username, email string) error {
	claims := echoapi.OperatorClaims(cli.conf, core.Operator{Username: username, Email: email})
	token, err := echoapi.GenerateToken(cli.conf, claims)
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, token)
	return nil
}

func (cli *commandLine) newServer(addr string, seedCount int) (echoapi.Server, *inmemdb.DB, error) {
	reg := resource.Platform()
	db := inmemdb.Open(reg.All()...)
	if err := seed(db, reg, seedCount); err != nil {
		return nil, nil, err
	}
	server := echoapi.NewServer(&echoapi.Options{
		Address:    addr,
		Conf:       cli.conf,
		Logger:     cli.logger,
		DB:         db,
		Registry:   reg,
		Validate:   cli.validate,
		Translator: cli.translator,
	})
	return server, db, nil
}

// serve runs the gateway until SIGINT or SIGTERM, then shuts it down gracefully.
func (cli *commandLine) serve(addr string, seedCount int) error {
	server, _, err := cli.newServer(addr, seedCount)
	if err != nil {
		return err
	}

	cli.logger.Info(fmt.Sprintf("Sandbox gateway initializing : version %q", cli.conf.Build))
	defer cli.logger.Info("Sandbox gateway stopped")

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 1)
	go func() {
		errs <- server.Start()
	}()

	select {
	case err := <-errs:
		return err
	case <-sigCtx.Done():
		cli.logger.Info("Start shutdown...")

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), cli.conf.Sandbox.ShutdownTimeout)
		defer cancel()
		if err := server.Stop(ctx); err != nil {
			cli.logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
			return err
		}
	}
	return nil
}
