package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/resource"
	"github.com/trezcool/masomo-console/services/gateway"
	"github.com/trezcool/masomo-console/services/logger"
)

var (
	isTerminalFunc   = term.IsTerminal   // mockable
	readPasswordFunc = term.ReadPassword // mockable
)

// reportedError wraps failures the notifier has already shown to the operator.
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

type App struct {
	GatewayURL  string
	Token       string
	PageSize    int
	Operator    string
	MetricsAddr string
	ReportTo    string

	conf       *core.Config
	logger     core.Logger
	registry   *resource.Registry
	gateway    resource.Gateway
	metrics    *prometheus.Registry
	metricsSrv *http.Server
	report     failureReport
}

func newRootCmd() *cobra.Command {
	app := &App{registry: resource.Platform(), metrics: prometheus.NewRegistry()}

	cmd := &cobra.Command{
		Use:           "masomo-console",
		Short:         "Admin console for the Masomo education platform",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # What can be managed
  masomo-console resources

  # Second page of books matching "achebe"
  masomo-console list books --search achebe --page 2

  # Interactive session on courses
  masomo-console shell courses
`),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.teardown()
		},
	}

	cmd.PersistentFlags().StringVar(&app.GatewayURL, "gateway", "", "Gateway base URL (overrides <ENV>_GATEWAY_BASEURL)")
	cmd.PersistentFlags().StringVar(&app.Token, "token", "", "Bearer token for the gateway (prompted for on a terminal when unset)")
	cmd.PersistentFlags().IntVar(&app.PageSize, "page-size", 0, "Rows per page")
	cmd.PersistentFlags().StringVar(&app.Operator, "operator", "", "Operator name attached to error reports")
	cmd.PersistentFlags().StringVar(&app.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9091")
	cmd.PersistentFlags().StringVar(&app.ReportTo, "report-to", "", "Mail the session's failed operations to this address")

	cmd.AddCommand(newResourcesCmd(app))
	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newShowCmd(app))
	cmd.AddCommand(newCreateCmd(app))
	cmd.AddCommand(newUpdateCmd(app))
	cmd.AddCommand(newDeleteCmd(app))
	cmd.AddCommand(newToggleCmd(app))
	cmd.AddCommand(newShellCmd(app))

	for _, sub := range cmd.Commands() {
		if sub.RunE != nil {
			sub.RunE = app.reporting(sub.RunE)
		}
	}
	return cmd
}

// setup loads the configuration, applies flag overrides and builds the logger.
func (app *App) setup(cmd *cobra.Command) error {
	conf, err := core.NewConfig()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("gateway") {
		conf.Gateway.BaseURL = app.GatewayURL
	}
	if flags.Changed("token") {
		conf.Gateway.Token = app.Token
	}
	if flags.Changed("page-size") {
		conf.Console.PageSize = app.PageSize
	}
	if flags.Changed("operator") {
		conf.Console.Operator = app.Operator
	}
	if flags.Changed("report-to") {
		conf.Mail.ReportTo = app.ReportTo
	}

	validate, translator := core.NewValidator()
	if err := core.TranslateValidationErrors(conf.Validate(validate), translator); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	app.conf = conf

	// local log output goes to stderr in debug mode only
	logOut := io.Discard
	if conf.Debug {
		logOut = cmd.ErrOrStderr()
	}
	std := log.New(logOut, "CONSOLE : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	rl := logsvc.NewRollbarLogger(std, conf)
	rl.Enable(!conf.Debug && !conf.TestMode)

	var op core.Operator
	if name := core.CleanString(conf.Console.Operator); name != "" {
		op = core.Operator{ID: name, Username: name}
	}
	app.logger = logsvc.WithOperator(rl, op)
	return nil
}

// connect builds the gateway client on first use.
func (app *App) connect(cmd *cobra.Command) error {
	if app.gateway != nil {
		return nil
	}
	if app.conf.Gateway.Token == "" {
		token, err := promptToken(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		app.conf.Gateway.Token = token
	}

	client, err := gatewaysvc.NewClientFromConfig(app.conf, app.metrics, app.logger)
	if err != nil {
		return err
	}
	app.gateway = client

	if app.MetricsAddr != "" {
		app.serveMetrics(app.MetricsAddr)
	}
	return nil
}

// controller returns a Controller for the named resource, reporting through the command's output.
func (app *App) controller(cmd *cobra.Command, name string) (*resource.Controller, error) {
	def, err := app.registry.Lookup(name)
	if err != nil {
		return nil, err
	}
	if err := app.connect(cmd); err != nil {
		return nil, err
	}
	out := cmd.OutOrStdout()
	notifier := resource.NotifierFunc(func(n resource.Notification) {
		renderNotification(out, n)
		app.report.Notify(n)
	})
	c := resource.NewController(def, app.gateway, notifier, app.logger)
	c.SetPageSize(app.conf.Console.PageSize)
	return c, nil
}

func (app *App) metricsHandler() http.Handler {
	return promhttp.HandlerFor(app.metrics, promhttp.HandlerOpts{})
}

func (app *App) serveMetrics(addr string) {
	// the gateway client registers its own collectors on first connect
	_ = app.metrics.Register(collectors.NewGoCollector())

	mux := http.NewServeMux()
	mux.Handle("/metrics", app.metricsHandler())
	app.metricsSrv = &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := app.metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.logger.Error("metrics server", err, map[string]interface{}{"addr": addr})
		}
	}()
}

func (app *App) teardown() error {
	if app.metricsSrv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return app.metricsSrv.Shutdown(ctx)
}

// promptToken asks for the gateway token when stdin is a terminal.
// Elsewhere it returns an empty token and the gateway decides.
func promptToken(w io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !isTerminalFunc(fd) {
		return "", nil
	}
	fmt.Fprint(w, "Gateway token: ")
	b, err := readPasswordFunc(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", errors.Wrap(err, "reading token")
	}
	return strings.TrimSpace(string(b)), nil
}
