package main

import (
	"fmt"
	"net/mail"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/resource"
	"github.com/trezcool/masomo-console/services/email"
)

// failureReport collects the error notifications raised during one console session.
type failureReport struct {
	mu       sync.Mutex
	failures []resource.Notification
}

func (r *failureReport) Notify(n resource.Notification) {
	if n.Level != resource.LevelError {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, n)
}

func (r *failureReport) message(to, op string) *core.EmailMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.failures) == 0 {
		return nil
	}

	subject := fmt.Sprintf("%d failed console operations", len(r.failures))
	if len(r.failures) == 1 {
		subject = "1 failed console operation"
	}
	body := new(strings.Builder)
	if op != "" {
		fmt.Fprintf(body, "Operator: %s\n\n", op)
	}
	for _, n := range r.failures {
		fmt.Fprintf(body, "- %s: %s\n", n.Resource, n.Message)
	}
	return &core.EmailMessage{
		To:      []mail.Address{{Address: to}},
		Subject: subject,
		Body:    body.String(),
	}
}

// reporting runs the command, then mails the session's failures when a recipient is configured.
func (app *App) reporting(run func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := run(cmd, args)
		app.sendReport(cmd)
		return err
	}
}

func (app *App) sendReport(cmd *cobra.Command) {
	if app.conf == nil || app.conf.Mail.ReportTo == "" {
		return
	}
	msg := app.report.message(app.conf.Mail.ReportTo, app.conf.Console.Operator)
	if msg == nil {
		return
	}
	svc := emailsvc.New(app.conf, cmd.ErrOrStderr(), app.logger)
	if err := svc.Send(msg); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), styles.err.Render("failure report not sent: "+err.Error()))
	}
}
