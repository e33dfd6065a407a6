package logsvc

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/rollbar/rollbar-go"
	rollbarerrors "github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/masomo-console/core"
)

// RollbarLogger reports entries to Rollbar and echoes them to a standard logger.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	host, _ := os.Hostname()
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(rollbarerrors.StackTracer)
	return &RollbarLogger{std: std}
}

// Enable turns reporting to Rollbar on or off; local output is unaffected.
func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// entry is one log call sorted by argument type.
type entry struct {
	level  string
	msg    string
	err    error
	fields map[string]interface{}
	op     *core.Operator
	other  []interface{}
}

// newEntry accepts any mix of error, map[string]interface{} and core.Operator after msg.
// Maps are merged, the first operator wins, and gateway failures contribute their kind and status.
func newEntry(level, msg string, args []interface{}) *entry {
	e := &entry{level: level, msg: msg, fields: make(map[string]interface{})}
	for _, arg := range args {
		switch v := arg.(type) {
		case core.Operator:
			if e.op == nil {
				op := v
				e.op = &op
			}
		case error:
			if e.err == nil {
				e.err = v
			} else {
				e.other = append(e.other, v)
			}
		case map[string]interface{}:
			for k, val := range v {
				e.fields[k] = val
			}
		default:
			e.other = append(e.other, arg)
		}
	}

	var gwErr *core.GatewayError
	if e.err != nil && errors.As(e.err, &gwErr) {
		e.set("kind", gwErr.Kind.String())
		if gwErr.Status != 0 {
			e.set("status", gwErr.Status)
		}
	}
	return e
}

// set adds a field unless the caller already gave one.
func (e *entry) set(key string, val interface{}) {
	if _, ok := e.fields[key]; !ok {
		e.fields[key] = val
	}
}

// report sends e to Rollbar. With an error present the message travels in the extras.
func (e *entry) report() {
	if e.op != nil {
		rollbar.SetPerson(e.op.ID, e.op.Username, e.op.Email)
	} else {
		rollbar.ClearPerson()
	}

	extras := make(map[string]interface{}, len(e.fields)+2)
	for k, v := range e.fields {
		extras[k] = v
	}
	if len(e.other) > 0 {
		extras["args"] = fmt.Sprint(e.other...)
	}
	if e.err == nil {
		rollbar.Log(e.level, e.msg, extras)
		return
	}
	extras["message"] = e.msg
	rollbar.Log(e.level, e.err, extras)
}

// line renders e as `[level] msg key=value...` with sorted keys.
func (e *entry) line() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.level, e.msg)

	keys := make([]string, 0, len(e.fields))
	for k := range e.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.fields[k])
	}
	if e.op != nil && e.op.Username != "" {
		fmt.Fprintf(&b, " operator=%s", e.op.Username)
	}
	return b.String()
}

func (l RollbarLogger) write(level, msg string, args []interface{}) {
	e := newEntry(level, msg, args)
	e.report()
	l.std.Println(e.line())
	if e.err != nil {
		l.std.Printf("%+v\n", e.err)
	}
	for _, arg := range e.other {
		l.std.Printf("%+v\n", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) { l.write(rollbar.DEBUG, msg, args) }
func (l RollbarLogger) Info(msg string, args ...interface{})  { l.write(rollbar.INFO, msg, args) }
func (l RollbarLogger) Warn(msg string, args ...interface{})  { l.write(rollbar.WARN, msg, args) }
func (l RollbarLogger) Error(msg string, args ...interface{}) { l.write(rollbar.ERR, msg, args) }

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.write(rollbar.CRIT, msg, args)
	l.std.Fatal(msg)
}
