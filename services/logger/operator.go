package logsvc

import "github.com/trezcool/masomo-console/core"

type operatorLogger struct {
	core.Logger
	op core.Operator
}

// WithOperator returns a Logger that attaches op to every entry, so reports name the person driving the console.
// An empty operator leaves l untouched.
func WithOperator(l core.Logger, op core.Operator) core.Logger {
	if op == (core.Operator{}) {
		return l
	}
	return operatorLogger{Logger: l, op: op}
}

func (l operatorLogger) with(args []interface{}) []interface{} {
	return append(append(make([]interface{}, 0, len(args)+1), args...), l.op)
}

func (l operatorLogger) Debug(msg string, args ...interface{}) { l.Logger.Debug(msg, l.with(args)...) }
func (l operatorLogger) Info(msg string, args ...interface{})  { l.Logger.Info(msg, l.with(args)...) }
func (l operatorLogger) Warn(msg string, args ...interface{})  { l.Logger.Warn(msg, l.with(args)...) }
func (l operatorLogger) Error(msg string, args ...interface{}) { l.Logger.Error(msg, l.with(args)...) }
func (l operatorLogger) Fatal(msg string, args ...interface{}) { l.Logger.Fatal(msg, l.with(args)...) }
