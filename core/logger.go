package core

// Logger is implemented by every logging service.
// args may hold errors, map[string]interface{} context and an Operator.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Operator identifies the person driving the console.
type Operator struct {
	ID       string
	Username string
	Email    string
}
