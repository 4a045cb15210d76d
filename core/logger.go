package core

// Logger is the app-wide leveled logger. Extra args may carry an error, a
// map of structured data or the acting user; implementations decide how to
// ship each.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
