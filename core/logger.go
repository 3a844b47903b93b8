package core

// Logger is the application-wide logging contract.
// Extra args may carry an error, a map of fields or a user.User (see services/logger).
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
