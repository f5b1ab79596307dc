package ports

// Logger is the minimal logging surface the pipeline needs. Recoverable
// failures surface through Warn; Error is reserved for fatal run failures.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(err error)
}
