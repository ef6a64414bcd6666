package application

import "log/slog"

// ResolveLogger guards use-case structs against a nil logger.
func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
