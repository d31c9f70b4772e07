package logging

import (
	"log/slog"
	"os"
)

// New builds the JSON logger used by the binaries and sets it as the
// process default.
func New(service string) *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	l := slog.New(h).With("service", service)
	slog.SetDefault(l)
	return l
}
