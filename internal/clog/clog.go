// Package clog sets up the process-wide logger used by the daemon.
package clog

import (
	"os"

	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("hfpagd")

var stderrFormat = logging.MustStringFormatter(
	`%{color}%{time:15:04:05.000} %{level:.4s} ▶ %{message}%{color:reset}`,
)

// Setup wires a colorized stderr backend at the given default level,
// honoring an AG_LOG_LEVEL environment override (CRITICAL..DEBUG).
func Setup(prefix string, defaultLevel logging.Level) *logging.Logger {
	backend := logging.NewLogBackend(os.Stderr, prefix, 0)
	logging.SetFormatter(stderrFormat)
	leveled := logging.AddModuleLevel(backend)

	switch os.Getenv("AG_LOG_LEVEL") {
	case "CRITICAL":
		leveled.SetLevel(logging.CRITICAL, prefix)
	case "ERROR":
		leveled.SetLevel(logging.ERROR, prefix)
	case "WARNING":
		leveled.SetLevel(logging.WARNING, prefix)
	case "NOTICE":
		leveled.SetLevel(logging.NOTICE, prefix)
	case "INFO":
		leveled.SetLevel(logging.INFO, prefix)
	case "DEBUG":
		leveled.SetLevel(logging.DEBUG, prefix)
	default:
		leveled.SetLevel(defaultLevel, prefix)
	}

	logging.SetBackend(leveled)
	return log
}

// Get returns the process-wide logger. It installs no backend of its own:
// until Setup runs, the logger writes through go-logging's package-level
// default backend.
func Get() *logging.Logger {
	return log
}
