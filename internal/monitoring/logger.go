// Package monitoring holds the diagnostic loggers shared by the analysis
// packages.
package monitoring

import (
	"log"
	"sync/atomic"
	"time"
)

// Logf is the package-level diagnostic logger used for noteworthy analysis
// events (removed laps, degenerate fusion windows, migrations). It defaults
// to log.Printf and may be replaced by SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

var debug atomic.Bool

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetDebug toggles Debugf output.
func SetDebug(enabled bool) { debug.Store(enabled) }

// Debugf logs through Logf only when debug output is enabled. Per-lap stage
// details go here so batch runs stay quiet by default.
func Debugf(format string, v ...interface{}) {
	if debug.Load() {
		Logf("[debug] "+format, v...)
	}
}

// Stage logs the wall time of a pipeline stage when the returned func is
// called:
//
//	defer monitoring.Stage("fuse")()
func Stage(name string) func() {
	start := time.Now()
	return func() {
		Debugf("stage %s took %s", name, time.Since(start).Round(time.Microsecond))
	}
}
