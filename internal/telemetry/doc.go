// Package telemetry owns the per-lap signal tables and the lap-level
// transformations of the analysis engine.
//
// Responsibilities: distance resampling, monotonic distance guards,
// local extrema detection, correlation-based lap filtering and lap
// extension across the start/finish line.
// Key types: Lap, ExtremaMode, LapFilterParams.
//
// Every function returns new tables; input laps are never mutated.
// No spatial geometry lives here, see internal/trackmap.
package telemetry
