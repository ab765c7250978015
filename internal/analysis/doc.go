// Package analysis runs the two analysis pipelines over a set of laps.
//
// The event pipeline resamples every lap, finds the extrema of the event
// signal, drops laps that correlate poorly with the rest and clusters the
// remaining extrema. The track pipeline resamples every lap's position
// onto the fixed grid, masks yaw spikes, fuses all laps into a consensus
// path and segments it into sections. Per-lap stages fan out over a
// bounded errgroup; fusion, lap filtering and clustering wait for every
// lap.
package analysis
