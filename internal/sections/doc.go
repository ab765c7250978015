// Package sections classifies the consensus track into corners and
// straights.
//
// The yaw change of the consensus path is smoothed with a Savitzky-Golay
// filter and scanned by three independent state machines (clockwise
// corner, counterclockwise corner, straight) sharing one adaptive
// threshold. Emitted sections may overlap; they describe the track rather
// than partition it.
package sections
