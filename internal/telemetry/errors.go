package telemetry

import "errors"

// Error taxonomy shared by the analysis packages. Callers match with
// errors.Is; the wrapping error carries the lap or parameter context.
var (
	// ErrDegenerateInput reports input that cannot produce a defined
	// result: no laps, a lap with fewer than two usable samples, or an
	// empty track length.
	ErrDegenerateInput = errors.New("degenerate input")

	// ErrConfiguration reports thresholds, steps or window sizes that
	// produce an empty or negative index range.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrMissingSignal reports a requested column absent from a lap.
	ErrMissingSignal = errors.New("missing signal column")
)
