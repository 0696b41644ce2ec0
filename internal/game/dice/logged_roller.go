package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger to provide logged probability checks.
// All checks are logged at debug level with a label, the draw, and the threshold.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that draws from src and logs each check to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Float64 draws from the underlying source and logs the draw.
func (r *Roller) Float64() float64 {
	v := r.src.Float64()
	r.logger.Debug("dice draw", zap.Float64("value", v))
	return v
}

// Chance reports whether a draw falls below p.
//
// Postcondition: result logged; returns true with probability p for p in [0, 1].
func (r *Roller) Chance(label string, p float64) bool {
	v := r.src.Float64()
	ok := v < p
	r.logger.Debug("dice check",
		zap.String("label", label),
		zap.Float64("draw", v),
		zap.Float64("threshold", p),
		zap.Bool("success", ok),
	)
	return ok
}
