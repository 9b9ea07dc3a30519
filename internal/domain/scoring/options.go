package scoring

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithWeights sets the aggregation calibration. Invalid weights are
// ignored and the current calibration is kept.
func WithWeights(w Weights) Option {
	return func(e *Engine) {
		if w.Validate() == nil {
			e.weights = w
		}
	}
}

// WithWindowSize sets the diversity window capacity.
func WithWindowSize(size int) Option {
	return func(e *Engine) {
		if size > 0 {
			e.windowSize = size
		}
	}
}
