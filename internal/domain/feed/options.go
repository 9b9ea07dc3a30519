package feed

// Option applies a configuration option to the Ranker.
type Option func(*Ranker)

// WithCadence sets the interleave group size. Values below 2 are
// ignored; a cadence of 1 would reserve every slot.
func WithCadence(cadence int) Option {
	return func(r *Ranker) {
		if cadence >= 2 {
			r.cadence = cadence
		}
	}
}

// WithSlot sets the 0-indexed reserved position within each group. The
// value is checked against the cadence once every option has been
// applied, so WithSlot and WithCadence may be given in either order.
func WithSlot(slot int) Option {
	return func(r *Ranker) {
		if slot >= 0 {
			r.slot = slot
		}
	}
}

// WithUnderexposedThreshold sets the visibility score below which an
// author counts as underexposed.
func WithUnderexposedThreshold(threshold float64) Option {
	return func(r *Ranker) {
		if threshold > 0 {
			r.underexposedBelow = threshold
		}
	}
}
