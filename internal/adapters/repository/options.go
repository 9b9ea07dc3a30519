package repository

// StoreOption applies a configuration option to the MemStore.
type StoreOption func(*MemStore)

// WithVisibilityStep sets how much visibility score a single impression
// adds to an author.
func WithVisibilityStep(step float64) StoreOption {
	return func(s *MemStore) {
		if step > 0 {
			s.visibilityStep = step
		}
	}
}
