package ptr

// To returns a pointer to a copy of v
func To[T any](v T) *T {
	return &v
}

// Deref returns what p points to, or the zero value when p is nil
func Deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
