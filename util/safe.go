package util

// Deref returns the zero value of T if p is nil
func Deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// Ref returns a reference to a copy of v
func Ref[T any](v T) *T {
	return &v
}

// SafeString returns empty string if null
func SafeString(input *string) string {
	return Deref(input)
}

// RefString returns a reference to a string
func RefString(input string) *string {
	return Ref(input)
}
