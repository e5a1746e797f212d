package core

import "encoding/json"

// Optional holds a value that may be missing. The zero value is missing,
// which keeps "not parsed" distinct from any valid value such as 0 or the
// zero time.
type Optional[T any] struct {
	value T
	valid bool
}

// Some wraps a present value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, valid: true}
}

// None returns the missing marker for T.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.valid
}

// IsMissing reports whether the value is absent.
func (o Optional[T]) IsMissing() bool {
	return !o.valid
}

// OrElse returns the value, or fallback when missing.
func (o Optional[T]) OrElse(fallback T) T {
	if !o.valid {
		return fallback
	}
	return o.value
}

// MarshalJSON renders a missing value as null.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON treats null as missing.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = None[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}
