package validate

// Optional carries the three states an update-payload field can be in: absent
// from the body, explicitly null, or present with a value. Presence is tracked
// apart from the value so that falsy-but-meaningful values (empty string, zero)
// stay distinguishable from "not sent".
type Optional[T any] struct {
	Present bool
	Null    bool
	Value   T
}

// Set returns a present, non-null Optional holding v.
func Set[T any](v T) Optional[T] {
	return Optional[T]{Present: true, Value: v}
}

// Null returns a present, explicitly-null Optional.
func Null[T any]() Optional[T] {
	return Optional[T]{Present: true, Null: true}
}
