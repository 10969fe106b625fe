package model

type fieldState uint8

const (
	fieldUntouched fieldState = iota
	fieldSet
	fieldCleared
)

// Field is one slot of a partial update. The zero value means "leave
// unchanged"; Set and Clear build the other two states, so "clear the
// reminder" and "don't touch the reminder" are never confused.
type Field[T any] struct {
	value T
	state fieldState
}

// Set returns a field that assigns v.
func Set[T any](v T) Field[T] {
	return Field[T]{value: v, state: fieldSet}
}

// Clear returns a field that removes the current value.
func Clear[T any]() Field[T] {
	return Field[T]{state: fieldCleared}
}

// SetOrClear returns Set(*v) for a non-nil pointer and Clear otherwise.
func SetOrClear[T any](v *T) Field[T] {
	if v == nil {
		return Clear[T]()
	}
	return Set(*v)
}

func (f Field[T]) IsSet() bool       { return f.state == fieldSet }
func (f Field[T]) IsCleared() bool   { return f.state == fieldCleared }
func (f Field[T]) IsUntouched() bool { return f.state == fieldUntouched }

// Get returns the assigned value and whether the field is in the set state.
func (f Field[T]) Get() (T, bool) {
	return f.value, f.state == fieldSet
}

func (f Field[T]) applyValue(dst *T) {
	switch f.state {
	case fieldSet:
		*dst = f.value
	case fieldCleared:
		var zero T
		*dst = zero
	}
}

func (f Field[T]) applyPointer(dst **T) {
	switch f.state {
	case fieldSet:
		v := f.value
		*dst = &v
	case fieldCleared:
		*dst = nil
	}
}
