package events

import "reflect"

// reflectFuncPointer returns the entry-point address of a function value.
// Nil callbacks compare equal to each other and unequal to any non-nil
// callback.
func reflectFuncPointer(f Callback) uintptr {
	if f == nil {
		return 0
	}
	return reflect.ValueOf(f).Pointer()
}
