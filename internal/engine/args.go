package engine

import (
	"fmt"
	"strconv"
)

// String returns args[i] as a string.  Missing and nil arguments are "".
func String(args []Value, i int) string {
	if i >= len(args) || args[i] == nil {
		return ""
	}
	switch v := args[i].(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// OptString returns args[i] as a string pointer, nil when the argument
// is missing or nil.
func OptString(args []Value, i int) *string {
	if i >= len(args) || args[i] == nil {
		return nil
	}
	s := String(args, i)
	return &s
}

// Bool returns args[i] as a bool.  Strings "true" and "1" are true.
func Bool(args []Value, i int) bool {
	if i >= len(args) {
		return false
	}
	switch v := args[i].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	case int64:
		return v != 0
	case int:
		return v != 0
	case float64:
		return v != 0
	}
	return false
}

// Int returns args[i] as an int64.  Unparseable values are 0.
func Int(args []Value, i int) int64 {
	if i >= len(args) {
		return 0
	}
	switch v := args[i].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}
