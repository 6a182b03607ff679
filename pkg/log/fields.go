package log

import "time"

// Field is a single structured key/value pair.
type Field struct {
	Key   string
	Value any
}

func Str(key, v string) Field               { return Field{Key: key, Value: v} }
func Int(key string, v int) Field           { return Field{Key: key, Value: v} }
func Int64(key string, v int64) Field       { return Field{Key: key, Value: v} }
func Uint64(key string, v uint64) Field     { return Field{Key: key, Value: v} }
func Float64(key string, v float64) Field   { return Field{Key: key, Value: v} }
func Bool(key string, v bool) Field         { return Field{Key: key, Value: v} }
func Dur(key string, v time.Duration) Field { return Field{Key: key, Value: v} }
func Any(key string, v any) Field           { return Field{Key: key, Value: v} }

// Err records err under the "error" key. A nil error records nothing useful
// but is allowed.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Component tags an entry with the emitting component.
func Component(name string) Field { return Field{Key: ComponentKey, Value: name} }
