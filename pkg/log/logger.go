package log

import "time"

// Logger is the structured logging interface the consumer engine emits
// through. The library defaults to NewNoopLogger; embedders wire a real sink
// with the zerolog adapter or any implementation of their own.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field is one typed key-value pair attached to a log line. The engine
// confines itself to the constructors below; adapters may treat any other
// value as opaque.
type Field struct {
	Key   string
	Value any
}

// String builds a string-valued field.
func String(key, value string) Field { return Field{Key: key, Value: value} }

// Int builds an int-valued field.
func Int(key string, value int) Field { return Field{Key: key, Value: value} }

// Uint64 builds a uint64-valued field.
func Uint64(key string, value uint64) Field { return Field{Key: key, Value: value} }

// Float64 builds a float64-valued field.
func Float64(key string, value float64) Field { return Field{Key: key, Value: value} }

// Bool builds a bool-valued field.
func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }

// Duration builds a duration-valued field.
func Duration(key string, value time.Duration) Field { return Field{Key: key, Value: value} }

// Err builds the conventional "error" field.
func Err(err error) Field { return Field{Key: "error", Value: err} }
