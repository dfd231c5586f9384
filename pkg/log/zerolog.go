package log

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ZerologAdapter routes Logger calls onto a zerolog.Logger, mapping each
// typed Field to its native zerolog counterpart.
type ZerologAdapter struct {
	zl zerolog.Logger
}

// NewZerologAdapter builds an adapter around a console logger writing to
// stderr with RFC3339 timestamps.
func NewZerologAdapter() *ZerologAdapter {
	zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
	return &ZerologAdapter{zl: zl}
}

// NewZerologAdapterWithLogger wraps an existing zerolog.Logger.
func NewZerologAdapterWithLogger(zl zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{zl: zl}
}

// The four levels share one emit path.
func (z *ZerologAdapter) Debug(msg string, fields ...Field) { emit(z.zl.Debug(), msg, fields) }
func (z *ZerologAdapter) Info(msg string, fields ...Field)  { emit(z.zl.Info(), msg, fields) }
func (z *ZerologAdapter) Warn(msg string, fields ...Field)  { emit(z.zl.Warn(), msg, fields) }
func (z *ZerologAdapter) Error(msg string, fields ...Field) { emit(z.zl.Error(), msg, fields) }

// emit applies the engine's field vocabulary to the event. Values outside
// it, reachable only through a hand-built Field, fall back to Interface.
func emit(e *zerolog.Event, msg string, fields []Field) {
	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			e = e.Str(f.Key, v)
		case int:
			e = e.Int(f.Key, v)
		case uint64:
			e = e.Uint64(f.Key, v)
		case float64:
			e = e.Float64(f.Key, v)
		case bool:
			e = e.Bool(f.Key, v)
		case time.Duration:
			e = e.Dur(f.Key, v)
		case error:
			e = e.Err(v)
		default:
			e = e.Interface(f.Key, v)
		}
	}
	e.Msg(msg)
}
