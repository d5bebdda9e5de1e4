package logger

import (
	"time"

	"github.com/rs/zerolog"
)

type fieldKind uint8

const (
	kindAny fieldKind = iota
	kindString
	kindInt64
	kindFloat64
	kindBool
	kindDuration
	kindError
)

// Field is one structured key/value pair.
type Field struct {
	Key   string
	Value interface{}
	kind  fieldKind
}

func (f Field) addTo(e *zerolog.Event) {
	switch f.kind {
	case kindString:
		e.Str(f.Key, f.Value.(string))
	case kindInt64:
		e.Int64(f.Key, f.Value.(int64))
	case kindFloat64:
		e.Float64(f.Key, f.Value.(float64))
	case kindBool:
		e.Bool(f.Key, f.Value.(bool))
	case kindDuration:
		e.Dur(f.Key, f.Value.(time.Duration))
	case kindError:
		e.Str(f.Key, f.Value.(string))
	default:
		e.Interface(f.Key, f.Value)
	}
}

func String(key, value string) Field { return Field{Key: key, Value: value, kind: kindString} }

func Int(key string, value int) Field { return Int64(key, int64(value)) }

func Int64(key string, value int64) Field { return Field{Key: key, Value: value, kind: kindInt64} }

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value, kind: kindFloat64}
}

func Bool(key string, value bool) Field { return Field{Key: key, Value: value, kind: kindBool} }

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value, kind: kindDuration}
}

// Error records err under "error". A nil error is logged as "<nil>".
func Error(err error) Field {
	msg := "<nil>"
	if err != nil {
		msg = err.Error()
	}
	return Field{Key: zerolog.ErrorFieldName, Value: msg, kind: kindError}
}

func Any(key string, value interface{}) Field { return Field{Key: key, Value: value} }
