package entries

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

const (
	StandardMessageField   = "@message"
	StandardTimestampField = "@timestamp"
	StandardEventIDField   = "@event_id"
	StandardDecodedField   = "@decoded"
	StandardDecoderField   = "@decoder"
	StandardTagField       = "@tag"

	// TemporaryFieldPrefix marks capture fields that must not survive into the
	// final emitted event.
	TemporaryFieldPrefix = "_"
)

// LogEntry is a single event in a log stream, with potentially many fields.
type LogEntry map[string]any

func (e LogEntry) HasField(name string) bool {
	_, ok := e[name]
	return ok
}

// IsDecoded reports whether a decoder has already claimed this entry.
func (e LogEntry) IsDecoded() bool {
	b, ok := e[StandardDecodedField].(bool)
	return ok && b
}

// MarkDecoded records that the named decoder successfully decoded this entry.
func (e LogEntry) MarkDecoded(decoder string) {
	e[StandardDecodedField] = true
	e[StandardDecoderField] = decoder
}

// Tag sets the standard tag field to the given value.
// If the field already has a value, the new tag is appended with a period separator.
func (e LogEntry) Tag(tag string) {
	if cur, ok := e.AsString(StandardTagField); ok && len(cur) > 0 {
		e[StandardTagField] = cur + "." + tag
		return
	}
	e[StandardTagField] = tag
}

// StripTemporary removes every field whose name starts with the temporary
// prefix. Capture results use such names for scratch values that should not
// appear in the final event.
func (e LogEntry) StripTemporary() {
	for name := range e {
		if strings.HasPrefix(name, TemporaryFieldPrefix) {
			delete(e, name)
		}
	}
}

func (e LogEntry) AsFloat(name string) (float64, bool) {
	if !e.HasField(name) {
		return 0, false
	}
	if f, ok := e[name].(float64); ok {
		return f, true
	}
	if s, ok := e[name].(string); ok {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	v := reflect.ValueOf(e[name])
	if v.CanFloat() {
		switch v.Kind() {
		case reflect.Float64:
			return e[name].(float64), true
		case reflect.Float32:
			return float64(e[name].(float32)), true
		}
	}
	return 0, false
}

func (e LogEntry) AsInt(name string) (int64, bool) {
	if !e.HasField(name) {
		return 0, false
	}
	if i, ok := e[name].(int64); ok {
		return i, true
	}
	if s, ok := e[name].(string); ok {
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	}
	v := reflect.ValueOf(e[name])
	if v.CanInt() {
		switch v.Kind() {
		case reflect.Int64:
			return e[name].(int64), true
		case reflect.Int32:
			return int64(e[name].(int32)), true
		case reflect.Int:
			return int64(e[name].(int)), true
		}
	}
	return 0, false
}

func (e LogEntry) AsString(name string) (string, bool) {
	if !e.HasField(name) {
		return "", false
	}
	if s, ok := e[name].(string); ok {
		return s, true
	}
	if s, ok := e[name].(interface{ String() string }); ok {
		return s.String(), true
	}
	if err, ok := e[name].(error); ok {
		return err.Error(), true
	}
	return fmt.Sprintf("%v", e[name]), true
}

func (e LogEntry) AsTime(name string, format ...string) (time.Time, bool) {
	var none time.Time
	if !e.HasField(name) {
		return none, false
	}
	if t, ok := e[name].(time.Time); ok {
		return t.UTC(), true
	}
	if s, ok := e.AsString(name); ok {
		if len(format) > 0 {
			for _, f := range format {
				t, err := time.Parse(f, s)
				if err == nil {
					return t.UTC(), true
				}
			}
		} else {
			t, err := time.Parse(time.RFC3339, s)
			if err == nil {
				return t.UTC(), true
			}
		}
	}
	return none, false
}

func (e LogEntry) Format(format string, fields ...string) string {
	args := make([]any, len(fields))
	for i, f := range fields {
		args[i] = e[f]
	}
	return fmt.Sprintf(format, args...)
}

// FromString produces a LogEntry from a raw log line.
// If the line is a valid JSON document its fields become the entry, otherwise
// the whole line is stored under the standard message field.
func FromString(msg string) LogEntry {
	entry := LogEntry{}
	if err := json.Unmarshal([]byte(msg), &entry); err != nil {
		entry[StandardMessageField] = msg
	}
	return entry
}
