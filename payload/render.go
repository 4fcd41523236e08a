package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/xraph/logrelay/event"
)

// Render converts a field value into display text. It never panics: values
// whose Error, String or MarshalJSON methods panic render as
// "!PANIC(<type>)".
func Render(v any) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = fmt.Sprintf("!PANIC(%T)", v)
		}
	}()

	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case error:
		return x.Error()
	case slog.Value:
		return renderSlog(x)
	case []slog.Attr:
		return string(groupJSON(x))
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case time.Duration:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case []byte:
		if utf8.Valid(x) {
			return string(x)
		}
	case fmt.Stringer:
		return x.String()
	}
	return string(valueJSON(v))
}

func renderSlog(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		return string(groupJSON(v.Group()))
	case slog.KindAny:
		return Render(v.Any())
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	default:
		return v.String()
	}
}

// valueJSON encodes v as compact JSON. Values that cannot be encoded fall
// back to their %v form as a JSON string.
func valueJSON(v any) (out []byte) {
	defer func() {
		if r := recover(); r != nil {
			out = quote(fmt.Sprintf("!PANIC(%T)", v))
		}
	}()

	switch x := v.(type) {
	case slog.Value:
		return slogJSON(x)
	case []slog.Attr:
		return groupJSON(x)
	case error:
		return quote(x.Error())
	}

	b, err := json.Marshal(v)
	if err != nil {
		return quote(fmt.Sprintf("%+v", v))
	}
	return b
}

func slogJSON(v slog.Value) []byte {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		return groupJSON(v.Group())
	case slog.KindString:
		return quote(v.String())
	case slog.KindInt64:
		return strconv.AppendInt(nil, v.Int64(), 10)
	case slog.KindUint64:
		return strconv.AppendUint(nil, v.Uint64(), 10)
	case slog.KindFloat64:
		return valueJSON(v.Float64())
	case slog.KindBool:
		return strconv.AppendBool(nil, v.Bool())
	case slog.KindDuration:
		return quote(v.Duration().String())
	case slog.KindTime:
		return quote(v.Time().Format(time.RFC3339Nano))
	default:
		return valueJSON(v.Any())
	}
}

// groupJSON encodes attrs as a JSON object preserving their order.
func groupJSON(attrs []slog.Attr) []byte {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, a := range attrs {
		if a.Equal(slog.Attr{}) {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.Write(quote(a.Key))
		buf.WriteByte(':')
		buf.Write(slogJSON(a.Value))
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

// metadataJSON renders fields as one indented JSON object. Field order and
// duplicate keys are preserved.
func metadataJSON(fields []event.Field) string {
	var compact bytes.Buffer
	compact.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			compact.WriteByte(',')
		}
		compact.Write(quote(f.Key))
		compact.WriteByte(':')
		compact.Write(valueJSON(f.Value))
	}
	compact.WriteByte('}')

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, compact.Bytes(), "", "  "); err != nil {
		return compact.String()
	}
	return pretty.String()
}

func quote(s string) []byte {
	b, err := json.Marshal(s)
	if err != nil {
		return []byte(`""`)
	}
	return b
}
