package event

import "log/slog"

// Heading returns the text that headlines the event and the key of the field
// it was taken from. The "message" field is used when it holds a string,
// then the "error" field when it holds a string or an error. Otherwise the
// heading is empty and key is "".
func (e *Event) Heading() (text, key string) {
	if v, ok := e.Lookup(KeyMessage); ok {
		if s, ok := stringValue(v, false); ok {
			return s, KeyMessage
		}
	}
	if v, ok := e.Lookup(KeyError); ok {
		if s, ok := stringValue(v, true); ok {
			return s, KeyError
		}
	}
	return "", ""
}

func stringValue(v any, allowError bool) (s string, ok bool) {
	defer func() {
		if recover() != nil {
			s, ok = "", false
		}
	}()

	switch x := v.(type) {
	case string:
		return x, true
	case slog.Value:
		x = x.Resolve()
		if x.Kind() == slog.KindString {
			return x.String(), true
		}
		if allowError && x.Kind() == slog.KindAny {
			return stringValue(x.Any(), allowError)
		}
	case error:
		if allowError && x != nil {
			return x.Error(), true
		}
	}
	return "", false
}
