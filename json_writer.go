package portfolio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
)

// jsonLine builds a single JSONL record with its keys in insertion order.
// Its zero value is ready to use; the first error sticks.
type jsonLine struct {
	bytes.Buffer
	err error
}

// newLine starts a record with its "kind" discriminant.
func newLine(kind string) *jsonLine {
	l := new(jsonLine)
	return l.Append(attrKind, kind)
}

// Append adds a key-value pair, the value is marshaled with json.Marshal.
func (l *jsonLine) Append(key string, value any) *jsonLine {
	if l.err != nil {
		return l
	}
	b, err := json.Marshal(value)
	if err != nil {
		l.err = fmt.Errorf("cannot marshal %q: %w", key, err)
		return l
	}
	if l.Len() > 0 {
		l.WriteByte(',')
	}
	fmt.Fprintf(&l.Buffer, "%q:", key)
	l.Write(b)
	return l
}

// Optional appends the pair only if value is not its type's zero value.
func (l *jsonLine) Optional(key string, value any) *jsonLine {
	if l.err != nil {
		return l
	}
	if v := reflect.ValueOf(value); !v.IsValid() || v.IsZero() {
		return l
	}
	return l.Append(key, value)
}

// MarshalJSON returns the object built so far.
func (l *jsonLine) MarshalJSON() ([]byte, error) {
	if l.err != nil {
		return nil, l.err
	}
	out := make([]byte, 0, l.Len()+2)
	out = append(out, '{')
	out = append(out, l.Bytes()...)
	return append(out, '}'), nil
}

// writeTo writes the object followed by a newline.
func (l *jsonLine) writeTo(w io.Writer) error {
	b, err := l.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}
