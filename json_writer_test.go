package portfolio

import (
	"bytes"
	"testing"

	"github.com/assetutils/portfolio/date"
	"github.com/shopspring/decimal"
)

func TestJsonLine(t *testing.T) {
	t.Run("empty object", func(t *testing.T) {
		var l jsonLine
		got, err := l.MarshalJSON()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := "{}"; string(got) != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("keeps key order", func(t *testing.T) {
		got, err := newLine("price").
			Append("date", date.New(2020, 1, 5)).
			Append("asset", "A").
			Append("price", decimal.RequireFromString("110.5")).
			MarshalJSON()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := `{"kind":"price","date":"2020-01-05","asset":"A","price":110.5}`
		if string(got) != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("optional fields", func(t *testing.T) {
		var l jsonLine
		l.Append("a", 0) // a zero value is added when required.
		l.Optional("b", "")
		l.Optional("c", 0)
		l.Optional("d", "hello")
		got, err := l.MarshalJSON()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := `{"a":0,"d":"hello"}`; string(got) != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("error sticks", func(t *testing.T) {
		var l jsonLine
		l.Append("a", func() {}).Append("b", 1)
		if _, err := l.MarshalJSON(); err == nil {
			t.Error("MarshalJSON() succeeded, want an error for an unsupported value")
		}
		var buf bytes.Buffer
		if err := l.writeTo(&buf); err == nil || buf.Len() != 0 {
			t.Errorf("writeTo() = %v and wrote %q, want an error and nothing written", err, buf.String())
		}
	})

	t.Run("write line", func(t *testing.T) {
		var buf bytes.Buffer
		if err := newLine("fee").Append("memo", "custody").writeTo(&buf); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := "{\"kind\":\"fee\",\"memo\":\"custody\"}\n"; buf.String() != want {
			t.Errorf("got %q, want %q", buf.String(), want)
		}
	})
}
