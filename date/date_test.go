package date

import (
	"encoding/json"
	"testing"
	"time"
)

// TestTime assert that the time() is cannonical and gives comparable times.
func TestTime(t *testing.T) {
	d1 := New(2025, 7, 31)
	d2 := New(2025, 7, 31)

	if d1.time() != d2.time() {
		// Note that usually time.Time are not comparable (there is a pointer for the timezone) this
		// tests also checks that the property remain true
		t.Errorf("invalid time() function same day gives two different time")
	}
}

func TestNewNormalizes(t *testing.T) {
	got := New(2024, time.February, 30)
	want := New(2024, time.March, 1)
	if got != want {
		t.Errorf("New(2024, 2, 30) = %v, want %v", got, want)
	}
}

func TestSub(t *testing.T) {
	testCases := []struct {
		a, b Date
		want int
	}{
		{New(2020, 1, 10), New(2020, 1, 1), 9},
		{New(2020, 1, 1), New(2020, 1, 1), 0},
		{New(2019, 12, 31), New(2020, 1, 1), -1},
		{New(2021, 1, 1), New(2020, 1, 1), 366},
	}
	for _, tc := range testCases {
		if got := tc.a.Sub(tc.b); got != tc.want {
			t.Errorf("%v.Sub(%v) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestParse(t *testing.T) {
	testCases := []struct {
		in      string
		want    Date
		wantErr bool
	}{
		{"2025-07-01", New(2025, 7, 1), false},
		{"2025-7-1", New(2025, 7, 1), false},
		{" 2020-01-10 ", New(2020, 1, 10), false},
		{"0d", Today(), false},
		{"-1d", Today().Add(-1), false},
		{"+2w", Today().Add(14), false},
		{"01.02.2020", Date{}, true},
		{"", Date{}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := Parse(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("Parse(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestStartOfEndOf(t *testing.T) {
	wed := New(2025, time.September, 10)
	testCases := []struct {
		period     Period
		start, end Date
	}{
		{Daily, wed, wed},
		{Weekly, New(2025, time.September, 8), New(2025, time.September, 14)},
		{Monthly, New(2025, time.September, 1), New(2025, time.September, 30)},
		{Quarterly, New(2025, time.July, 1), New(2025, time.September, 30)},
		{Yearly, New(2025, time.January, 1), New(2025, time.December, 31)},
	}
	for _, tc := range testCases {
		t.Run(tc.period.String(), func(t *testing.T) {
			if got := wed.StartOf(tc.period); got != tc.start {
				t.Errorf("StartOf(%v) = %v, want %v", tc.period, got, tc.start)
			}
			if got := wed.EndOf(tc.period); got != tc.end {
				t.Errorf("EndOf(%v) = %v, want %v", tc.period, got, tc.end)
			}
		})
	}
	// A Sunday belongs to the week that started on the previous Monday.
	sun := New(2025, time.September, 14)
	if got, want := sun.StartOf(Weekly), New(2025, time.September, 8); got != want {
		t.Errorf("Sunday StartOf(Weekly) = %v, want %v", got, want)
	}
}

func TestDateJSON(t *testing.T) {
	d := New(2020, 1, 5)
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(b) != `"2020-01-05"` {
		t.Errorf("Marshal() = %s, want %q", b, `"2020-01-05"`)
	}
	var got Date
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got != d {
		t.Errorf("Unmarshal() = %v, want %v", got, d)
	}
}
