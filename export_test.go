package main

import (
	"math"
	"reflect"
	"testing"
)

func TestConvertValueNull(t *testing.T) {
	for fam := famInt; fam <= famTime; fam++ {
		got, reason := convertValue(fam, nil)
		if got != nil || reason != "" {
			t.Errorf("family %d: NULL should pass through, got (%v, %q)", fam, got, reason)
		}
	}
}

func TestConvertValueInteger(t *testing.T) {
	tests := []struct {
		name    string
		fam     targetFamily
		in      any
		want    any
		wantErr bool
	}{
		{"int32 max fits", famInt, int64(math.MaxInt32), int64(math.MaxInt32), false},
		{"int32 min fits", famInt, int64(math.MinInt32), int64(math.MinInt32), false},
		{"int32 max+1 overflows", famInt, int64(math.MaxInt32) + 1, nil, true},
		{"int32 min-1 overflows", famInt, int64(math.MinInt32) - 1, nil, true},
		{"bigint takes int64 max", famBigint, int64(math.MaxInt64), int64(math.MaxInt64), false},
		{"integral float", famInt, float64(42), int64(42), false},
		{"fractional float rejected", famInt, 42.5, nil, true},
		{"numeric string", famInt, "123", int64(123), false},
		{"padded numeric string", famInt, " 7 ", int64(7), false},
		{"non-numeric string rejected", famInt, "abc", nil, true},
		{"bool range ok", famBool, int64(1), int64(1), false},
		{"bool range overflow", famBool, int64(200), nil, true},
		{"blob rejected", famInt, []byte{0xff, 0xfe}, nil, true},
	}
	for _, tt := range tests {
		got, reason := convertValue(tt.fam, tt.in)
		if tt.wantErr {
			if reason == "" {
				t.Errorf("%s: expected failure, got %v", tt.name, got)
			}
			continue
		}
		if reason != "" {
			t.Errorf("%s: unexpected failure: %s", tt.name, reason)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: got %v (%T), want %v (%T)", tt.name, got, got, tt.want, tt.want)
		}
	}
}

func TestConvertValueDouble(t *testing.T) {
	if got, reason := convertValue(famDouble, 3.25); reason != "" || got != 3.25 {
		t.Errorf("float passthrough: got (%v, %q)", got, reason)
	}
	if got, reason := convertValue(famDouble, int64(5)); reason != "" || got != float64(5) {
		t.Errorf("int widening: got (%v, %q)", got, reason)
	}
	if got, reason := convertValue(famDouble, "2.5"); reason != "" || got != 2.5 {
		t.Errorf("string parse: got (%v, %q)", got, reason)
	}
	if _, reason := convertValue(famDouble, "not a number"); reason == "" {
		t.Error("garbage string should fail")
	}
}

func TestConvertValueText(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string passthrough", "hello", "hello"},
		{"invalid utf8 replaced", string([]byte{'h', 0xff, 'i'}), "h�i"},
		{"blob decoded", []byte("bytes"), "bytes"},
		{"int rendered", int64(42), "42"},
		{"float rendered", 2.5, "2.5"},
	}
	for _, tt := range tests {
		got, reason := convertValue(famText, tt.in)
		if reason != "" {
			t.Errorf("%s: unexpected failure: %s", tt.name, reason)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestConvertValueBinary(t *testing.T) {
	got, reason := convertValue(famBinary, []byte{0x01, 0xff})
	if reason != "" || !reflect.DeepEqual(got, []byte{0x01, 0xff}) {
		t.Errorf("blob passthrough: got (%v, %q)", got, reason)
	}
	got, reason = convertValue(famBinary, "text")
	if reason != "" || !reflect.DeepEqual(got, []byte("text")) {
		t.Errorf("string to bytes: got (%v, %q)", got, reason)
	}
	if _, reason := convertValue(famBinary, int64(1)); reason == "" {
		t.Error("int should not coerce to binary")
	}
}

func TestConvertValueDatetime(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    string
		wantErr bool
	}{
		{"canonical", "2024-03-01 12:30:00", "2024-03-01 12:30:00", false},
		{"iso t separator", "2024-03-01T12:30:00", "2024-03-01 12:30:00", false},
		{"fractional seconds", "2024-03-01 12:30:00.123456", "2024-03-01 12:30:00", false},
		{"zoned to utc", "2024-03-01T12:30:00+02:00", "2024-03-01 10:30:00", false},
		{"date only", "2024-03-01", "2024-03-01 00:00:00", false},
		{"epoch seconds int", int64(1709294400), "2024-03-01 12:00:00", false},
		{"epoch millis int", int64(1709294400000), "2024-03-01 12:00:00", false},
		{"epoch string", "1709294400", "2024-03-01 12:00:00", false},
		{"garbage", "next tuesday", "", true},
		{"blob rejected", []byte{1, 2}, "", true},
	}
	for _, tt := range tests {
		got, reason := convertValue(famDatetime, tt.in)
		if tt.wantErr {
			if reason == "" {
				t.Errorf("%s: expected failure, got %v", tt.name, got)
			}
			continue
		}
		if reason != "" {
			t.Errorf("%s: unexpected failure: %s", tt.name, reason)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestConvertValueDecimal(t *testing.T) {
	if got, reason := convertValue(famDecimal, "19.99"); reason != "" || got != "19.99" {
		t.Errorf("decimal text kept verbatim: got (%v, %q)", got, reason)
	}
	if got, reason := convertValue(famDecimal, int64(5)); reason != "" || got != int64(5) {
		t.Errorf("decimal int passthrough: got (%v, %q)", got, reason)
	}
	if _, reason := convertValue(famDecimal, "cheap"); reason == "" {
		t.Error("non-numeric decimal text should fail")
	}
}

func TestEpochToDatetime(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "1970-01-01 00:00:00"},
		{1709294400, "2024-03-01 12:00:00"},
		{1709294400000, "2024-03-01 12:00:00"}, // millis
		{4_000_000_000, "2096-10-02 07:06:40"}, // boundary stays seconds
	}
	for _, tt := range tests {
		if got := epochToDatetime(tt.in); got != tt.want {
			t.Errorf("epochToDatetime(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
