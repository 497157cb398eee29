package convert

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/woodsbury/decimal128"
	"golang.org/x/text/language"
)

func TestBuiltins_ParseFailuresAreTyped(t *testing.T) {
	reg := NewRegistry()

	cases := []struct {
		name  string
		parse func() error
		tag   Tag
	}{
		{"int", func() error { _, err := mustLookup[int](t, reg, TagInt).Parse("12a"); return err }, TagInt},
		{"int32 overflow", func() error { _, err := mustLookup[int32](t, reg, TagInt32).Parse("99999999999"); return err }, TagInt32},
		{"uint negative", func() error { _, err := mustLookup[uint](t, reg, TagUint).Parse("-1"); return err }, TagUint},
		{"float NaN", func() error { _, err := mustLookup[float64](t, reg, TagFloat64).Parse("NaN"); return err }, TagFloat64},
		{"decimal", func() error { _, err := mustLookup[decimal128.Decimal](t, reg, TagDecimal).Parse("1.2.3"); return err }, TagDecimal},
		{"bool", func() error { _, err := mustLookup[bool](t, reg, TagBool).Parse("maybe"); return err }, TagBool},
		{"date", func() error { _, err := mustLookup[time.Time](t, reg, TagDate).Parse("2024-13-01"); return err }, TagDate},
		{"uuid", func() error { _, err := mustLookup[uuid.UUID](t, reg, TagUUID).Parse("not-a-uuid"); return err }, TagUUID},
		{"duration", func() error { _, err := mustLookup[time.Duration](t, reg, TagDuration).Parse("5 minutes"); return err }, TagDuration},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := tc.parse()
			if !errors.Is(err, ErrParse) {
				t.Fatalf("expected ErrParse, got %v", err)
			}
			var parseErr *ParseError
			if !errors.As(err, &parseErr) || parseErr.Tag != tc.tag {
				t.Fatalf("expected ParseError tagged %q, got %#v", tc.tag, err)
			}
		})
	}
}

func TestBuiltins_IntParseKeepsStrconvCause(t *testing.T) {
	_, err := IntConverter().Parse("abc")
	if !errors.Is(err, strconv.ErrSyntax) {
		t.Fatalf("expected strconv.ErrSyntax in chain, got %v", err)
	}
}

func TestBuiltins_Format(t *testing.T) {
	when := time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	cases := []struct {
		name string
		got  string
		want string
	}{
		{"float trims zeros", Float64Converter().Format(1234.5), "1234.5"},
		{"decimal", DecimalConverter().Format(decimal128.MustParse("1234.50")), "1234.5"},
		{"bool", BoolConverter().Format(true), "true"},
		{"date", DateConverter().Format(when), "2024-03-09"},
		{"datetime", DateTimeConverter().Format(when), "2024-03-09T14:05:00Z"},
		{"timeofday", TimeOfDayConverter().Format(when), "14:05:00"},
		{"zero time", DateConverter().Format(time.Time{}), ""},
		{"uuid", UUIDConverter().Format(id), "6ba7b810-9dad-11d1-80b4-00c04fd430c8"},
		{"nil uuid", UUIDConverter().Format(uuid.Nil), ""},
		{"duration", DurationConverter().Format(90 * time.Minute), "1h30m0s"},
	}

	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("%s: want %q, got %q", tc.name, tc.want, tc.got)
		}
	}
}

func TestBuiltins_FormatWithPattern(t *testing.T) {
	when := time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)

	if got := IntConverter().FormatWith(1234567, "%d", language.English); got != "1,234,567" {
		t.Fatalf("grouped int: got %q", got)
	}
	if got := Float64Converter().FormatWith(1234.5, "$%.2f", language.Und); got != "$1,234.50" {
		t.Fatalf("currency float: got %q", got)
	}
	if got := DateConverter().FormatWith(when, "02 Jan 2006", language.Und); got != "09 Mar 2024" {
		t.Fatalf("date layout: got %q", got)
	}
	// Types without a pattern formatter fall back to Format.
	if got := BoolConverter().FormatWith(true, "%t!", language.Und); got != "true" {
		t.Fatalf("bool fallback: got %q", got)
	}
	if got := Float64Converter().FormatWith(2.5, "", language.Und); got != "2.5" {
		t.Fatalf("empty pattern should use Format, got %q", got)
	}
}

func TestBuiltins_BoolAliases(t *testing.T) {
	conv := BoolConverter()
	for raw, want := range map[string]bool{"yes": true, "ON": true, "1": true, "off": false, "No": false, "FALSE": false} {
		got, err := conv.Parse(raw)
		if err != nil || got != want {
			t.Errorf("parse %q: got %v err %v", raw, got, err)
		}
	}
}

func TestBuiltins_DecimalEqualityIgnoresScale(t *testing.T) {
	conv := DecimalConverter()
	a, _ := conv.Parse("1.50")
	b, _ := conv.Parse("1.5")
	if !conv.Same(a, b) {
		t.Fatalf("1.50 and 1.5 should be equal decimals")
	}
}

func TestBuiltins_TimeOfDayAcceptsShortLayout(t *testing.T) {
	conv := TimeOfDayConverter()
	v, err := conv.Parse("09:30")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := conv.Format(v); got != "09:30:00" {
		t.Fatalf("format: got %q", got)
	}
}

func mustLookup[T any](t *testing.T, reg *Registry, tag Tag) Converter[T] {
	t.Helper()
	conv, err := Lookup[T](reg, tag)
	if err != nil {
		t.Fatalf("lookup %s: %v", tag, err)
	}
	return conv
}
