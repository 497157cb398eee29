package convert

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// roundTrips reports whether parse(format(parse(s))) == parse(s).
func roundTrips[T any](conv Converter[T], raw string) bool {
	first, err := conv.Parse(raw)
	if err != nil {
		return false
	}
	second, err := conv.Parse(conv.Format(first))
	if err != nil {
		return false
	}
	return conv.Same(first, second)
}

func TestConverterRoundTrip_ZeroLiterals(t *testing.T) {
	cases := []struct {
		name string
		ok   bool
	}{
		{"date", roundTrips(DateConverter(), "0001-01-01")},
		{"datetime", roundTrips(DateTimeConverter(), "0001-01-01T00:00:00Z")},
		{"time of day", roundTrips(TimeOfDayConverter(), "00:00:00")},
		{"uuid", roundTrips(UUIDConverter(), "00000000-0000-0000-0000-000000000000")},
		{"blank date", roundTrips(DateConverter(), "")},
		{"blank uuid", roundTrips(UUIDConverter(), " ")},
	}
	for _, tc := range cases {
		if !tc.ok {
			t.Errorf("%s zero literal does not round trip", tc.name)
		}
	}
}

func TestConverterRoundTripProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1357)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("int literals are stable", prop.ForAll(
		func(raw string) bool { return roundTrips(Int64Converter(), raw) },
		gen.RegexMatch(`^-?[0-9]{1,15}$`),
	))

	properties.Property("float literals are stable", prop.ForAll(
		func(raw string) bool { return roundTrips(Float64Converter(), raw) },
		gen.RegexMatch(`^-?[0-9]{1,9}(\.[0-9]{1,6})?$`),
	))

	properties.Property("float32 literals are stable", prop.ForAll(
		func(raw string) bool { return roundTrips(Float32Converter(), raw) },
		gen.RegexMatch(`^-?[0-9]{1,5}(\.[0-9]{1,3})?$`),
	))

	properties.Property("decimal literals are stable", prop.ForAll(
		func(raw string) bool { return roundTrips(DecimalConverter(), raw) },
		gen.RegexMatch(`^-?[0-9]{1,12}(\.[0-9]{1,6})?$`),
	))

	properties.Property("bool literals are stable", prop.ForAll(
		func(raw string) bool { return roundTrips(BoolConverter(), raw) },
		gen.RegexMatch(`^(true|false|yes|no|on|off|1|0)$`),
	))

	properties.Property("date literals are stable", prop.ForAll(
		func(raw string) bool { return roundTrips(DateConverter(), raw) },
		gen.RegexMatch(`^(0001-01-01|[0-9]{4}-(0[1-9]|1[0-2])-(0[1-9]|1[0-9]|2[0-8]))$`),
	))

	properties.Property("datetime literals are stable", prop.ForAll(
		func(raw string) bool { return roundTrips(DateTimeConverter(), raw) },
		gen.RegexMatch(`^(0001-01-01T00:00:00Z|[0-9]{4}-0[1-9]-1[0-9]T(0[0-9]|1[0-9]):[0-5][0-9]:[0-5][0-9](Z|[+-]0[0-9]:00))$`),
	))

	properties.Property("time of day literals are stable", prop.ForAll(
		func(raw string) bool { return roundTrips(TimeOfDayConverter(), raw) },
		gen.RegexMatch(`^([01][0-9]|2[0-3]):[0-5][0-9](:[0-5][0-9])?$`),
	))

	properties.Property("uuid literals are stable", prop.ForAll(
		func(raw string) bool { return roundTrips(UUIDConverter(), raw) },
		gen.RegexMatch(`^(00000000-0000-0000-0000-000000000000|[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})$`),
	))

	properties.Property("duration literals are stable", prop.ForAll(
		func(raw string) bool { return roundTrips(DurationConverter(), raw) },
		gen.RegexMatch(`^[1-9][0-9]{0,2}(h|m|s|ms)$`),
	))

	properties.TestingRun(t)
}
