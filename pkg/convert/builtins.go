package convert

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/woodsbury/decimal128"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Built-in type tags.
const (
	TagString    Tag = "string"
	TagInt       Tag = "int"
	TagInt32     Tag = "int32"
	TagInt64     Tag = "int64"
	TagUint      Tag = "uint"
	TagUint64    Tag = "uint64"
	TagFloat32   Tag = "float32"
	TagFloat64   Tag = "float64"
	TagDecimal   Tag = "decimal"
	TagBool      Tag = "bool"
	TagDateTime  Tag = "datetime"
	TagDate      Tag = "date"
	TagTimeOfDay Tag = "timeofday"
	TagDuration  Tag = "duration"
	TagUUID      Tag = "uuid"

	TagNullableInt      Tag = "int?"
	TagNullableInt64    Tag = "int64?"
	TagNullableFloat64  Tag = "float64?"
	TagNullableDecimal  Tag = "decimal?"
	TagNullableBool     Tag = "bool?"
	TagNullableDateTime Tag = "datetime?"
	TagNullableDate     Tag = "date?"
	TagNullableUUID     Tag = "uuid?"
)

// Canonical layouts used by the temporal converters.
const (
	LayoutDateTime  = time.RFC3339Nano
	LayoutDate      = "2006-01-02"
	LayoutTimeOfDay = "15:04:05"
)

var (
	dateTimeLayouts  = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02 15:04"}
	timeOfDayLayouts = []string{"15:04:05.999999999", "15:04"}

	errNotFinite = errors.New("value is not finite")
)

// StringConverter passes text through untouched.
func StringConverter() Converter[string] {
	return Converter[string]{
		Parse:  func(raw string) (string, error) { return raw, nil },
		Format: func(value string) string { return value },
		FormatPattern: func(value string, pattern string, loc language.Tag) string {
			return printer(loc).Sprintf(pattern, value)
		},
		Equal: func(a, b string) bool { return a == b },
	}
}

// IntConverter parses base-10 integers sized to the platform int.
func IntConverter() Converter[int] {
	return Converter[int]{
		Parse: func(raw string) (int, error) {
			v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, strconv.IntSize)
			if err != nil {
				return 0, NewParseError(TagInt, raw, err)
			}
			return int(v), nil
		},
		Format:        func(value int) string { return strconv.Itoa(value) },
		FormatPattern: numericPattern[int],
		Equal:         func(a, b int) bool { return a == b },
	}
}

// Int32Converter parses base-10 32-bit integers.
func Int32Converter() Converter[int32] {
	return Converter[int32]{
		Parse: func(raw string) (int32, error) {
			v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 32)
			if err != nil {
				return 0, NewParseError(TagInt32, raw, err)
			}
			return int32(v), nil
		},
		Format:        func(value int32) string { return strconv.FormatInt(int64(value), 10) },
		FormatPattern: numericPattern[int32],
		Equal:         func(a, b int32) bool { return a == b },
	}
}

// Int64Converter parses base-10 64-bit integers.
func Int64Converter() Converter[int64] {
	return Converter[int64]{
		Parse: func(raw string) (int64, error) {
			v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
			if err != nil {
				return 0, NewParseError(TagInt64, raw, err)
			}
			return v, nil
		},
		Format:        func(value int64) string { return strconv.FormatInt(value, 10) },
		FormatPattern: numericPattern[int64],
		Equal:         func(a, b int64) bool { return a == b },
	}
}

// UintConverter parses base-10 unsigned integers sized to the platform uint.
func UintConverter() Converter[uint] {
	return Converter[uint]{
		Parse: func(raw string) (uint, error) {
			v, err := strconv.ParseUint(strings.TrimSpace(raw), 10, strconv.IntSize)
			if err != nil {
				return 0, NewParseError(TagUint, raw, err)
			}
			return uint(v), nil
		},
		Format:        func(value uint) string { return strconv.FormatUint(uint64(value), 10) },
		FormatPattern: numericPattern[uint],
		Equal:         func(a, b uint) bool { return a == b },
	}
}

// Uint64Converter parses base-10 64-bit unsigned integers.
func Uint64Converter() Converter[uint64] {
	return Converter[uint64]{
		Parse: func(raw string) (uint64, error) {
			v, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
			if err != nil {
				return 0, NewParseError(TagUint64, raw, err)
			}
			return v, nil
		},
		Format:        func(value uint64) string { return strconv.FormatUint(value, 10) },
		FormatPattern: numericPattern[uint64],
		Equal:         func(a, b uint64) bool { return a == b },
	}
}

// Float32Converter parses finite 32-bit floating point numbers.
func Float32Converter() Converter[float32] {
	return Converter[float32]{
		Parse: func(raw string) (float32, error) {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 32)
			if err != nil {
				return 0, NewParseError(TagFloat32, raw, err)
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return 0, NewParseError(TagFloat32, raw, errNotFinite)
			}
			return float32(v), nil
		},
		Format:        func(value float32) string { return strconv.FormatFloat(float64(value), 'f', -1, 32) },
		FormatPattern: numericPattern[float32],
		Equal:         func(a, b float32) bool { return a == b },
	}
}

// Float64Converter parses finite 64-bit floating point numbers.
func Float64Converter() Converter[float64] {
	return Converter[float64]{
		Parse: func(raw string) (float64, error) {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return 0, NewParseError(TagFloat64, raw, err)
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return 0, NewParseError(TagFloat64, raw, errNotFinite)
			}
			return v, nil
		},
		Format:        func(value float64) string { return strconv.FormatFloat(value, 'f', -1, 64) },
		FormatPattern: numericPattern[float64],
		Equal:         func(a, b float64) bool { return a == b },
	}
}

// DecimalConverter parses exact decimal numbers.
func DecimalConverter() Converter[decimal128.Decimal] {
	return Converter[decimal128.Decimal]{
		Parse: func(raw string) (decimal128.Decimal, error) {
			v, err := decimal128.Parse(strings.TrimSpace(raw))
			if err != nil {
				return decimal128.Decimal{}, NewParseError(TagDecimal, raw, err)
			}
			if v.IsNaN() || v.IsInf(0) {
				return decimal128.Decimal{}, NewParseError(TagDecimal, raw, errNotFinite)
			}
			return v, nil
		},
		Format: func(value decimal128.Decimal) string { return value.String() },
		FormatPattern: func(value decimal128.Decimal, pattern string, loc language.Tag) string {
			// The message printer only groups native numbers.
			return printer(loc).Sprintf(pattern, value.Float64())
		},
		Equal: func(a, b decimal128.Decimal) bool { return a.Equal(b) },
	}
}

// BoolConverter accepts strconv booleans plus yes/no and on/off.
func BoolConverter() Converter[bool] {
	return Converter[bool]{
		Parse: func(raw string) (bool, error) {
			trimmed := strings.TrimSpace(raw)
			switch strings.ToLower(trimmed) {
			case "yes", "y", "on":
				return true, nil
			case "no", "n", "off":
				return false, nil
			}
			v, err := strconv.ParseBool(trimmed)
			if err != nil {
				return false, NewParseError(TagBool, raw, err)
			}
			return v, nil
		},
		Format: strconv.FormatBool,
		Equal:  func(a, b bool) bool { return a == b },
	}
}

// DateTimeConverter parses RFC 3339 timestamps and a few local layouts.
func DateTimeConverter() Converter[time.Time] {
	return timeConverter(TagDateTime, dateTimeLayouts, func(value time.Time) string {
		return value.Format(LayoutDateTime)
	})
}

// DateConverter parses calendar dates (2006-01-02).
func DateConverter() Converter[time.Time] {
	return timeConverter(TagDate, []string{LayoutDate}, func(value time.Time) string {
		return value.Format(LayoutDate)
	})
}

// TimeOfDayConverter parses clock times (15:04:05 or 15:04).
func TimeOfDayConverter() Converter[time.Time] {
	return timeConverter(TagTimeOfDay, timeOfDayLayouts, func(value time.Time) string {
		if value.Nanosecond() != 0 {
			return value.Format("15:04:05.999999999")
		}
		return value.Format(LayoutTimeOfDay)
	})
}

// timeConverter formats the zero time as "" and parses "" back to it.
func timeConverter(tag Tag, layouts []string, format func(time.Time) string) Converter[time.Time] {
	return Converter[time.Time]{
		Parse: func(raw string) (time.Time, error) {
			trimmed := strings.TrimSpace(raw)
			if trimmed == "" {
				return time.Time{}, nil
			}
			var lastErr error
			for _, layout := range layouts {
				v, err := time.Parse(layout, trimmed)
				if err == nil {
					return v, nil
				}
				lastErr = err
			}
			return time.Time{}, NewParseError(tag, raw, lastErr)
		},
		Format: func(value time.Time) string {
			if value.IsZero() {
				return ""
			}
			return format(value)
		},
		FormatPattern: func(value time.Time, pattern string, _ language.Tag) string {
			if value.IsZero() {
				return ""
			}
			return value.Format(pattern)
		},
		Equal: func(a, b time.Time) bool { return a.Equal(b) },
	}
}

// DurationConverter parses Go duration strings (1h30m).
func DurationConverter() Converter[time.Duration] {
	return Converter[time.Duration]{
		Parse: func(raw string) (time.Duration, error) {
			v, err := time.ParseDuration(strings.TrimSpace(raw))
			if err != nil {
				return 0, NewParseError(TagDuration, raw, err)
			}
			return v, nil
		},
		Format: func(value time.Duration) string { return value.String() },
		Equal:  func(a, b time.Duration) bool { return a == b },
	}
}

// UUIDConverter parses RFC 4122 identifiers in any form uuid.Parse accepts.
// uuid.Nil and "" map onto each other.
func UUIDConverter() Converter[uuid.UUID] {
	return Converter[uuid.UUID]{
		Parse: func(raw string) (uuid.UUID, error) {
			if isBlank(raw) {
				return uuid.Nil, nil
			}
			v, err := uuid.Parse(strings.TrimSpace(raw))
			if err != nil {
				return uuid.Nil, NewParseError(TagUUID, raw, err)
			}
			return v, nil
		},
		Format: func(value uuid.UUID) string {
			if value == uuid.Nil {
				return ""
			}
			return value.String()
		},
		Equal: func(a, b uuid.UUID) bool { return a == b },
	}
}

func (r *Registry) registerBuiltins() {
	registerBuiltin(r, TagString, StringConverter())
	registerBuiltin(r, TagInt, IntConverter())
	registerBuiltin(r, TagInt32, Int32Converter())
	registerBuiltin(r, TagInt64, Int64Converter())
	registerBuiltin(r, TagUint, UintConverter())
	registerBuiltin(r, TagUint64, Uint64Converter())
	registerBuiltin(r, TagFloat32, Float32Converter())
	registerBuiltin(r, TagFloat64, Float64Converter())
	registerBuiltin(r, TagDecimal, DecimalConverter())
	registerBuiltin(r, TagBool, BoolConverter())
	registerBuiltin(r, TagDateTime, DateTimeConverter())
	registerBuiltin(r, TagDate, DateConverter())
	registerBuiltin(r, TagTimeOfDay, TimeOfDayConverter())
	registerBuiltin(r, TagDuration, DurationConverter())
	registerBuiltin(r, TagUUID, UUIDConverter())

	registerBuiltin(r, TagNullableInt, Nullable(IntConverter()))
	registerBuiltin(r, TagNullableInt64, Nullable(Int64Converter()))
	registerBuiltin(r, TagNullableFloat64, Nullable(Float64Converter()))
	registerBuiltin(r, TagNullableDecimal, Nullable(DecimalConverter()))
	registerBuiltin(r, TagNullableBool, Nullable(BoolConverter()))
	registerBuiltin(r, TagNullableDateTime, Nullable(DateTimeConverter()))
	registerBuiltin(r, TagNullableDate, Nullable(DateConverter()))
	registerBuiltin(r, TagNullableUUID, Nullable(UUIDConverter()))
}

type number interface {
	~int | ~int32 | ~int64 | ~uint | ~uint64 | ~float32 | ~float64
}

func numericPattern[N number](value N, pattern string, loc language.Tag) string {
	return printer(loc).Sprintf(pattern, value)
}

func printer(loc language.Tag) *message.Printer {
	if loc == language.Und {
		loc = language.English
	}
	return message.NewPrinter(loc)
}

func isBlank(raw string) bool {
	return strings.TrimSpace(raw) == ""
}
