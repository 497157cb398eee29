package validation

import (
	"errors"
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-inputfield/pkg/convert"
)

func newIntPipeline(t *testing.T, options ...Option[int]) *Pipeline[int] {
	t.Helper()
	p, err := NewPipeline(convert.IntConverter(), options...)
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	return p
}

func TestPipeline_Stages(t *testing.T) {
	p := newIntPipeline(t,
		WithPattern[int](`^[0-9]*$`),
		WithPredicate(func(v int) bool { return v >= 18 }),
	)

	cases := []struct {
		name  string
		raw   string
		kind  OutcomeKind
		value int
		err   error
		ekind ErrorKind
	}{
		{name: "ok", raw: "21", kind: OutcomeOK, value: 21, ekind: ErrorNone},
		{name: "pattern", raw: "-5", kind: OutcomePatternRejected, err: ErrPatternRejected, ekind: ErrorPatternValidation},
		{name: "parse", raw: "99999999999999999999", kind: OutcomeParseFailed, err: convert.ErrParse, ekind: ErrorParse},
		{name: "predicate", raw: "17", kind: OutcomeValueRejected, value: 17, err: ErrValueRejected, ekind: ErrorValueValidation},
		{name: "blank bypasses everything", raw: "   ", kind: OutcomeOK, value: 0, ekind: ErrorNone},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			out := p.Run(tc.raw)
			if out.Kind != tc.kind {
				t.Fatalf("kind: want %v, got %v (err %v)", tc.kind, out.Kind, out.Err)
			}
			if out.Value != tc.value {
				t.Fatalf("value: want %d, got %d", tc.value, out.Value)
			}
			if tc.err != nil && !errors.Is(out.Err, tc.err) {
				t.Fatalf("err: want %v in chain, got %v", tc.err, out.Err)
			}
			if out.ErrorKind() != tc.ekind {
				t.Fatalf("error kind: want %v, got %v", tc.ekind, out.ErrorKind())
			}
			if out.Raw != tc.raw {
				t.Fatalf("raw should be preserved, got %q", out.Raw)
			}
		})
	}
}

func TestPipeline_ParseWithoutPattern(t *testing.T) {
	p := newIntPipeline(t)
	out := p.Run("abc")
	if out.Kind != OutcomeParseFailed {
		t.Fatalf("expected parse failure, got %v", out.Kind)
	}
	var parseErr *convert.ParseError
	if !errors.As(out.Err, &parseErr) || parseErr.Input != "abc" {
		t.Fatalf("expected ParseError cause, got %#v", out.Err)
	}
}

func TestPipeline_InvalidPatternFailsFast(t *testing.T) {
	if _, err := NewPipeline(convert.IntConverter(), WithPattern[int]("([")); err == nil {
		t.Fatalf("expected compile error")
	}
	if _, err := NewPipeline(convert.Converter[int]{}); err == nil {
		t.Fatalf("expected incomplete converter to fail")
	}
}

func TestPipeline_CompiledPattern(t *testing.T) {
	p := newIntPipeline(t, WithRegexp[int](regexp.MustCompile(`^\d{3}$`)))
	if got := p.Run("12").Kind; got != OutcomePatternRejected {
		t.Fatalf("want pattern rejection, got %v", got)
	}
	if got := p.Run("123").Kind; got != OutcomeOK {
		t.Fatalf("want ok, got %v", got)
	}
}

func TestPipeline_Rules(t *testing.T) {
	var rules Rules
	for kind, value := range map[string]string{RuleMin: "1", RuleMax: "10", RuleMaxLength: "2"} {
		if err := rules.ParseRule(kind, value); err != nil {
			t.Fatalf("parse rule %s: %v", kind, err)
		}
	}
	p, err := NewPipeline(convert.Float64Converter(), WithRules[float64](rules))
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}

	got := []OutcomeKind{
		p.Run("5").Kind,
		p.Run("0.5").Kind,
		p.Run("11").Kind,
		p.Run("9.5").Kind, // three runes
	}
	want := []OutcomeKind{OutcomeOK, OutcomeValueRejected, OutcomeValueRejected, OutcomeValueRejected}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("rule outcomes (-want +got):\n%s", diff)
	}

	if err := rules.ParseRule("between", "1"); err == nil {
		t.Fatalf("unknown rule should fail")
	}
	if err := rules.ParseRule(RuleMinLength, "-1"); err == nil {
		t.Fatalf("negative length should fail")
	}
}

func TestPipeline_ExclusiveBounds(t *testing.T) {
	min := 0.0
	p, err := NewPipeline(convert.Float64Converter(), WithRules[float64](Rules{Min: &min, ExclusiveMin: true}))
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	out := p.Run("0")
	if out.Kind != OutcomeValueRejected {
		t.Fatalf("exclusive min should reject bound, got %v", out.Kind)
	}
	if diff := cmp.Diff(ErrValueRejected, out.Err, cmpopts.EquateErrors()); diff != "" {
		t.Fatalf("cause (-want +got):\n%s", diff)
	}
}

func TestErrorKindString(t *testing.T) {
	got := []string{ErrorNone.String(), ErrorParse.String(), ErrorPatternValidation.String(), ErrorValueValidation.String(), ErrorKind(42).String()}
	want := []string{"none", "parse", "pattern", "value", "unknown"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("strings (-want +got):\n%s", diff)
	}
}
