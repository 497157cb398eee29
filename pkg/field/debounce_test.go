package field

import (
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/goliatone/go-inputfield/internal/debounce"
	"github.com/goliatone/go-inputfield/pkg/convert"
	"go.uber.org/goleak"
)

func newDebouncedField(t *testing.T, rec *recorder[int], opts ...Option) (*Field[int], *debounce.ManualScheduler) {
	t.Helper()
	sched := debounce.NewManualScheduler()
	base := []Option{
		WithTiming(TimingDebounced),
		WithDebounceInterval(500 * time.Millisecond),
		WithScheduler(sched),
	}
	return newIntField(t, rec, append(base, opts...)...), sched
}

func TestDebounced_CoalescesKeystrokes(t *testing.T) {
	t.Parallel()

	rec := &recorder[int]{}
	f, sched := newDebouncedField(t, rec)

	f.Focus()
	f.Input("1")
	if got := f.Value(); got != 1 {
		t.Fatalf("local commit expected, value = %d", got)
	}
	sched.Advance(100 * time.Millisecond)
	f.Input("12")
	if sched.Pending() != 1 {
		t.Fatalf("exactly one timer may be live, got %d", sched.Pending())
	}
	sched.Advance(499 * time.Millisecond)
	if len(rec.values) != 0 {
		t.Fatalf("propagated before the quiet period: %v", rec.values)
	}
	sched.Advance(time.Millisecond)

	if diff := cmp.Diff([]int{12}, rec.values); diff != "" {
		t.Fatalf("values (-want +got):\n%s", diff)
	}
}

func TestDebounced_BlurCancelsPendingTimer(t *testing.T) {
	t.Parallel()

	rec := &recorder[int]{}
	f, sched := newDebouncedField(t, rec)

	f.Focus()
	f.Input("34")
	sched.Advance(200 * time.Millisecond)
	f.Blur()

	if sched.Pending() != 0 {
		t.Fatalf("blur must cancel the timer")
	}
	sched.Advance(time.Second)

	if diff := cmp.Diff([]int{34}, rec.values); diff != "" {
		t.Fatalf("values (-want +got):\n%s", diff)
	}
}

func TestDebounced_FailuresAreSwallowedAndKeepLastCommit(t *testing.T) {
	t.Parallel()

	rec := &recorder[int]{}
	f, sched := newDebouncedField(t, rec)

	f.Focus()
	f.Input("8")
	f.Input("8x")
	if f.HasError() {
		t.Fatalf("typing must not raise errors")
	}
	sched.Advance(500 * time.Millisecond)

	if diff := cmp.Diff([]int{8}, rec.values); diff != "" {
		t.Fatalf("values (-want +got):\n%s", diff)
	}
	if got := f.Text(); got != "8x" {
		t.Fatalf("raw text = %q", got)
	}
}

func TestDebounced_RejectedKeystrokeRestartsQuietPeriod(t *testing.T) {
	t.Parallel()

	rec := &recorder[int]{}
	f, sched := newDebouncedField(t, rec)

	f.Focus()
	f.Input("1")
	sched.Advance(400 * time.Millisecond)
	f.Input("1x")
	if sched.Pending() != 1 {
		t.Fatalf("exactly one timer may be live, got %d", sched.Pending())
	}
	sched.Advance(499 * time.Millisecond)
	if len(rec.values) != 0 {
		t.Fatalf("propagated %v before the quiet period after the last keystroke", rec.values)
	}
	sched.Advance(time.Millisecond)

	if diff := cmp.Diff([]int{1}, rec.values); diff != "" {
		t.Fatalf("values (-want +got):\n%s", diff)
	}
}

func TestDebounced_NoPropagationWhenValueReturnsToPropagated(t *testing.T) {
	t.Parallel()

	rec := &recorder[int]{}
	f, sched := newDebouncedField(t, rec, WithValue(5))

	f.Focus()
	f.Input("56")
	f.Input("5")
	sched.Advance(time.Second)

	if len(rec.values) != 0 {
		t.Fatalf("unchanged value must not propagate, got %v", rec.values)
	}
}

// staleScheduler hands out timers whose Stop never prevents the callback, so
// the test can fire a superseded timer after blur.
type staleScheduler struct {
	mu  sync.Mutex
	fns []func()
}

type staleTimer struct{}

func (staleTimer) Stop() bool { return false }

func (s *staleScheduler) AfterFunc(_ time.Duration, fn func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fns = append(s.fns, fn)
	return staleTimer{}
}

func (s *staleScheduler) fireAll() {
	s.mu.Lock()
	fns := append([]func(){}, s.fns...)
	s.fns = nil
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func TestDebounced_StaleTimerAfterBlurNeverPropagates(t *testing.T) {
	t.Parallel()

	sched := &staleScheduler{}
	rec := &recorder[int]{}
	f := newIntField(t, rec, WithTiming(TimingDebounced), WithScheduler(sched))

	f.Focus()
	f.Input("1")
	f.Input("2")
	f.Blur()
	sched.fireAll()

	if diff := cmp.Diff([]int{2}, rec.values); diff != "" {
		t.Fatalf("values (-want +got):\n%s", diff)
	}
}

func TestDebounced_SystemClockDoesNotLeak(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	done := make(chan int, 1)
	f := MustNew[int](convert.TagInt,
		WithTiming(TimingDebounced),
		WithDebounceInterval(5*time.Millisecond),
		OnValueChanged(func(v int) { done <- v }),
	)

	f.Focus()
	f.Input("9")
	select {
	case v := <-done:
		if v != 9 {
			t.Fatalf("value = %d", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("debounced propagation never arrived")
	}

	f.Input("10")
	f.Close()
}
