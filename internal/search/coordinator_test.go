package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeScheduler records debounce callbacks so tests can drive the
// timer deterministically instead of sleeping.
type fakeScheduler struct {
	mu    sync.Mutex
	calls []*fakeCall
}

type fakeCall struct {
	delay    time.Duration
	fn       func()
	canceled bool
}

func (f *fakeScheduler) afterFunc(d time.Duration, fn func()) func() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := &fakeCall{delay: d, fn: fn}
	f.calls = append(f.calls, call)
	return func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		was := !call.canceled
		call.canceled = true
		return was
	}
}

// firePending runs every scheduled callback that was not canceled.
func (f *fakeScheduler) firePending() int {
	f.mu.Lock()
	var due []*fakeCall
	for _, call := range f.calls {
		if !call.canceled {
			call.canceled = true
			due = append(due, call)
		}
	}
	f.mu.Unlock()

	for _, call := range due {
		call.fn()
	}
	return len(due)
}

func TestDebounceCoalescesEdits(t *testing.T) {
	sched := &fakeScheduler{}
	var executed []string

	c, err := New(Config[string]{
		MinLength:          2,
		Debounce:           500 * time.Millisecond,
		ShortQueryAdvisory: "enter at least 2 characters",
		Search: func(ctx context.Context, q string) ([]string, error) {
			executed = append(executed, q)
			return []string{q + "-match"}, nil
		},
		AfterFunc: sched.afterFunc,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ctx := context.Background()
	c.SetQuery(ctx, "a")
	if snap := c.Snapshot(); snap.Status != StatusIdle || snap.Advisory != "enter at least 2 characters" {
		t.Fatalf("short query: status=%v advisory=%q", snap.Status, snap.Advisory)
	}

	c.SetQuery(ctx, "ab")
	c.SetQuery(ctx, "abc")

	if fired := sched.firePending(); fired != 1 {
		t.Fatalf("expected exactly one live debounce callback, fired %d", fired)
	}
	if len(executed) != 1 || executed[0] != "abc" {
		t.Fatalf("executed queries = %v, want exactly [abc]", executed)
	}

	snap := c.Snapshot()
	if snap.Status != StatusResolved {
		t.Fatalf("status = %v, want resolved", snap.Status)
	}
	if len(snap.Results) != 1 || snap.Results[0] != "abc-match" {
		t.Fatalf("results = %v", snap.Results)
	}
}

func TestStaleResponseDiscarded(t *testing.T) {
	sched := &fakeScheduler{}
	started := make(chan string, 2)
	release := map[string]chan []string{
		"111":  make(chan []string),
		"2222": make(chan []string),
	}

	c, err := New(Config[string]{
		MinLength: 3,
		Debounce:  300 * time.Millisecond,
		Search: func(ctx context.Context, q string) ([]string, error) {
			started <- q
			return <-release[q], nil
		},
		AfterFunc: sched.afterFunc,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()

	c.SetQuery(ctx, "111")
	go sched.firePending()
	<-started // generation 1 request is in flight

	c.SetQuery(ctx, "2222")
	go sched.firePending()
	<-started // generation 2 request is in flight

	release["2222"] <- []string{"fresh"}
	waitFor(t, func() bool { return c.Snapshot().Status == StatusResolved })

	// The superseded response arrives after generation 2 resolved and
	// must be dropped.
	release["111"] <- []string{"stale"}
	time.Sleep(20 * time.Millisecond)

	snap := c.Snapshot()
	if snap.Status != StatusResolved {
		t.Fatalf("status = %v", snap.Status)
	}
	if len(snap.Results) != 1 || snap.Results[0] != "fresh" {
		t.Fatalf("results = %v, want only the fresh response", snap.Results)
	}
}

func TestFocusFullListing(t *testing.T) {
	sched := &fakeScheduler{}
	listed := make(chan struct{}, 1)

	c, err := New(Config[string]{
		MinLength: 3,
		Debounce:  300 * time.Millisecond,
		Search: func(ctx context.Context, q string) ([]string, error) {
			t.Error("filtered search must not run in full-listing mode")
			return nil, nil
		},
		ListAll: func(ctx context.Context) ([]string, error) {
			listed <- struct{}{}
			return []string{"one", "two"}, nil
		},
		AfterFunc: sched.afterFunc,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	c.Focus(context.Background())
	<-listed
	waitFor(t, func() bool { return c.Snapshot().Status == StatusResolved })

	if snap := c.Snapshot(); len(snap.Results) != 2 {
		t.Fatalf("results = %v", snap.Results)
	}

	// Focus with a non-empty query is a no-op.
	c.SetQuery(context.Background(), "999")
	c.Focus(context.Background())
	if snap := c.Snapshot(); snap.Status != StatusPending {
		t.Fatalf("focus with a query should not disturb the pending state, got %v", snap.Status)
	}
}

func TestNotFoundAdvisoryGating(t *testing.T) {
	sched := &fakeScheduler{}
	c, err := New(Config[string]{
		MinLength:         3,
		Debounce:          300 * time.Millisecond,
		NotFoundAdvisory:  "no client with this phone number",
		NotFoundMinLength: 3,
		Search: func(ctx context.Context, q string) ([]string, error) {
			return nil, nil
		},
		AfterFunc: sched.afterFunc,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	c.SetQuery(context.Background(), "7900")
	sched.firePending()

	snap := c.Snapshot()
	if snap.Status != StatusResolved {
		t.Fatalf("status = %v", snap.Status)
	}
	if snap.Advisory != "no client with this phone number" {
		t.Fatalf("advisory = %q", snap.Advisory)
	}
}

func TestSearchFailureSetsAdvisory(t *testing.T) {
	sched := &fakeScheduler{}
	c, err := New(Config[string]{
		MinLength: 2,
		Debounce:  time.Millisecond,
		Search: func(ctx context.Context, q string) ([]string, error) {
			return nil, errors.New("boom")
		},
		AdvisoryFor: func(err error) string { return "search failed: " + err.Error() },
		AfterFunc:   sched.afterFunc,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	c.SetQuery(context.Background(), "ab")
	sched.firePending()

	snap := c.Snapshot()
	if snap.Status != StatusErrored {
		t.Fatalf("status = %v", snap.Status)
	}
	if snap.Advisory != "search failed: boom" {
		t.Fatalf("advisory = %q", snap.Advisory)
	}
	if len(snap.Results) != 0 {
		t.Fatalf("results must be cleared on failure")
	}
}

func TestSelectResetsSurface(t *testing.T) {
	sched := &fakeScheduler{}
	c, err := New(Config[string]{
		MinLength: 2,
		Debounce:  time.Millisecond,
		Search: func(ctx context.Context, q string) ([]string, error) {
			return []string{"first", "second"}, nil
		},
		AfterFunc: sched.afterFunc,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	c.SetQuery(context.Background(), "ab")
	sched.firePending()

	candidate, ok := c.Select(1)
	if !ok || candidate != "second" {
		t.Fatalf("Select = %q, %v", candidate, ok)
	}

	snap := c.Snapshot()
	if snap.Status != StatusIdle || len(snap.Results) != 0 || snap.Query != "" {
		t.Fatalf("surface not reset: %+v", snap)
	}

	if _, ok := c.Select(0); ok {
		t.Fatal("Select on an empty surface must fail")
	}
}

func TestFlushRunsImmediately(t *testing.T) {
	sched := &fakeScheduler{}
	executed := make(chan string, 1)
	c, err := New(Config[string]{
		MinLength: 2,
		Debounce:  time.Hour,
		Search: func(ctx context.Context, q string) ([]string, error) {
			executed <- q
			return nil, nil
		},
		AfterFunc: sched.afterFunc,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	c.SetQuery(context.Background(), "ab")
	c.Flush(context.Background())

	select {
	case q := <-executed:
		if q != "ab" {
			t.Fatalf("flushed query = %q", q)
		}
	case <-time.After(time.Second):
		t.Fatal("flush did not execute the query")
	}
}

func TestStatusStringAndTransitions(t *testing.T) {
	for _, tc := range []struct {
		status Status
		want   string
	}{
		{StatusIdle, "idle"},
		{StatusPending, "pending"},
		{StatusInFlight, "in-flight"},
		{StatusResolved, "resolved"},
		{StatusErrored, "errored"},
		{Status(9), "status(9)"},
	} {
		if got := tc.status.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}

	if ParseStatus("resolved") != StatusResolved || ParseStatus("junk") != StatusIdle {
		t.Error("ParseStatus mismatch")
	}
	if !CanTransition(StatusInFlight, StatusResolved) {
		t.Error("in-flight -> resolved should be valid")
	}
	if CanTransition(StatusResolved, StatusErrored) {
		t.Error("resolved -> errored should be invalid")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
