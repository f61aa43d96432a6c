// ABOUTME: Shared helpers for collector tests
// ABOUTME: Captures critical errors and verifies the heap drains between tests

package gc

import (
	"testing"
)

// expectCritical runs fn, which must fire the critical-error callback and
// panic with *CriticalError. Returns the callback message.
func expectCritical(t *testing.T, fn func()) (msg string) {
	t.Helper()
	fired := false
	SetCallbacks(nil, func(m string) {
		fired = true
		msg = m
	})
	defer SetCallbacks(nil, nil)
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatalf("Expected a critical error, but none was raised")
		}
		if _, ok := r.(*CriticalError); !ok {
			panic(r)
		}
		if !fired {
			t.Errorf("Critical error was raised without invoking the callback")
		}
	}()
	fn()
	return msg
}

// drainHeap collects and verifies that nothing is left alive
func drainHeap(t *testing.T) {
	t.Helper()
	Collect()
	if n := AliveAllocationCount(); n != 0 {
		t.Fatalf("Expected a drained heap, got %d allocations still alive", n)
	}
}
