// ABOUTME: Tests for the warning and critical-error callback hooks
// ABOUTME: Validates defaults, installation and the CriticalError panic value

package gc

import (
	"strings"
	"testing"
)

func TestWarningCallbackReceivesMessage(t *testing.T) {
	var got string
	SetCallbacks(func(msg string) { got = msg }, nil)
	defer SetCallbacks(nil, nil)

	warn("something looks off")
	if got != "something looks off" {
		t.Errorf("Expected warning message to reach the callback, got %q", got)
	}
}

func TestWarningWithoutCallbackIsANoOp(t *testing.T) {
	SetCallbacks(nil, nil)
	warn("dropped on the floor") // must not panic
}

func TestCriticalErrorInvokesCallbackThenPanics(t *testing.T) {
	msg := expectCritical(t, func() {
		criticalError("cannot continue")
	})
	if msg != "cannot continue" {
		t.Errorf("Expected callback message %q, got %q", "cannot continue", msg)
	}
}

func TestCriticalErrorWithoutCallbackStillPanics(t *testing.T) {
	SetCallbacks(nil, nil)
	defer func() {
		r := recover()
		ce, ok := r.(*CriticalError)
		if !ok {
			t.Fatalf("Expected *CriticalError panic, got %v", r)
		}
		if !strings.Contains(ce.Error(), "gc: critical error") {
			t.Errorf("Expected error string to carry the gc prefix, got %q", ce.Error())
		}
	}()
	criticalError("unhosted failure")
}
