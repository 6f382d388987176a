package ratelimit

import (
	"testing"
	"time"
)

func TestAllow(t *testing.T) {
	l := NewLimiter(2, time.Minute)
	defer l.Stop()

	if !l.Allow("u1") || !l.Allow("u1") {
		t.Fatal("first two requests should pass")
	}
	if l.Allow("u1") {
		t.Fatal("third request should be limited")
	}
	if !l.Allow("u2") {
		t.Fatal("other keys are independent")
	}
	if !l.Allow("") {
		t.Fatal("empty key is never limited")
	}
}

func TestAllowStrictWindow(t *testing.T) {
	l := NewLimiter(100, time.Minute)
	defer l.Stop()

	if !l.AllowStrict("1.2.3.4", 1, 20*time.Millisecond) {
		t.Fatal("first strict request should pass")
	}
	if l.AllowStrict("1.2.3.4", 1, 20*time.Millisecond) {
		t.Fatal("second strict request should be limited")
	}
	time.Sleep(30 * time.Millisecond)
	if !l.AllowStrict("1.2.3.4", 1, 20*time.Millisecond) {
		t.Fatal("window should have slid")
	}
	// strict buckets don't consume the regular limit
	if !l.Allow("1.2.3.4") {
		t.Fatal("regular limit affected by strict bucket")
	}
}
