package ring

import "testing"

func TestNewRingRejectsNonPowerOfTwo(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for non-power-of-two capacity")
		}
	}()
	NewRing[int](100)
}

func TestSinglePushPop(t *testing.T) {
	r := NewRing[int](16)
	if !r.Empty() {
		t.Fatalf("expected empty ring")
	}
	if !r.TryEmplace(42) {
		t.Fatalf("expected push to succeed")
	}
	if r.Size() != 1 {
		t.Fatalf("expected size 1, got %d", r.Size())
	}
	var v int
	if !r.TryPop(&v) {
		t.Fatalf("expected pop to succeed")
	}
	if v != 42 {
		t.Fatalf("expected 42, got %d", v)
	}
	if !r.Empty() {
		t.Fatalf("expected empty ring after pop")
	}
}

func TestCapacityLimits(t *testing.T) {
	r := NewRing[int](4)

	if !r.TryEmplace(1) || !r.TryEmplace(2) || !r.TryEmplace(3) {
		t.Fatalf("expected first three pushes to succeed")
	}
	if r.TryEmplace(4) {
		t.Fatalf("expected fourth push to fail, usable capacity is Capacity-1")
	}

	var v int
	if !r.TryPop(&v) || v != 1 {
		t.Fatalf("expected to pop 1 first, got %d", v)
	}
	if !r.TryEmplace(4) {
		t.Fatalf("expected push to succeed after a pop freed a slot")
	}
}

func TestTryPopOnEmptyReturnsFalse(t *testing.T) {
	r := NewRing[int](4)
	var v int
	if r.TryPop(&v) {
		t.Fatalf("expected pop on empty ring to fail")
	}
}

func TestSPSCFIFOUnderLoad(t *testing.T) {
	const n = 10000
	r := NewRing[int](1024)

	done := make(chan struct{})
	go func() {
		defer close(done)
		next := 0
		for next < n {
			var v int
			if r.TryPop(&v) {
				if v != next {
					t.Errorf("out of order: expected %d, got %d", next, v)
					return
				}
				next++
			}
		}
	}()

	for i := 0; i < n; i++ {
		for !r.TryEmplace(i) {
		}
	}
	<-done

	if !r.Empty() {
		t.Fatalf("expected ring empty at end, size=%d", r.Size())
	}
}
