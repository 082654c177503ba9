package telemetry

import (
	"math"
	"testing"
	"time"
)

func TestSmootherFirstSampleRaw(t *testing.T) {
	s := NewSmoother(DefaultAlpha)

	up, down := s.Apply(2048, 4096)
	if up != 2048 || down != 4096 {
		t.Errorf("first sample = (%v, %v), want raw (2048, 4096)", up, down)
	}

	// A repeated constant input is a steady state: smoothing a constant
	// must not change it.
	up, down = s.Apply(2048, 4096)
	if up != 2048 || down != 4096 {
		t.Errorf("steady state = (%v, %v), want (2048, 4096)", up, down)
	}
}

func TestSmootherConvergesWithoutOvershoot(t *testing.T) {
	s := NewSmoother(DefaultAlpha)
	s.Apply(0, 0)

	const target = 1000.0
	prevUp := 0.0
	for i := 0; i < 200; i++ {
		up, down := s.Apply(target, target)
		if up > target || down > target {
			t.Fatalf("iteration %d: smoothed (%v, %v) overshot target %v", i, up, down, target)
		}
		if up <= prevUp {
			t.Fatalf("iteration %d: smoothed series not strictly increasing (%v -> %v)", i, prevUp, up)
		}
		prevUp = up
	}
	if math.Abs(prevUp-target) > 1 {
		t.Errorf("after 200 samples smoothed = %v, want near %v", prevUp, target)
	}
}

func TestSmootherReset(t *testing.T) {
	s := NewSmoother(DefaultAlpha)
	s.Apply(100, 100)
	s.Apply(200, 200)
	s.Reset()

	up, down := s.Apply(50, 60)
	if up != 50 || down != 60 {
		t.Errorf("sample after reset = (%v, %v), want raw (50, 60)", up, down)
	}
}

func TestNewSmootherClampsAlpha(t *testing.T) {
	for _, alpha := range []float64{-1, 0, 1.5} {
		s := NewSmoother(alpha)
		if s.alpha != DefaultAlpha {
			t.Errorf("NewSmoother(%v).alpha = %v, want %v", alpha, s.alpha, DefaultAlpha)
		}
	}
}

func TestHistoryBounded(t *testing.T) {
	h := NewHistory[int](DefaultHistoryCap)

	for i := 0; i < 100; i++ {
		h.Push(i)
		if h.Len() > DefaultHistoryCap {
			t.Fatalf("after %d pushes Len() = %d, exceeds cap %d", i+1, h.Len(), DefaultHistoryCap)
		}
	}

	items := h.Items()
	if len(items) != DefaultHistoryCap {
		t.Fatalf("Items() length = %d, want %d", len(items), DefaultHistoryCap)
	}
	// Contents must be exactly the most recent 30 in arrival order.
	for i, v := range items {
		want := 100 - DefaultHistoryCap + i
		if v != want {
			t.Errorf("items[%d] = %d, want %d", i, v, want)
		}
	}
}

func TestHistoryPartialFill(t *testing.T) {
	h := NewHistory[string](5)
	h.Push("a")
	h.Push("b")

	items := h.Items()
	if len(items) != 2 || items[0] != "a" || items[1] != "b" {
		t.Errorf("Items() = %v, want [a b]", items)
	}
}

func TestHistoryClear(t *testing.T) {
	h := NewHistory[SpeedSample](3)
	for i := 0; i < 10; i++ {
		h.Push(SpeedSample{Time: time.Now(), Up: float64(i)})
	}
	h.Clear()

	if h.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", h.Len())
	}
	h.Push(SpeedSample{Up: 42})
	items := h.Items()
	if len(items) != 1 || items[0].Up != 42 {
		t.Errorf("Items() after Clear+Push = %v, want single sample with Up=42", items)
	}
}

func TestHistoryItemsIsCopy(t *testing.T) {
	h := NewHistory[int](3)
	h.Push(1)
	h.Push(2)

	items := h.Items()
	items[0] = 99

	if h.Items()[0] != 1 {
		t.Error("mutating Items() result leaked into the buffer")
	}
}
