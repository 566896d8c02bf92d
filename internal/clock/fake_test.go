package clock

import (
	"sync"
	"testing"
	"time"
)

func TestFakeClockAdvance(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clk := NewFakeClock(start)

	if got := clk.Now(); !got.Equal(start) {
		t.Fatalf("expected %v, got %v", start, got)
	}

	clk.Advance(36 * time.Hour)
	if got := clk.Now(); !got.Equal(start.Add(36 * time.Hour)) {
		t.Fatalf("expected %v, got %v", start.Add(36*time.Hour), got)
	}
}

func TestFakeClockConcurrentAccess(t *testing.T) {
	clk := NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			clk.Advance(time.Minute)
		}()
		go func() {
			defer wg.Done()
			_ = clk.Now()
		}()
	}
	wg.Wait()

	want := time.Date(2026, 3, 1, 12, 8, 0, 0, time.UTC)
	if got := clk.Now(); !got.Equal(want) {
		t.Fatalf("expected %v after 8 advances, got %v", want, got)
	}
}
