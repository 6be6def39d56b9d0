package mode

import (
	"sync"
	"testing"
)

func TestController_SetNotifiesOnChangeOnly(t *testing.T) {
	c := NewController(false)

	var got []bool
	c.Subscribe(func(v bool) { got = append(got, v) })

	if changed := c.Set(false); changed {
		t.Error("expected no change when setting the current value")
	}
	if changed := c.Set(true); !changed {
		t.Error("expected change when switching to mock")
	}
	if !c.UsesMockData() {
		t.Error("expected UsesMockData to be true")
	}
	if len(got) != 1 || !got[0] {
		t.Fatalf("expected one notification with true, got %v", got)
	}
}

func TestController_Toggle(t *testing.T) {
	c := NewController(true)
	if next := c.Toggle(); next {
		t.Error("expected toggle from mock to live")
	}
	if next := c.Toggle(); !next {
		t.Error("expected toggle from live to mock")
	}
}

func TestController_Unsubscribe(t *testing.T) {
	c := NewController(false)
	calls := 0
	unsubscribe := c.Subscribe(func(bool) { calls++ })
	c.Toggle()
	unsubscribe()
	c.Toggle()
	if calls != 1 {
		t.Errorf("expected 1 call after unsubscribe, got %d", calls)
	}
}

func TestController_ConcurrentAccess(t *testing.T) {
	c := NewController(false)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Toggle()
		}()
		go func() {
			defer wg.Done()
			_ = c.UsesMockData()
		}()
	}
	wg.Wait()
	// 50 toggles from false lands back on false.
	if c.UsesMockData() {
		t.Error("expected an even number of toggles to restore live mode")
	}
}

func TestSourceOf(t *testing.T) {
	if SourceOf(Static(true)) != SourceMock {
		t.Error("expected mock source")
	}
	if SourceOf(Static(false)) != SourceLive {
		t.Error("expected live source")
	}
}
