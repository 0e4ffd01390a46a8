package resilience

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSingleFlight_Do(t *testing.T) {
	var f SingleFlight
	var calls atomic.Int32

	const workers = 20
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err, _ := f.Do("locations-page", func() (any, error) {
				calls.Add(1)
				time.Sleep(20 * time.Millisecond)
				return "ok", nil
			})
			if err != nil {
				t.Errorf("singleflight call failed: %v", err)
			}
			if got, _ := v.(string); got != "ok" {
				t.Errorf("unexpected value %v", v)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected function to run once, got %d", got)
	}
}

func TestSingleFlight_Do_SequentialCallsRunAgain(t *testing.T) {
	var f SingleFlight
	var calls atomic.Int32

	for i := 0; i < 3; i++ {
		if _, err, shared := f.Do("k", func() (any, error) {
			return calls.Add(1), nil
		}); err != nil || shared {
			t.Fatalf("call %d: err=%v shared=%t", i, err, shared)
		}
	}

	if got := calls.Load(); got != 3 {
		t.Fatalf("expected one run per sequential call, got %d", got)
	}
}
