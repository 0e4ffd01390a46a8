package resilience

import "sync"

// SingleFlight collapses concurrent calls for the same key into one
// execution; everyone waiting on the key gets the leader's result. The
// zero value is ready to use.
type SingleFlight struct {
	mu       sync.Mutex
	inflight map[string]*flightCall
}

type flightCall struct {
	done chan struct{}
	val  any
	err  error
}

// Do runs fn once per key among concurrent callers. The third return
// value reports whether the result was shared from another caller.
func (f *SingleFlight) Do(key string, fn func() (any, error)) (any, error, bool) {
	f.mu.Lock()
	if f.inflight == nil {
		f.inflight = make(map[string]*flightCall)
	}
	if c, ok := f.inflight[key]; ok {
		f.mu.Unlock()
		<-c.done
		return c.val, c.err, true
	}

	c := &flightCall{done: make(chan struct{})}
	f.inflight[key] = c
	f.mu.Unlock()

	c.val, c.err = fn()
	close(c.done)

	f.mu.Lock()
	delete(f.inflight, key)
	f.mu.Unlock()

	return c.val, c.err, false
}
