package app

import (
	"sync"

	"duet-quiz-service/internal/domain"
)

// ResultFeed fans out result events to in-process subscribers. Shared-mode
// creators subscribe to watch responder results arrive instead of polling.
type ResultFeed struct {
	mu   sync.Mutex
	subs map[string]map[chan domain.Result]struct{}
}

func NewResultFeed() *ResultFeed {
	return &ResultFeed{subs: make(map[string]map[chan domain.Result]struct{})}
}

// Subscribe returns a channel of result events for one instance. The caller
// must invoke the returned cancel function to avoid leaks.
func (f *ResultFeed) Subscribe(instanceID string) (<-chan domain.Result, func()) {
	ch := make(chan domain.Result, 8)

	f.mu.Lock()
	if f.subs[instanceID] == nil {
		f.subs[instanceID] = make(map[chan domain.Result]struct{})
	}
	f.subs[instanceID][ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if set, ok := f.subs[instanceID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(f.subs, instanceID)
			}
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers a result to every subscriber of the instance. Slow
// subscribers lose the oldest pending event rather than blocking the
// publisher.
func (f *ResultFeed) Publish(instanceID string, result domain.Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs[instanceID] {
		select {
		case ch <- result:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- result
		}
	}
}
