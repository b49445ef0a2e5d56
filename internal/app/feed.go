package app

import "sync"

// Feed holds the latest value of T and fans every change out to subscribers.
type Feed[T any] struct {
	mu          sync.Mutex
	latest      T
	subscribers map[chan T]struct{}
}

func NewFeed[T any](initial T) *Feed[T] {
	return &Feed[T]{
		latest:      initial,
		subscribers: make(map[chan T]struct{}),
	}
}

// Latest returns the most recently published value.
func (f *Feed[T]) Latest() T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest
}

// Publish stores v and notifies subscribers. A full subscriber channel loses
// its oldest pending value so the newest one always gets through.
func (f *Feed[T]) Publish(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latest = v
	for ch := range f.subscribers {
		select {
		case ch <- v:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- v
		}
	}
}

// Subscribe returns a channel primed with the latest value.
// The caller must invoke the returned cancel function to avoid leaks.
func (f *Feed[T]) Subscribe() (<-chan T, func()) {
	ch := make(chan T, 8)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	ch <- f.latest
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Subscribers reports how many subscriptions are open.
func (f *Feed[T]) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers)
}
