// Package observable provides a push-based value container. Every output the
// coordinator exposes is a Value with the same subscription contract: a new
// subscriber receives the current value first, then every later update in
// the order it was set.
package observable

import "sync"

// Value holds the latest value of type T and fans updates out to subscribers.
// The zero value is not usable; create one with New.
type Value[T any] struct {
	mu     sync.RWMutex
	v      T
	nextID uint64
	subs   map[uint64]*Subscription[T]
}

// New creates a Value holding initial.
func New[T any](initial T) *Value[T] {
	return &Value[T]{
		v:    initial,
		subs: make(map[uint64]*Subscription[T]),
	}
}

// Get returns the latest value.
func (o *Value[T]) Get() T {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.v
}

// Set stores v and queues it for every subscriber. It never blocks on a
// slow subscriber.
func (o *Value[T]) Set(v T) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.v = v
	for _, s := range o.subs {
		s.push(v)
	}
}

// Update applies fn to the latest value and stores the result atomically.
func (o *Value[T]) Update(fn func(T) T) T {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.v = fn(o.v)
	for _, s := range o.subs {
		s.push(o.v)
	}
	return o.v
}

// Subscribe registers a new subscriber. The current value is delivered
// first. Call Close on the subscription to stop delivery.
func (o *Value[T]) Subscribe() *Subscription[T] {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := o.nextID
	o.nextID++

	s := &Subscription[T]{
		out:    make(chan T),
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	s.detach = func() {
		o.mu.Lock()
		delete(o.subs, id)
		o.mu.Unlock()
	}
	o.subs[id] = s
	s.push(o.v)

	go s.pump()
	return s
}

// Subscribers returns the number of active subscriptions.
func (o *Value[T]) Subscribers() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.subs)
}

// Subscription delivers values of a Value in order over C.
type Subscription[T any] struct {
	mu     sync.Mutex
	queue  []T
	notify chan struct{}
	out    chan T
	done   chan struct{}
	once   sync.Once
	detach func()
}

// C returns the delivery channel. It is closed after Close.
func (s *Subscription[T]) C() <-chan T {
	return s.out
}

// Close stops delivery and releases the subscription. Safe to call twice.
func (s *Subscription[T]) Close() {
	s.once.Do(func() {
		s.detach()
		close(s.done)
	})
}

func (s *Subscription[T]) push(v T) {
	s.mu.Lock()
	s.queue = append(s.queue, v)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// pump moves queued values to out until the subscription is closed.
func (s *Subscription[T]) pump() {
	defer close(s.out)

	for {
		select {
		case <-s.done:
			return
		case <-s.notify:
		}

		for {
			s.mu.Lock()
			if len(s.queue) == 0 {
				s.mu.Unlock()
				break
			}
			v := s.queue[0]
			var zero T
			s.queue[0] = zero
			s.queue = s.queue[1:]
			s.mu.Unlock()

			select {
			case s.out <- v:
			case <-s.done:
				return
			}
		}
	}
}
