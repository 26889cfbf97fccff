// Package session tracks who is signed in and the process-wide site theme.
package session

import (
	"sync"

	"car-showroom/internal/domain"
)

// AuthState is published on every sign-in and sign-out.
type AuthState struct {
	Signed bool
	User   *domain.User
}

type Listener func(AuthState)

// Observer fans auth state changes out to subscribers. Listeners run
// synchronously on the publishing goroutine, in subscription order.
type Observer struct {
	mu        sync.RWMutex
	next      int
	listeners map[int]Listener
	order     []int
}

func NewObserver() *Observer {
	return &Observer{listeners: make(map[int]Listener)}
}

// Subscribe registers l. The returned function releases the subscription and
// may be called more than once.
func (o *Observer) Subscribe(l Listener) (cancel func()) {
	o.mu.Lock()
	id := o.next
	o.next++
	o.listeners[id] = l
	o.order = append(o.order, id)
	o.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			delete(o.listeners, id)
			for i, v := range o.order {
				if v == id {
					o.order = append(o.order[:i], o.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (o *Observer) Publish(state AuthState) {
	if o == nil {
		return
	}
	o.mu.RLock()
	listeners := make([]Listener, 0, len(o.order))
	for _, id := range o.order {
		listeners = append(listeners, o.listeners[id])
	}
	o.mu.RUnlock()

	for _, l := range listeners {
		l(state)
	}
}

// Len reports the number of active subscriptions.
func (o *Observer) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.listeners)
}
