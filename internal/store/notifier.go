package store

import (
	"sort"
	"sync"
)

// notifier fans change events out to per-collection handlers. Delivery is
// synchronous in registration order; handlers that need to do work should
// hand off to their own goroutine.
type notifier struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]Handler
}

func newNotifier() *notifier {
	return &notifier{
		subs: make(map[string]map[int]Handler),
	}
}

func (n *notifier) Subscribe(collection string, h Handler) Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.subs[collection] == nil {
		n.subs[collection] = make(map[int]Handler)
	}

	n.nextID++
	id := n.nextID
	n.subs[collection][id] = h

	return &subscription{notifier: n, collection: collection, id: id}
}

func (n *notifier) publish(ev Event) {
	n.mu.RLock()
	ids := make([]int, 0, len(n.subs[ev.Collection]))
	for id := range n.subs[ev.Collection] {
		ids = append(ids, id)
	}
	// Subscription ids are issued monotonically, so sorting restores
	// registration order.
	sort.Ints(ids)
	handlers := make([]Handler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, n.subs[ev.Collection][id])
	}
	n.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}

type subscription struct {
	notifier   *notifier
	collection string
	id         int
	once       sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.notifier.mu.Lock()
		defer s.notifier.mu.Unlock()
		delete(s.notifier.subs[s.collection], s.id)
	})
}
