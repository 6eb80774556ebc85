package bus

import "sync"

// Group owns a set of subscriptions so a component can remove everything it
// installed without touching handlers registered by anyone else.
type Group struct {
	mu   sync.Mutex
	subs []*Subscription
}

// Add tracks sub. Nil subscriptions are ignored.
func (g *Group) Add(sub *Subscription) *Subscription {
	if sub == nil {
		return nil
	}
	g.mu.Lock()
	g.subs = append(g.subs, sub)
	g.mu.Unlock()
	return sub
}

// Len returns the number of tracked subscriptions.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.subs)
}

// Close unsubscribes every tracked subscription and empties the group.
func (g *Group) Close() {
	g.mu.Lock()
	subs := g.subs
	g.subs = nil
	g.mu.Unlock()

	for _, sub := range subs {
		sub.emitter.Off(sub)
	}
}
