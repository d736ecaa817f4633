package api

import (
	"sync"
)

type SSEEvent struct {
	Type string
	Data map[string]any
}

// Broker fans events out to subscribers of a region topic.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan SSEEvent]struct{} // region -> set of channels
}

func NewBroker() *Broker {
	return &Broker{subs: map[string]map[chan SSEEvent]struct{}{}}
}

func (b *Broker) Subscribe(region string) chan SSEEvent {
	ch := make(chan SSEEvent, 8)
	b.mu.Lock()
	if b.subs[region] == nil {
		b.subs[region] = map[chan SSEEvent]struct{}{}
	}
	b.subs[region][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(region string, ch chan SSEEvent) {
	b.mu.Lock()
	if m := b.subs[region]; m != nil {
		delete(m, ch)
		if len(m) == 0 {
			delete(b.subs, region)
		}
	}
	b.mu.Unlock()
	close(ch)
}

func (b *Broker) Publish(region string, evt SSEEvent) {
	b.mu.Lock()
	m := b.subs[region]
	for ch := range m {
		select {
		case ch <- evt:
		default:
		}
	}
	b.mu.Unlock()
}
