package match

import "sync"

// streamBacklog is how many undelivered messages a subscriber may hold.
const streamBacklog = 64

// Message is one server-sent event for a match: "game", "error" or "result".
type Message struct {
	Event string
	Data  string
}

// Broker relays the live events of running matches to stream subscribers.
// Publishing never waits for a subscriber. When a subscriber's backlog is
// full its oldest message is discarded, so the newest score and the final
// result always get through.
type Broker struct {
	mu       sync.Mutex
	subs     map[string]map[chan Message]struct{}
	finished map[string]struct{}
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{
		subs:     make(map[string]map[chan Message]struct{}),
		finished: make(map[string]struct{}),
	}
}

// Subscribe starts a stream of matchID's events. The returned func ends the
// stream and closes the channel; calling it again is a no-op. Subscribing to
// a finished match yields an already closed channel.
func (b *Broker) Subscribe(matchID string) (<-chan Message, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Message, streamBacklog)
	if _, done := b.finished[matchID]; done {
		close(ch)
		return ch, func() {}
	}

	set := b.subs[matchID]
	if set == nil {
		set = make(map[chan Message]struct{})
		b.subs[matchID] = set
	}
	set[ch] = struct{}{}

	return ch, func() { b.remove(matchID, ch) }
}

func (b *Broker) remove(matchID string, ch chan Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	set := b.subs[matchID]
	if _, ok := set[ch]; !ok {
		return
	}
	delete(set, ch)
	close(ch)
	if len(set) == 0 {
		delete(b.subs, matchID)
	}
}

// Publish delivers m to every current subscriber of matchID.
func (b *Broker) Publish(matchID string, m Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs[matchID] {
		select {
		case ch <- m:
			continue
		default:
		}
		// Backlog full: evict the oldest message. The reader may have
		// emptied a slot meanwhile, in which case nothing is evicted.
		select {
		case <-ch:
			streamMessagesDropped.Inc()
		default:
		}
		ch <- m
	}
}

// Close marks matchID finished and closes all of its streams.
func (b *Broker) Close(matchID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.finished[matchID] = struct{}{}
	for ch := range b.subs[matchID] {
		close(ch)
	}
	delete(b.subs, matchID)
}
