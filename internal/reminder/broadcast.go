package reminder

import (
	"sync"

	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/config"
)

// Signal is delivered to subscribers when a reminder collection changed.
type Signal struct {
	Name       string
	SourceType string
}

// Broadcaster fans a signal out to every subscriber.
// Delivery never blocks: a subscriber that has not drained its previous signal
// keeps the pending one, so bursts coalesce into a single refresh.
type Broadcaster struct {
	mu   sync.Mutex
	next int
	subs map[int]chan Signal
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan Signal)}
}

// Subscribe registers a listener. Call the returned func to unsubscribe.
func (b *Broadcaster) Subscribe() (<-chan Signal, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan Signal, config.ChannelBufferSize)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Publish is a no-op on a nil Broadcaster.
func (b *Broadcaster) Publish(sourceType string) {
	if b == nil {
		return
	}
	sig := Signal{Name: config.SignalRemindersSynced, SourceType: sourceType}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- sig:
		default:
		}
	}
}
