package events

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/smartcontractkit/automation-registry/pkg/types"
)

const defaultSubscriptionDepth = 100

// Log is an append-only, ordered record of registry events. Appends never
// block on subscribers; each subscription is fed by its own pump goroutine
// that reads from the log at its own pace.
type Log struct {
	mu            sync.RWMutex
	events        []types.Event
	subscriptions map[uuid.UUID]*subscription
	closed        bool
}

type subscription struct {
	cursor int
	chOut  chan types.Event
	notify chan struct{}

	// chDone is closed on Unsubscribe and drops pending events. chFlush is
	// closed on Close and delivers pending events first.
	chDone  chan struct{}
	chFlush chan struct{}
}

func NewLog() *Log {
	return &Log{
		subscriptions: make(map[uuid.UUID]*subscription),
	}
}

// Emit appends events in the order provided, assigning each a sequence number
// and a unique id.
func (l *Log) Emit(evts ...types.Event) {
	if len(evts) == 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, evt := range evts {
		evt.Seq = uint64(len(l.events)) + 1
		evt.ID = uuid.NewString()

		l.events = append(l.events, evt)
	}

	for _, sub := range l.subscriptions {
		select {
		case sub.notify <- struct{}{}:
		default:
		}
	}
}

// Events returns a copy of every event in emission order.
func (l *Log) Events() []types.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]types.Event, len(l.events))
	copy(out, l.events)

	return out
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.events)
}

// Subscribe returns a channel receiving every event emitted after the call.
// The channel is closed on Unsubscribe or Close.
func (l *Log) Subscribe() (uuid.UUID, <-chan types.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := uuid.New()
	sub := &subscription{
		cursor:  len(l.events),
		chOut:   make(chan types.Event, defaultSubscriptionDepth),
		notify:  make(chan struct{}, 1),
		chDone:  make(chan struct{}),
		chFlush: make(chan struct{}),
	}

	if l.closed {
		close(sub.chOut)
		return id, sub.chOut
	}

	l.subscriptions[id] = sub

	go l.pump(sub)

	return id, sub.chOut
}

func (l *Log) Unsubscribe(id uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	sub, ok := l.subscriptions[id]
	if !ok {
		return fmt.Errorf("subscription %s not found", id)
	}

	close(sub.chDone)
	delete(l.subscriptions, id)

	return nil
}

// Close ends every subscription once it has delivered the events emitted
// before Close. Emit keeps recording after Close.
func (l *Log) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for id, sub := range l.subscriptions {
		close(sub.chFlush)
		delete(l.subscriptions, id)
	}

	l.closed = true
}

func (l *Log) since(cursor int) []types.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if cursor >= len(l.events) {
		return nil
	}

	out := make([]types.Event, len(l.events)-cursor)
	copy(out, l.events[cursor:])

	return out
}

func (l *Log) pump(sub *subscription) {
	defer close(sub.chOut)

	for {
		for _, evt := range l.since(sub.cursor) {
			select {
			case sub.chOut <- evt:
				sub.cursor++
			case <-sub.chDone:
				return
			}
		}

		select {
		case <-sub.notify:
		case <-sub.chDone:
			return
		case <-sub.chFlush:
			if len(l.since(sub.cursor)) == 0 {
				return
			}
		}
	}
}
