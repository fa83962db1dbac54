// Package events implements the run's append-only event log.
// Each appended event is dispatched once to every listener, single pass:
// listeners observe but cannot append back into the log.
package events

import "github.com/nathoo/questsim/types"

// Listener observes events as they are recorded.
type Listener func(types.Event)

// Log is an append-only, sequence-numbered event log.
type Log struct {
	events    []types.Event
	listeners []Listener
	busy      bool
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{events: []types.Event{}}
}

// Subscribe registers a listener for subsequently appended events.
func (l *Log) Subscribe(fn Listener) {
	l.listeners = append(l.listeners, fn)
}

// Append records events in order, assigning sequence numbers, then
// dispatches them. Appends made from inside a listener are dropped.
func (l *Log) Append(evs ...types.Event) {
	if l.busy {
		return
	}
	start := len(l.events)
	for _, e := range evs {
		e.Seq = len(l.events) + 1
		l.events = append(l.events, e)
	}
	l.busy = true
	defer func() { l.busy = false }()
	for _, e := range l.events[start:] {
		for _, fn := range l.listeners {
			fn(e)
		}
	}
}

// Emit is shorthand for appending a single event.
func (l *Log) Emit(typ, sceneID, msg string, data map[string]any) {
	l.Append(types.Event{Type: typ, SceneID: sceneID, Message: msg, Data: data})
}

// Len returns the number of recorded events.
func (l *Log) Len() int { return len(l.events) }

// Events returns a copy of the log.
func (l *Log) Events() []types.Event {
	return append([]types.Event{}, l.events...)
}

// Count returns how many events of the given type were recorded.
func (l *Log) Count(typ string) int {
	n := 0
	for _, e := range l.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}
