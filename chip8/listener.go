package chip8

import (
	"context"
	"sync"

	"github.com/valerio/go-chip8/chip8/debug"
	"github.com/valerio/go-chip8/chip8/video"
)

// Listener receives the notifications of every cycle, in this order:
// OnLog (only when the cycle hit a fatal condition), OnFrame, OnRegisters, OnEndOfCycle.
// Arguments are copies owned by the listener. Calls are made from the goroutine running
// the cycle, never concurrently.
type Listener interface {
	OnFrame(frame video.Frame)
	OnRegisters(regs debug.Registers)
	OnLog(message string)
	OnEndOfCycle()
}

// ListenerFuncs adapts plain functions to a Listener, nil functions are skipped.
type ListenerFuncs struct {
	Frame      func(frame video.Frame)
	Registers  func(regs debug.Registers)
	Log        func(message string)
	EndOfCycle func()
}

var _ Listener = ListenerFuncs{}

func (f ListenerFuncs) OnFrame(frame video.Frame) {
	if f.Frame != nil {
		f.Frame(frame)
	}
}

func (f ListenerFuncs) OnRegisters(regs debug.Registers) {
	if f.Registers != nil {
		f.Registers(regs)
	}
}

func (f ListenerFuncs) OnLog(message string) {
	if f.Log != nil {
		f.Log(message)
	}
}

func (f ListenerFuncs) OnEndOfCycle() {
	if f.EndOfCycle != nil {
		f.EndOfCycle()
	}
}

// EventKind tags an Event.
type EventKind int

const (
	EventLog EventKind = iota
	EventFrame
	EventRegisters
	EventEndOfCycle
)

func (k EventKind) String() string {
	switch k {
	case EventLog:
		return "log"
	case EventFrame:
		return "frame"
	case EventRegisters:
		return "registers"
	case EventEndOfCycle:
		return "end_of_cycle"
	default:
		return "unknown"
	}
}

// Event is a single notification, only the field matching Kind is set.
type Event struct {
	Kind      EventKind
	Frame     *video.Frame
	Registers *debug.Registers
	Message   string
}

// DefaultQueueCapacity holds a few cycles worth of events.
const DefaultQueueCapacity = 256

// EventQueue is a Listener that buffers notifications for a consumer on another goroutine.
// When full, the oldest non-log event is dropped to make room, log events are never dropped.
type EventQueue struct {
	mu       sync.Mutex
	events   []Event
	capacity int
	dropped  uint64
	ready    chan struct{}
}

var _ Listener = (*EventQueue)(nil)

func NewEventQueue(capacity int) *EventQueue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &EventQueue{
		events:   make([]Event, 0, capacity),
		capacity: capacity,
		ready:    make(chan struct{}, 1),
	}
}

func (q *EventQueue) OnFrame(frame video.Frame) {
	q.push(Event{Kind: EventFrame, Frame: &frame})
}

func (q *EventQueue) OnRegisters(regs debug.Registers) {
	q.push(Event{Kind: EventRegisters, Registers: &regs})
}

func (q *EventQueue) OnLog(message string) {
	q.push(Event{Kind: EventLog, Message: message})
}

func (q *EventQueue) OnEndOfCycle() {
	q.push(Event{Kind: EventEndOfCycle})
}

func (q *EventQueue) push(e Event) {
	q.mu.Lock()
	if len(q.events) >= q.capacity {
		q.dropOldestLocked()
	}
	q.events = append(q.events, e)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// dropOldestLocked removes the oldest event that is not a log. When only logs are
// queued nothing is removed and the queue grows past its capacity.
func (q *EventQueue) dropOldestLocked() {
	for i, e := range q.events {
		if e.Kind == EventLog {
			continue
		}
		copy(q.events[i:], q.events[i+1:])
		q.events = q.events[:len(q.events)-1]
		q.dropped++
		return
	}
}

// Ready is signalled after events are queued.
func (q *EventQueue) Ready() <-chan struct{} {
	return q.ready
}

// Drain returns and removes all queued events, oldest first.
func (q *EventQueue) Drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return nil
	}
	events := q.events
	q.events = make([]Event, 0, q.capacity)
	return events
}

// Next blocks until an event is available or ctx is done.
func (q *EventQueue) Next(ctx context.Context) (Event, error) {
	for {
		q.mu.Lock()
		if len(q.events) > 0 {
			e := q.events[0]
			q.events = q.events[1:]
			q.mu.Unlock()
			return e, nil
		}
		q.mu.Unlock()

		select {
		case <-q.ready:
		case <-ctx.Done():
			return Event{}, ctx.Err()
		}
	}
}

// Len returns the amount of queued events.
func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Dropped returns how many events were discarded because the queue was full.
func (q *EventQueue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
