package chip8

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-chip8/chip8/debug"
	"github.com/valerio/go-chip8/chip8/video"
)

func kinds(events []Event) []EventKind {
	out := make([]EventKind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

func TestEventQueue_DropPolicy(t *testing.T) {
	tests := []struct {
		name        string
		capacity    int
		push        func(q *EventQueue)
		wantKinds   []EventKind
		wantDropped uint64
	}{
		{
			name:     "under capacity keeps everything",
			capacity: 4,
			push: func(q *EventQueue) {
				q.OnFrame(video.Frame{})
				q.OnRegisters(debug.Registers{})
				q.OnEndOfCycle()
			},
			wantKinds: []EventKind{EventFrame, EventRegisters, EventEndOfCycle},
		},
		{
			name:     "oldest non-log event is dropped",
			capacity: 3,
			push: func(q *EventQueue) {
				q.OnLog("boom")
				q.OnFrame(video.Frame{})
				q.OnRegisters(debug.Registers{})
				q.OnEndOfCycle()
			},
			wantKinds:   []EventKind{EventLog, EventRegisters, EventEndOfCycle},
			wantDropped: 1,
		},
		{
			name:     "logs are never dropped",
			capacity: 2,
			push: func(q *EventQueue) {
				q.OnLog("one")
				q.OnLog("two")
				q.OnLog("three")
			},
			wantKinds: []EventKind{EventLog, EventLog, EventLog},
		},
		{
			name:     "a log evicts the oldest frame",
			capacity: 2,
			push: func(q *EventQueue) {
				q.OnFrame(video.Frame{})
				q.OnEndOfCycle()
				q.OnLog("halted")
			},
			wantKinds:   []EventKind{EventEndOfCycle, EventLog},
			wantDropped: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewEventQueue(tt.capacity)
			tt.push(q)

			assert.Equal(t, len(tt.wantKinds), q.Len())
			assert.Equal(t, tt.wantDropped, q.Dropped())
			assert.Equal(t, tt.wantKinds, kinds(q.Drain()))
			assert.Equal(t, 0, q.Len())
			assert.Nil(t, q.Drain())
		})
	}
}

func TestEventQueue_EventsAreCopies(t *testing.T) {
	q := NewEventQueue(0)

	var frame video.Frame
	frame[1][2] = 1
	q.OnFrame(frame)
	frame[1][2] = 0

	q.OnLog("message")

	events := q.Drain()
	require.Len(t, events, 2)
	require.NotNil(t, events[0].Frame)
	assert.Equal(t, uint8(1), events[0].Frame.Pixel(2, 1))
	assert.Nil(t, events[0].Registers)
	assert.Equal(t, "message", events[1].Message)
}

func TestEventQueue_Next(t *testing.T) {
	q := NewEventQueue(8)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := q.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	go func() {
		time.Sleep(5 * time.Millisecond)
		q.OnLog("first")
		q.OnEndOfCycle()
	}()

	ctx2, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()

	e, err := q.Next(ctx2)
	require.NoError(t, err)
	assert.Equal(t, EventLog, e.Kind)
	assert.Equal(t, "first", e.Message)

	e, err = q.Next(ctx2)
	require.NoError(t, err)
	assert.Equal(t, EventEndOfCycle, e.Kind)
}

func TestEventQueue_ReadySignal(t *testing.T) {
	q := NewEventQueue(8)
	q.OnEndOfCycle()
	q.OnEndOfCycle()

	select {
	case <-q.Ready():
	default:
		t.Fatal("expected a ready signal")
	}
	assert.Equal(t, 2, q.Len())
}

func TestListenerFuncs_NilSafe(t *testing.T) {
	var l Listener = ListenerFuncs{}
	assert.NotPanics(t, func() {
		l.OnFrame(video.Frame{})
		l.OnRegisters(debug.Registers{})
		l.OnLog("ignored")
		l.OnEndOfCycle()
	})
}

func TestEventKind_String(t *testing.T) {
	assert.Equal(t, "log", EventLog.String())
	assert.Equal(t, "frame", EventFrame.String())
	assert.Equal(t, "registers", EventRegisters.String())
	assert.Equal(t, "end_of_cycle", EventEndOfCycle.String())
	assert.Equal(t, "unknown", EventKind(42).String())
}

func TestMachine_WithEventQueue(t *testing.T) {
	q := NewEventQueue(0)
	m := New(WithListener(q))
	m.LoadROM([]byte{0xFF, 0xFF})

	require.Error(t, m.Step())
	assert.Equal(t, []EventKind{EventLog, EventFrame, EventRegisters, EventEndOfCycle}, kinds(q.Drain()))
}
