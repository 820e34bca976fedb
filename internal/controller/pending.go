package controller

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const platformCallTimeout = 5 * time.Second

// Op identifies a platform call
type Op int

const (
	OpSetBrightness Op = iota
	OpSetColor
	OpRequestOverride
	OpStopOverride
)

func (o Op) String() string {
	switch o {
	case OpSetBrightness:
		return "set_brightness"
	case OpSetColor:
		return "set_color"
	case OpRequestOverride:
		return "request_override"
	case OpStopOverride:
		return "stop_override"
	}
	return "unknown"
}

// coalesces reports whether a queued call may be replaced by a newer one
func (o Op) coalesces() bool {
	return o == OpSetBrightness || o == OpSetColor
}

// ResultMsg reports the outcome of a platform call
type ResultMsg struct {
	Op  Op
	Err error
	// Toggle generation the call was issued for
	Gen uint64
}

// pendingCall is a platform call waiting to be issued
type pendingCall struct {
	op  Op
	gen uint64
	run func(ctx context.Context) error
}

// callQueue issues platform calls one at a time, in order. A property push
// still waiting in the queue is replaced by a newer push of the same kind.
type callQueue struct {
	calls    []pendingCall
	inFlight bool
}

// push queues a call and returns the command to issue it, if nothing is in flight
func (q *callQueue) push(call pendingCall) tea.Cmd {
	if call.op.coalesces() {
		for i := range q.calls {
			if q.calls[i].op == call.op {
				q.calls[i] = call
				return q.next()
			}
		}
	}
	q.calls = append(q.calls, call)
	return q.next()
}

// done marks the in-flight call finished and returns the next command
func (q *callQueue) done() tea.Cmd {
	q.inFlight = false
	return q.next()
}

func (q *callQueue) next() tea.Cmd {
	if q.inFlight || len(q.calls) == 0 {
		return nil
	}
	call := q.calls[0]
	q.calls = q.calls[1:]
	q.inFlight = true

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), platformCallTimeout)
		defer cancel()
		return ResultMsg{Op: call.op, Gen: call.gen, Err: call.run(ctx)}
	}
}

// busy reports whether a call is in flight or queued
func (q *callQueue) busy() bool {
	return q.inFlight || len(q.calls) > 0
}
