// Package debounce delays propagation of text input until typing pauses.
package debounce

import (
	"sync"
	"time"
)

// DefaultDelay is used when New receives a non-positive delay.
const DefaultDelay = 300 * time.Millisecond

// Input mirrors a controlled text value. Typed changes reach onChange only
// after delay has passed without further input; a newer keystroke replaces
// any pending one.
type Input struct {
	mu       sync.Mutex
	delay    time.Duration
	onChange func(string)
	value    string
	timer    *time.Timer
	gen      uint64 // identifies the pending timer; bumped on every cancel
	closed   bool
	running  sync.WaitGroup
}

// New creates an Input that reports settled values to onChange.
func New(delay time.Duration, onChange func(string)) *Input {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Input{delay: delay, onChange: onChange}
}

// Type records a keystroke: the local value changes now, onChange fires
// after the delay unless another keystroke arrives first.
func (in *Input) Type(value string) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.closed {
		return
	}
	in.value = value
	in.stopLocked()

	gen := in.gen
	in.timer = time.AfterFunc(in.delay, func() { in.fire(gen) })
}

// Sync resynchronizes the local value with an externally controlled value.
// A pending change is dropped and onChange is not called.
func (in *Input) Sync(value string) {
	in.mu.Lock()
	defer in.mu.Unlock()

	in.value = value
	in.stopLocked()
}

// Value returns the current local value.
func (in *Input) Value() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.value
}

// Pending reports whether a change is waiting for the delay to elapse.
func (in *Input) Pending() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.timer != nil
}

// Close cancels any pending change and waits for a callback that already
// started. onChange is never running after Close returns, so it must not
// call Close itself.
func (in *Input) Close() {
	in.mu.Lock()
	in.closed = true
	in.stopLocked()
	in.mu.Unlock()

	in.running.Wait()
}

func (in *Input) stopLocked() {
	if in.timer != nil {
		in.timer.Stop()
		in.timer = nil
	}
	// A timer that already fired may be blocked on mu; the generation bump
	// makes it a no-op.
	in.gen++
}

func (in *Input) fire(gen uint64) {
	in.mu.Lock()
	if in.closed || gen != in.gen {
		in.mu.Unlock()
		return
	}
	in.timer = nil
	in.gen++
	value := in.value
	onChange := in.onChange
	in.running.Add(1)
	in.mu.Unlock()
	defer in.running.Done()

	if onChange != nil {
		onChange(value)
	}
}
