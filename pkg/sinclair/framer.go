// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package sinclair

// Framer implements the sync-scanning frame accumulator state machine.
//
// Bytes are fed one at a time. Once a frame is complete the Framer stops
// consuming input until the caller has taken the frame and called Restart.
// While scanning for sync at most the last two bytes are held, so line noise
// alone never overflows: after any amount of garbage the framer is awaiting
// sync with up to two buffered bytes, not an empty buffer. Only a frame whose
// declared length would take the buffer to DataMax is discarded as an
// overflow, which leaves the buffer empty.
type Framer struct {
	state     FramerState
	buffer    []byte
	frameSize int // bytes still expected while receiving
	overflows uint64
}

// NewFramer creates a new framer waiting for sync
func NewFramer() *Framer {
	return &Framer{
		state:  StateAwaitingSync,
		buffer: make([]byte, 0, DataMax),
	}
}

// State returns the current framer state
func (f *Framer) State() FramerState {
	return f.state
}

// Buffered returns the number of bytes currently held
func (f *Framer) Buffered() int {
	return len(f.buffer)
}

// Overflows returns how many partial frames were discarded because the
// buffer reached DataMax
func (f *Framer) Overflows() uint64 {
	return f.overflows
}

// Restart asks the framer to drop the current buffer before the next byte.
// Call it after consuming a complete frame or to abandon a partial one.
func (f *Framer) Restart() {
	f.state = StateRestart
}

// Reset clears the buffer and waits for sync immediately
func (f *Framer) Reset() {
	f.buffer = f.buffer[:0]
	f.frameSize = 0
	f.state = StateAwaitingSync
}

// Frame returns a copy of the completed frame, or nil if no frame is complete
func (f *Framer) Frame() Frame {
	if f.state != StateComplete {
		return nil
	}
	frame := make(Frame, len(f.buffer))
	copy(frame, f.buffer)
	return frame
}

// Feed processes a single byte through the state machine.
// Returns false if the byte was not consumed because a complete frame is
// waiting to be collected.
func (f *Framer) Feed(b byte) bool {
	if f.state == StateComplete {
		return false
	}
	if f.state == StateRestart {
		f.Reset()
	}

	f.buffer = append(f.buffer, b)
	if len(f.buffer) >= DataMax {
		f.overflows++
		f.Reset()
		return true
	}

	switch f.state {
	case StateAwaitingSync:
		n := len(f.buffer)
		if n >= HeaderSize && b != SyncByte &&
			f.buffer[n-2] == SyncByte && f.buffer[n-3] == SyncByte {
			f.buffer = append(f.buffer[:0], SyncByte, SyncByte, b)
			f.frameSize = int(b)
			f.state = StateReceiving
			if f.frameSize == 0 {
				f.state = StateComplete
			}
		} else if n >= HeaderSize {
			// only a sync prefix can matter while scanning
			f.buffer = append(f.buffer[:0], f.buffer[n-2:]...)
		}

	case StateReceiving:
		f.frameSize--
		if f.frameSize == 0 {
			f.state = StateComplete
		}
	}

	return true
}

// FeedBytes feeds bytes until the slice is exhausted or a frame completes.
// Returns the number of bytes consumed.
func (f *Framer) FeedBytes(p []byte) int {
	for i, b := range p {
		if !f.Feed(b) {
			return i
		}
		if f.state == StateComplete {
			return i + 1
		}
	}
	return len(p)
}
