// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unit

import (
	"io"
	"sync"
)

// ByteSource is the transport side the polling loop reads from
type ByteSource interface {
	// Available reports whether ReadByte would return without blocking
	Available() bool
	ReadByte() (byte, error)
}

// FrameSink accepts one complete frame per call
type FrameSink interface {
	WriteFrame(frame []byte) error
}

// StreamSource adapts a blocking io.Reader (serial port, WebSocket,
// simulator) into a ByteSource. A background goroutine reads into a buffer;
// it exits when the reader returns an error, which ReadByte then reports
// once the buffered bytes are drained.
type StreamSource struct {
	mu   sync.Mutex
	buf  []byte
	err  error
	done chan struct{}
}

const streamChunk = 256

// NewStreamSource starts reading from r
func NewStreamSource(r io.Reader) *StreamSource {
	s := &StreamSource{done: make(chan struct{})}
	go s.pump(r)
	return s
}

func (s *StreamSource) pump(r io.Reader) {
	defer close(s.done)
	chunk := make([]byte, streamChunk)
	for {
		n, err := r.Read(chunk)
		s.mu.Lock()
		if n > 0 {
			s.buf = append(s.buf, chunk[:n]...)
		}
		if err != nil {
			s.err = err
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
	}
}

// Available reports buffered bytes or a pending error
func (s *StreamSource) Available() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf) > 0 || s.err != nil
}

// ReadByte returns the next buffered byte. Once the buffer is drained the
// reader's terminal error is returned.
func (s *StreamSource) ReadByte() (byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.buf) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		return 0, io.ErrNoProgress
	}
	b := s.buf[0]
	s.buf = s.buf[1:]
	if len(s.buf) == 0 {
		s.buf = s.buf[:0:0]
	}
	return b, nil
}

// Done is closed when the reader goroutine exits
func (s *StreamSource) Done() <-chan struct{} {
	return s.done
}

// BytesSource is a ByteSource over an in-memory slice
type BytesSource struct {
	data []byte
}

// NewBytesSource creates a source that yields data then io.EOF
func NewBytesSource(data []byte) *BytesSource {
	return &BytesSource{data: data}
}

func (b *BytesSource) Available() bool {
	return true
}

func (b *BytesSource) ReadByte() (byte, error) {
	if len(b.data) == 0 {
		return 0, io.EOF
	}
	c := b.data[0]
	b.data = b.data[1:]
	return c, nil
}

// WriterSink adapts an io.Writer into a FrameSink. Writes are serialized so
// a frame is never interleaved with another.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink wraps w
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// WriteFrame writes the whole frame in one call
func (s *WriterSink) WriteFrame(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.w.Write(frame)
	if err != nil {
		return err
	}
	if n != len(frame) {
		return io.ErrShortWrite
	}
	return nil
}
