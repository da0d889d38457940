// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package sinclair

// Frame is one complete protocol message: sync, length, payload, checksum.
//
// The accessors never panic; on a frame too short to hold the requested
// field they return zero values.
type Frame []byte

// DeclaredLength returns the length byte (bytes following it, checksum included)
func (f Frame) DeclaredLength() uint8 {
	if len(f) < HeaderSize {
		return 0
	}
	return f[2]
}

// Command returns the command byte (payload byte 0)
func (f Frame) Command() uint8 {
	if len(f) <= HeaderSize {
		return 0
	}
	return f[HeaderSize]
}

// Payload returns the bytes between the length byte and the checksum
func (f Frame) Payload() []byte {
	if len(f) <= HeaderSize+1 {
		return nil
	}
	return f[HeaderSize : len(f)-1]
}

// Checksum returns the trailing checksum byte as transmitted
func (f Frame) Checksum() uint8 {
	if len(f) == 0 {
		return 0
	}
	return f[len(f)-1]
}

// HasSync reports whether the frame starts with the two sync bytes
func (f Frame) HasSync() bool {
	return len(f) >= 2 && f[0] == SyncByte && f[1] == SyncByte
}

// Complete reports whether the frame length matches its declared length
func (f Frame) Complete() bool {
	return len(f) >= HeaderSize && len(f) == HeaderSize+int(f.DeclaredLength())
}

// ChecksumValid reports whether the trailing checksum matches the content
func (f Frame) ChecksumValid() bool {
	if len(f) <= HeaderSize {
		return false
	}
	return CalculateChecksum(checksumRange(f)) == f.Checksum()
}
