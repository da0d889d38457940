// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package sinclair

// CalculateChecksum computes the 8-bit running sum (mod 256) of data.
// Frames checksum the range [2, len-1): the length byte through the last
// field byte.
func CalculateChecksum(data []byte) uint8 {
	var sum uint8
	for _, b := range data {
		sum += b
	}
	return sum
}

// checksumRange returns the bytes covered by the checksum of a frame
func checksumRange(frame []byte) []byte {
	return frame[2 : len(frame)-1]
}
