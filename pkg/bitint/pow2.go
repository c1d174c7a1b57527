// SPDX-License-Identifier: MIT

/*
Package bitint provides the power-of-two helpers used to size transform
and ring buffers.

Every function is O(1), allocation-free and safe to call from the audio
callback.

Usage:

	// Validate a transform length before allocating workspaces.
	if !bitint.IsPowerOfTwo(fftLength) { ... }

	// Suggest the nearest valid buffer size.
	hint := bitint.NextPowerOfTwo(frames)

NextPowerOfTwo subtracts one before taking the bit length so that exact
powers of two map to themselves:

	size = 8  ->  size-1 = 7 (0111)  ->  bits.Len(7) = 3  ->  1<<3 = 8
	size = 9  ->  size-1 = 8 (1000)  ->  bits.Len(8) = 4  ->  1<<4 = 16
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of two >= size. Values <= 0
// return 1.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of two.
//
//	Input  Output  Binary
//	8      true    1000 & 0111 = 0000
//	7      false   0111 & 0110 = 0110
//	0      false   Not positive
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
