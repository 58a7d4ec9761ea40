package random

import (
	"crypto/rand"
	"fmt"
)

// Returns size bytes of cryptographically secure random data
func Bytes(size int) (buf []byte, err error) {
	if size <= 0 {
		err = fmt.Errorf("invalid random buffer size %d", size)
		return
	}
	buf = make([]byte, size)
	err = Fill(buf)
	if err != nil {
		buf = nil
	}
	return
}

// Fills the given slice with secure random data (used for per-packet IVs)
func Fill(buf []byte) (err error) {
	_, err = rand.Read(buf)
	if err != nil {
		err = fmt.Errorf("failed to populate slice with pseudo random data: %w", err)
		return
	}
	return
}

// Reports insecure key material: empty, all zero, or all identical bytes
func IsWeak(slice []byte) bool {
	return isAllIdentical(slice) || isAllZero(slice)
}

// Checks if all bytes in the array are the same
func isAllIdentical(slice []byte) bool {
	if len(slice) == 0 {
		return true
	}
	first := slice[0]
	for _, b := range slice[1:] {
		if b != first {
			return false
		}
	}
	return true
}

// Checks if the byte array is filled with zeroes
func isAllZero(slice []byte) bool {
	for _, b := range slice {
		if b != 0 {
			return false
		}
	}
	return true
}
