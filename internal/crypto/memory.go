package crypto

import "runtime"

// Overwrites slice contents with zeroes
func Memzero(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}
