// AEAD helpers for wire layouts that carry the tag separately from the ciphertext
package aead

import (
	"crypto/cipher"
	"errors"
	"fmt"
)

var ErrOpen = errors.New("message authentication failed")

// Encrypts plaintext and writes tag and ciphertext into the provided destinations.
// tagDst must be exactly Overhead() long and ctDst at least len(plaintext).
func SealDetached(aead cipher.AEAD, tagDst, ctDst, nonce, plaintext, additional []byte) (err error) {
	if len(nonce) != aead.NonceSize() {
		err = fmt.Errorf("invalid nonce length %d", len(nonce))
		return
	}
	if len(tagDst) != aead.Overhead() {
		err = fmt.Errorf("invalid tag destination length %d", len(tagDst))
		return
	}
	if len(ctDst) < len(plaintext) {
		err = fmt.Errorf("ciphertext destination too small: %d < %d", len(ctDst), len(plaintext))
		return
	}

	// Seal output is ciphertext followed by tag
	sealed := aead.Seal(nil, nonce, plaintext, additional)
	copy(ctDst, sealed[:len(plaintext)])
	copy(tagDst, sealed[len(plaintext):])
	return
}

// Verifies tag and decrypts ciphertext. Nothing is returned unless authentication passes.
func OpenDetached(aead cipher.AEAD, nonce, tag, ciphertext, additional []byte) (plaintext []byte, err error) {
	if len(nonce) != aead.NonceSize() || len(tag) != aead.Overhead() {
		err = ErrOpen
		return
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err = aead.Open(sealed[:0], nonce, sealed, additional)
	if err != nil {
		plaintext = nil
		err = ErrOpen
		return
	}
	return
}
