package aead

import (
	"bytes"
	"dblink/internal/crypto"
	"errors"
	"testing"
)

func TestSealOpenDetached(t *testing.T) {
	for _, suite := range []uint8{crypto.SuiteAES256GCM, crypto.SuiteChaCha20Poly1305} {
		cipher, err := crypto.NewAEAD(suite, bytes.Repeat([]byte{0x42}, crypto.KeySize))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		nonce := []byte("nonce1234567")
		header := []byte("header")
		plaintext := []byte("telemetry frame")

		tag := make([]byte, crypto.TagSize)
		ct := make([]byte, len(plaintext))
		if err = SealDetached(cipher, tag, ct, nonce, plaintext, header); err != nil {
			t.Fatalf("seal failed: %v", err)
		}
		if bytes.Equal(ct, plaintext) {
			t.Fatalf("ciphertext equals plaintext")
		}

		got, err := OpenDetached(cipher, nonce, tag, ct, header)
		if err != nil {
			t.Fatalf("open failed: %v", err)
		}
		if !bytes.Equal(got, plaintext) {
			t.Fatalf("expected %q, got %q", plaintext, got)
		}

		tests := []struct {
			name   string
			mutate func(n, tg, c, h []byte)
		}{
			{"header flip", func(n, tg, c, h []byte) { h[0] ^= 1 }},
			{"tag flip", func(n, tg, c, h []byte) { tg[3] ^= 1 }},
			{"ciphertext flip", func(n, tg, c, h []byte) { c[len(c)-1] ^= 1 }},
			{"nonce flip", func(n, tg, c, h []byte) { n[0] ^= 1 }},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				n := append([]byte(nil), nonce...)
				tg := append([]byte(nil), tag...)
				c := append([]byte(nil), ct...)
				h := append([]byte(nil), header...)
				tt.mutate(n, tg, c, h)

				out, err := OpenDetached(cipher, n, tg, c, h)
				if !errors.Is(err, ErrOpen) {
					t.Fatalf("expected ErrOpen, got %v", err)
				}
				if out != nil {
					t.Fatalf("expected no plaintext on failure")
				}
			})
		}
	}
}

func TestSealDetachedBadDestinations(t *testing.T) {
	cipher, err := crypto.NewAEAD(crypto.SuiteAES256GCM, bytes.Repeat([]byte{1}, crypto.KeySize))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	nonce := make([]byte, crypto.NonceSize)

	if err = SealDetached(cipher, make([]byte, 8), make([]byte, 4), nonce, []byte("abcd"), nil); err == nil {
		t.Fatalf("expected error for short tag destination")
	}
	if err = SealDetached(cipher, make([]byte, crypto.TagSize), make([]byte, 2), nonce, []byte("abcd"), nil); err == nil {
		t.Fatalf("expected error for short ciphertext destination")
	}
	if err = SealDetached(cipher, make([]byte, crypto.TagSize), make([]byte, 4), nonce[:4], []byte("abcd"), nil); err == nil {
		t.Fatalf("expected error for short nonce")
	}
}
