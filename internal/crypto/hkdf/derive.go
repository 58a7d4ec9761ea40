package hkdf

import (
	"crypto/sha512"
	"dblink/internal/crypto"
	"fmt"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// Minimum salt length accepted for passphrase based keys
	MinSaltLen int = 8

	// PBKDF2-HMAC-SHA512 work factor applied to passphrases
	StretchIterations int = 210000
)

// Derives the shared link key from a passphrase and salt.
// PBKDF2 stretches the passphrase, HKDF expands the result to keySize.
// Namespace separates keys used for different purposes from the same passphrase.
// Passphrase copy is zeroed after derivation, caller keeps ownership of the salt.
func DeriveKey(passphrase, salt []byte, namespace string, keySize int) (secureKey []byte, err error) {
	if len(passphrase) == 0 {
		err = fmt.Errorf("passphrase cannot be empty")
		return
	}
	if len(salt) < MinSaltLen {
		err = fmt.Errorf("salt must be at least %d bytes, got %d", MinSaltLen, len(salt))
		return
	}
	if keySize <= 0 {
		err = fmt.Errorf("invalid key size %d", keySize)
		return
	}

	secret := append([]byte(nil), passphrase...)
	defer crypto.Memzero(secret)

	// Passphrases are low entropy, stretch before expanding
	stretched := pbkdf2.Key(secret, salt, StretchIterations, sha512.Size, sha512.New)
	defer crypto.Memzero(stretched)

	deriver := hkdf.New(sha512.New, stretched, nil, []byte(namespace))
	secureKey = make([]byte, keySize)
	_, err = deriver.Read(secureKey)
	if err != nil {
		secureKey = nil
		err = fmt.Errorf("failed to populate key with secure bytes: %w", err)
		return
	}
	return
}

// Short non-secret identifier for a key so both ends can confirm they match in logs
func Fingerprint(key []byte) (fingerprint string) {
	sum := sha512.Sum512(key)
	fingerprint = fmt.Sprintf("%x", sum[:4])
	return
}
