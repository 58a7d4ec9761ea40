package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
)

type SuiteInfo struct {
	Name           string
	KeySize        int
	NonceSize      int
	CipherOverhead int
	construct      func(key []byte) (cipher.AEAD, error)
}

// Suite identifiers as written in the configuration
const (
	SuiteAES256GCM        uint8 = 1
	SuiteChaCha20Poly1305 uint8 = 2
	DefaultSuite          uint8 = SuiteAES256GCM
)

// All suites share the on-air nonce and tag sizes
const (
	NonceSize int = 12
	TagSize   int = 16
	KeySize   int = 32
)

var cryptoSuiteMu sync.Mutex
var cryptoSuiteMap = map[uint8]SuiteInfo{
	SuiteAES256GCM: {
		Name:           "aes-256-gcm",
		KeySize:        KeySize,
		NonceSize:      NonceSize,
		CipherOverhead: TagSize,
		construct:      newAESGCM,
	},
	SuiteChaCha20Poly1305: {
		Name:           "chacha20poly1305",
		KeySize:        chacha20poly1305.KeySize,
		NonceSize:      chacha20poly1305.NonceSize,
		CipherOverhead: chacha20poly1305.Overhead,
		construct:      chacha20poly1305.New,
	},
}

// Query crypto suite (concurrent safe)
func GetSuiteInfo(id uint8) (info SuiteInfo, validID bool) {
	cryptoSuiteMu.Lock()
	defer cryptoSuiteMu.Unlock()
	info, validID = cryptoSuiteMap[id]
	return
}

// Resolve suite by its configuration name
func SuiteByName(name string) (id uint8, err error) {
	cryptoSuiteMu.Lock()
	defer cryptoSuiteMu.Unlock()
	for suiteID, info := range cryptoSuiteMap {
		if info.Name == name {
			id = suiteID
			return
		}
	}
	err = fmt.Errorf("unknown crypto suite %q", name)
	return
}

// Creates the AEAD cipher for the suite. Key is not retained by the caller's slice.
func NewAEAD(id uint8, key []byte) (aead cipher.AEAD, err error) {
	info, valid := GetSuiteInfo(id)
	if !valid {
		err = fmt.Errorf("unknown crypto suite id %d", id)
		return
	}
	if len(key) != info.KeySize {
		err = fmt.Errorf("invalid key length for %s: expected %d bytes, got %d", info.Name, info.KeySize, len(key))
		return
	}

	aead, err = info.construct(key)
	if err != nil {
		err = fmt.Errorf("failed creation of %s AEAD: %w", info.Name, err)
		return
	}
	if aead.NonceSize() != NonceSize || aead.Overhead() != TagSize {
		err = fmt.Errorf("suite %s does not match link nonce/tag sizes", info.Name)
		aead = nil
		return
	}
	return
}

func newAESGCM(key []byte) (aead cipher.AEAD, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return
	}
	aead, err = cipher.NewGCM(block)
	return
}
