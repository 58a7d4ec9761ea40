package config

import (
	"bytes"
	"dblink/internal/crypto"
	"dblink/internal/crypto/hkdf"
	"dblink/internal/crypto/random"
	"dblink/internal/network"
	"dblink/pkg/protocol"
	"encoding/hex"
	"fmt"
	"os"
)

// Produces the link key: key file, configured passphrase, or the prompt (in that order).
// Passphrase copies held by cfg are zeroed.
func (cfg *Config) LoadKey(prompt func() ([]byte, error)) (key []byte, err error) {
	info, _ := crypto.GetSuiteInfo(cfg.Suite)

	if cfg.KeyFile != "" {
		key, err = ReadKeyFile(cfg.KeyFile, info.KeySize)
		return
	}

	passphrase := cfg.Passphrase
	cfg.Passphrase = nil
	if len(passphrase) == 0 {
		if prompt == nil {
			err = fmt.Errorf("no key source configured (crypto.key_file or crypto.passphrase)")
			return
		}
		passphrase, err = prompt()
		if err != nil {
			err = fmt.Errorf("failed to read passphrase: %w", err)
			return
		}
	}
	defer crypto.Memzero(passphrase)

	if len(cfg.Salt) == 0 {
		err = fmt.Errorf("crypto.salt is required with a passphrase")
		return
	}
	key, err = hkdf.DeriveKey(passphrase, cfg.Salt, KeyNamespace, info.KeySize)
	return
}

// Reads a key stored raw or as hex text
func ReadKeyFile(path string, keySize int) (key []byte, err error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("failed to read key file: %w", err)
		return
	}
	defer crypto.Memzero(contents)

	if len(contents) == keySize {
		key = bytes.Clone(contents)
	} else {
		text := bytes.TrimSpace(contents)
		if len(text) != hex.EncodedLen(keySize) {
			err = fmt.Errorf("key file '%s' must hold %d raw bytes or %d hex characters", path, keySize, hex.EncodedLen(keySize))
			return
		}
		key = make([]byte, keySize)
		_, err = hex.Decode(key, text)
		if err != nil {
			crypto.Memzero(key)
			key = nil
			err = fmt.Errorf("key file '%s' is not valid hex: %w", path, err)
			return
		}
	}

	if random.IsWeak(key) {
		crypto.Memzero(key)
		key = nil
		err = fmt.Errorf("key file '%s' holds a weak key", path)
		return
	}
	return
}

// Radio address: configured, taken from the interface, or generated (locally administered unicast)
func (cfg *Config) ResolveMAC() (mac protocol.MAC, err error) {
	if cfg.RadioMAC != (protocol.MAC{}) {
		mac = cfg.RadioMAC
		return
	}

	if cfg.RadioInterface != "" {
		hw, lookupErr := network.InterfaceMAC(cfg.RadioInterface)
		if lookupErr != nil {
			err = lookupErr
			return
		}
		copy(mac[:], hw)
		cfg.RadioMAC = mac
		return
	}

	generated, err := random.Bytes(protocol.MACLen)
	if err != nil {
		return
	}
	copy(mac[:], generated)
	mac[0] = (mac[0] | 0x02) &^ 0x01
	cfg.RadioMAC = mac
	return
}
