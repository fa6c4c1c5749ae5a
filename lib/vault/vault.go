// Package vault encrypts stored monitoring-site secrets at rest.
//
// The key is derived once from process configuration and treated as
// immutable for the process lifetime. Decryption hands plaintext to the
// caller and keeps nothing; callers are expected to discard it as soon
// as the import that needed it finishes.
package vault

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

// ErrDecrypt means the ciphertext is malformed or was written under a
// different key (rotation without re-encryption). It must never be
// reported as a wrong-password login failure.
var ErrDecrypt = errors.New("vault: cannot decrypt secret")

const keySalt = "creditwatch.vault.v1"

type Vault struct {
	aead cipher.AEAD
}

func New(passphrase string) (*Vault, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("vault: empty passphrase")
	}
	key, err := scrypt.Key([]byte(passphrase), []byte(keySalt), 1<<15, 8, 1, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("vault: derive key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("vault: init cipher: %w", err)
	}
	return &Vault{aead: aead}, nil
}

func (v *Vault) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, v.aead.NonceSize())
	_, err := rand.Read(nonce)
	if err != nil {
		return "", err
	}
	sealed := v.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (v *Vault) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", ErrDecrypt
	}
	if len(raw) < v.aead.NonceSize() {
		return "", ErrDecrypt
	}
	nonce, sealed := raw[:v.aead.NonceSize()], raw[v.aead.NonceSize():]
	plaintext, err := v.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plaintext), nil
}
