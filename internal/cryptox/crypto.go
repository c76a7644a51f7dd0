// Package cryptox seals backups with a passphrase before they leave the
// machine: argon2id derives an AES-256 key from the passphrase and a random
// salt, and AES-GCM encrypts the payload.
package cryptox

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	envelopeKind = "formdoc-sealed"
	saltSize     = 16
	keySize      = 32
)

var (
	ErrNoPassphrase  = errors.New("passphrase is empty")
	ErrNotSealed     = errors.New("data is not a sealed backup")
	ErrWrongPassword = errors.New("wrong passphrase or corrupted data")
)

// Envelope is the on-disk form of sealed data.
type Envelope struct {
	Kind    string `json:"kind"`
	Version int    `json:"version"`
	KDF     string `json:"kdf"`
	Salt    []byte `json:"salt"`
	Nonce   []byte `json:"nonce"`
	Data    []byte `json:"data"`
}

// DeriveKey stretches passphrase with salt.
func DeriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, 1, 64*1024, 4, keySize)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Seal encrypts plaintext and returns a JSON envelope.
func Seal(passphrase string, plaintext []byte) ([]byte, error) {
	if passphrase == "" {
		return nil, ErrNoPassphrase
	}
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	aead, err := newGCM(DeriveKey([]byte(passphrase), salt))
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	return json.Marshal(Envelope{
		Kind:    envelopeKind,
		Version: 1,
		KDF:     "argon2id",
		Salt:    salt,
		Nonce:   nonce,
		Data:    aead.Seal(nil, nonce, plaintext, []byte(envelopeKind)),
	})
}

// IsSealed reports whether data looks like a Seal envelope.
func IsSealed(data []byte) bool {
	if !bytes.Contains(data, []byte(envelopeKind)) {
		return false
	}
	var env Envelope
	return json.Unmarshal(data, &env) == nil && env.Kind == envelopeKind
}

// Open reverses Seal.
func Open(passphrase string, data []byte) ([]byte, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Kind != envelopeKind {
		return nil, ErrNotSealed
	}
	if env.Version != 1 {
		return nil, fmt.Errorf("sealed backup version %d is not supported", env.Version)
	}
	if passphrase == "" {
		return nil, ErrNoPassphrase
	}
	aead, err := newGCM(DeriveKey([]byte(passphrase), env.Salt))
	if err != nil {
		return nil, err
	}
	if len(env.Nonce) != aead.NonceSize() {
		return nil, ErrWrongPassword
	}
	plain, err := aead.Open(nil, env.Nonce, env.Data, []byte(envelopeKind))
	if err != nil {
		return nil, ErrWrongPassword
	}
	return plain, nil
}
