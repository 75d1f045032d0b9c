package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

var ErrCiphertextTooShort = errors.New("ciphertext too short")

// EmailVault encrypts admin emails at rest and produces the
// deterministic keyed hash they are looked up by.
type EmailVault struct {
	aead cipher.AEAD
	salt []byte
}

func NewEmailVault(encryptionKey, salt []byte) (*EmailVault, error) {
	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key, %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &EmailVault{aead: aead, salt: salt}, nil
}

// Hash derives a deterministic argon2id digest of the email keyed by
// the configured salt. Deterministic so the admins table can be
// queried by hash without ever storing the plaintext address.
func (v *EmailVault) Hash(email string) string {
	sum := argon2.IDKey([]byte(email), v.salt, 1, 64*1024, 2, 32)
	return base64.RawStdEncoding.EncodeToString(sum)
}

func (v *EmailVault) Encrypt(email string) (string, error) {
	nonce := make([]byte, v.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	sealed := v.aead.Seal(nonce, nonce, []byte(email), nil)
	return base64.RawStdEncoding.EncodeToString(sealed), nil
}

func (v *EmailVault) Decrypt(encoded string) (string, error) {
	sealed, err := base64.RawStdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}

	if len(sealed) < v.aead.NonceSize() {
		return "", ErrCiphertextTooShort
	}

	nonce, ciphertext := sealed[:v.aead.NonceSize()], sealed[v.aead.NonceSize():]

	plain, err := v.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}

	return string(plain), nil
}
