package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/Dan9191/bankcards/internal/apperror"
	"github.com/Dan9191/bankcards/internal/models"
)

const (
	gcmIVLength   = 12
	gcmTagLength  = 16
	cardKeyLength = 32
)

// CardEncryption encrypts card numbers with AES-256-GCM.
//
// The stored form is Base64(IV || ciphertext || tag) with a fresh 12-byte IV per
// call. The key is validated once at construction; after that a CardEncryption
// holds no mutable state and is safe for concurrent use.
type CardEncryption struct {
	aead   cipher.AEAD
	random io.Reader
}

// NewCardEncryption decodes a Base64 key that must be exactly 32 bytes long.
func NewCardEncryption(keyBase64 string) (*CardEncryption, error) {
	return newCardEncryption(keyBase64, rand.Reader)
}

func newCardEncryption(keyBase64 string, random io.Reader) (*CardEncryption, error) {
	if strings.TrimSpace(keyBase64) == "" {
		return nil, apperror.ErrInvalidKey.WithMessage("card encryption key is empty")
	}
	key, err := base64.StdEncoding.DecodeString(keyBase64)
	if err != nil {
		return nil, apperror.ErrInvalidKey.WithMessage("card encryption key is not valid Base64")
	}
	if len(key) != cardKeyLength {
		return nil, apperror.ErrInvalidKey.WithMessage("card encryption key must be %d bytes, got %d", cardKeyLength, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, apperror.ErrInvalidKey.WithCause(err)
	}
	aead, err := cipher.NewGCMWithTagSize(block, gcmTagLength)
	if err != nil {
		return nil, apperror.ErrInvalidKey.WithCause(err)
	}

	return &CardEncryption{aead: aead, random: random}, nil
}

// Encrypt returns the Base64 storage form of number.
func (e *CardEncryption) Encrypt(number models.CardNumber) (string, error) {
	if number.IsZero() {
		return "", apperror.ErrInvalidFormat.WithMessage("card number to encrypt is empty")
	}
	plaintext := []byte(number.Value())

	iv := make([]byte, gcmIVLength, gcmIVLength+len(plaintext)+e.aead.Overhead())
	if _, err := io.ReadFull(e.random, iv); err != nil {
		return "", apperror.ErrEncryptionFailed.WithCause(fmt.Errorf("failed to generate IV: %w", err))
	}

	sealed := e.aead.Seal(iv, iv, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. A tampered value fails authentication and returns
// ErrDecryptionFailed; malformed input returns ErrInvalidFormat.
func (e *CardEncryption) Decrypt(encrypted string) (models.CardNumber, error) {
	if strings.TrimSpace(encrypted) == "" {
		return models.CardNumber{}, apperror.ErrInvalidFormat.WithMessage("encrypted card number is empty")
	}
	data, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return models.CardNumber{}, apperror.ErrInvalidFormat.WithMessage("encrypted card number is not valid Base64")
	}
	if len(data) < gcmIVLength {
		return models.CardNumber{}, apperror.ErrInvalidFormat.WithMessage("encrypted card number is too short")
	}

	iv, ciphertext := data[:gcmIVLength], data[gcmIVLength:]
	plaintext, err := e.aead.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return models.CardNumber{}, apperror.ErrDecryptionFailed.WithCause(err)
	}

	number, err := models.NewCardNumber(string(plaintext))
	if err != nil {
		return models.CardNumber{}, apperror.ErrDecryptionFailed.WithCause(err)
	}
	return number, nil
}
