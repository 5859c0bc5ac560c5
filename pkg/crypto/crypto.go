package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

const (
	ivLength      = 12
	authTagLength = 16
)

// EncryptionResult carries the three parts of an AES-GCM output. They are
// stored in separate columns and never concatenated.
type EncryptionResult struct {
	Ciphertext []byte
	IV         []byte
	AuthTag    []byte
}

// Cipher encrypts card data with AES-256-GCM under a process-wide key.
// One fresh random IV per call.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher builds the cipher from a base64-encoded key. The key is mandatory;
// startup must not proceed without it.
func NewCipher(keyBase64 string) (*Cipher, error) {
	if keyBase64 == "" {
		return nil, errors.New("encryption key must be provided")
	}

	key, err := base64.StdEncoding.DecodeString(keyBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encryption key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Cipher{aead: aead}, nil
}

func (c *Cipher) Encrypt(plaintext string) (*EncryptionResult, error) {
	iv := make([]byte, ivLength)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("failed to generate iv: %w", err)
	}

	sealed := c.aead.Seal(nil, iv, []byte(plaintext), nil)

	// Seal appends the 16-byte tag to the ciphertext; split them apart.
	ctLen := len(sealed) - authTagLength
	return &EncryptionResult{
		Ciphertext: sealed[:ctLen],
		IV:         iv,
		AuthTag:    sealed[ctLen:],
	}, nil
}
