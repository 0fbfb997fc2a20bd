package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log"
)

// AccountCipher encrypts payout account numbers before they are stored.
// A nil *AccountCipher passes values through unchanged.
type AccountCipher struct {
	gcm cipher.AEAD
}

// NewAccountCipher builds a cipher from a 32-byte key given as 64 hex characters.
// An empty key returns (nil, nil) and account numbers are stored in plain text.
func NewAccountCipher(keyHex string) (*AccountCipher, error) {
	if keyHex == "" {
		log.Println("NewAccountCipher: ACCOUNT_ENCRYPTION_KEY_HEX is not set, account numbers are stored unencrypted.")
		return nil, nil
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not hex: %w", err)
	}
	if len(key) != 32 { // AES-256 requires a 32-byte key.
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return &AccountCipher{gcm: gcm}, nil
}

// Encrypt returns the hex-encoded AES-256-GCM ciphertext of plain, nonce first.
func (c *AccountCipher) Encrypt(plain string) (string, error) {
	if c == nil || plain == "" {
		return plain, nil
	}
	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	return hex.EncodeToString(c.gcm.Seal(nonce, nonce, []byte(plain), nil)), nil
}

// Decrypt reverses Encrypt.
func (c *AccountCipher) Decrypt(cipherHex string) (string, error) {
	if c == nil || cipherHex == "" {
		return cipherHex, nil
	}
	raw, err := hex.DecodeString(cipherHex)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	if len(raw) < c.gcm.NonceSize() {
		return "", fmt.Errorf("ciphertext shorter than nonce")
	}
	nonce, body := raw[:c.gcm.NonceSize()], raw[c.gcm.NonceSize():]
	plain, err := c.gcm.Open(nil, nonce, body, nil)
	if err != nil {
		return "", fmt.Errorf("decrypt account number (wrong key or corrupted data): %w", err)
	}
	return string(plain), nil
}
