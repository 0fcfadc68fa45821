package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fernet/fernet-go"
)

var ErrDecrypt = errors.New("failed to decrypt message content")

// Encryptor seals message content at rest with AES-256-GCM. Content written
// under older fernet keys stays readable.
type Encryptor struct {
	aead   cipher.AEAD
	legacy []*fernet.Key
}

// NewEncryptor derives the AES key from secret with SHA-256, so any length works.
// The secret itself and every legacy key that decodes as a fernet key are
// accepted when decrypting.
func NewEncryptor(secret []byte, legacyKeys []string) (*Encryptor, error) {
	if len(secret) == 0 {
		return nil, errors.New("encryption key must not be empty")
	}
	sum := sha256.Sum256(secret)
	block, err := aes.NewCipher(sum[:])
	if err != nil {
		return nil, fmt.Errorf("aes cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w", err)
	}

	e := &Encryptor{aead: aead}
	for _, raw := range append([]string{string(secret)}, legacyKeys...) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if k, err := fernet.DecodeKey(raw); err == nil {
			e.legacy = append(e.legacy, k)
		}
	}
	return e, nil
}

func (e *Encryptor) Encrypt(plain string) (string, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	sealed := e.aead.Seal(nonce, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (e *Encryptor) Decrypt(enc string) (string, error) {
	if raw, err := base64.StdEncoding.DecodeString(enc); err == nil && len(raw) >= e.aead.NonceSize() {
		n := e.aead.NonceSize()
		if plain, err := e.aead.Open(nil, raw[:n], raw[n:], nil); err == nil {
			return string(plain), nil
		}
	}
	if len(e.legacy) > 0 {
		// ttl 0 disables the fernet age check
		if plain := fernet.VerifyAndDecrypt([]byte(enc), 0, e.legacy); plain != nil {
			return string(plain), nil
		}
	}
	return "", ErrDecrypt
}
