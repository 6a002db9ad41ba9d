package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/patchbay-io/patchbay/pkg/document"
	"github.com/patchbay-io/patchbay/pkg/ports"
)

const (
	encryptedVaultType  = "encrypted"
	encryptedPayloadKey = "__encrypted__"
)

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.ProjectStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that encrypts project
// documents with AES-GCM before they reach the underlying store. What
// the backend sees is an envelope document whose only node carries the
// ciphertext; the graph itself never touches disk or Redis in clear.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.ProjectStore) ports.ProjectStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

func (m *encryptionMiddleware) Save(ctx context.Context, projectID string, doc *document.GraphDocument) error {
	// 1. Serialize the real document
	plainText, err := document.Marshal(doc, document.FormatJSON)
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}

	// 2. Encrypt
	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt project: %w", err)
	}

	// 3. Seal into the envelope. The name stays visible for listings.
	envelope := sealEnvelope(doc.Name, encryptedVaultType, encryptedPayloadKey,
		base64.StdEncoding.EncodeToString(ciphertext))

	return m.next.Save(ctx, projectID, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, projectID string) (*document.GraphDocument, error) {
	// 1. Load the envelope
	envelope, err := m.next.Load(ctx, projectID)
	if err != nil {
		return nil, err
	}

	// 2. Extract ciphertext. With encryption configured we expect every
	// stored project to be an envelope; fail secure on anything else.
	encryptedStr, ok := openEnvelope(envelope, encryptedVaultType, encryptedPayloadKey)
	if !ok {
		return nil, errors.New("project is missing encrypted data envelope")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encryptedStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	// 3. Decrypt (try active, then fallbacks)
	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt project: %w", err)
	}

	// 4. Deserialize
	doc, err := document.Unmarshal(plainText, document.FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted project: %w", err)
	}
	return doc, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, projectID string) error {
	return m.next.Delete(ctx, projectID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	// Try active key first
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	// Try fallbacks in order
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	ciphertextBytes := ciphertext[gcm.NonceSize():]

	return gcm.Open(nil, nonce, ciphertextBytes, nil)
}
