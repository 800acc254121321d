package authkit

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"

	"github.com/goliatone/go-errors"
)

// MinSecretLength is the minimum cookie secret length. Shorter secrets are
// rejected at construction time rather than silently weakening the seal.
const MinSecretLength = 32

// Sealer encrypts SessionRecords into opaque cookie values using AES-GCM and
// signs the ciphertext with HMAC-SHA256. The seal layer carries no TTL of its
// own: expiry lives in the record's ExpiresAt, so re-sealing the same logical
// session never invents a new implicit lifetime.
type Sealer struct {
	encryptionKey []byte
	hmacKey       []byte
}

// NewSealer derives the encryption and signing keys from the cookie secret.
func NewSealer(secret string) (*Sealer, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakCookieSecret
	}

	encKey := sha256.Sum256([]byte("authkit.seal.enc:" + secret))
	macKey := sha256.Sum256([]byte("authkit.seal.mac:" + secret))

	return &Sealer{
		encryptionKey: encKey[:],
		hmacKey:       macKey[:],
	}, nil
}

// Seal encrypts and signs a session record.
func (s *Sealer) Seal(record *SessionRecord) (string, error) {
	if record == nil {
		return "", errors.New("cannot seal nil session record", errors.CategoryBadInput)
	}

	plaintext, err := json.Marshal(record)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to marshal session record")
	}

	block, err := aes.NewCipher(s.encryptionKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to create cipher")
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to create GCM")
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to generate nonce")
	}

	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)

	mac := hmac.New(sha256.New, s.hmacKey)
	mac.Write(ciphertext)
	signature := mac.Sum(nil)

	return base64.URLEncoding.EncodeToString(append(signature, ciphertext...)), nil
}

// Unseal verifies and decrypts a sealed cookie value. Any malformed,
// truncated, or wrong-key input yields ErrSessionDecode; it never surfaces a
// partial or differently decoded record. Callers treat the failure exactly
// like an absent cookie.
func (s *Sealer) Unseal(sealed string) (*SessionRecord, error) {
	data, err := base64.URLEncoding.DecodeString(sealed)
	if err != nil {
		return nil, ErrSessionDecode
	}

	if len(data) < sha256.Size {
		return nil, ErrSessionDecode
	}

	signature := data[:sha256.Size]
	ciphertext := data[sha256.Size:]

	mac := hmac.New(sha256.New, s.hmacKey)
	mac.Write(ciphertext)
	if !hmac.Equal(signature, mac.Sum(nil)) {
		return nil, ErrSessionDecode
	}

	block, err := aes.NewCipher(s.encryptionKey)
	if err != nil {
		return nil, ErrSessionDecode
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ErrSessionDecode
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, ErrSessionDecode
	}

	nonce := ciphertext[:gcm.NonceSize()]
	plaintext, err := gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
	if err != nil {
		return nil, ErrSessionDecode
	}

	record := &SessionRecord{}
	if err := json.Unmarshal(plaintext, record); err != nil {
		return nil, ErrSessionDecode
	}

	return record, nil
}
