package crypto

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Likith-Yadav/PayCoreX/internal/domain/model"
	domainRepo "github.com/Likith-Yadav/PayCoreX/internal/domain/repository"
	"github.com/google/uuid"
)

// ErrUnknownHandle is returned for a handle the vault never issued.
var ErrUnknownHandle = errors.New("unknown vault handle")

type EncryptionService interface {
	Encrypt(plaintext []byte) (ciphertext, iv []byte, err error)
	Decrypt(ciphertext, iv []byte) (plaintext []byte, err error)
}

type AESEncryptionService struct {
	gcm cipher.AEAD
}

func NewAESEncryptionService(hexKey string) (*AESEncryptionService, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, errors.New("invalid encryption key format")
	}
	if len(key) != 32 {
		return nil, errors.New("encryption key must be 32 bytes (64 hex chars)")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &AESEncryptionService{gcm: gcm}, nil
}

func (s *AESEncryptionService) Encrypt(plaintext []byte) ([]byte, []byte, error) {
	iv := make([]byte, s.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, nil, err
	}
	return s.gcm.Seal(nil, iv, plaintext, nil), iv, nil
}

func (s *AESEncryptionService) Decrypt(ciphertext, iv []byte) ([]byte, error) {
	if len(iv) != s.gcm.NonceSize() {
		return nil, errors.New("invalid nonce size")
	}
	return s.gcm.Open(nil, iv, ciphertext, nil)
}

// Vault keeps secrets encrypted at rest and hands out opaque handles.
type Vault struct {
	enc  EncryptionService
	repo domainRepo.VaultRepository
}

func NewVault(enc EncryptionService, repo domainRepo.VaultRepository) *Vault {
	return &Vault{enc: enc, repo: repo}
}

func (v *Vault) Store(ctx context.Context, secret string) (string, error) {
	ciphertext, iv, err := v.enc.Encrypt([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to encrypt secret: %w", err)
	}

	row := &model.VaultSecret{
		Handle:     uuid.New(),
		Ciphertext: ciphertext,
		IV:         iv,
		CreatedAt:  time.Now(),
	}
	if err := v.repo.Create(ctx, row); err != nil {
		return "", fmt.Errorf("failed to store secret: %w", err)
	}
	return row.Handle.String(), nil
}

func (v *Vault) Retrieve(ctx context.Context, handle string) (string, error) {
	id, err := uuid.Parse(handle)
	if err != nil {
		return "", ErrUnknownHandle
	}

	row, err := v.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domainRepo.ErrNotFound) {
			return "", ErrUnknownHandle
		}
		return "", fmt.Errorf("failed to load secret: %w", err)
	}

	plaintext, err := v.enc.Decrypt(row.Ciphertext, row.IV)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt secret: %w", err)
	}
	return string(plaintext), nil
}
