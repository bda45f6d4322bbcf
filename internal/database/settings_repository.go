package database

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PabloB07/kick-wp/internal/credentials"
)

// SettingsRepo implements credentials.Store backed by the settings table.
// Token-valued entries are AES-GCM encrypted at rest when an encryption key
// is configured; everything else is stored as-is.
type SettingsRepo struct {
	pool *pgxpool.Pool
	gcm  cipher.AEAD
}

// NewSettingsRepo creates a SettingsRepo. encryptionKeyHex may be empty, in
// which case secrets are stored in plaintext.
func NewSettingsRepo(pool *pgxpool.Pool, encryptionKeyHex string) (*SettingsRepo, error) {
	repo := &SettingsRepo{pool: pool}

	if encryptionKeyHex != "" {
		key, err := hex.DecodeString(encryptionKeyHex)
		if err != nil {
			return nil, fmt.Errorf("failed to decode encryption key: %w", err)
		}
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, fmt.Errorf("failed to create cipher: %w", err)
		}
		gcm, err := cipher.NewGCM(block)
		if err != nil {
			return nil, fmt.Errorf("failed to create GCM: %w", err)
		}
		repo.gcm = gcm
	}

	return repo, nil
}

func (r *SettingsRepo) Get(ctx context.Context, name string) (string, error) {
	var value string
	err := r.pool.QueryRow(ctx, `SELECT value FROM settings WHERE name = $1`, name).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %q: %w", name, err)
	}

	if credentials.SecretKeys[name] {
		return r.decrypt(value)
	}
	return value, nil
}

func (r *SettingsRepo) Set(ctx context.Context, name, value string) error {
	if credentials.SecretKeys[name] {
		var err error
		value, err = r.encrypt(value)
		if err != nil {
			return err
		}
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO settings (name, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = NOW()
	`, name, value)
	if err != nil {
		return fmt.Errorf("failed to write setting %q: %w", name, err)
	}
	return nil
}

func (r *SettingsRepo) Delete(ctx context.Context, name string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM settings WHERE name = $1`, name); err != nil {
		return fmt.Errorf("failed to delete setting %q: %w", name, err)
	}
	return nil
}

func (r *SettingsRepo) encrypt(plaintext string) (string, error) {
	if r.gcm == nil {
		return plaintext, nil
	}

	nonce := make([]byte, r.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := r.gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(ciphertext), nil
}

func (r *SettingsRepo) decrypt(encoded string) (string, error) {
	if r.gcm == nil {
		return encoded, nil
	}

	ciphertext, err := hex.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode hex: %w", err)
	}

	nonceSize := r.gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := r.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}

	return string(plaintext), nil
}
