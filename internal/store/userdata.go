// ABOUTME: Encrypted per-session key/value storage for user data.
// ABOUTME: Values are sealed with nacl/secretbox keyed by SHA-256 of the master key.

package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var errDecrypt = errors.New("decryption failed")

// PutUserData encrypts and stores value under userID, replacing any previous
// value. userID is the session token owning the data.
func (s *SQLiteStore) PutUserData(ctx context.Context, userID string, value []byte) error {
	sealed, err := s.seal(value)
	if err != nil {
		return fmt.Errorf("encrypting user data: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`REPLACE INTO userdata (user_id, value) VALUES (?, ?)`, userID, sealed)
	if err != nil {
		return fmt.Errorf("storing user data: %w", err)
	}

	s.logger.Debug("stored user data", "user_id", userID)
	return nil
}

// GetUserData returns the decrypted value for userID, or ErrNotFound.
func (s *SQLiteStore) GetUserData(ctx context.Context, userID string) ([]byte, error) {
	var sealed []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM userdata WHERE user_id = ?`, userID).Scan(&sealed)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user data: %w", err)
	}

	value, err := s.open(sealed)
	if err != nil {
		return nil, fmt.Errorf("decrypting user data: %w", err)
	}
	return value, nil
}

// DeleteUserData removes the value for userID. Deleting absent data is not an
// error; the operation is idempotent.
func (s *SQLiteStore) DeleteUserData(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM userdata WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("deleting user data: %w", err)
	}
	return nil
}

// seal encrypts value with a random nonce prepended to the ciphertext.
func (s *SQLiteStore) seal(value []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, err
	}
	return secretbox.Seal(nonce[:], value, &nonce, &s.key), nil
}

func (s *SQLiteStore) open(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize {
		return nil, errDecrypt
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])

	value, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &s.key)
	if !ok {
		return nil, errDecrypt
	}
	return value, nil
}
