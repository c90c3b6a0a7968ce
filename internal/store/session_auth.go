package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"time"

	"github.com/excelcollege/psychometric/internal/model"
)

// AuthSessionTTL is how long a teacher login stays valid.
const AuthSessionTTL = 24 * time.Hour

// CreateAuthSession creates a new session token for an authenticated teacher.
func (s *Store) CreateAuthSession(username string) (string, error) {
	return s.createAuthSessionAt(username, time.Now())
}

func (s *Store) createAuthSessionAt(username string, now time.Time) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	_, err = s.db.Exec(
		`INSERT INTO auth_sessions (id, username, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		token, username, now, now.Add(AuthSessionTTL),
	)
	if err != nil {
		return "", err
	}
	return token, nil
}

// GetAuthSession returns the session for the given token, or nil if not found/expired.
func (s *Store) GetAuthSession(token string) (*model.TeacherSession, error) {
	var sess model.TeacherSession
	err := s.db.QueryRow(
		`SELECT id, username, created_at, expires_at FROM auth_sessions WHERE id = ?`, token,
	).Scan(&sess.ID, &sess.Username, &sess.CreatedAt, &sess.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if time.Now().After(sess.ExpiresAt) {
		_ = s.DeleteAuthSession(token)
		return nil, nil
	}
	return &sess, nil
}

// DeleteAuthSession removes a session token.
func (s *Store) DeleteAuthSession(token string) error {
	_, err := s.db.Exec(`DELETE FROM auth_sessions WHERE id = ?`, token)
	return err
}

// CleanupExpiredSessions removes all expired sessions.
func (s *Store) CleanupExpiredSessions() error {
	_, err := s.db.Exec(`DELETE FROM auth_sessions WHERE expires_at < ?`, time.Now())
	return err
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
