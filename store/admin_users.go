package store

import (
	"fmt"
	"time"

	"tinacopro/fault"
)

// AdminUser is a web console login. Only the bcrypt hash is stored.
type AdminUser struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

func (db *DB) CreateAdminUser(username, passwordHash string) error {
	_, err := db.Exec(db.Q(`INSERT INTO admin_users (username, password_hash) VALUES (?, ?)`), username, passwordHash)
	return err
}

func (db *DB) GetAdminUser(username string) (*AdminUser, error) {
	var u AdminUser
	var createdAt any
	err := db.QueryRow(db.Q(`SELECT id, username, password_hash, created_at FROM admin_users WHERE username=?`), username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &createdAt)
	if err != nil {
		return nil, notFound(err, "admin user", username)
	}
	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}

// SetAdminPassword replaces the stored hash for username.
func (db *DB) SetAdminPassword(username, passwordHash string) error {
	res, err := db.Exec(db.Q(`UPDATE admin_users SET password_hash=? WHERE username=?`), passwordHash, username)
	if err != nil {
		return fmt.Errorf("set password for %s: %w", username, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fault.NotFound("admin user", username)
	}
	return nil
}

func (db *DB) AdminUserExists() (bool, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM admin_users`).Scan(&count)
	return count > 0, err
}
