package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"atelier-go/internal/atelier"
	"atelier-go/internal/model"
)

// User operations

func (s *SQLiteDatabase) CreateUser(ctx context.Context, user model.User) (*model.User, error) {
	var created *model.User
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var existing int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE username = ?`, user.Username).Scan(&existing)
		if err == nil {
			return fmt.Errorf("username %q taken: %w", user.Username, atelier.ErrConflict)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("checking username: %w", err)
		}

		res, err := tx.ExecContext(ctx, `
INSERT INTO users (username, salt, hashed_password, recovery_key, created_time)
VALUES (?, ?, ?, ?, ?)`,
			user.Username, user.Salt, user.HashedPassword, user.RecoveryKey, user.CreatedTime)
		if err != nil {
			return conflictOr(err, "inserting user")
		}

		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading user id: %w", err)
		}
		user.ID = id
		created = &user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *SQLiteDatabase) FindUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
SELECT id, username, salt, hashed_password, recovery_key, created_time
FROM users WHERE username = ?`, username))
}

func (s *SQLiteDatabase) FindUserByID(ctx context.Context, id int64) (*model.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
SELECT id, username, salt, hashed_password, recovery_key, created_time
FROM users WHERE id = ?`, id))
}

func (s *SQLiteDatabase) scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Salt, &u.HashedPassword, &u.RecoveryKey, &u.CreatedTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	return &u, nil
}

func (s *SQLiteDatabase) UpdateUserCredentials(ctx context.Context, userID int64, salt, hashedPassword, recoveryKey string) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE users SET salt = ?, hashed_password = ?, recovery_key = ? WHERE id = ?`,
		salt, hashedPassword, recoveryKey, userID)
	if err != nil {
		return fmt.Errorf("updating credentials: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("user %d: %w", userID, atelier.ErrNotFound)
	}
	return nil
}

// DeleteUser removes the user row; foreign keys cascade to sessions,
// media and projects, and transitively to scenes, layers and sprites.
// The whole chain lands in one transaction.
func (s *SQLiteDatabase) DeleteUser(ctx context.Context, userID int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
		if err != nil {
			return fmt.Errorf("deleting user: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking delete: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("user %d: %w", userID, atelier.ErrNotFound)
		}
		return nil
	})
}

// Session operations

func (s *SQLiteDatabase) CreateSession(ctx context.Context, session model.Session) (*model.Session, error) {
	var created *model.Session
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var userExists int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = ?`, session.UserID).Scan(&userExists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("user %d: %w", session.UserID, atelier.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("checking user: %w", err)
		}

		var keyTaken int64
		err = tx.QueryRowContext(ctx, `SELECT id FROM user_sessions WHERE session_key = ?`, session.SessionKey).Scan(&keyTaken)
		if err == nil {
			return fmt.Errorf("session key taken: %w", atelier.ErrConflict)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("checking session key: %w", err)
		}

		res, err := tx.ExecContext(ctx, `
INSERT INTO user_sessions (user, session_key, active, start_time, end_time)
VALUES (?, ?, ?, ?, NULL)`,
			session.UserID, session.SessionKey, session.Active, session.StartTime)
		if err != nil {
			return conflictOr(err, "inserting session")
		}

		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading session id: %w", err)
		}
		session.ID = id
		created = &session
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *SQLiteDatabase) FindSessionByKey(ctx context.Context, sessionKey string) (*model.Session, error) {
	var sess model.Session
	var endTime sql.NullTime
	err := s.db.QueryRowContext(ctx, `
SELECT id, user, session_key, active, start_time, end_time
FROM user_sessions WHERE session_key = ?`, sessionKey).
		Scan(&sess.ID, &sess.UserID, &sess.SessionKey, &sess.Active, &sess.StartTime, &endTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning session: %w", err)
	}
	if endTime.Valid {
		t := endTime.Time
		sess.EndTime = &t
	}
	return &sess, nil
}

// EndSession flips active to false and stamps end_time, exactly once.
// The read and the update share a transaction so two racing End calls
// cannot both succeed.
func (s *SQLiteDatabase) EndSession(ctx context.Context, sessionKey string, at time.Time) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var active bool
		err := tx.QueryRowContext(ctx, `SELECT active FROM user_sessions WHERE session_key = ?`, sessionKey).Scan(&active)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("session: %w", atelier.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("checking session: %w", err)
		}
		if !active {
			return fmt.Errorf("session: %w", atelier.ErrAlreadyEnded)
		}

		_, err = tx.ExecContext(ctx, `
UPDATE user_sessions SET active = FALSE, end_time = ? WHERE session_key = ?`, at, sessionKey)
		if err != nil {
			return fmt.Errorf("ending session: %w", err)
		}
		return nil
	})
}
