package atelier

import (
	"context"
	"crypto/subtle"
	"fmt"

	"atelier-go/internal/model"
)

// Accounts manages users, credentials and recovery keys.
type Accounts struct {
	db     Database
	hasher Hasher
	keys   KeyGenerator
	clock  Clock
	logger Logger
}

// NewAccounts creates an account store over the given database.
func NewAccounts(db Database, hasher Hasher, keys KeyGenerator, clock Clock, logger Logger) *Accounts {
	return &Accounts{
		db:     db,
		hasher: hasher,
		keys:   keys,
		clock:  clock,
		logger: logger,
	}
}

// CreateUser registers a new user with a fresh salt and recovery key.
// Fails with ErrConflict if the username belongs to a live user; a
// username freed by deleting its owner may be reused.
func (a *Accounts) CreateUser(ctx context.Context, username, password string) (*model.User, error) {
	if username == "" {
		return nil, fmt.Errorf("username is required: %w", ErrInvalidArgument)
	}
	if password == "" {
		return nil, fmt.Errorf("password is required: %w", ErrInvalidArgument)
	}

	salt, err := a.keys.NewKey(SaltBytes)
	if err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}
	digest, err := a.hasher.Hash(password, salt)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	recoveryKey, err := a.keys.NewKey(RecoveryKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("generating recovery key: %w", err)
	}

	user, err := a.db.CreateUser(ctx, model.User{
		Username:       username,
		Salt:           salt,
		HashedPassword: digest,
		RecoveryKey:    recoveryKey,
		CreatedTime:    a.clock.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	a.logger.Info("user created", "username", username)
	return user, nil
}

// VerifyCredentials checks a username/password pair. Fails with
// ErrNotFound when the username is unknown and ErrUnauthorized when the
// digest does not match.
func (a *Accounts) VerifyCredentials(ctx context.Context, username, password string) (*model.User, error) {
	user, err := a.db.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("finding user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}

	digest, err := a.hasher.Hash(password, user.Salt)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(digest), []byte(user.HashedPassword)) != 1 {
		return nil, fmt.Errorf("password mismatch for %q: %w", username, ErrUnauthorized)
	}

	return user, nil
}

// ResetViaRecoveryKey sets a new password after checking the recovery
// key. Both the salt and the recovery key rotate on success, making
// recovery keys single-use.
func (a *Accounts) ResetViaRecoveryKey(ctx context.Context, username, recoveryKey, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("password is required: %w", ErrInvalidArgument)
	}

	user, err := a.db.FindUserByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("finding user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("user %q: %w", username, ErrNotFound)
	}

	if subtle.ConstantTimeCompare([]byte(recoveryKey), []byte(user.RecoveryKey)) != 1 {
		return fmt.Errorf("recovery key mismatch for %q: %w", username, ErrUnauthorized)
	}

	salt, err := a.keys.NewKey(SaltBytes)
	if err != nil {
		return fmt.Errorf("generating salt: %w", err)
	}
	digest, err := a.hasher.Hash(newPassword, salt)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	newRecoveryKey, err := a.keys.NewKey(RecoveryKeyBytes)
	if err != nil {
		return fmt.Errorf("generating recovery key: %w", err)
	}

	if err := a.db.UpdateUserCredentials(ctx, user.ID, salt, digest, newRecoveryKey); err != nil {
		return fmt.Errorf("updating credentials: %w", err)
	}

	a.logger.Info("credentials reset", "username", username)
	return nil
}

// DeleteUser removes a user and everything it owns: sessions, media,
// projects, scenes, layers and sprites, all in one transaction.
func (a *Accounts) DeleteUser(ctx context.Context, username string) error {
	user, err := a.db.FindUserByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("finding user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("user %q: %w", username, ErrNotFound)
	}

	if err := a.db.DeleteUser(ctx, user.ID); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	a.logger.Info("user deleted", "username", username)
	return nil
}
