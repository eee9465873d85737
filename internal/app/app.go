package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"atelier-go/internal/atelier"
	"atelier-go/internal/config"
	"atelier-go/internal/credentials"
	"atelier-go/internal/database"
	"atelier-go/internal/encryption"
	"atelier-go/internal/model"
	"atelier-go/internal/vault"
)

// AtelierApp is the application layer between the CLI and the atelier
// services. It constructs all dependencies from config, exposes
// high-level operations that accept raw strings, and manages the DB
// lifecycle on Close.
type AtelierApp struct {
	cfg       *config.Config
	db        atelier.Database
	vault     atelier.Vault
	encryptor atelier.Encryptor

	accounts  *atelier.Accounts
	sessions  *atelier.Sessions
	media     *atelier.Media
	projects  *atelier.Projects
	scenes    *atelier.SceneGraph
	snapshots *atelier.Snapshots

	logFile *os.File
}

// NewAtelierApp creates a fully wired AtelierApp from the given config.
// operation identifies the CLI command being run (e.g. "UserAdd",
// "Backup"). The caller must call Close when done.
func NewAtelierApp(cfg *config.Config, operation string) (*AtelierApp, error) {
	v, err := vault.NewVaultFromConfig(cfg.Vault)
	if err != nil {
		return nil, fmt.Errorf("creating vault: %w", err)
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.InstallID)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	hasher, err := credentials.NewHasherFromConfig(cfg.Credentials)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating hasher: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	opID := operation + "-" + time.Now().UTC().Format("20060102T150405Z")
	slogger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	clock := atelier.RealClock{}
	keys := atelier.RandomKeyGenerator{}

	return &AtelierApp{
		cfg:       cfg,
		db:        db,
		vault:     v,
		encryptor: enc,
		accounts:  atelier.NewAccounts(db, hasher, keys, clock, logger),
		sessions:  atelier.NewSessions(db, keys, clock, logger),
		media:     atelier.NewMedia(db, keys, logger),
		projects:  atelier.NewProjects(db, keys, clock, logger),
		scenes:    atelier.NewSceneGraph(db, logger),
		snapshots: atelier.NewSnapshots(db, v, enc, cfg.InstallID, logger),
		logFile:   logFile,
	}, nil
}

// AddUser creates a new account and returns its recovery key, the only
// time it is ever shown.
func (a *AtelierApp) AddUser(ctx context.Context, username, password string) (string, error) {
	user, err := a.accounts.CreateUser(ctx, username, password)
	if err != nil {
		return "", err
	}
	return user.RecoveryKey, nil
}

// RemoveUser deletes an account and everything it owns.
func (a *AtelierApp) RemoveUser(ctx context.Context, username string) error {
	return a.accounts.DeleteUser(ctx, username)
}

// ResetPassword resets an account password using its recovery key and
// returns the replacement recovery key.
func (a *AtelierApp) ResetPassword(ctx context.Context, username, recoveryKey, newPassword string) error {
	return a.accounts.ResetViaRecoveryKey(ctx, username, recoveryKey, newPassword)
}

// StartSession verifies credentials and opens a session, returning its key.
func (a *AtelierApp) StartSession(ctx context.Context, username, password string) (string, error) {
	user, err := a.accounts.VerifyCredentials(ctx, username, password)
	if err != nil {
		return "", err
	}

	session, err := a.sessions.Start(ctx, user)
	if err != nil {
		return "", err
	}
	return session.SessionKey, nil
}

// EndSession closes the session identified by key.
func (a *AtelierApp) EndSession(ctx context.Context, sessionKey string) error {
	return a.sessions.End(ctx, sessionKey)
}

// ListMedia returns the media library of the named user.
func (a *AtelierApp) ListMedia(ctx context.Context, username string) ([]model.MediaAsset, error) {
	user, err := a.findUser(ctx, username)
	if err != nil {
		return nil, err
	}
	return a.media.List(ctx, user)
}

// RemoveMedia deletes a media asset by key. Sprites referencing it
// keep their geometry and lose the image.
func (a *AtelierApp) RemoveMedia(ctx context.Context, mediaKey string) error {
	return a.media.Delete(ctx, mediaKey)
}

// ListProjects returns the projects of the named user.
func (a *AtelierApp) ListProjects(ctx context.Context, username string) ([]model.Project, error) {
	user, err := a.findUser(ctx, username)
	if err != nil {
		return nil, err
	}
	return a.projects.List(ctx, user)
}

// Backup exports an encrypted database snapshot to the vault and
// returns the new snapshot version.
func (a *AtelierApp) Backup() (int64, error) {
	if !a.encryptor.IsConfigured() {
		return 0, fmt.Errorf("encryption keys not configured: run setup first")
	}
	if err := a.vault.ValidateSetup(); err != nil {
		return 0, fmt.Errorf("validating vault: %w", err)
	}
	return a.snapshots.Export()
}

// Restore fetches the latest snapshot from the vault and decrypts it
// to destPath.
func (a *AtelierApp) Restore(passphrase, destPath string) error {
	return a.snapshots.Restore(passphrase, destPath)
}

// SetupEncryption generates the age key pair protecting snapshots.
func (a *AtelierApp) SetupEncryption(passphrase string) error {
	return a.encryptor.GenerateKeys(passphrase)
}

// Status reports the local schema state and the vault snapshot version.
func (a *AtelierApp) Status() (string, error) {
	schemaState := "up to date"
	if err := a.db.CheckMigrations(); err != nil {
		schemaState = err.Error()
	}

	version, err := a.vault.SnapshotVersion(a.cfg.InstallID)
	if err != nil {
		return "", fmt.Errorf("checking vault: %w", err)
	}

	return fmt.Sprintf("installation: %s\nschema: %s\nvault snapshot version: %d\nencryption configured: %t",
		a.cfg.InstallID, schemaState, version, a.encryptor.IsConfigured()), nil
}

func (a *AtelierApp) findUser(ctx context.Context, username string) (*model.User, error) {
	user, err := a.db.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("finding user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %q: %w", username, atelier.ErrNotFound)
	}
	return user, nil
}

// Close closes the database and the log file.
func (a *AtelierApp) Close() error {
	var firstErr error

	if err := a.db.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
