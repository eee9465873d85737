package atelier

import (
	"context"
	"errors"
	"fmt"

	"atelier-go/internal/model"
)

// keyAttempts bounds the collision-check loop when minting tokens.
// Collisions on 24 random bytes are not expected; the bound keeps a
// broken generator from spinning forever.
const keyAttempts = 5

// Sessions manages login session lifecycle: start, end, resolve.
// A session is ACTIVE from start until it is ended, and ENDED forever
// after; there is no resurrection.
type Sessions struct {
	db     Database
	keys   KeyGenerator
	clock  Clock
	logger Logger
}

// NewSessions creates a session manager over the given database.
func NewSessions(db Database, keys KeyGenerator, clock Clock, logger Logger) *Sessions {
	return &Sessions{
		db:     db,
		keys:   keys,
		clock:  clock,
		logger: logger,
	}
}

// Start opens an active session for the user and returns it, including
// the freshly minted session key. The key is collision-checked against
// existing sessions before insert; the unique constraint backs the
// residual race.
func (s *Sessions) Start(ctx context.Context, user *model.User) (*model.Session, error) {
	if user == nil {
		return nil, fmt.Errorf("user is required: %w", ErrInvalidArgument)
	}

	for attempt := 0; attempt < keyAttempts; attempt++ {
		key, err := s.keys.NewKey(SessionKeyBytes)
		if err != nil {
			return nil, fmt.Errorf("generating session key: %w", err)
		}

		existing, err := s.db.FindSessionByKey(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("checking session key: %w", err)
		}
		if existing != nil {
			continue
		}

		session, err := s.db.CreateSession(ctx, model.Session{
			UserID:     user.ID,
			SessionKey: key,
			Active:     true,
			StartTime:  s.clock.Now(),
		})
		if err != nil {
			if errors.Is(err, ErrConflict) {
				continue
			}
			return nil, fmt.Errorf("creating session: %w", err)
		}

		s.logger.Info("session started", "username", user.Username)
		return session, nil
	}

	return nil, fmt.Errorf("session key collisions exhausted %d attempts: %w", keyAttempts, ErrConflict)
}

// End transitions a session to ended and stamps its end time. Ending an
// unknown key fails with ErrNotFound; ending twice fails with
// ErrAlreadyEnded rather than silently succeeding.
func (s *Sessions) End(ctx context.Context, sessionKey string) error {
	if err := s.db.EndSession(ctx, sessionKey, s.clock.Now()); err != nil {
		return fmt.Errorf("ending session: %w", err)
	}

	s.logger.Info("session ended")
	return nil
}

// Resolve returns the user owning an active session. This is the sole
// authorization primitive: a missing, ended or orphaned session fails
// with ErrUnauthorized.
func (s *Sessions) Resolve(ctx context.Context, sessionKey string) (*model.User, error) {
	session, err := s.db.FindSessionByKey(ctx, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("finding session: %w", err)
	}
	if session == nil || !session.Active {
		return nil, fmt.Errorf("session: %w", ErrUnauthorized)
	}

	user, err := s.db.FindUserByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("finding session user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("session user: %w", ErrUnauthorized)
	}

	return user, nil
}
