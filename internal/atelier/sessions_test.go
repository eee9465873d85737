package atelier_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"atelier-go/internal/atelier"
)

func TestSessions_Start(t *testing.T) {
	t.Run("opens an active session with a fresh key", func(t *testing.T) {
		f := newFixture(t)
		user := f.user(t, "ada")

		session, err := f.sessions.Start(context.Background(), user)
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}

		if session.SessionKey == "" {
			t.Error("SessionKey is empty")
		}
		if !session.Active {
			t.Error("session not active after Start")
		}
		if session.UserID != user.ID {
			t.Errorf("UserID = %d, want %d", session.UserID, user.ID)
		}
		if session.EndTime != nil {
			t.Errorf("EndTime = %v, want nil", session.EndTime)
		}
	})

	t.Run("a user may hold several active sessions", func(t *testing.T) {
		f := newFixture(t)
		user := f.user(t, "ada")

		s1, err := f.sessions.Start(context.Background(), user)
		if err != nil {
			t.Fatalf("first Start() error = %v", err)
		}
		s2, err := f.sessions.Start(context.Background(), user)
		if err != nil {
			t.Fatalf("second Start() error = %v", err)
		}

		if s1.SessionKey == s2.SessionKey {
			t.Error("two sessions share a key")
		}

		for _, key := range []string{s1.SessionKey, s2.SessionKey} {
			if _, err := f.sessions.Resolve(context.Background(), key); err != nil {
				t.Errorf("Resolve(%q) error = %v", key, err)
			}
		}
	})

	t.Run("nil user is rejected", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.sessions.Start(context.Background(), nil)
		if !errors.Is(err, atelier.ErrInvalidArgument) {
			t.Errorf("Start(nil) error = %v, want ErrInvalidArgument", err)
		}
	})
}

func TestSessions_End(t *testing.T) {
	t.Run("ends a session and stamps the end time", func(t *testing.T) {
		f := newFixture(t)
		user := f.user(t, "ada")

		session, err := f.sessions.Start(context.Background(), user)
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}

		f.clock.Advance(time.Hour)
		if err := f.sessions.End(context.Background(), session.SessionKey); err != nil {
			t.Fatalf("End() error = %v", err)
		}

		_, err = f.sessions.Resolve(context.Background(), session.SessionKey)
		if !errors.Is(err, atelier.ErrUnauthorized) {
			t.Errorf("Resolve() after End error = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("unknown key fails with not found", func(t *testing.T) {
		f := newFixture(t)

		err := f.sessions.End(context.Background(), "no-such-key")
		if !errors.Is(err, atelier.ErrNotFound) {
			t.Errorf("End() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("ending twice fails with already ended", func(t *testing.T) {
		f := newFixture(t)
		user := f.user(t, "ada")

		session, err := f.sessions.Start(context.Background(), user)
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}

		if err := f.sessions.End(context.Background(), session.SessionKey); err != nil {
			t.Fatalf("first End() error = %v", err)
		}

		err = f.sessions.End(context.Background(), session.SessionKey)
		if !errors.Is(err, atelier.ErrAlreadyEnded) {
			t.Errorf("second End() error = %v, want ErrAlreadyEnded", err)
		}
	})
}

func TestSessions_Resolve(t *testing.T) {
	t.Run("returns the owning user for an active session", func(t *testing.T) {
		f := newFixture(t)
		user := f.user(t, "ada")

		session, err := f.sessions.Start(context.Background(), user)
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}

		resolved, err := f.sessions.Resolve(context.Background(), session.SessionKey)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if resolved.ID != user.ID {
			t.Errorf("resolved.ID = %d, want %d", resolved.ID, user.ID)
		}
	})

	t.Run("unknown key fails with unauthorized", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.sessions.Resolve(context.Background(), "no-such-key")
		if !errors.Is(err, atelier.ErrUnauthorized) {
			t.Errorf("Resolve() error = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("sessions die with their user", func(t *testing.T) {
		f := newFixture(t)
		user := f.user(t, "ada")

		session, err := f.sessions.Start(context.Background(), user)
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}

		if err := f.accounts.DeleteUser(context.Background(), "ada"); err != nil {
			t.Fatalf("DeleteUser() error = %v", err)
		}

		_, err = f.sessions.Resolve(context.Background(), session.SessionKey)
		if !errors.Is(err, atelier.ErrUnauthorized) {
			t.Errorf("Resolve() after user delete error = %v, want ErrUnauthorized", err)
		}
	})
}
