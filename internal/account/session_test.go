package account

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef-test"

func TestNewSessions_Validation(t *testing.T) {
	if _, err := NewSessions("short", time.Hour); err == nil {
		t.Error("NewSessions() should reject a short secret")
	}
	if _, err := NewSessions(testSecret, 0); err == nil {
		t.Error("NewSessions() should reject a zero ttl")
	}
}

func TestSessions_IssueVerify(t *testing.T) {
	s, err := NewSessions(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewSessions() error = %v", err)
	}

	token, err := s.Issue(User{ID: 17})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	id, err := s.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if id != 17 {
		t.Errorf("Verify() = %d, want 17", id)
	}
}

func TestSessions_Expired(t *testing.T) {
	s, _ := NewSessions(testSecret, time.Hour)
	issued := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return issued }

	token, err := s.Issue(User{ID: 1})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	s.now = func() time.Time { return issued.Add(2 * time.Hour) }
	if _, err := s.Verify(token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Verify() after expiry error = %v, want ErrInvalidSession", err)
	}
}

func TestSessions_Rejects(t *testing.T) {
	s, _ := NewSessions(testSecret, time.Hour)
	other, _ := NewSessions("another-secret-of-length", time.Hour)

	token, _ := s.Issue(User{ID: 3})
	foreign, _ := other.Issue(User{ID: 3})

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	for name, tok := range map[string]string{
		"empty":        "",
		"garbage":      "not-a-token",
		"wrong secret": foreign,
		"tampered":     tampered,
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Verify(tok); !errors.Is(err, ErrInvalidSession) {
				t.Errorf("Verify() error = %v, want ErrInvalidSession", err)
			}
		})
	}
}
