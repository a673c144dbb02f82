package email

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNewSMTPSender_Validation(t *testing.T) {
	if _, err := NewSMTPSender("", 0, "", "", "from@example.com", "", false); err == nil {
		t.Fatalf("expected error without host")
	}
	if _, err := NewSMTPSender("smtp.example.com", 0, "", "", "", "", false); err == nil {
		t.Fatalf("expected error without from")
	}
	s, err := NewSMTPSender("smtp.example.com", 0, "", "", "from@example.com", "", false)
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}
	if s.port != 587 {
		t.Fatalf("expected default port 587, got %d", s.port)
	}
}

func TestSMTPSender_RejectsEmptyRecipient(t *testing.T) {
	s, _ := NewSMTPSender("smtp.example.com", 25, "", "", "from@example.com", "", false)
	if err := s.SendSignupWelcome(context.Background(), "  ", "Alice"); err == nil {
		t.Fatalf("expected error for empty recipient")
	}
}

func TestBuildMessage_Headers(t *testing.T) {
	msg := buildMessage("noreply@example.com", "Insurance", "a@b.com", "Welcome", welcomeBody("Alice"))
	for _, want := range []string{
		"From: Insurance <noreply@example.com>",
		"To: a@b.com",
		"Subject: Welcome",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"\r\n\r\nHello Alice,",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in message:\n%s", want, msg)
		}
	}
}

func TestDisabledSender(t *testing.T) {
	err := NewDisabledSender("smtp not configured").SendSignupWelcome(context.Background(), "a@b.com", "Alice")
	if !errors.Is(err, ErrSenderDisabled) {
		t.Fatalf("expected ErrSenderDisabled, got %v", err)
	}
	if !strings.Contains(err.Error(), "smtp not configured") {
		t.Fatalf("expected reason in error, got %v", err)
	}
}
