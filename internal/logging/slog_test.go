package logging

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestErrAttr(t *testing.T) {
	attr := Err(errors.New("boom"))
	if attr.Key != KeyError {
		t.Errorf("Err() key = %q, want %q", attr.Key, KeyError)
	}
	if attr.Value.String() != "boom" {
		t.Errorf("Err() value = %q, want %q", attr.Value.String(), "boom")
	}
}

func TestErrAttr_Nil(t *testing.T) {
	attr := Err(nil)
	// A nil error must produce an empty group that slog omits.
	if attr.Key != "" {
		t.Errorf("Err(nil) key = %q, want empty", attr.Key)
	}
}

func TestAnonymizeEmail(t *testing.T) {
	hash := AnonymizeEmail("user@example.com")
	if !strings.HasPrefix(hash, "user:") {
		t.Errorf("AnonymizeEmail() = %q, want user: prefix", hash)
	}
	if strings.Contains(hash, "example.com") {
		t.Error("AnonymizeEmail() leaks the address")
	}

	if again := AnonymizeEmail("user@example.com"); again != hash {
		t.Error("AnonymizeEmail() is not deterministic")
	}
	if other := AnonymizeEmail("other@example.com"); other == hash {
		t.Error("AnonymizeEmail() collides for different addresses")
	}

	if AnonymizeEmail("") != "" {
		t.Error("AnonymizeEmail(\"\") should be empty")
	}
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  string
	}{
		{name: "simple address", email: "user@example.com", want: "example.com"},
		{name: "empty", email: "", want: ""},
		{name: "no at sign", email: "not-an-email", want: ""},
		{name: "two at signs", email: "a@b@c", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractDomain(tt.email); got != tt.want {
				t.Errorf("ExtractDomain(%q) = %q, want %q", tt.email, got, tt.want)
			}
		})
	}
}

func TestWithOperation(t *testing.T) {
	logger := WithOperation(WithService(testLogger(), "gmail"), "list")
	if logger == nil {
		t.Fatal("WithOperation returned nil")
	}
	// Should not panic with the common attribute helpers.
	logger.Info("test",
		MessageID("m1"),
		ThreadID("t1"),
		Status(StatusSuccess),
		Attempt(1),
		UserHash("user@example.com"),
		Domain("user@example.com"),
	)
}
