package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidInput, "test message: %s", "value")

	if err.Code != ErrCodeInvalidInput {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidInput)
	}

	if err.Message != "test message: value" {
		t.Errorf("Message = %v, want %v", err.Message, "test message: value")
	}

	expected := "INVALID_INPUT: test message: value"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeProcessSpawn, cause, "cannot start interpreter")

	if err.Code != ErrCodeProcessSpawn {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeProcessSpawn)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	// Test Unwrap
	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	// Test errors.Is with wrapped error
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeSessionBusy, "test"),
			code:     ErrCodeSessionBusy,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeSessionBusy, "test"),
			code:     ErrCodeInstallBusy,
			expected: false,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			code:     ErrCodeInternal,
			expected: false,
		},
		{
			name:     "wrapped structured error",
			err:      Wrap(ErrCodeEnvBroken, errors.New("inner"), "outer"),
			code:     ErrCodeEnvBroken,
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if code := GetCode(New(ErrCodeEnvCreation, "x")); code != ErrCodeEnvCreation {
		t.Errorf("GetCode() = %v, want %v", code, ErrCodeEnvCreation)
	}
	if code := GetCode(errors.New("plain")); code != "" {
		t.Errorf("GetCode(plain) = %v, want empty", code)
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeEnvNotReady, "environment is not ready")
	if msg := UserMessage(err); msg != "environment is not ready" {
		t.Errorf("UserMessage() = %v", msg)
	}

	plain := errors.New("plain failure")
	if msg := UserMessage(plain); msg != "plain failure" {
		t.Errorf("UserMessage(plain) = %v", msg)
	}
}

func TestPartialInstallError(t *testing.T) {
	err := &PartialInstallError{
		Requested: []string{"numpy", "pandas"},
		Residual:  []string{"pandas"},
	}

	want := "install partially failed: 1 of 2 distributions still missing"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	if err.Code() != ErrCodePartialInstall {
		t.Errorf("Code() = %v, want %v", err.Code(), ErrCodePartialInstall)
	}

	// Must be extractable from a wrapped chain.
	wrapped := Wrap(ErrCodePartialInstall, err, "install numpy pandas")
	var pie *PartialInstallError
	if !errors.As(wrapped, &pie) {
		t.Fatal("errors.As failed to find PartialInstallError")
	}
	if len(pie.Residual) != 1 || pie.Residual[0] != "pandas" {
		t.Errorf("Residual = %v, want [pandas]", pie.Residual)
	}
}
