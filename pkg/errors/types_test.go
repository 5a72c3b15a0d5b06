package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeStaticNotFound, "asset missing")

	if err.Code != ErrCodeStaticNotFound {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeStaticNotFound)
	}
	if err.Message != "asset missing" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Underlying != nil {
		t.Error("Underlying should be nil for New error")
	}
	if len(err.Stack) == 0 {
		t.Error("Stack should be captured")
	}
	if err.Retryable {
		t.Error("Retryable should default to false")
	}
}

func TestWrap(t *testing.T) {
	underlying := errors.New("permission denied")
	err := Wrap(underlying, ErrCodeIdleIO, "write idle file")

	if err.Underlying != underlying {
		t.Error("Underlying should be preserved")
	}
	if !strings.Contains(err.Error(), "permission denied") {
		t.Errorf("Error() = %q, want underlying text", err.Error())
	}
	if !errors.Is(err, underlying) {
		t.Error("errors.Is should see the underlying error")
	}
}

func TestWrap_Nil(t *testing.T) {
	if err := Wrap(nil, ErrCodeInternal, "noop"); err != nil {
		t.Fatalf("Wrap(nil) = %v, want nil", err)
	}
}

func TestErrorContextIsSorted(t *testing.T) {
	err := New(ErrCodeGalleryForbidden, "authority mismatch").
		WithContext("target", "evil.example.com").
		WithContext("expected", "gallery.example.com")

	got := err.Error()
	want := "[GALLERY_FORBIDDEN] authority mismatch {expected: gallery.example.com, target: evil.example.com}"
	if got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestIsCodeFollowsChain(t *testing.T) {
	inner := New(ErrCodeExtSyncInstall, "symlink failed")
	outer := fmt.Errorf("install pub.ext@1.0.0: %w", inner)

	if !IsCode(outer, ErrCodeExtSyncInstall) {
		t.Fatal("IsCode should unwrap fmt.Errorf chains")
	}
	if IsCode(outer, ErrCodeIdleIO) {
		t.Fatal("IsCode matched the wrong code")
	}
	if GetCode(outer) != ErrCodeExtSyncInstall {
		t.Fatalf("GetCode = %v", GetCode(outer))
	}
	if GetCode(errors.New("plain")) != ErrCodeInternal {
		t.Fatal("plain errors should map to INTERNAL")
	}
	if GetCode(nil) != "" {
		t.Fatal("nil error should have empty code")
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeNotebookRegion, "bad region").
		WithUserMessage("Invalid region format.")
	if got := UserMessage(err); got != "Invalid region format." {
		t.Fatalf("UserMessage = %q", got)
	}
	if got := UserMessage(errors.New("boom")); got != "boom" {
		t.Fatalf("UserMessage(plain) = %q", got)
	}
	if got := UserMessage(New(ErrCodeInternal, "raw")); got != "raw" {
		t.Fatalf("UserMessage without user text = %q", got)
	}
}

func TestRetryableAndRemediation(t *testing.T) {
	err := New(ErrCodeGalleryUpstream, "upstream 503").
		WithRetryable(true).
		WithRemediation("Retry later.")
	if !IsRetryable(err) {
		t.Fatal("expected retryable")
	}
	if len(err.Remediation) != 1 {
		t.Fatalf("Remediation = %v", err.Remediation)
	}
	if IsRetryable(errors.New("x")) {
		t.Fatal("plain errors are not retryable")
	}
	if !strings.Contains(err.StackTrace(), "Stack trace:") {
		t.Fatal("StackTrace header missing")
	}
}
