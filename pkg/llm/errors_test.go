package llm

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifyErrorAuth(t *testing.T) {
	err := ClassifyError(fmt.Errorf("status code 401: unauthorized"))
	if err.Type != ErrorTypeAuth {
		t.Errorf("expected auth, got %s", err.Type)
	}
	if err.Retryable {
		t.Error("auth errors should not be retryable")
	}
	if err.StatusCode != 401 {
		t.Errorf("expected 401, got %d", err.StatusCode)
	}
}

func TestClassifyErrorModelNotFound(t *testing.T) {
	err := ClassifyError(fmt.Errorf(`model "qwen2.5:7b" not found`))
	if err.Type != ErrorTypeModel {
		t.Errorf("expected model, got %s", err.Type)
	}
}

func TestClassifyErrorConnectionRefusedIsRetryable(t *testing.T) {
	err := ClassifyError(fmt.Errorf("dial tcp 127.0.0.1:11434: connection refused"))
	if err.Type != ErrorTypeEndpoint {
		t.Errorf("expected endpoint, got %s", err.Type)
	}
	if !IsRetryable(err) {
		t.Error("connection errors should be retryable")
	}
}

func TestClassifyErrorPassesThroughExisting(t *testing.T) {
	orig := NewError(ErrorTypeModel, "model not found", false, nil)
	got := ClassifyError(fmt.Errorf("wrapped: %w", orig))
	if got != orig {
		t.Error("expected existing *Error to pass through")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewError(ErrorTypeUnknown, "llm error", false, cause)
	if !errors.Is(err, cause) {
		t.Error("expected Unwrap to expose cause")
	}
}
