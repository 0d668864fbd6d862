package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
)

func TestWrapKeepsCodeThroughChain(t *testing.T) {
	cause := stdErrors.New("disk full")
	err := fmt.Errorf("save: %w", Wrap(CodeStorageFailure, cause, "write memory"))

	if got := CodeOf(err); got != CodeStorageFailure {
		t.Fatalf("expected %s, got %s", CodeStorageFailure, got)
	}
	if !HasCode(err, CodeStorageFailure) {
		t.Fatalf("expected HasCode to match")
	}
	if HasCode(err, CodeNotFound) {
		t.Fatalf("unexpected match for NOT_FOUND")
	}
	if !stdErrors.Is(err, cause) {
		t.Fatalf("expected cause to stay reachable")
	}
	if !ShouldAlert(err) {
		t.Fatalf("storage failures alert by default")
	}
}

func TestRegisterAndOverrides(t *testing.T) {
	const code Code = "TEST_ONLY"
	Register(code, Attributes{Message: "test only", Severity: SeverityInfo, Status: 418})

	err := New(code, "")
	if err.Message() != "test only" {
		t.Fatalf("expected default message, got %q", err.Message())
	}
	if StatusOf(err) != 418 {
		t.Fatalf("expected status 418, got %d", StatusOf(err))
	}

	loud := New(code, "boom", WithAlert(true), WithSeverity(SeverityCritical), WithMetadata("plugin", "demo"))
	if !loud.ShouldAlert() || loud.Severity() != SeverityCritical {
		t.Fatalf("overrides not applied: alert=%v severity=%s", loud.ShouldAlert(), loud.Severity())
	}
	if loud.Metadata()["plugin"] != "demo" {
		t.Fatalf("metadata missing: %+v", loud.Metadata())
	}
}

func TestUnknownErrorsFallBack(t *testing.T) {
	err := stdErrors.New("plain")
	if CodeOf(err) != CodeUnknown {
		t.Fatalf("expected UNKNOWN for plain errors")
	}
	if StatusOf(err) != 500 {
		t.Fatalf("expected 500, got %d", StatusOf(err))
	}
	if AttributesOf("NEVER_REGISTERED").Message != "unknown error" {
		t.Fatalf("unregistered codes should use UNKNOWN attributes")
	}
}
