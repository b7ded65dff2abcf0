package resilience

import (
	"errors"
	"fmt"
	"syscall"
	"testing"
)

func TestIsTransient_ExplicitTransientError(t *testing.T) {
	if !IsTransient(NewTransientError(errors.New("server overloaded"), 503)) {
		t.Error("expected TransientError to be transient")
	}
}

func TestIsTransient_WrappedTransientError(t *testing.T) {
	wrapped := fmt.Errorf("sparql: %w", NewTransientError(errors.New("rate limited"), 429))
	if !IsTransient(wrapped) {
		t.Error("expected wrapped TransientError to be transient")
	}
}

func TestIsTransient_NilAndRegular(t *testing.T) {
	if IsTransient(nil) {
		t.Error("nil error should not be transient")
	}
	if IsTransient(errors.New("invalid input")) {
		t.Error("regular error should not be transient")
	}
}

func TestIsTransient_Syscall(t *testing.T) {
	for _, e := range []error{syscall.ECONNRESET, syscall.ECONNREFUSED, syscall.ECONNABORTED} {
		if !IsTransient(fmt.Errorf("dial tcp: %w", e)) {
			t.Errorf("%v should be transient", e)
		}
	}
}

func TestIsTransient_Patterns(t *testing.T) {
	if !IsTransient(errors.New("read tcp 10.0.0.1: i/o timeout")) {
		t.Error("i/o timeout should be transient")
	}
	if !IsTransient(errors.New("Post \"https://query.wikidata.org/sparql\": unexpected EOF")) {
		t.Error("unexpected EOF should be transient")
	}
}

func TestStatusError(t *testing.T) {
	if err := StatusError(503, "https://example.org"); !IsTransient(err) {
		t.Errorf("503 should be transient: %v", err)
	}
	err := StatusError(400, "https://example.org")
	if IsTransient(err) {
		t.Errorf("400 should not be transient: %v", err)
	}
	var te *TransientError
	if errors.As(StatusError(429, "x"), &te) && te.StatusCode != 429 {
		t.Errorf("expected status 429, got %d", te.StatusCode)
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		if !IsTransientHTTPStatus(code) {
			t.Errorf("%d should be transient", code)
		}
	}
	for _, code := range []int{200, 400, 401, 403, 404, 414} {
		if IsTransientHTTPStatus(code) {
			t.Errorf("%d should not be transient", code)
		}
	}
}
