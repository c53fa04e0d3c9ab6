package core

import "testing"

func TestErrorTypeForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorType
	}{
		{401, ErrAuthentication},
		{403, ErrAuthentication},
		{429, ErrRateLimit},
		{400, ErrInvalidRequest},
		{404, ErrInvalidRequest},
		{422, ErrInvalidRequest},
		{500, ErrOverloaded},
		{503, ErrOverloaded},
		{200, ErrAPI},
	}
	for _, tt := range tests {
		if got := ErrorTypeForStatus(tt.status); got != tt.want {
			t.Errorf("ErrorTypeForStatus(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		typ  ErrorType
		want bool
	}{
		{ErrRateLimit, true},
		{ErrOverloaded, true},
		{ErrAPI, true},
		{ErrAuthentication, false},
		{ErrInvalidRequest, false},
		{ErrProvider, false},
	}
	for _, tt := range tests {
		e := &Error{Type: tt.typ, Message: "x"}
		if got := e.IsRetryable(); got != tt.want {
			t.Errorf("IsRetryable(%q) = %v, want %v", tt.typ, got, tt.want)
		}
	}
}

func TestErrorString(t *testing.T) {
	withCode := &Error{Type: ErrRateLimit, Message: "slow down", Code: "rate_limit_exceeded"}
	if got := withCode.Error(); got != "rate_limit_error: slow down (code: rate_limit_exceeded)" {
		t.Errorf("Error() = %q", got)
	}
	noCode := &Error{Type: ErrAPI, Message: "boom"}
	if got := noCode.Error(); got != "api_error: boom" {
		t.Errorf("Error() = %q", got)
	}
}

func TestConstructors(t *testing.T) {
	if e := NewAuthenticationError("bad key"); e.Type != ErrAuthentication || e.Message != "bad key" {
		t.Errorf("NewAuthenticationError = %+v", e)
	}
	if e := NewAPIError("upstream 500"); e.Type != ErrAPI {
		t.Errorf("NewAPIError = %+v", e)
	}
	if e := NewProviderError("cartesia", NewAPIError("down")); e.Type != ErrProvider {
		t.Errorf("NewProviderError = %+v", e)
	}

	e := NewRateLimitError("slow down", 30)
	if e.Type != ErrRateLimit || e.RetryAfter == nil || *e.RetryAfter != 30 {
		t.Errorf("NewRateLimitError = %+v", e)
	}
}
