package auth

import (
	"context"
	"net/http/httptest"
	"testing"
)

func TestUserIDFromContext(t *testing.T) {
	if got := UserIDFromContext(context.Background()); got != "" {
		t.Errorf("empty context: got %q, want \"\"", got)
	}

	ctx := WithUserID(context.Background(), "user_123")
	if got := UserIDFromContext(ctx); got != "user_123" {
		t.Errorf("got %q, want %q", got, "user_123")
	}
}

func TestWithUserID_EmptyLeavesContext(t *testing.T) {
	base := context.Background()
	if ctx := WithUserID(base, ""); ctx != base {
		t.Error("empty user id should return the original context")
	}
}

func TestUserIDFromRequest(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/usage", nil)
	req = req.WithContext(WithUserID(req.Context(), "user_456"))

	if got := UserIDFromRequest(req); got != "user_456" {
		t.Errorf("got %q, want %q", got, "user_456")
	}
}
