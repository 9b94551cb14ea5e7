package httpapi

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"

	"github.com/clawdhub/clawdhub/internal/registry/spec"
)

func TestHashTokenIsDeterministicAndLengthIs64(t *testing.T) {
	a := hashToken("secret-token")
	b := hashToken("secret-token")
	if a != b {
		t.Fatal("hashToken must be deterministic for identical input")
	}
	if len(a) != 64 {
		t.Fatalf("len(hashToken) = %d, want 64 hex chars", len(a))
	}
	if hashToken("other") == a {
		t.Fatal("different tokens should hash differently")
	}
}

func TestRouteClass(t *testing.T) {
	cases := map[string]string{
		http.MethodGet:    "read",
		http.MethodPost:   "write",
		http.MethodPut:    "write",
		http.MethodPatch:  "write",
		http.MethodDelete: "write",
	}
	for method, want := range cases {
		got := routeClass(&huma.Operation{Method: method})
		if got != want {
			t.Errorf("routeClass(%s) = %q, want %q", method, got, want)
		}
	}
}

func TestRequireUserMissing(t *testing.T) {
	_, err := requireUser(context.Background())
	if !errors.Is(err, spec.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestRequireUserPresent(t *testing.T) {
	ctx := context.WithValue(context.Background(), ctxKeyUserID, "u1")
	uid, err := requireUser(ctx)
	if err != nil {
		t.Fatalf("requireUser: unexpected error: %v", err)
	}
	if uid != "u1" {
		t.Errorf("requireUser = %q, want u1", uid)
	}
}

func TestToHumaErrorMapsStatus(t *testing.T) {
	err := toHumaError(spec.ErrNotFound)
	var se huma.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("toHumaError should return a huma.StatusError, got %T", err)
	}
	if se.GetStatus() != 404 {
		t.Errorf("status = %d, want 404", se.GetStatus())
	}
}
