package actorctx

import (
	"context"
	"testing"

	"github.com/geocoder89/bloghub/internal/auth"
)

func TestPrincipalRoundTrip(t *testing.T) {
	ctx := WithPrincipal(context.Background(), auth.Principal{ID: "u1", Email: "a@x.com", Role: "user"})

	p := PrincipalFrom(ctx)
	if p == nil || p.ID != "u1" {
		t.Fatalf("unexpected principal %+v", p)
	}

	id, ok := UserIDFrom(ctx)
	if !ok || id != "u1" {
		t.Fatalf("got %q,%v want u1,true", id, ok)
	}
}

func TestPrincipalFrom_Absent(t *testing.T) {
	if p := PrincipalFrom(context.Background()); p != nil {
		t.Fatalf("expected nil principal, got %+v", p)
	}

	if p := PrincipalFrom(WithPrincipal(context.Background(), auth.Principal{})); p != nil {
		t.Fatalf("empty principal should read as unauthenticated")
	}
}
