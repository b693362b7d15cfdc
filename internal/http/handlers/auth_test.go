package handlers_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/bloghub/internal/auth"
	"github.com/geocoder89/bloghub/internal/http/handlers"
)

func TestRegister_IssuesUsableToken(t *testing.T) {
	env := setupPostsEnv(t)

	w := doJSON(env.router, http.MethodPost, "/auth/register",
		`{"email":"alice@x.com","username":"alice","password":"secret"}`, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("got %d body=%s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "secret") || strings.Contains(strings.ToLower(w.Body.String()), "passwordhash") {
		t.Fatalf("response leaks credentials: %s", w.Body.String())
	}

	var tok handlers.TokenResponse
	mustReadJSON(t, w, &tok)

	if tok.TokenType != "Bearer" || tok.ExpiresIn != int64(time.Hour.Seconds()) {
		t.Fatalf("unexpected token envelope: %+v", tok)
	}

	principal, err := env.tokens.Validate(tok.AccessToken)
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if principal.ID != tok.User.ID || principal.Email != "alice@x.com" || principal.Role != "user" {
		t.Fatalf("unexpected principal: %+v", principal)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := setupPostsEnv(t)
	env.register(t, "alice@x.com", "alice")

	w := doJSON(env.router, http.MethodPost, "/auth/register",
		`{"email":"alice@x.com","username":"other","password":"different"}`, "")
	if w.Code != http.StatusConflict {
		t.Fatalf("got %d, want 409", w.Code)
	}
	if code := errorCode(t, w); code != handlers.CodeConflict {
		t.Fatalf("got code %q", code)
	}

	// original password still works
	w = doJSON(env.router, http.MethodPost, "/auth/login", `{"email":"alice@x.com","password":"secret"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("original credentials broken, got %d", w.Code)
	}
}

func TestRegister_Validation(t *testing.T) {
	env := setupPostsEnv(t)

	tests := []struct {
		name     string
		body     string
		wantRule string
	}{
		{name: "empty_object", body: `{}`, wantRule: "required"},
		{name: "bad_email", body: `{"email":"nope","username":"alice","password":"secret"}`, wantRule: "email"},
		{name: "short_password", body: `{"email":"a@x.com","username":"alice","password":"ab"}`, wantRule: "min"},
		{name: "missing_password", body: `{"email":"a@x.com","username":"alice"}`, wantRule: "required"},
		// 40 runes but 80 bytes, past what bcrypt accepts
		{name: "multibyte_password", body: `{"email":"a@x.com","username":"alice","password":"` + strings.Repeat("é", 40) + `"}`, wantRule: "maxbytes"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(env.router, http.MethodPost, "/auth/register", tt.body, "")
			if w.Code != http.StatusBadRequest {
				t.Fatalf("got %d, want 400 body=%s", w.Code, w.Body.String())
			}

			var resp struct {
				Error struct {
					Code    string `json:"code"`
					Details struct {
						Fields []handlers.FieldError `json:"fields"`
					} `json:"details"`
				} `json:"error"`
			}
			mustReadJSON(t, w, &resp)

			if resp.Error.Code != handlers.CodeInvalidInput {
				t.Fatalf("got code %q, want %q", resp.Error.Code, handlers.CodeInvalidInput)
			}

			found := false
			for _, fe := range resp.Error.Details.Fields {
				if fe.Rule == tt.wantRule {
					found = true
				}
			}
			if !found {
				t.Fatalf("rule %q not reported: %+v", tt.wantRule, resp.Error.Details.Fields)
			}
		})
	}

	// 36 runes, exactly 72 bytes
	body := `{"email":"b@x.com","username":"bob","password":"` + strings.Repeat("é", 36) + `"}`
	if w := doJSON(env.router, http.MethodPost, "/auth/register", body, ""); w.Code != http.StatusCreated {
		t.Fatalf("72-byte password: got %d, want 201 body=%s", w.Code, w.Body.String())
	}
}

func TestLogin_Failures(t *testing.T) {
	env := setupPostsEnv(t)
	env.register(t, "alice@x.com", "alice")

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "wrong_password", body: `{"email":"alice@x.com","password":"wrong"}`, want: http.StatusUnauthorized},
		{name: "unknown_email", body: `{"email":"ghost@x.com","password":"secret"}`, want: http.StatusUnauthorized},
		{name: "missing_password", body: `{"email":"alice@x.com"}`, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(env.router, http.MethodPost, "/auth/login", tt.body, "")
			if w.Code != tt.want {
				t.Fatalf("got %d, want %d body=%s", w.Code, tt.want, w.Body.String())
			}
		})
	}

	// both credential failures answer identically
	a := doJSON(env.router, http.MethodPost, "/auth/login", tests[0].body, "")
	b := doJSON(env.router, http.MethodPost, "/auth/login", tests[1].body, "")
	var ea, eb struct {
		Error handlers.APIError `json:"error"`
	}
	mustReadJSON(t, a, &ea)
	mustReadJSON(t, b, &eb)
	if ea.Error.Message != eb.Error.Message || ea.Error.Code != eb.Error.Code {
		t.Fatalf("login failures should be indistinguishable: %+v vs %+v", ea.Error, eb.Error)
	}
}

func TestMe(t *testing.T) {
	env := setupPostsEnv(t)
	token, id := env.register(t, "alice@x.com", "alice")

	w := doJSON(env.router, http.MethodGet, "/me", "", token)
	if w.Code != http.StatusOK {
		t.Fatalf("got %d", w.Code)
	}

	var me struct {
		ID       string `json:"id"`
		Email    string `json:"email"`
		Username string `json:"username"`
	}
	mustReadJSON(t, w, &me)
	if me.ID != id || me.Email != "alice@x.com" || me.Username != "alice" {
		t.Fatalf("unexpected profile: %+v", me)
	}

	// well-signed token whose subject is not a stored user
	ghost, err := env.tokens.Issue("00000000-0000-0000-0000-000000000000", "ghost@x.com", "user")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	w = doJSON(env.router, http.MethodGet, "/me", "", ghost)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unknown subject: got %d, want 401", w.Code)
	}
}

func TestMe_TokenFromAnotherKey(t *testing.T) {
	env := setupPostsEnv(t)
	_, id := env.register(t, "alice@x.com", "alice")

	forged, err := auth.NewManager("not-the-server-key", time.Hour).Issue(id, "alice@x.com", "user")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	w := doJSON(env.router, http.MethodGet, "/me", "", forged)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want 401", w.Code)
	}
}
