package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"juragites_estimation/internal/domain/entities"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

func newAuthRouter(a *Authenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestMeta())
	r.GET("/me", a.RequireAuth(), func(c *gin.Context) {
		caller := CallerFrom(c)
		c.JSON(http.StatusOK, gin.H{"sub": caller.ClientID, "role": caller.Role, "ua": MetaFrom(c).UserAgent})
	})
	r.GET("/admin", a.RequireAuth(), RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("User-Agent", "test-agent")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	a := NewAuthenticator("secret")
	r := newAuthRouter(a)

	t.Run("missing token", func(t *testing.T) {
		if w := do(r, "/me", ""); w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
	})

	t.Run("valid client token", func(t *testing.T) {
		tok, err := a.Issue("client-1", entities.RoleClient, time.Hour)
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		w := do(r, "/me", tok)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
		}
		if body := w.Body.String(); body != `{"role":"client","sub":"client-1","ua":"test-agent"}` {
			t.Fatalf("unexpected body: %s", body)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		tok, _ := a.Issue("client-1", entities.RoleClient, -time.Minute)
		if w := do(r, "/me", tok); w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		tok, _ := NewAuthenticator("other").Issue("client-1", entities.RoleClient, time.Hour)
		if w := do(r, "/me", tok); w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
	})

	t.Run("none algorithm", func(t *testing.T) {
		tok, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "client-1"},
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		if w := do(r, "/me", tok); w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
	})

	t.Run("missing subject", func(t *testing.T) {
		tok, _ := a.Issue("", entities.RoleClient, time.Hour)
		if w := do(r, "/me", tok); w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
	})
}

func TestRequireAdmin(t *testing.T) {
	a := NewAuthenticator("secret")
	r := newAuthRouter(a)

	client, _ := a.Issue("client-1", entities.RoleClient, time.Hour)
	if w := do(r, "/admin", client); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}

	admin, _ := a.Issue("ops-1", entities.RoleAdmin, time.Hour)
	if w := do(r, "/admin", admin); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
}

func TestUnknownRoleIsClient(t *testing.T) {
	a := NewAuthenticator("secret")
	tok, _ := a.Issue("client-1", entities.Role("superuser"), time.Hour)
	caller, err := a.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if caller.Role != entities.RoleClient {
		t.Fatalf("expected client role, got %s", caller.Role)
	}
}
