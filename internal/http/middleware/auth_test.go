package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/foodshare/go-donation-backend/internal/domain"
)

func newIdentityRouter(lookup UserLookup, gates ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Identity(lookup))
	handlers := append(gates, func(c *gin.Context) {
		var id string
		if u := CurrentUser(c); u != nil {
			id = u.ID
		}
		c.JSON(http.StatusOK, gin.H{
			"user":    id,
			"user_id": CurrentUserID(c),
			"role":    CurrentRole(c),
		})
	})
	r.GET("/whoami", handlers...)
	return r
}

func knownUserLookup(u *domain.User) UserLookup {
	return func(_ context.Context, id string) (*domain.User, error) {
		if u != nil && id == u.ID {
			return u, nil
		}
		return nil, errors.New("record not found")
	}
}

func TestIdentity_AnonymousIsGuest(t *testing.T) {
	r := newIdentityRouter(knownUserLookup(nil))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["role"] != domain.RoleGuest || body["user_id"] != "" || body["user"] != "" {
		t.Fatalf("anonymous identity = %v", body)
	}
}

func TestIdentity_ResolvesKnownUser(t *testing.T) {
	u := &domain.User{ID: "u1", FirstName: "Ada", LastName: "Lovelace", Role: domain.RoleDonor}
	r := newIdentityRouter(knownUserLookup(u))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(HeaderUserID, "u1")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["user"] != "u1" || body["user_id"] != "u1" || body["role"] != domain.RoleDonor {
		t.Fatalf("identity = %v", body)
	}
}

func TestIdentity_UnknownIDRejected(t *testing.T) {
	r := newIdentityRouter(knownUserLookup(nil))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(HeaderUserID, "forged")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["code"] != "unauthorized" || body["message"] != "unknown user" {
		t.Fatalf("body = %v", body)
	}
}

func TestIdentity_TrimsHeaderWhitespace(t *testing.T) {
	u := &domain.User{ID: "u1", Role: domain.RoleAgent}
	r := newIdentityRouter(knownUserLookup(u))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(HeaderUserID, "  u1  ")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestRequireRole(t *testing.T) {
	admin := &domain.User{ID: "a1", Role: domain.RoleAdmin}

	cases := []struct {
		name       string
		header     string
		allowed    []string
		wantStatus int
		wantCode   string
	}{
		{"anonymous gets 401", "", []string{domain.RoleAdmin}, http.StatusUnauthorized, "unauthorized"},
		{"wrong role gets 403", "a1", []string{domain.RoleDonor}, http.StatusForbidden, "forbidden"},
		{"matching role passes", "a1", []string{domain.RoleDonor, domain.RoleAdmin}, http.StatusOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newIdentityRouter(knownUserLookup(admin), RequireRole(tc.allowed...))

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tc.header != "" {
				req.Header.Set(HeaderUserID, tc.header)
			}
			r.ServeHTTP(w, req)

			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tc.wantStatus)
			}
			if tc.wantCode != "" {
				var body map[string]string
				_ = json.Unmarshal(w.Body.Bytes(), &body)
				if body["code"] != tc.wantCode {
					t.Fatalf("code = %q, want %q", body["code"], tc.wantCode)
				}
			}
		})
	}
}

func TestCurrentHelpers_OutsideIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if CurrentUser(c) != nil {
		t.Fatal("CurrentUser on bare context should be nil")
	}
	if CurrentUserID(c) != "" {
		t.Fatal("CurrentUserID on bare context should be empty")
	}
	if CurrentRole(c) != domain.RoleGuest {
		t.Fatalf("CurrentRole = %q, want guest", CurrentRole(c))
	}

	// Wrong-typed values are ignored.
	c.Set(ctxKeyUser, 42)
	c.Set(ctxKeyUserID, 42)
	c.Set(ctxKeyRole, 42)
	if CurrentUser(c) != nil || CurrentUserID(c) != "" || CurrentRole(c) != domain.RoleGuest {
		t.Fatal("wrong-typed context values should fall back to anonymous")
	}
}
