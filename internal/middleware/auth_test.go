package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"designmart/internal/model"
	"designmart/internal/util"

	"github.com/dgrijalva/jwt-go"
)

const testSecret = "test-secret"

func bearerToken(t *testing.T, userID string, role model.Role) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &util.Claims{
		Role: string(role),
		StandardClaims: jwt.StandardClaims{
			Subject:   userID,
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + signed
}

func TestAuthMiddlewarePopulatesContext(t *testing.T) {
	var gotUser string
	var gotRole model.Role
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = r.Context().Value(UserContextKey).(string)
		gotRole, _ = r.Context().Value(RoleContextKey).(model.Role)
	})

	req := httptest.NewRequest(http.MethodGet, "/credits/status", nil)
	req.Header.Set("Authorization", bearerToken(t, "user-1", model.RoleDesigner))
	rec := httptest.NewRecorder()
	AuthMiddleware(testSecret)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotUser != "user-1" {
		t.Errorf("expected user-1 in context, got %q", gotUser)
	}
	if gotRole != model.RoleDesigner {
		t.Errorf("expected designer role in context, got %q", gotRole)
	}
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/credits/status", nil)
	rec := httptest.NewRecorder()
	AuthMiddleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run without a token")
	})).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddlewareRejectsBadToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/credits/status", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	AuthMiddleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run with a malformed token")
	})).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	handler := AuthMiddleware(testSecret)(RequireRole(model.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodPost, "/admin/credits", nil)
	req.Header.Set("Authorization", bearerToken(t, "admin-1", model.RoleAdmin))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for admin, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/admin/credits", nil)
	req.Header.Set("Authorization", bearerToken(t, "user-1", model.RoleBuyer))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for buyer, got %d", rec.Code)
	}
}
