package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func runRequireRole(t *testing.T, actor *Actor, roles ...string) error {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if actor != nil {
		req = req.WithContext(WithActor(req.Context(), actor))
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := RequireRole(roles...)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	return handler(c)
}

func TestRequireRole_Allows(t *testing.T) {
	err := runRequireRole(t, &Actor{ID: 1, Role: RoleEMS}, RoleEMS)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequireRole_AllowsAnyListed(t *testing.T) {
	err := runRequireRole(t, &Actor{ID: 1, Role: RoleHospital}, RoleEMS, RoleHospital)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequireRole_AdminBypasses(t *testing.T) {
	err := runRequireRole(t, &Actor{ID: 1, Role: RoleAdmin}, RoleHospital)
	if err != nil {
		t.Fatalf("expected admin to pass, got %v", err)
	}
}

func TestRequireRole_Forbidden(t *testing.T) {
	err := runRequireRole(t, &Actor{ID: 1, Role: RoleHospital}, RoleEMS)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
}

func TestRequireRole_Unauthenticated(t *testing.T) {
	err := runRequireRole(t, nil, RoleEMS)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}
