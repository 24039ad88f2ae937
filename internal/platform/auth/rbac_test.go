package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func patientContext(t *testing.T, ctx context.Context, patientID string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/"+patientID, nil)
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(patientID)
	return c, rec
}

func TestRequireRole_Allowed(t *testing.T) {
	ctx := WithUser(context.Background(), "u1", "clinician")
	c, _ := patientContext(t, ctx, "p1")
	h := RequireRole("clinician")(func(c echo.Context) error { return nil })
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequireRole_Denied(t *testing.T) {
	ctx := WithUser(context.Background(), "u1", "authenticated")
	c, _ := patientContext(t, ctx, "p1")
	h := RequireRole("clinician")(func(c echo.Context) error { return nil })
	assertStatus(t, h(c), http.StatusForbidden)
}

func TestRequireRole_AdminBypass(t *testing.T) {
	ctx := WithUser(context.Background(), "u1", "admin")
	c, _ := patientContext(t, ctx, "p1")
	h := RequireRole("clinician")(func(c echo.Context) error { return nil })
	if err := h(c); err != nil {
		t.Fatalf("admin should bypass role checks: %v", err)
	}
}

func TestRequirePatientAccess(t *testing.T) {
	tests := []struct {
		name    string
		ctx     context.Context
		patient string
		want    int
	}{
		{"self", WithUser(context.Background(), "p1", "authenticated"), "p1", 0},
		{"self different case", WithUser(context.Background(), "ABC", "authenticated"), "abc", 0},
		{"other patient", WithUser(context.Background(), "p2", "authenticated"), "p1", http.StatusForbidden},
		{"clinician", WithUser(context.Background(), "doc", "clinician"), "p1", 0},
		{"anonymous", context.Background(), "p1", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := patientContext(t, tt.ctx, tt.patient)
			called := false
			h := RequirePatientAccess("id")(func(c echo.Context) error {
				called = true
				return nil
			})
			err := h(c)
			if tt.want == 0 {
				if err != nil || !called {
					t.Fatalf("expected access, got %v", err)
				}
				return
			}
			assertStatus(t, err, tt.want)
			if called {
				t.Error("handler must not run when access is denied")
			}
		})
	}
}

func TestUserIDFromContext(t *testing.T) {
	if UserIDFromContext(context.Background()) != "" {
		t.Error("expected empty user id on bare context")
	}
	if UserIDFromContext(WithUser(context.Background(), "u9")) != "u9" {
		t.Error("expected u9")
	}
}
