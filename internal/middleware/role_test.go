package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name       string
		allowed    []string
		role       interface{} // value stored in context, nil = not set
		wantStatus int
	}{
		{"admin passes admin gate", []string{"admin"}, "admin", http.StatusOK},
		{"user blocked at admin gate", []string{"admin"}, "user", http.StatusForbidden},
		{"user passes shared gate", []string{"admin", "user"}, "user", http.StatusOK},
		{"missing role blocked", []string{"admin"}, nil, http.StatusForbidden},
		{"non-string role blocked", []string{"admin"}, 12.0, http.StatusForbidden},
		{"unknown role blocked", []string{"admin", "user"}, "root", http.StatusForbidden},
	}

	e := echo.New()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if tc.role != nil {
				c.Set("role", tc.role)
			}

			h := RequireRole(tc.allowed...)(okHandler)
			if err := h(c); err != nil {
				t.Fatal(err)
			}
			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
		})
	}
}
