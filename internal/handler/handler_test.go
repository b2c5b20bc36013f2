package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/serverroom/inventory/internal/access"
	"github.com/serverroom/inventory/internal/config"
	"github.com/serverroom/inventory/internal/repository"
	"github.com/serverroom/inventory/internal/validate"
)

// newContext builds an echo context carrying an authenticated admin, as
// the JWT middleware would leave it.
func newContext(t *testing.T, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", float64(1))
	c.Set("role", "admin")
	return c, rec
}

func testConfig() config.Config {
	return config.Config{JWTSecret: "test", AccessTTLMin: 5, RefreshTTLDays: 1, BcryptCost: 4}
}

// The repositories are constructed over a nil DB handle: these tests
// only exercise paths that must reject before any query runs.

func TestEquipmentCreateRejectsBadBodies(t *testing.T) {
	h := NewEquipmentHandler(repository.NewEquipmentRepo(nil), repository.NewRackRepo(nil))

	cases := []struct {
		name string
		body string
	}{
		{"not json", `{{`},
		{"missing rack_id", `{"name":"switch","size":1,"start_unit":1}`},
		{"missing name", `{"rack_id":1,"size":1,"start_unit":1}`},
		{"negative size", `{"rack_id":1,"name":"x","size":-2,"start_unit":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newContext(t, http.MethodPost, "/v1/equipment", tc.body)
			if err := h.Create(c); err != nil {
				t.Fatal(err)
			}
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestRoomCreateRequiresName(t *testing.T) {
	h := NewRoomHandler(repository.NewRoomRepo(nil), repository.NewRackRepo(nil))

	c, rec := newContext(t, http.MethodPost, "/v1/rooms", `{"name":"   "}`)
	if err := h.Create(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUserCreateValidatesRole(t *testing.T) {
	h := NewUserHandler(testConfig(), repository.NewUserRepo(nil), repository.NewGrantRepo(nil))

	c, rec := newContext(t, http.MethodPost, "/v1/users", `{"username":"bob","password":"pw","role":"root"}`)
	if err := h.Create(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestReplaceRacksRequiresRackIDs(t *testing.T) {
	h := NewUserHandler(testConfig(), repository.NewUserRepo(nil), repository.NewGrantRepo(nil))

	c, rec := newContext(t, http.MethodPut, "/v1/users/3/racks", `{}`)
	c.SetParamNames("id")
	c.SetParamValues("3")
	if err := h.ReplaceRacks(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRackListRejectsUnauthenticatedContext(t *testing.T) {
	racks := repository.NewRackRepo(nil)
	grants := repository.NewGrantRepo(nil)
	h := NewRackHandler(racks, repository.NewEquipmentRepo(nil), access.NewFilter(racks, grants))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/racks", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec) // no user_id/role in context

	if err := h.List(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestWriteRepoErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{repository.ErrRoomNotFound, http.StatusNotFound},
		{repository.ErrRackNotFound, http.StatusNotFound},
		{repository.ErrEquipmentNotFound, http.StatusNotFound},
		{repository.ErrUserNotFound, http.StatusNotFound},
		{repository.ErrInvalidRackName, http.StatusBadRequest},
		{validate.ErrInvalidSpan, http.StatusBadRequest},
		{&validate.ConflictError{EquipmentID: 5, Span: validate.Span{StartUnit: 1, Size: 2}}, http.StatusConflict},
		{repository.ErrRoomNotEmpty, http.StatusConflict},
		{repository.ErrRoomNameExists, http.StatusConflict},
		{repository.ErrUsernameExists, http.StatusConflict},
		{context.DeadlineExceeded, http.StatusServiceUnavailable},
		{errors.New("driver: bad connection"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		c, rec := newContext(t, http.MethodGet, "/", "")
		if err := writeRepoError(c, tc.err); err != nil {
			t.Fatal(err)
		}
		if rec.Code != tc.want {
			t.Errorf("writeRepoError(%v) wrote %d, want %d", tc.err, rec.Code, tc.want)
		}
	}
}
