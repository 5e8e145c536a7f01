package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/symptoseek/symptoseek/internal/platform/auth"
)

func newTestHandler() (*Handler, *echo.Echo) {
	svc, _ := newTestService()
	return NewHandler(svc), echo.New()
}

func authedContext(e *echo.Echo, method, body, userID string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, "/", nil)
	}
	if userID != "" {
		ctx := context.WithValue(req.Context(), auth.UserIDKey, userID)
		req = req.WithContext(ctx)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_Signup(t *testing.T) {
	h, e := newTestHandler()
	c, rec := authedContext(e, http.MethodPost,
		`{"name":"Alice","email":"a@example.com","password":"s3cretpass"}`, "")
	if err := h.Signup(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var resp authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if resp.Token == "" || resp.User == nil || resp.User.Email != "a@example.com" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Error("response must not leak password material")
	}
}

func TestHandler_Signup_DuplicateEmail(t *testing.T) {
	h, e := newTestHandler()
	c, _ := authedContext(e, http.MethodPost,
		`{"name":"Alice","email":"a@example.com","password":"s3cretpass"}`, "")
	if err := h.Signup(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c, _ = authedContext(e, http.MethodPost,
		`{"name":"Bob","email":"a@example.com","password":"passw0rd!"}`, "")
	err := h.Signup(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %v", err)
	}
}

func TestHandler_Login(t *testing.T) {
	h, e := newTestHandler()
	c, _ := authedContext(e, http.MethodPost,
		`{"name":"Alice","email":"a@example.com","password":"s3cretpass"}`, "")
	if err := h.Signup(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c, rec := authedContext(e, http.MethodPost,
		`{"email":"a@example.com","password":"s3cretpass"}`, "")
	if err := h.Login(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	c, _ = authedContext(e, http.MethodPost,
		`{"email":"a@example.com","password":"wrong"}`, "")
	err := h.Login(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestHandler_Profile(t *testing.T) {
	h, e := newTestHandler()
	u, _, err := h.svc.Signup(context.Background(), "Alice", "a@example.com", "s3cretpass")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c, rec := authedContext(e, http.MethodGet, "", u.ID.String())
	if err := h.Profile(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	c, _ = authedContext(e, http.MethodGet, "", "")
	err = h.Profile(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %v", err)
	}
}

func TestHandler_UpdateProfile(t *testing.T) {
	h, e := newTestHandler()
	u, _, err := h.svc.Signup(context.Background(), "Alice", "a@example.com", "s3cretpass")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c, rec := authedContext(e, http.MethodPut, `{"name":"Alice Smith","age":30}`, u.ID.String())
	if err := h.UpdateProfile(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var got User
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if got.Name != "Alice Smith" {
		t.Errorf("unexpected name %q", got.Name)
	}

	c, _ = authedContext(e, http.MethodPut, `{"gender":"unknown"}`, u.ID.String())
	err = h.UpdateProfile(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}
