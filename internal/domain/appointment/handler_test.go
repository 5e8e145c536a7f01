package appointment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/symptoseek/symptoseek/internal/platform/auth"
)

func newTestHandler() (*Handler, *echo.Echo) {
	return NewHandler(newTestService()), echo.New()
}

func requestAs(e *echo.Echo, method, target, body string, userID uuid.UUID, role string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	ctx := context.WithValue(req.Context(), auth.UserIDKey, userID.String())
	if role != "" {
		ctx = context.WithValue(ctx, auth.UserRoleKey, role)
	}
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_BookAppointment(t *testing.T) {
	h, e := newTestHandler()
	when := time.Now().Add(48 * time.Hour).Format(time.RFC3339)
	body := `{"doctor_id":"` + uuid.New().String() + `","date_time":"` + when + `","reason":"chest pain"}`

	c, rec := requestAs(e, http.MethodPost, "/", body, uuid.New(), "user")
	if err := h.BookAppointment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"pending"`) {
		t.Error("new appointment should be pending")
	}
}

func TestHandler_ListAppointments_ScopedToUser(t *testing.T) {
	h, e := newTestHandler()
	owner := uuid.New()
	if _, err := h.svc.Book(context.Background(), owner, uuid.New(), time.Now().Add(time.Hour), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := h.svc.Book(context.Background(), uuid.New(), uuid.New(), time.Now().Add(time.Hour), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c, rec := requestAs(e, http.MethodGet, "/", "", owner, "user")
	if err := h.ListAppointments(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"total":1`) {
		t.Errorf("user should only see own appointments: %s", rec.Body.String())
	}

	c, rec = requestAs(e, http.MethodGet, "/", "", uuid.New(), "admin")
	if err := h.ListAppointments(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"total":2`) {
		t.Errorf("admin should see all appointments: %s", rec.Body.String())
	}
}

func TestHandler_SetStatus(t *testing.T) {
	h, e := newTestHandler()
	a, err := h.svc.Book(context.Background(), uuid.New(), uuid.New(), time.Now().Add(time.Hour), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c, rec := requestAs(e, http.MethodPatch, "/", `{"status":"approved"}`, uuid.New(), "admin")
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())
	if err := h.SetStatus(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"approved"`) {
		t.Errorf("unexpected response %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandler_CancelAppointment_Forbidden(t *testing.T) {
	h, e := newTestHandler()
	a, err := h.svc.Book(context.Background(), uuid.New(), uuid.New(), time.Now().Add(time.Hour), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c, _ := requestAs(e, http.MethodDelete, "/", "", uuid.New(), "user")
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())
	err = h.CancelAppointment(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
}
