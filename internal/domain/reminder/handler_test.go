package reminder

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/symptoseek/symptoseek/internal/platform/auth"
)

func newTestHandler() (*Handler, *mockJobs, *echo.Echo) {
	svc, jobs := newTestService()
	return NewHandler(svc), jobs, echo.New()
}

func requestAs(e *echo.Echo, method, body string, userID uuid.UUID) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, "/", nil)
	}
	req = req.WithContext(context.WithValue(req.Context(), auth.UserIDKey, userID.String()))
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_CreateReminder(t *testing.T) {
	h, jobs, e := newTestHandler()
	body := `{"title":"Take aspirin","type":"medication","time":"08:30"}`
	c, rec := requestAs(e, http.MethodPost, body, uuid.New())

	if err := h.CreateReminder(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if len(jobs.scheduled) != 1 {
		t.Errorf("create should schedule a job, got %d", len(jobs.scheduled))
	}
}

func TestHandler_CreateReminder_IgnoresClientCompleted(t *testing.T) {
	h, _, e := newTestHandler()
	body := `{"title":"Take aspirin","type":"medication","time":"08:30","completed":true}`
	c, rec := requestAs(e, http.MethodPost, body, uuid.New())

	if err := h.CreateReminder(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"completed":false`) {
		t.Error("new reminders must start uncompleted")
	}
}

func TestHandler_CreateReminder_Invalid(t *testing.T) {
	h, _, e := newTestHandler()
	c, _ := requestAs(e, http.MethodPost, `{"title":"x","time":"25:00"}`, uuid.New())
	err := h.CreateReminder(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandler_DeleteReminder(t *testing.T) {
	h, jobs, e := newTestHandler()
	userID := uuid.New()
	r := validReminder(userID)
	if err := h.svc.Create(context.Background(), r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c, rec := requestAs(e, http.MethodDelete, "", userID)
	c.SetParamNames("id")
	c.SetParamValues(r.ID.String())
	if err := h.DeleteReminder(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if len(jobs.cancelled) != 1 {
		t.Errorf("delete should cancel the job, got %v", jobs.cancelled)
	}
}

func TestHandler_GetReminder_OtherUser(t *testing.T) {
	h, _, e := newTestHandler()
	r := validReminder(uuid.New())
	if err := h.svc.Create(context.Background(), r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c, _ := requestAs(e, http.MethodGet, "", uuid.New())
	c.SetParamNames("id")
	c.SetParamValues(r.ID.String())
	err := h.GetReminder(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
}

func TestHandler_ListReminders(t *testing.T) {
	h, _, e := newTestHandler()
	userID := uuid.New()
	if err := h.svc.Create(context.Background(), validReminder(userID)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := h.svc.Create(context.Background(), validReminder(uuid.New())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c, rec := requestAs(e, http.MethodGet, "", userID)
	if err := h.ListReminders(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"total":1`) {
		t.Errorf("expected only own reminders: %s", rec.Body.String())
	}
}
