package chat

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

func newTestHandler() (*Handler, *Service, *echo.Echo) {
	svc, _ := newTestService()
	return NewHandler(svc), svc, echo.New()
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

func TestHandler_StartConversation(t *testing.T) {
	h, _, e := newTestHandler()
	c, rec := requestAs(e, http.MethodPost, `{"title":"headache"}`, uuid.New())

	if err := h.StartConversation(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"title":"headache"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestHandler_StartConversation_Unauthenticated(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"x"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.StartConversation(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestHandler_SendMessage(t *testing.T) {
	h, svc, e := newTestHandler()
	userID := uuid.New()
	conv, err := svc.StartConversation(context.Background(), userID, "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c, rec := requestAs(e, http.MethodPost, `{"content":"I have a headache"}`, userID)
	c.SetParamNames("id")
	c.SetParamValues(conv.ID.String())

	if err := h.SendMessage(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"role":"assistant"`) {
		t.Errorf("expected assistant reply, got %s", rec.Body.String())
	}
}

func TestHandler_SendMessage_EmptyContent(t *testing.T) {
	h, svc, e := newTestHandler()
	userID := uuid.New()
	conv, err := svc.StartConversation(context.Background(), userID, "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c, _ := requestAs(e, http.MethodPost, `{"content":""}`, userID)
	c.SetParamNames("id")
	c.SetParamValues(conv.ID.String())

	err = h.SendMessage(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_ListMessages_ForeignConversation(t *testing.T) {
	h, svc, e := newTestHandler()
	conv, err := svc.StartConversation(context.Background(), uuid.New(), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c, _ := requestAs(e, http.MethodGet, "", uuid.New())
	c.SetParamNames("id")
	c.SetParamValues(conv.ID.String())

	err = h.ListMessages(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %v", err)
	}
}

func TestHandler_DeleteConversation_NotFound(t *testing.T) {
	h, _, e := newTestHandler()
	c, _ := requestAs(e, http.MethodDelete, "", uuid.New())
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	err := h.DeleteConversation(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}
