package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/aegismedix/cortex/internal/platform/auth"
)

func newHandlerContext(ctx context.Context, method, target string, names []string, values []string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c, rec
}

func TestHandler_ListAndUnreadCount(t *testing.T) {
	svc := NewService(newMockRepo())
	h := NewHandler(svc)
	pid := uuid.New()
	ctx := context.Background()
	svc.Notify(ctx, pid, "Time for Aspirin", "Take 100mg", TypeReminder)
	svc.Notify(ctx, pid, "Welcome", "", "")

	c, rec := newHandlerContext(ctx, http.MethodGet, "/?limit=1", []string{"id"}, []string{pid.String()})
	if err := h.List(c); err != nil {
		t.Fatalf("List: %v", err)
	}
	var items []Notification
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Welcome" {
		t.Errorf("unexpected items %+v", items)
	}

	c, rec = newHandlerContext(ctx, http.MethodGet, "/", []string{"id"}, []string{pid.String()})
	if err := h.UnreadCount(c); err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	var count struct {
		Count int `json:"count"`
	}
	json.Unmarshal(rec.Body.Bytes(), &count)
	if count.Count != 2 {
		t.Errorf("expected count 2, got %d", count.Count)
	}

	c, rec = newHandlerContext(ctx, http.MethodPut, "/", []string{"id"}, []string{pid.String()})
	if err := h.MarkAllRead(c); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if n, _ := svc.UnreadCount(ctx, pid); n != 0 {
		t.Errorf("expected all read, %d unread", n)
	}
}

func TestHandler_MarkReadScopedToCaller(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	h := NewHandler(svc)
	owner := uuid.New()
	n, _ := svc.Notify(context.Background(), owner, "Time for Aspirin", "", TypeReminder)

	c, _ := newHandlerContext(context.Background(), http.MethodPut, "/",
		[]string{"notificationId"}, []string{n.ID.String()})
	err := h.MarkRead(c)
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %v", err)
	}

	stranger := auth.WithUser(context.Background(), uuid.New().String(), "authenticated")
	c, _ = newHandlerContext(stranger, http.MethodPut, "/",
		[]string{"notificationId"}, []string{n.ID.String()})
	err = h.MarkRead(c)
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another patient, got %v", err)
	}
	if repo.items[n.ID].IsRead {
		t.Fatal("notification must stay unread")
	}

	self := auth.WithUser(context.Background(), owner.String(), "authenticated")
	c, rec := newHandlerContext(self, http.MethodPut, "/",
		[]string{"notificationId"}, []string{n.ID.String()})
	if err := h.MarkRead(c); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if rec.Code != http.StatusNoContent || !repo.items[n.ID].IsRead {
		t.Errorf("expected 204 and read, got %d and %v", rec.Code, repo.items[n.ID].IsRead)
	}
}

func TestHandler_DeleteScopedToCaller(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	h := NewHandler(svc)
	owner := uuid.New()
	n, _ := svc.Notify(context.Background(), owner, "Welcome", "", "")

	stranger := auth.WithUser(context.Background(), uuid.New().String(), "authenticated")
	c, _ := newHandlerContext(stranger, http.MethodDelete, "/",
		[]string{"notificationId"}, []string{n.ID.String()})
	err := h.Delete(c)
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
	if len(repo.items) != 1 {
		t.Fatal("notification must not be deleted by another patient")
	}

	self := auth.WithUser(context.Background(), owner.String(), "authenticated")
	c, rec := newHandlerContext(self, http.MethodDelete, "/",
		[]string{"notificationId"}, []string{n.ID.String()})
	if err := h.Delete(c); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if rec.Code != http.StatusNoContent || len(repo.items) != 0 {
		t.Errorf("expected 204 and empty inbox, got %d and %d", rec.Code, len(repo.items))
	}
}
