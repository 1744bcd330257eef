package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	iamtypes "github.com/jacksonlee411/peopleops/modules/iam/domain/types"
	"github.com/jacksonlee411/peopleops/modules/notification/domain/types"
	"github.com/jacksonlee411/peopleops/modules/notification/services"
)

type memDirectory struct{}

func (memDirectory) EmployeesWithRoles(context.Context, []string) ([]string, error) {
	return []string{"65f1c0a2b3d4e5f601234567"}, nil
}

func (memDirectory) EmployeesInDepartments(context.Context, []string) ([]string, error) {
	return nil, nil
}

type memStore struct{ items []types.Notification }

func (s *memStore) Insert(_ context.Context, items []types.Notification) error {
	s.items = append(s.items, items...)
	return nil
}

func (s *memStore) ListForRecipient(_ context.Context, rid string, _ bool) ([]types.Notification, error) {
	out := []types.Notification{}
	for _, n := range s.items {
		if n.RecipientID == rid {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *memStore) MarkRead(context.Context, string, string) (types.Notification, error) {
	return types.Notification{}, nil
}

func TestNotificationsController_BroadcastThenList(t *testing.T) {
	store := &memStore{}
	c := NotificationsController{
		Service: services.NewNotificationService(memDirectory{}, store),
		IdentityGetter: func(context.Context) (iamtypes.Identity, bool) {
			return iamtypes.Identity{Subject: "u1", EmployeeID: "65f1c0a2b3d4e5f601234567"}, true
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/notifications/broadcast", strings.NewReader(`{"roles":["hr-manager"],"title":"Town hall"}`))
	rec := httptest.NewRecorder()
	c.HandleBroadcast(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"recipients":1`) {
		t.Fatalf("body=%s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	c.HandleList(rec, httptest.NewRequest(http.MethodGet, "/notifications", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Town hall") {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestNotificationsController_Errors(t *testing.T) {
	c := NotificationsController{Service: services.NewNotificationService(memDirectory{}, &memStore{})}

	rec := httptest.NewRecorder()
	c.HandleList(rec, httptest.NewRequest(http.MethodGet, "/notifications", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d", rec.Code)
	}

	rec = httptest.NewRecorder()
	c.HandleBroadcast(rec, httptest.NewRequest(http.MethodPost, "/notifications/broadcast", strings.NewReader(`{"roles":["hr-manager"]}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}
