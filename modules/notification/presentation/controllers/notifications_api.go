package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/jacksonlee411/peopleops/internal/routing"
	iamtypes "github.com/jacksonlee411/peopleops/modules/iam/domain/types"
	"github.com/jacksonlee411/peopleops/modules/notification/domain/types"
	"github.com/jacksonlee411/peopleops/modules/notification/services"
	"github.com/jacksonlee411/peopleops/pkg/httpbody"
	"github.com/jacksonlee411/peopleops/pkg/httperr"
)

type NotificationsController struct {
	Service        *services.NotificationService
	IdentityGetter func(ctx context.Context) (iamtypes.Identity, bool)
}

type broadcastRequest struct {
	Roles         []string `json:"roles"`
	DepartmentIDs []string `json:"departmentIds" validate:"omitempty,dive,objectid"`
	EmployeeIDs   []string `json:"employeeIds" validate:"omitempty,dive,objectid"`
	Title         string   `json:"title" validate:"required,max=200"`
	Message       string   `json:"message" validate:"max=4000"`
}

type broadcastResponse struct {
	Recipients int `json:"recipients"`
}

func (c NotificationsController) recipient(r *http.Request) (string, error) {
	if c.IdentityGetter == nil {
		return "", httperr.NewUnauthenticated("unauthenticated")
	}
	id, ok := c.IdentityGetter(r.Context())
	if !ok {
		return "", httperr.NewUnauthenticated("unauthenticated")
	}
	switch {
	case id.EmployeeID != "":
		return id.EmployeeID, nil
	case id.CandidateID != "":
		return id.CandidateID, nil
	default:
		return id.Subject, nil
	}
}

func (c NotificationsController) HandleList(w http.ResponseWriter, r *http.Request) {
	rid, err := c.recipient(r)
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	unread := strings.EqualFold(r.URL.Query().Get("unread"), "true")
	items, err := c.Service.ListForRecipient(r.Context(), rid, unread)
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	routing.WriteJSON(w, http.StatusOK, items)
}

func (c NotificationsController) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	rid, err := c.recipient(r)
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	n, err := c.Service.MarkRead(r.Context(), r.PathValue("notificationId"), rid)
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	routing.WriteJSON(w, http.StatusOK, n)
}

func (c NotificationsController) HandleBroadcast(w http.ResponseWriter, r *http.Request) {
	var req broadcastRequest
	if err := httpbody.Decode(r, &req); err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	n, err := c.Service.Send(r.Context(), types.Target{
		Roles:         req.Roles,
		DepartmentIDs: req.DepartmentIDs,
		EmployeeIDs:   req.EmployeeIDs,
	}, types.Message{Type: types.TypeBroadcast, Title: req.Title, Body: req.Message})
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	routing.WriteJSON(w, http.StatusAccepted, broadcastResponse{Recipients: n})
}
