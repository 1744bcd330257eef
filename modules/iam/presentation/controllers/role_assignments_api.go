package controllers

import (
	"net/http"

	"github.com/jacksonlee411/peopleops/internal/routing"
	"github.com/jacksonlee411/peopleops/modules/iam/services"
	"github.com/jacksonlee411/peopleops/pkg/httpbody"
)

type RoleAssignmentsController struct {
	Service services.RoleAssignmentService
}

type roleAssignmentRequest struct {
	Roles    []string `json:"roles" validate:"required,min=1"`
	IsActive *bool    `json:"isActive"`
}

func (c RoleAssignmentsController) HandleGet(w http.ResponseWriter, r *http.Request) {
	a, err := c.Service.Get(r.Context(), r.PathValue("employeeId"))
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	routing.WriteJSON(w, http.StatusOK, a)
}

func (c RoleAssignmentsController) HandlePut(w http.ResponseWriter, r *http.Request) {
	var req roleAssignmentRequest
	if err := httpbody.Decode(r, &req); err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	a, err := c.Service.Assign(r.Context(), r.PathValue("employeeId"), req.Roles, active)
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	routing.WriteJSON(w, http.StatusOK, a)
}
