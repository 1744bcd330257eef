package controllers

import (
	"net/http"
	"strings"

	"github.com/jacksonlee411/peopleops/internal/routing"
	"github.com/jacksonlee411/peopleops/modules/lifecycle/services"
	"github.com/jacksonlee411/peopleops/pkg/httpbody"
	"github.com/shopspring/decimal"
)

type LifecycleController struct {
	Service *services.LifecycleService
}

type createSigningBonusRequest struct {
	EmployeeID string          `json:"employeeId" validate:"required,objectid"`
	Amount     decimal.Decimal `json:"amount"`
}

type createTerminationRequest struct {
	EmployeeID    string          `json:"employeeId" validate:"required,objectid"`
	Type          string          `json:"type" validate:"required"`
	Reason        string          `json:"reason" validate:"max=2000"`
	BenefitAmount decimal.Decimal `json:"benefitAmount"`
}

func (c LifecycleController) HandleListSigningBonuses(w http.ResponseWriter, r *http.Request) {
	out, err := c.Service.ListSigningBonuses(r.Context(), strings.TrimSpace(r.URL.Query().Get("employeeId")))
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	routing.WriteJSON(w, http.StatusOK, out)
}

func (c LifecycleController) HandleCreateSigningBonus(w http.ResponseWriter, r *http.Request) {
	var req createSigningBonusRequest
	if err := httpbody.Decode(r, &req); err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	b, err := c.Service.CreateSigningBonus(r.Context(), req.EmployeeID, req.Amount)
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	routing.WriteJSON(w, http.StatusCreated, b)
}

func (c LifecycleController) HandleApproveSigningBonus(w http.ResponseWriter, r *http.Request) {
	b, err := c.Service.ApproveSigningBonus(r.Context(), r.PathValue("bonusId"))
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	routing.WriteJSON(w, http.StatusOK, b)
}

func (c LifecycleController) HandleListTerminations(w http.ResponseWriter, r *http.Request) {
	out, err := c.Service.ListTerminations(r.Context(), strings.TrimSpace(r.URL.Query().Get("employeeId")))
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	routing.WriteJSON(w, http.StatusOK, out)
}

func (c LifecycleController) HandleCreateTermination(w http.ResponseWriter, r *http.Request) {
	var req createTerminationRequest
	if err := httpbody.Decode(r, &req); err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	t, err := c.Service.CreateTermination(r.Context(), req.EmployeeID, req.Type, req.Reason, req.BenefitAmount)
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	routing.WriteJSON(w, http.StatusCreated, t)
}

func (c LifecycleController) HandleApproveTermination(w http.ResponseWriter, r *http.Request) {
	t, err := c.Service.ApproveTermination(r.Context(), r.PathValue("terminationId"))
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	routing.WriteJSON(w, http.StatusOK, t)
}
