package controllers

import (
	"context"
	"net/http"

	"github.com/jacksonlee411/peopleops/internal/routing"
	iamtypes "github.com/jacksonlee411/peopleops/modules/iam/domain/types"
	"github.com/jacksonlee411/peopleops/modules/payrollconfig/domain/types"
	"github.com/jacksonlee411/peopleops/modules/payrollconfig/services"
	"github.com/jacksonlee411/peopleops/pkg/httpbody"
	"github.com/jacksonlee411/peopleops/pkg/httperr"
	"github.com/shopspring/decimal"
)

type PayrollConfigController struct {
	Service        *services.ConfigService
	IdentityGetter func(ctx context.Context) (iamtypes.Identity, bool)
}

type configRecordRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Amount      *decimal.Decimal `json:"amount"`
	GrossAmount *decimal.Decimal `json:"grossAmount"`
	RatePercent *decimal.Decimal `json:"ratePercent"`
	MinAmount   *decimal.Decimal `json:"minAmount"`
	MaxAmount   *decimal.Decimal `json:"maxAmount"`
}

func (req configRecordRequest) input() types.RecordInput {
	return types.RecordInput{
		Name:        req.Name,
		Amount:      req.Amount,
		GrossAmount: req.GrossAmount,
		RatePercent: req.RatePercent,
		MinAmount:   req.MinAmount,
		MaxAmount:   req.MaxAmount,
	}
}

func (c PayrollConfigController) actor(ctx context.Context) (types.Actor, error) {
	if c.IdentityGetter == nil {
		return types.Actor{}, httperr.NewUnauthenticated("unauthenticated")
	}
	id, ok := c.IdentityGetter(ctx)
	if !ok {
		return types.Actor{}, httperr.NewUnauthenticated("unauthenticated")
	}
	actorID := id.EmployeeID
	if actorID == "" {
		actorID = id.Subject
	}
	return types.Actor{ID: actorID, Roles: id.EffectiveRoles()}, nil
}

func (c PayrollConfigController) HandleList(w http.ResponseWriter, r *http.Request) {
	kind, err := types.ParseKind(r.PathValue("kind"))
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	status, err := types.ParseStatus(r.URL.Query().Get("status"))
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	out, err := c.Service.List(r.Context(), kind, status)
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	routing.WriteJSON(w, http.StatusOK, out)
}

func (c PayrollConfigController) HandleCreate(w http.ResponseWriter, r *http.Request) {
	kind, err := types.ParseKind(r.PathValue("kind"))
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	actor, err := c.actor(r.Context())
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	var req configRecordRequest
	if err := httpbody.Decode(r, &req); err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	rec, err := c.Service.Create(r.Context(), kind, req.input(), actor)
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	routing.WriteJSON(w, http.StatusCreated, rec)
}

func (c PayrollConfigController) HandleGet(w http.ResponseWriter, r *http.Request) {
	kind, err := types.ParseKind(r.PathValue("kind"))
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	rec, err := c.Service.Get(r.Context(), kind, r.PathValue("id"))
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	routing.WriteJSON(w, http.StatusOK, rec)
}

func (c PayrollConfigController) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	kind, err := types.ParseKind(r.PathValue("kind"))
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	actor, err := c.actor(r.Context())
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	var req configRecordRequest
	if err := httpbody.Decode(r, &req); err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	rec, err := c.Service.Update(r.Context(), kind, r.PathValue("id"), req.input(), actor)
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	routing.WriteJSON(w, http.StatusOK, rec)
}

func (c PayrollConfigController) HandleApprove(w http.ResponseWriter, r *http.Request) {
	c.handleDecision(w, r, c.Service.Approve)
}

func (c PayrollConfigController) HandleReject(w http.ResponseWriter, r *http.Request) {
	c.handleDecision(w, r, c.Service.Reject)
}

func (c PayrollConfigController) handleDecision(w http.ResponseWriter, r *http.Request, decide func(context.Context, types.Kind, string, types.Actor) (types.Record, error)) {
	kind, err := types.ParseKind(r.PathValue("kind"))
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	actor, err := c.actor(r.Context())
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	rec, err := decide(r.Context(), kind, r.PathValue("id"), actor)
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	routing.WriteJSON(w, http.StatusOK, rec)
}
