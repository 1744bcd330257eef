package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/jacksonlee411/peopleops/internal/routing"
	iamtypes "github.com/jacksonlee411/peopleops/modules/iam/domain/types"
	"github.com/jacksonlee411/peopleops/modules/payroll/domain/types"
	"github.com/jacksonlee411/peopleops/modules/payroll/services"
	"github.com/jacksonlee411/peopleops/pkg/httpbody"
	"github.com/jacksonlee411/peopleops/pkg/httperr"
)

type PayrollExecutionController struct {
	Orchestrator   *services.DraftOrchestrator
	Exceptions     services.ExceptionsService
	IdentityGetter func(ctx context.Context) (iamtypes.Identity, bool)
}

type generateDraftRequest struct {
	PayrollPeriod string   `json:"payrollPeriod" validate:"required"`
	Entity        string   `json:"entity" validate:"required,max=200"`
	EmployeeIDs   []string `json:"employeeIds" validate:"omitempty,dive,objectid"`
}

type flagExceptionsRequest struct {
	Exceptions string `json:"exceptions" validate:"required,max=4000"`
}

// parsePeriod accepts a calendar date or an RFC 3339 timestamp.
func parsePeriod(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, httperr.NewBadRequest("invalid payrollPeriod")
}

func (c PayrollExecutionController) caller(ctx context.Context) string {
	if c.IdentityGetter == nil {
		return ""
	}
	id, ok := c.IdentityGetter(ctx)
	if !ok {
		return ""
	}
	if id.EmployeeID != "" {
		return id.EmployeeID
	}
	return id.Subject
}

func (c PayrollExecutionController) HandleGenerateDraft(w http.ResponseWriter, r *http.Request) {
	var req generateDraftRequest
	if err := httpbody.Decode(r, &req); err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	period, err := parsePeriod(req.PayrollPeriod)
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}

	res, err := c.Orchestrator.GenerateDraft(r.Context(), types.DraftRequest{
		Period:      period,
		Entity:      req.Entity,
		EmployeeIDs: req.EmployeeIDs,
		CreatedBy:   c.caller(r.Context()),
	})
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	status := http.StatusCreated
	if res.Status == types.DraftStatusNoEmployees {
		status = http.StatusOK
	}
	routing.WriteJSON(w, status, res)
}

func (c PayrollExecutionController) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := c.Orchestrator.GetAllPayrollRuns(r.Context())
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	routing.WriteJSON(w, http.StatusOK, runs)
}

func (c PayrollExecutionController) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := c.Orchestrator.GetPayrollRunByID(r.Context(), r.PathValue("runId"))
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	routing.WriteJSON(w, http.StatusOK, run)
}

func (c PayrollExecutionController) HandleRunEmployees(w http.ResponseWriter, r *http.Request) {
	only := strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("onlyExceptions")), "true")
	details, err := c.Orchestrator.GetRunEmployees(r.Context(), r.PathValue("runId"), only)
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	routing.WriteJSON(w, http.StatusOK, details)
}

func (c PayrollExecutionController) HandlePublishRun(w http.ResponseWriter, r *http.Request) {
	run, err := c.Orchestrator.PublishRun(r.Context(), r.PathValue("runId"))
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	routing.WriteJSON(w, http.StatusOK, run)
}

func (c PayrollExecutionController) HandleGetExceptions(w http.ResponseWriter, r *http.Request) {
	items, err := c.Exceptions.GetExceptions(r.Context(), r.PathValue("runId"), r.URL.Query().Get("employeeId"))
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	routing.WriteJSON(w, http.StatusOK, items)
}

func (c PayrollExecutionController) HandleFlagExceptions(w http.ResponseWriter, r *http.Request) {
	var req flagExceptionsRequest
	if err := httpbody.Decode(r, &req); err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	items, err := c.Exceptions.FlagExceptions(r.Context(), r.PathValue("runId"), r.PathValue("employeeId"), req.Exceptions)
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	routing.WriteJSON(w, http.StatusOK, items)
}

func (c PayrollExecutionController) HandleClearExceptions(w http.ResponseWriter, r *http.Request) {
	if err := c.Exceptions.ClearExceptions(r.Context(), r.PathValue("runId"), r.PathValue("employeeId")); err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c PayrollExecutionController) HandleClearException(w http.ResponseWriter, r *http.Request) {
	if err := c.Exceptions.ClearException(r.Context(), r.PathValue("runId"), r.PathValue("employeeId"), r.PathValue("exceptionId")); err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
