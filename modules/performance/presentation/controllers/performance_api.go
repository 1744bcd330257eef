package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/jacksonlee411/peopleops/internal/routing"
	iamtypes "github.com/jacksonlee411/peopleops/modules/iam/domain/types"
	"github.com/jacksonlee411/peopleops/modules/performance/domain/types"
	"github.com/jacksonlee411/peopleops/modules/performance/services"
	"github.com/jacksonlee411/peopleops/pkg/httpbody"
	"github.com/jacksonlee411/peopleops/pkg/httperr"
)

// Roles that may read every employee's appraisal records.
var recordReaderRoles = []string{"hr-manager", "hr-employee", "department-head"}

type PerformanceController struct {
	Appraisals     *services.AppraisalService
	Disputes       *services.DisputeService
	IdentityGetter func(ctx context.Context) (iamtypes.Identity, bool)
}

type criterionRequest struct {
	Key      string `json:"key" validate:"required,max=100"`
	Category string `json:"category" validate:"required,max=50"`
}

type createTemplateRequest struct {
	Name           string             `json:"name" validate:"required,max=200"`
	RatingScaleMin int                `json:"ratingScaleMin"`
	RatingScaleMax int                `json:"ratingScaleMax" validate:"gtfield=RatingScaleMin"`
	Criteria       []criterionRequest `json:"criteria" validate:"required,min=1,dive"`
}

type ratingRequest struct {
	CriterionKey string `json:"criterionKey" validate:"required"`
	Score        int    `json:"score"`
}

type createRecordRequest struct {
	EmployeeID string          `json:"employeeId" validate:"required,objectid"`
	TemplateID string          `json:"templateId" validate:"required,objectid"`
	Ratings    []ratingRequest `json:"ratings" validate:"required,min=1,dive"`
}

type raiseDisputeRequest struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}

type resolveDisputeRequest struct {
	Decision string          `json:"decision" validate:"required,oneof=ADJUSTED REJECTED"`
	Ratings  []ratingRequest `json:"ratings" validate:"omitempty,dive"`
	Note     string          `json:"note" validate:"max=2000"`
}

func toRatings(in []ratingRequest) []types.Rating {
	out := make([]types.Rating, 0, len(in))
	for _, r := range in {
		out = append(out, types.Rating{CriterionKey: r.CriterionKey, Score: r.Score})
	}
	return out
}

func (c PerformanceController) identity(ctx context.Context) (iamtypes.Identity, error) {
	if c.IdentityGetter == nil {
		return iamtypes.Identity{}, httperr.NewUnauthenticated("unauthenticated")
	}
	id, ok := c.IdentityGetter(ctx)
	if !ok {
		return iamtypes.Identity{}, httperr.NewUnauthenticated("unauthenticated")
	}
	return id, nil
}

func (c PerformanceController) HandleListTemplates(w http.ResponseWriter, r *http.Request) {
	out, err := c.Appraisals.ListTemplates(r.Context())
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	routing.WriteJSON(w, http.StatusOK, out)
}

func (c PerformanceController) HandleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req createTemplateRequest
	if err := httpbody.Decode(r, &req); err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	criteria := make([]types.Criterion, 0, len(req.Criteria))
	for _, cr := range req.Criteria {
		criteria = append(criteria, types.Criterion{Key: cr.Key, Category: cr.Category})
	}
	t, err := c.Appraisals.CreateTemplate(r.Context(), req.Name, req.RatingScaleMin, req.RatingScaleMax, criteria)
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	routing.WriteJSON(w, http.StatusCreated, t)
}

func (c PerformanceController) HandleGetTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := c.Appraisals.GetTemplate(r.Context(), r.PathValue("templateId"))
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	routing.WriteJSON(w, http.StatusOK, t)
}

// HandleListRecords returns every record to HR and department heads; other
// callers only see their own.
func (c PerformanceController) HandleListRecords(w http.ResponseWriter, r *http.Request) {
	id, err := c.identity(r.Context())
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	employeeID := strings.TrimSpace(r.URL.Query().Get("employeeId"))
	if !id.HasAnyRole(recordReaderRoles...) {
		if id.EmployeeID == "" {
			routing.WriteServiceError(w, r, httperr.NewForbidden("employee identity required"))
			return
		}
		employeeID = id.EmployeeID
	}
	out, err := c.Appraisals.ListRecords(r.Context(), employeeID)
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	routing.WriteJSON(w, http.StatusOK, out)
}

func (c PerformanceController) HandleCreateRecord(w http.ResponseWriter, r *http.Request) {
	id, err := c.identity(r.Context())
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	var req createRecordRequest
	if err := httpbody.Decode(r, &req); err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	rec, err := c.Appraisals.CreateRecord(r.Context(), req.EmployeeID, req.TemplateID, id.EmployeeID, toRatings(req.Ratings))
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	routing.WriteJSON(w, http.StatusCreated, rec)
}

func (c PerformanceController) HandleGetRecord(w http.ResponseWriter, r *http.Request) {
	id, err := c.identity(r.Context())
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	rec, err := c.Appraisals.GetRecord(r.Context(), r.PathValue("recordId"))
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	if !id.HasAnyRole(recordReaderRoles...) && rec.EmployeeID != id.EmployeeID {
		routing.WriteServiceError(w, r, httperr.NewNotFound("appraisal record not found"))
		return
	}
	routing.WriteJSON(w, http.StatusOK, rec)
}

func (c PerformanceController) HandleSubmitRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := c.Appraisals.Submit(r.Context(), r.PathValue("recordId"))
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	routing.WriteJSON(w, http.StatusOK, rec)
}

func (c PerformanceController) HandlePublishRecord(w http.ResponseWriter, r *http.Request) {
	res, err := c.Appraisals.Publish(r.Context(), r.PathValue("recordId"))
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	routing.WriteJSON(w, http.StatusOK, res)
}

func (c PerformanceController) HandleRaiseDispute(w http.ResponseWriter, r *http.Request) {
	id, err := c.identity(r.Context())
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	var req raiseDisputeRequest
	if err := httpbody.Decode(r, &req); err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	d, err := c.Disputes.Raise(r.Context(), r.PathValue("recordId"), id.EmployeeID, req.Reason)
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	routing.WriteJSON(w, http.StatusCreated, d)
}

func (c PerformanceController) HandleListDisputes(w http.ResponseWriter, r *http.Request) {
	status := types.DisputeStatus(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status"))))
	out, err := c.Disputes.List(r.Context(), status)
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	routing.WriteJSON(w, http.StatusOK, out)
}

func (c PerformanceController) HandleResolveDispute(w http.ResponseWriter, r *http.Request) {
	var req resolveDisputeRequest
	if err := httpbody.Decode(r, &req); err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	res, err := c.Disputes.Resolve(r.Context(), r.PathValue("disputeId"), types.DisputeStatus(req.Decision), toRatings(req.Ratings), req.Note)
	if err != nil {
		routing.WriteServiceError(w, r, err)
		return
	}
	routing.WriteJSON(w, http.StatusOK, res)
}
