package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	iamtypes "github.com/jacksonlee411/peopleops/modules/iam/domain/types"
	"github.com/jacksonlee411/peopleops/modules/performance/domain/ports"
	"github.com/jacksonlee411/peopleops/modules/performance/domain/types"
	"github.com/jacksonlee411/peopleops/modules/performance/services"
	"github.com/jacksonlee411/peopleops/pkg/httperr"
)

const ownEmployeeID = "65f1c0a2b3d4e5f601234567"

type stubRecords struct {
	lastFilter string
	byID       map[string]types.AppraisalRecord
}

func (s *stubRecords) InsertRecord(context.Context, types.AppraisalRecord) error { return nil }

func (s *stubRecords) GetRecord(_ context.Context, id string) (types.AppraisalRecord, error) {
	rec, ok := s.byID[id]
	if !ok {
		return types.AppraisalRecord{}, httperr.NewNotFound("appraisal record not found")
	}
	return rec, nil
}

func (s *stubRecords) ListRecords(_ context.Context, employeeID string) ([]types.AppraisalRecord, error) {
	s.lastFilter = employeeID
	return nil, nil
}

func (s *stubRecords) Transition(context.Context, string, types.RecordStatus, types.RecordStatus) (types.AppraisalRecord, error) {
	return types.AppraisalRecord{}, httperr.NewForbidden("wrong status")
}

func (s *stubRecords) Publish(context.Context, string, bool, time.Time, ports.SuspendDecision) (types.MinimumScoreOutcome, error) {
	return types.MinimumScoreOutcome{}, httperr.NewForbidden("wrong status")
}

func newPerformanceController(role string) (PerformanceController, *stubRecords) {
	records := &stubRecords{byID: map[string]types.AppraisalRecord{
		"65f1c0a2b3d4e5f6000000aa": {ID: "65f1c0a2b3d4e5f6000000aa", EmployeeID: "65f1c0a2b3d4e5f6ffffffff"},
	}}
	appraisals := &services.AppraisalService{Records: records}
	return PerformanceController{
		Appraisals: appraisals,
		Disputes:   &services.DisputeService{Appraisals: appraisals},
		IdentityGetter: func(context.Context) (iamtypes.Identity, bool) {
			return iamtypes.Identity{Subject: "u1", EmployeeID: ownEmployeeID, Role: role}, true
		},
	}, records
}

func TestPerformanceController_ListRecordsScopesOrdinaryEmployees(t *testing.T) {
	c, records := newPerformanceController("department-employee")

	req := httptest.NewRequest(http.MethodGet, "/performance/records?employeeId=65f1c0a2b3d4e5f6ffffffff", nil)
	rec := httptest.NewRecorder()
	c.HandleListRecords(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if records.lastFilter != ownEmployeeID {
		t.Fatalf("filter=%q", records.lastFilter)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("body=%s", rec.Body.String())
	}

	hr, records := newPerformanceController("hr-manager")
	rec = httptest.NewRecorder()
	hr.HandleListRecords(rec, httptest.NewRequest(http.MethodGet, "/performance/records", nil))
	if rec.Code != http.StatusOK || records.lastFilter != "" {
		t.Fatalf("status=%d filter=%q", rec.Code, records.lastFilter)
	}
}

func TestPerformanceController_GetRecordHidesOthers(t *testing.T) {
	c, _ := newPerformanceController("department-employee")

	req := httptest.NewRequest(http.MethodGet, "/performance/records/65f1c0a2b3d4e5f6000000aa", nil)
	req.SetPathValue("recordId", "65f1c0a2b3d4e5f6000000aa")
	rec := httptest.NewRecorder()
	c.HandleGetRecord(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestPerformanceController_ResolveValidatesDecision(t *testing.T) {
	c, _ := newPerformanceController("hr-manager")

	req := httptest.NewRequest(http.MethodPost, "/performance/disputes/x/resolve", strings.NewReader(`{"decision":"MAYBE"}`))
	req.SetPathValue("disputeId", "65f1c0a2b3d4e5f6000000bb")
	rec := httptest.NewRecorder()
	c.HandleResolveDispute(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestPerformanceController_PublishWrongStatus(t *testing.T) {
	c, _ := newPerformanceController("hr-manager")

	req := httptest.NewRequest(http.MethodPost, "/performance/records/65f1c0a2b3d4e5f6000000aa/publish", nil)
	req.SetPathValue("recordId", "65f1c0a2b3d4e5f6000000aa")
	rec := httptest.NewRecorder()
	c.HandlePublishRecord(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}
