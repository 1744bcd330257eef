package server

import (
	"errors"
	"net/http"

	"github.com/jacksonlee411/peopleops/internal/routing"
	iamcontrollers "github.com/jacksonlee411/peopleops/modules/iam/presentation/controllers"
	lifecyclecontrollers "github.com/jacksonlee411/peopleops/modules/lifecycle/presentation/controllers"
	notifcontrollers "github.com/jacksonlee411/peopleops/modules/notification/presentation/controllers"
	payrollcontrollers "github.com/jacksonlee411/peopleops/modules/payroll/presentation/controllers"
	payrollconfigcontrollers "github.com/jacksonlee411/peopleops/modules/payrollconfig/presentation/controllers"
	perfcontrollers "github.com/jacksonlee411/peopleops/modules/performance/presentation/controllers"
	"github.com/jacksonlee411/peopleops/pkg/authz"
	"go.uber.org/zap"
)

type HandlerOptions struct {
	// RoutesPath overrides the compiled-in route table.
	RoutesPath string
	AuthzMode  authz.Mode
	Logger     *zap.Logger

	Tokens tokenVerifier
	Roles  roleSource

	PayrollExecution payrollcontrollers.PayrollExecutionController
	PayrollConfig    payrollconfigcontrollers.PayrollConfigController
	Performance      perfcontrollers.PerformanceController
	Lifecycle        lifecyclecontrollers.LifecycleController
	Notifications    notifcontrollers.NotificationsController
	RoleAssignments  iamcontrollers.RoleAssignmentsController
	Backups          backupRunner
}

func loadRoutes(path string) (*routing.Classifier, error) {
	var (
		a   routing.Allowlist
		err error
	)
	if path != "" {
		a, err = routing.LoadAllowlist(path)
	} else {
		a, err = routing.DefaultAllowlist()
	}
	if err != nil {
		return nil, err
	}
	return routing.NewClassifier(a, "server")
}

// NewHandler builds the HTTP surface: request logging, authentication, the
// role guard, then the router.
func NewHandler(opts HandlerOptions) (http.Handler, error) {
	if opts.Tokens == nil {
		return nil, errors.New("server: missing token verifier")
	}
	if opts.Roles == nil {
		return nil, errors.New("server: missing role source")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	mode := opts.AuthzMode
	if mode == "" {
		mode = authz.ModeEnforce
	}

	classifier, err := loadRoutes(opts.RoutesPath)
	if err != nil {
		return nil, err
	}
	authorizer, err := authz.NewAuthorizer(classifier.Requirements(), mode)
	if err != nil {
		return nil, err
	}

	router := routing.NewRouter(classifier, logger)
	registerRoutes(router, opts, logger)

	var h http.Handler = router
	h = withRoleGuard(classifier, opts.Roles, authorizer, logger, h)
	h = withAuthentication(classifier, opts.Tokens, logger, h)
	h = withRequestLogging(logger, h)
	return h, nil
}

func healthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
}

func registerRoutes(router *routing.Router, opts HandlerOptions, logger *zap.Logger) {
	api := routing.RouteClassInternalAPI
	ops := routing.RouteClassOps
	handle := func(rc routing.RouteClass, method string, path string, fn http.HandlerFunc) {
		router.Handle(rc, method, path, fn)
	}

	router.Handle(ops, http.MethodGet, "/health", healthHandler())
	router.Handle(ops, http.MethodGet, "/healthz", healthHandler())

	pe := opts.PayrollExecution
	if pe.IdentityGetter == nil {
		pe.IdentityGetter = IdentityFromContext
	}
	handle(api, http.MethodPost, "/payroll/execution/drafts", pe.HandleGenerateDraft)
	handle(api, http.MethodGet, "/payroll/execution/runs", pe.HandleListRuns)
	handle(api, http.MethodGet, "/payroll/execution/runs/{runId}", pe.HandleGetRun)
	handle(api, http.MethodGet, "/payroll/execution/runs/{runId}/employees", pe.HandleRunEmployees)
	handle(api, http.MethodPost, "/payroll/execution/runs/{runId}/publish", pe.HandlePublishRun)
	handle(api, http.MethodGet, "/payroll/execution/runs/{runId}/exceptions", pe.HandleGetExceptions)
	handle(api, http.MethodPost, "/payroll/execution/runs/{runId}/exceptions/{employeeId}", pe.HandleFlagExceptions)
	handle(api, http.MethodDelete, "/payroll/execution/runs/{runId}/exceptions/{employeeId}", pe.HandleClearExceptions)
	handle(api, http.MethodDelete, "/payroll/execution/runs/{runId}/exceptions/{employeeId}/{exceptionId}", pe.HandleClearException)

	pc := opts.PayrollConfig
	if pc.IdentityGetter == nil {
		pc.IdentityGetter = IdentityFromContext
	}
	handle(api, http.MethodGet, "/payroll/config/{kind}", pc.HandleList)
	handle(api, http.MethodPost, "/payroll/config/{kind}", pc.HandleCreate)
	handle(api, http.MethodGet, "/payroll/config/{kind}/{id}", pc.HandleGet)
	handle(api, http.MethodPatch, "/payroll/config/{kind}/{id}", pc.HandleUpdate)
	handle(api, http.MethodPost, "/payroll/config/{kind}/{id}/approve", pc.HandleApprove)
	handle(api, http.MethodPost, "/payroll/config/{kind}/{id}/reject", pc.HandleReject)

	pf := opts.Performance
	if pf.IdentityGetter == nil {
		pf.IdentityGetter = IdentityFromContext
	}
	handle(api, http.MethodGet, "/performance/templates", pf.HandleListTemplates)
	handle(api, http.MethodPost, "/performance/templates", pf.HandleCreateTemplate)
	handle(api, http.MethodGet, "/performance/templates/{templateId}", pf.HandleGetTemplate)
	handle(api, http.MethodGet, "/performance/records", pf.HandleListRecords)
	handle(api, http.MethodPost, "/performance/records", pf.HandleCreateRecord)
	handle(api, http.MethodGet, "/performance/records/{recordId}", pf.HandleGetRecord)
	handle(api, http.MethodPost, "/performance/records/{recordId}/submit", pf.HandleSubmitRecord)
	handle(api, http.MethodPost, "/performance/records/{recordId}/publish", pf.HandlePublishRecord)
	handle(api, http.MethodPost, "/performance/records/{recordId}/disputes", pf.HandleRaiseDispute)
	handle(api, http.MethodGet, "/performance/disputes", pf.HandleListDisputes)
	handle(api, http.MethodPost, "/performance/disputes/{disputeId}/resolve", pf.HandleResolveDispute)

	lc := opts.Lifecycle
	handle(api, http.MethodGet, "/recruitment/signing-bonuses", lc.HandleListSigningBonuses)
	handle(api, http.MethodPost, "/recruitment/signing-bonuses", lc.HandleCreateSigningBonus)
	handle(api, http.MethodPost, "/recruitment/signing-bonuses/{bonusId}/approve", lc.HandleApproveSigningBonus)
	handle(api, http.MethodGet, "/offboarding/terminations", lc.HandleListTerminations)
	handle(api, http.MethodPost, "/offboarding/terminations", lc.HandleCreateTermination)
	handle(api, http.MethodPost, "/offboarding/terminations/{terminationId}/approve", lc.HandleApproveTermination)

	nc := opts.Notifications
	if nc.IdentityGetter == nil {
		nc.IdentityGetter = IdentityFromContext
	}
	handle(api, http.MethodGet, "/notifications", nc.HandleList)
	handle(api, http.MethodPost, "/notifications/{notificationId}/read", nc.HandleMarkRead)
	handle(api, http.MethodPost, "/notifications/broadcast", nc.HandleBroadcast)

	ra := opts.RoleAssignments
	handle(api, http.MethodGet, "/iam/role-assignments/{employeeId}", ra.HandleGet)
	handle(api, http.MethodPut, "/iam/role-assignments/{employeeId}", ra.HandlePut)

	router.Handle(ops, http.MethodPost, "/ops/backups", handleRunBackup(opts.Backups, logger))
}
