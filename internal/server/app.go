package server

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jacksonlee411/peopleops/internal/jobs"
	"github.com/jacksonlee411/peopleops/internal/platform/config"
	iampersistence "github.com/jacksonlee411/peopleops/modules/iam/infrastructure/persistence"
	iamcontrollers "github.com/jacksonlee411/peopleops/modules/iam/presentation/controllers"
	iamservices "github.com/jacksonlee411/peopleops/modules/iam/services"
	lifecyclepersistence "github.com/jacksonlee411/peopleops/modules/lifecycle/infrastructure/persistence"
	lifecyclecontrollers "github.com/jacksonlee411/peopleops/modules/lifecycle/presentation/controllers"
	lifecycleservices "github.com/jacksonlee411/peopleops/modules/lifecycle/services"
	notifpersistence "github.com/jacksonlee411/peopleops/modules/notification/infrastructure/persistence"
	notifcontrollers "github.com/jacksonlee411/peopleops/modules/notification/presentation/controllers"
	notifservices "github.com/jacksonlee411/peopleops/modules/notification/services"
	payrollpersistence "github.com/jacksonlee411/peopleops/modules/payroll/infrastructure/persistence"
	payrollcontrollers "github.com/jacksonlee411/peopleops/modules/payroll/presentation/controllers"
	payrollservices "github.com/jacksonlee411/peopleops/modules/payroll/services"
	payrollconfigpersistence "github.com/jacksonlee411/peopleops/modules/payrollconfig/infrastructure/persistence"
	payrollconfigcontrollers "github.com/jacksonlee411/peopleops/modules/payrollconfig/presentation/controllers"
	payrollconfigservices "github.com/jacksonlee411/peopleops/modules/payrollconfig/services"
	perfpersistence "github.com/jacksonlee411/peopleops/modules/performance/infrastructure/persistence"
	perfcontrollers "github.com/jacksonlee411/peopleops/modules/performance/presentation/controllers"
	perfservices "github.com/jacksonlee411/peopleops/modules/performance/services"
	"github.com/jacksonlee411/peopleops/pkg/authz"
	"go.uber.org/zap"
)

// App is the wired process: the HTTP handler plus the backup runner the
// scheduler shares with the manual trigger.
type App struct {
	Handler http.Handler
	Backup  *jobs.BackupRunner
	Tokens  *iamservices.TokenService
}

// NewApp builds every store, service and controller over one pool.
func NewApp(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger *zap.Logger) (*App, error) {
	tokens, err := iamservices.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	if err != nil {
		return nil, err
	}
	mode, err := authz.ParseMode(cfg.Authz.Mode)
	if err != nil {
		return nil, err
	}

	roles := iamservices.NewRoleAssignmentService(iampersistence.NewRoleAssignmentPGStore(pool))

	notifications := notifservices.NewNotificationService(
		notifpersistence.NewRecipientDirectoryPG(pool),
		notifpersistence.NewNotificationPGStore(pool),
	)
	sink := notifservices.NewBestEffortSink(notifications, logger.Named("notifications"))

	guard, err := payrollconfigservices.NewRegoEditGuard(ctx)
	if err != nil {
		return nil, err
	}
	payrollConfig := payrollconfigservices.NewConfigService(payrollconfigpersistence.NewConfigPGStore(pool), guard)

	detector, err := payrollservices.NewRuleExceptionDetector(cfg.Payroll.SalarySpikeRatio)
	if err != nil {
		return nil, err
	}
	runs := payrollpersistence.NewRunPGStore(pool)
	details := payrollpersistence.NewDetailPGStore(pool)
	orchestrator := &payrollservices.DraftOrchestrator{
		Employees: payrollpersistence.NewEmployeePGSource(pool),
		Inference: payrollservices.HREventInference{Records: payrollpersistence.NewHRRecordPGSource(pool)},
		Detector:  detector,
		Config:    payrollConfig,
		History:   details,
		Runs:      runs,
		Details:   details,
		Sink:      sink,
		Logger:    logger.Named("payroll"),
	}

	appraisals := &perfservices.AppraisalService{
		Templates:        perfpersistence.NewTemplatePGStore(pool),
		Records:          perfpersistence.NewRecordPGStore(pool),
		Sink:             sink,
		WarningThreshold: cfg.Performance.LowScoreThreshold,
	}
	disputes := &perfservices.DisputeService{
		Appraisals: appraisals,
		Disputes:   perfpersistence.NewDisputePGStore(pool),
		Sink:       sink,
	}

	lifecycleStore := lifecyclepersistence.NewLifecyclePGStore(pool)
	lifecycle := &lifecycleservices.LifecycleService{
		Bonuses:      lifecycleStore,
		Terminations: lifecycleStore,
		Sink:         sink,
	}

	backup := &jobs.BackupRunner{Source: jobs.NewPGTableSource(pool), Dir: cfg.Backup.Dir}

	h, err := NewHandler(HandlerOptions{
		RoutesPath: cfg.Authz.RoutesPath,
		AuthzMode:  mode,
		Logger:     logger.Named("http"),
		Tokens:     tokens,
		Roles:      roles,

		PayrollExecution: payrollcontrollers.PayrollExecutionController{
			Orchestrator: orchestrator,
			Exceptions:   payrollservices.ExceptionsService{Runs: runs, Details: details},
		},
		PayrollConfig:   payrollconfigcontrollers.PayrollConfigController{Service: payrollConfig},
		Performance:     perfcontrollers.PerformanceController{Appraisals: appraisals, Disputes: disputes},
		Lifecycle:       lifecyclecontrollers.LifecycleController{Service: lifecycle},
		Notifications:   notifcontrollers.NotificationsController{Service: notifications},
		RoleAssignments: iamcontrollers.RoleAssignmentsController{Service: roles},
		Backups:         backup,
	})
	if err != nil {
		return nil, err
	}
	return &App{Handler: h, Backup: backup, Tokens: tokens}, nil
}
