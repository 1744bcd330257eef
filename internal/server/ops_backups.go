package server

import (
	"context"
	"net/http"

	"github.com/jacksonlee411/peopleops/internal/jobs"
	"github.com/jacksonlee411/peopleops/internal/routing"
	"go.uber.org/zap"
)

type backupRunner interface {
	Run(ctx context.Context) (jobs.BackupResult, error)
}

// handleRunBackup is the manual trigger; it shares the cron job's
// re-entrancy flag, so an overlapping call gets 409.
func handleRunBackup(runner backupRunner, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if runner == nil {
			routing.WriteError(w, r, routing.RouteClassOps, http.StatusServiceUnavailable, "backup_unavailable", "backup not configured")
			return
		}
		res, err := runner.Run(r.Context())
		if err != nil {
			logger.Warn("manual backup failed", zap.Error(err))
			routing.WriteServiceError(w, r, err)
			return
		}
		logger.Info("manual backup written", zap.String("file", res.File))
		routing.WriteJSON(w, http.StatusOK, res)
	})
}
