// Package jobs holds the scheduled background work: the database backup.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/jacksonlee411/peopleops/pkg/httperr"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ErrBackupInProgress is returned when a backup is requested while another
// one is still running.
var ErrBackupInProgress = httperr.NewConflict("Backup already in progress")

// TableSource exports every backed-up table as JSON rows from one
// consistent snapshot.
type TableSource interface {
	ExportTables(ctx context.Context) (map[string]json.RawMessage, error)
}

type BackupResult struct {
	File       string         `json:"file"`
	Tables     map[string]int `json:"tables"`
	StartedAt  time.Time      `json:"startedAt"`
	FinishedAt time.Time      `json:"finishedAt"`
}

type backupDocument struct {
	CreatedAt time.Time                  `json:"createdAt"`
	Tables    map[string]json.RawMessage `json:"tables"`
}

type BackupRunner struct {
	Source TableSource
	Dir    string
	NowUTC func() time.Time

	running atomic.Bool
}

func (b *BackupRunner) now() time.Time {
	if b.NowUTC != nil {
		return b.NowUTC()
	}
	return time.Now().UTC()
}

// Run writes <Dir>/backup-<timestamp>.json. Only one run is active at a
// time; a concurrent call fails fast with ErrBackupInProgress.
func (b *BackupRunner) Run(ctx context.Context) (BackupResult, error) {
	if !b.running.CompareAndSwap(false, true) {
		return BackupResult{}, ErrBackupInProgress
	}
	defer b.running.Store(false)

	started := b.now()
	tables, err := b.Source.ExportTables(ctx)
	if err != nil {
		return BackupResult{}, fmt.Errorf("backup: export: %w", err)
	}

	if err := os.MkdirAll(b.Dir, 0o750); err != nil {
		return BackupResult{}, fmt.Errorf("backup: create dir: %w", err)
	}
	name := uniqueBackupName(b.Dir, started)
	if err := writeFileAtomic(name, backupDocument{CreatedAt: started, Tables: tables}); err != nil {
		return BackupResult{}, err
	}

	res := BackupResult{File: name, Tables: make(map[string]int, len(tables)), StartedAt: started, FinishedAt: b.now()}
	for table, rows := range tables {
		res.Tables[table] = countRows(rows)
	}
	return res, nil
}

const backupStamp = "20060102T150405.000Z"

// uniqueBackupName never returns an existing path, so a run landing in the
// same millisecond as an earlier one gets a numeric suffix.
func uniqueBackupName(dir string, at time.Time) string {
	base := filepath.Join(dir, "backup-"+at.Format(backupStamp))
	name := base + ".json"
	for i := 1; ; i++ {
		if _, err := os.Lstat(name); err != nil {
			return name
		}
		name = fmt.Sprintf("%s-%d.json", base, i)
	}
}

func writeFileAtomic(name string, doc backupDocument) error {
	tmp, err := os.CreateTemp(filepath.Dir(name), ".backup-*.tmp")
	if err != nil {
		return fmt.Errorf("backup: create temp: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	enc := json.NewEncoder(tmp)
	if err := enc.Encode(doc); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("backup: encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("backup: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), name); err != nil {
		return fmt.Errorf("backup: rename: %w", err)
	}
	return nil
}

func countRows(rows json.RawMessage) int {
	var items []json.RawMessage
	if err := json.Unmarshal(rows, &items); err != nil {
		return 0
	}
	return len(items)
}

// Schedule registers the backup on c. Failures are logged; a run that
// overlaps a manual backup is skipped with a warning.
func Schedule(c *cron.Cron, spec string, runner *BackupRunner, logger *zap.Logger, timeout time.Duration) (cron.EntryID, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return c.AddFunc(spec, func() {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		res, err := runner.Run(ctx)
		switch {
		case errors.Is(err, ErrBackupInProgress):
			logger.Warn("scheduled backup skipped", zap.Error(err))
		case err != nil:
			logger.Error("scheduled backup failed", zap.Error(err))
		default:
			logger.Info("scheduled backup written", zap.String("file", res.File), zap.Any("tables", res.Tables))
		}
	})
}
