package postgres

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"go.uber.org/zap"
)

type fakeMigrator struct {
	upErr      error
	downErr    error
	version    uint
	dirty      bool
	versionErr error
	calls      []string
}

func (f *fakeMigrator) Up() error {
	f.calls = append(f.calls, "up")
	return f.upErr
}

func (f *fakeMigrator) Down() error {
	f.calls = append(f.calls, "down")
	return f.downErr
}

func (f *fakeMigrator) Version() (uint, bool, error) {
	f.calls = append(f.calls, "version")
	return f.version, f.dirty, f.versionErr
}

func TestRunMigration(t *testing.T) {
	logger := zap.NewNop()

	f := &fakeMigrator{upErr: migrate.ErrNoChange}
	if err := RunMigration(f, "up", logger); err != nil {
		t.Fatalf("no change must not fail: %v", err)
	}

	f = &fakeMigrator{downErr: errors.New("dirty")}
	if err := RunMigration(f, "down", logger); err == nil {
		t.Fatal("expected error")
	}

	f = &fakeMigrator{versionErr: migrate.ErrNilVersion}
	if err := RunMigration(f, "version", logger); err != nil {
		t.Fatalf("err=%v", err)
	}

	f = &fakeMigrator{version: 3}
	if err := RunMigration(f, "version", logger); err != nil {
		t.Fatalf("err=%v", err)
	}

	if err := RunMigration(f, "drop", logger); err == nil {
		t.Fatal("expected unsupported action")
	}
}
