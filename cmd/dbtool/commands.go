package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jacksonlee411/peopleops/internal/jobs"
	"github.com/jacksonlee411/peopleops/internal/platform/config"
	"github.com/jacksonlee411/peopleops/internal/platform/logging"
	"github.com/jacksonlee411/peopleops/internal/platform/postgres"
	iamtypes "github.com/jacksonlee411/peopleops/modules/iam/domain/types"
	iamservices "github.com/jacksonlee411/peopleops/modules/iam/services"
	"github.com/jacksonlee411/peopleops/pkg/authz"
	"github.com/spf13/cobra"
)

func loadConfig(path *string) (*config.Config, error) {
	return config.Load(config.EffectivePath(*path))
}

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate <up|down|version>",
		Short:     "Apply, roll back or inspect the embedded schema migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Logging)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			m, err := postgres.NewMigrator(cfg.Database.DSN())
			if err != nil {
				return err
			}
			defer func() { _, _ = m.Close() }()
			return postgres.RunMigration(m, args[0], logger)
		},
	}
}

func backupCmd(configPath *string) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a one-off JSON backup of every table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.Backup.Dir
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
			defer cancel()
			pool, err := postgres.NewPool(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()

			runner := &jobs.BackupRunner{Source: jobs.NewPGTableSource(pool), Dir: dir}
			res, err := runner.Run(ctx)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "output directory (defaults to backup.dir)")
	return cmd
}

func tokenCmd(configPath *string) *cobra.Command {
	var (
		id  iamtypes.Identity
		ttl time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed bearer token for local testing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if id.Role != "" && !authz.IsKnownRole(id.Role) {
				return fmt.Errorf("unknown role %q", id.Role)
			}
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			tokens, err := iamservices.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
			if err != nil {
				return err
			}
			if ttl == 0 {
				ttl = cfg.Auth.TokenTTL
			}
			raw, err := tokens.Issue(id, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), raw)
			return err
		},
	}
	cmd.Flags().StringVar(&id.Subject, "subject", "", "token subject")
	cmd.Flags().StringVar(&id.EmployeeID, "employee-id", "", "employee id claim")
	cmd.Flags().StringVar(&id.Role, "role", "", "single role claim used when no employee id is set")
	cmd.Flags().StringVar(&id.Email, "email", "", "email claim")
	cmd.Flags().StringVar(&id.CandidateID, "candidate-id", "", "candidate id claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to auth.token_ttl)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
