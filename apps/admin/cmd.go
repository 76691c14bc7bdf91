package main

import (
	"context"
	"database/sql"
	"fmt"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trezcool/cuaderno/core"
	"github.com/trezcool/cuaderno/core/auth"
	"github.com/trezcool/cuaderno/core/backup"
	"github.com/trezcool/cuaderno/core/planner"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf   *core.Config
	logger core.Logger

	// resources are opened on demand, by the commands that need them
	openMigrationDB func(ctx context.Context, target string) (*sql.DB, func(), error)
	openPlanner     func(ctx context.Context, load bool) (*planner.Service, planner.Cache, func(), error)
	openBackups     func(ctx context.Context, svc *planner.Service) (*backup.Service, error)
}

func newCommandLine(conf *core.Config, logger core.Logger) *commandLine {
	cli := &commandLine{conf: conf, logger: logger}
	cli.openMigrationDB = cli.defaultMigrationDB
	cli.openPlanner = cli.defaultPlanner
	cli.openBackups = cli.defaultBackups
	return cli
}

func newRootCmd(cli *commandLine) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "cuaderno-admin",
		Short:         "Administration tasks of the teacher's planner",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Usage()
			return errHelp
		},
	}

	cmd.AddCommand(newMigrateCmd(cli))
	cmd.AddCommand(newHashPasswordCmd(cli))
	cmd.AddCommand(newSyncCmd(cli))
	cmd.AddCommand(newExportCmd(cli))
	cmd.AddCommand(newImportCmd(cli))
	cmd.AddCommand(newBackupCmd(cli))
	return cmd
}

func newHashPasswordCmd(cli *commandLine) *cobra.Command {
	return &cobra.Command{
		Use:   "hashpassword",
		Short: "Hash the shared password for auth.passwordHash. The password is prompted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), "Enter password:")
			pwd, err := readPasswordFunc(int(syscall.Stdin))
			fmt.Fprintln(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if len(pwd) == 0 {
				_ = cmd.Usage()
				return errHelp
			}

			hash, err := auth.HashPassword(string(pwd))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
