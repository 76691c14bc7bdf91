package main

import (
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/trezcool/cuaderno/fs"
)

const (
	targetDB    = "db"
	targetCache = "cache"
)

var gooseRunFunc = goose.RunContext // mockable

var migrationTargets = map[string]struct{ dialect, dir string }{
	targetDB:    {dialect: string(goose.DialectPostgres), dir: appfs.PostgresMigrationsDir},
	targetCache: {dialect: string(goose.DialectSQLite3), dir: appfs.SQLiteMigrationsDir},
}

func newMigrateCmd(cli *commandLine) *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "migrate COMMAND [ARGS]",
		Short: "Run goose migrations on the remote database or the local cache",
		Long: `Commands:
  up                   Migrate to the most recent version
  up-by-one            Migrate up by a single version
  up-to VERSION        Migrate up to a specific version
  down                 Roll back by one version
  down-to VERSION      Roll back to a specific version
  redo                 Re-run the latest migration
  reset                Roll back all migrations
  status               Dump the migration status
  version              Print the current version`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Usage()
				return errHelp
			}
			mt, ok := migrationTargets[target]
			if !ok {
				_ = cmd.Usage()
				return errHelp
			}

			ctx := cmd.Context()
			db, closeDB, err := cli.openMigrationDB(ctx, target)
			if err != nil {
				return err
			}
			defer closeDB()

			goose.SetBaseFS(appfs.FS)
			if err = goose.SetDialect(mt.dialect); err != nil {
				return err
			}
			return gooseRunFunc(ctx, args[0], db, mt.dir, args[1:]...)
		},
	}
	cmd.Flags().StringVar(&target, "target", targetDB, "What to migrate: db (remote PostgreSQL) or cache (local SQLite)")
	return cmd
}
