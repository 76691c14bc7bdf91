package main

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/cuaderno/core"
	"github.com/trezcool/cuaderno/core/backup"
	"github.com/trezcool/cuaderno/core/planner"
	emailsvc "github.com/trezcool/cuaderno/services/email"
	s3store "github.com/trezcool/cuaderno/storage/blob/s3"
	sqlitecache "github.com/trezcool/cuaderno/storage/cache/sqlite"
	"github.com/trezcool/cuaderno/storage/database"
	inmemdb "github.com/trezcool/cuaderno/storage/database/inmem"
	sqlxrepos "github.com/trezcool/cuaderno/storage/database/sqlx"

	appfs "github.com/trezcool/cuaderno/fs"
)

var errNoPostgres = errors.New("database.engine is not postgres: no remote database to migrate")

func (cli *commandLine) defaultMigrationDB(ctx context.Context, target string) (*sql.DB, func(), error) {
	if target == targetCache {
		if err := os.MkdirAll(filepath.Dir(cli.conf.Cache.Path), 0o750); err != nil {
			return nil, nil, errors.Wrap(err, "creating cache dir")
		}
		db, err := sqlx.Open("sqlite", cli.conf.Cache.Path)
		if err != nil {
			return nil, nil, errors.Wrap(err, "opening local cache")
		}
		return db.DB, func() { _ = db.Close() }, nil
	}

	if cli.conf.Database.Engine != "postgres" {
		return nil, nil, errNoPostgres
	}
	if err := database.CreateIfNotExist(ctx, cli.conf); err != nil {
		return nil, nil, errors.Wrap(err, "preparing database")
	}
	db, err := database.Open(cli.conf)
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening database")
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, errors.Wrap(err, "pinging database")
	}
	return db.DB, func() { _ = db.Close() }, nil
}

// defaultPlanner wires the planner like the API does; load runs the remote/cache loading.
func (cli *commandLine) defaultPlanner(ctx context.Context, load bool) (*planner.Service, planner.Cache, func(), error) {
	var (
		repo    planner.Repository
		prepare func(context.Context) error
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch cli.conf.Database.Engine {
	case "postgres":
		db, err := database.Open(cli.conf)
		if err != nil {
			return nil, nil, nil, errors.Wrap(err, "opening database")
		}
		closers = append(closers, func() { _ = db.Close() })
		repo = sqlxrepos.NewRepository(db)
		prepare = func(ctx context.Context) error { return database.Prepare(ctx, cli.conf, db) }
	case "memory":
		repo = inmemdb.NewRepository(inmemdb.Open())
	}

	cache, err := sqlitecache.Open(ctx, cli.conf.Cache.Path)
	if err != nil {
		closeAll()
		return nil, nil, nil, errors.Wrap(err, "opening local cache")
	}
	closers = append(closers, func() { _ = cache.Close() })

	validate := validator.New()
	core.InitValidators(validate)
	planner.InitValidators(validate)

	svc := planner.NewService(planner.Deps{
		Repo:     repo,
		Prepare:  prepare,
		Cache:    cache,
		Logger:   cli.logger,
		Validate: validate,
	})
	if load {
		if err = svc.Load(ctx); err != nil {
			closeAll()
			return nil, nil, nil, errors.Wrap(err, "loading planner data")
		}
	}
	return svc, cache, closeAll, nil
}

func (cli *commandLine) defaultBackups(ctx context.Context, svc *planner.Service) (*backup.Service, error) {
	deps := backup.Deps{
		Planner:      svc,
		Logger:       cli.logger,
		TeacherEmail: cli.conf.TeacherEmail,
	}
	if cli.conf.Backup.S3Bucket != "" {
		store, err := s3store.New(ctx, cli.conf.Backup)
		if err != nil {
			return nil, errors.Wrap(err, "setting up S3")
		}
		deps.Store = store
	}
	switch {
	case cli.conf.SendgridApiKey != "":
		deps.Mailer = emailsvc.NewSendgridService(cli.conf, cli.logger)
	case cli.conf.Debug:
		deps.Mailer = emailsvc.NewConsoleService(cli.conf, cli.logger)
	}
	if deps.Mailer != nil {
		core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, false, cli.logger)
	}
	return backup.NewService(deps), nil
}
