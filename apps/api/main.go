package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // debug endpoints
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/cuaderno/apps/api/echo"
	"github.com/trezcool/cuaderno/core"
	"github.com/trezcool/cuaderno/core/auth"
	"github.com/trezcool/cuaderno/core/backup"
	"github.com/trezcool/cuaderno/core/i18n"
	"github.com/trezcool/cuaderno/core/planner"
	appfs "github.com/trezcool/cuaderno/fs"
	emailsvc "github.com/trezcool/cuaderno/services/email"
	logsvc "github.com/trezcool/cuaderno/services/logger"
	metricsvc "github.com/trezcool/cuaderno/services/metrics"
	s3store "github.com/trezcool/cuaderno/storage/blob/s3"
	sqlitecache "github.com/trezcool/cuaderno/storage/cache/sqlite"
	"github.com/trezcool/cuaderno/storage/database"
	inmemdb "github.com/trezcool/cuaderno/storage/database/inmem"
	sqlxrepos "github.com/trezcool/cuaderno/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)
	dbLogger := logger.WithPrefix("DB : ")
	syncLogger := logger.WithPrefix("SYNC : ")

	// set up i18n & validation
	catalog, err := i18n.New(appfs.FS, appfs.LocalesDir, conf.I18n.Default)
	if err != nil {
		logger.Fatal(fmt.Sprintf("loading locales: %v", err), err)
	}
	if conf.I18n.Dir != "" {
		if err = catalog.Watch(ctx, conf.I18n.Dir, logger); err != nil {
			logger.Error(fmt.Sprintf("watching locales dir: %v", err), err)
		}
	}
	validate := validator.New()
	core.InitValidators(validate, catalog.Translators()...)
	planner.InitValidators(validate, catalog.Translators()...)

	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, conf.Debug, logger)

	// set up storage
	repo, db, prepare := setUpRemote(conf, dbLogger)
	if db != nil {
		defer func() {
			if err := db.Close(); err != nil {
				dbLogger.Error("failed to close", err)
			}
		}()
	}

	cache, err := sqlitecache.Open(ctx, conf.Cache.Path)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening local cache: %v", err), err)
	}
	defer func() {
		if err := cache.Close(); err != nil {
			logger.Error("failed to close local cache", err)
		}
	}()

	var store backup.Store
	if conf.Backup.S3Bucket != "" {
		if store, err = s3store.New(ctx, conf.Backup); err != nil {
			logger.Error(fmt.Sprintf("setting up S3 backups: %v", err), err)
			store = nil
		}
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug || conf.SendgridApiKey == "" {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	metrics := metricsvc.New()
	plannerSvc := planner.NewService(planner.Deps{
		Repo:          repo,
		Prepare:       prepare,
		Cache:         cache,
		Logger:        syncLogger,
		Validate:      validate,
		Metrics:       metrics,
		ProbeInterval: conf.Sync.ProbeInterval,
	})
	backupSvc := backup.NewService(backup.Deps{
		Planner:      plannerSvc,
		Store:        store,
		Mailer:       mailSvc,
		Logger:       logger,
		TeacherEmail: conf.TeacherEmail,
	})
	gate, err := auth.NewGate(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up auth: %v", err), err)
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	if err = plannerSvc.Load(ctx); err != nil {
		logger.Fatal(fmt.Sprintf("loading planner data: %v", err), err)
	}
	go plannerSvc.Run(ctx)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(&echoapi.Options{
		Address:        conf.Server.Address,
		AppName:        conf.AppName,
		Debug:          conf.Debug,
		TestMode:       conf.TestMode,
		DisableReqLogs: conf.Server.DisableReqLogs,
		CookieName:     conf.Auth.CookieName,
		SignalShutdown: func() { shutdown <- syscall.SIGTERM },
		Logger:         logger,
		Planner:        plannerSvc,
		Backups:        backupSvc,
		Gate:           gate,
		Catalog:        catalog,
		Metrics:        metrics.Handler(),
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))
	cancel()

	// give outstanding requests a deadline for completion
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancelShutdown()
	if err = server.Stop(shutdownCtx); err != nil {
		logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}

// setUpRemote returns the remote repository of the configured engine (nil when there is none),
// with the hook creating the postgres schema. The planner runs the hook on load and retries it
// on every sync until it succeeds, so a database down at startup is prepared once it is back.
func setUpRemote(conf *core.Config, logger core.Logger) (planner.Repository, *sqlx.DB, func(context.Context) error) {
	switch conf.Database.Engine {
	case "memory":
		logger.Info("using the in-memory remote")
		return inmemdb.NewRepository(inmemdb.Open()), nil, nil
	case "postgres":
	default:
		logger.Info("no remote backend: the local cache is the source of truth")
		return nil, nil, nil
	}

	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	prepare := func(ctx context.Context) error {
		return database.Prepare(ctx, conf, db)
	}
	return sqlxrepos.NewRepository(db), db, prepare
}
