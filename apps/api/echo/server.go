package echoapi

import (
	"context"
	"net/http"

	"github.com/kat-co/vala"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/cuaderno/core"
	"github.com/trezcool/cuaderno/core/auth"
	"github.com/trezcool/cuaderno/core/backup"
	"github.com/trezcool/cuaderno/core/i18n"
	"github.com/trezcool/cuaderno/core/planner"
)

type (
	Options struct {
		Address        string
		AppName        string
		Debug          bool
		TestMode       bool
		DisableReqLogs bool
		CookieName     string
		SignalShutdown func()

		Logger  core.Logger
		Planner *planner.Service
		Backups *backup.Service
		Gate    *auth.Gate
		Catalog *i18n.Catalog
		Metrics http.Handler // optional
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	vala.BeginValidation().Validate(
		vala.IsNotNil(opts.Logger, "Logger"),
		vala.IsNotNil(opts.Planner, "Planner"),
		vala.IsNotNil(opts.Backups, "Backups"),
		vala.IsNotNil(opts.Gate, "Gate"),
		vala.IsNotNil(opts.Catalog, "Catalog"),
	).CheckAndPanic()

	if opts.CookieName == "" {
		opts.CookieName = defaultCookieName
	}
	if opts.SignalShutdown == nil {
		opts.SignalShutdown = func() {}
	}
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.opts.Debug || s.opts.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(languageMiddleware(s.opts.Catalog))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Catalog, s.opts.SignalShutdown)
	s.app.Debug = s.opts.Debug

	s.app.GET("/", s.home)
	s.app.GET("/healthz", s.health)
	if s.opts.Metrics != nil {
		s.app.GET("/metrics", echo.WrapHandler(s.opts.Metrics))
	}

	v1 := s.app.Group("/v1")
	registerAuthAPI(v1, s.opts.Gate, s.opts.CookieName)
	registerI18nAPI(v1, s.opts.Catalog)

	authed := v1.Group("", authMiddleware(s.opts.Gate, s.opts.CookieName))
	registerPlannerAPI(authed, s.opts.Planner)
	registerDataAPI(authed, s.opts.Planner, s.opts.Backups)
	registerActionsAPI(authed, s.opts.Planner)
}

func (s *server) Start() {
	if err := s.app.Start(s.opts.Address); err != nil && err != http.ErrServerClosed {
		s.opts.Logger.Fatal("api: server failed", err)
	}
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.opts.AppName+" API!")
}

func (s *server) health(ctx echo.Context) error {
	st := s.opts.Planner.Status()
	return ctx.JSON(http.StatusOK, echo.Map{
		"status":  "ok",
		"online":  st.Online,
		"loading": st.Loading,
	})
}
