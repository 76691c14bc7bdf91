package echoapi

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/cuaderno/core/backup"
	"github.com/trezcool/cuaderno/core/planner"
	"github.com/trezcool/cuaderno/services/export"
)

type (
	RestoreRequest struct {
		Key string `json:"key"`
	}

	EmailBackupRequest struct {
		To string `json:"to"`
	}
)

type dataApi struct {
	planner *planner.Service
	backups *backup.Service
}

func registerDataAPI(g *echo.Group, plannerSvc *planner.Service, backupSvc *backup.Service) {
	api := dataApi{planner: plannerSvc, backups: backupSvc}

	dg := g.Group("/data")
	dg.GET("/export", api.export)
	dg.POST("/import", api.importData)
	dg.DELETE("", api.deleteAll)

	bg := g.Group("/backups")
	bg.GET("", api.queryBackups)
	bg.POST("", api.archive)
	bg.POST("/restore", api.restore)
	bg.POST("/email", api.email)

	xg := g.Group("/exports")
	xg.GET("/week.xlsx", api.exportWeek)
	xg.GET("/students/:id", api.exportStudent)
}

func attachment(ctx echo.Context, contentType, filename string, data []byte) error {
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return ctx.Blob(http.StatusOK, contentType, data)
}

func (api *dataApi) export(ctx echo.Context) error {
	data, filename, err := api.planner.Export()
	if err != nil {
		return errors.Wrap(err, "exporting data")
	}
	return attachment(ctx, echo.MIMEApplicationJSONCharsetUTF8, filename, data)
}

func (api *dataApi) importData(ctx echo.Context) error {
	data, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return errors.Wrap(err, "reading request body")
	}
	snap, err := api.planner.Import(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, snap)
}

func (api *dataApi) deleteAll(ctx echo.Context) error {
	if err := api.planner.DeleteAll(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "deleting all data")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Backups

func (api *dataApi) queryBackups(ctx echo.Context) error {
	infos, err := api.backups.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing backups")
	}
	if infos == nil {
		infos = []backup.Info{}
	}
	return ctx.JSON(http.StatusOK, infos)
}

func (api *dataApi) archive(ctx echo.Context) error {
	info, err := api.backups.Archive(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "archiving backup")
	}
	return ctx.JSON(http.StatusCreated, info)
}

func (api *dataApi) restore(ctx echo.Context) error {
	var data RestoreRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RestoreRequest")
	}
	snap, err := api.backups.Restore(ctx.Request().Context(), strings.TrimSpace(data.Key))
	if err != nil {
		return errors.Wrap(err, "restoring backup")
	}
	return ctx.JSON(http.StatusOK, snap)
}

func (api *dataApi) email(ctx echo.Context) error {
	var data EmailBackupRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EmailBackupRequest")
	}
	summary, err := api.backups.Email(data.To)
	if err != nil {
		return errors.Wrap(err, "emailing backup")
	}
	return ctx.JSON(http.StatusAccepted, summary)
}

// Spreadsheets

func (api *dataApi) exportWeek(ctx echo.Context) error {
	date, err := queryDate(ctx)
	if err != nil {
		return err
	}
	wv := api.planner.Week(date)
	buf, err := export.Week(wv, api.planner)
	if err != nil {
		return errors.Wrap(err, "exporting week")
	}
	return attachment(ctx, export.ContentType, export.WeekFilename(wv), buf.Bytes())
}

func (api *dataApi) exportStudent(ctx echo.Context) error {
	sd, err := api.planner.StudentDetail(strings.TrimSuffix(ctx.Param("id"), ".xlsx"))
	if err != nil {
		return err
	}
	buf, err := export.Student(sd)
	if err != nil {
		return errors.Wrap(err, "exporting student")
	}
	return attachment(ctx, export.ContentType, export.StudentFilename(sd), buf.Bytes())
}
