package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/cuaderno/core"
	"github.com/trezcool/cuaderno/core/planner"
)

type plannerApi struct {
	svc *planner.Service
}

func registerPlannerAPI(g *echo.Group, svc *planner.Service) {
	api := plannerApi{svc: svc}

	g.GET("/status", api.status)
	g.POST("/sync", api.sync)
	g.GET("/classes", api.classes)

	ag := g.Group("/activities")
	ag.GET("", api.queryActivities)
	ag.POST("", api.createActivity)
	ag.GET("/:id", api.retrieveActivity)
	ag.PUT("/:id", api.updateActivity)
	ag.PUT("/:id/color", api.setActivityColor)
	ag.DELETE("/:id", api.destroyActivity)
	ag.POST("/:id/students", api.addStudentToClass)
	ag.POST("/:id/students/import", api.importStudents)
	ag.PUT("/:id/students/:studentId", api.enrollStudent)
	ag.DELETE("/:id/students/:studentId", api.unenrollStudent)

	sg := g.Group("/students")
	sg.GET("", api.queryStudents)
	sg.GET("/:id", api.retrieveStudent)
	sg.GET("/:id/detail", api.studentDetail)
	sg.PUT("/:id", api.updateStudent)
	sg.DELETE("/:id", api.destroyStudent)
	sg.PUT("/:id/annotations/:entryKey", api.setSessionAnnotation)

	tg := g.Group("/timeslots")
	tg.GET("", api.queryTimeSlots)
	tg.POST("", api.createTimeSlot)
	tg.POST("/generate", api.generateTimeSlots)
	tg.POST("/reorder", api.reorderTimeSlot)
	tg.PUT("/:id", api.renameTimeSlot)
	tg.DELETE("/:id", api.destroyTimeSlot)

	g.GET("/schedule", api.schedule)
	g.PUT("/schedule", api.setScheduleSlot)
	g.GET("/schedule/week", api.week)

	og := g.Group("/overrides")
	og.GET("", api.queryOverrides)
	og.POST("", api.createOverride)
	og.DELETE("/:id", api.destroyOverride)

	eg := g.Group("/entries/:activityId/:date")
	eg.GET("", api.retrieveEntry)
	eg.PUT("/planned", api.setPlanned)
	eg.PUT("/completed", api.setCompleted)
	eg.PUT("/annotations/:studentId", api.setAnnotation)

	g.GET("/course", api.course)
	g.PUT("/course", api.updateCourse)

	g.GET("/sessions/:activityId", api.session)
	g.GET("/sessions/:activityId/next", api.nextSession)
	g.GET("/sessions/:activityId/previous", api.previousSession)
}

// Status & sync

func (api *plannerApi) status(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.Status())
}

func (api *plannerApi) sync(ctx echo.Context) error {
	if err := api.svc.Sync(ctx.Request().Context()); err != nil {
		if errors.Cause(err) == planner.ErrNoRemote {
			return err
		}
		ctx.Logger().Warnf("%+v", err)
		return errRemoteUnreachable
	}
	return ctx.JSON(http.StatusOK, api.svc.Status())
}

// Activities

func (api *plannerApi) queryActivities(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)
	return ctx.JSON(http.StatusOK, api.svc.Activities(ordering.Orderings...))
}

func (api *plannerApi) classes(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.Classes())
}

func (api *plannerApi) createActivity(ctx echo.Context) error {
	var data planner.NewActivity
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewActivity")
	}
	act, err := api.svc.AddActivity(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, act)
}

func (api *plannerApi) retrieveActivity(ctx echo.Context) error {
	act, err := api.svc.Activity(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, act)
}

func (api *plannerApi) updateActivity(ctx echo.Context) error {
	var data planner.UpdateActivity
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateActivity")
	}
	act, err := api.svc.UpdateActivity(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, act)
}

func (api *plannerApi) setActivityColor(ctx echo.Context) error {
	var data planner.ActivityColor
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ActivityColor")
	}
	act, err := api.svc.SetActivityColor(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, act)
}

func (api *plannerApi) destroyActivity(ctx echo.Context) error {
	if err := api.svc.DeleteActivity(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *plannerApi) addStudentToClass(ctx echo.Context) error {
	var data planner.StudentName
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StudentName")
	}
	st, err := api.svc.AddStudentToClass(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, st)
}

func (api *plannerApi) importStudents(ctx echo.Context) error {
	var data planner.ImportStudents
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ImportStudents")
	}
	data.ActivityID = ctx.Param("id")
	res, err := api.svc.ImportStudents(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *plannerApi) enrollStudent(ctx echo.Context) error {
	act, err := api.svc.EnrollStudent(ctx.Request().Context(), ctx.Param("id"), ctx.Param("studentId"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, act)
}

func (api *plannerApi) unenrollStudent(ctx echo.Context) error {
	act, err := api.svc.UnenrollStudent(ctx.Request().Context(), ctx.Param("id"), ctx.Param("studentId"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, act)
}

// Students

func (api *plannerApi) queryStudents(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)
	return ctx.JSON(http.StatusOK, api.svc.Students(ordering.Orderings...))
}

func (api *plannerApi) retrieveStudent(ctx echo.Context) error {
	st, err := api.svc.Student(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *plannerApi) studentDetail(ctx echo.Context) error {
	sd, err := api.svc.StudentDetail(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sd)
}

func (api *plannerApi) updateStudent(ctx echo.Context) error {
	var data planner.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	st, err := api.svc.UpdateStudent(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *plannerApi) destroyStudent(ctx echo.Context) error {
	if err := api.svc.DeleteStudent(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *plannerApi) setSessionAnnotation(ctx echo.Context) error {
	var data planner.EntryText
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EntryText")
	}
	entry, err := api.svc.SetSessionAnnotation(ctx.Request().Context(), ctx.Param("entryKey"), ctx.Param("id"), data.Text)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, entry)
}

// Time slots

func (api *plannerApi) queryTimeSlots(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.TimeSlots())
}

func (api *plannerApi) createTimeSlot(ctx echo.Context) error {
	var data planner.NewTimeSlot
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTimeSlot")
	}
	ts, err := api.svc.AddTimeSlot(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, ts)
}

func (api *plannerApi) renameTimeSlot(ctx echo.Context) error {
	var data planner.NewTimeSlot
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTimeSlot")
	}
	ts, err := api.svc.RenameTimeSlot(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ts)
}

func (api *plannerApi) destroyTimeSlot(ctx echo.Context) error {
	if err := api.svc.DeleteTimeSlot(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *plannerApi) reorderTimeSlot(ctx echo.Context) error {
	var data planner.ReorderTimeSlot
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReorderTimeSlot")
	}
	slots, err := api.svc.ReorderTimeSlot(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, slots)
}

func (api *plannerApi) generateTimeSlots(ctx echo.Context) error {
	var data planner.GenerateTimeSlots
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GenerateTimeSlots")
	}
	slots, err := api.svc.GenerateTimeSlots(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, slots)
}

// Schedule & overrides

func (api *plannerApi) schedule(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.Schedule())
}

func (api *plannerApi) setScheduleSlot(ctx echo.Context) error {
	var data planner.ScheduleSlot
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ScheduleSlot")
	}
	sched, err := api.svc.SetScheduleSlot(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sched)
}

func (api *plannerApi) week(ctx echo.Context) error {
	date, err := queryDate(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.svc.Week(date))
}

func (api *plannerApi) queryOverrides(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.Overrides())
}

func (api *plannerApi) createOverride(ctx echo.Context) error {
	var data planner.NewOverride
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewOverride")
	}
	ov, err := api.svc.AddOverride(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, ov)
}

func (api *plannerApi) destroyOverride(ctx echo.Context) error {
	if err := api.svc.DeleteOverride(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Class entries

func (api *plannerApi) retrieveEntry(ctx echo.Context) error {
	entry, found := api.svc.Entry(ctx.Param("activityId"), ctx.Param("date"))
	if !found {
		return planner.ErrEntryNotFound
	}
	return ctx.JSON(http.StatusOK, entry)
}

func (api *plannerApi) setPlanned(ctx echo.Context) error {
	var data planner.EntryText
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EntryText")
	}
	entry, err := api.svc.SetPlanned(ctx.Request().Context(), ctx.Param("activityId"), ctx.Param("date"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, entry)
}

func (api *plannerApi) setCompleted(ctx echo.Context) error {
	var data planner.EntryText
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EntryText")
	}
	entry, err := api.svc.SetCompleted(ctx.Request().Context(), ctx.Param("activityId"), ctx.Param("date"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, entry)
}

func (api *plannerApi) setAnnotation(ctx echo.Context) error {
	var data planner.EntryText
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EntryText")
	}
	entry, err := api.svc.SetAnnotation(
		ctx.Request().Context(), ctx.Param("activityId"), ctx.Param("date"), ctx.Param("studentId"), data,
	)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, entry)
}

// Course

func (api *plannerApi) course(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.CourseSettings())
}

func (api *plannerApi) updateCourse(ctx echo.Context) error {
	var data planner.CourseDates
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CourseDates")
	}
	cs, err := api.svc.UpdateCourseDates(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cs)
}

// Sessions

func (api *plannerApi) session(ctx echo.Context) error {
	sv, err := api.svc.Session(ctx.Param("activityId"), ctx.QueryParam("day"), ctx.QueryParam("time"), ctx.QueryParam(dateParam))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sv)
}

func (api *plannerApi) nextSession(ctx echo.Context) error {
	return api.findSession(ctx, api.svc.FindNextSession)
}

func (api *plannerApi) previousSession(ctx echo.Context) error {
	return api.findSession(ctx, api.svc.FindPreviousSession)
}

func (api *plannerApi) findSession(ctx echo.Context, find func(string, time.Time) *planner.SessionRef) error {
	id := ctx.Param("activityId")
	if _, err := api.svc.Activity(id); err != nil {
		return err
	}
	date, err := queryDate(ctx)
	if err != nil {
		return err
	}
	ref := find(id, date)
	if ref == nil {
		return core.NewNotFoundError("session")
	}
	return ctx.JSON(http.StatusOK, ref)
}
