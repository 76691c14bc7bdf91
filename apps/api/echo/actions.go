package echoapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/cuaderno/core"
	"github.com/trezcool/cuaderno/core/planner"
)

// ActionPayload is the union of the fields the named actions read.
type ActionPayload struct {
	ID         string `json:"id"`
	ActivityID string `json:"activityId"`
	StudentID  string `json:"studentId"`
	EntryKey   string `json:"entryKey"`

	Name         string  `json:"name"`
	Type         string  `json:"type"`
	Color        string  `json:"color"`
	GeneralNotes *string `json:"generalNotes"`
	StartDate    string  `json:"startDate"`
	EndDate      string  `json:"endDate"`
	Text         string  `json:"text"`

	Label     string `json:"label"`
	Index     int    `json:"index"`
	Direction string `json:"direction"`

	Start        string `json:"start"`
	End          string `json:"end"`
	ClassMinutes int    `json:"classMinutes"`
	BreakMinutes int    `json:"breakMinutes"`
	BreakStart   string `json:"breakStart"`

	Day  string `json:"day"`
	Time string `json:"time"`
	Date string `json:"date"`

	CourseStartDate *string `json:"courseStartDate"`
	CourseEndDate   *string `json:"courseEndDate"`
}

type actionRequest struct {
	ActionPayload
	raw []byte
}

// actionFunc returns the JSON body of the response; nil means 204.
type actionFunc func(ctx context.Context, svc *planner.Service, req actionRequest) (interface{}, error)

var errInvalidPayload = echo.NewHTTPError(http.StatusBadRequest, "invalid action payload")

var actions = map[string]actionFunc{
	// activities
	"add-activity": func(ctx context.Context, svc *planner.Service, req actionRequest) (interface{}, error) {
		return svc.AddActivity(ctx, planner.NewActivity{Name: req.Name, Type: req.Type})
	},
	"save-activity": func(ctx context.Context, svc *planner.Service, req actionRequest) (interface{}, error) {
		return svc.UpdateActivity(ctx, req.ID, planner.UpdateActivity{Name: req.Name, StartDate: req.StartDate, EndDate: req.EndDate})
	},
	"delete-activity": func(ctx context.Context, svc *planner.Service, req actionRequest) (interface{}, error) {
		return nil, svc.DeleteActivity(ctx, req.ID)
	},
	"change-activity-color": func(ctx context.Context, svc *planner.Service, req actionRequest) (interface{}, error) {
		return svc.SetActivityColor(ctx, req.ID, planner.ActivityColor{Color: req.Color})
	},

	// students
	"add-student-to-class": func(ctx context.Context, svc *planner.Service, req actionRequest) (interface{}, error) {
		return svc.AddStudentToClass(ctx, req.ActivityID, planner.StudentName{Name: req.Name})
	},
	"add-selected-student-to-class": func(ctx context.Context, svc *planner.Service, req actionRequest) (interface{}, error) {
		return svc.EnrollStudent(ctx, req.ActivityID, req.StudentID)
	},
	"remove-student-from-class": func(ctx context.Context, svc *planner.Service, req actionRequest) (interface{}, error) {
		return svc.UnenrollStudent(ctx, req.ActivityID, req.StudentID)
	},
	"import-students": func(ctx context.Context, svc *planner.Service, req actionRequest) (interface{}, error) {
		return svc.ImportStudents(ctx, planner.ImportStudents{ActivityID: req.ActivityID, Text: req.Text})
	},
	"edit-student-name": func(ctx context.Context, svc *planner.Service, req actionRequest) (interface{}, error) {
		name := req.Name
		return svc.UpdateStudent(ctx, req.ID, planner.UpdateStudent{Name: &name})
	},
	"edit-student-notes": func(ctx context.Context, svc *planner.Service, req actionRequest) (interface{}, error) {
		notes := ""
		if req.GeneralNotes != nil {
			notes = *req.GeneralNotes
		}
		return svc.UpdateStudent(ctx, req.ID, planner.UpdateStudent{GeneralNotes: &notes})
	},
	"edit-session-annotation": func(ctx context.Context, svc *planner.Service, req actionRequest) (interface{}, error) {
		return svc.SetSessionAnnotation(ctx, req.EntryKey, req.StudentID, req.Text)
	},
	"select-student": func(_ context.Context, svc *planner.Service, req actionRequest) (interface{}, error) {
		return svc.StudentDetail(req.ID)
	},

	// time slots
	"add-timeslot": func(ctx context.Context, svc *planner.Service, req actionRequest) (interface{}, error) {
		return svc.AddTimeSlot(ctx, planner.NewTimeSlot{Label: req.Label})
	},
	"save-timeslot": func(ctx context.Context, svc *planner.Service, req actionRequest) (interface{}, error) {
		return svc.RenameTimeSlot(ctx, req.ID, planner.NewTimeSlot{Label: req.Label})
	},
	"delete-timeslot": func(ctx context.Context, svc *planner.Service, req actionRequest) (interface{}, error) {
		return nil, svc.DeleteTimeSlot(ctx, req.ID)
	},
	"reorder-timeslot": func(ctx context.Context, svc *planner.Service, req actionRequest) (interface{}, error) {
		return svc.ReorderTimeSlot(ctx, planner.ReorderTimeSlot{Index: req.Index, Direction: req.Direction})
	},
	"generate-schedule-slots": func(ctx context.Context, svc *planner.Service, req actionRequest) (interface{}, error) {
		return svc.GenerateTimeSlots(ctx, planner.GenerateTimeSlots{
			Start:        req.Start,
			End:          req.End,
			ClassMinutes: req.ClassMinutes,
			BreakMinutes: req.BreakMinutes,
			BreakStart:   req.BreakStart,
		})
	},

	// schedule
	"schedule-change": func(ctx context.Context, svc *planner.Service, req actionRequest) (interface{}, error) {
		return svc.SetScheduleSlot(ctx, planner.ScheduleSlot{Day: req.Day, Time: req.Time, ActivityID: req.ActivityID})
	},
	"add-schedule-override": func(ctx context.Context, svc *planner.Service, req actionRequest) (interface{}, error) {
		return svc.AddOverride(ctx, planner.NewOverride{
			Day:        req.Day,
			Time:       req.Time,
			ActivityID: req.ActivityID,
			StartDate:  req.StartDate,
			EndDate:    req.EndDate,
		})
	},
	"delete-schedule-override": func(ctx context.Context, svc *planner.Service, req actionRequest) (interface{}, error) {
		return nil, svc.DeleteOverride(ctx, req.ID)
	},
	"prev-week": func(_ context.Context, svc *planner.Service, req actionRequest) (interface{}, error) {
		return shiftWeek(svc, req.Date, -7)
	},
	"next-week": func(_ context.Context, svc *planner.Service, req actionRequest) (interface{}, error) {
		return shiftWeek(svc, req.Date, 7)
	},
	"navigate-to-session": func(_ context.Context, svc *planner.Service, req actionRequest) (interface{}, error) {
		return svc.Session(req.ActivityID, req.Day, req.Time, req.Date)
	},

	// class entries
	"planned-change": func(ctx context.Context, svc *planner.Service, req actionRequest) (interface{}, error) {
		return svc.SetPlanned(ctx, req.ActivityID, req.Date, planner.EntryText{Text: req.Text})
	},
	"completed-change": func(ctx context.Context, svc *planner.Service, req actionRequest) (interface{}, error) {
		return svc.SetCompleted(ctx, req.ActivityID, req.Date, planner.EntryText{Text: req.Text})
	},
	"annotation-change": func(ctx context.Context, svc *planner.Service, req actionRequest) (interface{}, error) {
		return svc.SetAnnotation(ctx, req.ActivityID, req.Date, req.StudentID, planner.EntryText{Text: req.Text})
	},

	// course & data
	"update-course-date": func(ctx context.Context, svc *planner.Service, req actionRequest) (interface{}, error) {
		return svc.UpdateCourseDates(ctx, planner.CourseDates{StartDate: req.CourseStartDate, EndDate: req.CourseEndDate})
	},
	"export-data": func(_ context.Context, svc *planner.Service, _ actionRequest) (interface{}, error) {
		data, filename, err := svc.Export()
		if err != nil {
			return nil, err
		}
		return echo.Map{"filename": filename, "data": json.RawMessage(data)}, nil
	},
	"import-data": func(ctx context.Context, svc *planner.Service, req actionRequest) (interface{}, error) {
		return svc.Import(ctx, req.raw)
	},
	"delete-all-data": func(ctx context.Context, svc *planner.Service, _ actionRequest) (interface{}, error) {
		return nil, svc.DeleteAll(ctx)
	},
}

func shiftWeek(svc *planner.Service, date string, days int) (planner.WeekView, error) {
	d := planner.Today()
	if date != "" {
		var err error
		if d, err = planner.ParseDate(date); err != nil {
			return planner.WeekView{}, core.NewValidationError(err, core.NewFieldError(dateParam, core.ISODateText))
		}
	}
	return svc.Week(d.AddDate(0, 0, days)), nil
}

type actionsApi struct {
	svc *planner.Service
}

// registerActionsAPI exposes the named actions of the web client under POST /actions/:name.
func registerActionsAPI(g *echo.Group, svc *planner.Service) {
	api := actionsApi{svc: svc}

	g.GET("/actions", api.names)
	g.POST("/actions/:name", api.dispatch)
}

func (api *actionsApi) names(ctx echo.Context) error {
	names := make([]string, 0, len(actions))
	for name := range actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return ctx.JSON(http.StatusOK, names)
}

func (api *actionsApi) dispatch(ctx echo.Context) error {
	action, ok := actions[ctx.Param("name")]
	if !ok {
		return errUnknownAction
	}

	body, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return errors.Wrap(err, "reading request body")
	}
	req := actionRequest{raw: body}
	if len(body) > 0 {
		if err = json.Unmarshal(body, &req.ActionPayload); err != nil {
			return errInvalidPayload
		}
	}

	res, err := action(ctx.Request().Context(), api.svc, req)
	if err != nil {
		return errors.Wrap(err, ctx.Param("name"))
	}
	if res == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	return ctx.JSON(http.StatusOK, res)
}
