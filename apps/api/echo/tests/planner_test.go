package tests

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/cuaderno/core/planner"
)

func strPtr(s string) *string { return &s }

func Test_plannerApi_activities(t *testing.T) {
	ctx := context.Background()
	app := setup(t, "")

	math, err := app.planner.AddActivity(ctx, planner.NewActivity{Name: "Mates", Type: planner.TypeClass})
	require.NoError(t, err)
	duty, err := app.planner.AddActivity(ctx, planner.NewActivity{Name: "Guardia", Type: planner.TypeGeneral})
	require.NoError(t, err)

	tests := []httpTest{
		{name: "List", method: http.MethodGet, path: "/v1/activities", wantCode: http.StatusOK, wantData: marchallObj(t, []planner.Activity{math, duty})},
		{
			name: "List ordered by name", method: http.MethodGet, path: "/v1/activities?ordering=name",
			wantCode: http.StatusOK, wantData: marchallObj(t, []planner.Activity{duty, math}),
		},
		{name: "Retrieve", method: http.MethodGet, path: "/v1/activities/" + math.ID, wantCode: http.StatusOK, wantData: marchallObj(t, math)},
		{
			name: "Retrieve (unknown)", method: http.MethodGet, path: "/v1/activities/nope",
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "activity not found"}),
		},
		{
			name: "Create (invalid, es)", method: http.MethodPost, path: "/v1/activities", body: []byte(`{"name":"  "}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": "este campo es obligatorio", "type": "este campo es obligatorio"}),
		},
		{
			name: "Create (invalid, en)", method: http.MethodPost, path: "/v1/activities", body: []byte(`{"name":"Lengua","type":"other"}`),
			lang: "en-GB,en;q=0.8", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"type": "must be one of: class, general"}),
		},
		{
			name: "Classes", method: http.MethodGet, path: "/v1/classes",
			wantCode: http.StatusOK, wantData: marchallObj(t, []planner.ClassView{{Activity: math, Students: []planner.Student{}}}),
		},
		{
			name: "Update dates (invalid)", method: http.MethodPut, path: "/v1/activities/" + math.ID,
			body: []byte(`{"startDate":"01/09/2025"}`), lang: "en", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"startDate": "must be a date formatted as YYYY-MM-DD"}),
		},
	}
	runHTTPTests(t, app, tests)

	// create
	req, rec := newRequest(http.MethodPost, "/v1/activities", []byte(`{"name":" Lengua ","type":"CLASS"}`))
	app.do(req, rec)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var lengua planner.Activity
	unmarchall(t, rec, &lengua)
	assert.Equal(t, "Lengua", lengua.Name)
	assert.Equal(t, planner.TypeClass, lengua.Type)
	assert.Equal(t, planner.Palette[2], lengua.Color)
	assert.Len(t, app.planner.Activities(), 3)

	// update & color
	req, rec = newRequest(http.MethodPut, "/v1/activities/"+lengua.ID, []byte(`{"name":"","startDate":"2025-09-15"}`))
	app.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	lengua, err = app.planner.Activity(lengua.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lengua", lengua.Name)
	assert.Equal(t, "2025-09-15", lengua.StartDate)

	req, rec = newRequest(http.MethodPut, "/v1/activities/"+lengua.ID+"/color", []byte(`{"color":"#123ABC"}`))
	app.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	lengua, err = app.planner.Activity(lengua.ID)
	require.NoError(t, err)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, lengua)}, rec)

	// delete
	req, rec = newRequest(http.MethodDelete, "/v1/activities/"+lengua.ID)
	app.do(req, rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, err = app.planner.Activity(lengua.ID)
	assert.Equal(t, planner.ErrActivityNotFound, err)

	req, rec = newRequest(http.MethodDelete, "/v1/activities/"+lengua.ID)
	app.do(req, rec)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_plannerApi_students(t *testing.T) {
	ctx := context.Background()
	app := setup(t, "")

	math, err := app.planner.AddActivity(ctx, planner.NewActivity{Name: "Mates", Type: planner.TypeClass})
	require.NoError(t, err)

	// add by name
	req, rec := newRequest(http.MethodPost, "/v1/activities/"+math.ID+"/students", []byte(`{"name":"Ana García"}`))
	app.do(req, rec)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var ana planner.Student
	unmarchall(t, rec, &ana)
	assert.Equal(t, "Ana García", ana.Name)

	// import
	req, rec = newRequest(http.MethodPost, "/v1/activities/"+math.ID+"/students/import", []byte(`{"text":"Luis\n\nana garcía\n"}`))
	app.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res planner.ImportResult
	unmarchall(t, rec, &res)
	assert.Len(t, res.Enrolled, 2)
	require.Len(t, res.Created, 1)
	luis := res.Created[0]

	// unenroll & enroll
	req, rec = newRequest(http.MethodDelete, "/v1/activities/"+math.ID+"/students/"+luis.ID)
	app.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	math, err = app.planner.Activity(math.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{ana.ID}, math.StudentIDs)

	req, rec = newRequest(http.MethodPut, "/v1/activities/"+math.ID+"/students/"+luis.ID)
	app.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	math, err = app.planner.Activity(math.ID)
	require.NoError(t, err)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, math)}, rec)

	req, rec = newRequest(http.MethodPut, "/v1/activities/"+math.ID+"/students/nope")
	app.do(req, rec)
	checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "student not found"})}, rec)

	// update notes
	req, rec = newRequest(http.MethodPut, "/v1/students/"+luis.ID, []byte(`{"generalNotes":"Zurdo"}`))
	app.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	luis, err = app.planner.Student(luis.ID)
	require.NoError(t, err)
	assert.Equal(t, "Zurdo", luis.GeneralNotes)

	// annotations & detail
	_, err = app.planner.SetAnnotation(ctx, math.ID, "2025-10-06", luis.ID, planner.EntryText{Text: "Bien"})
	require.NoError(t, err)
	key := planner.EntryKey(math.ID, "2025-10-06")
	req, rec = newRequest(http.MethodPut, "/v1/students/"+luis.ID+"/annotations/"+key, []byte(`{"text":"Muy bien"}`))
	app.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	entry, found := app.planner.Entry(math.ID, "2025-10-06")
	require.True(t, found)
	assert.Equal(t, "Muy bien", entry.Annotations[luis.ID])

	req, rec = newRequest(http.MethodPut, "/v1/students/"+luis.ID+"/annotations/"+planner.EntryKey(math.ID, "2030-01-01"), []byte(`{"text":"x"}`))
	app.do(req, rec)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	sd, err := app.planner.StudentDetail(luis.ID)
	require.NoError(t, err)

	tests := []httpTest{
		{name: "List", method: http.MethodGet, path: "/v1/students?ordering=-name", wantCode: http.StatusOK, wantData: marchallObj(t, []planner.Student{luis, ana})},
		{name: "Retrieve", method: http.MethodGet, path: "/v1/students/" + luis.ID, wantCode: http.StatusOK, wantData: marchallObj(t, luis)},
		{name: "Detail", method: http.MethodGet, path: "/v1/students/" + luis.ID + "/detail", wantCode: http.StatusOK, wantData: marchallObj(t, sd)},
		{
			name: "Detail (unknown)", method: http.MethodGet, path: "/v1/students/nope/detail",
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "student not found"}),
		},
	}
	runHTTPTests(t, app, tests)

	// delete
	req, rec = newRequest(http.MethodDelete, "/v1/students/"+luis.ID)
	app.do(req, rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	math, err = app.planner.Activity(math.ID)
	require.NoError(t, err)
	assert.False(t, math.HasStudent(luis.ID))
}

func Test_plannerApi_timetable(t *testing.T) {
	ctx := context.Background()
	planner.NowFunc = func() time.Time { return time.Date(2025, 10, 8, 10, 0, 0, 0, time.Local) }
	defer func() { planner.NowFunc = time.Now }()
	app := setup(t, "")

	math, err := app.planner.AddActivity(ctx, planner.NewActivity{Name: "Mates", Type: planner.TypeClass})
	require.NoError(t, err)

	// course
	req, rec := newRequest(http.MethodPut, "/v1/course", []byte(`{"courseStartDate":"2025-09-08","courseEndDate":"2026-06-19"}`))
	app.do(req, rec)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusOK,
		wantData: marchallObj(t, planner.CourseSettings{StartDate: "2025-09-08", EndDate: "2026-06-19"}),
	}, rec)

	// time slots
	req, rec = newRequest(http.MethodPost, "/v1/timeslots/generate", []byte(`{"start":"08:00","end":"10:00","classMinutes":60}`))
	app.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	slots := app.planner.TimeSlots()
	require.Len(t, slots, 2)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, slots)}, rec)
	assert.Equal(t, "08:00-09:00", slots[0].Label)

	req, rec = newRequest(http.MethodPost, "/v1/timeslots", []byte(`{"label":"Recreo"}`))
	app.do(req, rec)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var recreo planner.TimeSlot
	unmarchall(t, rec, &recreo)
	assert.Equal(t, 2, recreo.Order)

	req, rec = newRequest(http.MethodPost, "/v1/timeslots/reorder", []byte(`{"index":2,"direction":"down"}`))
	app.do(req, rec)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"index":"no se puede mover la franja en esa dirección"}`, rec.Body.String())

	req, rec = newRequest(http.MethodPost, "/v1/timeslots/reorder", []byte(`{"index":2,"direction":"up"}`))
	app.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Recreo", app.planner.TimeSlots()[1].Label)

	req, rec = newRequest(http.MethodDelete, "/v1/timeslots/"+recreo.ID)
	app.do(req, rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// schedule
	for _, day := range []string{"Lunes", "Miércoles"} {
		req, rec = newRequest(http.MethodPut, "/v1/schedule", marchallObj(t, planner.ScheduleSlot{Day: day, Time: "08:00-09:00", ActivityID: math.ID}))
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	req, rec = newRequest(http.MethodPut, "/v1/schedule", []byte(`{"day":"Sábado","time":"08:00-09:00"}`))
	app.do(req, rec)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// entries
	req, rec = newRequest(http.MethodPut, "/v1/entries/"+math.ID+"/2025-10-06/planned", []byte(`{"text":"Fracciones"}`))
	app.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	req, rec = newRequest(http.MethodPut, "/v1/entries/"+math.ID+"/2025-10-06/completed", []byte(`{"text":"Hecho"}`))
	app.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	entry, found := app.planner.Entry(math.ID, "2025-10-06")
	require.True(t, found)
	assert.Equal(t, "Fracciones", entry.Planned)
	assert.Equal(t, "Hecho", entry.Completed)

	// overrides
	req, rec = newRequest(http.MethodPost, "/v1/overrides", []byte(`{"day":"Lunes","time":"08:00-09:00","activityId":"`+math.ID+`","startDate":"2025-10-20","endDate":"2025-10-13"}`))
	app.do(req, rec)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	week := app.planner.Week(time.Date(2025, 10, 9, 0, 0, 0, 0, time.Local))
	sv, err := app.planner.Session(math.ID, "Miércoles", "08:00-09:00", "2025-10-08")
	require.NoError(t, err)

	tests := []httpTest{
		{name: "Schedule", method: http.MethodGet, path: "/v1/schedule", wantCode: http.StatusOK, wantData: marchallObj(t, app.planner.Schedule())},
		{name: "Week", method: http.MethodGet, path: "/v1/schedule/week?date=2025-10-09", wantCode: http.StatusOK, wantData: marchallObj(t, week)},
		{name: "Week (today)", method: http.MethodGet, path: "/v1/schedule/week", wantCode: http.StatusOK, wantData: marchallObj(t, week)},
		{
			name: "Week (bad date)", method: http.MethodGet, path: "/v1/schedule/week?date=9/10/2025", lang: "en",
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"date": "must be a date formatted as YYYY-MM-DD"}),
		},
		{
			name: "Week (bad date, es)", method: http.MethodGet, path: "/v1/schedule/week?date=9/10/2025", lang: "es-ES",
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"date": "debe ser una fecha con formato AAAA-MM-DD"}),
		},
		{name: "Entry", method: http.MethodGet, path: "/v1/entries/" + math.ID + "/2025-10-06", wantCode: http.StatusOK, wantData: marchallObj(t, entry)},
		{
			name: "Entry (none)", method: http.MethodGet, path: "/v1/entries/" + math.ID + "/2025-10-07",
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "class entry not found"}),
		},
		{
			name: "Session", method: http.MethodGet, path: "/v1/sessions/" + math.ID + "?day=Mi%C3%A9rcoles&time=08:00-09:00&date=2025-10-08",
			wantCode: http.StatusOK, wantData: marchallObj(t, sv),
		},
		{
			name: "Next session", method: http.MethodGet, path: "/v1/sessions/" + math.ID + "/next?date=2025-10-08",
			wantCode: http.StatusOK, wantData: marchallObj(t, planner.SessionRef{Day: "Lunes", Time: "08:00-09:00", Date: "2025-10-13"}),
		},
		{
			name: "Previous session", method: http.MethodGet, path: "/v1/sessions/" + math.ID + "/previous?date=2025-10-08",
			wantCode: http.StatusOK, wantData: marchallObj(t, planner.SessionRef{Day: "Lunes", Time: "08:00-09:00", Date: "2025-10-06"}),
		},
		{
			name: "No previous session", method: http.MethodGet, path: "/v1/sessions/" + math.ID + "/previous?date=2025-09-08",
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "session not found"}),
		},
		{
			name: "Sessions of unknown activity", method: http.MethodGet, path: "/v1/sessions/nope/next",
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "activity not found"}),
		},
		{
			name: "Course", method: http.MethodGet, path: "/v1/course",
			wantCode: http.StatusOK, wantData: marchallObj(t, planner.CourseSettings{StartDate: "2025-09-08", EndDate: "2026-06-19"}),
		},
	}
	runHTTPTests(t, app, tests)

	// override changes the resolved week
	req, rec = newRequest(http.MethodPost, "/v1/overrides", []byte(`{"day":"Lunes","time":"08:00-09:00","activityId":"`+math.ID+`","startDate":"2025-10-27","endDate":"2025-10-27"}`))
	app.do(req, rec)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var ov planner.ScheduleOverride
	unmarchall(t, rec, &ov)
	req, rec = newRequest(http.MethodGet, "/v1/overrides")
	app.do(req, rec)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, []planner.ScheduleOverride{ov})}, rec)
	req, rec = newRequest(http.MethodDelete, "/v1/overrides/"+ov.ID)
	app.do(req, rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, app.planner.Overrides())
}

func Test_plannerApi_status(t *testing.T) {
	app := setup(t, "")

	tests := []httpTest{
		{name: "Status", method: http.MethodGet, path: "/v1/status", wantCode: http.StatusOK, wantData: marchallObj(t, app.planner.Status())},
		{
			name: "Sync without remote", method: http.MethodPost, path: "/v1/sync",
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: planner.ErrNoRemote.Error()}),
		},
	}
	runHTTPTests(t, app, tests)
}
