package tests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/cuaderno/core/planner"
)

func Test_actionsApi(t *testing.T) {
	planner.NowFunc = func() time.Time { return time.Date(2025, 10, 8, 10, 0, 0, 0, time.Local) }
	defer func() { planner.NowFunc = time.Now }()
	app := setup(t, "")

	post := func(name string, body string) *httpTestResult {
		req, rec := newRequest(http.MethodPost, "/v1/actions/"+name, []byte(body))
		app.do(req, rec)
		return &httpTestResult{t: t, code: rec.Code, body: rec.Body.Bytes()}
	}

	var math planner.Activity
	post("add-activity", `{"name":"Mates","type":"class"}`).ok(http.StatusOK).into(&math)
	assert.Equal(t, "Mates", math.Name)

	post("save-activity", `{"id":"`+math.ID+`","name":"Matemáticas","startDate":"2025-09-08"}`).ok(http.StatusOK)
	post("change-activity-color", `{"id":"`+math.ID+`","color":"#000000"}`).ok(http.StatusOK)
	math, err := app.planner.Activity(math.ID)
	require.NoError(t, err)
	assert.Equal(t, "Matemáticas", math.Name)
	assert.Equal(t, "#000000", math.Color)

	var ana planner.Student
	post("add-student-to-class", `{"activityId":"`+math.ID+`","name":"Ana"}`).ok(http.StatusOK).into(&ana)
	post("edit-student-notes", `{"id":"`+ana.ID+`","generalNotes":"Primera fila"}`).ok(http.StatusOK)
	post("edit-student-name", `{"id":"`+ana.ID+`","name":"Ana Ruiz"}`).ok(http.StatusOK)
	ana, err = app.planner.Student(ana.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Ruiz", ana.Name)
	assert.Equal(t, "Primera fila", ana.GeneralNotes)

	post("remove-student-from-class", `{"activityId":"`+math.ID+`","studentId":"`+ana.ID+`"}`).ok(http.StatusOK)
	post("add-selected-student-to-class", `{"activityId":"`+math.ID+`","studentId":"`+ana.ID+`"}`).ok(http.StatusOK)
	var res planner.ImportResult
	post("import-students", `{"activityId":"`+math.ID+`","text":"Luis\nMarta"}`).ok(http.StatusOK).into(&res)
	assert.Len(t, res.Created, 2)

	post("generate-schedule-slots", `{"start":"08:00","end":"10:00","classMinutes":60}`).ok(http.StatusOK)
	var slot planner.TimeSlot
	post("add-timeslot", `{"label":"Tarde"}`).ok(http.StatusOK).into(&slot)
	post("save-timeslot", `{"id":"`+slot.ID+`","label":"16:00-17:00"}`).ok(http.StatusOK)
	post("reorder-timeslot", `{"index":2,"direction":"up"}`).ok(http.StatusOK)
	post("delete-timeslot", `{"id":"`+slot.ID+`"}`).ok(http.StatusNoContent)
	assert.Len(t, app.planner.TimeSlots(), 2)

	post("schedule-change", `{"day":"Lunes","time":"08:00-09:00","activityId":"`+math.ID+`"}`).ok(http.StatusOK)
	var ov planner.ScheduleOverride
	post("add-schedule-override", `{"day":"Martes","time":"09:00-10:00","activityId":"`+math.ID+`","startDate":"2025-10-07","endDate":"2025-10-07"}`).
		ok(http.StatusOK).into(&ov)
	post("delete-schedule-override", `{"id":"`+ov.ID+`"}`).ok(http.StatusNoContent)

	post("planned-change", `{"activityId":"`+math.ID+`","date":"2025-10-06","text":"Fracciones"}`).ok(http.StatusOK)
	post("completed-change", `{"activityId":"`+math.ID+`","date":"2025-10-06","text":"Hecho"}`).ok(http.StatusOK)
	post("annotation-change", `{"activityId":"`+math.ID+`","date":"2025-10-06","studentId":"`+ana.ID+`","text":"Bien"}`).ok(http.StatusOK)
	post("edit-session-annotation", `{"entryKey":"`+planner.EntryKey(math.ID, "2025-10-06")+`","studentId":"`+ana.ID+`","text":"Muy bien"}`).
		ok(http.StatusOK)
	entry, found := app.planner.Entry(math.ID, "2025-10-06")
	require.True(t, found)
	assert.Equal(t, planner.ClassEntry{Planned: "Fracciones", Completed: "Hecho", Annotations: map[string]string{ana.ID: "Muy bien"}}, entry)

	var sv planner.SessionView
	post("navigate-to-session", `{"activityId":"`+math.ID+`","time":"08:00-09:00","date":"2025-10-06"}`).ok(http.StatusOK).into(&sv)
	assert.Equal(t, "Lunes", sv.Day)
	assert.Equal(t, "Fracciones", sv.Entry.Planned)

	var sd planner.StudentDetail
	post("select-student", `{"id":"`+ana.ID+`"}`).ok(http.StatusOK).into(&sd)
	require.Len(t, sd.History, 1)

	var wv planner.WeekView
	post("next-week", `{"date":"2025-10-08"}`).ok(http.StatusOK).into(&wv)
	assert.Equal(t, "2025-10-13", wv.Start)
	post("prev-week", `{}`).ok(http.StatusOK).into(&wv)
	assert.Equal(t, "2025-09-29", wv.Start)

	post("update-course-date", `{"courseEndDate":"2026-06-19"}`).ok(http.StatusOK)
	assert.Equal(t, "2026-06-19", app.planner.CourseSettings().EndDate)

	var exported struct {
		Filename string           `json:"filename"`
		Data     planner.Snapshot `json:"data"`
	}
	post("export-data", ``).ok(http.StatusOK).into(&exported)
	assert.Equal(t, "cuaderno-profesor-backup-2025-10-08.json", exported.Filename)
	assert.Len(t, exported.Data.Students, 3)

	post("delete-activity", `{"id":"`+math.ID+`"}`).ok(http.StatusNoContent)
	post("delete-all-data", ``).ok(http.StatusNoContent)
	assert.Empty(t, app.planner.Students())

	post("import-data", string(marchallObj(t, exported.Data))).ok(http.StatusOK)
	assert.Len(t, app.planner.Students(), 3)

	tests := []httpTest{
		{
			name: "Unknown action", method: http.MethodPost, path: "/v1/actions/print-schedule", body: []byte(`{}`),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "unknown action"}),
		},
		{
			name: "Invalid payload", method: http.MethodPost, path: "/v1/actions/add-activity", body: []byte(`{"name": 1}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "invalid action payload"}),
		},
		{
			name: "Validation", method: http.MethodPost, path: "/v1/actions/add-timeslot", body: []byte(`{}`), lang: "en",
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"label": "this field is required"}),
		},
		{
			name: "Entity not found", method: http.MethodPost, path: "/v1/actions/delete-schedule-override", body: []byte(`{"id":"nope"}`),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "schedule override not found"}),
		},
	}
	runHTTPTests(t, app, tests)
}

type httpTestResult struct {
	t    *testing.T
	code int
	body []byte
}

func (r *httpTestResult) ok(wantCode int) *httpTestResult {
	r.t.Helper()
	require.Equal(r.t, wantCode, r.code, string(r.body))
	return r
}

func (r *httpTestResult) into(obj interface{}) {
	r.t.Helper()
	require.NoError(r.t, json.Unmarshal(r.body, obj), string(r.body))
}
