package tests

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/cuaderno/core/backup"
	"github.com/trezcool/cuaderno/core/planner"
	"github.com/trezcool/cuaderno/services/export"
)

func Test_dataApi_exportImport(t *testing.T) {
	ctx := context.Background()
	app := setup(t, "")

	math, err := app.planner.AddActivity(ctx, planner.NewActivity{Name: "Mates", Type: planner.TypeClass})
	require.NoError(t, err)
	_, err = app.planner.AddStudentToClass(ctx, math.ID, planner.StudentName{Name: "Ana"})
	require.NoError(t, err)

	req, rec := newRequest(http.MethodGet, "/v1/data/export")
	app.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `attachment; filename="cuaderno-profesor-backup-`)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, app.planner.State().Snapshot())}, rec)
	exported := rec.Body.Bytes()

	// wipe everything
	req, rec = newRequest(http.MethodDelete, "/v1/data")
	app.do(req, rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, app.planner.Activities())

	// restore from the export, then from a legacy payload
	req, rec = newRequest(http.MethodPost, "/v1/data/import", exported)
	app.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, app.planner.Activities(), 1)
	assert.Len(t, app.planner.Students(), 1)

	legacy := `{"activities":[{"id":"a1","name":"Lengua","type":"class","studentIds":null}],
		"classEntries":{"a1_2025-09-15":{"planned":"Tema 1","summary":"Hecho"}}}`
	req, rec = newRequest(http.MethodPost, "/v1/data/import", []byte(legacy))
	app.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	entry, found := app.planner.Entry("a1", "2025-09-15")
	require.True(t, found)
	assert.Equal(t, "Hecho", entry.Completed)

	tests := []httpTest{
		{
			name: "Import (not an object)", method: http.MethodPost, path: "/v1/data/import", body: []byte(`[1, 2]`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: planner.ErrInvalidSnapshot.Error()}),
		},
		{
			name: "Import (broken json)", method: http.MethodPost, path: "/v1/data/import", body: []byte(`{"activities": [`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: planner.ErrInvalidSnapshot.Error()}),
		},
	}
	runHTTPTests(t, app, tests)
	assert.Len(t, app.planner.Activities(), 1)
}

func Test_dataApi_backups(t *testing.T) {
	ctx := context.Background()
	app := setup(t, "")

	_, err := app.planner.AddActivity(ctx, planner.NewActivity{Name: "Mates", Type: planner.TypeClass})
	require.NoError(t, err)

	tests := []httpTest{
		{
			name: "List (no store)", method: http.MethodGet, path: "/v1/backups",
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: backup.ErrNoStore.Error()}),
		},
		{
			name: "Archive (no store)", method: http.MethodPost, path: "/v1/backups",
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: backup.ErrNoStore.Error()}),
		},
		{
			name: "Email (bad address)", method: http.MethodPost, path: "/v1/backups/email", body: []byte(`{"to":"nope"}`),
			lang: "en", wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"to": "must be a valid email address"}),
		},
		{
			name: "Email (bad address, es)", method: http.MethodPost, path: "/v1/backups/email", body: []byte(`{"to":"nope"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"to": "debe ser una dirección de correo válida"}),
		},
	}
	runHTTPTests(t, app, tests)

	req, rec := newRequest(http.MethodPost, "/v1/backups/email", []byte(`{}`))
	app.do(req, rec)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var summary backup.Summary
	unmarchall(t, rec, &summary)
	assert.Equal(t, 1, summary.Activities)

	sent := app.mailer.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "profe@example.com", sent[0].To[0].Address)
	require.Len(t, sent[0].Attachments, 1)
	assert.Equal(t, summary.Filename, sent[0].Attachments[0].Filename)
}

func Test_dataApi_spreadsheets(t *testing.T) {
	ctx := context.Background()
	app := setup(t, "")

	math, err := app.planner.AddActivity(ctx, planner.NewActivity{Name: "Mates", Type: planner.TypeClass})
	require.NoError(t, err)
	_, err = app.planner.AddTimeSlot(ctx, planner.NewTimeSlot{Label: "08:00-09:00"})
	require.NoError(t, err)
	_, err = app.planner.SetScheduleSlot(ctx, planner.ScheduleSlot{Day: "Lunes", Time: "08:00-09:00", ActivityID: math.ID})
	require.NoError(t, err)
	ana, err := app.planner.AddStudentToClass(ctx, math.ID, planner.StudentName{Name: "Ana Pérez"})
	require.NoError(t, err)

	req, rec := newRequest(http.MethodGet, "/v1/exports/week.xlsx?date=2025-10-08")
	app.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="horario-2025-10-06.xlsx"`, rec.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	monday, err := f.GetCellValue("Horario", "B2")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(monday, "Mates"), monday)

	for _, path := range []string{"/v1/exports/students/" + ana.ID, "/v1/exports/students/" + ana.ID + ".xlsx"} {
		req, rec = newRequest(http.MethodGet, path)
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, `attachment; filename="alumno-ana-pérez.xlsx"`, rec.Header().Get("Content-Disposition"))
	}

	req, rec = newRequest(http.MethodGet, "/v1/exports/students/nope.xlsx")
	app.do(req, rec)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
