package planner_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/cuaderno/core/planner"
	"github.com/trezcool/cuaderno/storage/database/inmem"
	"github.com/trezcool/cuaderno/tests"
)

func fixedNow(date string) func() time.Time {
	d, err := planner.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return d.Add(10 * time.Hour) }
}

func resetNow() { planner.NowFunc = time.Now }

func mustDate(t *testing.T, s string) time.Time {
	d, err := planner.ParseDate(s)
	require.NoError(t, err)
	return d
}

// timetableFixture: course 2025-09-08..2026-06-19, slots 08:00-09:00 & 09:00-10:00,
// math on Monday & Wednesday first slot, a general duty on Tuesday second slot.
func timetableFixture(t *testing.T) (*planner.Service, planner.Activity, planner.Activity) {
	ctx := context.Background()
	svc := testutil.NewPlannerService(t, nil, inmemdb.NewCache())

	_, err := svc.UpdateCourseDates(ctx, planner.CourseDates{StartDate: strPtr("2025-09-08"), EndDate: strPtr("2026-06-19")})
	require.NoError(t, err)
	_, err = svc.GenerateTimeSlots(ctx, planner.GenerateTimeSlots{Start: "08:00", End: "10:00", ClassMinutes: 60})
	require.NoError(t, err)

	math, err := svc.AddActivity(ctx, planner.NewActivity{Name: "Mates", Type: planner.TypeClass})
	require.NoError(t, err)
	duty, err := svc.AddActivity(ctx, planner.NewActivity{Name: "Guardia", Type: planner.TypeGeneral})
	require.NoError(t, err)

	for _, ss := range []planner.ScheduleSlot{
		{Day: "Lunes", Time: "08:00-09:00", ActivityID: math.ID},
		{Day: "Miércoles", Time: "08:00-09:00", ActivityID: math.ID},
		{Day: "Martes", Time: "09:00-10:00", ActivityID: duty.ID},
	} {
		_, err = svc.SetScheduleSlot(ctx, ss)
		require.NoError(t, err)
	}
	return svc, math, duty
}

func TestService_Week(t *testing.T) {
	ctx := context.Background()
	planner.NowFunc = fixedNow("2025-10-08")
	defer resetNow()

	svc, math, duty := timetableFixture(t)
	_, err := svc.SetPlanned(ctx, math.ID, "2025-10-06", planner.EntryText{Text: "Fracciones"})
	require.NoError(t, err)

	// Thursday: the week starts on Monday 2025-10-06
	wv := svc.Week(mustDate(t, "2025-10-09"))
	assert.Equal(t, "2025-10-06", wv.Start)
	assert.Equal(t, "2025-10-10", wv.End)
	assert.Equal(t, []string{"2025-10-06", "2025-10-07", "2025-10-08", "2025-10-09", "2025-10-10"}, wv.Dates)
	require.Len(t, wv.Rows, 2)

	monday := wv.Rows[0].Cells[0]
	require.NotNil(t, monday.Activity)
	assert.Equal(t, math.ID, monday.Activity.ID)
	assert.True(t, monday.HasPlan)
	assert.True(t, monday.Clickable)
	assert.False(t, monday.Today)

	wednesday := wv.Rows[0].Cells[2]
	require.NotNil(t, wednesday.Activity)
	assert.False(t, wednesday.HasPlan)
	assert.True(t, wednesday.Today)

	tuesday := wv.Rows[1].Cells[1]
	require.NotNil(t, tuesday.Activity)
	assert.Equal(t, duty.ID, tuesday.Activity.ID)
	assert.False(t, tuesday.Clickable)

	assert.Nil(t, wv.Rows[1].Cells[0].Activity)

	// before the course starts nothing is shown
	before := svc.Week(mustDate(t, "2025-09-01"))
	assert.Nil(t, before.Rows[0].Cells[0].Activity)
}

func TestService_Week_overrides(t *testing.T) {
	ctx := context.Background()
	svc, math, duty := timetableFixture(t)

	_, err := svc.AddOverride(ctx, planner.NewOverride{
		Day: "Lunes", Time: "08:00-09:00", ActivityID: duty.ID, StartDate: "2025-10-13", EndDate: "2025-10-13",
	})
	require.NoError(t, err)
	// overlapping override: the first one in list order wins
	_, err = svc.AddOverride(ctx, planner.NewOverride{
		Day: "Lunes", Time: "08:00-09:00", ActivityID: math.ID, StartDate: "2025-10-01", EndDate: "2025-10-31",
	})
	require.NoError(t, err)

	_, err = svc.AddOverride(ctx, planner.NewOverride{
		Day: "Lunes", Time: "08:00-09:00", ActivityID: duty.ID, StartDate: "2025-10-20", EndDate: "2025-10-13",
	})
	assert.Error(t, err)

	cell := svc.Week(mustDate(t, "2025-10-13")).Rows[0].Cells[0]
	require.NotNil(t, cell.Activity)
	assert.Equal(t, duty.ID, cell.Activity.ID)
	assert.NotEmpty(t, cell.OverrideID)

	cell = svc.Week(mustDate(t, "2025-10-20")).Rows[0].Cells[0]
	require.NotNil(t, cell.Activity)
	assert.Equal(t, math.ID, cell.Activity.ID)

	// the activity's own range hides it
	_, err = svc.UpdateActivity(ctx, duty.ID, planner.UpdateActivity{StartDate: "2025-10-14"})
	require.NoError(t, err)
	cell = svc.Week(mustDate(t, "2025-10-13")).Rows[0].Cells[0]
	assert.Nil(t, cell.Activity)
}

func TestService_FindSessions(t *testing.T) {
	ctx := context.Background()
	svc, math, _ := timetableFixture(t)

	tests := []struct {
		name string
		find func(string, time.Time) *planner.SessionRef
		from string
		want *planner.SessionRef
	}{
		{
			name: "next from monday", find: svc.FindNextSession, from: "2025-10-06",
			want: &planner.SessionRef{Day: "Miércoles", Time: "08:00-09:00", Date: "2025-10-08"},
		},
		{
			name: "next from wednesday", find: svc.FindNextSession, from: "2025-10-08",
			want: &planner.SessionRef{Day: "Lunes", Time: "08:00-09:00", Date: "2025-10-13"},
		},
		{
			name: "previous from monday", find: svc.FindPreviousSession, from: "2025-10-13",
			want: &planner.SessionRef{Day: "Miércoles", Time: "08:00-09:00", Date: "2025-10-08"},
		},
		{name: "none before the course", find: svc.FindPreviousSession, from: "2025-09-08"},
		{name: "none after the course", find: svc.FindNextSession, from: "2026-06-17"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.find(math.ID, mustDate(t, tt.from)))
		})
	}

	_, err := svc.AddStudentToClass(ctx, math.ID, planner.StudentName{Name: "Ana"})
	require.NoError(t, err)
	sv, err := svc.Session(math.ID, "", "08:00-09:00", "2025-10-08")
	require.NoError(t, err)
	assert.Equal(t, "Miércoles", sv.Day)
	assert.Equal(t, math.ID+"_2025-10-08", sv.EntryKey)
	assert.Len(t, sv.Students, 1)
	require.NotNil(t, sv.Previous)
	require.NotNil(t, sv.Next)
	assert.Equal(t, "2025-10-06", sv.Previous.Date)
	assert.Equal(t, "2025-10-13", sv.Next.Date)

	_, err = svc.Session("nope", "", "08:00-09:00", "2025-10-08")
	assert.Equal(t, planner.ErrActivityNotFound, err)
	_, err = svc.Session(math.ID, "", "08:00-09:00", "08/10/2025")
	assert.Error(t, err)
}
