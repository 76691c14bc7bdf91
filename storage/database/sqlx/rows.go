package sqlxrepos

import (
	"encoding/json"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/cuaderno/core/planner"
)

type (
	activityRow struct {
		ID         string    `db:"id"`
		Name       string    `db:"name"`
		Type       string    `db:"type"`
		Color      string    `db:"color"`
		StartDate  null.Time `db:"start_date"`
		EndDate    null.Time `db:"end_date"`
		StudentIDs []byte    `db:"student_ids"`
	}

	studentRow struct {
		ID           string `db:"id"`
		Name         string `db:"name"`
		GeneralNotes string `db:"general_notes"`
	}

	timeSlotRow struct {
		ID    string `db:"id"`
		Label string `db:"label"`
		Order int    `db:"sort_order"`
	}

	scheduleRow struct {
		Key        string `db:"day_time_key"`
		ActivityID string `db:"activity_id"`
	}

	overrideRow struct {
		ID         string    `db:"id"`
		Day        string    `db:"day"`
		Time       string    `db:"time"`
		ActivityID string    `db:"activity_id"`
		StartDate  time.Time `db:"start_date"`
		EndDate    time.Time `db:"end_date"`
	}

	classEntryRow struct {
		Key         string      `db:"entry_key"`
		Planned     null.String `db:"planned"`
		Completed   null.String `db:"completed"`
		Annotations []byte      `db:"annotations"`
	}

	courseSettingsRow struct {
		StartDate null.Time `db:"start_date"`
		EndDate   null.Time `db:"end_date"`
	}
)

// nullDate maps a blank date to NULL.
func nullDate(s string) null.String {
	return null.NewString(s, s != "")
}

func fromNullDate(t null.Time) string {
	if !t.Valid {
		return ""
	}
	return planner.FormatDate(t.Time)
}

func (r activityRow) toActivity() (planner.Activity, error) {
	a := planner.Activity{
		ID:         r.ID,
		Name:       r.Name,
		Type:       r.Type,
		Color:      r.Color,
		StartDate:  fromNullDate(r.StartDate),
		EndDate:    fromNullDate(r.EndDate),
		StudentIDs: []string{},
	}
	if len(r.StudentIDs) > 0 {
		if err := json.Unmarshal(r.StudentIDs, &a.StudentIDs); err != nil {
			return planner.Activity{}, err
		}
	}
	return a, nil
}

func (r overrideRow) toOverride() planner.ScheduleOverride {
	return planner.ScheduleOverride{
		ID:         r.ID,
		Day:        r.Day,
		Time:       r.Time,
		ActivityID: r.ActivityID,
		StartDate:  planner.FormatDate(r.StartDate),
		EndDate:    planner.FormatDate(r.EndDate),
	}
}

func (r classEntryRow) toClassEntry() (planner.ClassEntry, error) {
	e := planner.ClassEntry{
		Planned:     r.Planned.String,
		Completed:   r.Completed.String,
		Annotations: map[string]string{},
	}
	if len(r.Annotations) > 0 {
		if err := json.Unmarshal(r.Annotations, &e.Annotations); err != nil {
			return planner.ClassEntry{}, err
		}
	}
	return e, nil
}
