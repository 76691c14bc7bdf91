package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/cuaderno/core/planner"
)

type repository struct {
	db *sqlx.DB
}

// NewRepository returns the PostgreSQL remote. The schema is the one of fs/migrations/postgres.
func NewRepository(db *sqlx.DB) planner.Repository {
	return &repository{db: db}
}

func (repo *repository) Ping(ctx context.Context) error {
	return repo.db.PingContext(ctx)
}

func (repo *repository) ListActivities(ctx context.Context) ([]planner.Activity, error) {
	var rows []activityRow
	q := `SELECT id, name, type, color, start_date, end_date, student_ids FROM activities ORDER BY created_at, id`
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting activities")
	}
	acts := make([]planner.Activity, 0, len(rows))
	for _, r := range rows {
		a, err := r.toActivity()
		if err != nil {
			return nil, errors.Wrapf(err, "decoding activity %s", r.ID)
		}
		acts = append(acts, a)
	}
	return acts, nil
}

func (repo *repository) SaveActivity(ctx context.Context, a planner.Activity) (planner.Activity, error) {
	ids := a.StudentIDs
	if ids == nil {
		ids = []string{}
	}
	studentIDs, err := json.Marshal(ids)
	if err != nil {
		return planner.Activity{}, err
	}
	q := `
		INSERT INTO activities (id, name, type, color, start_date, end_date, student_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name, type = excluded.type, color = excluded.color,
			start_date = excluded.start_date, end_date = excluded.end_date,
			student_ids = excluded.student_ids, updated_at = now()`
	_, err = repo.db.ExecContext(ctx, q,
		a.ID, a.Name, a.Type, a.Color, nullDate(a.StartDate), nullDate(a.EndDate), string(studentIDs))
	if err != nil {
		return planner.Activity{}, errors.Wrap(err, "saving activity")
	}
	return a, nil
}

func (repo *repository) DeleteActivity(ctx context.Context, id string) error {
	return repo.deleteBy(ctx, "activities", "id", id)
}

func (repo *repository) ListStudents(ctx context.Context) ([]planner.Student, error) {
	var rows []studentRow
	q := `SELECT id, name, general_notes FROM students ORDER BY created_at, id`
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting students")
	}
	sts := make([]planner.Student, 0, len(rows))
	for _, r := range rows {
		sts = append(sts, planner.Student{ID: r.ID, Name: r.Name, GeneralNotes: r.GeneralNotes})
	}
	return sts, nil
}

func (repo *repository) SaveStudent(ctx context.Context, s planner.Student) (planner.Student, error) {
	q := `
		INSERT INTO students (id, name, general_notes)
		VALUES (:id, :name, :general_notes)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name, general_notes = excluded.general_notes, updated_at = now()`
	row := studentRow{ID: s.ID, Name: s.Name, GeneralNotes: s.GeneralNotes}
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return planner.Student{}, errors.Wrap(err, "saving student")
	}
	return s, nil
}

func (repo *repository) DeleteStudent(ctx context.Context, id string) error {
	return repo.deleteBy(ctx, "students", "id", id)
}

func (repo *repository) ListTimeSlots(ctx context.Context) ([]planner.TimeSlot, error) {
	var rows []timeSlotRow
	q := `SELECT id, label, sort_order FROM time_slots ORDER BY sort_order, created_at`
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting time slots")
	}
	slots := make([]planner.TimeSlot, 0, len(rows))
	for _, r := range rows {
		slots = append(slots, planner.TimeSlot{ID: r.ID, Label: r.Label, Order: r.Order})
	}
	return slots, nil
}

func (repo *repository) SaveTimeSlot(ctx context.Context, ts planner.TimeSlot) (planner.TimeSlot, error) {
	q := `
		INSERT INTO time_slots (id, label, sort_order)
		VALUES (:id, :label, :sort_order)
		ON CONFLICT (id) DO UPDATE SET
			label = excluded.label, sort_order = excluded.sort_order, updated_at = now()`
	row := timeSlotRow{ID: ts.ID, Label: ts.Label, Order: ts.Order}
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return planner.TimeSlot{}, errors.Wrap(err, "saving time slot")
	}
	return ts, nil
}

func (repo *repository) DeleteTimeSlot(ctx context.Context, id string) error {
	return repo.deleteBy(ctx, "time_slots", "id", id)
}

func (repo *repository) GetSchedule(ctx context.Context) (map[string]string, error) {
	var rows []scheduleRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT day_time_key, activity_id FROM schedules`); err != nil {
		return nil, errors.Wrap(err, "selecting schedule")
	}
	schedule := make(map[string]string, len(rows))
	for _, r := range rows {
		schedule[r.Key] = r.ActivityID
	}
	return schedule, nil
}

func (repo *repository) SetScheduleSlot(ctx context.Context, key, activityID string) error {
	if activityID == "" {
		return repo.deleteBy(ctx, "schedules", "day_time_key", key)
	}
	q := `
		INSERT INTO schedules (day_time_key, activity_id)
		VALUES ($1, $2)
		ON CONFLICT (day_time_key) DO UPDATE SET activity_id = excluded.activity_id, updated_at = now()`
	if _, err := repo.db.ExecContext(ctx, q, key, activityID); err != nil {
		return errors.Wrap(err, "saving schedule slot")
	}
	return nil
}

func (repo *repository) ListOverrides(ctx context.Context) ([]planner.ScheduleOverride, error) {
	var rows []overrideRow
	q := `SELECT id, day, time, activity_id, start_date, end_date FROM schedule_overrides ORDER BY created_at, id`
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting schedule overrides")
	}
	ovs := make([]planner.ScheduleOverride, 0, len(rows))
	for _, r := range rows {
		ovs = append(ovs, r.toOverride())
	}
	return ovs, nil
}

func (repo *repository) SaveOverride(ctx context.Context, ov planner.ScheduleOverride) (planner.ScheduleOverride, error) {
	q := `
		INSERT INTO schedule_overrides (id, day, time, activity_id, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			day = excluded.day, time = excluded.time, activity_id = excluded.activity_id,
			start_date = excluded.start_date, end_date = excluded.end_date`
	if _, err := repo.db.ExecContext(ctx, q, ov.ID, ov.Day, ov.Time, ov.ActivityID, ov.StartDate, ov.EndDate); err != nil {
		return planner.ScheduleOverride{}, errors.Wrap(err, "saving schedule override")
	}
	return ov, nil
}

func (repo *repository) DeleteOverride(ctx context.Context, id string) error {
	return repo.deleteBy(ctx, "schedule_overrides", "id", id)
}

func (repo *repository) ListClassEntries(ctx context.Context) (map[string]planner.ClassEntry, error) {
	var rows []classEntryRow
	q := `SELECT entry_key, planned, completed, annotations FROM class_entries`
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting class entries")
	}
	entries := make(map[string]planner.ClassEntry, len(rows))
	for _, r := range rows {
		e, err := r.toClassEntry()
		if err != nil {
			return nil, errors.Wrapf(err, "decoding class entry %s", r.Key)
		}
		entries[r.Key] = e
	}
	return entries, nil
}

func (repo *repository) SaveClassEntry(ctx context.Context, key string, e planner.ClassEntry) error {
	activityID, date := planner.SplitEntryKey(key)
	anns := e.Annotations
	if anns == nil {
		anns = map[string]string{}
	}
	annotations, err := json.Marshal(anns)
	if err != nil {
		return err
	}
	q := `
		INSERT INTO class_entries (entry_key, activity_id, date, planned, completed, annotations)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb)
		ON CONFLICT (entry_key) DO UPDATE SET
			planned = excluded.planned, completed = excluded.completed,
			annotations = excluded.annotations, updated_at = now()`
	_, err = repo.db.ExecContext(ctx, q, key, activityID, date, e.Planned, e.Completed, string(annotations))
	if err != nil {
		return errors.Wrap(err, "saving class entry")
	}
	return nil
}

func (repo *repository) DeleteClassEntry(ctx context.Context, key string) error {
	return repo.deleteBy(ctx, "class_entries", "entry_key", key)
}

func (repo *repository) GetCourseSettings(ctx context.Context) (planner.CourseSettings, error) {
	var row courseSettingsRow
	err := repo.db.GetContext(ctx, &row, `SELECT start_date, end_date FROM course_settings ORDER BY id LIMIT 1`)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return planner.CourseSettings{}, nil
	case err != nil:
		return planner.CourseSettings{}, errors.Wrap(err, "selecting course settings")
	}
	return planner.CourseSettings{StartDate: fromNullDate(row.StartDate), EndDate: fromNullDate(row.EndDate)}, nil
}

// SaveCourseSettings keeps a single settings row: the first one is updated, or created.
func (repo *repository) SaveCourseSettings(ctx context.Context, cs planner.CourseSettings) (err error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE course_settings SET start_date = $1, end_date = $2, updated_at = now()
		WHERE id = (SELECT id FROM course_settings ORDER BY id LIMIT 1)`,
		nullDate(cs.StartDate), nullDate(cs.EndDate))
	if err != nil {
		return errors.Wrap(err, "updating course settings")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "updating course settings")
	}
	if n == 0 {
		_, err = tx.ExecContext(ctx, `INSERT INTO course_settings (start_date, end_date) VALUES ($1, $2)`,
			nullDate(cs.StartDate), nullDate(cs.EndDate))
		if err != nil {
			return errors.Wrap(err, "creating course settings")
		}
	}
	return errors.Wrap(tx.Commit(), "committing course settings")
}

var allTables = []string{
	"class_entries", "schedule_overrides", "schedules", "activities", "time_slots", "students", "course_settings",
}

func (repo *repository) DeleteAll(ctx context.Context) (err error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for _, table := range allTables {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return errors.Wrapf(err, "clearing %s", table)
		}
	}
	return errors.Wrap(tx.Commit(), "committing")
}

// deleteBy runs "DELETE FROM table WHERE column = value"; table and column are never user input.
func (repo *repository) deleteBy(ctx context.Context, table, column, value string) error {
	if _, err := repo.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE "+column+" = $1", value); err != nil {
		return errors.Wrapf(err, "deleting from %s", table)
	}
	return nil
}
