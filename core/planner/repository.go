package planner

import (
	"context"

	"github.com/google/uuid"
)

var newID = uuid.NewString // mockable

type (
	// Repository is the remote relational backend. Save* methods are upserts keyed by ID.
	Repository interface {
		Ping(ctx context.Context) error

		ListActivities(ctx context.Context) ([]Activity, error)
		SaveActivity(ctx context.Context, a Activity) (Activity, error)
		DeleteActivity(ctx context.Context, id string) error

		ListStudents(ctx context.Context) ([]Student, error)
		SaveStudent(ctx context.Context, s Student) (Student, error)
		DeleteStudent(ctx context.Context, id string) error

		ListTimeSlots(ctx context.Context) ([]TimeSlot, error)
		SaveTimeSlot(ctx context.Context, ts TimeSlot) (TimeSlot, error)
		DeleteTimeSlot(ctx context.Context, id string) error

		GetSchedule(ctx context.Context) (map[string]string, error)
		// SetScheduleSlot upserts a cell; an empty activityID deletes it.
		SetScheduleSlot(ctx context.Context, key, activityID string) error

		ListOverrides(ctx context.Context) ([]ScheduleOverride, error)
		SaveOverride(ctx context.Context, ov ScheduleOverride) (ScheduleOverride, error)
		DeleteOverride(ctx context.Context, id string) error

		ListClassEntries(ctx context.Context) (map[string]ClassEntry, error)
		SaveClassEntry(ctx context.Context, key string, e ClassEntry) error
		DeleteClassEntry(ctx context.Context, key string) error

		GetCourseSettings(ctx context.Context) (CourseSettings, error)
		SaveCourseSettings(ctx context.Context, cs CourseSettings) error

		DeleteAll(ctx context.Context) error
	}

	// Cache is the local persistent copy of the whole state.
	Cache interface {
		// Load returns false when nothing has been cached yet.
		Load(ctx context.Context) (Snapshot, bool, error)
		Save(ctx context.Context, snap Snapshot) error
		Clear(ctx context.Context) error
	}

	// Metrics receives the persistence events; the zero implementation is noopMetrics.
	Metrics interface {
		RemoteCall(op string)
		RemoteFailure(op string)
		Fallback(reason string)
		CacheWrite(err error)
		SetOnline(online bool)
		ObserveSync(seconds float64, err error)
	}
)

type noopMetrics struct{}

func (noopMetrics) RemoteCall(string)          {}
func (noopMetrics) RemoteFailure(string)       {}
func (noopMetrics) Fallback(string)            {}
func (noopMetrics) CacheWrite(error)           {}
func (noopMetrics) SetOnline(bool)             {}
func (noopMetrics) ObserveSync(float64, error) {}

// fetchAll reads every entity kind from the remote.
func fetchAll(ctx context.Context, repo Repository) (Snapshot, error) {
	var (
		snap Snapshot
		err  error
	)
	if snap.Activities, err = repo.ListActivities(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Students, err = repo.ListStudents(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.TimeSlots, err = repo.ListTimeSlots(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Schedule, err = repo.GetSchedule(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.ScheduleOverrides, err = repo.ListOverrides(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.ClassEntries, err = repo.ListClassEntries(ctx); err != nil {
		return Snapshot{}, err
	}
	cs, err := repo.GetCourseSettings(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	snap.CourseStartDate, snap.CourseEndDate = cs.StartDate, cs.EndDate
	snap.normalize()
	return snap, nil
}
