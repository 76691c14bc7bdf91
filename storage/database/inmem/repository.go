package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/cuaderno/core/planner"
)

type repository struct {
	db *DB
}

func NewRepository(db *DB) planner.Repository {
	return &repository{db: db}
}

func (repo *repository) Ping(context.Context) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.db.checkRead()
}

func (repo *repository) sortKeys(prefix string, keys []string) {
	sort.Slice(keys, func(i, j int) bool {
		return repo.db.order[prefix+keys[i]] < repo.db.order[prefix+keys[j]]
	})
}

func (repo *repository) ListActivities(context.Context) ([]planner.Activity, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	if err := repo.db.checkRead(); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(repo.db.activities))
	for id := range repo.db.activities {
		ids = append(ids, id)
	}
	repo.sortKeys("activity:", ids)
	acts := make([]planner.Activity, 0, len(ids))
	for _, id := range ids {
		a := repo.db.activities[id]
		a.StudentIDs = append([]string{}, a.StudentIDs...)
		acts = append(acts, a)
	}
	return acts, nil
}

func (repo *repository) SaveActivity(_ context.Context, a planner.Activity) (planner.Activity, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	if err := repo.db.checkWrite(); err != nil {
		return planner.Activity{}, err
	}

	a.StudentIDs = append([]string{}, a.StudentIDs...)
	repo.db.activities[a.ID] = a
	repo.db.touch("activity:" + a.ID)
	return a, nil
}

func (repo *repository) DeleteActivity(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	if err := repo.db.checkWrite(); err != nil {
		return err
	}
	delete(repo.db.activities, id)
	return nil
}

func (repo *repository) ListStudents(context.Context) ([]planner.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	if err := repo.db.checkRead(); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(repo.db.students))
	for id := range repo.db.students {
		ids = append(ids, id)
	}
	repo.sortKeys("student:", ids)
	students := make([]planner.Student, 0, len(ids))
	for _, id := range ids {
		students = append(students, repo.db.students[id])
	}
	return students, nil
}

func (repo *repository) SaveStudent(_ context.Context, s planner.Student) (planner.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	if err := repo.db.checkWrite(); err != nil {
		return planner.Student{}, err
	}
	repo.db.students[s.ID] = s
	repo.db.touch("student:" + s.ID)
	return s, nil
}

func (repo *repository) DeleteStudent(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	if err := repo.db.checkWrite(); err != nil {
		return err
	}
	delete(repo.db.students, id)
	return nil
}

func (repo *repository) ListTimeSlots(context.Context) ([]planner.TimeSlot, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	if err := repo.db.checkRead(); err != nil {
		return nil, err
	}

	slots := make([]planner.TimeSlot, 0, len(repo.db.timeSlots))
	for _, ts := range repo.db.timeSlots {
		slots = append(slots, ts)
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Order != slots[j].Order {
			return slots[i].Order < slots[j].Order
		}
		return repo.db.order["slot:"+slots[i].ID] < repo.db.order["slot:"+slots[j].ID]
	})
	return slots, nil
}

func (repo *repository) SaveTimeSlot(_ context.Context, ts planner.TimeSlot) (planner.TimeSlot, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	if err := repo.db.checkWrite(); err != nil {
		return planner.TimeSlot{}, err
	}
	repo.db.timeSlots[ts.ID] = ts
	repo.db.touch("slot:" + ts.ID)
	return ts, nil
}

func (repo *repository) DeleteTimeSlot(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	if err := repo.db.checkWrite(); err != nil {
		return err
	}
	delete(repo.db.timeSlots, id)
	return nil
}

func (repo *repository) GetSchedule(context.Context) (map[string]string, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	if err := repo.db.checkRead(); err != nil {
		return nil, err
	}

	sched := make(map[string]string, len(repo.db.schedule))
	for k, v := range repo.db.schedule {
		sched[k] = v
	}
	return sched, nil
}

func (repo *repository) SetScheduleSlot(_ context.Context, key, activityID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	if err := repo.db.checkWrite(); err != nil {
		return err
	}
	if activityID == "" {
		delete(repo.db.schedule, key)
		return nil
	}
	repo.db.schedule[key] = activityID
	return nil
}

func (repo *repository) ListOverrides(context.Context) ([]planner.ScheduleOverride, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	if err := repo.db.checkRead(); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(repo.db.overrides))
	for id := range repo.db.overrides {
		ids = append(ids, id)
	}
	repo.sortKeys("override:", ids)
	ovs := make([]planner.ScheduleOverride, 0, len(ids))
	for _, id := range ids {
		ovs = append(ovs, repo.db.overrides[id])
	}
	return ovs, nil
}

func (repo *repository) SaveOverride(_ context.Context, ov planner.ScheduleOverride) (planner.ScheduleOverride, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	if err := repo.db.checkWrite(); err != nil {
		return planner.ScheduleOverride{}, err
	}
	repo.db.overrides[ov.ID] = ov
	repo.db.touch("override:" + ov.ID)
	return ov, nil
}

func (repo *repository) DeleteOverride(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	if err := repo.db.checkWrite(); err != nil {
		return err
	}
	delete(repo.db.overrides, id)
	return nil
}

func (repo *repository) ListClassEntries(context.Context) (map[string]planner.ClassEntry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	if err := repo.db.checkRead(); err != nil {
		return nil, err
	}

	entries := make(map[string]planner.ClassEntry, len(repo.db.entries))
	for k, e := range repo.db.entries {
		entries[k] = copyEntry(e)
	}
	return entries, nil
}

func (repo *repository) SaveClassEntry(_ context.Context, key string, e planner.ClassEntry) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	if err := repo.db.checkWrite(); err != nil {
		return err
	}
	repo.db.entries[key] = copyEntry(e)
	return nil
}

func (repo *repository) DeleteClassEntry(_ context.Context, key string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	if err := repo.db.checkWrite(); err != nil {
		return err
	}
	delete(repo.db.entries, key)
	return nil
}

func (repo *repository) GetCourseSettings(context.Context) (planner.CourseSettings, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	if err := repo.db.checkRead(); err != nil {
		return planner.CourseSettings{}, err
	}
	return repo.db.course, nil
}

func (repo *repository) SaveCourseSettings(_ context.Context, cs planner.CourseSettings) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	if err := repo.db.checkWrite(); err != nil {
		return err
	}
	repo.db.course = cs
	return nil
}

func (repo *repository) DeleteAll(context.Context) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	if err := repo.db.checkWrite(); err != nil {
		return err
	}
	repo.db.reset()
	return nil
}

func copyEntry(e planner.ClassEntry) planner.ClassEntry {
	anns := make(map[string]string, len(e.Annotations))
	for k, v := range e.Annotations {
		anns[k] = v
	}
	e.Annotations = anns
	return e
}
