package planner

import (
	"strings"
)

// Activity types
const (
	TypeClass   = "class"
	TypeGeneral = "general"
)

// Days are the schedule keys of a school week (Monday to Friday).
var Days = []string{"Lunes", "Martes", "Miércoles", "Jueves", "Viernes"}

// CacheKey is the bucket holding the local snapshot.
const CacheKey = "teacherDashboardData"

// DeletedActivityName labels history items whose activity no longer exists.
const (
	DeletedActivityName  = "Clase eliminada"
	DeletedActivityColor = "#cccccc"
)

type (
	Activity struct {
		ID         string   `json:"id"`
		Name       string   `json:"name"`
		Type       string   `json:"type"`
		Color      string   `json:"color"`
		StartDate  string   `json:"startDate"`
		EndDate    string   `json:"endDate"`
		StudentIDs []string `json:"studentIds"`
	}

	Student struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		GeneralNotes string `json:"generalNotes"`
	}

	TimeSlot struct {
		ID    string `json:"id"`
		Label string `json:"label"`
		Order int    `json:"order"`
	}

	ScheduleOverride struct {
		ID         string `json:"id"`
		Day        string `json:"day"`
		Time       string `json:"time"`
		ActivityID string `json:"activityId"`
		StartDate  string `json:"startDate"`
		EndDate    string `json:"endDate"`
	}

	ClassEntry struct {
		Planned     string            `json:"planned"`
		Completed   string            `json:"completed"`
		Annotations map[string]string `json:"annotations"`
	}

	CourseSettings struct {
		StartDate string `json:"courseStartDate"`
		EndDate   string `json:"courseEndDate"`
	}

	// Snapshot is the whole planner state, in the format of the local cache and the JSON backups.
	Snapshot struct {
		Activities        []Activity            `json:"activities"`
		Students          []Student             `json:"students"`
		TimeSlots         []TimeSlot            `json:"timeSlots"`
		Schedule          map[string]string     `json:"schedule"`
		ScheduleOverrides []ScheduleOverride    `json:"scheduleOverrides"`
		ClassEntries      map[string]ClassEntry `json:"classEntries"`
		CourseStartDate   string                `json:"courseStartDate"`
		CourseEndDate     string                `json:"courseEndDate"`
	}
)

// ScheduleKey builds the "<Day>-<slotLabel>" schedule key.
func ScheduleKey(day, slotLabel string) string {
	return day + "-" + slotLabel
}

// SplitScheduleKey is the inverse of ScheduleKey; day keys never contain "-".
func SplitScheduleKey(key string) (day, slotLabel string) {
	parts := strings.SplitN(key, "-", 2)
	if len(parts) < 2 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}

// EntryKey builds the "<activityId>_<YYYY-MM-DD>" class entry key.
func EntryKey(activityID, date string) string {
	return activityID + "_" + date
}

// SplitEntryKey is the inverse of EntryKey.
func SplitEntryKey(key string) (activityID, date string) {
	i := strings.LastIndex(key, "_")
	if i < 0 {
		return key, ""
	}
	return key[:i], key[i+1:]
}

func IsDay(day string) bool {
	for _, d := range Days {
		if d == day {
			return true
		}
	}
	return false
}

func (a Activity) IsClass() bool { return a.Type == TypeClass }

func (a Activity) HasStudent(id string) bool {
	for _, sid := range a.StudentIDs {
		if sid == id {
			return true
		}
	}
	return false
}

func (a Activity) clone() Activity {
	a.StudentIDs = append(make([]string, 0, len(a.StudentIDs)), a.StudentIDs...)
	return a
}

func (e ClassEntry) clone() ClassEntry {
	anns := make(map[string]string, len(e.Annotations))
	for k, v := range e.Annotations {
		anns[k] = v
	}
	e.Annotations = anns
	return e
}

func (s Snapshot) CourseSettings() CourseSettings {
	return CourseSettings{StartDate: s.CourseStartDate, EndDate: s.CourseEndDate}
}

// IsEmpty reports whether the snapshot holds no activities, students, time slots or schedule
// (the condition under which a remote is considered new).
func (s Snapshot) IsEmpty() bool {
	return len(s.Activities) == 0 && len(s.Students) == 0 && len(s.TimeSlots) == 0 && len(s.Schedule) == 0
}

// Clone returns a deep copy; the copy never aliases s.
func (s Snapshot) Clone() Snapshot {
	c := Snapshot{
		Activities:        make([]Activity, 0, len(s.Activities)),
		Students:          append(make([]Student, 0, len(s.Students)), s.Students...),
		TimeSlots:         append(make([]TimeSlot, 0, len(s.TimeSlots)), s.TimeSlots...),
		Schedule:          make(map[string]string, len(s.Schedule)),
		ScheduleOverrides: append(make([]ScheduleOverride, 0, len(s.ScheduleOverrides)), s.ScheduleOverrides...),
		ClassEntries:      make(map[string]ClassEntry, len(s.ClassEntries)),
		CourseStartDate:   s.CourseStartDate,
		CourseEndDate:     s.CourseEndDate,
	}
	for _, a := range s.Activities {
		c.Activities = append(c.Activities, a.clone())
	}
	for k, v := range s.Schedule {
		c.Schedule[k] = v
	}
	for k, e := range s.ClassEntries {
		c.ClassEntries[k] = e.clone()
	}
	return c
}

// normalize replaces nil collections so the snapshot always serializes to arrays/objects.
func (s *Snapshot) normalize() {
	if s.Activities == nil {
		s.Activities = []Activity{}
	}
	for i := range s.Activities {
		if s.Activities[i].StudentIDs == nil {
			s.Activities[i].StudentIDs = []string{}
		}
	}
	if s.Students == nil {
		s.Students = []Student{}
	}
	if s.TimeSlots == nil {
		s.TimeSlots = []TimeSlot{}
	}
	if s.Schedule == nil {
		s.Schedule = map[string]string{}
	}
	if s.ScheduleOverrides == nil {
		s.ScheduleOverrides = []ScheduleOverride{}
	}
	if s.ClassEntries == nil {
		s.ClassEntries = map[string]ClassEntry{}
	}
	for k, e := range s.ClassEntries {
		if e.Annotations == nil {
			e.Annotations = map[string]string{}
			s.ClassEntries[k] = e
		}
	}
}

func (s *Snapshot) activity(id string) (int, bool) {
	for i := range s.Activities {
		if s.Activities[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

func (s *Snapshot) student(id string) (int, bool) {
	for i := range s.Students {
		if s.Students[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

func (s *Snapshot) studentByName(name string) (int, bool) {
	lname := strings.ToLower(name)
	for i := range s.Students {
		if strings.ToLower(s.Students[i].Name) == lname {
			return i, true
		}
	}
	return -1, false
}

func (s *Snapshot) timeSlot(id string) (int, bool) {
	for i := range s.TimeSlots {
		if s.TimeSlots[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

func (s *Snapshot) override(id string) (int, bool) {
	for i := range s.ScheduleOverrides {
		if s.ScheduleOverrides[i].ID == id {
			return i, true
		}
	}
	return -1, false
}
