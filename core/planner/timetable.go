package planner

import (
	"time"

	"github.com/trezcool/cuaderno/core"
)

// sessionHorizon bounds the session search when the course has no date on that side.
const sessionHorizon = 365

type (
	Cell struct {
		Day        string    `json:"day"`
		Date       string    `json:"date"`
		Time       string    `json:"time"`
		Activity   *Activity `json:"activity,omitempty"`
		OverrideID string    `json:"overrideId,omitempty"`
		HasPlan    bool      `json:"hasPlan"`
		Clickable  bool      `json:"clickable"`
		Today      bool      `json:"today"`
	}

	Row struct {
		Slot  TimeSlot `json:"slot"`
		Cells []Cell   `json:"cells"`
	}

	// WeekView is the resolved timetable of a Monday to Friday week.
	WeekView struct {
		Start string   `json:"start"`
		End   string   `json:"end"`
		Days  []string `json:"days"`
		Dates []string `json:"dates"`
		Rows  []Row    `json:"rows"`
	}

	SessionRef struct {
		Day  string `json:"day"`
		Time string `json:"time"`
		Date string `json:"date"`
	}

	// SessionView is the detail of one class session: its entry, its students and the neighbouring sessions.
	SessionView struct {
		Activity Activity    `json:"activity"`
		Day      string      `json:"day"`
		Time     string      `json:"time"`
		Date     string      `json:"date"`
		EntryKey string      `json:"entryKey"`
		Entry    ClassEntry  `json:"entry"`
		Students []Student   `json:"students"`
		Previous *SessionRef `json:"previous"`
		Next     *SessionRef `json:"next"`
	}
)

// resolve returns the activity shown in the day/slot cell on date: the base schedule,
// replaced by the first override (in list order) whose day/time match and whose range contains date.
// Activities outside the course range or their own range are not shown.
func (s *Snapshot) resolve(day, label string, date time.Time) (act *Activity, overrideID string) {
	activityID := s.Schedule[ScheduleKey(day, label)]
	for _, ov := range s.ScheduleOverrides {
		if ov.Day != day || ov.Time != label {
			continue
		}
		start, err := ParseDate(ov.StartDate)
		if err != nil {
			continue
		}
		end, err := ParseDate(ov.EndDate)
		if err != nil {
			continue
		}
		if (dateRange{start, end}).contains(date) {
			activityID, overrideID = ov.ActivityID, ov.ID
			break
		}
	}
	if activityID == "" {
		return nil, ""
	}
	i, ok := s.activity(activityID)
	if !ok {
		return nil, ""
	}
	a := s.Activities[i]
	if !s.activityRange(a).contains(date) || !s.courseRange().contains(date) {
		return nil, ""
	}
	a = a.clone()
	return &a, overrideID
}

func (s *Snapshot) courseRange() dateRange {
	return dateRange{parseOptionalDate(s.CourseStartDate), parseOptionalDate(s.CourseEndDate)}
}

// activityRange defaults the missing activity dates to the course ones.
func (s *Snapshot) activityRange(a Activity) dateRange {
	r := dateRange{parseOptionalDate(a.StartDate), parseOptionalDate(a.EndDate)}
	course := s.courseRange()
	if r.start.IsZero() {
		r.start = course.start
	}
	if r.end.IsZero() {
		r.end = course.end
	}
	return r
}

func (s *Snapshot) hasPlan(activityID, date string) bool {
	e, ok := s.ClassEntries[EntryKey(activityID, date)]
	return ok && e.Planned != ""
}

// Week resolves the timetable of the week containing date.
func (svc *Service) Week(date time.Time) WeekView {
	monday := WeekStart(date)
	today := FormatDate(Today())

	wv := WeekView{
		Start: FormatDate(monday),
		End:   FormatDate(monday.AddDate(0, 0, len(Days)-1)),
		Days:  Days,
		Dates: make([]string, len(Days)),
		Rows:  []Row{},
	}
	for i := range Days {
		wv.Dates[i] = FormatDate(monday.AddDate(0, 0, i))
	}

	svc.state.view(func(s *Snapshot) {
		for _, slot := range s.TimeSlots {
			row := Row{Slot: slot, Cells: make([]Cell, 0, len(Days))}
			for i, day := range Days {
				cellDate := monday.AddDate(0, 0, i)
				cell := Cell{Day: day, Date: wv.Dates[i], Time: slot.Label, Today: wv.Dates[i] == today}
				if act, ovID := s.resolve(day, slot.Label, cellDate); act != nil {
					cell.Activity = act
					cell.OverrideID = ovID
					cell.HasPlan = s.hasPlan(act.ID, cell.Date)
					cell.Clickable = act.IsClass()
				}
				row.Cells = append(row.Cells, cell)
			}
			wv.Rows = append(wv.Rows, row)
		}
	})
	return wv
}

// FindNextSession returns the first session of the activity strictly after date, or nil.
func (svc *Service) FindNextSession(activityID string, date time.Time) *SessionRef {
	var ref *SessionRef
	svc.state.view(func(s *Snapshot) { ref = s.findSession(activityID, date, 1) })
	return ref
}

// FindPreviousSession returns the last session of the activity strictly before date, or nil.
func (svc *Service) FindPreviousSession(activityID string, date time.Time) *SessionRef {
	var ref *SessionRef
	svc.state.view(func(s *Snapshot) { ref = s.findSession(activityID, date, -1) })
	return ref
}

// findSession walks the calendar from date in step (+1/-1 day) until the course bound on that side,
// or sessionHorizon days when unbounded. Within a day, slots are scanned in display order
// (reversed when walking backwards).
func (s *Snapshot) findSession(activityID string, date time.Time, step int) *SessionRef {
	if len(s.TimeSlots) == 0 {
		return nil
	}
	course := s.courseRange()
	limit := date.AddDate(0, 0, step*sessionHorizon)
	if step > 0 && !course.end.IsZero() && course.end.Before(limit) {
		limit = course.end
	}
	if step < 0 && !course.start.IsZero() && course.start.After(limit) {
		limit = course.start
	}

	for d := date.AddDate(0, 0, step); ; d = d.AddDate(0, 0, step) {
		if (step > 0 && d.After(limit)) || (step < 0 && d.Before(limit)) {
			return nil
		}
		day := DayKey(d)
		if day == "" {
			continue
		}
		for n := range s.TimeSlots {
			i := n
			if step < 0 {
				i = len(s.TimeSlots) - 1 - n
			}
			label := s.TimeSlots[i].Label
			if act, _ := s.resolve(day, label, d); act != nil && act.ID == activityID {
				return &SessionRef{Day: day, Time: label, Date: FormatDate(d)}
			}
		}
	}
}

// Session builds the detail of the class session of activityID on date, in the day/slot cell.
func (svc *Service) Session(activityID, day, slotLabel, date string) (SessionView, error) {
	d, err := ParseDate(date)
	if err != nil {
		return SessionView{}, core.NewValidationError(nil, core.NewFieldError("date", core.ISODateText))
	}
	if day == "" {
		day = DayKey(d)
	}

	var (
		sv    SessionView
		found bool
	)
	svc.state.view(func(s *Snapshot) {
		var i int
		if i, found = s.activity(activityID); !found {
			return
		}
		sv = SessionView{
			Activity: s.Activities[i].clone(),
			Day:      day,
			Time:     slotLabel,
			Date:     date,
			EntryKey: EntryKey(activityID, date),
			Entry:    ClassEntry{Annotations: map[string]string{}},
			Students: []Student{},
			Previous: s.findSession(activityID, d, -1),
			Next:     s.findSession(activityID, d, 1),
		}
		if e, ok := s.ClassEntries[sv.EntryKey]; ok {
			sv.Entry = e.clone()
		}
		for _, st := range s.Students {
			if sv.Activity.HasStudent(st.ID) {
				sv.Students = append(sv.Students, st)
			}
		}
	})
	if !found {
		return SessionView{}, ErrActivityNotFound
	}
	return sv, nil
}
