package planner

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/trezcool/cuaderno/core"
)

// ErrInvalidSnapshot is returned for import payloads that are not a JSON object.
var ErrInvalidSnapshot = errors.New("invalid snapshot: a JSON object is expected")

// ParseSnapshot reads a snapshot leniently: every section is optional, nulls become empty collections,
// time slots without an order get their list position, and class entries written by older versions
// (with "summary" instead of "completed") are upgraded. Dates are normalized to YYYY-MM-DD: optional
// ones that cannot be read are blanked, while overrides and class entries without a valid date are
// dropped since the remote cannot store them.
func ParseSnapshot(data []byte) (Snapshot, error) {
	if !gjson.ValidBytes(data) {
		return Snapshot{}, ErrInvalidSnapshot
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return Snapshot{}, ErrInvalidSnapshot
	}

	var snap Snapshot
	for _, v := range items(root.Get("activities")) {
		a := Activity{
			ID:         v.Get("id").String(),
			Name:       v.Get("name").String(),
			Type:       v.Get("type").String(),
			Color:      v.Get("color").String(),
			StartDate:  isoDate(v.Get("startDate").String()),
			EndDate:    isoDate(v.Get("endDate").String()),
			StudentIDs: []string{},
		}
		if a.ID == "" {
			continue
		}
		if a.Type == "" {
			a.Type = TypeClass
		}
		for _, id := range items(v.Get("studentIds")) {
			if sid := id.String(); sid != "" && !a.HasStudent(sid) {
				a.StudentIDs = append(a.StudentIDs, sid)
			}
		}
		snap.Activities = append(snap.Activities, a)
	}

	for _, v := range items(root.Get("students")) {
		st := Student{
			ID:           v.Get("id").String(),
			Name:         v.Get("name").String(),
			GeneralNotes: v.Get("generalNotes").String(),
		}
		if st.ID != "" {
			snap.Students = append(snap.Students, st)
		}
	}

	for _, v := range items(root.Get("timeSlots")) {
		ts := TimeSlot{
			ID:    v.Get("id").String(),
			Label: v.Get("label").String(),
			Order: len(snap.TimeSlots),
		}
		if order := v.Get("order"); order.Type == gjson.Number {
			ts.Order = int(order.Int())
		}
		if ts.ID != "" {
			snap.TimeSlots = append(snap.TimeSlots, ts)
		}
	}

	snap.Schedule = map[string]string{}
	for key, v := range fields(root.Get("schedule")) {
		if id := v.String(); id != "" {
			snap.Schedule[key] = id
		}
	}

	for _, v := range items(root.Get("scheduleOverrides")) {
		ov := ScheduleOverride{
			ID:         v.Get("id").String(),
			Day:        v.Get("day").String(),
			Time:       v.Get("time").String(),
			ActivityID: v.Get("activityId").String(),
			StartDate:  isoDate(v.Get("startDate").String()),
			EndDate:    isoDate(v.Get("endDate").String()),
		}
		if ov.ID != "" && ov.Day != "" && ov.Time != "" && ov.ActivityID != "" &&
			ov.StartDate != "" && ov.EndDate != "" && ov.StartDate <= ov.EndDate {
			snap.ScheduleOverrides = append(snap.ScheduleOverrides, ov)
		}
	}

	snap.ClassEntries = map[string]ClassEntry{}
	for key, v := range fields(root.Get("classEntries")) {
		if activityID, date := SplitEntryKey(key); activityID == "" || date == "" || isoDate(date) != date {
			continue
		}
		e := ClassEntry{
			Planned:     v.Get("planned").String(),
			Completed:   v.Get("completed").String(),
			Annotations: map[string]string{},
		}
		if !v.Get("completed").Exists() {
			e.Completed = v.Get("summary").String()
		}
		for sid, text := range fields(v.Get("annotations")) {
			e.Annotations[sid] = text.String()
		}
		snap.ClassEntries[key] = e
	}

	snap.CourseStartDate = isoDate(root.Get("courseStartDate").String())
	snap.CourseEndDate = isoDate(root.Get("courseEndDate").String())
	snap.normalize()
	return snap, nil
}

// isoDate returns s as YYYY-MM-DD (a timestamp keeps its date part), or "" when it is not a date.
func isoDate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > len(core.DateLayout) {
		s = s[:len(core.DateLayout)]
	}
	if _, err := ParseDate(s); err != nil {
		return ""
	}
	return s
}

func items(r gjson.Result) []gjson.Result {
	if !r.IsArray() {
		return nil
	}
	return r.Array()
}

func fields(r gjson.Result) map[string]gjson.Result {
	if !r.IsObject() {
		return nil
	}
	return r.Map()
}
