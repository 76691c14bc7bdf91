package planner

import (
	"github.com/trezcool/cuaderno/core"
)

// Reorder directions
const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

type (
	// NewActivity contains information needed to create a new Activity.
	NewActivity struct {
		Name string `json:"name" validate:"required"`
		Type string `json:"type" validate:"required,activitytype"`
	}

	// UpdateActivity defines what may be changed on an Activity. A blank Name keeps the current one;
	// dates are always replaced (blank clears them).
	UpdateActivity struct {
		Name      string `json:"name"`
		StartDate string `json:"startDate" validate:"isodate"`
		EndDate   string `json:"endDate" validate:"isodate"`
	}

	ActivityColor struct {
		Color string `json:"color" validate:"required,hexcolor"`
	}

	// StudentName adds a student to a class by name.
	StudentName struct {
		Name string `json:"name" validate:"required"`
	}

	UpdateStudent struct {
		Name         *string `json:"name" validate:"omitempty,min=1"`
		GeneralNotes *string `json:"generalNotes"`
	}

	ImportStudents struct {
		ActivityID string `json:"activityId" validate:"required"`
		Text       string `json:"text" validate:"required"`
	}

	NewTimeSlot struct {
		Label string `json:"label" validate:"required,slotlabel"`
	}

	ReorderTimeSlot struct {
		Index     int    `json:"index" validate:"min=0"`
		Direction string `json:"direction" validate:"required,oneof=up down"`
	}

	GenerateTimeSlots struct {
		Start        string `json:"start" validate:"required,hhmm"`
		End          string `json:"end" validate:"required,hhmm"`
		ClassMinutes int    `json:"classMinutes" validate:"required,min=1"`
		BreakMinutes int    `json:"breakMinutes" validate:"min=0"`
		BreakStart   string `json:"breakStart" validate:"hhmm"`
	}

	// ScheduleSlot assigns an activity to a day/slot cell; an empty ActivityID frees the cell.
	ScheduleSlot struct {
		Day        string `json:"day" validate:"required,weekday"`
		Time       string `json:"time" validate:"required"`
		ActivityID string `json:"activityId"`
	}

	NewOverride struct {
		Day        string `json:"day" validate:"required,weekday"`
		Time       string `json:"time" validate:"required"`
		ActivityID string `json:"activityId" validate:"required"`
		StartDate  string `json:"startDate" validate:"required,isodate"`
		EndDate    string `json:"endDate" validate:"required,isodate"`
	}

	// EntryText is the body of planned/completed/annotation updates.
	EntryText struct {
		Text string `json:"text"`
	}

	CourseDates struct {
		StartDate *string `json:"courseStartDate" validate:"omitempty,isodate"`
		EndDate   *string `json:"courseEndDate" validate:"omitempty,isodate"`
	}
)

func (na *NewActivity) clean() {
	na.Name = core.CleanString(na.Name)
	na.Type = core.CleanString(na.Type, true /* lower */)
}

func (ua *UpdateActivity) clean() {
	ua.Name = core.CleanString(ua.Name)
	ua.StartDate = core.CleanString(ua.StartDate)
	ua.EndDate = core.CleanString(ua.EndDate)
}

func (sn *StudentName) clean() {
	sn.Name = core.CleanString(sn.Name)
}

func (us *UpdateStudent) clean() {
	if us.Name != nil {
		name := core.CleanString(*us.Name)
		us.Name = &name
	}
}

func (nt *NewTimeSlot) clean() {
	nt.Label = core.CleanString(nt.Label)
}

func (gt *GenerateTimeSlots) clean() {
	gt.Start = core.CleanString(gt.Start)
	gt.End = core.CleanString(gt.End)
	gt.BreakStart = core.CleanString(gt.BreakStart)
}

func (ss *ScheduleSlot) clean() {
	ss.Day = core.CleanString(ss.Day)
	ss.Time = core.CleanString(ss.Time)
	ss.ActivityID = core.CleanString(ss.ActivityID)
}

func (no *NewOverride) clean() {
	no.Day = core.CleanString(no.Day)
	no.Time = core.CleanString(no.Time)
	no.ActivityID = core.CleanString(no.ActivityID)
	no.StartDate = core.CleanString(no.StartDate)
	no.EndDate = core.CleanString(no.EndDate)
}
