package planner

import (
	"context"

	"github.com/trezcool/cuaderno/core"
)

// Entry returns the class entry of an activity on a date; found is false when nothing was written yet.
func (svc *Service) Entry(activityID, date string) (entry ClassEntry, found bool) {
	svc.state.view(func(s *Snapshot) {
		var e ClassEntry
		if e, found = s.ClassEntries[EntryKey(activityID, date)]; found {
			entry = e.clone()
		}
	})
	if !found {
		entry = ClassEntry{Annotations: map[string]string{}}
	}
	return entry, found
}

func (svc *Service) SetPlanned(ctx context.Context, activityID, date string, et EntryText) (ClassEntry, error) {
	return svc.writeEntry(ctx, "SetPlanned", activityID, date, func(e *ClassEntry) { e.Planned = et.Text })
}

func (svc *Service) SetCompleted(ctx context.Context, activityID, date string, et EntryText) (ClassEntry, error) {
	return svc.writeEntry(ctx, "SetCompleted", activityID, date, func(e *ClassEntry) { e.Completed = et.Text })
}

func (svc *Service) SetAnnotation(ctx context.Context, activityID, date, studentID string, et EntryText) (ClassEntry, error) {
	return svc.writeEntry(ctx, "SetAnnotation", activityID, date, func(e *ClassEntry) { e.Annotations[studentID] = et.Text })
}

// writeEntry applies fn to the class entry of activityID on date, creating the entry on first write.
func (svc *Service) writeEntry(ctx context.Context, op, activityID, date string, fn func(e *ClassEntry)) (ClassEntry, error) {
	if _, err := ParseDate(date); err != nil {
		return ClassEntry{}, core.NewValidationError(nil, core.NewFieldError("date", core.ISODateText))
	}

	svc.persistMu.Lock()
	defer svc.persistMu.Unlock()

	key := EntryKey(activityID, date)
	var entry ClassEntry
	err := svc.state.update(func(s *Snapshot) error {
		if _, ok := s.activity(activityID); !ok {
			return ErrActivityNotFound
		}
		e, ok := s.ClassEntries[key]
		if !ok || e.Annotations == nil {
			e.Annotations = map[string]string{}
		}
		fn(&e)
		s.ClassEntries[key] = e
		entry = e.clone()
		return nil
	})
	if err != nil {
		return ClassEntry{}, err
	}

	svc.persist(ctx, op, func(ctx context.Context) error {
		return svc.repo.SaveClassEntry(ctx, key, entry)
	})
	return entry, nil
}

func (svc *Service) CourseSettings() CourseSettings {
	var cs CourseSettings
	svc.state.view(func(s *Snapshot) { cs = s.CourseSettings() })
	return cs
}

// UpdateCourseDates sets the given course bounds; a nil date is left unchanged, a blank one clears it.
func (svc *Service) UpdateCourseDates(ctx context.Context, cd CourseDates) (CourseSettings, error) {
	if err := svc.validate.Struct(cd); err != nil {
		return CourseSettings{}, err
	}

	svc.persistMu.Lock()
	defer svc.persistMu.Unlock()

	var cs CourseSettings
	err := svc.state.update(func(s *Snapshot) error {
		start, end := s.CourseStartDate, s.CourseEndDate
		if cd.StartDate != nil {
			start = core.CleanString(*cd.StartDate)
		}
		if cd.EndDate != nil {
			end = core.CleanString(*cd.EndDate)
		}
		if err := checkDateOrder(start, end, "courseEndDate"); err != nil {
			return err
		}
		s.CourseStartDate, s.CourseEndDate = start, end
		cs = s.CourseSettings()
		return nil
	})
	if err != nil {
		return CourseSettings{}, err
	}

	svc.persist(ctx, "SaveCourseSettings", func(ctx context.Context) error {
		return svc.repo.SaveCourseSettings(ctx, cs)
	})
	return cs, nil
}
